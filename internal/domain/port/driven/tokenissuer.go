package driven

import (
	"context"
	"time"
)

// IssuedToken is the raw result of one token-endpoint exchange.
type IssuedToken struct {
	AccessToken string
	ExpiresIn   time.Duration
}

// TokenIssuer defines the driven port for the OAuth2 client-credentials
// exchange against the identity provider. Implementations perform exactly one
// network call per Issue invocation and hold no cache; expiry tracking and
// deduplication of concurrent acquisitions belong to the application layer.
type TokenIssuer interface {
	Issue(ctx context.Context) (IssuedToken, error)
}
