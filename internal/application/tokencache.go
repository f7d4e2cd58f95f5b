package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/opsdelta/deltagate/internal/domain/model"
	"github.com/opsdelta/deltagate/internal/domain/port/driven"
)

// DefaultRefreshBuffer is the safety margin before actual expiry at which a
// credential is proactively replaced.
const DefaultRefreshBuffer = 5 * time.Minute

// ErrAuthAcquisition marks a failed token acquisition. Errors returned by
// TokenCache.Credential wrap it, so callers classify with errors.Is rather
// than matching vendor error strings.
var ErrAuthAcquisition = errors.New("token acquisition failed")

// TokenCache supplies a currently valid bearer credential to any concurrent
// caller, acquiring or refreshing it transparently. Concurrent callers that
// find the cache absent or expiring share a single in-flight acquisition and
// all receive its result, success or failure. Callers holding a credential
// that is still outside the refresh buffer are served from the cache with no
// network call and without blocking behind an in-flight acquisition.
type TokenCache struct {
	issuer    driven.TokenIssuer
	accountID string
	buffer    time.Duration
	logger    *slog.Logger

	mu   sync.RWMutex
	cred *model.Credential

	flight singleflight.Group
}

// NewTokenCache creates a TokenCache for the given account. buffer <= 0
// falls back to DefaultRefreshBuffer.
func NewTokenCache(issuer driven.TokenIssuer, accountID string, buffer time.Duration, logger *slog.Logger) *TokenCache {
	if buffer <= 0 {
		buffer = DefaultRefreshBuffer
	}
	return &TokenCache{
		issuer:    issuer,
		accountID: accountID,
		buffer:    buffer,
		logger:    logger,
	}
}

// Credential returns a credential whose remaining lifetime at now exceeds the
// refresh buffer. now is supplied by the caller and never read internally, so
// behavior is deterministic under test. On acquisition failure the error
// wraps ErrAuthAcquisition and nothing is cached.
func (c *TokenCache) Credential(ctx context.Context, now time.Time) (model.Credential, error) {
	if cred, ok := c.cached(now); ok {
		return cred, nil
	}

	// The fixed key collapses all concurrent acquisitions for the single
	// configured account into one flight.
	v, err, _ := c.flight.Do("acquire", func() (any, error) {
		// A flight that just completed may already have stored a fresh
		// credential; don't acquire again on its heels.
		if cred, ok := c.cached(now); ok {
			return cred, nil
		}
		return c.acquire(ctx, now)
	})
	if err != nil {
		return model.Credential{}, err
	}
	return v.(model.Credential), nil
}

// Valid reports whether a cached credential exists and clears the refresh
// buffer at now. Used by readiness checks; it never triggers acquisition.
func (c *TokenCache) Valid(now time.Time) bool {
	_, ok := c.cached(now)
	return ok
}

func (c *TokenCache) cached(now time.Time) (model.Credential, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.cred == nil || c.cred.TTL(now) <= c.buffer {
		return model.Credential{}, false
	}
	return *c.cred, true
}

// acquire performs the single network exchange and stores the resulting
// credential. The store happens under the write lock only after the network
// call returns, so readers of a still-valid credential are never blocked by
// in-flight I/O.
func (c *TokenCache) acquire(ctx context.Context, now time.Time) (model.Credential, error) {
	c.logger.Info("acquiring access token", "account_id", c.accountID)

	issued, err := c.issuer.Issue(ctx)
	if err != nil {
		return model.Credential{}, fmt.Errorf("%w: %v", ErrAuthAcquisition, err)
	}

	cred := model.Credential{
		Token:     issued.AccessToken,
		AccountID: c.accountID,
		IssuedAt:  now,
		ExpiresAt: now.Add(issued.ExpiresIn),
	}

	c.mu.Lock()
	c.cred = &cred
	c.mu.Unlock()

	c.logger.Info("access token cached", "expires_at", cred.ExpiresAt)
	return cred, nil
}
