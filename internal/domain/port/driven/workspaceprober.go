package driven

import (
	"context"

	"github.com/opsdelta/deltagate/internal/domain/model"
)

// WorkspaceProber defines the driven port for the liveness check of a
// syntactically accepted destination: DNS resolution of the host followed by
// a bounded HEAD probe. Implementations never carry credentials; they only
// establish that the address answers at all.
type WorkspaceProber interface {
	Probe(ctx context.Context, dest model.Destination) error
}
