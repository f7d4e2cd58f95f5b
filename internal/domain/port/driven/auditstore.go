package driven

import (
	"context"

	"github.com/opsdelta/deltagate/internal/domain/model"
)

// AuditStore defines the driven port for persisted log records. The logging
// layer appends entries at or above its configured level; the HTTP layer
// reads them back for operators.
type AuditStore interface {
	Append(ctx context.Context, entry model.AuditEntry) error

	// ListRecent returns up to limit entries, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.AuditEntry, error)
}
