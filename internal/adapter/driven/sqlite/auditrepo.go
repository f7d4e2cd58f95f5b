package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/opsdelta/deltagate/internal/domain/model"
	"github.com/opsdelta/deltagate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AuditStore = (*AuditRepo)(nil)

// AuditRepo is the SQLite implementation of the AuditStore port.
type AuditRepo struct {
	db *DB
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(db *DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Append inserts one audit entry.
func (r *AuditRepo) Append(ctx context.Context, entry model.AuditEntry) error {
	const query = `INSERT INTO audit_log (ts, level, message, request_id, attrs) VALUES (?, ?, ?, ?, ?)`

	ts := entry.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		ts.UTC().Format(time.RFC3339Nano),
		entry.Level,
		entry.Message,
		entry.RequestID,
		entry.Attrs,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ListRecent returns up to limit entries, newest first.
func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	const query = `SELECT id, ts, level, message, request_id, attrs FROM audit_log ORDER BY id DESC LIMIT ?`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var entry model.AuditEntry
		var ts string
		if err := rows.Scan(&entry.ID, &ts, &entry.Level, &entry.Message, &entry.RequestID, &entry.Attrs); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		entry.Time, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse audit entry timestamp %q: %w", ts, err)
		}

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, nil
}
