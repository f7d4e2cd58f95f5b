package model

import "time"

// AuditEntry is one persisted log record. Attrs holds the structured
// attributes as a JSON object string.
type AuditEntry struct {
	ID        int64
	Time      time.Time
	Level     string
	Message   string
	RequestID string
	Attrs     string
}
