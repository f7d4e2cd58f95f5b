package logging

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdelta/deltagate/internal/domain/model"
)

// mockStore captures appended entries. ListRecent is unused by the handler.
type mockStore struct {
	mu      sync.Mutex
	entries []model.AuditEntry
	err     error
}

func (m *mockStore) Append(_ context.Context, entry model.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return m.err
}

func (m *mockStore) ListRecent(_ context.Context, _ int) ([]model.AuditEntry, error) {
	return nil, nil
}

func (m *mockStore) all() []model.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AuditEntry(nil), m.entries...)
}

func newTestStoreLogger(store *mockStore, min slog.Level) *slog.Logger {
	discard := slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewStoreHandler(discard, store, min))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestStoreHandlerPersistsAtOrAboveMin(t *testing.T) {
	store := &mockStore{}
	logger := newTestStoreLogger(store, slog.LevelWarn)

	logger.Info("not persisted")
	logger.Warn("persisted warn")
	logger.Error("persisted error")

	entries := store.all()
	require.Len(t, entries, 2)
	assert.Equal(t, "persisted warn", entries[0].Message)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.Equal(t, "persisted error", entries[1].Message)
	assert.Equal(t, "ERROR", entries[1].Level)
}

func TestStoreHandlerExtractsRequestID(t *testing.T) {
	store := &mockStore{}
	logger := newTestStoreLogger(store, slog.LevelWarn)

	logger.Warn("operation rejected", "request_id", "req-42", "kind", "not_found")

	entries := store.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-42", entries[0].RequestID)
	assert.JSONEq(t, `{"kind":"not_found"}`, entries[0].Attrs)
}

func TestStoreHandlerWithAttrs(t *testing.T) {
	store := &mockStore{}
	logger := newTestStoreLogger(store, slog.LevelWarn).With("component", "validator")

	logger.Warn("workspace probe failed", "host", "acme.cloud.databricks.com")

	entries := store.all()
	require.Len(t, entries, 1)
	assert.JSONEq(t, `{"component":"validator","host":"acme.cloud.databricks.com"}`, entries[0].Attrs)
}

func TestStoreHandlerAppendFailureDoesNotFailLogging(t *testing.T) {
	store := &mockStore{err: assert.AnError}
	logger := newTestStoreLogger(store, slog.LevelWarn)

	// Must not panic or error; persistence is best-effort.
	logger.Error("operation failed")

	assert.Len(t, store.all(), 1)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.name), tt.name)
	}
}
