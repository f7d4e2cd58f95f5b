package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/opsdelta/deltagate/internal/domain/model"
	"github.com/opsdelta/deltagate/internal/domain/port/driven"
)

// storeTimeout bounds the audit insert so a stalled database write can never
// hold up request handling.
const storeTimeout = 2 * time.Second

// StoreHandler is a slog.Handler that forwards every record to an inner
// handler and additionally persists records at or above min into the audit
// store. Persistence is best-effort: a failed insert never fails the log
// call.
type StoreHandler struct {
	inner slog.Handler
	store driven.AuditStore
	min   slog.Level
	attrs []slog.Attr
}

// NewStoreHandler wraps inner with the audit tee.
func NewStoreHandler(inner slog.Handler, store driven.AuditStore, min slog.Level) *StoreHandler {
	return &StoreHandler{
		inner: inner,
		store: store,
		min:   min,
	}
}

func (h *StoreHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.min || h.inner.Enabled(ctx, level)
}

func (h *StoreHandler) Handle(ctx context.Context, r slog.Record) error {
	var innerErr error
	if h.inner.Enabled(ctx, r.Level) {
		innerErr = h.inner.Handle(ctx, r)
	}

	if r.Level < h.min {
		return innerErr
	}

	attrs := make(map[string]string, r.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.String()
		return true
	})

	requestID := attrs["request_id"]
	delete(attrs, "request_id")

	data, err := json.Marshal(attrs)
	if err != nil {
		data = []byte("{}")
	}

	// The request context may already be canceled (e.g. logging during
	// shutdown); the insert gets its own bounded context.
	storeCtx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	_ = h.store.Append(storeCtx, model.AuditEntry{
		Time:      r.Time,
		Level:     r.Level.String(),
		Message:   r.Message,
		RequestID: requestID,
		Attrs:     string(data),
	})

	return innerErr
}

func (h *StoreHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &StoreHandler{
		inner: h.inner.WithAttrs(attrs),
		store: h.store,
		min:   h.min,
		attrs: merged,
	}
}

// WithGroup groups only the console output; persisted attrs stay flat, which
// keeps the audit table queryable by key.
func (h *StoreHandler) WithGroup(name string) slog.Handler {
	return &StoreHandler{
		inner: h.inner.WithGroup(name),
		store: h.store,
		min:   h.min,
		attrs: h.attrs,
	}
}
