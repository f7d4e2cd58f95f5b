// Package httphandler exposes the sharing facade as a JSON REST API.
package httphandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/opsdelta/deltagate/internal/application"
	"github.com/opsdelta/deltagate/internal/domain/port/driven"
)

const (
	serviceName    = "deltagate"
	serviceVersion = "1.0.0"

	// workspaceHeader carries the per-request destination workspace URL.
	workspaceHeader = "X-Databricks-Workspace-Url"

	maxBodyBytes      = 1 << 20
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	shares     *application.ShareService
	recipients *application.RecipientService
	health     *application.HealthService
	audit      driven.AuditStore

	// defaultWorkspace is used when a request carries no workspace header.
	defaultWorkspace string

	logger *slog.Logger
}

// NewHandler creates a Handler with the given services.
func NewHandler(
	shares *application.ShareService,
	recipients *application.RecipientService,
	health *application.HealthService,
	audit driven.AuditStore,
	defaultWorkspace string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		shares:           shares,
		recipients:       recipients,
		health:           health,
		audit:            audit,
		defaultWorkspace: defaultWorkspace,
		logger:           logger,
	}
}

// NewServeMux builds the route table with the middleware chain applied.
func NewServeMux(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.handleHealth)
	mux.HandleFunc("GET /api/v1/health/ready", h.handleReadiness)

	mux.HandleFunc("GET /api/v1/shares", h.handleListShares)
	mux.HandleFunc("POST /api/v1/shares", h.handleCreateShare)
	mux.HandleFunc("GET /api/v1/shares/{name}", h.handleGetShare)
	mux.HandleFunc("PATCH /api/v1/shares/{name}/objects", h.handleUpdateShareObjects)
	mux.HandleFunc("DELETE /api/v1/shares/{name}", h.handleDeleteShare)

	mux.HandleFunc("GET /api/v1/recipients", h.handleListRecipients)
	mux.HandleFunc("POST /api/v1/recipients/d2d", h.handleCreateRecipientD2D)
	mux.HandleFunc("POST /api/v1/recipients/d2o", h.handleCreateRecipientD2O)
	mux.HandleFunc("GET /api/v1/recipients/{name}", h.handleGetRecipient)
	mux.HandleFunc("PATCH /api/v1/recipients/{name}", h.handleUpdateRecipient)
	mux.HandleFunc("PATCH /api/v1/recipients/{name}/ip-access", h.handleUpdateIPAccess)
	mux.HandleFunc("POST /api/v1/recipients/{name}/rotate-token", h.handleRotateToken)
	mux.HandleFunc("DELETE /api/v1/recipients/{name}", h.handleDeleteRecipient)

	mux.HandleFunc("GET /api/v1/audit", h.handleListAudit)

	var handler http.Handler = mux
	handler = loggingMiddleware(h.logger, handler)
	handler = recoveryMiddleware(h.logger, handler)
	handler = requestIDMiddleware(handler)
	return handler
}

// workspace resolves the destination workspace for a request: the header if
// present, the configured default otherwise. ok is false when neither exists;
// the error response has already been written in that case.
func (h *Handler) workspace(w http.ResponseWriter, r *http.Request) (string, bool) {
	if v := r.Header.Get(workspaceHeader); v != "" {
		return v, true
	}
	if h.defaultWorkspace != "" {
		return h.defaultWorkspace, true
	}
	writeError(w, http.StatusBadRequest, "no workspace URL: set the "+workspaceHeader+" header or configure a default")
	return "", false
}

// decodeBody reads and unmarshals a JSON request body into dst. ok is false
// when decoding failed; the error response has already been written.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Time:    time.Now().UTC().Format(time.RFC3339),
		Service: serviceName,
		Version: serviceVersion,
	})
}

func (h *Handler) handleReadiness(w http.ResponseWriter, r *http.Request) {
	readiness := h.health.Readiness(r.Context())

	status := http.StatusOK
	verdict := "ready"
	if !readiness.Ready {
		status = http.StatusServiceUnavailable
		verdict = "not ready"
	}

	writeJSON(w, status, ReadinessResponse{
		Status: verdict,
		Time:   time.Now().UTC().Format(time.RFC3339),
		Checks: readiness.Checks,
		Error:  readiness.Error,
	})
}

func (h *Handler) handleListShares(w http.ResponseWriter, r *http.Request) {
	dest, ok := h.workspace(w, r)
	if !ok {
		return
	}

	filter := r.URL.Query().Get("filter")
	maxResults, err := queryInt(r, "max_results", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	shares, oerr := h.shares.List(r.Context(), dest, filter, maxResults)
	if oerr != nil {
		writeOutcome(w, h.logger, oerr)
		return
	}

	out := make([]ShareResponse, 0, len(shares))
	for _, share := range shares {
		out = append(out, toShareResponse(share))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetShare(w http.ResponseWriter, r *http.Request) {
	dest, ok := h.workspace(w, r)
	if !ok {
		return
	}

	share, oerr := h.shares.Get(r.Context(), dest, r.PathValue("name"))
	if oerr != nil {
		writeOutcome(w, h.logger, oerr)
		return
	}
	writeJSON(w, http.StatusOK, toShareResponse(*share))
}

func (h *Handler) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	dest, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var req CreateShareRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	share, oerr := h.shares.Create(r.Context(), dest, req.toModel())
	if oerr != nil {
		writeOutcome(w, h.logger, oerr)
		return
	}
	writeJSON(w, http.StatusCreated, toShareResponse(*share))
}

func (h *Handler) handleUpdateShareObjects(w http.ResponseWriter, r *http.Request) {
	dest, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var req UpdateShareObjectsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	share, oerr := h.shares.UpdateObjects(r.Context(), dest, r.PathValue("name"), req.toModel())
	if oerr != nil {
		writeOutcome(w, h.logger, oerr)
		return
	}
	writeJSON(w, http.StatusOK, toShareResponse(*share))
}

func (h *Handler) handleDeleteShare(w http.ResponseWriter, r *http.Request) {
	dest, ok := h.workspace(w, r)
	if !ok {
		return
	}

	if oerr := h.shares.Delete(r.Context(), dest, r.PathValue("name")); oerr != nil {
		writeOutcome(w, h.logger, oerr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListRecipients(w http.ResponseWriter, r *http.Request) {
	dest, ok := h.workspace(w, r)
	if !ok {
		return
	}

	maxResults, err := queryInt(r, "max_results", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipients, oerr := h.recipients.List(r.Context(), dest, maxResults)
	if oerr != nil {
		writeOutcome(w, h.logger, oerr)
		return
	}

	out := make([]RecipientResponse, 0, len(recipients))
	for _, recipient := range recipients {
		out = append(out, toRecipientResponse(recipient))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetRecipient(w http.ResponseWriter, r *http.Request) {
	dest, ok := h.workspace(w, r)
	if !ok {
		return
	}

	recipient, oerr := h.recipients.Get(r.Context(), dest, r.PathValue("name"))
	if oerr != nil {
		writeOutcome(w, h.logger, oerr)
		return
	}
	writeJSON(w, http.StatusOK, toRecipientResponse(*recipient))
}

func (h *Handler) handleCreateRecipientD2D(w http.ResponseWriter, r *http.Request) {
	dest, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var req CreateRecipientD2DRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipient, oerr := h.recipients.CreateD2D(r.Context(), dest, req.Name, req.GlobalMetastoreID, req.Comment, req.SharingCode)
	if oerr != nil {
		writeOutcome(w, h.logger, oerr)
		return
	}
	writeJSON(w, http.StatusCreated, toRecipientResponse(*recipient))
}

func (h *Handler) handleCreateRecipientD2O(w http.ResponseWriter, r *http.Request) {
	dest, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var req CreateRecipientD2ORequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipient, oerr := h.recipients.CreateD2O(r.Context(), dest, req.Name, req.Comment, req.IPAccessList)
	if oerr != nil {
		writeOutcome(w, h.logger, oerr)
		return
	}
	writeJSON(w, http.StatusCreated, toRecipientResponse(*recipient))
}

func (h *Handler) handleUpdateRecipient(w http.ResponseWriter, r *http.Request) {
	dest, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var req UpdateRecipientRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	patch, err := req.toModel()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipient, oerr := h.recipients.Update(r.Context(), dest, r.PathValue("name"), patch)
	if oerr != nil {
		writeOutcome(w, h.logger, oerr)
		return
	}
	writeJSON(w, http.StatusOK, toRecipientResponse(*recipient))
}

func (h *Handler) handleUpdateIPAccess(w http.ResponseWriter, r *http.Request) {
	dest, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var req UpdateIPAccessRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipient, oerr := h.recipients.UpdateIPAccess(r.Context(), dest, r.PathValue("name"), req.Add, req.Revoke)
	if oerr != nil {
		writeOutcome(w, h.logger, oerr)
		return
	}
	writeJSON(w, http.StatusOK, toRecipientResponse(*recipient))
}

func (h *Handler) handleRotateToken(w http.ResponseWriter, r *http.Request) {
	dest, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var req RotateTokenRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipient, oerr := h.recipients.RotateToken(r.Context(), dest, r.PathValue("name"), req.ExpireInSeconds)
	if oerr != nil {
		writeOutcome(w, h.logger, oerr)
		return
	}
	writeJSON(w, http.StatusOK, toRecipientResponse(*recipient))
}

func (h *Handler) handleDeleteRecipient(w http.ResponseWriter, r *http.Request) {
	dest, ok := h.workspace(w, r)
	if !ok {
		return
	}

	if oerr := h.recipients.Delete(r.Context(), dest, r.PathValue("name")); oerr != nil {
		writeOutcome(w, h.logger, oerr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListAudit(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultAuditLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit <= 0 || limit > maxAuditLimit {
		limit = defaultAuditLimit
	}

	entries, err := h.audit.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list audit entries", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}

	out := make([]AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toAuditEntryResponse(entry))
	}
	writeJSON(w, http.StatusOK, out)
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}
