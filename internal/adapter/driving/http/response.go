package httphandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/opsdelta/deltagate/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeOutcome maps a classified outcome to its HTTP status and writes the
// error body. Infrastructure kinds (upstream unavailable, auth acquisition,
// unreachable endpoint) never collapse into business-negative statuses.
func writeOutcome(w http.ResponseWriter, logger *slog.Logger, oerr *model.OutcomeError) {
	status := statusForOutcome(oerr.Kind)
	if status >= http.StatusInternalServerError {
		logger.Error("operation failed", "kind", oerr.Kind, "error", oerr.Err)
	} else {
		logger.Warn("operation rejected", "kind", oerr.Kind, "error", oerr.Err)
	}
	writeJSON(w, status, errorResponse{Error: oerr.Error(), Kind: string(oerr.Kind)})
}

func statusForOutcome(kind model.OutcomeKind) int {
	switch kind {
	case model.OutcomeUnauthenticated:
		return http.StatusUnauthorized
	case model.OutcomePermissionDenied:
		return http.StatusForbidden
	case model.OutcomeNotFound:
		return http.StatusNotFound
	case model.OutcomeConflict:
		return http.StatusConflict
	case model.OutcomeBadRequest, model.OutcomeInvalidEndpoint:
		return http.StatusBadRequest
	case model.OutcomeEndpointUnreachable, model.OutcomeAuthAcquisitionFailed:
		return http.StatusServiceUnavailable
	case model.OutcomeUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// ShareResponse is the JSON representation of a share.
type ShareResponse struct {
	Name        string                 `json:"name"`
	Comment     string                 `json:"comment,omitempty"`
	Owner       string                 `json:"owner,omitempty"`
	StorageRoot string                 `json:"storage_root,omitempty"`
	CreatedAt   string                 `json:"created_at,omitempty"`
	UpdatedAt   string                 `json:"updated_at,omitempty"`
	Objects     []SharedObjectResponse `json:"objects"`
}

// SharedObjectResponse is the JSON representation of one shared data object.
type SharedObjectResponse struct {
	Name           string `json:"name"`
	DataObjectType string `json:"data_object_type,omitempty"`
	SharedAs       string `json:"shared_as,omitempty"`
	AddedAt        string `json:"added_at,omitempty"`
	AddedBy        string `json:"added_by,omitempty"`
	HistorySharing bool   `json:"history_sharing"`
}

// RecipientResponse is the JSON representation of a recipient.
type RecipientResponse struct {
	Name              string                   `json:"name"`
	Comment           string                   `json:"comment,omitempty"`
	Owner             string                   `json:"owner,omitempty"`
	AuthType          string                   `json:"authentication_type"`
	GlobalMetastoreID string                   `json:"global_metastore_id,omitempty"`
	IPAccessList      []string                 `json:"ip_access_list"`
	Tokens            []RecipientTokenResponse `json:"tokens"`
	ExpirationTime    string                   `json:"expiration_time,omitempty"`
	CreatedAt         string                   `json:"created_at,omitempty"`
	UpdatedAt         string                   `json:"updated_at,omitempty"`
}

// RecipientTokenResponse is the JSON representation of an activation token.
type RecipientTokenResponse struct {
	ID             string `json:"id"`
	ActivationURL  string `json:"activation_url,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
	ExpirationTime string `json:"expiration_time,omitempty"`
}

// HealthResponse is the JSON representation of the liveness endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Time    string `json:"time"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// ReadinessResponse is the JSON representation of the readiness endpoint.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Time   string            `json:"time"`
	Checks map[string]string `json:"checks"`
	Error  string            `json:"error,omitempty"`
}

// AuditEntryResponse is the JSON representation of one persisted log record.
type AuditEntryResponse struct {
	ID        int64           `json:"id"`
	Time      string          `json:"time"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id,omitempty"`
	Attrs     json.RawMessage `json:"attrs"`
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toShareResponse(share model.Share) ShareResponse {
	objects := make([]SharedObjectResponse, 0, len(share.Objects))
	for _, obj := range share.Objects {
		objects = append(objects, SharedObjectResponse{
			Name:           obj.Name,
			DataObjectType: obj.DataObjectType,
			SharedAs:       obj.SharedAs,
			AddedAt:        fmtTime(obj.AddedAt),
			AddedBy:        obj.AddedBy,
			HistorySharing: obj.HistorySharing,
		})
	}

	return ShareResponse{
		Name:        share.Name,
		Comment:     share.Comment,
		Owner:       share.Owner,
		StorageRoot: share.StorageRoot,
		CreatedAt:   fmtTime(share.CreatedAt),
		UpdatedAt:   fmtTime(share.UpdatedAt),
		Objects:     objects,
	}
}

func toRecipientResponse(recipient model.Recipient) RecipientResponse {
	ips := recipient.IPAccessList
	if ips == nil {
		ips = []string{}
	}

	tokens := make([]RecipientTokenResponse, 0, len(recipient.Tokens))
	for _, token := range recipient.Tokens {
		tokens = append(tokens, RecipientTokenResponse{
			ID:             token.ID,
			ActivationURL:  token.ActivationURL,
			CreatedAt:      fmtTime(token.CreatedAt),
			ExpirationTime: fmtTime(token.ExpirationTime),
		})
	}

	return RecipientResponse{
		Name:              recipient.Name,
		Comment:           recipient.Comment,
		Owner:             recipient.Owner,
		AuthType:          string(recipient.AuthType),
		GlobalMetastoreID: recipient.GlobalMetastoreID,
		IPAccessList:      ips,
		Tokens:            tokens,
		ExpirationTime:    fmtTime(recipient.ExpirationTime),
		CreatedAt:         fmtTime(recipient.CreatedAt),
		UpdatedAt:         fmtTime(recipient.UpdatedAt),
	}
}

func toAuditEntryResponse(entry model.AuditEntry) AuditEntryResponse {
	attrs := json.RawMessage(entry.Attrs)
	if !json.Valid(attrs) {
		attrs = json.RawMessage(`{}`)
	}

	return AuditEntryResponse{
		ID:        entry.ID,
		Time:      fmtTime(entry.Time),
		Level:     entry.Level,
		Message:   entry.Message,
		RequestID: entry.RequestID,
		Attrs:     attrs,
	}
}
