package model

import "fmt"

// OutcomeKind is the closed classification of a failed operation. The route
// layer maps each kind 1:1 to an HTTP status, so new vendor-side error
// subtypes never require new route code.
type OutcomeKind string

const (
	// Vendor-service-reported categories.
	OutcomeUnauthenticated     OutcomeKind = "unauthenticated"
	OutcomePermissionDenied    OutcomeKind = "permission_denied"
	OutcomeNotFound            OutcomeKind = "not_found"
	OutcomeConflict            OutcomeKind = "conflict"
	OutcomeBadRequest          OutcomeKind = "bad_request"
	OutcomeUpstreamUnavailable OutcomeKind = "upstream_unavailable"

	// Surfaced by the token cache, not the vendor service.
	OutcomeAuthAcquisitionFailed OutcomeKind = "auth_acquisition_failed"

	// Surfaced by the endpoint validator, not the vendor service.
	OutcomeInvalidEndpoint     OutcomeKind = "invalid_endpoint"
	OutcomeEndpointUnreachable OutcomeKind = "endpoint_unreachable"
)

// OutcomeError tags an underlying failure with its classified kind. Services
// return *OutcomeError for every failure so callers make a single
// deterministic decision without inspecting raw vendor errors. The original
// signal is retained for diagnostics only.
type OutcomeError struct {
	Kind OutcomeKind
	Err  error
}

func (e *OutcomeError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *OutcomeError) Unwrap() error {
	return e.Err
}
