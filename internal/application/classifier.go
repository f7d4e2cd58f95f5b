package application

import (
	"errors"

	"github.com/opsdelta/deltagate/internal/domain/model"
	"github.com/opsdelta/deltagate/internal/domain/port/driven"
)

// Classify collapses any failure signal into one OutcomeKind. It is total
// (always returns a kind) and deterministic: locally originated conditions
// are tested first, then the vendor's reported category, then the HTTP
// status, and finally the generic fallback, so no signal is ever ambiguous.
func Classify(err error) model.OutcomeKind {
	switch {
	case errors.Is(err, ErrAuthAcquisition):
		return model.OutcomeAuthAcquisitionFailed
	case errors.Is(err, ErrInvalidEndpoint):
		return model.OutcomeInvalidEndpoint
	case errors.Is(err, ErrEndpointUnreachable):
		return model.OutcomeEndpointUnreachable
	}

	var vendorErr *driven.VendorError
	if errors.As(err, &vendorErr) {
		return classifyVendorError(vendorErr)
	}

	return model.OutcomeUpstreamUnavailable
}

// classified wraps err as an OutcomeError carrying its kind. A nil err
// returns nil.
func classified(err error) *model.OutcomeError {
	if err == nil {
		return nil
	}
	var oe *model.OutcomeError
	if errors.As(err, &oe) {
		return oe
	}
	return &model.OutcomeError{Kind: Classify(err), Err: err}
}

// outcome builds an OutcomeError for a condition detected locally, such as a
// pre-checked conflict or a missing resource.
func outcome(kind model.OutcomeKind, err error) *model.OutcomeError {
	return &model.OutcomeError{Kind: kind, Err: err}
}

func classifyVendorError(vendorErr *driven.VendorError) model.OutcomeKind {
	// The service-reported error code is authoritative; HTTP status is the
	// fallback for responses without one.
	switch vendorErr.Code {
	case "UNAUTHENTICATED":
		return model.OutcomeUnauthenticated
	case "PERMISSION_DENIED":
		return model.OutcomePermissionDenied
	case "NOT_FOUND", "RECIPIENT_DOES_NOT_EXIST", "SHARE_DOES_NOT_EXIST":
		return model.OutcomeNotFound
	case "ALREADY_EXISTS", "RECIPIENT_ALREADY_EXISTS", "SHARE_ALREADY_EXISTS", "RESOURCE_CONFLICT":
		return model.OutcomeConflict
	case "BAD_REQUEST", "INVALID_PARAMETER_VALUE":
		return model.OutcomeBadRequest
	}

	switch vendorErr.StatusCode {
	case 401:
		return model.OutcomeUnauthenticated
	case 403:
		return model.OutcomePermissionDenied
	case 404:
		return model.OutcomeNotFound
	case 409:
		return model.OutcomeConflict
	case 400:
		return model.OutcomeBadRequest
	}

	return model.OutcomeUpstreamUnavailable
}
