package driven

import "fmt"

// VendorError is the normalized shape of a Databricks API failure: the HTTP
// status plus the service-reported error code and message. SharingClient
// implementations return *VendorError for every non-2xx vendor response so
// the classifier never inspects transport-level details.
type VendorError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *VendorError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("databricks: %s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("databricks: status %d: %s", e.StatusCode, e.Message)
}
