package model

// Destination is a caller-supplied workspace address that has passed
// validation. Destinations are request-scoped: each inbound request's address
// is validated independently and the result is never cached across requests.
type Destination struct {
	Raw    string
	Scheme string
	Host   string
}

// BaseURL returns the scheme://host form used as the prefix for vendor API
// calls against this workspace.
func (d Destination) BaseURL() string {
	return d.Scheme + "://" + d.Host
}
