package model

import "time"

// Credential is a bearer token scoped to a single Databricks account,
// together with its validity window. Credentials are immutable values:
// refresh produces a new Credential and drops the old one, it never mutates
// in place.
type Credential struct {
	Token     string
	AccountID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TTL returns the remaining lifetime of the credential relative to now.
// Negative when the credential has already expired.
func (c Credential) TTL(now time.Time) time.Duration {
	return c.ExpiresAt.Sub(now)
}
