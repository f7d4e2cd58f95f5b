package model

import "time"

// AuthenticationType distinguishes the two recipient flavors: DATABRICKS for
// Databricks-to-Databricks sharing, TOKEN for open (bearer-token) sharing.
type AuthenticationType string

const (
	AuthDatabricks AuthenticationType = "DATABRICKS"
	AuthToken      AuthenticationType = "TOKEN"
)

// Recipient is a consumer of one or more shares.
type Recipient struct {
	Name              string
	Comment           string
	Owner             string
	AuthType          AuthenticationType
	GlobalMetastoreID string
	IPAccessList      []string
	Tokens            []RecipientToken
	ExpirationTime    time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RecipientToken is an activation token issued to a TOKEN-auth recipient.
type RecipientToken struct {
	ID             string
	ActivationURL  string
	CreatedAt      time.Time
	ExpirationTime time.Time
}

// NewRecipient holds the caller-specified fields for recipient creation.
// GlobalMetastoreID and SharingCode apply only to DATABRICKS auth;
// IPAccessList applies only to TOKEN auth.
type NewRecipient struct {
	Name              string
	Comment           string
	AuthType          AuthenticationType
	GlobalMetastoreID string
	SharingCode       string
	IPAccessList      []string
}

// RecipientPatch carries a partial update. Nil pointer fields are left
// untouched; IPAccessList replaces the full list when non-nil.
type RecipientPatch struct {
	Comment        *string
	ExpirationTime *time.Time
	IPAccessList   []string
}
