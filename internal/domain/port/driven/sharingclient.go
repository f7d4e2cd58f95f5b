package driven

import (
	"context"

	"github.com/opsdelta/deltagate/internal/domain/model"
)

// SharingClient defines the driven port for the Databricks Unity Catalog
// sharing API. Every call targets a validated destination and carries the
// bearer token supplied by the caller; the client itself holds no
// credentials.
//
// Get methods return (nil, nil) when the named object does not exist, so
// services can distinguish "legitimately absent" from a failed call. All
// other vendor failures surface as *VendorError for classification.
type SharingClient interface {
	// Shares

	ListShares(ctx context.Context, dest model.Destination, token string, maxResults int) ([]model.Share, error)
	GetShare(ctx context.Context, dest model.Destination, token, name string) (*model.Share, error)
	CreateShare(ctx context.Context, dest model.Destination, token string, share model.NewShare) (*model.Share, error)
	// UpdateShareObjects applies add/remove updates to the share's data objects.
	UpdateShareObjects(ctx context.Context, dest model.Destination, token, name string, updates []model.SharedObjectUpdate) (*model.Share, error)
	DeleteShare(ctx context.Context, dest model.Destination, token, name string) error

	// Recipients

	ListRecipients(ctx context.Context, dest model.Destination, token string, maxResults int) ([]model.Recipient, error)
	GetRecipient(ctx context.Context, dest model.Destination, token, name string) (*model.Recipient, error)
	CreateRecipient(ctx context.Context, dest model.Destination, token string, recipient model.NewRecipient) (*model.Recipient, error)
	UpdateRecipient(ctx context.Context, dest model.Destination, token, name string, patch model.RecipientPatch) (*model.Recipient, error)
	// RotateRecipientToken rotates a TOKEN-auth recipient's activation token.
	// expireIn bounds the remaining lifetime of the superseded token in
	// seconds; zero expires it immediately.
	RotateRecipientToken(ctx context.Context, dest model.Destination, token, name string, expireIn int64) (*model.Recipient, error)
	DeleteRecipient(ctx context.Context, dest model.Destination, token, name string) error
}
