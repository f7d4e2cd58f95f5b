package httphandler

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/opsdelta/deltagate/internal/domain/model"
)

// CreateShareRequest is the JSON body for share creation.
type CreateShareRequest struct {
	Name        string `json:"name"`
	Comment     string `json:"comment"`
	StorageRoot string `json:"storage_root"`
}

func (r CreateShareRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Comment, validation.Length(0, 1024)),
	)
}

func (r CreateShareRequest) toModel() model.NewShare {
	return model.NewShare{
		Name:        r.Name,
		Comment:     r.Comment,
		StorageRoot: r.StorageRoot,
	}
}

// ShareObjectUpdateRequest is one add/remove entry in an objects update.
type ShareObjectUpdateRequest struct {
	Action string `json:"action"`
	Name   string `json:"name"`
	Type   string `json:"data_object_type"`
	// SharedAs optionally renames the object for recipients.
	SharedAs       string `json:"shared_as"`
	HistorySharing bool   `json:"history_sharing"`
}

func (r ShareObjectUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Action, validation.Required, validation.In("ADD", "REMOVE")),
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Type, validation.In("TABLE", "SCHEMA", "VIEW", "MATERIALIZED_VIEW", "MODEL", "VOLUME", "NOTEBOOK_FILE")),
	)
}

// UpdateShareObjectsRequest is the JSON body for the objects update endpoint.
type UpdateShareObjectsRequest struct {
	Updates []ShareObjectUpdateRequest `json:"updates"`
}

func (r UpdateShareObjectsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Updates, validation.Required, validation.Length(1, 100)),
	)
}

func (r UpdateShareObjectsRequest) toModel() []model.SharedObjectUpdate {
	updates := make([]model.SharedObjectUpdate, 0, len(r.Updates))
	for _, u := range r.Updates {
		objectType := u.Type
		if objectType == "" {
			objectType = "TABLE"
		}
		updates = append(updates, model.SharedObjectUpdate{
			Action: model.ObjectUpdateAction(u.Action),
			Object: model.SharedObject{
				Name:           u.Name,
				DataObjectType: objectType,
				SharedAs:       u.SharedAs,
				HistorySharing: u.HistorySharing,
			},
		})
	}
	return updates
}

// CreateRecipientD2DRequest is the JSON body for Databricks-to-Databricks
// recipient creation.
type CreateRecipientD2DRequest struct {
	Name              string `json:"name"`
	GlobalMetastoreID string `json:"global_metastore_id"`
	Comment           string `json:"comment"`
	SharingCode       string `json:"sharing_code"`
}

func (r CreateRecipientD2DRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.GlobalMetastoreID, validation.Required),
		validation.Field(&r.Comment, validation.Length(0, 1024)),
	)
}

// CreateRecipientD2ORequest is the JSON body for open-sharing recipient
// creation.
type CreateRecipientD2ORequest struct {
	Name         string   `json:"name"`
	Comment      string   `json:"comment"`
	IPAccessList []string `json:"ip_access_list"`
}

func (r CreateRecipientD2ORequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Comment, validation.Length(0, 1024)),
		validation.Field(&r.IPAccessList, validation.Each(validation.Required)),
	)
}

// UpdateRecipientRequest is the JSON body for the recipient patch endpoint.
// Absent fields are left unchanged.
type UpdateRecipientRequest struct {
	Comment        *string `json:"comment"`
	ExpirationTime *string `json:"expiration_time"`
}

func (r UpdateRecipientRequest) Validate() error {
	if r.Comment == nil && r.ExpirationTime == nil {
		return validation.NewError("validation_empty_patch", "at least one of comment or expiration_time must be supplied")
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.ExpirationTime, validation.Date(time.RFC3339)),
	)
}

func (r UpdateRecipientRequest) toModel() (model.RecipientPatch, error) {
	var patch model.RecipientPatch
	patch.Comment = r.Comment
	if r.ExpirationTime != nil {
		t, err := time.Parse(time.RFC3339, *r.ExpirationTime)
		if err != nil {
			return model.RecipientPatch{}, fmt.Errorf("expiration_time must be RFC 3339: %w", err)
		}
		patch.ExpirationTime = &t
	}
	return patch, nil
}

// UpdateIPAccessRequest is the JSON body for the IP access list endpoint.
type UpdateIPAccessRequest struct {
	Add    []string `json:"add"`
	Revoke []string `json:"revoke"`
}

func (r UpdateIPAccessRequest) Validate() error {
	if len(r.Add) == 0 && len(r.Revoke) == 0 {
		return validation.NewError("validation_empty_patch", "at least one of add or revoke must be supplied")
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Add, validation.Each(validation.Required)),
		validation.Field(&r.Revoke, validation.Each(validation.Required)),
	)
}

// RotateTokenRequest is the JSON body for the token rotation endpoint.
type RotateTokenRequest struct {
	ExpireInSeconds int64 `json:"expire_in_seconds"`
}

func (r RotateTokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ExpireInSeconds, validation.Min(int64(0))),
	)
}
