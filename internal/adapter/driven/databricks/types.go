package databricks

import (
	"time"

	"github.com/opsdelta/deltagate/internal/domain/model"
)

// Wire types for the Unity Catalog sharing API. Timestamps are epoch
// milliseconds on the wire.

type shareInfo struct {
	Name        string             `json:"name"`
	Comment     string             `json:"comment,omitempty"`
	Owner       string             `json:"owner,omitempty"`
	StorageRoot string             `json:"storage_root,omitempty"`
	CreatedAt   int64              `json:"created_at,omitempty"`
	UpdatedAt   int64              `json:"updated_at,omitempty"`
	Objects     []sharedDataObject `json:"objects,omitempty"`
}

type sharedDataObject struct {
	Name                     string `json:"name"`
	DataObjectType           string `json:"data_object_type,omitempty"`
	SharedAs                 string `json:"shared_as,omitempty"`
	AddedAt                  int64  `json:"added_at,omitempty"`
	AddedBy                  string `json:"added_by,omitempty"`
	HistoryDataSharingStatus string `json:"history_data_sharing_status,omitempty"`
}

type sharedDataObjectUpdate struct {
	Action     string           `json:"action"`
	DataObject sharedDataObject `json:"data_object"`
}

type listSharesResponse struct {
	Shares        []shareInfo `json:"shares"`
	NextPageToken string      `json:"next_page_token"`
}

type createShareRequest struct {
	Name        string `json:"name"`
	Comment     string `json:"comment,omitempty"`
	StorageRoot string `json:"storage_root,omitempty"`
}

type updateShareRequest struct {
	Updates []sharedDataObjectUpdate `json:"updates"`
}

type recipientInfo struct {
	Name               string        `json:"name"`
	AuthenticationType string        `json:"authentication_type,omitempty"`
	Comment            string        `json:"comment,omitempty"`
	Owner              string        `json:"owner,omitempty"`
	GlobalMetastoreID  string        `json:"data_recipient_global_metastore_id,omitempty"`
	IPAccessList       *ipAccessList `json:"ip_access_list,omitempty"`
	Tokens             []tokenInfo   `json:"tokens,omitempty"`
	ExpirationTime     int64         `json:"expiration_time,omitempty"`
	CreatedAt          int64         `json:"created_at,omitempty"`
	UpdatedAt          int64         `json:"updated_at,omitempty"`
}

type ipAccessList struct {
	AllowedIPAddresses []string `json:"allowed_ip_addresses"`
}

type tokenInfo struct {
	ID             string `json:"id,omitempty"`
	ActivationURL  string `json:"activation_url,omitempty"`
	CreatedAt      int64  `json:"created_at,omitempty"`
	ExpirationTime int64  `json:"expiration_time,omitempty"`
}

type listRecipientsResponse struct {
	Recipients    []recipientInfo `json:"recipients"`
	NextPageToken string          `json:"next_page_token"`
}

type createRecipientRequest struct {
	Name               string        `json:"name"`
	AuthenticationType string        `json:"authentication_type"`
	Comment            string        `json:"comment,omitempty"`
	GlobalMetastoreID  string        `json:"data_recipient_global_metastore_id,omitempty"`
	SharingCode        string        `json:"sharing_code,omitempty"`
	IPAccessList       *ipAccessList `json:"ip_access_list,omitempty"`
}

type updateRecipientRequest struct {
	Comment        *string       `json:"comment,omitempty"`
	ExpirationTime *int64        `json:"expiration_time,omitempty"`
	IPAccessList   *ipAccessList `json:"ip_access_list,omitempty"`
}

type rotateTokenRequest struct {
	ExistingTokenExpireInSeconds int64 `json:"existing_token_expire_in_seconds"`
}

type errorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// --- wire <-> model mapping ---

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func toShare(si shareInfo) model.Share {
	objects := make([]model.SharedObject, 0, len(si.Objects))
	for _, obj := range si.Objects {
		objects = append(objects, toSharedObject(obj))
	}
	return model.Share{
		Name:        si.Name,
		Comment:     si.Comment,
		Owner:       si.Owner,
		StorageRoot: si.StorageRoot,
		CreatedAt:   fromMillis(si.CreatedAt),
		UpdatedAt:   fromMillis(si.UpdatedAt),
		Objects:     objects,
	}
}

func toSharedObject(obj sharedDataObject) model.SharedObject {
	return model.SharedObject{
		Name:           obj.Name,
		DataObjectType: obj.DataObjectType,
		SharedAs:       obj.SharedAs,
		AddedAt:        fromMillis(obj.AddedAt),
		AddedBy:        obj.AddedBy,
		HistorySharing: obj.HistoryDataSharingStatus == "ENABLED",
	}
}

func fromSharedObject(obj model.SharedObject) sharedDataObject {
	status := ""
	if obj.HistorySharing {
		status = "ENABLED"
	}
	return sharedDataObject{
		Name:                     obj.Name,
		DataObjectType:           obj.DataObjectType,
		SharedAs:                 obj.SharedAs,
		HistoryDataSharingStatus: status,
	}
}

func toRecipient(ri recipientInfo) model.Recipient {
	var ips []string
	if ri.IPAccessList != nil {
		ips = ri.IPAccessList.AllowedIPAddresses
	}

	tokens := make([]model.RecipientToken, 0, len(ri.Tokens))
	for _, ti := range ri.Tokens {
		tokens = append(tokens, model.RecipientToken{
			ID:             ti.ID,
			ActivationURL:  ti.ActivationURL,
			CreatedAt:      fromMillis(ti.CreatedAt),
			ExpirationTime: fromMillis(ti.ExpirationTime),
		})
	}

	return model.Recipient{
		Name:              ri.Name,
		Comment:           ri.Comment,
		Owner:             ri.Owner,
		AuthType:          model.AuthenticationType(ri.AuthenticationType),
		GlobalMetastoreID: ri.GlobalMetastoreID,
		IPAccessList:      ips,
		Tokens:            tokens,
		ExpirationTime:    fromMillis(ri.ExpirationTime),
		CreatedAt:         fromMillis(ri.CreatedAt),
		UpdatedAt:         fromMillis(ri.UpdatedAt),
	}
}
