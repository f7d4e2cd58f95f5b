package model

import "time"

// Share is a named collection of data assets exposed to recipients through
// Delta Sharing.
type Share struct {
	Name        string
	Comment     string
	Owner       string
	StorageRoot string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Objects     []SharedObject
}

// SharedObject is one data asset attached to a share. Name is the full
// three-level name (catalog.schema.table).
type SharedObject struct {
	Name           string
	DataObjectType string
	SharedAs       string
	AddedAt        time.Time
	AddedBy        string
	HistorySharing bool
}

// ObjectUpdateAction says whether a SharedObjectUpdate adds or removes the
// object from the share.
type ObjectUpdateAction string

const (
	ObjectAdd    ObjectUpdateAction = "ADD"
	ObjectRemove ObjectUpdateAction = "REMOVE"
)

// SharedObjectUpdate pairs an update action with the data object it applies to.
type SharedObjectUpdate struct {
	Action ObjectUpdateAction
	Object SharedObject
}

// NewShare holds the caller-specified fields for share creation.
type NewShare struct {
	Name        string
	Comment     string
	StorageRoot string
}
