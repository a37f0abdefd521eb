package model

import "time"

// NotificationKind distinguishes transient success feedback from failures.
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Operation names the remote call a notification or log line refers to.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
	OperationFetch  Operation = "fetch"
	OperationLoad   Operation = "load"
)

// Notification is the outcome of one create/update/delete/fetch/load as shown
// to the operator (snackbar in a browser, a line on the CLI).
type Notification struct {
	ID        string           `json:"id"`
	Resource  string           `json:"resource"`
	Kind      NotificationKind `json:"kind"`
	Operation Operation        `json:"operation"`
	RecordID  string           `json:"recordId,omitempty"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
}
