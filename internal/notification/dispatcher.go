package notification

import "context"

// Notification is one department email awaiting delivery.
type Notification struct {
	ComplaintID string `json:"complaint_id"`
	To          string `json:"to"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

// Dispatcher hands a composed notification to the delivery channel. Dispatch
// is fire-and-forget from the intake pipeline's point of view: a non-nil
// error is logged by the caller, never surfaced to the submitter.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}
