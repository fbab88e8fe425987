// Package notify delivers user-facing notifications. Delivery is
// fire-and-forget: the booking flow logs failures and moves on.
package notify

import (
	"context"

	"github.com/google/uuid"
)

const (
	KindAppointmentCreated = "APPOINTMENT_CREATED"
	KindStatusChange       = "STATUS_CHANGE"
	KindReminder           = "APPOINTMENT_REMINDER"
)

type Notification struct {
	UserID  uuid.UUID `json:"user_id"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	Link    string    `json:"link,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
