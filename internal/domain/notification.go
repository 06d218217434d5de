package domain

import (
	"context"
	"time"
)

// NotificationType names a notification template family.
type NotificationType string

const (
	NotificationTypeAttendeeInvited    NotificationType = "attendee_invited"
	NotificationTypeAttendeeRegistered NotificationType = "attendee_registered"
	NotificationTypeAttendeeConfirmed  NotificationType = "attendee_confirmed"
	NotificationTypeAttendeeRejected   NotificationType = "attendee_rejected"
	NotificationTypeAttendeeWaitlisted NotificationType = "attendee_waitlisted"
	// NotificationTypeAttendeePromoted is reserved for waitlist promotion,
	// which is not implemented; nothing dispatches it.
	NotificationTypeAttendeePromoted NotificationType = "attendee_promoted"
	NotificationTypeEventCancelled   NotificationType = "event_cancelled"
)

// NotificationChannel is the delivery mechanism for a notification.
type NotificationChannel string

const (
	NotificationChannelEmail     NotificationChannel = "email"
	NotificationChannelWebSocket NotificationChannel = "websocket"
)

// NotificationStatus is the delivery state of a notification record.
type NotificationStatus string

const (
	NotificationStatusPending   NotificationStatus = "pending"
	NotificationStatusSent      NotificationStatus = "sent"
	NotificationStatusFailed    NotificationStatus = "failed"
	NotificationStatusDelivered NotificationStatus = "delivered"
)

// Notification is a delivery attempt record. A failed send is recorded here
// and never propagated to the operation that triggered it.
// swagger:model Notification
type Notification struct {
	ID             string              `json:"id"`
	Type           NotificationType    `json:"type"`
	Channel        NotificationChannel `json:"channel"`
	RecipientEmail string              `json:"recipient_email"`
	Subject        string              `json:"subject"`
	Message        string              `json:"message"`
	EventID        *string             `json:"event_id,omitempty"`
	Status         NotificationStatus  `json:"status"`
	SentAt         *time.Time          `json:"sent_at,omitempty"`
	ErrorMessage   string              `json:"error_message,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

// NotificationContext is the data handed to the template for rendering.
type NotificationContext map[string]any

// NotificationRepository defines storage operations for notification records.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	Update(ctx context.Context, n *Notification) error
	ListByEventID(ctx context.Context, eventID string, params PaginationParams) ([]*Notification, int, error)
}

// Notifier dispatches a notification to a recipient. Delivery is best-effort:
// implementations log and record failures but never return them, so a failed
// email can never roll back the state change that triggered it.
type Notifier interface {
	Notify(ctx context.Context, t NotificationType, recipientEmail string, eventID string, data NotificationContext)
}
