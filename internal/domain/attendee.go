package domain

import (
	"context"
	"time"
)

// AttendeeStatus is the registration state of an attendee.
type AttendeeStatus string

const (
	AttendeeStatusPending    AttendeeStatus = "pending"
	AttendeeStatusConfirmed  AttendeeStatus = "confirmed"
	AttendeeStatusRejected   AttendeeStatus = "rejected"
	AttendeeStatusWaitlisted AttendeeStatus = "waitlisted"
)

// ValidAttendeeStatus reports whether s is one of the known attendee statuses.
func ValidAttendeeStatus(s AttendeeStatus) bool {
	switch s {
	case AttendeeStatusPending, AttendeeStatusConfirmed, AttendeeStatusRejected, AttendeeStatusWaitlisted:
		return true
	}
	return false
}

// Attendee represents a registration for an event. Email is unique per event
// (case-insensitive). ConfirmedAt is set once, on the first transition into
// confirmed.
// swagger:model Attendee
type Attendee struct {
	ID           string         `json:"id"`
	EventID      string         `json:"event_id"`
	Email        string         `json:"email"`
	FullName     string         `json:"full_name"`
	Phone        string         `json:"phone,omitempty"`
	Status       AttendeeStatus `json:"status"`
	RegisteredAt time.Time      `json:"registered_at"`
	ConfirmedAt  *time.Time     `json:"confirmed_at,omitempty"`
}

// AttendeeInput is the registration data supplied by the registrant.
type AttendeeInput struct {
	Email    string
	FullName string
	Phone    string
}

// RegistrationStats summarizes an event's registrations for its organizer.
type RegistrationStats struct {
	Total          int `json:"total"`
	Confirmed      int `json:"confirmed"`
	Pending        int `json:"pending"`
	Waitlisted     int `json:"waitlisted"`
	Rejected       int `json:"rejected"`
	Capacity       int `json:"capacity"`
	SpotsRemaining int `json:"spots_remaining"`
}

// AttendeeRepository defines storage operations for attendees.
type AttendeeRepository interface {
	GetByID(ctx context.Context, eventID, attendeeID string) (*Attendee, error)
	GetByEventAndEmail(ctx context.Context, eventID, email string) (*Attendee, error)
	ListByEventID(ctx context.Context, eventID string, search string, params PaginationParams) ([]*Attendee, int, error)
	CountByStatus(ctx context.Context, eventID string) (map[AttendeeStatus]int, error)
	UpdateStatus(ctx context.Context, attendee *Attendee) error
	DeleteByEventAndEmail(ctx context.Context, eventID, email string) error
}

// RegistrationTx is the transactional scope for a single admission decision.
// Implementations hold a lock on the event row for the duration of the
// callback, so the confirmed count read here cannot go stale before the
// attendee insert commits.
type RegistrationTx interface {
	ConfirmedCount(ctx context.Context) (int, error)
	AttendeeExists(ctx context.Context, email string) (bool, error)
	CreateAttendee(ctx context.Context, attendee *Attendee) error
	UpdateInvitation(ctx context.Context, inv *AttendeeInvitation) error
}

// RegistrationTxManager serializes admission decisions per event.
type RegistrationTxManager interface {
	InEventTx(ctx context.Context, eventID string, fn func(ctx context.Context, tx RegistrationTx) error) error
}

// AttendeeService defines attendee-facing and organizer-facing registration operations.
type AttendeeService interface {
	// Register registers a new attendee directly (public path). The resulting
	// status is decided by the capacity policy inside the admission transaction.
	Register(ctx context.Context, eventID string, input AttendeeInput) (*Attendee, error)
	// UpdateStatus moves an attendee to the given status (organizer decision).
	UpdateStatus(ctx context.Context, eventID, attendeeID, callerID string, status AttendeeStatus) (*Attendee, error)
	// CancelRegistration removes the registration for (event, email). Hard delete.
	CancelRegistration(ctx context.Context, eventID, email string) error
	// RemoveAttendee removes an attendee by id (organizer path).
	RemoveAttendee(ctx context.Context, eventID, attendeeID, callerID string) error
	ListAttendees(ctx context.Context, eventID, callerID string, search string, params PaginationParams) ([]*Attendee, int, error)
	// RegistrationStatus returns the attendee record for (event, email), if any.
	RegistrationStatus(ctx context.Context, eventID, email string) (*Attendee, error)
	RegistrationStats(ctx context.Context, eventID, callerID string) (*RegistrationStats, error)
}
