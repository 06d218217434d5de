package domain

import (
	"context"
	"time"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

// RegistrationType controls how attendees may register for an event.
type RegistrationType string

const (
	RegistrationOpen             RegistrationType = "open"
	RegistrationInvitationOnly   RegistrationType = "invitation_only"
	RegistrationApprovalRequired RegistrationType = "approval_required"
)

// Event represents an event owned by an organizer. Attendees and invitations
// belong to the event and are removed with it.
// swagger:model Event
type Event struct {
	ID                   string           `json:"id"`
	Name                 string           `json:"name"`
	Description          string           `json:"description"`
	VenueName            string           `json:"venue_name"`
	VenueAddress         string           `json:"venue_address"`
	Capacity             int              `json:"capacity"`
	Status               EventStatus      `json:"status"`
	IsPublic             bool             `json:"is_public"`
	RegistrationType     RegistrationType `json:"registration_type"`
	RequiresApproval     bool             `json:"requires_approval"`
	RegistrationOpensAt  *time.Time       `json:"registration_opens_at,omitempty"`
	RegistrationClosesAt *time.Time       `json:"registration_closes_at,omitempty"`
	StartDatetime        time.Time        `json:"start_datetime"`
	EndDatetime          time.Time        `json:"end_datetime"`
	OwnerID              string           `json:"owner_id"`
	OrganizationID       string           `json:"organization_id,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(name string, capacity int, registrationType RegistrationType, startAt, endAt time.Time, ownerID string, createdAt time.Time) *Event {
	return &Event{
		Name:             name,
		Capacity:         capacity,
		Status:           EventStatusDraft,
		RegistrationType: registrationType,
		StartDatetime:    startAt,
		EndDatetime:      endAt,
		OwnerID:          ownerID,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
}

// IsFull reports whether confirmedCount has reached the event's capacity.
func (e *Event) IsFull(confirmedCount int) bool {
	return confirmedCount >= e.Capacity
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Event, error)
	UpdateStatus(ctx context.Context, id string, status EventStatus) (*Event, error)
	Delete(ctx context.Context, id string) error
}

// EventService defines organizer-facing event operations.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	ListMyEvents(ctx context.Context, ownerID string) ([]*Event, error)
	PublishEvent(ctx context.Context, eventID, callerID string) (*Event, error)
	CancelEvent(ctx context.Context, eventID, callerID string) (*Event, error)
	DeleteEvent(ctx context.Context, eventID, callerID string) error
}
