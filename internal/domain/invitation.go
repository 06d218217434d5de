package domain

import (
	"context"
	"time"
)

// InvitationStatus is the state of an attendee invitation. All states other
// than pending are terminal.
type InvitationStatus string

const (
	InvitationStatusPending   InvitationStatus = "pending"
	InvitationStatusAccepted  InvitationStatus = "accepted"
	InvitationStatusRejected  InvitationStatus = "rejected"
	InvitationStatusExpired   InvitationStatus = "expired"
	InvitationStatusCancelled InvitationStatus = "cancelled"
)

// Terminal reports whether no further transition may leave s.
func (s InvitationStatus) Terminal() bool {
	return s != InvitationStatusPending
}

// InvitationTTL is how long a new invitation remains acceptable.
const InvitationTTL = 7 * 24 * time.Hour

// AttendeeInvitation is an emailed invitation to register for an event. The
// token is the sole credential needed to accept or reject; it is opaque,
// globally unique, and immutable after creation. At most one pending
// invitation exists per (event, email).
// swagger:model AttendeeInvitation
type AttendeeInvitation struct {
	ID             string           `json:"id"`
	EventID        string           `json:"event_id"`
	Email          string           `json:"email"`
	Token          string           `json:"token"`
	InvitedBy      *string          `json:"invited_by,omitempty"`
	Message        string           `json:"message,omitempty"`
	IsVIP          bool             `json:"is_vip"`
	BypassCapacity bool             `json:"bypass_capacity"`
	Status         InvitationStatus `json:"status"`
	ExpiresAt      time.Time        `json:"expires_at"`
	RespondedAt    *time.Time       `json:"responded_at,omitempty"`
	AttendeeID     *string          `json:"attendee_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// IsExpired reports whether the invitation deadline has passed. Expiry is
// lazy: the stored status may still read pending after the deadline, so every
// state-changing operation must check this before trusting a pending read.
func (inv *AttendeeInvitation) IsExpired(now time.Time) bool {
	return now.After(inv.ExpiresAt)
}

// InvitationBatchInput is the organizer request to invite a set of addresses.
type InvitationBatchInput struct {
	Emails         []string
	Message        string
	IsVIP          bool
	BypassCapacity bool
}

// InvitationBatchResult summarizes a bulk send. Each address is attempted
// independently; one bad address never aborts the batch.
type InvitationBatchResult struct {
	SentCount      int      `json:"sent_count"`
	SkippedCount   int      `json:"skipped_count"`
	TotalAttempted int      `json:"total_attempted"`
	Errors         []string `json:"errors"`
}

// InvitationAcceptInput is the registrant data supplied on acceptance. The
// email always comes from the invitation itself.
type InvitationAcceptInput struct {
	FullName string
	Phone    string
}

// InvitationDetail is the public view returned by token verification.
type InvitationDetail struct {
	Email       string           `json:"email"`
	Message     string           `json:"message,omitempty"`
	IsVIP       bool             `json:"is_vip"`
	Status      InvitationStatus `json:"status"`
	ExpiresAt   time.Time        `json:"expires_at"`
	InviterName string           `json:"inviter_name"`
	Event       *Event           `json:"event"`
}

// InvitationStats summarizes an event's invitations for its organizer.
type InvitationStats struct {
	Total        int     `json:"total_invitations"`
	Pending      int     `json:"pending_invitations"`
	Accepted     int     `json:"accepted_invitations"`
	Rejected     int     `json:"rejected_invitations"`
	Expired      int     `json:"expired_invitations"`
	Cancelled    int     `json:"cancelled_invitations"`
	ResponseRate float64 `json:"response_rate"`
}

// AttendeeInvitationRepository defines storage operations for invitations.
type AttendeeInvitationRepository interface {
	Create(ctx context.Context, inv *AttendeeInvitation) error
	GetByToken(ctx context.Context, token string) (*AttendeeInvitation, error)
	GetByID(ctx context.Context, eventID, invitationID string) (*AttendeeInvitation, error)
	ListByEventID(ctx context.Context, eventID string, search string, params PaginationParams) ([]*AttendeeInvitation, int, error)
	// HasPending reports whether a pending invitation exists for (event, email).
	HasPending(ctx context.Context, eventID, email string) (bool, error)
	// DeletePending removes any pending invitation for (event, email) so a new
	// send replaces rather than duplicates.
	DeletePending(ctx context.Context, eventID, email string) error
	// Update persists status, expires_at, responded_at, and attendee_id.
	Update(ctx context.Context, inv *AttendeeInvitation) error
	CountByStatus(ctx context.Context, eventID string) (map[InvitationStatus]int, error)
}

// InvitationService defines the invitation lifecycle operations.
type InvitationService interface {
	SendInvitations(ctx context.Context, eventID, inviterID string, input InvitationBatchInput) (*InvitationBatchResult, error)
	ListInvitations(ctx context.Context, eventID, callerID string, search string, params PaginationParams) ([]*AttendeeInvitation, int, error)
	// VerifyInvitation is a read-only probe of a token, except that an expired
	// pending invitation is opportunistically marked expired.
	VerifyInvitation(ctx context.Context, token string) (*InvitationDetail, error)
	AcceptInvitation(ctx context.Context, token string, input InvitationAcceptInput) (*Attendee, error)
	RejectInvitation(ctx context.Context, token, reason string) error
	CancelInvitation(ctx context.Context, eventID, invitationID, callerID string) error
	ResendInvitation(ctx context.Context, eventID, invitationID, callerID string) (*AttendeeInvitation, error)
	InvitationStats(ctx context.Context, eventID, callerID string) (*InvitationStats, error)
}
