package domain

import (
	"fmt"
	"time"
)

// DecideStatus is the single place where a new direct registration is assigned
// a status. Rules are evaluated in order:
//
//  1. A manual gate (requires_approval or approval_required) always wins: pending.
//  2. Open registration confirms while a seat remains, otherwise waitlists.
//  3. Invitation-only events reject direct registration outright.
//  4. Anything else defaults to pending.
//
// The function is pure; callers must supply the confirmed count read inside
// the same transaction that will insert the attendee.
func DecideStatus(event *Event, confirmedCount int) (AttendeeStatus, error) {
	switch {
	case event.RequiresApproval || event.RegistrationType == RegistrationApprovalRequired:
		return AttendeeStatusPending, nil
	case event.RegistrationType == RegistrationOpen:
		if confirmedCount < event.Capacity {
			return AttendeeStatusConfirmed, nil
		}
		return AttendeeStatusWaitlisted, nil
	case event.RegistrationType == RegistrationInvitationOnly:
		return "", NewValidationError(CodeInvitationOnly, "this event is invitation only")
	default:
		return AttendeeStatusPending, nil
	}
}

// CheckRegistrationWindow validates that direct registration is open at the
// given instant. The returned error distinguishes "not yet open", "closed",
// and "event started".
func CheckRegistrationWindow(event *Event, now time.Time) error {
	if !now.Before(event.StartDatetime) {
		return NewValidationError(CodeEventStarted, "event has already started or ended")
	}
	if event.RegistrationOpensAt != nil && now.Before(*event.RegistrationOpensAt) {
		return NewValidationError(CodeRegistrationNotOpen,
			fmt.Sprintf("registration opens at %s", event.RegistrationOpensAt.Format(time.RFC3339)))
	}
	if event.RegistrationClosesAt != nil && now.After(*event.RegistrationClosesAt) {
		return NewValidationError(CodeRegistrationClosed, "registration has closed")
	}
	return nil
}
