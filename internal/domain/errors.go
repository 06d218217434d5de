package domain

import "errors"

// Sentinel errors shared across services and repositories.
var (
	// ErrNotFound is returned when an event, attendee, or invitation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller may not manage the event or organization.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput is returned when the request is structurally invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// Validation error codes. Every business-rule failure is a *ValidationError
// distinguished by code rather than a distinct error type.
const (
	CodeEventNotAvailable     = "event_not_available"
	CodeInvitationOnly        = "invitation_only"
	CodeRegistrationNotOpen   = "registration_not_open"
	CodeRegistrationClosed    = "registration_closed"
	CodeEventStarted          = "event_started"
	CodeEventFull             = "event_full"
	CodeInvalidEmail          = "invalid_email"
	CodeDuplicateRegistration = "duplicate_registration"
	CodeInvalidStatus         = "invalid_status"
	CodeInvitationResolved    = "invitation_already_resolved"
	CodeInvitationExpired     = "invitation_expired"
)

// ValidationError is a business-rule violation surfaced to the caller as a 4xx.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError returns a ValidationError with the given code and message.
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

// AsValidationError unwraps err into a *ValidationError, or returns nil.
func AsValidationError(err error) *ValidationError {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	return nil
}
