package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"eventplanner/internal/domain"
)

type attendeeService struct {
	eventRepo      domain.EventRepository
	attendeeRepo   domain.AttendeeRepository
	userRepo       domain.UserRepository
	txManager      domain.RegistrationTxManager
	notifier       domain.Notifier
	contextTimeout time.Duration
}

// NewAttendeeService creates an AttendeeService with the given repositories,
// transaction manager, and notifier.
func NewAttendeeService(
	eventRepo domain.EventRepository,
	attendeeRepo domain.AttendeeRepository,
	userRepo domain.UserRepository,
	txManager domain.RegistrationTxManager,
	notifier domain.Notifier,
	timeout time.Duration,
) domain.AttendeeService {
	return &attendeeService{
		eventRepo:      eventRepo,
		attendeeRepo:   attendeeRepo,
		userRepo:       userRepo,
		txManager:      txManager,
		notifier:       notifier,
		contextTimeout: timeout,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (s *attendeeService) Register(ctx context.Context, eventID string, input domain.AttendeeInput) (*domain.Attendee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	now := time.Now()
	if event.Status != domain.EventStatusPublished || !event.IsPublic {
		return nil, domain.NewValidationError(domain.CodeEventNotAvailable, "event is not open for registration")
	}
	if event.RegistrationType == domain.RegistrationInvitationOnly {
		return nil, domain.NewValidationError(domain.CodeInvitationOnly, "this event is invitation only")
	}
	if err := domain.CheckRegistrationWindow(event, now); err != nil {
		return nil, err
	}

	email := normalizeEmail(input.Email)

	// Admission is decided and persisted under the event lock so two
	// concurrent registrations can never both take the last seat.
	var attendee *domain.Attendee
	err = s.txManager.InEventTx(ctx, event.ID, func(ctx context.Context, tx domain.RegistrationTx) error {
		confirmed, err := tx.ConfirmedCount(ctx)
		if err != nil {
			return fmt.Errorf("count confirmed attendees: %w", err)
		}
		if !validEmail(email) {
			return domain.NewValidationError(domain.CodeInvalidEmail, "invalid email address")
		}
		exists, err := tx.AttendeeExists(ctx, email)
		if err != nil {
			return fmt.Errorf("check existing attendee: %w", err)
		}
		if exists {
			return domain.NewValidationError(domain.CodeDuplicateRegistration, "attendee is already registered for this event")
		}

		status, err := domain.DecideStatus(event, confirmed)
		if err != nil {
			return err
		}
		attendee = &domain.Attendee{
			EventID:      event.ID,
			Email:        email,
			FullName:     strings.TrimSpace(input.FullName),
			Phone:        strings.TrimSpace(input.Phone),
			Status:       status,
			RegisteredAt: now,
		}
		if status == domain.AttendeeStatusConfirmed {
			attendee.ConfirmedAt = &now
		}
		if err := tx.CreateAttendee(ctx, attendee); err != nil {
			return fmt.Errorf("create attendee: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, registrationNotificationType(attendee.Status), attendee.Email, event.ID,
		registrationContext(event, attendee))
	return attendee, nil
}

// registrationNotificationType maps the admission outcome to the email sent.
func registrationNotificationType(status domain.AttendeeStatus) domain.NotificationType {
	switch status {
	case domain.AttendeeStatusConfirmed:
		return domain.NotificationTypeAttendeeConfirmed
	case domain.AttendeeStatusWaitlisted:
		return domain.NotificationTypeAttendeeWaitlisted
	default:
		return domain.NotificationTypeAttendeeRegistered
	}
}

func registrationContext(event *domain.Event, attendee *domain.Attendee) domain.NotificationContext {
	return domain.NotificationContext{
		"AttendeeName": attendee.FullName,
		"EventName":    event.Name,
		"EventDate":    event.StartDatetime.Format("January 2, 2006"),
		"EventTime":    event.StartDatetime.Format("3:04 PM"),
		"VenueName":    event.VenueName,
		"VenueAddress": event.VenueAddress,
		"Status":       string(attendee.Status),
	}
}

func (s *attendeeService) UpdateStatus(ctx context.Context, eventID, attendeeID, callerID string, status domain.AttendeeStatus) (*domain.Attendee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !domain.ValidAttendeeStatus(status) {
		return nil, domain.NewValidationError(domain.CodeInvalidStatus,
			fmt.Sprintf("invalid status %q", status))
	}

	event, err := s.manageableEvent(ctx, eventID, callerID)
	if err != nil {
		return nil, err
	}

	attendee, err := s.attendeeRepo.GetByID(ctx, eventID, attendeeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get attendee: %w", err)
	}

	previous := attendee.Status
	attendee.Status = status
	if status == domain.AttendeeStatusConfirmed && attendee.ConfirmedAt == nil {
		now := time.Now()
		attendee.ConfirmedAt = &now
	}
	if err := s.attendeeRepo.UpdateStatus(ctx, attendee); err != nil {
		return nil, fmt.Errorf("update attendee status: %w", err)
	}

	if status != previous {
		if t, ok := statusChangeNotificationType(status); ok {
			s.notifier.Notify(ctx, t, attendee.Email, event.ID, registrationContext(event, attendee))
		}
	}
	return attendee, nil
}

func statusChangeNotificationType(status domain.AttendeeStatus) (domain.NotificationType, bool) {
	switch status {
	case domain.AttendeeStatusConfirmed:
		return domain.NotificationTypeAttendeeConfirmed, true
	case domain.AttendeeStatusRejected:
		return domain.NotificationTypeAttendeeRejected, true
	case domain.AttendeeStatusWaitlisted:
		return domain.NotificationTypeAttendeeWaitlisted, true
	}
	return "", false
}

func (s *attendeeService) CancelRegistration(ctx context.Context, eventID, email string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if err := s.attendeeRepo.DeleteByEventAndEmail(ctx, eventID, normalizeEmail(email)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete attendee: %w", err)
	}
	return nil
}

func (s *attendeeService) RemoveAttendee(ctx context.Context, eventID, attendeeID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.manageableEvent(ctx, eventID, callerID); err != nil {
		return err
	}
	attendee, err := s.attendeeRepo.GetByID(ctx, eventID, attendeeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get attendee: %w", err)
	}
	if err := s.attendeeRepo.DeleteByEventAndEmail(ctx, eventID, attendee.Email); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete attendee: %w", err)
	}
	return nil
}

func (s *attendeeService) ListAttendees(ctx context.Context, eventID, callerID string, search string, params domain.PaginationParams) ([]*domain.Attendee, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.manageableEvent(ctx, eventID, callerID); err != nil {
		return nil, 0, err
	}
	attendees, total, err := s.attendeeRepo.ListByEventID(ctx, eventID, search, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list attendees: %w", err)
	}
	if attendees == nil {
		attendees = []*domain.Attendee{}
	}
	return attendees, total, nil
}

func (s *attendeeService) RegistrationStatus(ctx context.Context, eventID, email string) (*domain.Attendee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	attendee, err := s.attendeeRepo.GetByEventAndEmail(ctx, eventID, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get attendee: %w", err)
	}
	return attendee, nil
}

func (s *attendeeService) RegistrationStats(ctx context.Context, eventID, callerID string) (*domain.RegistrationStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.manageableEvent(ctx, eventID, callerID)
	if err != nil {
		return nil, err
	}
	counts, err := s.attendeeRepo.CountByStatus(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("count attendees: %w", err)
	}
	stats := &domain.RegistrationStats{
		Confirmed:  counts[domain.AttendeeStatusConfirmed],
		Pending:    counts[domain.AttendeeStatusPending],
		Waitlisted: counts[domain.AttendeeStatusWaitlisted],
		Rejected:   counts[domain.AttendeeStatusRejected],
		Capacity:   event.Capacity,
	}
	stats.Total = stats.Confirmed + stats.Pending + stats.Waitlisted + stats.Rejected
	if remaining := event.Capacity - stats.Confirmed; remaining > 0 {
		stats.SpotsRemaining = remaining
	}
	return stats, nil
}

// manageableEvent loads the event and checks that callerID may manage it.
func (s *attendeeService) manageableEvent(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	caller, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		return nil, domain.ErrForbidden
	}
	if !domain.CanManageEvent(caller, event) {
		return nil, domain.ErrForbidden
	}
	return event, nil
}
