package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventplanner/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	attendeeRepo   domain.AttendeeRepository
	userRepo       domain.UserRepository
	notifier       domain.Notifier
	contextTimeout time.Duration
}

// NewEventService creates an EventService with the given repositories and notifier.
func NewEventService(
	eventRepo domain.EventRepository,
	attendeeRepo domain.AttendeeRepository,
	userRepo domain.UserRepository,
	notifier domain.Notifier,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		attendeeRepo:   attendeeRepo,
		userRepo:       userRepo,
		notifier:       notifier,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.OwnerID == "" {
		return fmt.Errorf("event owner is required")
	}
	if event.Capacity <= 0 {
		return domain.NewValidationError(domain.CodeInvalidStatus, "capacity must be greater than zero")
	}
	if !event.EndDatetime.After(event.StartDatetime) {
		return domain.ErrInvalidInput
	}
	switch event.RegistrationType {
	case domain.RegistrationOpen, domain.RegistrationInvitationOnly, domain.RegistrationApprovalRequired:
	case "":
		event.RegistrationType = domain.RegistrationOpen
	default:
		return domain.ErrInvalidInput
	}

	// Events inherit the creator's organization.
	owner, err := s.userRepo.GetByID(ctx, event.OwnerID)
	if err != nil {
		return fmt.Errorf("get owner: %w", err)
	}
	event.OrganizationID = owner.OrganizationID

	now := time.Now()
	event.Status = domain.EventStatusDraft
	event.CreatedAt = now
	event.UpdatedAt = now
	return s.eventRepo.Create(ctx, event)
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListMyEvents(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *eventService) PublishEvent(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.manageableEvent(ctx, eventID, callerID)
	if err != nil {
		return nil, err
	}
	if event.Status != domain.EventStatusDraft {
		return nil, domain.NewValidationError(domain.CodeInvalidStatus,
			fmt.Sprintf("only draft events can be published, current status is %s", event.Status))
	}
	updated, err := s.eventRepo.UpdateStatus(ctx, eventID, domain.EventStatusPublished)
	if err != nil {
		return nil, fmt.Errorf("publish event: %w", err)
	}
	return updated, nil
}

func (s *eventService) CancelEvent(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.manageableEvent(ctx, eventID, callerID)
	if err != nil {
		return nil, err
	}
	switch event.Status {
	case domain.EventStatusCompleted, domain.EventStatusCancelled:
		return nil, domain.NewValidationError(domain.CodeInvalidStatus,
			fmt.Sprintf("event is already %s", event.Status))
	}
	updated, err := s.eventRepo.UpdateStatus(ctx, eventID, domain.EventStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("cancel event: %w", err)
	}

	// Tell everyone who registered. Best-effort, like all notifications.
	attendees, _, err := s.attendeeRepo.ListByEventID(ctx, eventID, "", domain.PaginationParams{Page: 1, PageSize: 1000})
	if err == nil {
		for _, a := range attendees {
			s.notifier.Notify(ctx, domain.NotificationTypeEventCancelled, a.Email, event.ID,
				registrationContext(updated, a))
		}
	}
	return updated, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.manageableEvent(ctx, eventID, callerID); err != nil {
		return err
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (s *eventService) manageableEvent(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
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
