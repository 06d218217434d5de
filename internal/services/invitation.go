package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventplanner/internal/domain"
)

type invitationService struct {
	eventRepo      domain.EventRepository
	invitationRepo domain.AttendeeInvitationRepository
	attendeeRepo   domain.AttendeeRepository
	userRepo       domain.UserRepository
	txManager      domain.RegistrationTxManager
	notifier       domain.Notifier
	contextTimeout time.Duration
}

// NewInvitationService creates an InvitationService with the given
// repositories, transaction manager, and notifier.
func NewInvitationService(
	eventRepo domain.EventRepository,
	invitationRepo domain.AttendeeInvitationRepository,
	attendeeRepo domain.AttendeeRepository,
	userRepo domain.UserRepository,
	txManager domain.RegistrationTxManager,
	notifier domain.Notifier,
	timeout time.Duration,
) domain.InvitationService {
	return &invitationService{
		eventRepo:      eventRepo,
		invitationRepo: invitationRepo,
		attendeeRepo:   attendeeRepo,
		userRepo:       userRepo,
		txManager:      txManager,
		notifier:       notifier,
		contextTimeout: timeout,
	}
}

func (s *invitationService) SendInvitations(ctx context.Context, eventID, inviterID string, input domain.InvitationBatchInput) (*domain.InvitationBatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, inviter, err := s.manageableEvent(ctx, eventID, inviterID)
	if err != nil {
		return nil, err
	}

	result := &domain.InvitationBatchResult{
		TotalAttempted: len(input.Emails),
		Errors:         []string{},
	}

	// Each address is attempted independently; one bad address never blocks
	// the rest of the batch.
	for _, raw := range input.Emails {
		email := normalizeEmail(raw)
		if !validEmail(email) {
			result.SkippedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: invalid email address", raw))
			continue
		}

		if _, err := s.attendeeRepo.GetByEventAndEmail(ctx, event.ID, email); err == nil {
			result.SkippedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: already registered", email))
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			result.SkippedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", email, err))
			continue
		}

		// A new send supersedes any pending invitation for the same address.
		if err := s.invitationRepo.DeletePending(ctx, event.ID, email); err != nil {
			result.SkippedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", email, err))
			continue
		}

		now := time.Now()
		inv := &domain.AttendeeInvitation{
			EventID:        event.ID,
			Email:          email,
			Token:          uuid.NewString(),
			InvitedBy:      &inviter.ID,
			Message:        input.Message,
			IsVIP:          input.IsVIP,
			BypassCapacity: input.BypassCapacity,
			Status:         domain.InvitationStatusPending,
			ExpiresAt:      now.Add(domain.InvitationTTL),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.invitationRepo.Create(ctx, inv); err != nil {
			result.SkippedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", email, err))
			continue
		}

		s.notifier.Notify(ctx, domain.NotificationTypeAttendeeInvited, inv.Email, event.ID,
			s.invitationContext(event, inviter, inv))
		result.SentCount++
	}
	return result, nil
}

func (s *invitationService) invitationContext(event *domain.Event, inviter *domain.User, inv *domain.AttendeeInvitation) domain.NotificationContext {
	inviterName := "Event Organizer"
	if inviter != nil {
		inviterName = inviter.FullName()
	}
	recipient := inv.Email
	if at := strings.Index(recipient, "@"); at > 0 {
		recipient = recipient[:at]
	}
	return domain.NotificationContext{
		"RecipientName":   recipient,
		"InviterName":     inviterName,
		"EventName":       event.Name,
		"EventDate":       event.StartDatetime.Format("January 2, 2006"),
		"EventTime":       event.StartDatetime.Format("3:04 PM"),
		"VenueName":       event.VenueName,
		"VenueAddress":    event.VenueAddress,
		"PersonalMessage": inv.Message,
		"Token":           inv.Token,
		"ExpiresAt":       inv.ExpiresAt.Format("January 2, 2006 at 3:04 PM"),
		"IsVIP":           inv.IsVIP,
	}
}

func (s *invitationService) ListInvitations(ctx context.Context, eventID, callerID string, search string, params domain.PaginationParams) ([]*domain.AttendeeInvitation, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, _, err := s.manageableEvent(ctx, eventID, callerID); err != nil {
		return nil, 0, err
	}
	invs, total, err := s.invitationRepo.ListByEventID(ctx, eventID, search, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list invitations: %w", err)
	}
	if invs == nil {
		invs = []*domain.AttendeeInvitation{}
	}
	return invs, total, nil
}

// pendingOrFail checks that the invitation is still actionable. A stale
// pending past its deadline is flipped to expired before the error is
// returned, so later reads report "already expired" directly.
func (s *invitationService) pendingOrFail(ctx context.Context, inv *domain.AttendeeInvitation, now time.Time) error {
	if inv.Status != domain.InvitationStatusPending {
		return domain.NewValidationError(domain.CodeInvitationResolved,
			fmt.Sprintf("invitation has already been %s", inv.Status))
	}
	if inv.IsExpired(now) {
		inv.Status = domain.InvitationStatusExpired
		if err := s.invitationRepo.Update(ctx, inv); err != nil {
			return fmt.Errorf("mark invitation expired: %w", err)
		}
		return domain.NewValidationError(domain.CodeInvitationExpired, "invitation has expired")
	}
	return nil
}

func (s *invitationService) VerifyInvitation(ctx context.Context, token string) (*domain.InvitationDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.invitationRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	if err := s.pendingOrFail(ctx, inv, time.Now()); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, inv.EventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	inviterName := "Event Organizer"
	if inv.InvitedBy != nil {
		if inviter, err := s.userRepo.GetByID(ctx, *inv.InvitedBy); err == nil {
			inviterName = inviter.FullName()
		}
	}
	return &domain.InvitationDetail{
		Email:       inv.Email,
		Message:     inv.Message,
		IsVIP:       inv.IsVIP,
		Status:      inv.Status,
		ExpiresAt:   inv.ExpiresAt,
		InviterName: inviterName,
		Event:       event,
	}, nil
}

func (s *invitationService) AcceptInvitation(ctx context.Context, token string, input domain.InvitationAcceptInput) (*domain.Attendee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.invitationRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	now := time.Now()
	if err := s.pendingOrFail(ctx, inv, now); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, inv.EventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}

	// Acceptance shares the registration engine's per-event lock: the capacity
	// check, the attendee insert, and the invitation transition commit or roll
	// back together. bypass_capacity skips only the fullness check; the
	// attendee always lands confirmed.
	var attendee *domain.Attendee
	err = s.txManager.InEventTx(ctx, event.ID, func(ctx context.Context, tx domain.RegistrationTx) error {
		if !inv.BypassCapacity {
			confirmed, err := tx.ConfirmedCount(ctx)
			if err != nil {
				return fmt.Errorf("count confirmed attendees: %w", err)
			}
			if event.IsFull(confirmed) {
				return domain.NewValidationError(domain.CodeEventFull, "event is at full capacity")
			}
		}
		attendee = &domain.Attendee{
			EventID:      event.ID,
			Email:        inv.Email,
			FullName:     strings.TrimSpace(input.FullName),
			Phone:        strings.TrimSpace(input.Phone),
			Status:       domain.AttendeeStatusConfirmed,
			RegisteredAt: now,
			ConfirmedAt:  &now,
		}
		if err := tx.CreateAttendee(ctx, attendee); err != nil {
			return fmt.Errorf("create attendee: %w", err)
		}
		inv.Status = domain.InvitationStatusAccepted
		inv.RespondedAt = &now
		inv.AttendeeID = &attendee.ID
		if err := tx.UpdateInvitation(ctx, inv); err != nil {
			// A concurrent accept won the race; the row is no longer pending.
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NewValidationError(domain.CodeInvitationResolved,
					"invitation has already been resolved")
			}
			return fmt.Errorf("update invitation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, domain.NotificationTypeAttendeeConfirmed, attendee.Email, event.ID,
		registrationContext(event, attendee))
	return attendee, nil
}

func (s *invitationService) RejectInvitation(ctx context.Context, token, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.invitationRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get invitation: %w", err)
	}
	now := time.Now()
	if err := s.pendingOrFail(ctx, inv, now); err != nil {
		return err
	}

	// The reason travels no further than this call; it is not persisted.
	_ = reason

	inv.Status = domain.InvitationStatusRejected
	inv.RespondedAt = &now
	if err := s.invitationRepo.Update(ctx, inv); err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	return nil
}

func (s *invitationService) CancelInvitation(ctx context.Context, eventID, invitationID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, _, err := s.manageableEvent(ctx, eventID, callerID); err != nil {
		return err
	}
	inv, err := s.invitationRepo.GetByID(ctx, eventID, invitationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get invitation: %w", err)
	}
	if err := s.pendingOrFail(ctx, inv, time.Now()); err != nil {
		return err
	}

	inv.Status = domain.InvitationStatusCancelled
	if err := s.invitationRepo.Update(ctx, inv); err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	return nil
}

func (s *invitationService) ResendInvitation(ctx context.Context, eventID, invitationID, callerID string) (*domain.AttendeeInvitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, inviter, err := s.manageableEvent(ctx, eventID, callerID)
	if err != nil {
		return nil, err
	}
	inv, err := s.invitationRepo.GetByID(ctx, eventID, invitationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	if inv.Status != domain.InvitationStatusPending {
		return nil, domain.NewValidationError(domain.CodeInvitationResolved,
			fmt.Sprintf("invitation has already been %s", inv.Status))
	}

	// A resend revives a stale pending invitation: the deadline is pushed out
	// before the email goes back out.
	now := time.Now()
	if inv.IsExpired(now) {
		inv.ExpiresAt = now.Add(domain.InvitationTTL)
		if err := s.invitationRepo.Update(ctx, inv); err != nil {
			return nil, fmt.Errorf("extend invitation: %w", err)
		}
	}

	s.notifier.Notify(ctx, domain.NotificationTypeAttendeeInvited, inv.Email, event.ID,
		s.invitationContext(event, inviter, inv))
	return inv, nil
}

func (s *invitationService) InvitationStats(ctx context.Context, eventID, callerID string) (*domain.InvitationStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, _, err := s.manageableEvent(ctx, eventID, callerID); err != nil {
		return nil, err
	}
	counts, err := s.invitationRepo.CountByStatus(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("count invitations: %w", err)
	}
	stats := &domain.InvitationStats{
		Pending:   counts[domain.InvitationStatusPending],
		Accepted:  counts[domain.InvitationStatusAccepted],
		Rejected:  counts[domain.InvitationStatusRejected],
		Expired:   counts[domain.InvitationStatusExpired],
		Cancelled: counts[domain.InvitationStatusCancelled],
	}
	stats.Total = stats.Pending + stats.Accepted + stats.Rejected + stats.Expired + stats.Cancelled
	if stats.Total > 0 {
		responded := float64(stats.Accepted + stats.Rejected)
		stats.ResponseRate = math.Round(responded/float64(stats.Total)*10000) / 100
	}
	return stats, nil
}

// manageableEvent loads the event and the caller, checking management rights.
func (s *invitationService) manageableEvent(ctx context.Context, eventID, callerID string) (*domain.Event, *domain.User, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get event: %w", err)
	}
	caller, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		return nil, nil, domain.ErrForbidden
	}
	if !domain.CanManageEvent(caller, event) {
		return nil, nil, domain.ErrForbidden
	}
	return event, caller, nil
}
