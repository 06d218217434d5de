package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"eventplanner/internal/domain"
)

func publishedEvent(id string, capacity int, regType domain.RegistrationType) *domain.Event {
	now := time.Now()
	return &domain.Event{
		ID:               id,
		Name:             "Test Event",
		Capacity:         capacity,
		Status:           domain.EventStatusPublished,
		IsPublic:         true,
		RegistrationType: regType,
		StartDatetime:    now.Add(24 * time.Hour),
		EndDatetime:      now.Add(26 * time.Hour),
		OwnerID:          "u-owner",
	}
}

type attendeeFixture struct {
	svc      domain.AttendeeService
	store    *memRegistrationStore
	notifier *recordingNotifier
}

func newAttendeeFixture(events map[string]*domain.Event, users map[string]*domain.User) *attendeeFixture {
	store := newMemRegistrationStore()
	notifier := &recordingNotifier{}
	svc := NewAttendeeService(
		&mockEventRepository{events: events},
		&mockAttendeeRepository{store: store},
		&mockUserRepository{users: users},
		store,
		notifier,
		5*time.Second,
	)
	return &attendeeFixture{svc: svc, store: store, notifier: notifier}
}

func wantValidationCode(t *testing.T, err error, code string) {
	t.Helper()
	verr := domain.AsValidationError(err)
	if verr == nil {
		t.Fatalf("expected validation error with code %q, got %v", code, err)
	}
	if verr.Code != code {
		t.Fatalf("expected code %q, got %q (%s)", code, verr.Code, verr.Message)
	}
}

func TestAttendeeService_Register_preconditions(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	draft := publishedEvent("e-draft", 10, domain.RegistrationOpen)
	draft.Status = domain.EventStatusDraft

	private := publishedEvent("e-private", 10, domain.RegistrationOpen)
	private.IsPublic = false

	inviteOnly := publishedEvent("e-invite", 10, domain.RegistrationInvitationOnly)

	notYetOpen := publishedEvent("e-notyet", 10, domain.RegistrationOpen)
	notYetOpen.RegistrationOpensAt = &future

	closed := publishedEvent("e-closed", 10, domain.RegistrationOpen)
	closed.RegistrationClosesAt = &past

	started := publishedEvent("e-started", 10, domain.RegistrationOpen)
	started.StartDatetime = past

	events := map[string]*domain.Event{
		"e-draft":   draft,
		"e-private": private,
		"e-invite":  inviteOnly,
		"e-notyet":  notYetOpen,
		"e-closed":  closed,
		"e-started": started,
		"e-open":    publishedEvent("e-open", 10, domain.RegistrationOpen),
	}

	tests := []struct {
		name     string
		eventID  string
		email    string
		wantCode string
		wantErr  error
	}{
		{name: "event not found", eventID: "missing", email: "a@x.com", wantErr: domain.ErrNotFound},
		{name: "draft event", eventID: "e-draft", email: "a@x.com", wantCode: domain.CodeEventNotAvailable},
		{name: "private event", eventID: "e-private", email: "a@x.com", wantCode: domain.CodeEventNotAvailable},
		{name: "invitation only", eventID: "e-invite", email: "a@x.com", wantCode: domain.CodeInvitationOnly},
		{name: "registration not yet open", eventID: "e-notyet", email: "a@x.com", wantCode: domain.CodeRegistrationNotOpen},
		{name: "registration closed", eventID: "e-closed", email: "a@x.com", wantCode: domain.CodeRegistrationClosed},
		{name: "event started", eventID: "e-started", email: "a@x.com", wantCode: domain.CodeEventStarted},
		{name: "invalid email", eventID: "e-open", email: "not-an-email", wantCode: domain.CodeInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAttendeeFixture(events, nil)
			_, err := f.svc.Register(context.Background(), tt.eventID, domain.AttendeeInput{
				Email:    tt.email,
				FullName: "Someone",
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			wantValidationCode(t, err, tt.wantCode)
			if f.notifier.len() != 0 {
				t.Fatalf("no notification expected on failure, got %d", f.notifier.len())
			}
		})
	}
}

func TestAttendeeService_Register_statusAssignment(t *testing.T) {
	tests := []struct {
		name          string
		regType       domain.RegistrationType
		requiresAppr  bool
		capacity      int
		preConfirmed  int
		wantStatus    domain.AttendeeStatus
		wantNotifType domain.NotificationType
	}{
		{
			name: "open with seats confirms", regType: domain.RegistrationOpen,
			capacity: 2, preConfirmed: 0,
			wantStatus: domain.AttendeeStatusConfirmed, wantNotifType: domain.NotificationTypeAttendeeConfirmed,
		},
		{
			name: "open at capacity waitlists", regType: domain.RegistrationOpen,
			capacity: 2, preConfirmed: 2,
			wantStatus: domain.AttendeeStatusWaitlisted, wantNotifType: domain.NotificationTypeAttendeeWaitlisted,
		},
		{
			name: "approval type is pending regardless of seats", regType: domain.RegistrationApprovalRequired,
			capacity: 2, preConfirmed: 0,
			wantStatus: domain.AttendeeStatusPending, wantNotifType: domain.NotificationTypeAttendeeRegistered,
		},
		{
			name: "approval type is pending even when full", regType: domain.RegistrationApprovalRequired,
			capacity: 1, preConfirmed: 1,
			wantStatus: domain.AttendeeStatusPending, wantNotifType: domain.NotificationTypeAttendeeRegistered,
		},
		{
			name: "requires_approval flag overrides open", regType: domain.RegistrationOpen, requiresAppr: true,
			capacity: 2, preConfirmed: 0,
			wantStatus: domain.AttendeeStatusPending, wantNotifType: domain.NotificationTypeAttendeeRegistered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := publishedEvent("e1", tt.capacity, tt.regType)
			ev.RequiresApproval = tt.requiresAppr
			f := newAttendeeFixture(map[string]*domain.Event{"e1": ev}, nil)

			for i := 0; i < tt.preConfirmed; i++ {
				now := time.Now()
				f.store.attendees[f.store.key("e1", fmt.Sprintf("seed%d@x.com", i))] = &domain.Attendee{
					ID: fmt.Sprintf("seed-%d", i), EventID: "e1",
					Email: fmt.Sprintf("seed%d@x.com", i), Status: domain.AttendeeStatusConfirmed,
					ConfirmedAt: &now,
				}
			}

			got, err := f.svc.Register(context.Background(), "e1", domain.AttendeeInput{
				Email: "New@X.com", FullName: "New Person",
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Status != tt.wantStatus {
				t.Fatalf("expected status %s, got %s", tt.wantStatus, got.Status)
			}
			if got.Email != "new@x.com" {
				t.Fatalf("email should be normalized, got %q", got.Email)
			}
			if (got.ConfirmedAt != nil) != (tt.wantStatus == domain.AttendeeStatusConfirmed) {
				t.Fatalf("confirmed_at mismatch for status %s: %v", got.Status, got.ConfirmedAt)
			}
			call, ok := f.notifier.last()
			if !ok {
				t.Fatal("expected a notification")
			}
			if call.Type != tt.wantNotifType || call.Recipient != "new@x.com" {
				t.Fatalf("expected %s to new@x.com, got %s to %s", tt.wantNotifType, call.Type, call.Recipient)
			}
		})
	}
}

func TestAttendeeService_Register_duplicateIsRejected(t *testing.T) {
	ev := publishedEvent("e1", 10, domain.RegistrationOpen)
	f := newAttendeeFixture(map[string]*domain.Event{"e1": ev}, nil)

	if _, err := f.svc.Register(context.Background(), "e1", domain.AttendeeInput{Email: "a@x.com", FullName: "A"}); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	// Same address, different case.
	_, err := f.svc.Register(context.Background(), "e1", domain.AttendeeInput{Email: "A@X.COM", FullName: "A"})
	wantValidationCode(t, err, domain.CodeDuplicateRegistration)

	if len(f.store.attendees) != 1 {
		t.Fatalf("expected exactly one attendee row, got %d", len(f.store.attendees))
	}
}

func TestAttendeeService_Register_slotReopensAfterCancellation(t *testing.T) {
	ev := publishedEvent("e1", 2, domain.RegistrationOpen)
	f := newAttendeeFixture(map[string]*domain.Event{"e1": ev}, nil)
	ctx := context.Background()

	register := func(email string) *domain.Attendee {
		t.Helper()
		a, err := f.svc.Register(ctx, "e1", domain.AttendeeInput{Email: email, FullName: "P"})
		if err != nil {
			t.Fatalf("register %s: %v", email, err)
		}
		return a
	}

	if got := register("a@x.com").Status; got != domain.AttendeeStatusConfirmed {
		t.Fatalf("a@x.com: expected confirmed, got %s", got)
	}
	if got := register("b@x.com").Status; got != domain.AttendeeStatusConfirmed {
		t.Fatalf("b@x.com: expected confirmed, got %s", got)
	}
	if got := register("c@x.com").Status; got != domain.AttendeeStatusWaitlisted {
		t.Fatalf("c@x.com: expected waitlisted, got %s", got)
	}

	if err := f.svc.CancelRegistration(ctx, "e1", "a@x.com"); err != nil {
		t.Fatalf("cancel a@x.com: %v", err)
	}

	// The confirmed count is recomputed inside the admission transaction, so
	// the freed slot is visible immediately.
	if got := register("d@x.com").Status; got != domain.AttendeeStatusConfirmed {
		t.Fatalf("d@x.com: expected confirmed after slot reopened, got %s", got)
	}
}

func TestAttendeeService_Register_concurrentAdmission(t *testing.T) {
	const capacity = 5
	const extra = 3

	ev := publishedEvent("e1", capacity, domain.RegistrationOpen)
	f := newAttendeeFixture(map[string]*domain.Event{"e1": ev}, nil)

	var wg sync.WaitGroup
	for i := 0; i < capacity+extra; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Register(context.Background(), "e1", domain.AttendeeInput{
				Email:    fmt.Sprintf("p%d@x.com", i),
				FullName: fmt.Sprintf("Person %d", i),
			})
			if err != nil {
				t.Errorf("register p%d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	confirmed := f.store.countByStatus("e1", domain.AttendeeStatusConfirmed)
	waitlisted := f.store.countByStatus("e1", domain.AttendeeStatusWaitlisted)
	if confirmed != capacity {
		t.Fatalf("expected exactly %d confirmed, got %d", capacity, confirmed)
	}
	if waitlisted != extra {
		t.Fatalf("expected %d waitlisted, got %d", extra, waitlisted)
	}
}

func TestAttendeeService_UpdateStatus(t *testing.T) {
	owner := &domain.User{ID: "u-owner", Email: "owner@x.com"}
	stranger := &domain.User{ID: "u-other", Email: "other@x.com"}
	users := map[string]*domain.User{"u-owner": owner, "u-other": stranger}

	t.Run("invalid status", func(t *testing.T) {
		ev := publishedEvent("e1", 10, domain.RegistrationOpen)
		f := newAttendeeFixture(map[string]*domain.Event{"e1": ev}, users)
		_, err := f.svc.UpdateStatus(context.Background(), "e1", "a-1", "u-owner", "banana")
		wantValidationCode(t, err, domain.CodeInvalidStatus)
	})

	t.Run("non-manager is forbidden", func(t *testing.T) {
		ev := publishedEvent("e1", 10, domain.RegistrationOpen)
		f := newAttendeeFixture(map[string]*domain.Event{"e1": ev}, users)
		_, err := f.svc.UpdateStatus(context.Background(), "e1", "a-1", "u-other", domain.AttendeeStatusConfirmed)
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("confirm sets confirmed_at exactly once", func(t *testing.T) {
		ev := publishedEvent("e1", 10, domain.RegistrationApprovalRequired)
		f := newAttendeeFixture(map[string]*domain.Event{"e1": ev}, users)
		a, err := f.svc.Register(context.Background(), "e1", domain.AttendeeInput{Email: "a@x.com", FullName: "A"})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if a.ConfirmedAt != nil {
			t.Fatal("pending attendee should have no confirmed_at")
		}

		got, err := f.svc.UpdateStatus(context.Background(), "e1", a.ID, "u-owner", domain.AttendeeStatusConfirmed)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got.ConfirmedAt == nil {
			t.Fatal("confirmed_at should be set on first confirmation")
		}
		first := *got.ConfirmedAt

		// Waitlist then re-confirm; the original timestamp must survive.
		if _, err := f.svc.UpdateStatus(context.Background(), "e1", a.ID, "u-owner", domain.AttendeeStatusWaitlisted); err != nil {
			t.Fatalf("waitlist: %v", err)
		}
		again, err := f.svc.UpdateStatus(context.Background(), "e1", a.ID, "u-owner", domain.AttendeeStatusConfirmed)
		if err != nil {
			t.Fatalf("re-confirm: %v", err)
		}
		if !again.ConfirmedAt.Equal(first) {
			t.Fatalf("confirmed_at changed on re-confirmation: %v vs %v", again.ConfirmedAt, first)
		}
	})

	t.Run("no notification when status unchanged", func(t *testing.T) {
		ev := publishedEvent("e1", 10, domain.RegistrationApprovalRequired)
		f := newAttendeeFixture(map[string]*domain.Event{"e1": ev}, users)
		a, err := f.svc.Register(context.Background(), "e1", domain.AttendeeInput{Email: "a@x.com", FullName: "A"})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		before := f.notifier.len()
		if _, err := f.svc.UpdateStatus(context.Background(), "e1", a.ID, "u-owner", domain.AttendeeStatusPending); err != nil {
			t.Fatalf("update: %v", err)
		}
		if f.notifier.len() != before {
			t.Fatal("no notification expected for a no-op status update")
		}
	})
}

func TestAttendeeService_RegistrationStats(t *testing.T) {
	owner := &domain.User{ID: "u-owner", Email: "owner@x.com"}
	ev := publishedEvent("e1", 3, domain.RegistrationOpen)
	f := newAttendeeFixture(map[string]*domain.Event{"e1": ev}, map[string]*domain.User{"u-owner": owner})
	ctx := context.Background()

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com"} {
		if _, err := f.svc.Register(ctx, "e1", domain.AttendeeInput{Email: email, FullName: "P"}); err != nil {
			t.Fatalf("register %s: %v", email, err)
		}
	}

	stats, err := f.svc.RegistrationStats(ctx, "e1", "u-owner")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Confirmed != 3 || stats.Waitlisted != 1 || stats.Total != 4 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.SpotsRemaining != 0 {
		t.Fatalf("expected 0 spots remaining, got %d", stats.SpotsRemaining)
	}
}

func TestAttendeeService_RegistrationStatus(t *testing.T) {
	ev := publishedEvent("e1", 10, domain.RegistrationOpen)
	f := newAttendeeFixture(map[string]*domain.Event{"e1": ev}, nil)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, "e1", domain.AttendeeInput{Email: "a@x.com", FullName: "A"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := f.svc.RegistrationStatus(ctx, "e1", "A@X.com")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.Status != domain.AttendeeStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", got.Status)
	}

	if _, err := f.svc.RegistrationStatus(ctx, "e1", "nobody@x.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
