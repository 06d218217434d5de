package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventplanner/internal/delivery/http/middleware"
	"eventplanner/internal/domain"
)

type mockEventService struct {
	event  *domain.Event
	events []*domain.Event
	err    error

	gotEvent *domain.Event
}

func (m *mockEventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	m.gotEvent = event
	if m.err != nil {
		return m.err
	}
	event.ID = "ev-new"
	return nil
}

func (m *mockEventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.event, nil
}

func (m *mockEventService) ListMyEvents(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.events, nil
}

func (m *mockEventService) PublishEvent(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.event, nil
}

func (m *mockEventService) CancelEvent(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.event, nil
}

func (m *mockEventService) DeleteEvent(ctx context.Context, eventID, callerID string) error {
	return m.err
}

func createEventBody() []byte {
	start := time.Now().Add(24 * time.Hour)
	b, _ := json.Marshal(CreateEventRequest{
		Name:          "Launch Party",
		Capacity:      50,
		StartDatetime: start,
		EndDatetime:   start.Add(3 * time.Hour),
	})
	return b
}

func TestEventController_CreateEvent_Success(t *testing.T) {
	svc := &mockEventService{}
	ctrl := NewEventController(testLogger(), svc)

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(createEventBody()))
	req = req.WithContext(middleware.SetUserID(req.Context(), "u-1"))
	w := httptest.NewRecorder()

	ctrl.CreateEvent(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	if svc.gotEvent == nil || svc.gotEvent.OwnerID != "u-1" {
		t.Fatalf("owner must come from the auth context, got %+v", svc.gotEvent)
	}
	if !svc.gotEvent.IsPublic {
		t.Fatal("events default to public")
	}
}

func TestEventController_CreateEvent_Unauthorized(t *testing.T) {
	ctrl := NewEventController(testLogger(), &mockEventService{})
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(createEventBody()))
	w := httptest.NewRecorder()

	ctrl.CreateEvent(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestEventController_CreateEvent_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing name", body: `{"capacity":10,"start_datetime":"2026-03-01T18:00:00Z","end_datetime":"2026-03-01T21:00:00Z"}`},
		{name: "zero capacity", body: `{"name":"X","capacity":0,"start_datetime":"2026-03-01T18:00:00Z","end_datetime":"2026-03-01T21:00:00Z"}`},
		{name: "end before start", body: `{"name":"X","capacity":10,"start_datetime":"2026-03-01T21:00:00Z","end_datetime":"2026-03-01T18:00:00Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewEventController(testLogger(), &mockEventService{})
			req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader([]byte(tt.body)))
			req = req.WithContext(middleware.SetUserID(req.Context(), "u-1"))
			w := httptest.NewRecorder()

			ctrl.CreateEvent(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
		})
	}
}

func TestEventController_GetEvent(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &mockEventService{event: &domain.Event{ID: testEventID, Name: "Launch Party"}}
		ctrl := NewEventController(testLogger(), svc)

		req := httptest.NewRequest(http.MethodGet, "/events/"+testEventID, nil)
		req.SetPathValue("eventID", testEventID)
		w := httptest.NewRecorder()

		ctrl.GetEvent(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		svc := &mockEventService{err: domain.ErrNotFound}
		ctrl := NewEventController(testLogger(), svc)

		req := httptest.NewRequest(http.MethodGet, "/events/"+testEventID, nil)
		req.SetPathValue("eventID", testEventID)
		w := httptest.NewRecorder()

		ctrl.GetEvent(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})
}

func TestEventController_PublishEvent_InvalidStatus(t *testing.T) {
	svc := &mockEventService{
		err: domain.NewValidationError(domain.CodeInvalidStatus, "only draft events can be published"),
	}
	ctrl := NewEventController(testLogger(), svc)

	req := httptest.NewRequest(http.MethodPost, "/events/"+testEventID+"/publish", nil)
	req.SetPathValue("eventID", testEventID)
	req = req.WithContext(middleware.SetUserID(req.Context(), "u-1"))
	w := httptest.NewRecorder()

	ctrl.PublishEvent(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestEventController_DeleteEvent_Success(t *testing.T) {
	ctrl := NewEventController(testLogger(), &mockEventService{})

	req := httptest.NewRequest(http.MethodDelete, "/events/"+testEventID, nil)
	req.SetPathValue("eventID", testEventID)
	req = req.WithContext(middleware.SetUserID(req.Context(), "u-1"))
	w := httptest.NewRecorder()

	ctrl.DeleteEvent(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, w.Code)
	}
}
