package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventplanner/internal/delivery/http/controllers"
	"eventplanner/internal/delivery/http/middleware"
	"eventplanner/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	logger *slog.Logger,
	verifier domain.TokenVerifier,
	authController *controllers.AuthController,
	eventController *controllers.EventController,
	attendeeController *controllers.AttendeeController,
	invitationController *controllers.InvitationController,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)
	mux.HandleFunc("GET /auth/me", auth(authController.Me))

	// Events (organizer)
	mux.HandleFunc("POST /events", auth(eventController.CreateEvent))
	mux.HandleFunc("GET /events", auth(eventController.ListMyEvents))
	mux.HandleFunc("GET /events/{eventID}", eventController.GetEvent)
	mux.HandleFunc("POST /events/{eventID}/publish", auth(eventController.PublishEvent))
	mux.HandleFunc("POST /events/{eventID}/cancel", auth(eventController.CancelEvent))
	mux.HandleFunc("DELETE /events/{eventID}", auth(eventController.DeleteEvent))

	// Registration (public)
	mux.HandleFunc("POST /events/{eventID}/attendees", attendeeController.Register)
	mux.HandleFunc("GET /events/{eventID}/attendees/status", attendeeController.RegistrationStatus)
	mux.HandleFunc("DELETE /events/{eventID}/attendees", attendeeController.CancelRegistration)

	// Attendee management (organizer)
	mux.HandleFunc("GET /events/{eventID}/attendees", auth(attendeeController.ListAttendees))
	mux.HandleFunc("GET /events/{eventID}/attendees/stats", auth(attendeeController.RegistrationStats))
	mux.HandleFunc("PATCH /events/{eventID}/attendees/{attendeeID}", auth(attendeeController.UpdateStatus))
	mux.HandleFunc("DELETE /events/{eventID}/attendees/{attendeeID}", auth(attendeeController.RemoveAttendee))

	// Invitations (organizer)
	mux.HandleFunc("POST /events/{eventID}/invitations", auth(invitationController.SendInvitations))
	mux.HandleFunc("GET /events/{eventID}/invitations", auth(invitationController.ListInvitations))
	mux.HandleFunc("GET /events/{eventID}/invitations/stats", auth(invitationController.InvitationStats))
	mux.HandleFunc("DELETE /events/{eventID}/invitations/{invitationID}", auth(invitationController.CancelInvitation))
	mux.HandleFunc("POST /events/{eventID}/invitations/{invitationID}/resend", auth(invitationController.ResendInvitation))

	// Invitation responses (public, token is the credential)
	mux.HandleFunc("GET /invitations/{token}", invitationController.VerifyInvitation)
	mux.HandleFunc("POST /invitations/{token}/accept", invitationController.AcceptInvitation)
	mux.HandleFunc("POST /invitations/{token}/reject", invitationController.RejectInvitation)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
