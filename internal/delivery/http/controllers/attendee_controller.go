package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/delivery/http/middleware"
	"eventplanner/internal/domain"
)

type AttendeeController struct {
	Logger  *slog.Logger
	Service domain.AttendeeService
}

func NewAttendeeController(logger *slog.Logger, svc domain.AttendeeService) *AttendeeController {
	return &AttendeeController{
		Logger:  logger,
		Service: svc,
	}
}

// RegisterRequest is the request body for POST /events/{eventID}/attendees.
type RegisterRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// Validate implements helpers.Validator.
func (r *RegisterRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(r.Email) == "" {
		errs = append(errs, "email is required")
	}
	if strings.TrimSpace(r.FullName) == "" {
		errs = append(errs, "full_name is required")
	}
	return errs
}

// Register godoc
// @Summary Register for an event
// @Description Registers the given email for the event. The resulting status depends on the event's registration settings and remaining capacity.
// @Tags attendees
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.RegisterRequest true "Registrant details"
// @Success 201 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: event_full, duplicate_registration, invitation_only, ..."
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/attendees [post]
func (c *AttendeeController) Register(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req RegisterRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	attendee, err := c.Service.Register(r.Context(), eventID, domain.AttendeeInput{
		Email:    req.Email,
		FullName: strings.TrimSpace(req.FullName),
		Phone:    strings.TrimSpace(req.Phone),
	})
	if err != nil {
		writeServiceError(r.Context(), c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, attendee)
}

// RegistrationStatus godoc
// @Summary Look up a registration by email
// @Tags attendees
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param email query string true "Registered email address"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/attendees/status [get]
func (c *AttendeeController) RegistrationStatus(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing email")
		return
	}
	attendee, err := c.Service.RegistrationStatus(r.Context(), eventID, email)
	if err != nil {
		writeServiceError(r.Context(), c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, attendee)
}

// CancelRegistrationRequest is the request body for DELETE /events/{eventID}/attendees.
type CancelRegistrationRequest struct {
	Email string `json:"email"`
}

// Validate implements helpers.Validator.
func (r *CancelRegistrationRequest) Validate() []string {
	if strings.TrimSpace(r.Email) == "" {
		return []string{"email is required"}
	}
	return nil
}

// CancelRegistration godoc
// @Summary Cancel a registration
// @Description Removes the registration for the given email. The spot is freed immediately.
// @Tags attendees
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.CancelRegistrationRequest true "Registered email address"
// @Success 204 "No Content"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/attendees [delete]
func (c *AttendeeController) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req CancelRegistrationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.CancelRegistration(r.Context(), eventID, req.Email); err != nil {
		writeServiceError(r.Context(), c.Logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AttendeeListResponse is the success payload for GET /events/{eventID}/attendees.
type AttendeeListResponse struct {
	Attendees  []*domain.Attendee     `json:"attendees"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListAttendees godoc
// @Summary List an event's attendees
// @Tags attendees
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param search query string false "Filter by email or name substring"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/attendees [get]
func (c *AttendeeController) ListAttendees(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	params := helpers.ParsePagination(r)
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	attendees, total, err := c.Service.ListAttendees(r.Context(), eventID, userID, search, params)
	if err != nil {
		writeServiceError(r.Context(), c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, AttendeeListResponse{
		Attendees:  attendees,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// UpdateAttendeeStatusRequest is the request body for PATCH /events/{eventID}/attendees/{attendeeID}.
type UpdateAttendeeStatusRequest struct {
	Status string `json:"status"`
}

// Validate implements helpers.Validator.
func (r *UpdateAttendeeStatusRequest) Validate() []string {
	if strings.TrimSpace(r.Status) == "" {
		return []string{"status is required"}
	}
	return nil
}

// UpdateStatus godoc
// @Summary Change an attendee's status
// @Description Organizer decision endpoint: approve (confirmed), reject, or waitlist an attendee.
// @Tags attendees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param attendeeID path string true "Attendee ID (UUID)"
// @Param body body controllers.UpdateAttendeeStatusRequest true "New status"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: invalid_status"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/attendees/{attendeeID} [patch]
func (c *AttendeeController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	attendeeID, ok := pathUUID(w, r, "attendeeID")
	if !ok {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req UpdateAttendeeStatusRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	attendee, err := c.Service.UpdateStatus(r.Context(), eventID, attendeeID, userID, domain.AttendeeStatus(req.Status))
	if err != nil {
		writeServiceError(r.Context(), c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, attendee)
}

// RemoveAttendee godoc
// @Summary Remove an attendee
// @Tags attendees
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param attendeeID path string true "Attendee ID (UUID)"
// @Success 204 "No Content"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/attendees/{attendeeID} [delete]
func (c *AttendeeController) RemoveAttendee(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	attendeeID, ok := pathUUID(w, r, "attendeeID")
	if !ok {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.RemoveAttendee(r.Context(), eventID, attendeeID, userID); err != nil {
		writeServiceError(r.Context(), c.Logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegistrationStats godoc
// @Summary Registration counts for an event
// @Tags attendees
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/attendees/stats [get]
func (c *AttendeeController) RegistrationStats(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	stats, err := c.Service.RegistrationStats(r.Context(), eventID, userID)
	if err != nil {
		writeServiceError(r.Context(), c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stats)
}
