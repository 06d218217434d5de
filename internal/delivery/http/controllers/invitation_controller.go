package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/delivery/http/middleware"
	"eventplanner/internal/domain"
)

type InvitationController struct {
	Logger  *slog.Logger
	Service domain.InvitationService
}

func NewInvitationController(logger *slog.Logger, svc domain.InvitationService) *InvitationController {
	return &InvitationController{
		Logger:  logger,
		Service: svc,
	}
}

// SendInvitationsRequest is the request body for POST /events/{eventID}/invitations.
type SendInvitationsRequest struct {
	Emails         []string `json:"emails"`
	Message        string   `json:"message"`
	IsVIP          bool     `json:"is_vip"`
	BypassCapacity bool     `json:"bypass_capacity"`
}

// Validate implements helpers.Validator.
func (r *SendInvitationsRequest) Validate() []string {
	if len(r.Emails) == 0 {
		return []string{"emails is required"}
	}
	if len(r.Emails) > 100 {
		return []string{"at most 100 emails per request"}
	}
	return nil
}

// SendInvitations godoc
// @Summary Invite a batch of email addresses
// @Description Sends one invitation per address. Addresses already registered or invalid are skipped and reported; a bad address never aborts the batch.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.SendInvitationsRequest true "Invitation batch"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/invitations [post]
func (c *InvitationController) SendInvitations(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req SendInvitationsRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	result, err := c.Service.SendInvitations(r.Context(), eventID, userID, domain.InvitationBatchInput{
		Emails:         req.Emails,
		Message:        req.Message,
		IsVIP:          req.IsVIP,
		BypassCapacity: req.BypassCapacity,
	})
	if err != nil {
		writeServiceError(r.Context(), c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// InvitationListResponse is the success payload for GET /events/{eventID}/invitations.
type InvitationListResponse struct {
	Invitations []*domain.AttendeeInvitation `json:"invitations"`
	Pagination  helpers.PaginationMeta       `json:"pagination"`
}

// ListInvitations godoc
// @Summary List an event's invitations
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param search query string false "Filter by email substring"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/invitations [get]
func (c *InvitationController) ListInvitations(w http.ResponseWriter, r *http.Request) {
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

	invitations, total, err := c.Service.ListInvitations(r.Context(), eventID, userID, search, params)
	if err != nil {
		writeServiceError(r.Context(), c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, InvitationListResponse{
		Invitations: invitations,
		Pagination:  helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// VerifyInvitation godoc
// @Summary Look up an invitation by token
// @Description Public endpoint used by the acceptance page. Returns the invitation together with event details.
// @Tags invitations
// @Produce json
// @Param token path string true "Invitation token"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/{token} [get]
func (c *InvitationController) VerifyInvitation(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing token")
		return
	}
	detail, err := c.Service.VerifyInvitation(r.Context(), token)
	if err != nil {
		writeServiceError(r.Context(), c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, detail)
}

// AcceptInvitationRequest is the request body for POST /invitations/{token}/accept.
type AcceptInvitationRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// Validate implements helpers.Validator.
func (r *AcceptInvitationRequest) Validate() []string {
	if strings.TrimSpace(r.FullName) == "" {
		return []string{"full_name is required"}
	}
	return nil
}

// AcceptInvitation godoc
// @Summary Accept an invitation
// @Description Creates a confirmed attendee for the invited email and resolves the invitation. Fails if the invitation is expired, already resolved, or the event is full (unless the invitation bypasses capacity).
// @Tags invitations
// @Accept json
// @Produce json
// @Param token path string true "Invitation token"
// @Param body body controllers.AcceptInvitationRequest true "Registrant details"
// @Success 201 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: invitation_already_resolved, invitation_expired, event_full"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/{token}/accept [post]
func (c *InvitationController) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing token")
		return
	}
	var req AcceptInvitationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	attendee, err := c.Service.AcceptInvitation(r.Context(), token, domain.InvitationAcceptInput{
		FullName: strings.TrimSpace(req.FullName),
		Phone:    strings.TrimSpace(req.Phone),
	})
	if err != nil {
		writeServiceError(r.Context(), c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, attendee)
}

// RejectInvitationRequest is the request body for POST /invitations/{token}/reject.
type RejectInvitationRequest struct {
	Reason string `json:"reason"`
}

// RejectInvitation godoc
// @Summary Decline an invitation
// @Tags invitations
// @Accept json
// @Produce json
// @Param token path string true "Invitation token"
// @Param body body controllers.RejectInvitationRequest false "Optional reason"
// @Success 204 "No Content"
// @Failure 400 {object} helpers.APIResponse "error.code: invitation_already_resolved, invitation_expired"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/{token}/reject [post]
func (c *InvitationController) RejectInvitation(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing token")
		return
	}
	var req RejectInvitationRequest
	// Body is optional on reject.
	if r.Body != nil && r.ContentLength != 0 {
		if !helpers.DecodeAndValidate(w, r, &req) {
			return
		}
	}

	if err := c.Service.RejectInvitation(r.Context(), token, strings.TrimSpace(req.Reason)); err != nil {
		writeServiceError(r.Context(), c.Logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CancelInvitation godoc
// @Summary Cancel a pending invitation
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param invitationID path string true "Invitation ID (UUID)"
// @Success 204 "No Content"
// @Failure 400 {object} helpers.APIResponse "error.code: invitation_already_resolved"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/invitations/{invitationID} [delete]
func (c *InvitationController) CancelInvitation(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	invitationID, ok := pathUUID(w, r, "invitationID")
	if !ok {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.CancelInvitation(r.Context(), eventID, invitationID, userID); err != nil {
		writeServiceError(r.Context(), c.Logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResendInvitation godoc
// @Summary Resend a pending invitation
// @Description Re-delivers the invitation email. An expired invitation gets a fresh expiry window.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param invitationID path string true "Invitation ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: invitation_already_resolved"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/invitations/{invitationID}/resend [post]
func (c *InvitationController) ResendInvitation(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	invitationID, ok := pathUUID(w, r, "invitationID")
	if !ok {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	inv, err := c.Service.ResendInvitation(r.Context(), eventID, invitationID, userID)
	if err != nil {
		writeServiceError(r.Context(), c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, inv)
}

// InvitationStats godoc
// @Summary Invitation counts and response rate for an event
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/invitations/stats [get]
func (c *InvitationController) InvitationStats(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	stats, err := c.Service.InvitationStats(r.Context(), eventID, userID)
	if err != nil {
		writeServiceError(r.Context(), c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stats)
}
