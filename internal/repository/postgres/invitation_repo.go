package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventplanner/internal/domain"
)

type invitationRepository struct {
	DB *sql.DB
}

func NewInvitationRepository(db *sql.DB) domain.AttendeeInvitationRepository {
	return &invitationRepository{
		DB: db,
	}
}

const invitationColumns = `
	id, event_id, email, token, invited_by, message, is_vip, bypass_capacity,
	status, expires_at, responded_at, attendee_id, created_at, updated_at
`

func (r *invitationRepository) Create(ctx context.Context, inv *domain.AttendeeInvitation) error {
	query := `
		INSERT INTO attendee_invitations (
			event_id, email, token, invited_by, message, is_vip, bypass_capacity,
			status, expires_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		inv.EventID, inv.Email, inv.Token, inv.InvitedBy, inv.Message, inv.IsVIP, inv.BypassCapacity,
		inv.Status, inv.ExpiresAt, inv.CreatedAt, inv.UpdatedAt,
	).Scan(&inv.ID)
	if err != nil && isUniqueViolation(err) {
		return domain.ErrInvalidInput
	}
	return err
}

func (r *invitationRepository) GetByToken(ctx context.Context, token string) (*domain.AttendeeInvitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM attendee_invitations WHERE token = $1`
	inv, err := scanInvitation(r.DB.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) GetByID(ctx context.Context, eventID, invitationID string) (*domain.AttendeeInvitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM attendee_invitations WHERE event_id = $1 AND id = $2`
	inv, err := scanInvitation(r.DB.QueryRowContext(ctx, query, eventID, invitationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) ListByEventID(ctx context.Context, eventID string, search string, params domain.PaginationParams) ([]*domain.AttendeeInvitation, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*) FROM attendee_invitations
		WHERE event_id = $1 AND ($2 = '' OR email ILIKE '%' || $2 || '%')
	`
	if err := r.DB.QueryRowContext(ctx, countQuery, eventID, search).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + invitationColumns + `
		FROM attendee_invitations
		WHERE event_id = $1 AND ($2 = '' OR email ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, search, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	invitations := make([]*domain.AttendeeInvitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, 0, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, total, rows.Err()
}

func (r *invitationRepository) HasPending(ctx context.Context, eventID, email string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM attendee_invitations
			WHERE event_id = $1 AND lower(email) = lower($2) AND status = 'pending'
		)
	`
	var exists bool
	err := r.DB.QueryRowContext(ctx, query, eventID, email).Scan(&exists)
	return exists, err
}

func (r *invitationRepository) DeletePending(ctx context.Context, eventID, email string) error {
	query := `
		DELETE FROM attendee_invitations
		WHERE event_id = $1 AND lower(email) = lower($2) AND status = 'pending'
	`
	_, err := r.DB.ExecContext(ctx, query, eventID, email)
	return err
}

func (r *invitationRepository) Update(ctx context.Context, inv *domain.AttendeeInvitation) error {
	query := `
		UPDATE attendee_invitations
		SET status = $2, expires_at = $3, responded_at = $4, attendee_id = $5, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.DB.ExecContext(ctx, query, inv.ID, inv.Status, inv.ExpiresAt, inv.RespondedAt, inv.AttendeeID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *invitationRepository) CountByStatus(ctx context.Context, eventID string) (map[domain.InvitationStatus]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM attendee_invitations
		WHERE event_id = $1
		GROUP BY status
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[domain.InvitationStatus]int)
	for rows.Next() {
		var status domain.InvitationStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func scanInvitation(row rowScanner) (*domain.AttendeeInvitation, error) {
	inv := &domain.AttendeeInvitation{}
	var invitedByNull, attendeeNull, messageNull sql.NullString
	var respondedNull sql.NullTime
	err := row.Scan(
		&inv.ID, &inv.EventID, &inv.Email, &inv.Token, &invitedByNull, &messageNull,
		&inv.IsVIP, &inv.BypassCapacity, &inv.Status, &inv.ExpiresAt,
		&respondedNull, &attendeeNull, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if invitedByNull.Valid {
		inv.InvitedBy = &invitedByNull.String
	}
	if messageNull.Valid {
		inv.Message = messageNull.String
	}
	if respondedNull.Valid {
		inv.RespondedAt = &respondedNull.Time
	}
	if attendeeNull.Valid {
		inv.AttendeeID = &attendeeNull.String
	}
	return inv, nil
}
