package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"eventplanner/internal/domain"
)

type registrationTxManager struct {
	DB *sql.DB
}

// NewRegistrationTxManager returns a RegistrationTxManager that serializes
// admissions per event with a row lock on the event itself.
func NewRegistrationTxManager(db *sql.DB) domain.RegistrationTxManager {
	return &registrationTxManager{
		DB: db,
	}
}

func (m *registrationTxManager) InEventTx(ctx context.Context, eventID string, fn func(ctx context.Context, tx domain.RegistrationTx) error) error {
	sqlTx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	// Lock the event row. Concurrent admissions for the same event queue
	// behind this lock, so the confirmed count each one reads is exact.
	var locked string
	err = sqlTx.QueryRowContext(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&locked)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock event: %w", err)
	}

	if err := fn(ctx, &registrationTx{tx: sqlTx, eventID: eventID}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type registrationTx struct {
	tx      *sql.Tx
	eventID string
}

func (t *registrationTx) ConfirmedCount(ctx context.Context) (int, error) {
	var count int
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attendees WHERE event_id = $1 AND status = 'confirmed'`,
		t.eventID,
	).Scan(&count)
	return count, err
}

func (t *registrationTx) AttendeeExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM attendees WHERE event_id = $1 AND lower(email) = lower($2))`,
		t.eventID, email,
	).Scan(&exists)
	return exists, err
}

func (t *registrationTx) CreateAttendee(ctx context.Context, a *domain.Attendee) error {
	query := `
		INSERT INTO attendees (event_id, email, full_name, phone, status, registered_at, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := t.tx.QueryRowContext(ctx, query,
		a.EventID, a.Email, a.FullName, a.Phone, a.Status, a.RegisteredAt, a.ConfirmedAt,
	).Scan(&a.ID)
	if err != nil && isUniqueViolation(err) {
		return domain.NewValidationError(domain.CodeDuplicateRegistration, "this email is already registered for this event")
	}
	return err
}

// UpdateInvitation resolves a pending invitation inside the admission tx. The
// status guard makes concurrent accepts of the same token lose cleanly: zero
// rows updated surfaces as ErrNotFound.
func (t *registrationTx) UpdateInvitation(ctx context.Context, inv *domain.AttendeeInvitation) error {
	query := `
		UPDATE attendee_invitations
		SET status = $2, expires_at = $3, responded_at = $4, attendee_id = $5, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	result, err := t.tx.ExecContext(ctx, query, inv.ID, inv.Status, inv.ExpiresAt, inv.RespondedAt, inv.AttendeeID)
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
