package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"eventplanner/internal/domain"
)

type attendeeRepository struct {
	DB *sql.DB
}

func NewAttendeeRepository(db *sql.DB) domain.AttendeeRepository {
	return &attendeeRepository{
		DB: db,
	}
}

const attendeeColumns = `
	id, event_id, email, full_name, phone, status, registered_at, confirmed_at
`

func (r *attendeeRepository) GetByID(ctx context.Context, eventID, attendeeID string) (*domain.Attendee, error) {
	query := `SELECT ` + attendeeColumns + ` FROM attendees WHERE event_id = $1 AND id = $2`
	a, err := scanAttendee(r.DB.QueryRowContext(ctx, query, eventID, attendeeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *attendeeRepository) GetByEventAndEmail(ctx context.Context, eventID, email string) (*domain.Attendee, error) {
	query := `SELECT ` + attendeeColumns + ` FROM attendees WHERE event_id = $1 AND lower(email) = lower($2)`
	a, err := scanAttendee(r.DB.QueryRowContext(ctx, query, eventID, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *attendeeRepository) ListByEventID(ctx context.Context, eventID string, search string, params domain.PaginationParams) ([]*domain.Attendee, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*) FROM attendees
		WHERE event_id = $1 AND ($2 = '' OR email ILIKE '%' || $2 || '%' OR full_name ILIKE '%' || $2 || '%')
	`
	if err := r.DB.QueryRowContext(ctx, countQuery, eventID, search).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + attendeeColumns + `
		FROM attendees
		WHERE event_id = $1 AND ($2 = '' OR email ILIKE '%' || $2 || '%' OR full_name ILIKE '%' || $2 || '%')
		ORDER BY registered_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, search, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	attendees := make([]*domain.Attendee, 0)
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, 0, err
		}
		attendees = append(attendees, a)
	}
	return attendees, total, rows.Err()
}

func (r *attendeeRepository) CountByStatus(ctx context.Context, eventID string) (map[domain.AttendeeStatus]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM attendees
		WHERE event_id = $1
		GROUP BY status
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[domain.AttendeeStatus]int)
	for rows.Next() {
		var status domain.AttendeeStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *attendeeRepository) UpdateStatus(ctx context.Context, a *domain.Attendee) error {
	query := `
		UPDATE attendees
		SET status = $3, confirmed_at = $4
		WHERE event_id = $1 AND id = $2
	`
	result, err := r.DB.ExecContext(ctx, query, a.EventID, a.ID, a.Status, a.ConfirmedAt)
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

func (r *attendeeRepository) DeleteByEventAndEmail(ctx context.Context, eventID, email string) error {
	query := `DELETE FROM attendees WHERE event_id = $1 AND lower(email) = lower($2)`
	result, err := r.DB.ExecContext(ctx, query, eventID, email)
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

func scanAttendee(row rowScanner) (*domain.Attendee, error) {
	a := &domain.Attendee{}
	var phoneNull sql.NullString
	var confirmedNull sql.NullTime
	err := row.Scan(
		&a.ID, &a.EventID, &a.Email, &a.FullName, &phoneNull, &a.Status,
		&a.RegisteredAt, &confirmedNull,
	)
	if err != nil {
		return nil, err
	}
	if phoneNull.Valid {
		a.Phone = phoneNull.String
	}
	if confirmedNull.Valid {
		a.ConfirmedAt = &confirmedNull.Time
	}
	return a, nil
}

// isUniqueViolation reports whether err is a postgres unique constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
