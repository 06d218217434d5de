package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventplanner/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `
	id, name, description, venue_name, venue_address, capacity, status,
	is_public, registration_type, requires_approval,
	registration_opens_at, registration_closes_at,
	start_datetime, end_datetime, owner_id, organization_id,
	created_at, updated_at
`

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (
			name, description, venue_name, venue_address, capacity, status,
			is_public, registration_type, requires_approval,
			registration_opens_at, registration_closes_at,
			start_datetime, end_datetime, owner_id, organization_id,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`
	var orgNull sql.NullString
	if e.OrganizationID != "" {
		orgNull = sql.NullString{String: e.OrganizationID, Valid: true}
	}
	return r.DB.QueryRowContext(ctx, query,
		e.Name, e.Description, e.VenueName, e.VenueAddress, e.Capacity, e.Status,
		e.IsPublic, e.RegistrationType, e.RequiresApproval,
		e.RegistrationOpensAt, e.RegistrationClosesAt,
		e.StartDatetime, e.EndDatetime, e.OwnerID, orgNull,
		e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE owner_id = $1 ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) UpdateStatus(ctx context.Context, id string, status domain.EventStatus) (*domain.Event, error) {
	query := `
		UPDATE events
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + eventColumns
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var opensNull, closesNull sql.NullTime
	var orgNull sql.NullString
	err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.VenueName, &e.VenueAddress, &e.Capacity, &e.Status,
		&e.IsPublic, &e.RegistrationType, &e.RequiresApproval,
		&opensNull, &closesNull,
		&e.StartDatetime, &e.EndDatetime, &e.OwnerID, &orgNull,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if opensNull.Valid {
		e.RegistrationOpensAt = &opensNull.Time
	}
	if closesNull.Valid {
		e.RegistrationClosesAt = &closesNull.Time
	}
	if orgNull.Valid {
		e.OrganizationID = orgNull.String
	}
	return e, nil
}
