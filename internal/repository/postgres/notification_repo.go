package postgres

import (
	"context"
	"database/sql"

	"eventplanner/internal/domain"
)

type notificationRepository struct {
	DB *sql.DB
}

func NewNotificationRepository(db *sql.DB) domain.NotificationRepository {
	return &notificationRepository{
		DB: db,
	}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (
			type, channel, recipient_email, subject, message, event_id,
			status, sent_at, error_message, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		n.Type, n.Channel, n.RecipientEmail, n.Subject, n.Message, n.EventID,
		n.Status, n.SentAt, n.ErrorMessage, n.CreatedAt,
	).Scan(&n.ID)
}

func (r *notificationRepository) Update(ctx context.Context, n *domain.Notification) error {
	query := `
		UPDATE notifications
		SET status = $2, sent_at = $3, error_message = $4
		WHERE id = $1
	`
	result, err := r.DB.ExecContext(ctx, query, n.ID, n.Status, n.SentAt, n.ErrorMessage)
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

func (r *notificationRepository) ListByEventID(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.Notification, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE event_id = $1`, eventID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, type, channel, recipient_email, subject, message, event_id,
		       status, sent_at, error_message, created_at
		FROM notifications
		WHERE event_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	notifications := make([]*domain.Notification, 0)
	for rows.Next() {
		n := &domain.Notification{}
		var eventNull, errNull sql.NullString
		var sentNull sql.NullTime
		err := rows.Scan(
			&n.ID, &n.Type, &n.Channel, &n.RecipientEmail, &n.Subject, &n.Message, &eventNull,
			&n.Status, &sentNull, &errNull, &n.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		if eventNull.Valid {
			n.EventID = &eventNull.String
		}
		if sentNull.Valid {
			n.SentAt = &sentNull.Time
		}
		if errNull.Valid {
			n.ErrorMessage = errNull.String
		}
		notifications = append(notifications, n)
	}
	return notifications, total, rows.Err()
}
