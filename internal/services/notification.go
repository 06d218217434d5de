package services

import (
	"context"
	"log/slog"
	"time"

	"eventplanner/internal/domain"
)

type notificationDispatcher struct {
	repo     domain.NotificationRepository
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewNotificationDispatcher returns a Notifier that renders the template for a
// notification type, records the attempt, and delivers it over email. Every
// failure is swallowed: it is logged and written to the notification record,
// never returned, so the state change that triggered the notification stands
// regardless of delivery.
func NewNotificationDispatcher(repo domain.NotificationRepository, mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.Notifier {
	return &notificationDispatcher{
		repo:     repo,
		mailer:   mailer,
		renderer: renderer,
		logger:   logger,
	}
}

func (d *notificationDispatcher) Notify(ctx context.Context, t domain.NotificationType, recipientEmail string, eventID string, data domain.NotificationContext) {
	n := &domain.Notification{
		Type:           t,
		Channel:        domain.NotificationChannelEmail,
		RecipientEmail: recipientEmail,
		Status:         domain.NotificationStatusPending,
		CreatedAt:      time.Now(),
	}
	if eventID != "" {
		n.EventID = &eventID
	}

	subject, htmlBody, textBody, err := d.renderer.Render(string(t), data)
	if err != nil {
		n.Status = domain.NotificationStatusFailed
		n.ErrorMessage = err.Error()
		d.persist(ctx, n)
		d.logger.ErrorContext(ctx, "notification render failed", "type", t, "recipient", recipientEmail, "err", err)
		return
	}
	n.Subject = subject
	n.Message = textBody

	if err := d.repo.Create(ctx, n); err != nil {
		// Still attempt delivery; the record is bookkeeping, not a gate.
		d.logger.ErrorContext(ctx, "notification record create failed", "type", t, "recipient", recipientEmail, "err", err)
	}

	switch n.Channel {
	case domain.NotificationChannelEmail:
		if err := d.mailer.Send(recipientEmail, subject, htmlBody, textBody); err != nil {
			n.Status = domain.NotificationStatusFailed
			n.ErrorMessage = err.Error()
			d.persist(ctx, n)
			d.logger.ErrorContext(ctx, "notification send failed", "type", t, "recipient", recipientEmail, "err", err)
			return
		}
	case domain.NotificationChannelWebSocket:
		// Real-time delivery is not implemented.
		d.logger.DebugContext(ctx, "websocket notification skipped", "type", t, "recipient", recipientEmail)
	}

	now := time.Now()
	n.Status = domain.NotificationStatusSent
	n.SentAt = &now
	d.persist(ctx, n)
	d.logger.InfoContext(ctx, "notification sent", "type", t, "recipient", recipientEmail)
}

func (d *notificationDispatcher) persist(ctx context.Context, n *domain.Notification) {
	var err error
	if n.ID == "" {
		err = d.repo.Create(ctx, n)
	} else {
		err = d.repo.Update(ctx, n)
	}
	if err != nil {
		d.logger.ErrorContext(ctx, "notification record persist failed", "type", n.Type, "recipient", n.RecipientEmail, "err", err)
	}
}
