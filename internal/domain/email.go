package domain

// Mailer delivers a single email. Implementations live in the adapters layer.
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer produces the subject and both bodies for a named
// notification template.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}
