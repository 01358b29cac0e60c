package infra

import (
	"fmt"
	"net/smtp"

	"topneum/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for the sales-inbox notifications.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	to       string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		to:       cfg.NotificacionesEmail,
	}
}

// Notificar sends a plain-text message to the configured sales inbox.
func (m *Mailer) Notificar(subject, body string) error {
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{m.to}
	e.Subject = subject
	e.Text = []byte(body)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	if err := e.Send(m.addr, auth); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}
