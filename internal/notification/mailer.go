package notification

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/spec-kit/complaint-service/internal/config"
)

// Mailer sends department emails over SMTP. The dialer is configured once at
// construction and reused for every send.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer builds the long-lived SMTP mailer.
func NewMailer(cfg config.SMTPConfig) *Mailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &Mailer{dialer: dialer, from: cfg.From}
}

// Send delivers one HTML email.
func (m *Mailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
