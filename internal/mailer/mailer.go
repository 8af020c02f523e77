package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"time"

	"gopkg.in/gomail.v2"

	"label-cabinet/backstage/internal/config"
	"label-cabinet/backstage/internal/logging"
)

// Mailer sends transactional mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPMailer delivers through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return &SMTPMailer{dialer: d, from: cfg.From}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(msg) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send mail: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogMailer logs mail instead of sending it; used when SMTP is not configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	logging.Info("Mail not sent (no SMTP configured)", "to", to, "subject", subject, "body", htmlBody)
	return nil
}

// New picks the SMTP mailer when a host is configured.
func New(cfg config.SMTPConfig) Mailer {
	if cfg.Host == "" {
		return LogMailer{}
	}
	return NewSMTPMailer(cfg)
}

// EmailChangeHTML renders the confirmation mail body.
func EmailChangeHTML(nickname, link string, ttl time.Duration) string {
	return fmt.Sprintf(
		`<p>Hello %s,</p><p>Confirm your new email address by opening the link below:</p>`+
			`<p><a href="%s">Confirm email change</a></p>`+
			`<p>The link is valid for %d hours. If you did not request this change, ignore this message.</p>`,
		html.EscapeString(nickname), html.EscapeString(link), int(ttl.Hours()),
	)
}
