// Package mailer dispatches outreach emails over SMTP.
package mailer

import (
	"time"

	"go.uber.org/zap"
	gomail "gopkg.in/mail.v2"
)

// Mailer sends a single message and reports whether the provider accepted
// it. There is no structured error and no retry: a rejected send is final
// for the run and is recorded by the caller.
type Mailer interface {
	Send(toEmail, subject, body string) bool
}

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Simulation logs the message instead of dialing out; the decision is
	// made once at construction for the whole run.
	Simulation bool
}

// SMTPMailer delivers messages via SMTP.
type SMTPMailer struct {
	cfg Config
}

// New creates an SMTPMailer.
func New(cfg Config) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send delivers an HTML email. Failures are logged; the caller only sees
// the boolean outcome.
func (m *SMTPMailer) Send(toEmail, subject, body string) bool {
	if m.cfg.Simulation {
		zap.L().Info("mailer: simulation mode, not sending",
			zap.String("to", toEmail),
			zap.String("subject", subject),
		)
		return true
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	dialer.Timeout = 10 * time.Second

	if err := dialer.DialAndSend(msg); err != nil {
		zap.L().Error("mailer: send failed",
			zap.String("to", toEmail),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return false
	}

	zap.L().Info("mailer: sent", zap.String("to", toEmail), zap.String("subject", subject))
	return true
}
