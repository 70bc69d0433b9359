// Package mail holds the outbound email transports.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"

	"loanportal/internal/config"
	"loanportal/internal/core/domain"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// SMTPMailer delivers email through an SMTP relay
type SMTPMailer struct {
	dialer   *gomail.Dialer
	from     string
	startTLS bool
	log      logrus.FieldLogger
}

// NewSMTPMailer creates a mailer from EMAIL_* settings. UseSSL selects
// implicit TLS and UseTLS selects STARTTLS. gomail upgrades with STARTTLS
// whenever the server offers it and cannot be told not to, so UseTLS=false
// without UseSSL only logs a warning. Credentials are never sent over an
// unencrypted connection to a non-local host.
func NewSMTPMailer(cfg config.MailConfig, log logrus.FieldLogger) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.SSL = cfg.UseSSL
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}

	if !cfg.UseSSL && !cfg.UseTLS {
		log.WithFields(logrus.Fields{
			"host": cfg.Host,
			"port": cfg.Port,
		}).Warn("⚠️ EMAIL_USE_TLS and EMAIL_USE_SSL are off, STARTTLS is still used if the server offers it")
	}

	return &SMTPMailer{dialer: d, from: cfg.From, startTLS: cfg.UseTLS && !cfg.UseSSL, log: log}
}

// Send delivers one multipart (text + html) message
func (m *SMTPMailer) Send(ctx context.Context, msg *domain.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("smtp: message has no recipients")
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		gm.AddAlternative("text/html", msg.HTML)
	}

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	m.log.WithFields(logrus.Fields{
		"to":       msg.To,
		"subject":  msg.Subject,
		"ssl":      m.dialer.SSL,
		"starttls": m.startTLS,
	}).Debug("📧 Email sent")
	return nil
}
