package mail

import (
	"context"
	"strings"

	"loanportal/internal/core/domain"

	"github.com/sirupsen/logrus"
)

// ConsoleMailer writes messages to the log instead of sending them
type ConsoleMailer struct {
	log logrus.FieldLogger
}

// NewConsoleMailer creates a console mailer
func NewConsoleMailer(log logrus.FieldLogger) *ConsoleMailer {
	return &ConsoleMailer{log: log}
}

// Send logs the plain-text body of msg
func (m *ConsoleMailer) Send(_ context.Context, msg *domain.EmailMessage) error {
	m.log.WithFields(logrus.Fields{
		"to":      strings.Join(msg.To, ","),
		"subject": msg.Subject,
	}).Info("📧 Email (console)\n" + msg.Text)
	return nil
}
