package mail

import (
	"context"
	"crypto/tls"
	"testing"

	"loanportal/internal/config"
	"loanportal/internal/core/domain"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mailConfig(useTLS, useSSL bool) config.MailConfig {
	return config.MailConfig{
		Backend:  "smtp",
		Host:     "smtp.example.com",
		Port:     587,
		User:     "mailer",
		Password: "secret",
		UseTLS:   useTLS,
		UseSSL:   useSSL,
		From:     "noreply@example.com",
	}
}

func TestNewSMTPMailer_TransportSecurity(t *testing.T) {
	tests := []struct {
		name     string
		useTLS   bool
		useSSL   bool
		ssl      bool
		startTLS bool
		warns    bool
	}{
		{"starttls", true, false, false, true, false},
		{"implicit tls", false, true, true, false, false},
		{"both off", false, false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, hook := test.NewNullLogger()
			m := NewSMTPMailer(mailConfig(tt.useTLS, tt.useSSL), log)

			assert.Equal(t, tt.ssl, m.dialer.SSL)
			assert.Equal(t, tt.startTLS, m.startTLS)
			require.NotNil(t, m.dialer.TLSConfig)
			assert.Equal(t, "smtp.example.com", m.dialer.TLSConfig.ServerName)
			assert.Equal(t, uint16(tls.VersionTLS12), m.dialer.TLSConfig.MinVersion)

			if tt.warns {
				require.Len(t, hook.Entries, 1)
				assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
			} else {
				assert.Empty(t, hook.Entries)
			}
		})
	}
}

func TestSMTPMailer_SendRejectsBeforeDialing(t *testing.T) {
	log, _ := test.NewNullLogger()
	m := NewSMTPMailer(mailConfig(true, false), log)

	err := m.Send(context.Background(), &domain.EmailMessage{Subject: "hi", Text: "body"})
	assert.ErrorContains(t, err, "no recipients")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = m.Send(ctx, &domain.EmailMessage{To: []string{"a@example.com"}, Subject: "hi"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsoleMailer_Send(t *testing.T) {
	log, hook := test.NewNullLogger()
	err := NewConsoleMailer(log).Send(context.Background(), &domain.EmailMessage{
		To:      []string{"a@example.com", "b@example.com"},
		Subject: "Verify",
		Text:    "click here",
	})
	require.NoError(t, err)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "a@example.com,b@example.com", hook.LastEntry().Data["to"])
	assert.Contains(t, hook.LastEntry().Message, "click here")
}
