package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_MODE", "DB_DRIVER", "EMAIL_BACKEND", "EMAIL_USE_SSL", "EMAIL_USE_TLS",
		"SECRET_KEY", "ALLOWED_HOSTS", "SESSION_HOURS", "VERIFY_TOKEN_HOURS",
		"PUBLIC_BASE_URL", "ORG_DISPLAY_NAME", "INVITE_SENDER_NAME",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "3306", cfg.Database.Port)
	assert.Equal(t, 336*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 72*time.Hour, cfg.VerifyTokenTTL)
	assert.Equal(t, "3rd Gen Loan", cfg.Site.InviteSenderName)
	assert.Equal(t, []string{"*"}, cfg.Site.AllowedHosts)
	assert.True(t, cfg.Mail.UseTLS)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("SESSION_HOURS", "12")
	t.Setenv("PUBLIC_BASE_URL", "https://loans.example.com/")
	t.Setenv("ORG_DISPLAY_NAME", "Acme Credit")
	t.Setenv("ALLOWED_HOSTS", " Loans.Example.com , .acme.test ")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "https://loans.example.com", cfg.Site.PublicBaseURL)
	assert.Equal(t, "Acme Credit", cfg.Site.InviteSenderName)
	assert.Equal(t, []string{"loans.example.com", ".acme.test"}, cfg.Site.AllowedHosts)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"app mode":          {"APP_MODE": "staging"},
		"db driver":         {"DB_DRIVER": "sqlite"},
		"email backend":     {"EMAIL_BACKEND": "sendgrid"},
		"tls and ssl":       {"EMAIL_USE_SSL": "true", "EMAIL_USE_TLS": "true"},
		"prod needs secret": {"APP_MODE": "prod"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestHostAllowed(t *testing.T) {
	cfg := &Config{Site: SiteConfig{AllowedHosts: []string{"loans.example.com", ".acme.test"}}}

	assert.True(t, cfg.HostAllowed("loans.example.com"))
	assert.True(t, cfg.HostAllowed("LOANS.example.com:8443"))
	assert.True(t, cfg.HostAllowed("acme.test"))
	assert.True(t, cfg.HostAllowed("www.acme.test"))
	assert.False(t, cfg.HostAllowed("evilacme.test"))
	assert.False(t, cfg.HostAllowed("example.com"))
	assert.False(t, cfg.HostAllowed(""))

	wildcard := &Config{Site: SiteConfig{AllowedHosts: []string{"*"}}}
	assert.True(t, wildcard.HostAllowed("anything.local"))
}
