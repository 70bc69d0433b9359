package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"loanportal/internal/config"
	"loanportal/internal/core/domain"
	"loanportal/internal/core/services"
	"loanportal/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	principals map[string]*domain.Principal
	err        error
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*domain.Principal, error) {
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.principals[token]; ok {
		return p, nil
	}
	return nil, domain.ErrSessionInvalid
}

type fakeStatus struct {
	status *services.OnboardingStatus
	err    error
	calls  int
}

func (f *fakeStatus) Status(_ context.Context, _ uint) (*services.OnboardingStatus, error) {
	f.calls++
	return f.status, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		AppMode: "dev",
		Session: config.SessionConfig{CookieName: "sessionid"},
		Site:    config.SiteConfig{AllowedHosts: []string{"loans.example.com"}},
	}
}

var (
	borrower = &domain.Principal{UserID: 7, Role: domain.RoleUser}
	staff    = &domain.Principal{UserID: 1, Role: domain.RoleAdmin, Staff: true}
)

func newApp(status *fakeStatus) *fiber.App {
	cfg := testConfig()
	auth := &fakeAuth{principals: map[string]*domain.Principal{"user-token": borrower, "staff-token": staff}}

	app := fiber.New()
	app.Use(LoadSession(auth, cfg))
	ok := func(c *fiber.Ctx) error { return c.SendString("ok") }

	gate := Gatekeeper(status, logger.Discard())
	for _, path := range []string{"/loan/apply/", ProfilePath, BankDetailPath, "/me/"} {
		app.Get(path, RequireAuth(), gate, ok)
	}
	app.Get("/admin/loans/", StaffOnly(), ok)
	return app
}

func get(t *testing.T, app *fiber.App, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "sessionid", Value: token})
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestGatekeeper_Redirects(t *testing.T) {
	tests := []struct {
		name     string
		status   services.OnboardingStatus
		path     string
		code     int
		location string
	}{
		{"no profile goes to profile", services.OnboardingStatus{}, "/loan/apply/", http.StatusFound, ProfilePath},
		{"profile page reachable", services.OnboardingStatus{}, ProfilePath, http.StatusOK, ""},
		{"bank page needs profile", services.OnboardingStatus{}, BankDetailPath, http.StatusFound, ProfilePath},
		{"no bank goes to bank", services.OnboardingStatus{ProfileCompleted: true}, "/loan/apply/", http.StatusFound, BankDetailPath},
		{"bank page reachable", services.OnboardingStatus{ProfileCompleted: true}, BankDetailPath, http.StatusOK, ""},
		{"profile editable before bank", services.OnboardingStatus{ProfileCompleted: true}, ProfilePath, http.StatusOK, ""},
		{"onboarded", services.OnboardingStatus{ProfileCompleted: true, HasBankDetail: true}, "/loan/apply/", http.StatusOK, ""},
		{"exempt path", services.OnboardingStatus{}, "/me/", http.StatusOK, ""},
		{"profile page without slash", services.OnboardingStatus{}, "/profile/complete", http.StatusOK, ""},
		{"bank page without slash", services.OnboardingStatus{ProfileCompleted: true}, "/bank-detail", http.StatusOK, ""},
		{"profile without slash before bank", services.OnboardingStatus{ProfileCompleted: true}, "/profile/complete", http.StatusOK, ""},
		{"bank page without slash needs profile", services.OnboardingStatus{}, "/bank-detail", http.StatusFound, ProfilePath},
		{"exempt path without slash", services.OnboardingStatus{}, "/me", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := tt.status
			resp := get(t, newApp(&fakeStatus{status: &status}), tt.path, "user-token")
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.Equal(t, tt.location, resp.Header.Get("Location"))
		})
	}
}

func TestGatekeeper_Anonymous(t *testing.T) {
	resp := get(t, newApp(&fakeStatus{}), "/loan/apply/", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, LoginPath, resp.Header.Get("Location"))

	resp = get(t, newApp(&fakeStatus{}), "/loan/apply/", "stale-token")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Set-Cookie"), "sessionid=;")
}

func TestGatekeeper_StaffBypass(t *testing.T) {
	status := &fakeStatus{status: &services.OnboardingStatus{}}
	resp := get(t, newApp(status), "/loan/apply/", "staff-token")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, status.calls)
}

func TestGatekeeper_FailsOpen(t *testing.T) {
	resp := get(t, newApp(&fakeStatus{err: errors.New("db down")}), "/loan/apply/", "user-token")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStaffOnly(t *testing.T) {
	app := newApp(&fakeStatus{})

	assert.Equal(t, http.StatusFound, get(t, app, "/admin/loans/", "").StatusCode)
	assert.Equal(t, http.StatusForbidden, get(t, app, "/admin/loans/", "user-token").StatusCode)
	assert.Equal(t, http.StatusOK, get(t, app, "/admin/loans/", "staff-token").StatusCode)
}

func TestLoadSession_BearerHeader(t *testing.T) {
	app := newApp(&fakeStatus{status: &services.OnboardingStatus{ProfileCompleted: true, HasBankDetail: true}})
	req := httptest.NewRequest(http.MethodGet, "/loan/apply/", nil)
	req.Header.Set("Authorization", "Bearer user-token")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAllowedHosts(t *testing.T) {
	app := fiber.New()
	app.Use(AllowedHosts(testConfig()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest(http.MethodGet, "http://loans.example.com/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "http://evil.example.net/", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
