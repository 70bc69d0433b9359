package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"loanportal/internal/adapters/persistence/memory"
	"loanportal/internal/config"
	"loanportal/internal/core/domain"
	"loanportal/internal/core/services"
	"loanportal/internal/pkg/logger"
	"loanportal/internal/pkg/password"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type outbox struct {
	mu   sync.Mutex
	sent []*domain.EmailMessage
}

func (o *outbox) Send(_ context.Context, msg *domain.EmailMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent)
}

func (o *outbox) last() *domain.EmailMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sent[len(o.sent)-1]
}

type body struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors"`
	Data    json.RawMessage   `json:"data"`
}

type harness struct {
	app  *fiber.App
	mail *outbox
	svc  *Services
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	prev := password.SetCost(bcrypt.MinCost)
	t.Cleanup(func() { password.SetCost(prev) })

	cfg := &config.Config{
		AppMode:        "dev",
		Session:        config.SessionConfig{CookieName: "sessionid", TTL: time.Hour},
		Mail:           config.MailConfig{Backend: "console"},
		Site:           config.SiteConfig{OrgDisplayName: "3rd Gen Loan", InviteSenderName: "3rd Gen Loan"},
		SecretKey:      "routes-test",
		VerifyTokenTTL: time.Hour,
	}
	mail := &outbox{}
	app := fiber.New()
	svc := Setup(app, Deps{
		Config: cfg,
		Repos:  memory.NewStore().Set(),
		Mailer: mail,
		Log:    logger.Discard(),
	})
	return &harness{app: app, mail: mail, svc: svc}
}

func (h *harness) do(t *testing.T, method, path, token string, payload interface{}) (*http.Response, body) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)

	var out body
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func (h *harness) login(t *testing.T, email, pw string) string {
	t.Helper()
	resp, out := h.do(t, http.MethodPost, "/login/", "", fiber.Map{"email": email, "password": pw})
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Error)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

var verifyPath = regexp.MustCompile(`/verify-email/[^/\s]+/[^/\s]+/`)

func TestBorrowerJourney(t *testing.T) {
	h := newHarness(t)

	resp, out := h.do(t, http.MethodPost, "/register/", "", fiber.Map{
		"full_name":        "Jane Borrower",
		"email":            "Jane@Example.com",
		"phone":            "+1 (555) 123-4567",
		"password":         "s3cret-pass",
		"confirm_password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, out.Errors)
	require.Equal(t, 1, h.mail.count())

	resp, _ = h.do(t, http.MethodPost, "/login/", "", fiber.Map{"email": "jane@example.com", "password": "s3cret-pass"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "unverified accounts cannot sign in")

	link := verifyPath.FindString(h.mail.last().Text)
	require.NotEmpty(t, link)
	resp, _ = h.do(t, http.MethodGet, link, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	token := h.login(t, "jane@example.com", "s3cret-pass")

	resp, _ = h.do(t, http.MethodGet, "/loan/apply/", token, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/profile/complete/", resp.Header.Get("Location"))

	resp, out = h.do(t, http.MethodPost, "/profile/complete/", token, fiber.Map{
		"street_address":    "1 Main St",
		"city":              "Springfield",
		"state":             "IL",
		"postal_code":       "62701",
		"nationality":       "US",
		"marital_status":    "SINGLE",
		"housing_status":    "RENT",
		"dob":               "1990-05-17",
		"employment_status": "FULL_TIME",
		"monthly_income":    4200,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Errors)

	resp, _ = h.do(t, http.MethodGet, "/loan/apply/", token, nil)
	assert.Equal(t, "/bank-detail/", resp.Header.Get("Location"))

	resp, out = h.do(t, http.MethodPost, "/bank-detail/", token, fiber.Map{
		"bank_name":      "First Bank",
		"account_name":   "Jane Borrower",
		"account_number": "000123456789",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Errors)

	resp, out = h.do(t, http.MethodPost, "/loan/apply/", token, fiber.Map{
		"requested_amount": 1000,
		"loan_purpose":     "Medical bills",
		"term_months":      6,
		"monthly_income":   "4200.00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, out.Errors)
	var loan struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &loan))

	resp, _ = h.do(t, http.MethodPost, "/loan/apply/", token, fiber.Map{
		"requested_amount": 50, "loan_purpose": "Again", "term_months": 1, "monthly_income": 1,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = h.do(t, http.MethodPost, "/withdrawal/request/", token, fiber.Map{"amount": 10})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/loan/dashboard/", resp.Header.Get("Location"))

	resp, _ = h.do(t, http.MethodPost, "/admin/loans/approve/", token, fiber.Map{"ids": []uint{loan.ID}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, _, err := h.svc.Auth.EnsureStaffUser(context.Background(), services.StaffInput{
		FullName: "Sam Staff",
		Email:    "staff@example.com",
		Phone:    "+1 555 000 1111",
		Password: "staff-password",
	})
	require.NoError(t, err)
	staffToken := h.login(t, "staff@example.com", "staff-password")

	resp, out = h.do(t, http.MethodPost, "/admin/loans/approve/", staffToken, fiber.Map{
		"ids":     []uint{loan.ID},
		"amounts": map[string]string{strconv.FormatUint(uint64(loan.ID), 10): "800"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Errors)

	resp, out = h.do(t, http.MethodPost, "/withdrawal/request/", token, fiber.Map{"amount": 800.01})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Amount exceeds available balance.", out.Errors["amount"])

	resp, out = h.do(t, http.MethodPost, "/withdrawal/request/", token, fiber.Map{"amount": "800.00"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode, out.Errors)

	resp, out = h.do(t, http.MethodGet, "/loan/dashboard/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dash struct {
		Balance struct {
			Available string `json:"available_balance"`
		} `json:"balance"`
		Withdrawals []json.RawMessage `json:"withdrawals"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &dash))
	assert.Equal(t, "800", dash.Balance.Available, "pending requests leave the balance untouched")
	assert.Len(t, dash.Withdrawals, 1)
}

func TestInvite_StaffOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, _, err := h.svc.Auth.EnsureStaffUser(ctx, services.StaffInput{
		FullName: "Sam Staff", Email: "staff@example.com", Phone: "+1 555 000 1111", Password: "staff-password",
	})
	require.NoError(t, err)
	staffToken := h.login(t, "staff@example.com", "staff-password")

	invite := fiber.Map{"recipient_name": "Alex", "recipient_email": "alex@example.com"}

	resp, _ := h.do(t, http.MethodPost, "/invite/", "", invite)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	resp, out := h.do(t, http.MethodPost, "/invite/", staffToken, invite)
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Errors)
	require.Equal(t, 1, h.mail.count())
	assert.Contains(t, h.mail.last().Text, "http://example.com/register/")
}

func TestInvite_BorrowerForbidden(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do(t, http.MethodPost, "/register/", "", fiber.Map{
		"full_name": "Jane", "email": "jane@example.com", "phone": "5551234567",
		"password": "s3cret-pass", "confirm_password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	link := verifyPath.FindString(h.mail.last().Text)
	h.do(t, http.MethodGet, link, "", nil)
	token := h.login(t, "jane@example.com", "s3cret-pass")

	resp, _ = h.do(t, http.MethodPost, "/invite/", token, fiber.Map{"recipient_name": "Alex", "recipient_email": "alex@example.com"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	for name, req := range map[string]*http.Request{
		"malformed json": httptest.NewRequest(http.MethodPost, "/invite/", strings.NewReader("{not json")),
		"empty body":     httptest.NewRequest(http.MethodPost, "/invite/", nil),
	} {
		if name == "malformed json" {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := h.app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, name)
	}
	assert.Equal(t, 1, h.mail.count(), "only the verification email was sent")
}

func TestLogin_Errors(t *testing.T) {
	h := newHarness(t)

	resp, out := h.do(t, http.MethodPost, "/login/", "", fiber.Map{"email": "nobody@example.com", "password": "whatever1"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "No account found with this email address.", out.Error)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	resp, _ := h.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
