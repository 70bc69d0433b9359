package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"loanportal/internal/adapters/persistence/memory"
	"loanportal/internal/adapters/persistence/models"
	"loanportal/internal/adapters/persistence/repositories"
	"loanportal/internal/config"
	"loanportal/internal/core/domain"
	"loanportal/internal/pkg/logger"
	"loanportal/internal/pkg/password"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []*domain.EmailMessage
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg *domain.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) messages() []*domain.EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.EmailMessage(nil), m.sent...)
}

var errSMTPDown = errors.New("dial tcp: connection refused")

type fixture struct {
	cfg        *config.Config
	repos      *repositories.Set
	mailer     *fakeMailer
	fallback   *fakeMailer
	notify     *NotificationService
	auth       *AuthService
	onboarding *OnboardingService
	loans      *LoanService
	admin      *AdminService

	phones int
}

func (f *fixture) nextPhone() int {
	f.phones++
	return f.phones
}

func testConfig() *config.Config {
	return &config.Config{
		AppMode: "dev",
		Session: config.SessionConfig{CookieName: "sessionid", TTL: 24 * time.Hour},
		Mail:    config.MailConfig{Backend: "smtp", From: "no-reply@example.com"},
		Site: config.SiteConfig{
			OrgDisplayName:   "3rd Gen Loan",
			InviteSenderName: "3rd Gen Loan",
			AllowedHosts:     []string{"*"},
		},
		SecretKey:      "test-secret",
		VerifyTokenTTL: 72 * time.Hour,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	prev := password.SetCost(bcrypt.MinCost)
	t.Cleanup(func() { password.SetCost(prev) })

	cfg := testConfig()
	log := logger.Discard()
	repos := memory.NewStore().Set()
	mailer, fallback := &fakeMailer{}, &fakeMailer{}

	notify := NewNotificationService(mailer, fallback, cfg, log)
	onboarding := NewOnboardingService(repos.Users, repos.Profiles, repos.BankDetails, log)

	return &fixture{
		cfg:        cfg,
		repos:      repos,
		mailer:     mailer,
		fallback:   fallback,
		notify:     notify,
		auth:       NewAuthService(repos.Users, repos.Sessions, notify, cfg, log),
		onboarding: onboarding,
		loans:      NewLoanService(repos, onboarding, log),
		admin:      NewAdminService(repos, log),
	}
}

// borrower creates an active, verified account with the given onboarding steps done
func (f *fixture) borrower(t *testing.T, email string, withProfile, withBank bool) *domain.Principal {
	t.Helper()
	ctx := context.Background()

	hash, err := password.Hash("s3cret-pass")
	require.NoError(t, err)

	now := time.Now()
	user := &models.User{
		FullName:        "Jane Borrower",
		Email:           email,
		Phone:           fmt.Sprintf("+1555000%04d", f.nextPhone()),
		Password:        hash,
		Role:            string(domain.RoleUser),
		IsActive:        true,
		EmailVerified:   true,
		EmailVerifiedAt: &now,
	}
	require.NoError(t, f.repos.Users.Create(ctx, user))

	if withProfile {
		dob := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)
		require.NoError(t, f.repos.Profiles.Save(ctx, &models.Profile{
			UserID:           user.ID,
			StreetAddress:    "1 Main St",
			City:             "Springfield",
			State:            "IL",
			PostalCode:       "62701",
			Nationality:      "US",
			MaritalStatus:    "SINGLE",
			HousingStatus:    "RENT",
			DateOfBirth:      &dob,
			EmploymentStatus: "FULL_TIME",
			MonthlyIncome:    decimal.RequireFromString("4200.00"),
			Completed:        true,
		}))
	}
	if withBank {
		require.NoError(t, f.repos.BankDetails.Save(ctx, &models.BankDetail{
			UserID:        user.ID,
			BankName:      "First Bank",
			AccountName:   "Jane Borrower",
			AccountNumber: "000123456789",
		}))
	}

	return &domain.Principal{UserID: user.ID, Email: user.Email, FullName: user.FullName, Role: domain.RoleUser}
}

// staff creates a staff account and returns its principal
func (f *fixture) staff(t *testing.T) *domain.Principal {
	t.Helper()
	user, _, err := f.auth.EnsureStaffUser(context.Background(), StaffInput{
		FullName: "Sam Staff",
		Email:    "staff@example.com",
		Phone:    "+1 (555) 000-1111",
		Password: "staff-password",
	})
	require.NoError(t, err)
	return &domain.Principal{UserID: user.ID, Email: user.Email, Role: domain.RoleAdmin, Staff: true}
}

// loan inserts a loan for p directly in the given state
func (f *fixture) loan(t *testing.T, p *domain.Principal, status domain.LoanStatus, requested, approved string) *models.Loan {
	t.Helper()
	loan := &models.Loan{
		UserID:          p.UserID,
		RequestedAmount: decimal.RequireFromString(requested),
		TermMonths:      6,
		Status:          string(status),
		Purpose:         "Car repair",
		MonthlyIncome:   decimal.RequireFromString("4200.00"),
	}
	if approved != "" {
		loan.ApprovedAmount = decimal.NewNullDecimal(decimal.RequireFromString(approved))
	}
	require.NoError(t, f.repos.Loans.Create(context.Background(), loan))
	return loan
}

// withdrawal inserts a withdrawal request directly in the given state
func (f *fixture) withdrawal(t *testing.T, loan *models.Loan, status domain.WithdrawalStatus, amount string) *models.WithdrawalRequest {
	t.Helper()
	w := &models.WithdrawalRequest{
		UserID: loan.UserID,
		LoanID: loan.ID,
		Amount: decimal.RequireFromString(amount),
		Status: string(status),
	}
	require.NoError(t, f.repos.Withdrawals.Create(context.Background(), w))
	return w
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}
