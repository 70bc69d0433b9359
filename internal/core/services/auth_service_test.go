package services

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"loanportal/internal/core/domain"
	"loanportal/internal/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://loans.example.com"

func validRegistration() *RegisterInput {
	return &RegisterInput{
		FullName:        "  Ada Lovelace ",
		Email:           " Ada@Example.COM ",
		Phone:           "(555) 123-4567 89",
		Password:        "correct-horse",
		ConfirmPassword: "correct-horse",
	}
}

// splitLink returns the uid and token of a /verify-email/<uid>/<token>/ link
func splitLink(t *testing.T, link string) (string, string) {
	t.Helper()
	rest := strings.TrimPrefix(link, testBaseURL+"/verify-email/")
	parts := strings.Split(strings.TrimSuffix(rest, "/"), "/")
	require.Len(t, parts, 2, link)
	return parts[0], parts[1]
}

func TestRegister_CreatesInactiveAccountAndSendsVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.auth.Register(ctx, validRegistration(), testBaseURL)
	require.NoError(t, err)
	assert.True(t, result.VerificationSent)
	assert.Equal(t, "ada@example.com", result.User.Email)
	assert.Equal(t, "+555123456789", result.User.Phone)
	assert.Equal(t, "Ada Lovelace", result.User.FullName)
	assert.False(t, result.User.IsActive)
	assert.False(t, result.User.EmailVerified)

	sent := f.mailer.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"ada@example.com"}, sent[0].To)
	assert.Equal(t, "Verify your email for 3rd Gen Loan", sent[0].Subject)
	assert.Contains(t, sent[0].Text, testBaseURL+"/verify-email/")
	assert.Contains(t, sent[0].HTML, testBaseURL+"/verify-email/")
}

func TestRegister_FieldErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *RegisterInput)
		field   string
		message string
	}{
		{"duplicate email", func(in *RegisterInput) { in.Phone = "555 999 8888 77" }, "email", msgEmailTaken},
		{"duplicate phone", func(in *RegisterInput) { in.Email = "other@example.com" }, "phone", msgPhoneTaken},
		{"short phone", func(in *RegisterInput) { in.Email = "x@example.com"; in.Phone = "12345" }, "phone", msgPhoneInvalid},
		{"password mismatch", func(in *RegisterInput) { in.Email = "y@example.com"; in.ConfirmPassword = "nope-nope" }, "confirm_password", msgPasswordMismatch},
		{"short password", func(in *RegisterInput) {
			in.Email = "z@example.com"
			in.Password, in.ConfirmPassword = "short", "short"
		}, "password", msgPasswordTooShort},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, "email", "Enter a valid email address."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			_, err := f.auth.Register(ctx, validRegistration(), testBaseURL)
			require.NoError(t, err)

			in := validRegistration()
			tt.mutate(in)
			_, err = f.auth.Register(ctx, in, testBaseURL)
			require.Error(t, err)
			assert.Equal(t, tt.message, fieldErrors(t, err)[tt.field])
		})
	}
}

func TestRegister_DeliveryFailureKeepsAccount(t *testing.T) {
	f := newFixture(t)
	f.cfg.AppMode = "prod"
	f.mailer.err = errSMTPDown
	ctx := context.Background()

	result, err := f.auth.Register(ctx, validRegistration(), testBaseURL)
	require.NoError(t, err)
	assert.False(t, result.VerificationSent)

	exists, err := f.repos.Users.ExistsByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Empty(t, f.fallback.messages())
}

func TestRegister_DevFallsBackToConsole(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errSMTPDown

	result, err := f.auth.Register(context.Background(), validRegistration(), testBaseURL)
	require.NoError(t, err)
	assert.True(t, result.VerificationSent)
	assert.Len(t, f.fallback.messages(), 1)
}

func TestVerifyEmail_ActivatesAccountOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, validRegistration(), testBaseURL)
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, &LoginInput{Email: "ada@example.com", Password: "correct-horse"}, ClientMeta{})
	assert.ErrorIs(t, err, domain.ErrEmailNotVerified)

	user, err := f.repos.Users.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	link, err := f.auth.VerificationLink(user, testBaseURL)
	require.NoError(t, err)
	uid, token := splitLink(t, link)

	verified, err := f.auth.VerifyEmail(ctx, uid, token)
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)
	assert.True(t, verified.IsActive)
	require.NotNil(t, verified.EmailVerifiedAt)

	again, err := f.auth.VerifyEmail(ctx, uid, token)
	require.NoError(t, err)
	assert.Equal(t, verified.EmailVerifiedAt.Unix(), again.EmailVerifiedAt.Unix())

	result, err := f.auth.Login(ctx, &LoginInput{Email: "ADA@example.com", Password: "correct-horse"}, ClientMeta{IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestVerifyEmail_RejectsBadLinks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, validRegistration(), testBaseURL)
	require.NoError(t, err)
	other := validRegistration()
	other.Email, other.Phone = "grace@example.com", "555 222 3333 44"
	_, err = f.auth.Register(ctx, other, testBaseURL)
	require.NoError(t, err)

	ada, err := f.repos.Users.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	grace, err := f.repos.Users.GetByEmail(ctx, "grace@example.com")
	require.NoError(t, err)

	adaLink, err := f.auth.VerificationLink(ada, testBaseURL)
	require.NoError(t, err)
	graceLink, err := f.auth.VerificationLink(grace, testBaseURL)
	require.NoError(t, err)
	adaUID, adaToken := splitLink(t, adaLink)
	graceUID, _ := splitLink(t, graceLink)

	tests := []struct {
		name       string
		uid, token string
	}{
		{"tampered token", adaUID, adaToken + "x"},
		{"token for another account", graceUID, adaToken},
		{"garbage uid", "!!!", adaToken},
		{"empty token", adaUID, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.VerifyEmail(ctx, tt.uid, tt.token)
			assert.ErrorIs(t, err, domain.ErrInvalidVerificationLink)
		})
	}

	t.Run("password change invalidates link", func(t *testing.T) {
		ada.Password = "$2a$04$changedchangedchangedchangedchangedchangedchangedcha"
		require.NoError(t, f.repos.Users.Update(ctx, ada))
		_, err := f.auth.VerifyEmail(ctx, adaUID, adaToken)
		assert.ErrorIs(t, err, domain.ErrInvalidVerificationLink)
	})
}

func TestLogin_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.borrower(t, "jane@example.com", false, false)

	_, err := f.auth.Login(ctx, &LoginInput{Email: "nobody@example.com", Password: "whatever"}, ClientMeta{})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = f.auth.Login(ctx, &LoginInput{Email: "jane@example.com", Password: "wrong-pass"}, ClientMeta{})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, &LoginInput{Email: "", Password: ""}, ClientMeta{})
	assert.Contains(t, fieldErrors(t, err), "email")
}

func TestSessions_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.borrower(t, "jane@example.com", false, false)

	first, err := f.auth.Login(ctx, &LoginInput{Email: "jane@example.com", Password: "s3cret-pass"}, ClientMeta{})
	require.NoError(t, err)
	second, err := f.auth.Login(ctx, &LoginInput{Email: "jane@example.com", Password: "s3cret-pass"}, ClientMeta{})
	require.NoError(t, err)

	principal, err := f.auth.Authenticate(ctx, first.Token)
	require.NoError(t, err)
	assert.Equal(t, p.UserID, principal.UserID)
	assert.False(t, principal.IsStaff())

	require.NoError(t, f.auth.Logout(ctx, first.Token))
	_, err = f.auth.Authenticate(ctx, first.Token)
	assert.ErrorIs(t, err, domain.ErrSessionInvalid)

	_, err = f.auth.Authenticate(ctx, second.Token)
	require.NoError(t, err)

	f.auth.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	_, err = f.auth.Authenticate(ctx, second.Token)
	assert.ErrorIs(t, err, domain.ErrSessionInvalid)
	f.auth.now = time.Now

	require.NoError(t, f.auth.LogoutAll(ctx, principal))
	_, err = f.auth.Authenticate(ctx, second.Token)
	assert.ErrorIs(t, err, domain.ErrSessionInvalid)

	_, err = f.auth.Authenticate(ctx, "")
	assert.ErrorIs(t, err, domain.ErrSessionInvalid)
}

func TestLogin_StoresUserAgentOnRuneBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.borrower(t, "jane@example.com", false, false)

	agent := "Mozilla/5.0 " + strings.Repeat("é", 200)
	res, err := f.auth.Login(ctx, &LoginInput{Email: "jane@example.com", Password: "s3cret-pass"}, ClientMeta{UserAgent: agent})
	require.NoError(t, err)

	session, err := f.repos.Sessions.GetByTokenHash(ctx, password.HashToken(res.Token))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(session.UserAgent), 255)
	assert.True(t, utf8.ValidString(session.UserAgent))
	assert.True(t, strings.HasPrefix(agent, session.UserAgent))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc"},
		{"aé", 2, "a"},
		{"日本語", 4, "日"},
		{"日本語", 6, "日本"},
		{"é", 1, ""},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		assert.Equal(t, tt.want, got, "%q/%d", tt.in, tt.n)
		assert.True(t, utf8.ValidString(got))
	}
}

func TestEnsureStaffUser_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	input := StaffInput{FullName: "Root", Email: "Root@Example.com", Phone: "555-000-9999", Password: "long-enough"}

	user, created, err := f.auth.EnsureStaffUser(ctx, input)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, user.IsStaff)
	assert.True(t, user.IsActive)
	assert.True(t, user.EmailVerified)
	assert.Equal(t, string(domain.RoleAdmin), user.Role)

	again, created, err := f.auth.EnsureStaffUser(ctx, input)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)

	_, _, err = f.auth.EnsureStaffUser(ctx, StaffInput{Email: "bad@example.com", Phone: "1", Password: "x"})
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "phone")
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "full_name")
}
