package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"loanportal/internal/adapters/persistence/models"
	"loanportal/internal/adapters/persistence/repositories"
	"loanportal/internal/config"
	"loanportal/internal/core/domain"
	"loanportal/internal/pkg/jwt"
	"loanportal/internal/pkg/password"
	"loanportal/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Field messages shown on the registration form
const (
	msgEmailTaken       = "An account with this email already exists."
	msgPhoneTaken       = "An account with this phone number already exists."
	msgPhoneInvalid     = "Enter a valid mobile number."
	msgPasswordMismatch = "Passwords do not match."
	msgPasswordTooShort = "Ensure this value has at least 8 characters."
)

// VerificationSender delivers the account activation link
type VerificationSender interface {
	SendVerificationEmail(ctx context.Context, user *models.User, link string) error
}

// AuthService handles registration, verification, login and sessions
type AuthService struct {
	users    repositories.UserRepository
	sessions repositories.SessionRepository
	mailer   VerificationSender
	cfg      *config.Config
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	users repositories.UserRepository,
	sessions repositories.SessionRepository,
	mailer VerificationSender,
	cfg *config.Config,
	log logrus.FieldLogger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		mailer:   mailer,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	FullName        string `json:"full_name" form:"full_name" validate:"required,max=255"`
	Email           string `json:"email" form:"email" validate:"required,email,max=254"`
	Phone           string `json:"phone" form:"phone" validate:"required,max=32"`
	Password        string `json:"password" form:"password" validate:"required,max=128"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required"`
}

// RegisterResult is returned after a successful registration
type RegisterResult struct {
	User             *models.UserResponse `json:"user"`
	VerificationSent bool                 `json:"verification_email_sent"`
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// ClientMeta describes where a request came from
type ClientMeta struct {
	IP        string
	UserAgent string
}

// LoginResult carries the opaque session token handed to the client
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// StaffInput describes a staff account created outside the public flow
type StaffInput struct {
	FullName string
	Email    string
	Phone    string
	Password string
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone keeps the digits of a phone number and prefixes "+". It
// reports false when fewer than 10 digits remain.
func NormalizePhone(phone string) (string, bool) {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 10 {
		return "", false
	}
	return "+" + digits, true
}

// Register creates an inactive, unverified account and emails the
// verification link. A delivery failure does not undo the account.
func (s *AuthService) Register(ctx context.Context, input *RegisterInput, baseURL string) (*RegisterResult, error) {
	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = NormalizeEmail(input.Email)

	verr := domain.NewValidationError()
	verr.Merge(validation.Struct(input))

	phone, ok := NormalizePhone(input.Phone)
	if !ok {
		verr.Add("phone", msgPhoneInvalid)
	}
	if input.Password != "" && !password.ValidatePassword(input.Password) {
		verr.Add("password", msgPasswordTooShort)
	}
	if input.ConfirmPassword != "" && input.Password != input.ConfirmPassword {
		verr.Add("confirm_password", msgPasswordMismatch)
	}

	if _, bad := verr.Fields["email"]; !bad {
		exists, err := s.users.ExistsByEmail(ctx, input.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			verr.Add("email", msgEmailTaken)
		}
	}
	if _, bad := verr.Fields["phone"]; !bad {
		exists, err := s.users.ExistsByPhone(ctx, phone)
		if err != nil {
			return nil, err
		}
		if exists {
			verr.Add("phone", msgPhoneTaken)
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FullName: input.FullName,
		Email:    input.Email,
		Phone:    phone,
		Password: hashedPassword,
		Role:     string(domain.RoleUser),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.FieldError("email", msgEmailTaken)
		}
		return nil, err
	}

	entry := s.log.WithField("user_id", user.ID)
	entry.Info("👤 Account registered")

	sent := true
	link, err := s.VerificationLink(user, baseURL)
	if err == nil {
		err = s.mailer.SendVerificationEmail(ctx, user, link)
	}
	if err != nil {
		entry.WithError(err).Warn("⚠️ Verification email not sent")
		sent = false
	}

	return &RegisterResult{User: user.ToResponse(), VerificationSent: sent}, nil
}

// VerificationLink builds /verify-email/<uid>/<token>/ for the account
func (s *AuthService) VerificationLink(user *models.User, baseURL string) (string, error) {
	token, err := jwt.GenerateVerificationToken(user.ID, fingerprint(user), s.cfg.SecretKey, s.cfg.VerifyTokenTTL)
	if err != nil {
		return "", err
	}
	uid := base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(user.ID), 10)))
	return strings.TrimRight(baseURL, "/") + "/verify-email/" + uid + "/" + token + "/", nil
}

// VerifyEmail activates the account named by uid when token is valid for it.
// Every failure is reported as ErrInvalidVerificationLink. Verifying an
// already verified account succeeds without changes.
func (s *AuthService) VerifyEmail(ctx context.Context, uidb64, token string) (*models.User, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(uidb64, "="))
	if err != nil {
		return nil, domain.ErrInvalidVerificationLink
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidVerificationLink
	}

	claims, err := jwt.ValidateVerificationToken(token, s.cfg.SecretKey)
	if err != nil || uint64(claims.UserID) != id {
		return nil, domain.ErrInvalidVerificationLink
	}

	user, err := s.users.GetByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, domain.ErrInvalidVerificationLink
		}
		return nil, err
	}
	if claims.Fingerprint != fingerprint(user) {
		return nil, domain.ErrInvalidVerificationLink
	}

	if user.EmailVerified {
		return user, nil
	}

	now := s.now()
	if err := s.users.MarkEmailVerified(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.EmailVerified = true
	user.EmailVerifiedAt = &now
	user.IsActive = true

	s.log.WithField("user_id", user.ID).Info("✅ Email verified")
	return user, nil
}

// Login checks credentials and opens a server-side session
func (s *AuthService) Login(ctx context.Context, input *LoginInput, meta ClientMeta) (*LoginResult, error) {
	input.Email = NormalizeEmail(input.Email)
	if fields := validation.Struct(input); fields != nil {
		verr := domain.NewValidationError()
		verr.Merge(fields)
		return nil, verr
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	if !password.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return nil, domain.ErrEmailNotVerified
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	token := uuid.NewString()
	now := s.now()
	session := &models.Session{
		UserID:    user.ID,
		TokenHash: password.HashToken(token),
		IPAddress: meta.IP,
		UserAgent: truncate(meta.UserAgent, 255),
		ExpiresAt: now.Add(s.cfg.Session.TTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("⚠️ Failed to stamp last login")
	}
	user.LastLoginAt = &now

	s.log.WithField("user_id", user.ID).Info("🔑 Login successful")
	return &LoginResult{Token: token, ExpiresAt: session.ExpiresAt, User: user}, nil
}

// Authenticate resolves a session token to the principal that owns it
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, domain.ErrSessionInvalid
	}

	session, err := s.sessions.GetByTokenHash(ctx, password.HashToken(token))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, domain.ErrSessionInvalid
		}
		return nil, err
	}
	if s.now().After(session.ExpiresAt) {
		return nil, domain.ErrSessionInvalid
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, domain.ErrSessionInvalid
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrSessionInvalid
	}

	return &domain.Principal{
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      domain.Role(user.Role),
		Staff:     user.IsStaff,
		SessionID: session.ID,
	}, nil
}

// Logout revokes one session
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.RevokeByTokenHash(ctx, password.HashToken(token))
}

// LogoutAll revokes every session of the principal
func (s *AuthService) LogoutAll(ctx context.Context, principal *domain.Principal) error {
	return s.sessions.RevokeAllByUserID(ctx, principal.UserID)
}

// GetUser returns the principal's account with onboarding relations loaded
func (s *AuthService) GetUser(ctx context.Context, principal *domain.Principal) (*models.User, error) {
	user, err := s.users.GetWithOnboarding(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// EnsureStaffUser creates a verified, active staff account unless the email
// is already registered. It reports whether an account was created.
func (s *AuthService) EnsureStaffUser(ctx context.Context, input StaffInput) (*models.User, bool, error) {
	email := NormalizeEmail(input.Email)

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, err
	}

	verr := domain.NewValidationError()
	phone, ok := NormalizePhone(input.Phone)
	if !ok {
		verr.Add("phone", msgPhoneInvalid)
	}
	if !password.ValidatePassword(input.Password) {
		verr.Add("password", msgPasswordTooShort)
	}
	if strings.TrimSpace(input.FullName) == "" {
		verr.Add("full_name", "This field is required.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, false, err
	}

	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, false, err
	}

	now := s.now()
	user := &models.User{
		FullName:        strings.TrimSpace(input.FullName),
		Email:           email,
		Phone:           phone,
		Password:        hashedPassword,
		Role:            string(domain.RoleAdmin),
		IsActive:        true,
		IsStaff:         true,
		EmailVerified:   true,
		EmailVerifiedAt: &now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, err
	}

	s.log.WithField("user_id", user.ID).Info("🛡️ Staff account created")
	return user, true, nil
}

// CreateStaffAccount seeds the staff account from SEED_ADMIN_* settings
func (s *AuthService) CreateStaffAccount(ctx context.Context, seed config.SeedConfig) (bool, error) {
	_, created, err := s.EnsureStaffUser(ctx, StaffInput{
		FullName: seed.AdminName,
		Email:    seed.AdminEmail,
		Phone:    seed.AdminPhone,
		Password: seed.AdminPassword,
	})
	return created, err
}

// fingerprint binds a verification token to the current email and password
// hash; changing either invalidates outstanding links.
func fingerprint(user *models.User) string {
	return password.HashToken(user.Email + ":" + user.Password)[:32]
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
