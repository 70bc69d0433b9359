package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"loanportal/internal/adapters/persistence/models"
	"loanportal/internal/adapters/persistence/repositories"
	"loanportal/internal/core/domain"
	"loanportal/internal/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Onboarding steps, in the order they must be completed
const (
	StepProfile    = "profile"
	StepBankDetail = "bank_detail"
)

const minApplicantAge = 18

// OnboardingService handles the profile and bank detail steps
type OnboardingService struct {
	users    repositories.UserRepository
	profiles repositories.ProfileRepository
	banks    repositories.BankDetailRepository
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewOnboardingService creates a new onboarding service
func NewOnboardingService(
	users repositories.UserRepository,
	profiles repositories.ProfileRepository,
	banks repositories.BankDetailRepository,
	log logrus.FieldLogger,
) *OnboardingService {
	return &OnboardingService{
		users:    users,
		profiles: profiles,
		banks:    banks,
		log:      log,
		now:      time.Now,
	}
}

// ProfileInput represents the profile completion form
type ProfileInput struct {
	StreetAddress    string `json:"street_address" form:"street_address" validate:"required,max=255"`
	City             string `json:"city" form:"city" validate:"required,max=100"`
	State            string `json:"state" form:"state" validate:"required,max=100"`
	PostalCode       string `json:"postal_code" form:"postal_code" validate:"required,max=20"`
	Nationality      string `json:"nationality" form:"nationality" validate:"required,max=100"`
	MaritalStatus    string `json:"marital_status" form:"marital_status" validate:"required,oneof=SINGLE MARRIED PARTNERED DIVORCED WIDOWED"`
	HousingStatus    string `json:"housing_status" form:"housing_status" validate:"required,oneof=OWN RENT FAMILY MILITARY OTHER"`
	DateOfBirth      string `json:"dob" form:"dob" validate:"required"`
	EmploymentStatus string `json:"employment_status" form:"employment_status" validate:"required,oneof=FULL_TIME PART_TIME SELF_EMPLOYED CONTRACTOR UNEMPLOYED RETIRED STUDENT"`
	MonthlyIncome    string `json:"monthly_income" form:"monthly_income" validate:"required"`
}

// BankDetailInput represents the bank detail form
type BankDetailInput struct {
	BankName      string `json:"bank_name" form:"bank_name" validate:"required,max=100"`
	AccountName   string `json:"account_name" form:"account_name" validate:"required,max=100"`
	AccountNumber string `json:"account_number" form:"account_number" validate:"required,max=64"`
}

// OnboardingStatus reports which steps an account has completed
type OnboardingStatus struct {
	ProfileCompleted bool   `json:"profile_completed"`
	HasBankDetail    bool   `json:"has_bank_detail"`
	NextStep         string `json:"next_step,omitempty"`
}

// Status loads the account with its optional relations and reports the
// first unmet onboarding step
func (s *OnboardingService) Status(ctx context.Context, userID uint) (*OnboardingStatus, error) {
	user, err := s.users.GetWithOnboarding(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	status := &OnboardingStatus{
		ProfileCompleted: user.Profile != nil && user.Profile.Completed,
		HasBankDetail:    user.BankDetail != nil,
	}
	switch {
	case !status.ProfileCompleted:
		status.NextStep = StepProfile
	case !status.HasBankDetail:
		status.NextStep = StepBankDetail
	}
	return status, nil
}

// RequireOnboarded returns ErrProfileIncomplete or ErrBankDetailMissing for
// the first unmet step
func (s *OnboardingService) RequireOnboarded(ctx context.Context, userID uint) error {
	status, err := s.Status(ctx, userID)
	if err != nil {
		return err
	}
	switch status.NextStep {
	case StepProfile:
		return domain.ErrProfileIncomplete
	case StepBankDetail:
		return domain.ErrBankDetailMissing
	}
	return nil
}

// GetProfile returns the principal's profile, or nil when none exists
func (s *OnboardingService) GetProfile(ctx context.Context, principal *domain.Principal) (*models.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, principal.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	return profile, err
}

// CompleteProfile validates every field and upserts the profile with
// completed=true. Nothing is written when any field fails.
func (s *OnboardingService) CompleteProfile(ctx context.Context, principal *domain.Principal, input *ProfileInput) (*models.Profile, error) {
	input.StreetAddress = strings.TrimSpace(input.StreetAddress)
	input.City = strings.TrimSpace(input.City)
	input.State = strings.TrimSpace(input.State)
	input.PostalCode = strings.TrimSpace(input.PostalCode)
	input.Nationality = strings.TrimSpace(input.Nationality)
	input.MaritalStatus = strings.ToUpper(strings.TrimSpace(input.MaritalStatus))
	input.HousingStatus = strings.ToUpper(strings.TrimSpace(input.HousingStatus))
	input.EmploymentStatus = strings.ToUpper(strings.TrimSpace(input.EmploymentStatus))
	input.DateOfBirth = strings.TrimSpace(input.DateOfBirth)

	verr := domain.NewValidationError()
	verr.Merge(validation.Struct(input))

	var dob time.Time
	if _, bad := verr.Fields["dob"]; !bad {
		parsed, err := time.Parse("2006-01-02", input.DateOfBirth)
		switch {
		case err != nil:
			verr.Add("dob", "Enter a valid date.")
		case ageOn(parsed, s.now()) < minApplicantAge:
			verr.Add("dob", "You must be at least 18 years old to apply.")
		default:
			dob = parsed
		}
	}

	income, ok := parseAmount(verr, "monthly_income", input.MonthlyIncome)
	if ok && income.IsNegative() {
		verr.Add("monthly_income", "Ensure this value is greater than or equal to 0.")
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByUserID(ctx, principal.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		profile, err = &models.Profile{UserID: principal.UserID}, nil
	}
	if err != nil {
		return nil, err
	}

	profile.StreetAddress = input.StreetAddress
	profile.City = input.City
	profile.State = input.State
	profile.PostalCode = input.PostalCode
	profile.Nationality = input.Nationality
	profile.MaritalStatus = input.MaritalStatus
	profile.HousingStatus = input.HousingStatus
	profile.DateOfBirth = &dob
	profile.EmploymentStatus = input.EmploymentStatus
	profile.MonthlyIncome = income
	profile.Completed = true

	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, err
	}

	s.log.WithField("user_id", principal.UserID).Info("📝 Profile completed")
	return profile, nil
}

// GetBankDetail returns the principal's bank detail, or nil when none exists
func (s *OnboardingService) GetBankDetail(ctx context.Context, principal *domain.Principal) (*models.BankDetail, error) {
	detail, err := s.banks.GetByUserID(ctx, principal.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	return detail, err
}

// SaveBankDetail creates or replaces the single bank detail of the account
func (s *OnboardingService) SaveBankDetail(ctx context.Context, principal *domain.Principal, input *BankDetailInput) (*models.BankDetail, error) {
	input.BankName = strings.TrimSpace(input.BankName)
	input.AccountName = strings.TrimSpace(input.AccountName)
	input.AccountNumber = strings.TrimSpace(input.AccountNumber)

	if fields := validation.Struct(input); fields != nil {
		verr := domain.NewValidationError()
		verr.Merge(fields)
		return nil, verr
	}

	detail, err := s.banks.GetByUserID(ctx, principal.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		detail, err = &models.BankDetail{UserID: principal.UserID}, nil
	}
	if err != nil {
		return nil, err
	}

	detail.BankName = input.BankName
	detail.AccountName = input.AccountName
	detail.AccountNumber = input.AccountNumber

	if err := s.banks.Save(ctx, detail); err != nil {
		return nil, err
	}

	s.log.WithField("user_id", principal.UserID).Info("🏦 Bank detail saved")
	return detail, nil
}

// ageOn returns the age in whole years at the given date
func ageOn(dob, on time.Time) int {
	years := on.Year() - dob.Year()
	if on.Month() < dob.Month() || (on.Month() == dob.Month() && on.Day() < dob.Day()) {
		years--
	}
	return years
}
