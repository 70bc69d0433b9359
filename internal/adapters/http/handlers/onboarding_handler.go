package handlers

import (
	"loanportal/internal/core/services"
	"loanportal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// OnboardingHandler handles the profile and bank detail steps
type OnboardingHandler struct {
	onboardingService *services.OnboardingService
	log               logrus.FieldLogger
}

// NewOnboardingHandler creates a new onboarding handler
func NewOnboardingHandler(onboardingService *services.OnboardingService, log logrus.FieldLogger) *OnboardingHandler {
	return &OnboardingHandler{onboardingService: onboardingService, log: log}
}

// ProfileRequest represents the profile form
type ProfileRequest struct {
	StreetAddress    string `json:"street_address" form:"street_address"`
	City             string `json:"city" form:"city"`
	State            string `json:"state" form:"state"`
	PostalCode       string `json:"postal_code" form:"postal_code"`
	Nationality      string `json:"nationality" form:"nationality"`
	MaritalStatus    string `json:"marital_status" form:"marital_status"`
	HousingStatus    string `json:"housing_status" form:"housing_status"`
	DateOfBirth      string `json:"dob" form:"dob"`
	EmploymentStatus string `json:"employment_status" form:"employment_status"`
	MonthlyIncome    Amount `json:"monthly_income" form:"monthly_income"`
}

// GetProfile returns the current profile
// @Summary Get profile
// @Tags Onboarding
// @Produce json
// @Success 200 {object} response.Response
// @Router /profile/complete/ [get]
func (h *OnboardingHandler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.onboardingService.GetProfile(c.UserContext(), principal(c))
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, "", fiber.Map{"profile": profile})
}

// CompleteProfile validates and saves the profile
// @Summary Complete profile
// @Tags Onboarding
// @Accept json
// @Produce json
// @Param body body ProfileRequest true "Profile"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /profile/complete/ [post]
func (h *OnboardingHandler) CompleteProfile(c *fiber.Ctx) error {
	var req ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	profile, err := h.onboardingService.CompleteProfile(c.UserContext(), principal(c), &services.ProfileInput{
		StreetAddress:    req.StreetAddress,
		City:             req.City,
		State:            req.State,
		PostalCode:       req.PostalCode,
		Nationality:      req.Nationality,
		MaritalStatus:    req.MaritalStatus,
		HousingStatus:    req.HousingStatus,
		DateOfBirth:      req.DateOfBirth,
		EmploymentStatus: req.EmploymentStatus,
		MonthlyIncome:    string(req.MonthlyIncome),
	})
	if err != nil {
		return handleError(c, h.log, err)
	}

	return response.Success(c, "Profile saved", fiber.Map{
		"profile":   profile,
		"next_step": services.StepBankDetail,
	})
}

// GetBankDetail returns the current bank detail with the account number masked
// @Summary Get bank detail
// @Tags Onboarding
// @Produce json
// @Success 200 {object} response.Response
// @Router /bank-detail/ [get]
func (h *OnboardingHandler) GetBankDetail(c *fiber.Ctx) error {
	detail, err := h.onboardingService.GetBankDetail(c.UserContext(), principal(c))
	if err != nil {
		return handleError(c, h.log, err)
	}
	if detail == nil {
		return response.Success(c, "", fiber.Map{"bank_detail": nil})
	}
	return response.Success(c, "", fiber.Map{"bank_detail": detail.ToResponse()})
}

// SaveBankDetail creates or replaces the bank detail
// @Summary Save bank detail
// @Tags Onboarding
// @Accept json
// @Produce json
// @Param body body services.BankDetailInput true "Bank detail"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /bank-detail/ [post]
func (h *OnboardingHandler) SaveBankDetail(c *fiber.Ctx) error {
	var req services.BankDetailInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	detail, err := h.onboardingService.SaveBankDetail(c.UserContext(), principal(c), &req)
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, "Bank details saved", fiber.Map{"bank_detail": detail.ToResponse()})
}
