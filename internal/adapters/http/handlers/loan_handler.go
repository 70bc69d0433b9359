package handlers

import (
	"loanportal/internal/core/services"
	"loanportal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// LoanHandler handles borrower loan endpoints
type LoanHandler struct {
	loanService *services.LoanService
	log         logrus.FieldLogger
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService, log logrus.FieldLogger) *LoanHandler {
	return &LoanHandler{loanService: loanService, log: log}
}

// LoanApplicationRequest represents the loan application form
type LoanApplicationRequest struct {
	RequestedAmount Amount `json:"requested_amount" form:"requested_amount"`
	Purpose         string `json:"loan_purpose" form:"loan_purpose"`
	TermMonths      int    `json:"term_months" form:"term_months"`
	MonthlyIncome   Amount `json:"monthly_income" form:"monthly_income"`
	Note            string `json:"note" form:"note"`
}

// WithdrawalRequest represents the withdrawal form
type WithdrawalRequest struct {
	Amount Amount `json:"amount" form:"amount"`
	Note   string `json:"note" form:"note"`
}

// ApplyForm reports whether a new application is accepted
// @Summary Loan eligibility
// @Tags Loans
// @Produce json
// @Success 200 {object} response.Response
// @Failure 302 {object} response.Response
// @Router /loan/apply/ [get]
func (h *LoanHandler) ApplyForm(c *fiber.Ctx) error {
	eligibility, err := h.loanService.Eligibility(c.UserContext(), principal(c))
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, "", eligibility)
}

// Apply submits a loan application
// @Summary Apply for a loan
// @Tags Loans
// @Accept json
// @Produce json
// @Param body body LoanApplicationRequest true "Application"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loan/apply/ [post]
func (h *LoanHandler) Apply(c *fiber.Ctx) error {
	var req LoanApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.loanService.Apply(c.UserContext(), principal(c), &services.LoanApplicationInput{
		RequestedAmount: string(req.RequestedAmount),
		Purpose:         req.Purpose,
		TermMonths:      req.TermMonths,
		MonthlyIncome:   string(req.MonthlyIncome),
		Note:            req.Note,
	})
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Created(c, "Your loan application has been submitted.", loan)
}

// Dashboard returns the current loan, balance and withdrawal history
// @Summary Loan dashboard
// @Tags Loans
// @Produce json
// @Success 200 {object} response.Response
// @Router /loan/dashboard/ [get]
func (h *LoanHandler) Dashboard(c *fiber.Ctx) error {
	dash, err := h.loanService.Dashboard(c.UserContext(), principal(c))
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, "", dash)
}

// WithdrawalForm returns the loan and balance a withdrawal draws on
// @Summary Withdrawal form
// @Tags Withdrawals
// @Produce json
// @Success 200 {object} response.Response
// @Failure 302 {object} response.Response
// @Router /withdrawal/request/ [get]
func (h *LoanHandler) WithdrawalForm(c *fiber.Ctx) error {
	wc, err := h.loanService.WithdrawalContext(c.UserContext(), principal(c))
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, "", wc)
}

// RequestWithdrawal submits a withdrawal request
// @Summary Request withdrawal
// @Tags Withdrawals
// @Accept json
// @Produce json
// @Param body body WithdrawalRequest true "Withdrawal"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /withdrawal/request/ [post]
func (h *LoanHandler) RequestWithdrawal(c *fiber.Ctx) error {
	var req WithdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	w, err := h.loanService.RequestWithdrawal(c.UserContext(), principal(c), &services.WithdrawalInput{
		Amount: string(req.Amount),
		Note:   req.Note,
	})
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Created(c, "Your withdrawal request has been submitted.", w)
}

// SignAgreement signs the loan agreement
// @Summary Sign loan agreement
// @Tags Loans
// @Accept json
// @Produce json
// @Param id path int true "Loan ID"
// @Param body body services.AgreementInput true "Signature"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loan/{id}/agreement/ [post]
func (h *LoanHandler) SignAgreement(c *fiber.Ctx) error {
	loanID, ok := paramID(c, "id")
	if !ok {
		return response.NotFound(c, "Loan not found")
	}

	var req services.AgreementInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	agreement, err := h.loanService.SignAgreement(c.UserContext(), principal(c), loanID, &req, clientMeta(c))
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Created(c, "Agreement signed", agreement)
}

// ViewAgreement returns a signed agreement
// @Summary View loan agreement
// @Tags Loans
// @Produce json
// @Param id path int true "Agreement ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loan/agreement/{id}/view/ [get]
func (h *LoanHandler) ViewAgreement(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.NotFound(c, "Agreement not found")
	}

	agreement, err := h.loanService.GetAgreement(c.UserContext(), principal(c), id)
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, "", agreement)
}
