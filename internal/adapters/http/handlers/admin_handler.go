package handlers

import (
	"context"
	"strconv"
	"strings"

	"loanportal/internal/adapters/persistence/repositories"
	"loanportal/internal/core/domain"
	"loanportal/internal/core/services"
	"loanportal/internal/pkg/pagination"
	"loanportal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// AdminHandler handles staff endpoints
type AdminHandler struct {
	adminService *services.AdminService
	log          logrus.FieldLogger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *services.AdminService, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{adminService: adminService, log: log}
}

// ApproveLoansRequest carries the ids to approve and optional per-id amounts
type ApproveLoansRequest struct {
	IDs     []uint            `json:"ids"`
	Amounts map[string]Amount `json:"amounts"`
}

type bulkAction func(ctx context.Context, principal *domain.Principal, ids []uint) (*services.BulkResult, error)

// ListLoans lists loans
// @Summary List loans
// @Tags Admin
// @Produce json
// @Param status query string false "Status filter"
// @Param user_id query int false "Account filter"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} pagination.Response
// @Router /admin/loans/ [get]
func (h *AdminHandler) ListLoans(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	filter := repositories.LoanFilter{
		UserID: queryUint(c, "user_id"),
		Status: strings.ToUpper(c.Query("status")),
	}

	loans, total, err := h.adminService.ListLoans(c.UserContext(), principal(c), filter, params)
	if err != nil {
		return handleError(c, h.log, err)
	}
	return c.JSON(pagination.NewResponse(loans, params, total))
}

// ApproveLoans approves PENDING loans
// @Summary Approve loans
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body ApproveLoansRequest true "Loan ids and optional amounts"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/loans/approve/ [post]
func (h *AdminHandler) ApproveLoans(c *fiber.Ctx) error {
	var req ApproveLoansRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	amounts := make(map[uint]decimal.Decimal, len(req.Amounts))
	fields := map[string]string{}
	for key, raw := range req.Amounts {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			fields["amounts."+key] = "Enter a valid loan id."
			continue
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(string(raw)))
		if err != nil {
			fields["amounts."+key] = "Enter a number."
			continue
		}
		amounts[uint(id)] = amount
	}
	if len(fields) > 0 {
		return response.ValidationFailed(c, "Please correct the errors below.", fields)
	}

	result, err := h.adminService.ApproveLoans(c.UserContext(), principal(c), req.IDs, amounts)
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, "Loans approved", result)
}

// RejectLoans rejects PENDING loans
// @Summary Reject loans
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body IDsRequest true "Loan ids"
// @Success 200 {object} response.Response
// @Router /admin/loans/reject/ [post]
func (h *AdminHandler) RejectLoans(c *fiber.Ctx) error {
	return h.bulk(c, h.adminService.RejectLoans, "Loans rejected")
}

// ActivateLoans moves APPROVED loans to ACTIVE
// @Summary Activate loans
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body IDsRequest true "Loan ids"
// @Success 200 {object} response.Response
// @Router /admin/loans/activate/ [post]
func (h *AdminHandler) ActivateLoans(c *fiber.Ctx) error {
	return h.bulk(c, h.adminService.ActivateLoans, "Loans activated")
}

// CloseLoans closes APPROVED or ACTIVE loans
// @Summary Close loans
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body IDsRequest true "Loan ids"
// @Success 200 {object} response.Response
// @Router /admin/loans/close/ [post]
func (h *AdminHandler) CloseLoans(c *fiber.Ctx) error {
	return h.bulk(c, h.adminService.CloseLoans, "Loans closed")
}

// ListWithdrawals lists withdrawal requests
// @Summary List withdrawals
// @Tags Admin
// @Produce json
// @Param status query string false "Status filter"
// @Param loan_id query int false "Loan filter"
// @Success 200 {object} pagination.Response
// @Router /admin/withdrawals/ [get]
func (h *AdminHandler) ListWithdrawals(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	filter := repositories.WithdrawalFilter{
		LoanID: queryUint(c, "loan_id"),
		Status: strings.ToUpper(c.Query("status")),
	}

	items, total, err := h.adminService.ListWithdrawals(c.UserContext(), principal(c), filter, params)
	if err != nil {
		return handleError(c, h.log, err)
	}
	return c.JSON(pagination.NewResponse(items, params, total))
}

// ApproveWithdrawals approves PENDING withdrawal requests
// @Summary Approve withdrawals
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body IDsRequest true "Withdrawal ids"
// @Success 200 {object} response.Response
// @Router /admin/withdrawals/approve/ [post]
func (h *AdminHandler) ApproveWithdrawals(c *fiber.Ctx) error {
	return h.bulk(c, h.adminService.ApproveWithdrawals, "Withdrawals approved")
}

// RejectWithdrawals rejects PENDING withdrawal requests
// @Summary Reject withdrawals
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body IDsRequest true "Withdrawal ids"
// @Success 200 {object} response.Response
// @Router /admin/withdrawals/reject/ [post]
func (h *AdminHandler) RejectWithdrawals(c *fiber.Ctx) error {
	return h.bulk(c, h.adminService.RejectWithdrawals, "Withdrawals rejected")
}

// ListAuditLogs lists the audit trail
// @Summary List audit logs
// @Tags Admin
// @Produce json
// @Success 200 {object} pagination.Response
// @Router /admin/audit-logs/ [get]
func (h *AdminHandler) ListAuditLogs(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	entries, total, err := h.adminService.ListAuditLogs(c.UserContext(), principal(c), params)
	if err != nil {
		return handleError(c, h.log, err)
	}
	return c.JSON(pagination.NewResponse(entries, params, total))
}

func (h *AdminHandler) bulk(c *fiber.Ctx, action bulkAction, message string) error {
	var req IDsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if len(req.IDs) == 0 {
		return response.ValidationFailed(c, "Please correct the errors below.", map[string]string{
			"ids": "Select at least one item.",
		})
	}

	result, err := action(c.UserContext(), principal(c), req.IDs)
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, message, result)
}
