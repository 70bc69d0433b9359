package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"loanportal/internal/adapters/http/middleware"
	"loanportal/internal/config"
	"loanportal/internal/core/domain"
	"loanportal/internal/core/services"
	"loanportal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// DashboardPath is where withdrawal preconditions send the borrower
const DashboardPath = "/loan/dashboard/"

// Amount accepts a JSON number or string and keeps the literal text so the
// service layer can parse it as a decimal
type Amount string

// UnmarshalJSON implements json.Unmarshaler
func (a *Amount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = Amount(n.String())
	return nil
}

// IDsRequest is the body of every bulk staff action
type IDsRequest struct {
	IDs []uint `json:"ids" form:"ids"`
}

// handleError maps service errors to responses shared by every handler
func handleError(c *fiber.Ctx, log logrus.FieldLogger, err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return response.ValidationFailed(c, "Please correct the errors below.", verr.Fields)
	case errors.Is(err, domain.ErrPermissionDenied):
		return response.Forbidden(c, "You don't have permission to perform this action")
	case errors.Is(err, domain.ErrProfileIncomplete):
		return response.Redirect(c, middleware.ProfilePath, "Please complete your profile first.")
	case errors.Is(err, domain.ErrBankDetailMissing):
		return response.Redirect(c, middleware.BankDetailPath, "Please add your bank details first.")
	case errors.Is(err, domain.ErrNoWithdrawableLoan):
		return response.Redirect(c, DashboardPath, "You have no approved loan to withdraw from.")
	case errors.Is(err, domain.ErrLoanAlreadyOpen):
		return response.Conflict(c, "You already have a loan in progress.")
	case errors.Is(err, domain.ErrLoanNotFound):
		return response.NotFound(c, "Loan not found")
	case errors.Is(err, domain.ErrAgreementNotFound):
		return response.NotFound(c, "Agreement not found")
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, "Not found")
	case errors.Is(err, domain.ErrDeliveryFailed):
		return response.ServiceUnavailable(c, "We could not send the email. Please try again later.")
	default:
		log.WithError(err).WithField("path", c.Path()).Error("❌ Request failed")
		return response.InternalServerError(c, "Something went wrong")
	}
}

// principal returns the authenticated caller. Routes using it sit behind
// RequireAuth, so nil only happens on misconfigured routes.
func principal(c *fiber.Ctx) *domain.Principal {
	return middleware.PrincipalFrom(c)
}

// baseURL prefers PUBLIC_BASE_URL over the URL the request arrived on
func baseURL(c *fiber.Ctx, cfg *config.Config) string {
	if cfg.Site.PublicBaseURL != "" {
		return cfg.Site.PublicBaseURL
	}
	return strings.TrimRight(c.BaseURL(), "/")
}

func clientMeta(c *fiber.Ctx) services.ClientMeta {
	return services.ClientMeta{
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}

func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func queryUint(c *fiber.Ctx, name string) uint {
	v, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}
