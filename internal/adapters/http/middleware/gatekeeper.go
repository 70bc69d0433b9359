package middleware

import (
	"context"
	"strings"

	"loanportal/internal/core/services"
	"loanportal/internal/pkg/metrics"
	"loanportal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Onboarding step paths
const (
	ProfilePath    = "/profile/complete/"
	BankDetailPath = "/bank-detail/"
)

var exemptPaths = map[string]bool{
	"/logout/":     true,
	"/logout-all/": true,
	"/me/":         true,
	"/favicon.ico": true,
	"/robots.txt":  true,
}

var assetPrefixes = []string{"/static/", "/assets/"}

// OnboardingStatusReader reports the onboarding progress of an account
type OnboardingStatusReader interface {
	Status(ctx context.Context, userID uint) (*services.OnboardingStatus, error)
}

// Gatekeeper sends accounts through login, profile and bank detail, in that
// order, before they reach loan routes. It does not write anything. When the
// status lookup fails the error is logged and the request continues.
func Gatekeeper(onboarding OnboardingStatusReader, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if isExempt(path) {
			return c.Next()
		}

		principal := PrincipalFrom(c)
		if principal == nil {
			metrics.RecordRedirect("login")
			return response.Redirect(c, LoginPath, "Authentication required")
		}
		if principal.IsStaff() {
			return c.Next()
		}

		status, err := onboarding.Status(c.UserContext(), principal.UserID)
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"user_id": principal.UserID,
				"path":    path,
			}).Error("❌ Onboarding check failed")
			metrics.RecordGatekeeperError()
			return c.Next()
		}

		if !status.ProfileCompleted {
			if samePath(path, ProfilePath) {
				return c.Next()
			}
			metrics.RecordRedirect(services.StepProfile)
			return response.Redirect(c, ProfilePath, "Please complete your profile first.")
		}
		if !status.HasBankDetail {
			if samePath(path, ProfilePath) || samePath(path, BankDetailPath) {
				return c.Next()
			}
			metrics.RecordRedirect(services.StepBankDetail)
			return response.Redirect(c, BankDetailPath, "Please add your bank details first.")
		}
		return c.Next()
	}
}

// samePath ignores a trailing slash, matching fiber's non-strict routing.
func samePath(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}

func isExempt(path string) bool {
	if exemptPaths[path] || exemptPaths[path+"/"] {
		return true
	}
	for _, prefix := range assetPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
