package middleware

import (
	"loanportal/internal/config"
	"loanportal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AllowedHosts answers 400 when the Host header is not in ALLOWED_HOSTS
func AllowedHosts(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !cfg.HostAllowed(c.Hostname()) {
			return response.BadRequest(c, "Invalid host header")
		}
		return c.Next()
	}
}
