package middleware

import (
	"context"
	"errors"
	"strings"

	"loanportal/internal/config"
	"loanportal/internal/core/domain"
	"loanportal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// LoginPath is where unauthenticated requests are sent
const LoginPath = "/login/"

// Authenticator resolves an opaque session token to its principal
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
}

// SessionToken reads the session token from the cookie, then from a Bearer
// Authorization header
func SessionToken(c *fiber.Ctx, cfg *config.Config) string {
	if token := c.Cookies(cfg.Session.CookieName); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// LoadSession resolves the session, if any, and stores the principal in the
// request locals. It never rejects a request by itself.
func LoadSession(auth Authenticator, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := SessionToken(c, cfg)
		if token == "" {
			return c.Next()
		}

		principal, err := auth.Authenticate(c.UserContext(), token)
		switch {
		case err == nil:
			c.Locals(principalKey, principal)
		case errors.Is(err, domain.ErrSessionInvalid):
			ClearSessionCookie(c, cfg)
		default:
			return err
		}
		return c.Next()
	}
}

// PrincipalFrom returns the authenticated principal, or nil
func PrincipalFrom(c *fiber.Ctx) *domain.Principal {
	principal, _ := c.Locals(principalKey).(*domain.Principal)
	return principal
}

// RequireAuth redirects anonymous requests to the login path
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if PrincipalFrom(c) == nil {
			return response.Redirect(c, LoginPath, "Authentication required")
		}
		return c.Next()
	}
}

// StaffOnly allows only staff accounts
func StaffOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := PrincipalFrom(c)
		if principal == nil {
			return response.Redirect(c, LoginPath, "Authentication required")
		}
		if !principal.IsStaff() {
			return response.Forbidden(c, "You don't have permission to access this resource")
		}
		return c.Next()
	}
}

// SetSessionCookie stores the session token in an HttpOnly cookie
func SetSessionCookie(c *fiber.Ctx, cfg *config.Config, token string, maxAge int) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.Session.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   cfg.Cookie.Domain,
		MaxAge:   maxAge,
		Secure:   cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: cfg.Cookie.SameSite,
	})
}

// ClearSessionCookie expires the session cookie
func ClearSessionCookie(c *fiber.Ctx, cfg *config.Config) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.Session.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   cfg.Cookie.Domain,
		MaxAge:   -1,
		Secure:   cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: cfg.Cookie.SameSite,
	})
}
