package handlers

import (
	"errors"

	"loanportal/internal/adapters/http/middleware"
	"loanportal/internal/config"
	"loanportal/internal/core/domain"
	"loanportal/internal/core/services"
	"loanportal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
	log         logrus.FieldLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, cfg *config.Config, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
		log:         log,
	}
}

// Register handles user registration
// @Summary Register new account
// @Description Creates an inactive account and emails a verification link
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.RegisterInput true "Registration data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /register/ [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.authService.Register(c.UserContext(), &req, baseURL(c, h.cfg))
	if err != nil {
		return handleError(c, h.log, err)
	}

	message := "Registration successful. Check your email to verify your account."
	if !result.VerificationSent {
		message = "Registration successful, but we could not send the verification email."
	}
	return response.Created(c, message, result)
}

// VerifyEmail activates an account from the emailed link
// @Summary Verify email
// @Tags Auth
// @Produce json
// @Param uid path string true "Encoded account id"
// @Param token path string true "Verification token"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /verify-email/{uid}/{token}/ [get]
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	user, err := h.authService.VerifyEmail(c.UserContext(), c.Params("uid"), c.Params("token"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidVerificationLink) {
			return response.BadRequest(c, "The verification link is invalid or has expired.")
		}
		return handleError(c, h.log, err)
	}

	return response.Success(c, "Your email has been verified. You can now sign in.", user.ToResponse())
}

// Login handles user login
// @Summary Login
// @Description Authenticates and opens a server-side session
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.LoginInput true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /login/ [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req services.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.authService.Login(c.UserContext(), &req, clientMeta(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return response.Unauthorized(c, "No account found with this email address.")
		case errors.Is(err, domain.ErrInvalidCredentials):
			return response.Unauthorized(c, "Invalid email or password.")
		case errors.Is(err, domain.ErrEmailNotVerified):
			return response.Forbidden(c, "Please verify your email before signing in.")
		case errors.Is(err, domain.ErrUserInactive):
			return response.Forbidden(c, "This account is inactive.")
		default:
			return handleError(c, h.log, err)
		}
	}

	middleware.SetSessionCookie(c, h.cfg, result.Token, int(h.cfg.Session.TTL.Seconds()))

	return response.Success(c, "Login successful", fiber.Map{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"user":       result.User.ToResponse(),
	})
}

// Logout handles user logout
// @Summary Logout
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /logout/ [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), middleware.SessionToken(c, h.cfg)); err != nil {
		h.log.WithError(err).Warn("⚠️ Failed to revoke session")
	}

	middleware.ClearSessionCookie(c, h.cfg)
	return response.Success(c, "Logged out successfully", nil)
}

// LogoutAll revokes every session of the account
// @Summary Logout from all devices
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /logout-all/ [post]
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	if err := h.authService.LogoutAll(c.UserContext(), principal(c)); err != nil {
		return handleError(c, h.log, err)
	}

	middleware.ClearSessionCookie(c, h.cfg)
	return response.Success(c, "Logged out from all devices", nil)
}

// Me returns the current account with its onboarding records
// @Summary Current account
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /me/ [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.authService.GetUser(c.UserContext(), principal(c))
	if err != nil {
		return handleError(c, h.log, err)
	}

	data := fiber.Map{
		"user":        user.ToResponse(),
		"profile":     user.Profile,
		"bank_detail": nil,
	}
	if user.BankDetail != nil {
		data["bank_detail"] = user.BankDetail.ToResponse()
	}
	return response.Success(c, "", data)
}
