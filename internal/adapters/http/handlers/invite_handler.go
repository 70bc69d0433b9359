package handlers

import (
	"loanportal/internal/config"
	"loanportal/internal/core/domain"
	"loanportal/internal/core/services"
	"loanportal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// InviteHandler handles staff invitations
type InviteHandler struct {
	notificationService *services.NotificationService
	cfg                 *config.Config
	log                 logrus.FieldLogger
}

// NewInviteHandler creates a new invite handler
func NewInviteHandler(notificationService *services.NotificationService, cfg *config.Config, log logrus.FieldLogger) *InviteHandler {
	return &InviteHandler{notificationService: notificationService, cfg: cfg, log: log}
}

// SendInvite emails a registration invitation
// @Summary Send invitation
// @Description Staff only. Nothing is stored.
// @Tags Invite
// @Accept json
// @Produce json
// @Param body body services.InviteInput true "Invitation"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /invite/ [post]
func (h *InviteHandler) SendInvite(c *fiber.Ctx) error {
	if !principal(c).IsStaff() {
		return handleError(c, h.log, domain.ErrPermissionDenied)
	}

	var req services.InviteInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	registerURL := baseURL(c, h.cfg) + "/register/"
	if err := h.notificationService.SendInvite(c.UserContext(), principal(c), &req, registerURL); err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, "Invitation sent", fiber.Map{"recipient_email": req.RecipientEmail})
}
