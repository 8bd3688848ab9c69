package handlers

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/reelworth/reelworth_api/shared"
)

type WebhookHandler struct {
	webhookSvc WebhookServiceInterface
}

func NewWebhookHandler(webhookSvc WebhookServiceInterface) *WebhookHandler {
	return &WebhookHandler{
		webhookSvc: webhookSvc,
	}
}

// @Summary Deletion Challenge
// @Description Answer the eBay endpoint verification handshake
// @Tags webhooks
// @Accept json
// @Produce json
// @Param challenge_code query string true "Challenge code"
// @Success 200 {object} map[string]string
// @Router /api/ebay/deletion/notifications [get]
func (h *WebhookHandler) Challenge(c *fiber.Ctx) error {
	if !h.webhookSvc.Configured() {
		return shared.NewNotConfiguredError("deletion endpoint not configured")
	}

	code := c.Query("challenge_code")
	if code == "" {
		return shared.NewBadRequestError(nil, "challenge_code is required")
	}

	// eBay expects this exact shape, not the shared envelope.
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"challengeResponse": h.webhookSvc.ChallengeResponse(code),
	})
}

// @Summary Deletion Notification
// @Description Verify and process an account deletion notification
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} shared.Response
// @Router /api/ebay/deletion/notifications [post]
func (h *WebhookHandler) Notification(c *fiber.Ctx) error {
	if !h.webhookSvc.Configured() {
		return shared.NewNotConfiguredError("deletion endpoint not configured")
	}

	body := c.Body()
	if err := h.webhookSvc.VerifyNotification(c.Context(), c.Get("x-ebay-signature"), body); err != nil {
		log.WithError(err).Warn("Rejected deletion notification")
		return err
	}

	if err := h.webhookSvc.ProcessDeletion(body); err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", nil)
}
