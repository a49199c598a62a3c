package http

import (
	"crypto/subtle"
	"encoding/json"

	"github.com/cassiel99/gptbot/internal/adapters/input/telegram"
	"github.com/cassiel99/gptbot/internal/ports/input"

	"github.com/go-telegram/bot/models"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// TelegramSecretHeader carries the secret token set with setWebhook
const TelegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// TelegramWebhookHandler struct - Primary/Driving adapter for Telegram webhook
type TelegramWebhookHandler struct {
	service     input.ChatService
	secretToken string
}

// NewTelegramWebhookHandler func - Creates new Telegram webhook handler
func NewTelegramWebhookHandler(service input.ChatService, secretToken string) *TelegramWebhookHandler {
	return &TelegramWebhookHandler{
		service:     service,
		secretToken: secretToken,
	}
}

// HandleWebhook func - Handles incoming Telegram updates.
// Processing failures are logged and still answered with 200 so Telegram does not redeliver.
// @Summary Telegram Webhook
// @Description Handles updates pushed by the Telegram Bot API
// @Tags Telegram
// @Accept application/json
// @Produce json
// @Success 200 {object} ResponseBody
// @Failure 400 {object} ResponseBody
// @Failure 401 {object} ResponseBody
// @Router /webhook/telegram [post]
func (h *TelegramWebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	if h.secretToken != "" && subtle.ConstantTimeCompare([]byte(c.Get(TelegramSecretHeader)), []byte(h.secretToken)) != 1 {
		logrus.Warn("Rejected Telegram webhook with invalid secret token")
		return c.Status(fiber.StatusUnauthorized).JSON(ResponseBody{Status: Unauthorized})
	}

	var update models.Update
	if err := json.Unmarshal(c.Body(), &update); err != nil {
		logrus.Errorf("Failed to decode Telegram update: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(ResponseBody{Status: BadRequest})
	}

	event, ok := telegram.EventFromUpdate(&update)
	if !ok {
		logrus.Debug("Ignoring Telegram update without text message")
		return c.Status(fiber.StatusOK).JSON(ResponseBody{Status: Success})
	}

	if err := h.service.HandleEvent(c.UserContext(), event); err != nil {
		logrus.Errorf("Failed to handle Telegram update %v: %v", update.ID, err)
	}

	return c.Status(fiber.StatusOK).JSON(ResponseBody{Status: Success})
}
