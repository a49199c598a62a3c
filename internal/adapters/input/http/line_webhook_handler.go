package http

import (
	"bytes"
	"net/http"
	"time"

	"github.com/cassiel99/gptbot/internal/domain"
	"github.com/cassiel99/gptbot/internal/ports/input"

	"github.com/gofiber/fiber/v2"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"github.com/sirupsen/logrus"
)

// LineWebhookHandler struct - Primary/Driving adapter for LINE webhook
type LineWebhookHandler struct {
	service       input.ChatService
	channelSecret string
}

// NewLineWebhookHandler func - Creates new LINE webhook handler
func NewLineWebhookHandler(service input.ChatService, channelSecret string) *LineWebhookHandler {
	return &LineWebhookHandler{
		service:       service,
		channelSecret: channelSecret,
	}
}

// HandleWebhook func - Handles incoming LINE webhook requests
// @Summary LINE Webhook
// @Description Handles webhook events from LINE Messaging API
// @Tags LINE
// @Accept application/json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /webhook/line [post]
func (h *LineWebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	// Convert Fiber request to http.Request for LINE SDK
	body := c.Body()
	httpReq, err := http.NewRequestWithContext(c.UserContext(), http.MethodPost, "/webhook/line", bytes.NewReader(body))
	if err != nil {
		logrus.Errorf("Failed to create http request: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Internal error",
		})
	}

	// Copy headers
	c.Request().Header.VisitAll(func(key, value []byte) {
		httpReq.Header.Set(string(key), string(value))
	})

	// Parse and validate webhook request
	cb, err := webhook.ParseRequest(h.channelSecret, httpReq)
	if err != nil {
		logrus.Errorf("Failed to parse webhook request: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid signature or request",
		})
	}

	failed := 0
	for _, event := range cb.Events {
		chatEvent, ok := convertToChatEvent(event)
		if !ok {
			continue
		}
		if err := h.service.HandleEvent(c.UserContext(), chatEvent); err != nil {
			logrus.Errorf("Failed to handle LINE event: %v", err)
			failed++
		}
	}

	if failed > 0 {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Failed to process webhook",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "success",
	})
}

// convertToChatEvent - Converts a LINE text message event to a domain chat event
func convertToChatEvent(event webhook.EventInterface) (domain.ChatEvent, bool) {
	e, ok := event.(webhook.MessageEvent)
	if !ok {
		logrus.Debugf("Ignoring LINE event type: %T", event)
		return domain.ChatEvent{}, false
	}

	msg, ok := e.Message.(webhook.TextMessageContent)
	if !ok {
		logrus.Infof("Ignoring non-text message: type=%T", e.Message)
		return domain.ChatEvent{}, false
	}

	userID, chatID := convertSource(e.Source)
	if chatID == "" {
		logrus.Warnf("Ignoring LINE message without source: %T", e.Source)
		return domain.ChatEvent{}, false
	}

	return domain.ChatEvent{
		Platform:  domain.PlatformLine,
		UserID:    userID,
		ChatID:    chatID,
		MessageID: msg.Id,
		Text:      msg.Text,
		Timestamp: time.UnixMilli(e.Timestamp),
	}, true
}

// convertSource - Returns the sender and the conversation a reply goes to.
// Senders that did not share their id are keyed by the conversation.
func convertSource(source webhook.SourceInterface) (string, string) {
	var userID, chatID string
	switch s := source.(type) {
	case webhook.UserSource:
		userID, chatID = s.UserId, s.UserId
	case webhook.GroupSource:
		userID, chatID = s.UserId, s.GroupId
	case webhook.RoomSource:
		userID, chatID = s.UserId, s.RoomId
	}
	if userID == "" {
		userID = chatID
	}
	return userID, chatID
}
