package http

import (
	"context"
	"errors"

	"github.com/cassiel99/gptbot/internal/domain"
	"github.com/cassiel99/gptbot/internal/ports/input"
	"github.com/cassiel99/gptbot/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Pinger checks that a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HTTPHandler struct - Primary/Driving adapter for the admin HTTP API
type HTTPHandler struct {
	srv       input.StateQueryService
	store     Pinger
	validator validator.Validator
}

// New func - Creates new HTTP handler
func New(srv input.StateQueryService, store Pinger) *HTTPHandler {
	return &HTTPHandler{
		srv:       srv,
		store:     store,
		validator: validator.New(),
	}
}

// HealthCheck func
// HealthCheck godoc
// @Summary Health check
// @Description Checks that the state store is reachable
// @Tags Health
// @Produce json
// @Success 200 {object} ResponseBody
// @Failure 500 {object} ResponseBody
// @Router /health [get]
func (hdl *HTTPHandler) HealthCheck(c *fiber.Ctx) error {
	if err := hdl.store.Ping(c.UserContext()); err != nil {
		logrus.Errorln(err)
		return c.Status(fiber.StatusInternalServerError).JSON(ResponseBody{Status: InternalServerError})
	}
	return c.Status(fiber.StatusOK).JSON(ResponseBody{Status: Success, Data: ""})
}

// GetUserSessions func
/* get user sessions */
// GetUserSessions godoc
// @Summary Get user sessions
// @Description Lists the chat sessions and generation settings of a platform user
// @Tags Sessions
// @Accept application/json
// @Produce json
// @param platform path string true "telegram or line"
// @param user_id path string true "platform user id"
// @Success 200 {object} ResponseBody{data=UserSessionsResponse}
// @Failure 400 {object} ResponseBody
// @Failure 404 {object} ResponseBody
// @Router /v1/api/users/{platform}/{user_id}/sessions [get]
func (hdl *HTTPHandler) GetUserSessions(c *fiber.Ctx) error {
	var request UserSessionsRequest
	if err := c.ParamsParser(&request); err != nil {
		logrus.Errorln(err)
		return c.Status(fiber.StatusBadRequest).JSON(ResponseBody{Status: BadRequest})
	}
	if err := hdl.validator.ValidateStruct(request); err != nil {
		msg := ResponseBody{
			Status: BadRequest,
		}
		msg.Status.Message = validator.Messages(err)
		return c.Status(fiber.StatusBadRequest).JSON(msg)
	}

	view, err := hdl.srv.GetUserSessions(c.UserContext(), domain.Platform(request.Platform), request.UserID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ResponseBody{Status: NotFound})
	}
	if err != nil {
		logrus.Errorln(err)
		return c.Status(fiber.StatusInternalServerError).JSON(ResponseBody{Status: InternalServerError})
	}

	// Convert domain response to HTTP response
	data := UserSessionsResponse{
		UserKey:     view.UserKey,
		Temperature: view.Temperature,
		MaxTokens:   view.MaxTokens,
		Sessions:    make([]SessionResponse, 0, len(view.Sessions)),
	}
	for _, session := range view.Sessions {
		data.Sessions = append(data.Sessions, SessionResponse{
			ID:             session.ID,
			Name:           session.Name,
			Active:         session.Active,
			Messages:       session.Messages,
			BotMessageIDs:  session.BotMessageIDs,
			UserMessageIDs: session.UserMessageIDs,
		})
	}
	return c.Status(fiber.StatusOK).JSON(ResponseBody{Status: Success, Data: data})
}
