package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/cassiel99/gptbot/internal/domain"
	"github.com/cassiel99/gptbot/internal/ports/input"
	"github.com/cassiel99/gptbot/internal/ports/output"
	"github.com/cassiel99/gptbot/internal/telemetry"
	"github.com/cassiel99/gptbot/pkg/textutil"
	"github.com/cassiel99/gptbot/pkg/validator"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Compile-time check that ChatService implements input.ChatService
var _ input.ChatService = (*ChatService)(nil)

const defaultDonateText = "Thank you for your support!"

// generationSettings holds the per-user generation parameters a command may change
type generationSettings struct {
	Temperature float64 `validate:"gte=0,lte=1"`
	MaxTokens   int     `validate:"min=1,max=2048"`
}

// ChatService struct - Application service implementing the chat bot use cases
type ChatService struct {
	sessions   *domain.SessionManager
	repo       output.StateRepository
	inference  output.InferenceClient
	normalizer textutil.Normalizer
	platforms  map[domain.Platform]output.PlatformClient
	validator  validator.Validator
	donateText string
	locks      *userLocks

	tracer trace.Tracer
	turns  metric.Int64Counter
}

// conversation carries what the handlers of one event need
type conversation struct {
	ctx    context.Context
	client output.PlatformClient
	event  domain.ChatEvent
	state  *domain.UserState
	log    *logrus.Entry
}

// NewChatService func - Creates new chat service serving the given platforms
func NewChatService(
	sessions *domain.SessionManager,
	repo output.StateRepository,
	inference output.InferenceClient,
	normalizer textutil.Normalizer,
	donateText string,
	platforms ...output.PlatformClient,
) (*ChatService, error) {
	if normalizer == nil {
		normalizer = textutil.NewIdentity()
	}
	if strings.TrimSpace(donateText) == "" {
		donateText = defaultDonateText
	}

	byPlatform := make(map[domain.Platform]output.PlatformClient, len(platforms))
	for _, client := range platforms {
		byPlatform[client.Platform()] = client
	}

	turns, err := otel.Meter(telemetry.InstrumentationName).Int64Counter(
		"chat.turns",
		metric.WithDescription("Number of chat turns sent to the language model"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat turn counter: %w", err)
	}

	return &ChatService{
		sessions:   sessions,
		repo:       repo,
		inference:  inference,
		normalizer: normalizer,
		platforms:  byPlatform,
		validator:  validator.New(),
		donateText: donateText,
		locks:      newUserLocks(),
		tracer:     otel.Tracer(telemetry.InstrumentationName),
		turns:      turns,
	}, nil
}

// HandleEvent func - Use case: Process one inbound text message
func (s *ChatService) HandleEvent(ctx context.Context, event domain.ChatEvent) error {
	client, ok := s.platforms[event.Platform]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownPlatform, event.Platform)
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	log := logrus.WithFields(logrus.Fields{
		"event_id": event.ID,
		"platform": event.Platform,
		"user_id":  event.UserID,
		"chat_id":  event.ChatID,
	})

	text := strings.TrimSpace(event.Text)
	if text == "" {
		log.Debug("Ignoring empty message")
		return nil
	}

	unlock := s.locks.lock(event.UserKey())
	defer unlock()

	state, err := s.repo.Load(ctx, event.UserKey())
	if err != nil {
		return fmt.Errorf("failed to load user state: %w", err)
	}
	if state == nil {
		log.Info("Creating state for new user")
		state = &domain.UserState{}
	}
	s.sessions.EnsureUserState(state)
	s.sessions.TrackUserMessage(s.sessions.ActiveSession(state), event.MessageID)

	c := &conversation{
		ctx:    ctx,
		client: client,
		event:  event,
		state:  state,
		log:    log,
	}
	handleErr := s.dispatch(c, text)
	if handleErr != nil {
		log.Errorf("Failed to handle message: %v", handleErr)
	}

	if err := s.repo.Save(ctx, event.UserKey(), state); err != nil {
		return errors.Join(handleErr, fmt.Errorf("failed to save user state: %w", err))
	}
	return handleErr
}

// dispatch routes text to a command, a keyboard button, a session switch or a chat turn
func (s *ChatService) dispatch(c *conversation, text string) error {
	if strings.HasPrefix(text, "/") {
		return s.handleCommand(c, text)
	}

	switch {
	case strings.EqualFold(text, ButtonNewChat):
		return s.newChat(c)
	case strings.EqualFold(text, ButtonListChats):
		return s.listChats(c)
	case strings.EqualFold(text, ButtonDonate):
		return s.reply(c, s.donateText, mainKeyboard())
	case strings.EqualFold(text, ButtonBack):
		return s.reply(c, textMainMenu, mainKeyboard())
	}

	if session, err := s.sessions.FindByName(c.state, text); err == nil {
		return s.switchTo(c, session)
	}

	return s.chatTurn(c, text)
}

// handleCommand - Business logic for slash commands
func (s *ChatService) handleCommand(c *conversation, text string) error {
	command, args := parseCommand(text)
	c.log.Infof("Received command %s", command)

	switch command {
	case "/start":
		return s.reply(c, textWelcome, mainKeyboard())
	case "/help":
		return s.reply(c, textHelp, mainKeyboard())
	case "/donate":
		return s.reply(c, s.donateText, mainKeyboard())
	case "/settemp":
		return s.setTemperature(c, args)
	case "/setmaxtokens":
		return s.setMaxTokens(c, args)
	case "/reset":
		return s.resetChat(c)
	case "/rename":
		return s.renameChat(c, args)
	case "/delete":
		return s.deleteChat(c, args)
	case "/settings":
		return s.reply(c, settingsText(c.state, s.sessions.ActiveSession(c.state)), mainKeyboard())
	case "/models":
		return s.listModels(c)
	default:
		return s.reply(c, fmt.Sprintf(textUnknownCommand, command), nil)
	}
}

// parseCommand splits "/Cmd@bot args" into "/cmd" and "args"
func parseCommand(text string) (string, string) {
	command, args := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		command, args = text[:i], text[i:]
	}
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}
	return strings.ToLower(command), strings.TrimSpace(args)
}

func (s *ChatService) setTemperature(c *conversation, args string) error {
	value, err := strconv.ParseFloat(strings.Replace(args, ",", ".", 1), 64)
	if err != nil {
		return s.reply(c, textUsageSetTemp, nil)
	}

	settings := generationSettings{Temperature: value, MaxTokens: c.state.MaxTokens}
	if err := s.validator.ValidateStruct(settings); err != nil {
		c.log.Debugf("Rejected temperature %q: %s", args, strings.Join(validator.Messages(err), "; "))
		return s.reply(c, textUsageSetTemp, nil)
	}

	c.state.Temperature = settings.Temperature
	return s.reply(c, fmt.Sprintf(textTemperatureSet, settings.Temperature), nil)
}

func (s *ChatService) setMaxTokens(c *conversation, args string) error {
	value, err := strconv.Atoi(args)
	if err != nil {
		return s.reply(c, textUsageMaxTokens, nil)
	}

	settings := generationSettings{Temperature: c.state.Temperature, MaxTokens: value}
	if err := s.validator.ValidateStruct(settings); err != nil {
		c.log.Debugf("Rejected max tokens %q: %s", args, strings.Join(validator.Messages(err), "; "))
		return s.reply(c, textUsageMaxTokens, nil)
	}

	c.state.MaxTokens = settings.MaxTokens
	return s.reply(c, fmt.Sprintf(textMaxTokensSet, settings.MaxTokens), nil)
}

func (s *ChatService) resetChat(c *conversation) error {
	session := s.sessions.ActiveSession(c.state)
	s.cleanup(c, session)
	s.sessions.ResetSession(session)
	return s.reply(c, textReset, mainKeyboard())
}

func (s *ChatService) renameChat(c *conversation, args string) error {
	if args == "" {
		return s.reply(c, textUsageRename, nil)
	}

	session := s.sessions.ActiveSession(c.state)
	if err := s.sessions.Rename(c.state, session, args); err != nil {
		var validationErr *domain.ValidationError
		if !errors.As(err, &validationErr) {
			return fmt.Errorf("failed to rename session: %w", err)
		}
		return s.reply(c, renameErrorText(err), nil)
	}

	return s.reply(c, fmt.Sprintf(textRenamed, session.Name), mainKeyboard())
}

func (s *ChatService) deleteChat(c *conversation, args string) error {
	if !strings.EqualFold(args, "yes") {
		return s.reply(c, textUsageDelete, nil)
	}

	session := s.sessions.ActiveSession(c.state)
	s.cleanup(c, session)
	s.sessions.RemoveSession(c.state, session.ID)

	active := s.sessions.ActiveSession(c.state)
	return s.reply(c, fmt.Sprintf(textDeleted, session.Name, active.Name), mainKeyboard())
}

func (s *ChatService) listModels(c *conversation) error {
	models, err := s.inference.ListModels(c.ctx)
	if err != nil {
		c.log.Warnf("Failed to list models: %v", err)
		return s.reply(c, fmt.Sprintf(textModelsFailed, err), nil)
	}
	return s.reply(c, modelsText(models), nil)
}

func (s *ChatService) newChat(c *conversation) error {
	s.cleanup(c, s.sessions.ActiveSession(c.state))
	session := s.sessions.CreateSession(c.state)
	return s.reply(c, fmt.Sprintf(textCreated, session.Name), mainKeyboard())
}

func (s *ChatService) listChats(c *conversation) error {
	sessions := s.sessions.SortedSessions(c.state)
	return s.reply(c, sessionsText(sessions, c.state.ActiveSessionID), sessionsKeyboard(sessions))
}

func (s *ChatService) switchTo(c *conversation, session *domain.ChatSession) error {
	if session.ID == c.state.ActiveSessionID {
		return s.reply(c, fmt.Sprintf(textAlreadyActive, session.Name), mainKeyboard())
	}

	s.cleanup(c, s.sessions.ActiveSession(c.state))
	s.sessions.SwitchByName(c.state, session.Name)
	return s.reply(c, fmt.Sprintf(textSwitched, session.Name), mainKeyboard())
}

// chatTurn sends the active history to the language model and relays the reply
func (s *ChatService) chatTurn(c *conversation, text string) error {
	ctx, span := s.tracer.Start(c.ctx, "chat.turn", trace.WithAttributes(
		attribute.String("platform", string(c.event.Platform)),
	))
	defer span.End()

	if err := c.client.SendTyping(ctx, c.event.ChatID); err != nil {
		c.log.Warnf("Failed to send typing indicator: %v", err)
	}

	session := s.sessions.ActiveSession(c.state)
	session.Append(domain.ChatMessage{Role: domain.ChatMessageRoleUser, Content: text})
	s.sessions.TrimSession(session)

	resp, err := s.inference.ChatCompletion(ctx, domain.ChatCompletionRequest{
		Messages:    session.GetHistory(),
		Temperature: c.state.Temperature,
		MaxTokens:   c.state.MaxTokens,
	})
	if err != nil {
		s.countTurn(ctx, c, turnOutcome(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat completion failed")
		c.log.Errorf("Chat completion failed: %v", err)
		return s.sendText(ctx, c.client, c.event.ChatID, session, inferenceErrorText(err), nil)
	}

	content := strings.TrimSpace(s.normalizer.Normalize(resp.Content))
	if content == "" {
		s.countTurn(ctx, c, "empty")
		c.log.Warn("Model returned an empty reply")
		return s.sendText(ctx, c.client, c.event.ChatID, session, textEmptyReply, nil)
	}

	session.Append(domain.ChatMessage{Role: domain.ChatMessageRoleAssistant, Content: content})
	s.sessions.TrimSession(session)
	s.countTurn(ctx, c, "ok")

	c.log.WithFields(logrus.Fields{
		"model":             resp.Model,
		"prompt_tokens":     resp.PromptTokens,
		"completion_tokens": resp.CompletionTokens,
	}).Info("Chat turn completed")

	return s.sendText(ctx, c.client, c.event.ChatID, session, content, nil)
}

func turnOutcome(err error) string {
	var inferenceErr *domain.InferenceError
	if errors.As(err, &inferenceErr) {
		return string(inferenceErr.Kind)
	}
	return string(domain.InferenceErrorTransport)
}

func (s *ChatService) countTurn(ctx context.Context, c *conversation, outcome string) {
	s.turns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("platform", string(c.event.Platform)),
		attribute.String("outcome", outcome),
	))
}

// reply sends text to the event's chat and tracks it on the active session
func (s *ChatService) reply(c *conversation, text string, keyboard [][]string) error {
	session := s.sessions.ActiveSession(c.state)
	return s.sendText(c.ctx, c.client, c.event.ChatID, session, text, keyboard)
}

// cleanup deletes the tracked messages of a session being left, reset or deleted
func (s *ChatService) cleanup(c *conversation, session *domain.ChatSession) {
	outcomes := deleteTracked(c.ctx, c.client, c.event.ChatID, session)
	if len(outcomes) == 0 {
		return
	}

	retained := 0
	for _, outcome := range outcomes {
		if outcome.Deleted {
			continue
		}
		retained++
		if !errors.Is(outcome.Err, domain.ErrDeleteUnsupported) {
			c.log.Debugf("Failed to delete %s message %s: %v", outcome.Kind, outcome.MessageID, outcome.Err)
		}
	}
	c.log.Debugf("Cleaned up session %s: %d deleted, %d retained", session.ID, len(outcomes)-retained, retained)
}
