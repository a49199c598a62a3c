package application

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cassiel99/gptbot/internal/domain"
	"github.com/cassiel99/gptbot/pkg/textutil"
)

// TestSetTemperature tests that only values in [0, 1] are accepted
func TestSetTemperature(t *testing.T) {
	h := newTestHarness(t, nil)

	h.send(t, "1", "/settemp 0.5")
	if got := h.state(t).Temperature; got != 0.5 {
		t.Fatalf("expected temperature 0.5, got %v", got)
	}
	if h.platform.LastText() != "Temperature set to 0.5." {
		t.Errorf("unexpected reply %q", h.platform.LastText())
	}

	for _, input := range []string{"/settemp 2", "/settemp -0.1", "/settemp abc", "/settemp", "/settemp NaN"} {
		h.send(t, "", input)
		if got := h.state(t).Temperature; got != 0.5 {
			t.Errorf("%q: expected temperature to stay 0.5, got %v", input, got)
		}
		if h.platform.LastText() != textUsageSetTemp {
			t.Errorf("%q: expected usage hint, got %q", input, h.platform.LastText())
		}
	}
}

// TestSetMaxTokens tests that only values in [1, 2048] are accepted
func TestSetMaxTokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
		reply    string
	}{
		{name: "valid", input: "/setmaxtokens 512", expected: 512, reply: "Max tokens set to 512."},
		{name: "upper bound", input: "/setmaxtokens 2048", expected: 2048, reply: "Max tokens set to 2048."},
		{name: "zero", input: "/setmaxtokens 0", expected: 1024, reply: textUsageMaxTokens},
		{name: "too large", input: "/setmaxtokens 4096", expected: 1024, reply: textUsageMaxTokens},
		{name: "not a number", input: "/setmaxtokens many", expected: 1024, reply: textUsageMaxTokens},
		{name: "fraction", input: "/setmaxtokens 1.5", expected: 1024, reply: textUsageMaxTokens},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHarness(t, nil)

			h.send(t, "1", tt.input)

			if got := h.state(t).MaxTokens; got != tt.expected {
				t.Errorf("expected max tokens %d, got %d", tt.expected, got)
			}
			if h.platform.LastText() != tt.reply {
				t.Errorf("expected reply %q, got %q", tt.reply, h.platform.LastText())
			}
		})
	}
}

// TestCommandCaseAndBotSuffix tests command normalization
func TestCommandCaseAndBotSuffix(t *testing.T) {
	h := newTestHarness(t, nil)

	h.send(t, "1", "/SetTemp@gpt_bot 0,3")

	if got := h.state(t).Temperature; got != 0.3 {
		t.Errorf("expected temperature 0.3, got %v", got)
	}
}

// TestUnknownCommand tests the fallback reply
func TestUnknownCommand(t *testing.T) {
	h := newTestHarness(t, nil)

	h.send(t, "1", "/foo bar")

	if !strings.HasPrefix(h.platform.LastText(), "Unknown command: /foo") {
		t.Errorf("unexpected reply %q", h.platform.LastText())
	}
	if len(h.inference.Requests()) != 0 {
		t.Error("expected no inference request for a command")
	}
}

// TestStartShowsMainKeyboard tests the welcome reply
func TestStartShowsMainKeyboard(t *testing.T) {
	h := newTestHarness(t, nil)

	h.send(t, "1", "/start")

	sent := h.platform.Sent()
	if len(sent) != 1 || sent[0].Text != textWelcome {
		t.Fatalf("unexpected messages %+v", sent)
	}
	if !reflect.DeepEqual(sent[0].Keyboard, mainKeyboard()) {
		t.Errorf("expected main keyboard, got %v", sent[0].Keyboard)
	}
	if sent[0].ChatID != testUserID {
		t.Errorf("expected reply to chat %s, got %s", testUserID, sent[0].ChatID)
	}
}

// TestDonate tests the configured donate text for command and button
func TestDonate(t *testing.T) {
	h := newTestHarness(t, nil)

	h.send(t, "1", "/donate")
	if h.platform.LastText() != "Support us!" {
		t.Errorf("unexpected reply %q", h.platform.LastText())
	}

	h.send(t, "2", "DONATE")
	if h.platform.LastText() != "Support us!" {
		t.Errorf("unexpected reply %q", h.platform.LastText())
	}
}

// TestChatTurnSuccess tests a full round trip through the language model
func TestChatTurnSuccess(t *testing.T) {
	h := newTestHarness(t, nil)
	h.inference.ChatCompletionFunc = func(ctx context.Context, request domain.ChatCompletionRequest) (*domain.ChatCompletionResponse, error) {
		return &domain.ChatCompletionResponse{Content: "  Hello there.  ", Model: "test-model"}, nil
	}

	h.send(t, "m1", "hi")

	requests := h.inference.Requests()
	if len(requests) != 1 {
		t.Fatalf("expected 1 inference request, got %d", len(requests))
	}
	expectedHistory := []domain.ChatMessage{
		{Role: domain.ChatMessageRoleSystem, Content: testSystemPrompt},
		{Role: domain.ChatMessageRoleUser, Content: "hi"},
	}
	if !reflect.DeepEqual(requests[0].Messages, expectedHistory) {
		t.Errorf("unexpected request history %+v", requests[0].Messages)
	}
	if requests[0].Temperature != domain.DefaultTemperature || requests[0].MaxTokens != domain.DefaultMaxTokens {
		t.Errorf("unexpected generation settings %+v", requests[0])
	}

	session := h.activeSession(t)
	if len(session.History) != 3 || session.History[2].Content != "Hello there." {
		t.Errorf("expected assistant reply in history, got %+v", session.History)
	}
	if !reflect.DeepEqual(session.BotMessageIDs, []string{"1001"}) {
		t.Errorf("expected bot message 1001 tracked, got %v", session.BotMessageIDs)
	}
	if !reflect.DeepEqual(session.UserMessageIDs, []string{"m1"}) {
		t.Errorf("expected user message m1 tracked, got %v", session.UserMessageIDs)
	}

	sent := h.platform.Sent()
	if len(sent) != 1 || sent[0].Text != "Hello there." || sent[0].Keyboard != nil {
		t.Errorf("unexpected messages %+v", sent)
	}
	if h.platform.typingCalls != 1 {
		t.Errorf("expected 1 typing indicator, got %d", h.platform.typingCalls)
	}
}

// TestChatTurnUsesUserSettings tests that stored settings reach the request
func TestChatTurnUsesUserSettings(t *testing.T) {
	h := newTestHarness(t, nil)

	h.send(t, "1", "/settemp 0.2")
	h.send(t, "2", "/setmaxtokens 256")
	h.send(t, "3", "hello")

	requests := h.inference.Requests()
	if len(requests) != 1 || requests[0].Temperature != 0.2 || requests[0].MaxTokens != 256 {
		t.Errorf("unexpected requests %+v", requests)
	}
}

// TestChatTurnUpstreamStatusKeepsUserMessage tests that a failed generation
// keeps the user message and adds no assistant message
func TestChatTurnUpstreamStatusKeepsUserMessage(t *testing.T) {
	h := newTestHarness(t, nil)
	h.inference.ChatCompletionFunc = func(ctx context.Context, request domain.ChatCompletionRequest) (*domain.ChatCompletionResponse, error) {
		return nil, domain.NewUpstreamStatusError(500, "boom")
	}

	h.send(t, "1", "Привет")

	session := h.activeSession(t)
	expected := []domain.ChatMessage{
		{Role: domain.ChatMessageRoleSystem, Content: testSystemPrompt},
		{Role: domain.ChatMessageRoleUser, Content: "Привет"},
	}
	if !reflect.DeepEqual(session.History, expected) {
		t.Errorf("unexpected history %+v", session.History)
	}
	if h.platform.LastText() != "LM Studio returned status 500: boom" {
		t.Errorf("unexpected reply %q", h.platform.LastText())
	}
}

// TestChatTurnNormalizesReply tests the script normalizer on model output
func TestChatTurnNormalizesReply(t *testing.T) {
	normalizer, _ := textutil.NewNormalizer("Cyrillic")
	h := newTestHarness(t, normalizer)
	h.inference.ChatCompletionFunc = func(ctx context.Context, request domain.ChatCompletionRequest) (*domain.ChatCompletionResponse, error) {
		return &domain.ChatCompletionResponse{Content: "Okay, answering in Russian. Здравствуйте! I am a bot. Чем могу помочь?"}, nil
	}

	h.send(t, "1", "Привет")

	if h.platform.LastText() != "Здравствуйте! Чем могу помочь?" {
		t.Errorf("unexpected reply %q", h.platform.LastText())
	}
	if got := h.activeSession(t).History[2].Content; got != "Здравствуйте! Чем могу помочь?" {
		t.Errorf("expected normalized reply in history, got %q", got)
	}
}

// TestChatTurnEmptyReply tests that a blank completion is not stored
func TestChatTurnEmptyReply(t *testing.T) {
	h := newTestHarness(t, nil)
	h.inference.ChatCompletionFunc = func(ctx context.Context, request domain.ChatCompletionRequest) (*domain.ChatCompletionResponse, error) {
		return &domain.ChatCompletionResponse{Content: " \n "}, nil
	}

	h.send(t, "1", "hello")

	if len(h.activeSession(t).History) != 2 {
		t.Errorf("expected no assistant message, got %+v", h.activeSession(t).History)
	}
	if h.platform.LastText() != textEmptyReply {
		t.Errorf("unexpected reply %q", h.platform.LastText())
	}
}

// TestChatTurnTypingFailureIsIgnored tests that a failed typing indicator does not stop the turn
func TestChatTurnTypingFailureIsIgnored(t *testing.T) {
	h := newTestHarness(t, nil)
	h.platform.SendTypingFunc = func(ctx context.Context, chatID string) error {
		return errors.New("typing failed")
	}

	h.send(t, "1", "hello")

	if h.platform.LastText() != "AI response" {
		t.Errorf("unexpected reply %q", h.platform.LastText())
	}
}

// TestChatTurnSendFailure tests that a failed send is returned and the state is still saved
func TestChatTurnSendFailure(t *testing.T) {
	h := newTestHarness(t, nil)
	h.platform.SendTextFunc = func(ctx context.Context, message domain.OutgoingMessage) (string, error) {
		return "", errors.New("network down")
	}

	err := h.service.HandleEvent(context.Background(), textEvent("1", "hello"))

	if err == nil || !strings.Contains(err.Error(), "network down") {
		t.Fatalf("expected send error, got %v", err)
	}
	if len(h.activeSession(t).History) != 3 {
		t.Errorf("expected the turn to be stored, got %+v", h.activeSession(t).History)
	}
}

// TestChatTurnChunksLongReply tests that long replies are split to the platform limit
func TestChatTurnChunksLongReply(t *testing.T) {
	h := newTestHarness(t, nil)
	h.platform.Limit = 20
	reply := strings.Repeat("word ", 30)
	h.inference.ChatCompletionFunc = func(ctx context.Context, request domain.ChatCompletionRequest) (*domain.ChatCompletionResponse, error) {
		return &domain.ChatCompletionResponse{Content: reply}, nil
	}

	h.send(t, "1", "hello")

	sent := h.platform.Sent()
	if len(sent) < 2 {
		t.Fatalf("expected several chunks, got %d", len(sent))
	}
	var joined []string
	for _, message := range sent {
		if len([]rune(message.Text)) > 20 {
			t.Errorf("chunk exceeds limit: %q", message.Text)
		}
		joined = append(joined, message.Text)
	}
	if strings.Join(joined, " ") != strings.TrimSpace(reply) {
		t.Errorf("chunks do not rebuild the reply: %q", joined)
	}
	if got := len(h.activeSession(t).BotMessageIDs); got != len(sent) {
		t.Errorf("expected %d tracked bot messages, got %d", len(sent), got)
	}
}

// TestSessionNameSwitch tests new chat, rename and switching by plain name
func TestSessionNameSwitch(t *testing.T) {
	h := newTestHarness(t, nil)

	h.send(t, "u1", "New chat")
	h.send(t, "u2", "/rename work")
	h.send(t, "u3", "New chat")
	if got := h.state(t).ActiveSessionID; got != "3" {
		t.Fatalf("expected session 3 active, got %s", got)
	}

	h.send(t, "u4", "WORK")

	state := h.state(t)
	if state.ActiveSessionID != "2" || state.Sessions["2"].Name != "work" {
		t.Fatalf("expected session work active, got %s", state.ActiveSessionID)
	}
	if h.platform.LastText() != `Switched to chat "work".` {
		t.Errorf("unexpected reply %q", h.platform.LastText())
	}
	if len(h.inference.Requests()) != 0 {
		t.Error("expected no inference request")
	}

	expectedDeleted := []string{"u1", "1001", "1002", "u2", "u3", "1003", "u4"}
	if got := h.platform.Deleted(); !reflect.DeepEqual(got, expectedDeleted) {
		t.Errorf("expected deletions %v, got %v", expectedDeleted, got)
	}
	left := state.Sessions["3"]
	if len(left.BotMessageIDs) != 0 || len(left.UserMessageIDs) != 0 {
		t.Errorf("expected the left session to be cleaned up, got %+v", left)
	}
	if !reflect.DeepEqual(state.Sessions["2"].BotMessageIDs, []string{"1004"}) {
		t.Errorf("expected the switch reply tracked on work, got %v", state.Sessions["2"].BotMessageIDs)
	}
}

// TestSwitchToActiveSession tests the reply when the named session is already active
func TestSwitchToActiveSession(t *testing.T) {
	h := newTestHarness(t, nil)

	h.send(t, "1", "chat_1")

	if h.platform.LastText() != `You are already in chat "chat_1".` {
		t.Errorf("unexpected reply %q", h.platform.LastText())
	}
	if len(h.platform.Deleted()) != 0 {
		t.Error("expected no cleanup")
	}
}

// TestCleanupRetainsUndeletedMessages tests that failed deletions keep their ids
func TestCleanupRetainsUndeletedMessages(t *testing.T) {
	h := newTestHarness(t, nil)
	h.platform.DeleteMessageFunc = func(ctx context.Context, chatID, messageID string) error {
		return domain.ErrDeleteUnsupported
	}

	h.send(t, "u1", "hello")
	h.send(t, "u2", "New chat")

	first := h.state(t).Sessions["1"]
	if !reflect.DeepEqual(first.UserMessageIDs, []string{"u1", "u2"}) {
		t.Errorf("expected user ids retained, got %v", first.UserMessageIDs)
	}
	if !reflect.DeepEqual(first.BotMessageIDs, []string{"1001"}) {
		t.Errorf("expected bot ids retained, got %v", first.BotMessageIDs)
	}
}

// TestListChats tests the session listing and its keyboard
func TestListChats(t *testing.T) {
	h := newTestHarness(t, nil)

	h.send(t, "1", "new chat")
	h.send(t, "2", "List chats")

	sent := h.platform.Sent()
	last := sent[len(sent)-1]
	if !strings.Contains(last.Text, "▶ chat_2") || !strings.Contains(last.Text, "  chat_1") {
		t.Errorf("unexpected listing %q", last.Text)
	}
	expected := [][]string{{"chat_1", "chat_2"}, {ButtonBack}}
	if !reflect.DeepEqual(last.Keyboard, expected) {
		t.Errorf("expected keyboard %v, got %v", expected, last.Keyboard)
	}

	h.send(t, "3", "back")
	if h.platform.LastText() != textMainMenu {
		t.Errorf("unexpected reply %q", h.platform.LastText())
	}
}

// TestResetClearsHistory tests /reset
func TestResetClearsHistory(t *testing.T) {
	h := newTestHarness(t, nil)
	h.send(t, "u1", "hello")

	h.send(t, "u2", "/reset")

	session := h.activeSession(t)
	if len(session.History) != 1 || session.History[0].Role != domain.ChatMessageRoleSystem {
		t.Errorf("expected only the system prompt, got %+v", session.History)
	}
	if !reflect.DeepEqual(h.platform.Deleted(), []string{"1001", "u1", "u2"}) {
		t.Errorf("unexpected deletions %v", h.platform.Deleted())
	}
	if h.platform.LastText() != textReset {
		t.Errorf("unexpected reply %q", h.platform.LastText())
	}
}

// TestRenameRejections tests rename validation replies
func TestRenameRejections(t *testing.T) {
	h := newTestHarness(t, nil)

	h.send(t, "1", "/rename")
	if h.platform.LastText() != textUsageRename {
		t.Errorf("unexpected reply %q", h.platform.LastText())
	}

	h.send(t, "2", "/rename   list CHATS")
	if !strings.Contains(h.platform.LastText(), "reserved") {
		t.Errorf("expected reserved name reply, got %q", h.platform.LastText())
	}

	h.send(t, "3", "New chat")
	h.send(t, "4", "/rename Chat_1")
	if !strings.Contains(h.platform.LastText(), "already have a chat") {
		t.Errorf("expected duplicate name reply, got %q", h.platform.LastText())
	}
	if got := h.activeSession(t).Name; got != "chat_2" {
		t.Errorf("expected name unchanged, got %s", got)
	}

	h.send(t, "5", "/rename /work")
	if !strings.Contains(h.platform.LastText(), "can not start with /") {
		t.Errorf("expected command-like name reply, got %q", h.platform.LastText())
	}
	if got := h.activeSession(t).Name; got != "chat_2" {
		t.Errorf("expected name unchanged, got %s", got)
	}

	h.send(t, "7", "/rename   Work  ")
	if got := h.activeSession(t).Name; got != "Work" {
		t.Errorf("expected trimmed name Work, got %q", got)
	}
}

// TestDeleteCommand tests confirmation, removal and replacement of the last session
func TestDeleteCommand(t *testing.T) {
	h := newTestHarness(t, nil)

	h.send(t, "1", "/delete")
	if h.platform.LastText() != textUsageDelete || len(h.state(t).Sessions) != 1 {
		t.Fatalf("expected confirmation prompt, got %q", h.platform.LastText())
	}

	h.send(t, "2", "New chat")
	h.send(t, "3", "/delete yes")

	state := h.state(t)
	if _, ok := state.Sessions["2"]; ok || state.ActiveSessionID != "1" {
		t.Fatalf("expected session 2 removed and 1 active, got %+v", state)
	}
	if h.platform.LastText() != `Chat "chat_2" deleted. Active chat: "chat_1".` {
		t.Errorf("unexpected reply %q", h.platform.LastText())
	}

	h.send(t, "4", "/delete YES")

	state = h.state(t)
	if len(state.Sessions) != 1 || state.ActiveSessionID != "3" || state.Sessions["3"].Name != "chat_3" {
		t.Errorf("expected a fresh chat_3, got %+v", state)
	}
}

// TestSettingsCommand tests the settings summary
func TestSettingsCommand(t *testing.T) {
	h := newTestHarness(t, nil)

	h.send(t, "1", "/settings")

	for _, expected := range []string{"Temperature: 0.7", "Max tokens: 1024", "Active chat: chat_1", "Chats: 1"} {
		if !strings.Contains(h.platform.LastText(), expected) {
			t.Errorf("expected %q in %q", expected, h.platform.LastText())
		}
	}
}

// TestModelsCommand tests listing models and the failure reply
func TestModelsCommand(t *testing.T) {
	h := newTestHarness(t, nil)
	h.inference.ListModelsFunc = func(ctx context.Context) ([]domain.ModelInfo, error) {
		return []domain.ModelInfo{{ID: "qwen2.5-7b"}, {ID: "llama-3.1-8b"}}, nil
	}

	h.send(t, "1", "/models")
	if h.platform.LastText() != "Available models:\n- qwen2.5-7b\n- llama-3.1-8b" {
		t.Errorf("unexpected reply %q", h.platform.LastText())
	}

	h.inference.ListModelsFunc = func(ctx context.Context) ([]domain.ModelInfo, error) {
		return nil, domain.NewTransportError(errors.New("connection refused"))
	}
	h.send(t, "2", "/models")
	if !strings.HasPrefix(h.platform.LastText(), "Could not list models:") {
		t.Errorf("unexpected reply %q", h.platform.LastText())
	}
}

// TestHandleEventUnknownPlatform tests events from platforms that are not wired
func TestHandleEventUnknownPlatform(t *testing.T) {
	h := newTestHarness(t, nil)
	event := textEvent("1", "hello")
	event.Platform = domain.PlatformLine

	err := h.service.HandleEvent(context.Background(), event)

	if !errors.Is(err, domain.ErrUnknownPlatform) {
		t.Errorf("expected ErrUnknownPlatform, got %v", err)
	}
}

// TestHandleEventIgnoresBlankText tests that blank messages create no state
func TestHandleEventIgnoresBlankText(t *testing.T) {
	h := newTestHarness(t, nil)

	h.send(t, "1", "  \n ")

	state, _ := h.repo.Load(context.Background(), testUserKey)
	if state != nil {
		t.Error("expected no stored state")
	}
	if len(h.platform.Sent()) != 0 {
		t.Error("expected no reply")
	}
}

// TestHandleEventLoadFailure tests that storage read errors abort the event
func TestHandleEventLoadFailure(t *testing.T) {
	h := newTestHarness(t, nil)
	h.repo.LoadFunc = func(ctx context.Context, userKey string) (*domain.UserState, error) {
		return nil, errors.New("db down")
	}

	err := h.service.HandleEvent(context.Background(), textEvent("1", "hello"))

	if err == nil || !strings.Contains(err.Error(), "db down") {
		t.Errorf("expected load error, got %v", err)
	}
	if len(h.platform.Sent()) != 0 {
		t.Error("expected no reply")
	}
}

// TestHandleEventSaveFailure tests that storage write errors are returned
func TestHandleEventSaveFailure(t *testing.T) {
	h := newTestHarness(t, nil)
	diskFull := errors.New("disk full")
	h.repo.SaveFunc = func(ctx context.Context, userKey string, state *domain.UserState) error {
		return diskFull
	}

	err := h.service.HandleEvent(context.Background(), textEvent("1", "/start"))

	if !errors.Is(err, diskFull) {
		t.Errorf("expected save error, got %v", err)
	}
}

// TestEventsOfOneUserAreSerialized tests that concurrent events of a user do not interleave
func TestEventsOfOneUserAreSerialized(t *testing.T) {
	h := newTestHarness(t, nil)
	var inFlight, maxInFlight int32
	h.inference.ChatCompletionFunc = func(ctx context.Context, request domain.ChatCompletionRequest) (*domain.ChatCompletionResponse, error) {
		current := atomic.AddInt32(&inFlight, 1)
		for {
			seen := atomic.LoadInt32(&maxInFlight)
			if current <= seen || atomic.CompareAndSwapInt32(&maxInFlight, seen, current) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return &domain.ChatCompletionResponse{Content: "ok"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := h.service.HandleEvent(context.Background(), textEvent(fmt.Sprint(i), fmt.Sprintf("message %d", i))); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if maxInFlight != 1 {
		t.Errorf("expected one request at a time, saw %d", maxInFlight)
	}
	if got := len(h.activeSession(t).History); got != 11 {
		t.Errorf("expected 11 history messages, got %d", got)
	}
	if h.service.locks.size() != 0 {
		t.Errorf("expected no lock entries left, got %d", h.service.locks.size())
	}
}

// TestParseCommand tests splitting of command and arguments
func TestParseCommand(t *testing.T) {
	tests := []struct {
		input   string
		command string
		args    string
	}{
		{input: "/start", command: "/start"},
		{input: "/RENAME@my_bot  new name ", command: "/rename", args: "new name"},
		{input: "/settemp\t0.5", command: "/settemp", args: "0.5"},
		{input: "/delete@bot", command: "/delete"},
	}

	for _, tt := range tests {
		command, args := parseCommand(tt.input)
		if command != tt.command || args != tt.args {
			t.Errorf("parseCommand(%q) = %q, %q; expected %q, %q", tt.input, command, args, tt.command, tt.args)
		}
	}
}

// TestInferenceErrorText tests the user-facing text of each failure kind
func TestInferenceErrorText(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "status", err: domain.NewUpstreamStatusError(503, "loading"), expected: "LM Studio returned status 503: loading"},
		{name: "payload", err: domain.NewUpstreamPayloadError("model not loaded"), expected: "LM Studio returned an error: model not loaded"},
		{name: "transport", err: domain.NewTransportError(errors.New("timeout")), expected: "Error contacting LM Studio:\ntimeout"},
		{name: "wrapped", err: fmt.Errorf("turn: %w", domain.NewUpstreamStatusError(500, "x")), expected: "LM Studio returned status 500: x"},
		{name: "plain", err: errors.New("boom"), expected: "Error contacting LM Studio:\nboom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inferenceErrorText(tt.err); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
