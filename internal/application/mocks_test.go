package application

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/cassiel99/gptbot/internal/adapters/output/memory"
	"github.com/cassiel99/gptbot/internal/domain"
	"github.com/cassiel99/gptbot/internal/ports/output"
	"github.com/cassiel99/gptbot/pkg/textutil"
)

const (
	testSystemPrompt = "You are a helpful assistant."
	testUserID       = "42"
	testUserKey      = "telegram:42"
)

// Mock implementations for testing

// MockPlatformClient implements output.PlatformClient for testing
type MockPlatformClient struct {
	SendTextFunc      func(ctx context.Context, message domain.OutgoingMessage) (string, error)
	DeleteMessageFunc func(ctx context.Context, chatID, messageID string) error
	SendTypingFunc    func(ctx context.Context, chatID string) error
	Limit             int

	mu          sync.Mutex
	nextID      int
	sent        []domain.OutgoingMessage
	deleted     []string
	typingCalls int
}

func (m *MockPlatformClient) Platform() domain.Platform {
	return domain.PlatformTelegram
}

func (m *MockPlatformClient) MessageLimit() int {
	if m.Limit == 0 {
		return 4096
	}
	return m.Limit
}

func (m *MockPlatformClient) SendText(ctx context.Context, message domain.OutgoingMessage) (string, error) {
	m.mu.Lock()
	m.sent = append(m.sent, message)
	m.nextID++
	id := strconv.Itoa(1000 + m.nextID)
	m.mu.Unlock()

	if m.SendTextFunc != nil {
		return m.SendTextFunc(ctx, message)
	}
	return id, nil
}

func (m *MockPlatformClient) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	m.mu.Lock()
	m.deleted = append(m.deleted, messageID)
	m.mu.Unlock()

	if m.DeleteMessageFunc != nil {
		return m.DeleteMessageFunc(ctx, chatID, messageID)
	}
	return nil
}

func (m *MockPlatformClient) SendTyping(ctx context.Context, chatID string) error {
	m.mu.Lock()
	m.typingCalls++
	m.mu.Unlock()

	if m.SendTypingFunc != nil {
		return m.SendTypingFunc(ctx, chatID)
	}
	return nil
}

func (m *MockPlatformClient) Sent() []domain.OutgoingMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OutgoingMessage(nil), m.sent...)
}

func (m *MockPlatformClient) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

func (m *MockPlatformClient) LastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].Text
}

// MockInferenceClient implements output.InferenceClient for testing
type MockInferenceClient struct {
	ChatCompletionFunc func(ctx context.Context, request domain.ChatCompletionRequest) (*domain.ChatCompletionResponse, error)
	ListModelsFunc     func(ctx context.Context) ([]domain.ModelInfo, error)

	mu       sync.Mutex
	requests []domain.ChatCompletionRequest
}

func (m *MockInferenceClient) ChatCompletion(ctx context.Context, request domain.ChatCompletionRequest) (*domain.ChatCompletionResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, request)
	m.mu.Unlock()

	if m.ChatCompletionFunc != nil {
		return m.ChatCompletionFunc(ctx, request)
	}
	return &domain.ChatCompletionResponse{Content: "AI response", Model: "test-model"}, nil
}

func (m *MockInferenceClient) ListModels(ctx context.Context) ([]domain.ModelInfo, error) {
	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx)
	}
	return []domain.ModelInfo{{ID: "test-model"}}, nil
}

func (m *MockInferenceClient) Close() error {
	return nil
}

func (m *MockInferenceClient) Requests() []domain.ChatCompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ChatCompletionRequest(nil), m.requests...)
}

// MockStateRepository wraps the in-memory repository with overridable Load and Save
type MockStateRepository struct {
	*memory.StateRepository
	LoadFunc func(ctx context.Context, userKey string) (*domain.UserState, error)
	SaveFunc func(ctx context.Context, userKey string, state *domain.UserState) error
}

func newMockStateRepository() *MockStateRepository {
	return &MockStateRepository{StateRepository: memory.NewStateRepository()}
}

func (m *MockStateRepository) Load(ctx context.Context, userKey string) (*domain.UserState, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, userKey)
	}
	return m.StateRepository.Load(ctx, userKey)
}

func (m *MockStateRepository) Save(ctx context.Context, userKey string, state *domain.UserState) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, userKey, state)
	}
	return m.StateRepository.Save(ctx, userKey, state)
}

func newTestSessionManager() *domain.SessionManager {
	return domain.NewSessionManager(domain.SessionManagerConfig{
		SystemPrompt:  testSystemPrompt,
		ReservedNames: ReservedNames,
	})
}

// testHarness bundles a chat service with its mocks
type testHarness struct {
	service   *ChatService
	repo      *MockStateRepository
	platform  *MockPlatformClient
	inference *MockInferenceClient
}

func newTestHarness(t *testing.T, normalizer textutil.Normalizer) *testHarness {
	t.Helper()
	h := &testHarness{
		repo:      newMockStateRepository(),
		platform:  &MockPlatformClient{},
		inference: &MockInferenceClient{},
	}

	service, err := NewChatService(newTestSessionManager(), h.repo, h.inference, normalizer, "Support us!", h.platform)
	if err != nil {
		t.Fatalf("failed to create chat service: %v", err)
	}
	h.service = service
	return h
}

// send handles a text message from the test user and fails the test on error
func (h *testHarness) send(t *testing.T, messageID, text string) {
	t.Helper()
	if err := h.service.HandleEvent(context.Background(), textEvent(messageID, text)); err != nil {
		t.Fatalf("unexpected error handling %q: %v", text, err)
	}
}

func (h *testHarness) state(t *testing.T) *domain.UserState {
	t.Helper()
	state, err := h.repo.Load(context.Background(), testUserKey)
	if err != nil || state == nil {
		t.Fatalf("expected stored state, got %v, %v", state, err)
	}
	return state
}

func (h *testHarness) activeSession(t *testing.T) *domain.ChatSession {
	t.Helper()
	state := h.state(t)
	return state.Sessions[state.ActiveSessionID]
}

func textEvent(messageID, text string) domain.ChatEvent {
	return domain.ChatEvent{
		Platform:  domain.PlatformTelegram,
		UserID:    testUserID,
		ChatID:    testUserID,
		MessageID: messageID,
		Text:      text,
	}
}

var _ output.PlatformClient = (*MockPlatformClient)(nil)
var _ output.InferenceClient = (*MockInferenceClient)(nil)
var _ output.StateRepository = (*MockStateRepository)(nil)
