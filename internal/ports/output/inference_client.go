package output

import (
	"context"

	"github.com/cassiel99/gptbot/internal/domain"
)

// InferenceClient interface - Output port
// Defines what the application needs from an OpenAI-compatible completion endpoint
type InferenceClient interface {
	// ChatCompletion sends the full message history and returns the first choice.
	// Every failure is a *domain.InferenceError.
	ChatCompletion(ctx context.Context, request domain.ChatCompletionRequest) (*domain.ChatCompletionResponse, error)

	// ListModels queries the models the endpoint can serve
	ListModels(ctx context.Context) ([]domain.ModelInfo, error)

	// Close releases pooled connections
	Close() error
}
