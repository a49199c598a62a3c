package domain

// DTOs (Data Transfer Objects) - Domain layer request/response structures

type (
	// ChatCompletionRequest struct - Domain request DTO for the inference endpoint
	ChatCompletionRequest struct {
		Model       *string // Overrides the configured model when set
		Messages    []ChatMessage
		Temperature float64
		MaxTokens   int
	}

	// ChatCompletionResponse struct - Domain response DTO from the inference endpoint
	ChatCompletionResponse struct {
		Content          string
		Model            string
		PromptTokens     int
		CompletionTokens int
		TotalTokens      int
	}

	// ModelInfo struct - A model advertised by the inference endpoint
	ModelInfo struct {
		ID      string
		Object  string
		OwnedBy string
	}

	// SessionSummary struct - Read-only view of one session
	SessionSummary struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Active         bool   `json:"active"`
		Messages       int    `json:"messages"`
		BotMessageIDs  int    `json:"bot_message_ids"`
		UserMessageIDs int    `json:"user_message_ids"`
	}

	// UserSessionsView struct - Read-only view of a user's state
	UserSessionsView struct {
		UserKey     string           `json:"user_key"`
		Temperature float64          `json:"temperature"`
		MaxTokens   int              `json:"max_tokens"`
		Sessions    []SessionSummary `json:"sessions"`
	}
)
