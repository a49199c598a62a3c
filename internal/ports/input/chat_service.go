package input

import (
	"context"

	"github.com/cassiel99/gptbot/internal/domain"
)

// ChatService interface - Input port (use case)
// Defines what the application does with an inbound chat message
type ChatService interface {
	// HandleEvent processes one inbound text message: commands, keyboard buttons,
	// session switching or a chat turn against the language model.
	// Replies are sent through the platform client of the event's platform.
	// Events of the same user are processed one at a time.
	HandleEvent(ctx context.Context, event domain.ChatEvent) error
}
