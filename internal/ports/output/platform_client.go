package output

import (
	"context"

	"github.com/cassiel99/gptbot/internal/domain"
)

// PlatformClient interface - Output port
// Defines what the application needs from a chat platform
type PlatformClient interface {
	// Platform identifies the platform served by this client
	Platform() domain.Platform

	// MessageLimit is the maximum message length in UTF-16 code units
	MessageLimit() int

	// SendText sends one message, which must fit MessageLimit, and returns its platform id.
	// The id may be empty when the platform does not report one.
	SendText(ctx context.Context, message domain.OutgoingMessage) (string, error)

	// DeleteMessage removes a previously sent or received message.
	// Returns domain.ErrDeleteUnsupported when the platform cannot delete messages.
	DeleteMessage(ctx context.Context, chatID, messageID string) error

	// SendTyping shows a typing indicator in the chat
	SendTyping(ctx context.Context, chatID string) error
}
