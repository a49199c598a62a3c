package domain

import "time"

// Platform identifies the chat platform an event came from
type Platform string

const (
	// PlatformTelegram - Telegram Bot API
	PlatformTelegram Platform = "telegram"
	// PlatformLine - LINE Messaging API
	PlatformLine Platform = "line"
)

// ChatEvent represents an inbound text message from a chat platform (domain entity)
type ChatEvent struct {
	ID        string // Correlation id, filled in by the chat service when empty
	Platform  Platform
	UserID    string // Platform user identifier
	ChatID    string // Conversation the reply goes to
	MessageID string // Platform id of the inbound message, tracked for cleanup
	Text      string
	Timestamp time.Time
}

// UserKey is the storage key of the user that sent the event
func (e ChatEvent) UserKey() string {
	return UserKey(e.Platform, e.UserID)
}

// UserKey builds the storage key of a platform user
func UserKey(platform Platform, userID string) string {
	return string(platform) + ":" + userID
}

// OutgoingMessage represents a text message the bot sends
type OutgoingMessage struct {
	ChatID   string
	Text     string
	Keyboard [][]string // Reply keyboard rows of button labels, nil keeps the current keyboard
}

// TrackedMessageKind tells which tracked list an id belongs to
type TrackedMessageKind string

const (
	// TrackedMessageBot - Message sent by the bot
	TrackedMessageBot TrackedMessageKind = "bot"
	// TrackedMessageUser - Message sent by the user
	TrackedMessageUser TrackedMessageKind = "user"
)

// DeletionOutcome reports the result of deleting one tracked message
type DeletionOutcome struct {
	MessageID string
	Kind      TrackedMessageKind
	Deleted   bool  // false means the id was retained for a later attempt
	Err       error // Why the deletion failed
}
