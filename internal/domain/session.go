package domain

// DefaultMaxTrackedMessages bounds each tracked message id list of a session
const DefaultMaxTrackedMessages = 700

// ChatSession represents one named conversation thread of a user
type ChatSession struct {
	ID             string        `json:"id"`               // Stable id minted from the user's counter
	Name           string        `json:"name"`             // Display name, unique per user (case-insensitive)
	History        []ChatMessage `json:"history"`          // Conversation history, system prompt first
	BotMessageIDs  []string      `json:"bot_message_ids"`  // Platform ids of messages the bot sent
	UserMessageIDs []string      `json:"user_message_ids"` // Platform ids of messages the user sent
}

// NewChatSession creates a session whose history holds only the system prompt
func NewChatSession(id, name, systemPrompt string) *ChatSession {
	return &ChatSession{
		ID:             id,
		Name:           name,
		History:        []ChatMessage{SystemMessage(systemPrompt)},
		BotMessageIDs:  make([]string, 0),
		UserMessageIDs: make([]string, 0),
	}
}

// Append adds a message to the end of the history
func (s *ChatSession) Append(msg ChatMessage) {
	s.History = append(s.History, msg)
}

// Trim applies the history budget in place
func (s *ChatSession) Trim(maxMessages, maxChars int) {
	s.History = TrimHistory(s.History, maxMessages, maxChars)
}

// GetHistory returns a copy of the conversation history
func (s *ChatSession) GetHistory() []ChatMessage {
	if len(s.History) == 0 {
		return []ChatMessage{}
	}

	history := make([]ChatMessage, len(s.History))
	copy(history, s.History)
	return history
}

// TrackBotMessages records ids of messages the bot sent, keeping only the newest limit ids
func (s *ChatSession) TrackBotMessages(limit int, ids ...string) {
	s.BotMessageIDs = capIDs(append(s.BotMessageIDs, ids...), limit)
}

// TrackUserMessage records the id of a message the user sent, keeping only the newest limit ids
func (s *ChatSession) TrackUserMessage(limit int, id string) {
	if id == "" {
		return
	}
	s.UserMessageIDs = capIDs(append(s.UserMessageIDs, id), limit)
}

func capIDs(ids []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultMaxTrackedMessages
	}
	if len(ids) <= limit {
		return ids
	}
	kept := make([]string, limit)
	copy(kept, ids[len(ids)-limit:])
	return kept
}

// Clone returns a deep copy of the session
func (s *ChatSession) Clone() *ChatSession {
	return &ChatSession{
		ID:             s.ID,
		Name:           s.Name,
		History:        append(make([]ChatMessage, 0, len(s.History)), s.History...),
		BotMessageIDs:  append(make([]string, 0, len(s.BotMessageIDs)), s.BotMessageIDs...),
		UserMessageIDs: append(make([]string, 0, len(s.UserMessageIDs)), s.UserMessageIDs...),
	}
}
