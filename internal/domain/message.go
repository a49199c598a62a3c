package domain

// ChatMessageRole represents the author of a message in a conversation
type ChatMessageRole string

const (
	// ChatMessageRoleSystem - System prompt
	ChatMessageRoleSystem ChatMessageRole = "system"
	// ChatMessageRoleUser - Message written by the user
	ChatMessageRoleUser ChatMessageRole = "user"
	// ChatMessageRoleAssistant - Message generated by the model
	ChatMessageRoleAssistant ChatMessageRole = "assistant"
)

// ChatMessage represents a single role-tagged message in a session history
type ChatMessage struct {
	Role    ChatMessageRole `json:"role"`
	Content string          `json:"content"`
}

// SystemMessage builds the system prompt entry that opens every history
func SystemMessage(prompt string) ChatMessage {
	return ChatMessage{Role: ChatMessageRoleSystem, Content: prompt}
}
