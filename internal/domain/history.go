package domain

import "unicode/utf8"

const (
	// DefaultMaxHistoryMessages is the number of non-system messages kept in a history
	DefaultMaxHistoryMessages = 200
	// DefaultMaxHistoryChars is the character budget of a whole history
	DefaultMaxHistoryChars = 24000

	// minKeptMessages is the floor the character budget never trims below
	minKeptMessages = 2
)

// TrimHistory bounds a conversation history by message count and by character volume.
//
// A leading system message is always kept untouched. The remaining messages are first
// capped to the newest maxMessages, then the two oldest are dropped at a time while the
// whole history exceeds maxChars and more than two of them remain.
// The input slice is never modified; the result is a fresh slice.
func TrimHistory(history []ChatMessage, maxMessages, maxChars int) []ChatMessage {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxHistoryMessages
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxHistoryChars
	}

	var system *ChatMessage
	rest := history
	if len(history) > 0 && history[0].Role == ChatMessageRoleSystem {
		system = &history[0]
		rest = history[1:]
	}

	if len(rest) > maxMessages {
		rest = rest[len(rest)-maxMessages:]
	}

	total := 0
	if system != nil {
		total += utf8.RuneCountInString(system.Content)
	}
	for _, msg := range rest {
		total += utf8.RuneCountInString(msg.Content)
	}

	for total > maxChars && len(rest) > minKeptMessages {
		drop := 2
		if len(rest)-drop < minKeptMessages {
			drop = len(rest) - minKeptMessages
		}
		for _, msg := range rest[:drop] {
			total -= utf8.RuneCountInString(msg.Content)
		}
		rest = rest[drop:]
	}

	trimmed := make([]ChatMessage, 0, len(rest)+1)
	if system != nil {
		trimmed = append(trimmed, *system)
	}
	return append(trimmed, rest...)
}
