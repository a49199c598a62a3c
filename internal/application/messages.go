package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cassiel99/gptbot/internal/domain"
)

// Keyboard button labels
const (
	ButtonNewChat   = "New chat"
	ButtonListChats = "List chats"
	ButtonDonate    = "Donate"
	ButtonBack      = "Back"
)

// ReservedNames are the labels that can not be used as session names
var ReservedNames = []string{ButtonNewChat, ButtonListChats, ButtonDonate, ButtonBack}

const (
	textWelcome = "Hi! I am a bot running on LM Studio.\n" +
		"Write me anything, or use the buttons below to manage your chats.\n" +
		"Type /help to see all commands."

	textHelp = "Available commands:\n" +
		"/start - Show the main menu\n" +
		"/help - Show this message\n" +
		"/donate - Support the project\n" +
		"/settemp <0..1> - Set the sampling temperature\n" +
		"/setmaxtokens <1..2048> - Set the reply token budget\n" +
		"/reset - Clear the current chat\n" +
		"/rename <name> - Rename the current chat\n" +
		"/delete yes - Delete the current chat\n" +
		"/settings - Show your settings\n" +
		"/models - List the available models\n\n" +
		"Send the name of a chat to switch to it."

	textMainMenu        = "Main menu"
	textReset           = "Chat context reset!"
	textUsageSetTemp    = "Usage: /settemp <value>, where value is a number from 0 to 1"
	textUsageMaxTokens  = "Usage: /setmaxtokens <value>, where value is an integer from 1 to 2048"
	textUsageRename     = "Usage: /rename <new name>"
	textUsageDelete     = "This deletes the current chat and its history.\nSend /delete yes to confirm."
	textEmptyReply      = "The model returned an empty reply."
	textModelsFailed    = "Could not list models: %v"
	textNoModels        = "No models are available."
	textUnknownCommand  = "Unknown command: %s\nType /help for available commands"
	textAlreadyActive   = "You are already in chat %q."
	textSwitched        = "Switched to chat %q."
	textCreated         = "Created chat %q and switched to it."
	textRenamed         = "Chat renamed to %q."
	textDeleted         = "Chat %q deleted. Active chat: %q."
	textTemperatureSet  = "Temperature set to %g."
	textMaxTokensSet    = "Max tokens set to %d."
	textUpstreamStatus  = "LM Studio returned status %d: %s"
	textUpstreamPayload = "LM Studio returned an error: %s"
	textTransport       = "Error contacting LM Studio:\n%v"
)

// mainKeyboard is shown with most replies
func mainKeyboard() [][]string {
	return [][]string{
		{ButtonNewChat, ButtonListChats},
		{ButtonDonate},
	}
}

// sessionsKeyboard lists session names two per row, followed by Back
func sessionsKeyboard(sessions []*domain.ChatSession) [][]string {
	rows := make([][]string, 0, len(sessions)/2+2)
	for i := 0; i < len(sessions); i += 2 {
		row := []string{sessions[i].Name}
		if i+1 < len(sessions) {
			row = append(row, sessions[i+1].Name)
		}
		rows = append(rows, row)
	}
	return append(rows, []string{ButtonBack})
}

func sessionsText(sessions []*domain.ChatSession, activeID string) string {
	var b strings.Builder
	b.WriteString("Your chats:\n")
	for _, session := range sessions {
		marker := "  "
		if session.ID == activeID {
			marker = "▶ "
		}
		fmt.Fprintf(&b, "%s%s (%d messages)\n", marker, session.Name, len(session.History)-1)
	}
	b.WriteString("\nSend a chat name to switch to it.")
	return b.String()
}

func settingsText(state *domain.UserState, active *domain.ChatSession) string {
	return fmt.Sprintf("Settings:\nTemperature: %g\nMax tokens: %d\nActive chat: %s\nChats: %d",
		state.Temperature, state.MaxTokens, active.Name, len(state.Sessions))
}

func modelsText(models []domain.ModelInfo) string {
	if len(models) == 0 {
		return textNoModels
	}
	var b strings.Builder
	b.WriteString("Available models:\n")
	for _, model := range models {
		fmt.Fprintf(&b, "- %s\n", model.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}

// renameErrorText explains a rejected rename
func renameErrorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptySessionName):
		return "The chat name can not be empty.\n" + textUsageRename
	case errors.Is(err, domain.ErrInvalidSessionName):
		return "The chat name can not start with /, please choose another one."
	case errors.Is(err, domain.ErrReservedSessionName):
		return "That name is reserved for a button, please choose another one."
	case errors.Is(err, domain.ErrDuplicateSessionName):
		return "You already have a chat with that name, please choose another one."
	default:
		return err.Error()
	}
}

// inferenceErrorText converts a failed generation into the text shown to the user
func inferenceErrorText(err error) string {
	var inferenceErr *domain.InferenceError
	if !errors.As(err, &inferenceErr) {
		return fmt.Sprintf(textTransport, err)
	}
	switch inferenceErr.Kind {
	case domain.InferenceErrorUpstreamStatus:
		return fmt.Sprintf(textUpstreamStatus, inferenceErr.StatusCode, inferenceErr.Body)
	case domain.InferenceErrorUpstreamPayload:
		return fmt.Sprintf(textUpstreamPayload, inferenceErr.Message)
	default:
		return fmt.Sprintf(textTransport, inferenceErr.Err)
	}
}
