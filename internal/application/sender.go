package application

import (
	"context"
	"fmt"

	"github.com/cassiel99/gptbot/internal/domain"
	"github.com/cassiel99/gptbot/internal/ports/output"
	"github.com/cassiel99/gptbot/pkg/textutil"
)

// sendText splits text to the platform limit and sends the chunks in order.
// The keyboard goes with the last chunk and every returned id is tracked on session.
// The first failed chunk stops the rest.
func (s *ChatService) sendText(ctx context.Context, client output.PlatformClient, chatID string, session *domain.ChatSession, text string, keyboard [][]string) error {
	chunks := textutil.SplitTextUTF16(text, client.MessageLimit())
	for i, chunk := range chunks {
		message := domain.OutgoingMessage{
			ChatID: chatID,
			Text:   chunk,
		}
		if i == len(chunks)-1 {
			message.Keyboard = keyboard
		}

		id, err := client.SendText(ctx, message)
		if err != nil {
			return fmt.Errorf("failed to send chunk %d of %d: %w", i+1, len(chunks), err)
		}
		if id != "" {
			s.sessions.TrackBotMessages(session, id)
		}
	}
	return nil
}

// deleteTracked deletes every tracked message of session from the chat.
// Ids that could not be deleted stay tracked for a later attempt.
func deleteTracked(ctx context.Context, client output.PlatformClient, chatID string, session *domain.ChatSession) []domain.DeletionOutcome {
	outcomes := make([]domain.DeletionOutcome, 0, len(session.BotMessageIDs)+len(session.UserMessageIDs))
	session.BotMessageIDs, outcomes = deleteIDs(ctx, client, chatID, session.BotMessageIDs, domain.TrackedMessageBot, outcomes)
	session.UserMessageIDs, outcomes = deleteIDs(ctx, client, chatID, session.UserMessageIDs, domain.TrackedMessageUser, outcomes)
	return outcomes
}

func deleteIDs(ctx context.Context, client output.PlatformClient, chatID string, ids []string, kind domain.TrackedMessageKind, outcomes []domain.DeletionOutcome) ([]string, []domain.DeletionOutcome) {
	retained := make([]string, 0)
	for _, id := range ids {
		err := client.DeleteMessage(ctx, chatID, id)
		outcomes = append(outcomes, domain.DeletionOutcome{
			MessageID: id,
			Kind:      kind,
			Deleted:   err == nil,
			Err:       err,
		})
		if err != nil {
			retained = append(retained, id)
		}
	}
	return retained, outcomes
}
