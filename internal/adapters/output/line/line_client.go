package line

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/cassiel99/gptbot/internal/domain"
	"github.com/cassiel99/gptbot/internal/ports/output"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/sirupsen/logrus"
)

const (
	// MessageLimit is the LINE text message limit, in UTF-16 code units
	MessageLimit = 5000

	maxQuickReplyItems = 13
	maxQuickReplyLabel = 20
	loadingSeconds     = 20
	quickReplyItemType = "action"
)

// Compile-time check that LineClientAdapter implements output.PlatformClient
var _ output.PlatformClient = (*LineClientAdapter)(nil)

// LineClientAdapter struct - Output adapter for LINE messaging platform
type LineClientAdapter struct {
	client *messaging_api.MessagingApiAPI
}

// NewLineClientAdapter func - Creates new LINE client adapter
func NewLineClientAdapter(channelToken string, options ...messaging_api.MessagingApiAPIOption) (*LineClientAdapter, error) {
	client, err := messaging_api.NewMessagingApiAPI(channelToken, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE messaging API client: %w", err)
	}

	return &LineClientAdapter{
		client: client,
	}, nil
}

// Platform - Identifies LINE
func (a *LineClientAdapter) Platform() domain.Platform {
	return domain.PlatformLine
}

// MessageLimit - Maximum message length in UTF-16 code units
func (a *LineClientAdapter) MessageLimit() int {
	return MessageLimit
}

// SendText - Pushes a text message to a user, group or room.
// Keyboard buttons become quick replies.
func (a *LineClientAdapter) SendText(ctx context.Context, message domain.OutgoingMessage) (string, error) {
	text := &messaging_api.TextMessage{
		Text:       message.Text,
		QuickReply: quickReply(message.Keyboard),
	}

	req := &messaging_api.PushMessageRequest{
		To:       message.ChatID,
		Messages: []messaging_api.MessageInterface{text},
	}

	resp, err := a.client.WithContext(ctx).PushMessage(req, uuid.NewString())
	if err != nil {
		return "", fmt.Errorf("failed to send push message: %w", err)
	}

	logrus.Debugf("Successfully sent push message to: %s", message.ChatID)

	if resp == nil || len(resp.SentMessages) == 0 {
		return "", nil
	}
	return resp.SentMessages[0].Id, nil
}

// DeleteMessage - LINE has no API to delete messages
func (a *LineClientAdapter) DeleteMessage(_ context.Context, _, _ string) error {
	return domain.ErrDeleteUnsupported
}

// SendTyping - Shows the loading animation in a one-on-one chat
func (a *LineClientAdapter) SendTyping(ctx context.Context, chatID string) error {
	_, err := a.client.WithContext(ctx).ShowLoadingAnimation(&messaging_api.ShowLoadingAnimationRequest{
		ChatId:         chatID,
		LoadingSeconds: loadingSeconds,
	})
	if err != nil {
		return fmt.Errorf("failed to show loading animation: %w", err)
	}
	return nil
}

// quickReply - Converts keyboard rows to quick reply buttons, nil when there are none
func quickReply(rows [][]string) *messaging_api.QuickReply {
	items := make([]messaging_api.QuickReplyItem, 0, maxQuickReplyItems)
	for _, row := range rows {
		for _, label := range row {
			if len(items) == maxQuickReplyItems {
				return &messaging_api.QuickReply{Items: items}
			}
			items = append(items, messaging_api.QuickReplyItem{
				Type: quickReplyItemType,
				Action: &messaging_api.MessageAction{
					Label: truncateLabel(label),
					Text:  label,
				},
			})
		}
	}
	if len(items) == 0 {
		return nil
	}
	return &messaging_api.QuickReply{Items: items}
}

func truncateLabel(label string) string {
	if utf8.RuneCountInString(label) <= maxQuickReplyLabel {
		return label
	}
	return string([]rune(label)[:maxQuickReplyLabel])
}
