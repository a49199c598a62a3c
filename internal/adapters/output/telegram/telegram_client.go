package telegram

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cassiel99/gptbot/configs"
	"github.com/cassiel99/gptbot/internal/domain"
	"github.com/cassiel99/gptbot/internal/ports/output"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
)

// MessageLimit is the Telegram text message limit, in UTF-16 code units
const MessageLimit = 4096

// Compile-time check that TelegramClientAdapter implements output.PlatformClient
var _ output.PlatformClient = (*TelegramClientAdapter)(nil)

// TelegramClientAdapter struct - Output adapter for the Telegram Bot API
type TelegramClientAdapter struct {
	bot *bot.Bot
}

// NewTelegramClientAdapter func - Creates new Telegram client adapter
func NewTelegramClientAdapter(config configs.Telegram) (*TelegramClientAdapter, error) {
	opts := []bot.Option{bot.WithSkipGetMe()}
	if config.ServerURL != "" {
		opts = append(opts, bot.WithServerURL(config.ServerURL))
	}

	b, err := bot.New(config.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot client: %w", err)
	}

	return &TelegramClientAdapter{
		bot: b,
	}, nil
}

// Platform - Identifies Telegram
func (a *TelegramClientAdapter) Platform() domain.Platform {
	return domain.PlatformTelegram
}

// MessageLimit - Maximum message length in UTF-16 code units
func (a *TelegramClientAdapter) MessageLimit() int {
	return MessageLimit
}

// SendText - Sends a text message, with a reply keyboard when one is given
func (a *TelegramClientAdapter) SendText(ctx context.Context, message domain.OutgoingMessage) (string, error) {
	chatID, err := parseChatID(message.ChatID)
	if err != nil {
		return "", err
	}

	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   message.Text,
	}
	if message.Keyboard != nil {
		params.ReplyMarkup = replyKeyboard(message.Keyboard)
	}

	sent, err := a.bot.SendMessage(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to send message to chat %s: %w", message.ChatID, err)
	}

	logrus.Debugf("Sent message %d to chat %s", sent.ID, message.ChatID)
	return strconv.Itoa(sent.ID), nil
}

// DeleteMessage - Deletes a message from a chat
func (a *TelegramClientAdapter) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	chat, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(messageID)
	if err != nil {
		return fmt.Errorf("invalid telegram message id %q: %w", messageID, err)
	}

	if _, err := a.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chat,
		MessageID: id,
	}); err != nil {
		return fmt.Errorf("failed to delete message %s in chat %s: %w", messageID, chatID, err)
	}
	return nil
}

// SendTyping - Shows the typing indicator
func (a *TelegramClientAdapter) SendTyping(ctx context.Context, chatID string) error {
	chat, err := parseChatID(chatID)
	if err != nil {
		return err
	}

	if _, err := a.bot.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID: chat,
		Action: models.ChatActionTyping,
	}); err != nil {
		return fmt.Errorf("failed to send typing to chat %s: %w", chatID, err)
	}
	return nil
}

func replyKeyboard(rows [][]string) *models.ReplyKeyboardMarkup {
	keyboard := make([][]models.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]models.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, models.KeyboardButton{Text: label})
		}
		keyboard = append(keyboard, buttons)
	}
	return &models.ReplyKeyboardMarkup{
		Keyboard:       keyboard,
		ResizeKeyboard: true,
	}
}

func parseChatID(chatID string) (int64, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}
	return id, nil
}
