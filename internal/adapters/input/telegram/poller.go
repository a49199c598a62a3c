package telegram

import (
	"container/list"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cassiel99/gptbot/configs"
	"github.com/cassiel99/gptbot/internal/domain"
	"github.com/cassiel99/gptbot/internal/ports/input"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
)

// Poller struct - Primary/Driving adapter receiving Telegram updates by long polling
type Poller struct {
	bot     *bot.Bot
	service input.ChatService

	// Pending events per user key, drained in arrival order by one worker each
	mu     sync.Mutex
	queues map[string]*list.List
	wg     sync.WaitGroup
}

// NewPoller func - Creates new Telegram long polling adapter
func NewPoller(config configs.Telegram, service input.ChatService) (*Poller, error) {
	p := &Poller{
		service: service,
		queues:  make(map[string]*list.List),
	}

	options := []bot.Option{
		bot.WithDefaultHandler(p.handleUpdate),
		bot.WithNotAsyncHandlers(),
		bot.WithSkipGetMe(),
	}
	if config.ServerURL != "" {
		options = append(options, bot.WithServerURL(config.ServerURL))
	}
	if config.PollTimeout > 0 {
		pollTimeout := time.Duration(config.PollTimeout) * time.Second
		options = append(options, bot.WithHTTPClient(pollTimeout, &http.Client{Timeout: pollTimeout + 10*time.Second}))
	}

	b, err := bot.New(config.Token, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	p.bot = b

	return p, nil
}

// Run polls for updates until ctx is cancelled, then waits for the updates in flight
func (p *Poller) Run(ctx context.Context) {
	logrus.Info("Telegram long polling started")
	p.bot.Start(ctx)
	p.wg.Wait()
	logrus.Info("Telegram long polling stopped")
}

// handleUpdate - Queues each text message behind the earlier messages of the same user.
// Updates arrive in order because handlers run synchronously in the polling loop.
func (p *Poller) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	event, ok := EventFromUpdate(update)
	if !ok {
		logrus.Debug("Ignoring Telegram update without text message")
		return
	}

	p.enqueue(ctx, event)
}

// enqueue appends the event to its user queue and starts a worker when none is running
func (p *Poller) enqueue(ctx context.Context, event domain.ChatEvent) {
	key := event.UserKey()

	p.mu.Lock()
	defer p.mu.Unlock()

	if queue, ok := p.queues[key]; ok {
		queue.PushBack(event)
		return
	}

	queue := list.New()
	queue.PushBack(event)
	p.queues[key] = queue

	p.wg.Add(1)
	// In-flight turns finish even when polling is being stopped
	go p.drain(context.WithoutCancel(ctx), key, queue)
}

func (p *Poller) drain(ctx context.Context, key string, queue *list.List) {
	defer p.wg.Done()
	for {
		event, ok := p.next(key, queue)
		if !ok {
			return
		}
		if err := p.service.HandleEvent(ctx, event); err != nil {
			logrus.WithFields(logrus.Fields{
				"platform": event.Platform,
				"user_id":  event.UserID,
			}).Errorf("Failed to handle Telegram message %s: %v", event.MessageID, err)
		}
	}
}

// next pops the oldest event of a queue, dropping the queue once it is empty
func (p *Poller) next(key string, queue *list.List) (domain.ChatEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	front := queue.Front()
	if front == nil {
		delete(p.queues, key)
		return domain.ChatEvent{}, false
	}
	queue.Remove(front)
	return front.Value.(domain.ChatEvent), true
}

// pending returns the number of users with queued or running events
func (p *Poller) pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queues)
}

// EventFromUpdate func - Converts a Telegram update with a text message to a domain event
func EventFromUpdate(update *models.Update) (domain.ChatEvent, bool) {
	if update == nil || update.Message == nil || update.Message.Text == "" {
		return domain.ChatEvent{}, false
	}
	message := update.Message

	userID := message.Chat.ID
	if message.From != nil {
		userID = message.From.ID
	}

	return domain.ChatEvent{
		Platform:  domain.PlatformTelegram,
		UserID:    strconv.FormatInt(userID, 10),
		ChatID:    strconv.FormatInt(message.Chat.ID, 10),
		MessageID: strconv.Itoa(message.ID),
		Text:      message.Text,
		Timestamp: time.Unix(int64(message.Date), 0),
	}, true
}
