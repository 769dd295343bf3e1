// Package telegram delivers the quiz conversation over the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/abhisek/levelup/internal/metrics"
	"github.com/abhisek/levelup/internal/session"
)

const (
	// choicesPerRow is the reply keyboard width.
	choicesPerRow = 3

	queueSize   = 16
	idleTimeout = 10 * time.Minute
	pollTimeout = 60
)

// Handler turns one user message into replies.
type Handler interface {
	Handle(ctx context.Context, userID int64, text string) ([]session.Reply, error)
}

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type inbound struct {
	chatID int64
	userID int64
	text   string
}

// Bot reads updates by long polling and answers them. Messages of one user
// are handled in order by a dedicated worker; different users run
// concurrently.
type Bot struct {
	api     API
	handler Handler
	log     *zap.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	queues map[int64]chan inbound
	wg     sync.WaitGroup
	idle   time.Duration
}

// NewBot authorizes token against the Bot API.
func NewBot(token string, handler Handler, log *zap.Logger, m *metrics.Metrics) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authorize bot: %w", err)
	}
	b := New(api, handler, log, m)
	b.log.Info("authorized", zap.String("account", api.Self.UserName))
	return b, nil
}

// New creates a Bot over an existing API client.
func New(api API, handler Handler, log *zap.Logger, m *metrics.Metrics) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		api:     api,
		handler: handler,
		log:     log,
		metrics: m,
		queues:  make(map[int64]chan inbound),
		idle:    idleTimeout,
	}
}

// Run polls for updates until ctx is cancelled, then waits for queued
// messages to be handled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(u)

	// Queued messages are drained after shutdown starts.
	workCtx := context.WithoutCancel(ctx)
	defer b.shutdown()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(workCtx, upd)
		}
	}
}

// dispatch queues a text message for its user's worker.
func (b *Bot) dispatch(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Text == "" || msg.Chat == nil {
		return
	}
	in := inbound{chatID: msg.Chat.ID, userID: msg.Chat.ID, text: msg.Text}
	if msg.From != nil {
		in.userID = msg.From.ID
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[in.userID]
	if !ok {
		q = make(chan inbound, queueSize)
		b.queues[in.userID] = q
		b.wg.Add(1)
		go b.worker(ctx, in.userID, q)
	}
	// Never block the update loop on one user's backlog.
	select {
	case q <- in:
	default:
		b.log.Warn("user queue full, message dropped", zap.Int64("user_id", in.userID))
	}
}

func (b *Bot) worker(ctx context.Context, userID int64, q chan inbound) {
	defer b.wg.Done()
	timer := time.NewTimer(b.idle)
	defer timer.Stop()

	for {
		select {
		case in, ok := <-q:
			if !ok {
				return
			}
			b.process(ctx, in)
			timer.Reset(b.idle)
		case <-timer.C:
			b.mu.Lock()
			if len(q) == 0 {
				delete(b.queues, userID)
				b.mu.Unlock()
				return
			}
			b.mu.Unlock()
			timer.Reset(b.idle)
		}
	}
}

// shutdown stops all workers after their queues drain.
func (b *Bot) shutdown() {
	b.mu.Lock()
	for id, q := range b.queues {
		close(q)
		delete(b.queues, id)
	}
	b.mu.Unlock()
	b.wg.Wait()
}

func (b *Bot) process(ctx context.Context, in inbound) {
	start := time.Now()
	defer func() { b.metrics.ObserveUpdate(time.Since(start)) }()

	replies, err := b.handler.Handle(ctx, in.userID, in.text)
	if err != nil {
		b.log.Warn("handle message", zap.Int64("user_id", in.userID), zap.Error(err))
	}
	for _, r := range replies {
		if _, err := b.api.Send(render(in.chatID, r)); err != nil {
			b.log.Error("send message", zap.Int64("chat_id", in.chatID), zap.Error(err))
		}
	}
}

// render converts a reply into a Telegram message.
func render(chatID int64, r session.Reply) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, r.Text)
	switch {
	case len(r.Choices) > 0:
		var rows [][]tgbotapi.KeyboardButton
		for i := 0; i < len(r.Choices); i += choicesPerRow {
			end := min(i+choicesPerRow, len(r.Choices))
			var row []tgbotapi.KeyboardButton
			for _, c := range r.Choices[i:end] {
				row = append(row, tgbotapi.NewKeyboardButton(c))
			}
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
		}
		kb := tgbotapi.NewReplyKeyboard(rows...)
		kb.ResizeKeyboard = true
		msg.ReplyMarkup = kb
	case r.RemoveKeyboard:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}
	return msg
}
