// Package telegram is the messaging transport adapter: it receives
// inbound updates over long polling, funnels them through one worker
// per chat so a user's events are processed strictly in order, and
// sends the rendered replies back.
package telegram

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ssolovev/fishmonger/internal/logging"
	"github.com/ssolovev/fishmonger/pkg/domain"
)

// Handler processes one inbound event and returns the reply to send.
// A nil reply with nil error means "send nothing".
type Handler func(ctx context.Context, ev domain.Event) (*domain.Reply, error)

// workerIdleTimeout is how long a per-chat worker lingers without
// traffic before it is reaped.
const workerIdleTimeout = 5 * time.Minute

// workerQueueSize bounds the per-chat backlog; beyond it updates are
// dropped (the user is flooding faster than we answer).
const workerQueueSize = 16

// sender is the subset of the bot API used for outbound messages.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot runs the long-poll loop and dispatches updates.
type Bot struct {
	api     *tgbotapi.BotAPI
	out     sender
	handler Handler
	logger  *slog.Logger

	mu      sync.Mutex
	workers map[int64]chan tgbotapi.Update
	wg      sync.WaitGroup
}

// Option configures the Bot.
type Option func(*Bot)

// WithLogger configures the bot's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// New connects to the Bot API with the given token.
func New(token string, handler Handler, opts ...Option) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	b := &Bot{
		api:     api,
		out:     api,
		handler: handler,
		logger:  logging.NewNop(),
		workers: make(map[int64]chan tgbotapi.Update),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Run polls for updates until the context is canceled, then waits for
// in-flight workers to drain.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	b.logger.Info("bot started", "username", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			b.logger.Info("bot stopped")
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return nil
			}
			b.dispatch(ctx, upd)
		}
	}
}

// dispatch routes the update to its chat's worker, creating one if
// needed. Sending happens under the map lock so a worker can never be
// reaped between lookup and send.
func (b *Bot) dispatch(ctx context.Context, upd tgbotapi.Update) {
	chatID, ok := updateChatID(upd)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ch, exists := b.workers[chatID]
	if !exists {
		ch = make(chan tgbotapi.Update, workerQueueSize)
		b.workers[chatID] = ch
		b.wg.Add(1)
		go b.worker(ctx, chatID, ch)
	}

	select {
	case ch <- upd:
	default:
		b.logger.Warn("dropping update, chat backlog full", "chat_id", chatID)
	}
}

// worker serializes one chat's updates. It reaps itself after sitting
// idle with an empty queue.
func (b *Bot) worker(ctx context.Context, chatID int64, ch chan tgbotapi.Update) {
	defer b.wg.Done()

	idle := time.NewTimer(workerIdleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			b.remove(chatID)
			return
		case upd := <-ch:
			b.handle(ctx, chatID, upd)
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(workerIdleTimeout)
		case <-idle.C:
			b.mu.Lock()
			if len(ch) == 0 {
				delete(b.workers, chatID)
				b.mu.Unlock()
				return
			}
			b.mu.Unlock()
			idle.Reset(workerIdleTimeout)
		}
	}
}

func (b *Bot) remove(chatID int64) {
	b.mu.Lock()
	delete(b.workers, chatID)
	b.mu.Unlock()
}

func (b *Bot) handle(ctx context.Context, chatID int64, upd tgbotapi.Update) {
	ev, ok := toEvent(upd)
	if !ok {
		return
	}

	// Acknowledge button presses so the client stops its spinner.
	if upd.CallbackQuery != nil {
		if _, err := b.out.Request(tgbotapi.NewCallback(upd.CallbackQuery.ID, "")); err != nil {
			b.logger.Debug("callback ack failed", "chat_id", chatID, "err", err)
		}
	}

	reply, err := b.handler(ctx, ev)
	if err != nil {
		b.logger.Warn("event handling failed", "chat_id", chatID, "err", err)
		return
	}
	if reply == nil {
		return
	}

	if _, err := b.out.Send(toMessage(chatID, reply)); err != nil {
		b.logger.Warn("failed to send reply", "chat_id", chatID, "err", err)
	}
}

// Dispatch implements ports.Dispatcher for out-of-band messages.
func (b *Bot) Dispatch(ctx context.Context, userID string, reply *domain.Reply) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return err
	}
	_, err = b.out.Send(toMessage(chatID, reply))
	return err
}
