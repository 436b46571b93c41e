// Package telegram wraps the Bot API transport: long polling, outbound
// messages and document transfer. It knows nothing about the conversation
// flow; inbound updates are handed to an UpdateHandler set by the daemon.
package telegram

import (
	"fmt"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/harun/leechbot/internal/config"
	"github.com/harun/leechbot/internal/httpclient"
	"github.com/harun/leechbot/internal/logger"
)

// Bot represents a Telegram bot instance
type Bot struct {
	api    *tgbotapi.BotAPI
	config *config.TelegramConfig
	logger zerolog.Logger
	http   *httpclient.Client
	stats  Stats

	updateHandler UpdateHandler

	// State
	running atomic.Bool
	updates tgbotapi.UpdatesChannel
}

// UpdateHandler receives every inbound update.
type UpdateHandler interface {
	HandleUpdate(update tgbotapi.Update)
}

// Stats receives transport counters. Implementations must be safe for
// concurrent use.
type Stats interface {
	MessageSent()
	MessageReceived()
	TransportError()
}

type nopStats struct{}

func (nopStats) MessageSent()     {}
func (nopStats) MessageReceived() {}
func (nopStats) TransportError()  {}

// New creates a new Telegram bot instance. stats may be nil.
func New(cfg *config.TelegramConfig, log *logger.Logger, stats Stats) (*Bot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("telegram config is required")
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	bot := newWithAPI(api, cfg, log, stats)

	bot.logger.Info().
		Str("username", api.Self.UserName).
		Int64("id", api.Self.ID).
		Msg("Telegram bot authenticated")

	return bot, nil
}

// newWithAPI wires a Bot around an already-constructed API client.
func newWithAPI(api *tgbotapi.BotAPI, cfg *config.TelegramConfig, log *logger.Logger, stats Stats) *Bot {
	if stats == nil {
		stats = nopStats{}
	}
	return &Bot{
		api:    api,
		config: cfg,
		logger: log.GetZerolog().With().Str("component", "telegram").Logger(),
		http:   httpclient.New(httpclient.DefaultOptions()),
		stats:  stats,
	}
}

// SetUpdateHandler sets the update handler. Must be called before Start.
func (b *Bot) SetUpdateHandler(handler UpdateHandler) {
	b.updateHandler = handler
}

// Start starts the bot and begins processing updates
func (b *Bot) Start() error {
	if !b.running.CompareAndSwap(false, true) {
		return fmt.Errorf("bot is already running")
	}

	b.logger.Info().Msg("Starting Telegram bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.config.PollTimeoutSec
	if u.Timeout <= 0 {
		u.Timeout = 60
	}

	b.updates = b.api.GetUpdatesChan(u)

	go b.processUpdates()

	b.logger.Info().Msg("Telegram bot started")

	return nil
}

// Stop stops the bot
func (b *Bot) Stop() error {
	if !b.running.CompareAndSwap(true, false) {
		return fmt.Errorf("bot is not running")
	}

	b.logger.Info().Msg("Stopping Telegram bot")

	b.api.StopReceivingUpdates()

	b.logger.Info().Msg("Telegram bot stopped")

	return nil
}

// processUpdates processes incoming updates
func (b *Bot) processUpdates() {
	for update := range b.updates {
		if !b.running.Load() {
			break
		}

		b.stats.MessageReceived()

		if b.updateHandler != nil {
			b.updateHandler.HandleUpdate(update)
		}
	}
}

// GetAPI returns the underlying bot API
func (b *Bot) GetAPI() *tgbotapi.BotAPI {
	return b.api
}

// IsRunning returns whether the bot is running
func (b *Bot) IsRunning() bool {
	return b.running.Load()
}

// WaitForReady waits for the bot to be ready
func (b *Bot) WaitForReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if b.running.Load() {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}

	return fmt.Errorf("bot did not become ready within %s", timeout)
}
