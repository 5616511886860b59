// Package bot implements the Telegram issuance surface for access keys.
//
// Architecture overview:
//   - tgbot.go      — TgBot struct, lifecycle (Start/Stop), Core interface
//   - commands.go   — Commands: /start, /key, /stats, /help
//   - membership.go — Required-chat membership checks via GetChatMember
//   - menus.go      — Command menus via Telegram's BotCommandScope API
//   - helpers.go    — Shared utilities: Sanitize, plainResponse, reportError
//
// Issuance flow for /key: verify the requester is currently a member of
// every configured required chat, then ask the core for a fresh key and
// reply with it in a monospace block. Admins get an alert carrying a short
// grant reference; the key value itself never leaves the requester's chat.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"

	"keygate/entity"
	"keygate/lib/sl"
)

// BotConfig holds Telegram-specific configuration loaded from the YAML config file.
type BotConfig struct {
	AdminIds      []int64
	RequiredChats []int64
}

// Core defines the key operations the bot depends on.
// Implemented by impl/core.
type Core interface {
	Issue(ctx context.Context, ownerId int64, scopes []string) (string, error)
	Stats(ctx context.Context) (entity.KeyStats, error)
}

type TgBot struct {
	log     *slog.Logger
	api     *tgbotapi.Bot
	core    Core
	updater *ext.Updater
	config  BotConfig
}

func NewTgBot(apiKey string, core Core, log *slog.Logger, cfg BotConfig) (*TgBot, error) {
	tgBot := &TgBot{
		log:    log.With(sl.Module("tgbot")),
		core:   core,
		config: cfg,
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

func (t *TgBot) Start() error {
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update:", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	t.updater = ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCommand("start", t.start))
	dispatcher.AddHandler(handlers.NewCommand("key", t.key))
	dispatcher.AddHandler(handlers.NewCommand("stats", t.stats))
	dispatcher.AddHandler(handlers.NewCommand("help", t.help))

	// Set default bot command menu and admin menus
	t.setDefaultCommands()
	t.setAdminCommands()

	err := t.updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	t.updater.Idle()
	return nil
}

func (t *TgBot) Stop() {
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		t.updater.Stop()
	}
}

// SendMessageWithLevel delivers a rendered log record to all configured
// admins. Level filtering happens in the logger handler; the bot only fans
// the message out.
func (t *TgBot) SendMessageWithLevel(msg string, _ slog.Level) {
	t.notifyAdmins(msg)
}
