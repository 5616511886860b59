package bot

import (
	"log/slog"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"keygate/lib/sl"
)

// Command lists for Telegram's menu button (the "/" icon in the chat input).
// The default menu is visible to everyone; admins additionally see /stats
// via SetMyCommands with BotCommandScopeChat.

var commandsDefault = []tgbotapi.BotCommand{
	{Command: "start", Description: "Greeting and usage"},
	{Command: "key", Description: "Request a single-use access key"},
	{Command: "help", Description: "Show available commands"},
}

var commandsAdmin = []tgbotapi.BotCommand{
	{Command: "start", Description: "Greeting and usage"},
	{Command: "key", Description: "Request a single-use access key"},
	{Command: "stats", Description: "Show key counters"},
	{Command: "help", Description: "Show available commands"},
}

// setDefaultCommands sets the default bot menu for all users.
func (t *TgBot) setDefaultCommands() {
	_, err := t.api.SetMyCommands(commandsDefault, &tgbotapi.SetMyCommandsOpts{
		Scope: tgbotapi.BotCommandScopeDefault{},
	})
	if err != nil {
		t.log.Warn("setting default commands", sl.Err(err))
	}
}

// setAdminCommands sets the extended menu for each configured admin chat.
func (t *TgBot) setAdminCommands() {
	for _, chatId := range t.config.AdminIds {
		_, err := t.api.SetMyCommands(commandsAdmin, &tgbotapi.SetMyCommandsOpts{
			Scope: tgbotapi.BotCommandScopeChat{ChatId: chatId},
		})
		if err != nil {
			t.log.Warn("setting admin commands", slog.Int64("chat_id", chatId), sl.Err(err))
		}
	}
}
