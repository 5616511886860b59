package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/google/uuid"

	"keygate/lib/sl"
)

const coreTimeout = 10 * time.Second

func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	t.plainResponse(chatId, "Welcome\\! Use `/key` to request a single\\-use access key\\.\nUse `/help` for the full command list\\.")
	return nil
}

// key issues a fresh single-use access key. The requester must currently be
// a member of every configured required chat; the validated chat ids are
// recorded on the key as its scopes.
func (t *TgBot) key(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if t.core == nil {
		return nil
	}
	chatId := ctx.EffectiveUser.Id

	missing, err := t.missingMemberships(chatId)
	if err != nil {
		t.reportError(chatId, "/key", err)
		return nil
	}
	if len(missing) > 0 {
		var sb strings.Builder
		sb.WriteString("You need to join the required chats first:\n")
		for _, id := range missing {
			sb.WriteString(fmt.Sprintf("`%d`\n", id))
		}
		t.plainResponse(chatId, sb.String())
		return nil
	}

	reqCtx, cancel := context.WithTimeout(context.Background(), coreTimeout)
	defer cancel()

	value, err := t.core.Issue(reqCtx, chatId, t.requiredScopes())
	if err != nil {
		t.reportError(chatId, "/key", err)
		return nil
	}

	t.plainResponse(chatId, fmt.Sprintf("Your access key:\n`%s`\nIt can be redeemed exactly once\\.", Sanitize(value)))

	// admins learn about the grant through a short reference, never the key itself
	grantRef := uuid.New().String()[:8]
	t.log.Info("key granted",
		slog.Int64("user_id", chatId),
		slog.String("grant_ref", grantRef),
		sl.Secret("key", value))
	t.notifyAdmins(fmt.Sprintf("Key granted to %s\nGrant ref: `%s`", Sanitize(requesterName(ctx)), grantRef))
	return nil
}

func (t *TgBot) stats(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if t.core == nil {
		return nil
	}
	chatId := ctx.EffectiveUser.Id
	if !t.requireAdmin(chatId) {
		t.plainResponse(chatId, "Admin access required\\.")
		return nil
	}

	reqCtx, cancel := context.WithTimeout(context.Background(), coreTimeout)
	defer cancel()

	stats, err := t.core.Stats(reqCtx)
	if err != nil {
		t.reportError(chatId, "/stats", err)
		return nil
	}

	msg := fmt.Sprintf(
		"*Key Stats*\n"+
			"Issued: `%d`\n"+
			"Redeemed: `%d`\n"+
			"Unused: `%d`",
		stats.Issued, stats.Redeemed, stats.Unused(),
	)
	t.plainResponse(chatId, msg)
	return nil
}

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	isAdmin := t.requireAdmin(chatId)

	var sb strings.Builder
	sb.WriteString("*Available Commands*\n\n")

	sb.WriteString("`/start` \\- Greeting and usage\n")
	sb.WriteString("`/key` \\- Request a single\\-use access key\n")
	sb.WriteString("`/help` \\- Show this help\n")

	if isAdmin {
		sb.WriteString("\n*Admin Commands:*\n")
		sb.WriteString("`/stats` \\- Show key counters\n")
	}

	t.plainResponse(chatId, sb.String())
	return nil
}

func requesterName(ctx *ext.Context) string {
	if username := ctx.EffectiveUser.Username; username != "" {
		return fmt.Sprintf("@%s (%d)", username, ctx.EffectiveUser.Id)
	}
	return fmt.Sprintf("%d", ctx.EffectiveUser.Id)
}
