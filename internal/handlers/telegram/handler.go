// Package telegram exposes the bot's interactive command surface. Commands
// either answer immediately (/user, /gas, /rune, ...) or open a chatflow
// state whose follow-up message is consumed by the default handler
// (/register, /edit, /set_gas).
package telegram

import (
	"context"

	"github.com/satwatch/satwatch/internal/account"
	"github.com/satwatch/satwatch/internal/accountregistry"
	"github.com/satwatch/satwatch/internal/chatflow"
	"github.com/satwatch/satwatch/internal/feealert"
	"github.com/satwatch/satwatch/internal/pkg/logger"
	"github.com/satwatch/satwatch/internal/tokenbalance"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Notifier sends replies to a chat.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) (int, error)
}

// Handler routes Telegram updates to the underlying services.
type Handler struct {
	registry accountregistry.Service
	fees     feealert.Service
	tokens   tokenbalance.Service
	flows    *chatflow.Manager
	notifier Notifier
	locks    *account.Locks
}

// New builds the command handler.
func New(
	registry accountregistry.Service,
	fees feealert.Service,
	tokens tokenbalance.Service,
	flows *chatflow.Manager,
	notifier Notifier,
	locks *account.Locks,
) *Handler {
	return &Handler{
		registry: registry,
		fees:     fees,
		tokens:   tokens,
		flows:    flows,
		notifier: notifier,
		locks:    locks,
	}
}

// BotOptions returns the options that must be passed to bot.New. The handler
// itself cannot exist before the bot does (its notifier wraps the bot), so
// the default handler dispatches through the pointer filled in later.
func BotOptions(h **Handler) []bot.Option {
	return []bot.Option{
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if handler := *h; handler != nil {
				handler.onMessage(ctx, b, update)
			}
		}),
	}
}

// Register attaches every command to the bot. Prefix matching tolerates the
// "@botname" suffix Telegram appends in group chats.
func (h *Handler) Register(b *bot.Bot) {
	commands := map[string]bot.HandlerFunc{
		"/start":      h.onStart,
		"/help":       h.onHelp,
		"/register":   h.onRegister,
		"/edit":       h.onEdit,
		"/unregister": h.onUnregister,
		"/user":       h.onUser,
		"/gas":        h.onGas,
		"/set_gas":    h.onSetGas,
		"/remove_gas": h.onRemoveGas,
		"/rune":       h.onRune,
		"/brc20":      h.onBrc20,
		"/ordinals":   h.onOrdinals,
	}

	for pattern, handler := range commands {
		b.RegisterHandler(bot.HandlerTypeMessageText, pattern, bot.MatchTypePrefix, handler)
	}
}

// reply sends a message and logs delivery failures; command replies are
// best-effort.
func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if _, err := h.notifier.Send(ctx, chatID, text); err != nil {
		logger.Error(ctx, "sending command reply",
			"chat_id", chatID,
			"error", err,
		)
	}
}

// chatID extracts the originating chat, or false for updates without a
// message payload.
func chatID(update *models.Update) (int64, bool) {
	if update == nil || update.Message == nil {
		return 0, false
	}
	return update.Message.Chat.ID, true
}
