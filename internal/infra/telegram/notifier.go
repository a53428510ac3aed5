// Package telegram adapts the Telegram Bot API to the notification ports
// used across the services. Sends go through the retry policy since a
// dropped notification for a confirmed transaction cannot be recovered
// later; edits are left to the reconciliation loop's own next-cycle retry.
package telegram

import (
	"context"

	"github.com/satwatch/satwatch/internal/chatflow"
	"github.com/satwatch/satwatch/internal/feealert"
	"github.com/satwatch/satwatch/internal/pkg/resilience/retry"
	"github.com/satwatch/satwatch/internal/scheduler"
	"github.com/satwatch/satwatch/internal/txtracker"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// parseModeMarkdown is the legacy Markdown style; the notification bodies
// use single-asterisk bold and raw URLs that MarkdownV2 would reject.
const parseModeMarkdown models.ParseMode = "Markdown"

type notifier struct {
	bot   *bot.Bot
	retry retry.Retry
}

var (
	_ txtracker.Notifier = (*notifier)(nil)
	_ feealert.Notifier  = (*notifier)(nil)
	_ chatflow.Notifier  = (*notifier)(nil)
	_ scheduler.Notifier = (*notifier)(nil)
)

// NewNotifier wraps a connected bot with the shared retry policy.
func NewNotifier(b *bot.Bot, r retry.Retry) *notifier {
	return &notifier{
		bot:   b,
		retry: r,
	}
}

// Send delivers a message and returns its ID for later edits.
func (n *notifier) Send(ctx context.Context, chatID int64, text string) (int, error) {
	var messageID int

	err := n.retry.Execute(ctx, func() error {
		msg, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      text,
			ParseMode: parseModeMarkdown,
			LinkPreviewOptions: &models.LinkPreviewOptions{
				IsDisabled: bot.True(),
			},
		})
		if err != nil {
			return err
		}

		messageID = msg.ID
		return nil
	})

	return messageID, err
}

// Edit replaces the text of a previously sent message in place.
func (n *notifier) Edit(ctx context.Context, chatID int64, messageID int, text string) error {
	_, err := n.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: parseModeMarkdown,
	})
	return err
}

// Delete removes a previously sent message.
func (n *notifier) Delete(ctx context.Context, chatID int64, messageID int) error {
	_, err := n.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	})
	return err
}
