package telegram

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/satwatch/satwatch/internal/chatflow"
	"github.com/satwatch/satwatch/internal/pkg/logger"
	"github.com/satwatch/satwatch/internal/pkg/validator"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	invalidAddressText     = "⚠️ Invalid Bitcoin address. Please send again."
	invalidEditAddressText = "⚠️ Invalid Bitcoin address. Please send a valid address."
	invalidThresholdText   = "⚠️ Invalid gas price threshold (must be an integer). Please send again."
)

// integerPattern rejects inputs strconv would also reject, but keeps the
// accepted grammar explicit: an optional sign and digits, nothing else.
var integerPattern = regexp.MustCompile(`^-?\d+$`)

// onMessage consumes the follow-up input of a multi-step command. Messages
// from chats with no active flow are ignored.
func (h *Handler) onMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	id, ok := chatID(update)
	if !ok {
		return
	}
	text := update.Message.Text

	switch h.flows.Current(id) {
	case chatflow.StateAwaitingAddress:
		h.consumeAddress(ctx, id, text)
	case chatflow.StateAwaitingEdit:
		h.consumeEdit(ctx, id, text)
	case chatflow.StateAwaitingThreshold:
		h.consumeThreshold(ctx, id, text)
	}
}

func (h *Handler) consumeAddress(ctx context.Context, chatID int64, address string) {
	h.locks.Lock(chatID)
	acct, err := h.registry.Register(ctx, chatID, address)
	h.locks.Unlock(chatID)

	switch {
	case err == nil:
		h.flows.Clear(chatID)
		h.reply(ctx, chatID, fmt.Sprintf(
			"💳 Your Bitcoin wallet %s has been registered!\n\nYou will now receive transaction alerts.",
			acct.Address,
		))
	case errors.Is(err, validator.ErrValidation):
		// Flow stays open, the user gets another try until the deadline.
		h.reply(ctx, chatID, invalidAddressText)
	default:
		logger.Error(ctx, "registering account", "chat_id", chatID, "error", err)
		h.flows.Clear(chatID)
		h.reply(ctx, chatID, internalErrorText)
	}
}

func (h *Handler) consumeEdit(ctx context.Context, chatID int64, address string) {
	h.locks.Lock(chatID)
	err := h.registry.Edit(ctx, chatID, address)
	h.locks.Unlock(chatID)

	switch {
	case err == nil:
		h.flows.Clear(chatID)
		h.reply(ctx, chatID, fmt.Sprintf("💳 Your Bitcoin wallet address has been updated to: %s", address))
	case errors.Is(err, validator.ErrValidation):
		h.reply(ctx, chatID, invalidEditAddressText)
	default:
		logger.Error(ctx, "editing account address", "chat_id", chatID, "error", err)
		h.flows.Clear(chatID)
		h.reply(ctx, chatID, internalErrorText)
	}
}

func (h *Handler) consumeThreshold(ctx context.Context, chatID int64, text string) {
	if !integerPattern.MatchString(text) {
		h.reply(ctx, chatID, invalidThresholdText)
		return
	}

	threshold, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		h.reply(ctx, chatID, invalidThresholdText)
		return
	}

	h.locks.Lock(chatID)
	err = h.registry.SetFeeThreshold(ctx, chatID, threshold)
	h.locks.Unlock(chatID)

	if err != nil {
		logger.Error(ctx, "setting fee threshold", "chat_id", chatID, "error", err)
		h.flows.Clear(chatID)
		h.reply(ctx, chatID, internalErrorText)
		return
	}

	h.flows.Clear(chatID)
	h.reply(ctx, chatID, fmt.Sprintf("⛽️ Your gas price threshold has been set to: %d sat/vB", threshold))
}
