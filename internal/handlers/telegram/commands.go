package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/satwatch/satwatch/internal/accountregistry"
	"github.com/satwatch/satwatch/internal/chatflow"
	"github.com/satwatch/satwatch/internal/pkg/logger"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	startText = "Welcome to the Bitcoin Transaction Tracker Bot! \n\n" +
		"Use the command /register to start receiving transaction alerts.\n"

	helpText = "📜 *Available Commands*\n\n" +
		"/register - Register your Bitcoin wallet address\n" +
		"/user - View your registered Bitcoin address\n" +
		"/unregister - Remove your registered Bitcoin address\n" +
		"/edit - Edit your registered Bitcoin address\n" +
		"/gas - Check the current gas price\n" +
		"/set_gas - Set a gas price threshold for alerts\n" +
		"/remove_gas - Remove your gas price threshold\n" +
		"/rune - Check your Rune balances\n" +
		"/brc20 - Check your BRC20 token balances\n" +
		"/ordinals - Check Ordinals (Coming Soon)"

	notRegisteredText = "⚠️ You have not registered a Bitcoin address yet. Use /register to register."

	addressPromptText      = "💳 Please send your Bitcoin wallet address (Timeout in 2 minutes):"
	addressTimeoutText     = "⌛ Timeout: You didn’t provide your Bitcoin address in time. Please try again."
	editPromptText         = "✏️ Please send your new Bitcoin wallet address (Timeout in 2 minutes):"
	editTimeoutText        = "⌛ Timeout: You didn’t provide the new address in time. Please try again later."
	thresholdPromptText    = "🖊 Please send your preferred gas price threshold (Timeout in 2 minutes):"
	thresholdTimeoutText   = "⌛ Timeout: You didn’t provide a gas price threshold in time. Please try again later."
	alreadyRegisteredText  = "⚠️ You have already registered your wallet!"
	unregisteredText       = "🗑️ Your Bitcoin wallet address has been unregistered."
	notRegisteredAtAllText = "⚠️ You are not registered. Use /register to register your address."
	noThresholdText        = "⚠️ You have not set a gas price threshold yet."
	thresholdRemovedText   = "🗑 Your gas price threshold has been removed. You will no longer receive gas alerts!"
	gasUnavailableText     = "⚠️ Failed to fetch the current gas price. Please try again later."
	runeUnavailableText    = "⚠️ Failed to fetch rune balances. Please try again later."
	brc20UnavailableText   = "⚠️ Failed to fetch BRC20 token balances. Please try again later."
	ordinalsComingSoonText = "🛠️ The Ordinals feature is coming soon! Stay tuned!"
	internalErrorText      = "⚠️ Something went wrong. Please try again later."
)

func (h *Handler) onStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	id, ok := chatID(update)
	if !ok {
		return
	}
	h.reply(ctx, id, startText)
}

func (h *Handler) onHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	id, ok := chatID(update)
	if !ok {
		return
	}
	h.reply(ctx, id, helpText)
}

func (h *Handler) onRegister(ctx context.Context, b *bot.Bot, update *models.Update) {
	id, ok := chatID(update)
	if !ok {
		return
	}

	if _, err := h.registry.Get(ctx, id); err == nil {
		h.reply(ctx, id, alreadyRegisteredText)
		return
	} else if !errors.Is(err, accountregistry.ErrNotRegistered) {
		logger.Error(ctx, "looking up account", "chat_id", id, "error", err)
		h.reply(ctx, id, internalErrorText)
		return
	}

	h.reply(ctx, id, addressPromptText)
	h.flows.Begin(id, chatflow.StateAwaitingAddress, addressTimeoutText)
}

func (h *Handler) onEdit(ctx context.Context, b *bot.Bot, update *models.Update) {
	id, ok := chatID(update)
	if !ok {
		return
	}

	if _, err := h.registry.Get(ctx, id); err != nil {
		h.replyLookupFailure(ctx, id, err, notRegisteredText)
		return
	}

	h.reply(ctx, id, editPromptText)
	h.flows.Begin(id, chatflow.StateAwaitingEdit, editTimeoutText)
}

func (h *Handler) onUnregister(ctx context.Context, b *bot.Bot, update *models.Update) {
	id, ok := chatID(update)
	if !ok {
		return
	}

	h.locks.Lock(id)
	err := h.registry.Unregister(ctx, id)
	h.locks.Unlock(id)

	switch {
	case err == nil:
		h.flows.Clear(id)
		h.reply(ctx, id, unregisteredText)
	case errors.Is(err, accountregistry.ErrNotRegistered):
		h.reply(ctx, id, notRegisteredAtAllText)
	default:
		logger.Error(ctx, "unregistering account", "chat_id", id, "error", err)
		h.reply(ctx, id, internalErrorText)
	}
}

func (h *Handler) onUser(ctx context.Context, b *bot.Bot, update *models.Update) {
	id, ok := chatID(update)
	if !ok {
		return
	}

	acct, err := h.registry.Get(ctx, id)
	if err != nil {
		h.replyLookupFailure(ctx, id, err, notRegisteredText)
		return
	}

	h.reply(ctx, id, fmt.Sprintf("💳 Your registered Bitcoin address is: %s", acct.Address))
}

func (h *Handler) onGas(ctx context.Context, b *bot.Bot, update *models.Update) {
	id, ok := chatID(update)
	if !ok {
		return
	}

	fees, err := h.fees.Levels(ctx)
	if err != nil {
		logger.Error(ctx, "fetching fee levels", "chat_id", id, "error", err)
		h.reply(ctx, id, gasUnavailableText)
		return
	}

	text := fmt.Sprintf("🚀 Fast :  %d sat/vB\n🚗 Average :  %d sat/vB\n🐢 Slow :  %d sat/vB\n",
		fees.Fastest, fees.HalfHour, fees.Hour)
	h.reply(ctx, id, text)
}

func (h *Handler) onSetGas(ctx context.Context, b *bot.Bot, update *models.Update) {
	id, ok := chatID(update)
	if !ok {
		return
	}

	if _, err := h.registry.Get(ctx, id); err != nil {
		h.replyLookupFailure(ctx, id, err, "⚠️ You have not registered your wallet yet!")
		return
	}

	h.reply(ctx, id, thresholdPromptText)
	h.flows.Begin(id, chatflow.StateAwaitingThreshold, thresholdTimeoutText)
}

func (h *Handler) onRemoveGas(ctx context.Context, b *bot.Bot, update *models.Update) {
	id, ok := chatID(update)
	if !ok {
		return
	}

	h.locks.Lock(id)
	err := h.registry.ClearFeeThreshold(ctx, id)
	h.locks.Unlock(id)

	switch {
	case err == nil:
		h.reply(ctx, id, thresholdRemovedText)
	case errors.Is(err, accountregistry.ErrNoThreshold):
		h.reply(ctx, id, noThresholdText)
	case errors.Is(err, accountregistry.ErrNotRegistered):
		h.reply(ctx, id, notRegisteredText)
	default:
		logger.Error(ctx, "clearing fee threshold", "chat_id", id, "error", err)
		h.reply(ctx, id, internalErrorText)
	}
}

func (h *Handler) onRune(ctx context.Context, b *bot.Bot, update *models.Update) {
	id, ok := chatID(update)
	if !ok {
		return
	}

	acct, err := h.registry.Get(ctx, id)
	if err != nil {
		h.replyLookupFailure(ctx, id, err, notRegisteredText)
		return
	}

	summary, err := h.tokens.RuneSummary(ctx, acct.Address)
	if err != nil {
		logger.Error(ctx, "fetching rune balances", "chat_id", id, "error", err)
		h.reply(ctx, id, runeUnavailableText)
		return
	}

	h.reply(ctx, id, summary)
}

func (h *Handler) onBrc20(ctx context.Context, b *bot.Bot, update *models.Update) {
	id, ok := chatID(update)
	if !ok {
		return
	}

	acct, err := h.registry.Get(ctx, id)
	if err != nil {
		h.replyLookupFailure(ctx, id, err, notRegisteredText)
		return
	}

	summary, err := h.tokens.Brc20Summary(ctx, acct.Address)
	if err != nil {
		logger.Error(ctx, "fetching brc20 balances", "chat_id", id, "error", err)
		h.reply(ctx, id, brc20UnavailableText)
		return
	}

	h.reply(ctx, id, summary)
}

func (h *Handler) onOrdinals(ctx context.Context, b *bot.Bot, update *models.Update) {
	id, ok := chatID(update)
	if !ok {
		return
	}
	h.reply(ctx, id, ordinalsComingSoonText)
}

// replyLookupFailure distinguishes the common "not registered" outcome from
// genuine storage failures.
func (h *Handler) replyLookupFailure(ctx context.Context, chatID int64, err error, notRegistered string) {
	if errors.Is(err, accountregistry.ErrNotRegistered) {
		h.reply(ctx, chatID, notRegistered)
		return
	}

	logger.Error(ctx, "looking up account", "chat_id", chatID, "error", err)
	h.reply(ctx, chatID, internalErrorText)
}
