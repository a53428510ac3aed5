package telegram

import (
	"context"
	"errors"
	"testing"

	"github.com/satwatch/satwatch/internal/account"
	"github.com/satwatch/satwatch/internal/accountregistry"
	"github.com/satwatch/satwatch/internal/chatflow"
	"github.com/satwatch/satwatch/internal/feealert"
	"github.com/satwatch/satwatch/internal/pkg/validator"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "bc1ptestaddressqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq"

type registryStub struct {
	register          func(ctx context.Context, chatID int64, address string) (account.Account, error)
	edit              func(ctx context.Context, chatID int64, newAddress string) error
	unregister        func(ctx context.Context, chatID int64) error
	get               func(ctx context.Context, chatID int64) (account.Account, error)
	setFeeThreshold   func(ctx context.Context, chatID int64, satPerVB int64) error
	clearFeeThreshold func(ctx context.Context, chatID int64) error
}

func (s *registryStub) Register(ctx context.Context, chatID int64, address string) (account.Account, error) {
	return s.register(ctx, chatID, address)
}

func (s *registryStub) Edit(ctx context.Context, chatID int64, newAddress string) error {
	return s.edit(ctx, chatID, newAddress)
}

func (s *registryStub) Unregister(ctx context.Context, chatID int64) error {
	return s.unregister(ctx, chatID)
}

func (s *registryStub) Get(ctx context.Context, chatID int64) (account.Account, error) {
	return s.get(ctx, chatID)
}

func (s *registryStub) SetFeeThreshold(ctx context.Context, chatID int64, satPerVB int64) error {
	return s.setFeeThreshold(ctx, chatID, satPerVB)
}

func (s *registryStub) ClearFeeThreshold(ctx context.Context, chatID int64) error {
	return s.clearFeeThreshold(ctx, chatID)
}

type feesStub struct {
	levels func(ctx context.Context) (feealert.Fees, error)
}

func (s *feesStub) Levels(ctx context.Context) (feealert.Fees, error) {
	return s.levels(ctx)
}

func (s *feesStub) Sweep(ctx context.Context, accounts []account.Account) error {
	return nil
}

type tokensStub struct {
	rune  func(ctx context.Context, address string) (string, error)
	brc20 func(ctx context.Context, address string) (string, error)
}

func (s *tokensStub) RuneSummary(ctx context.Context, address string) (string, error) {
	return s.rune(ctx, address)
}

func (s *tokensStub) Brc20Summary(ctx context.Context, address string) (string, error) {
	return s.brc20(ctx, address)
}

type notifierStub struct {
	sent []string
}

func (s *notifierStub) Send(ctx context.Context, chatID int64, text string) (int, error) {
	s.sent = append(s.sent, text)
	return len(s.sent), nil
}

func notFoundRegistry() *registryStub {
	return &registryStub{
		get: func(ctx context.Context, chatID int64) (account.Account, error) {
			return account.Account{}, accountregistry.ErrNotRegistered
		},
	}
}

func registeredRegistry() *registryStub {
	return &registryStub{
		get: func(ctx context.Context, chatID int64) (account.Account, error) {
			return account.New(chatID, testAddress, 0), nil
		},
	}
}

func newTestHandler(registry *registryStub, fees *feesStub, tokens *tokensStub) (*Handler, *notifierStub, *chatflow.Manager) {
	notifier := new(notifierStub)
	flows := chatflow.NewManager(notifier)

	if fees == nil {
		fees = &feesStub{}
	}
	if tokens == nil {
		tokens = &tokensStub{}
	}

	h := New(registry, fees, tokens, flows, notifier, account.NewLocks())
	return h, notifier, flows
}

func textUpdate(chatID int64, text string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			Chat: models.Chat{ID: chatID},
			Text: text,
		},
	}
}

func TestCommands(t *testing.T) {
	t.Run("should prompt for an address on register", func(t *testing.T) {
		h, notifier, flows := newTestHandler(notFoundRegistry(), nil, nil)

		h.onRegister(t.Context(), nil, textUpdate(42, "/register"))

		require.Len(t, notifier.sent, 1)
		assert.Equal(t, addressPromptText, notifier.sent[0])
		assert.Equal(t, chatflow.StateAwaitingAddress, flows.Current(42))
	})

	t.Run("should warn when registering twice", func(t *testing.T) {
		h, notifier, flows := newTestHandler(registeredRegistry(), nil, nil)

		h.onRegister(t.Context(), nil, textUpdate(42, "/register"))

		require.Len(t, notifier.sent, 1)
		assert.Equal(t, alreadyRegisteredText, notifier.sent[0])
		assert.Equal(t, chatflow.StateIdle, flows.Current(42))
	})

	t.Run("should report the registered address", func(t *testing.T) {
		h, notifier, _ := newTestHandler(registeredRegistry(), nil, nil)

		h.onUser(t.Context(), nil, textUpdate(42, "/user"))

		require.Len(t, notifier.sent, 1)
		assert.Contains(t, notifier.sent[0], testAddress)
	})

	t.Run("should warn unregistered users asking for their address", func(t *testing.T) {
		h, notifier, _ := newTestHandler(notFoundRegistry(), nil, nil)

		h.onUser(t.Context(), nil, textUpdate(42, "/user"))

		require.Len(t, notifier.sent, 1)
		assert.Equal(t, notRegisteredText, notifier.sent[0])
	})

	t.Run("should report the current fee tiers", func(t *testing.T) {
		fees := &feesStub{
			levels: func(ctx context.Context) (feealert.Fees, error) {
				return feealert.Fees{Fastest: 30, HalfHour: 20, Hour: 10}, nil
			},
		}
		h, notifier, _ := newTestHandler(notFoundRegistry(), fees, nil)

		h.onGas(t.Context(), nil, textUpdate(42, "/gas"))

		require.Len(t, notifier.sent, 1)
		assert.Equal(t, "🚀 Fast :  30 sat/vB\n🚗 Average :  20 sat/vB\n🐢 Slow :  10 sat/vB\n", notifier.sent[0])
	})

	t.Run("should degrade gracefully when the fee source is down", func(t *testing.T) {
		fees := &feesStub{
			levels: func(ctx context.Context) (feealert.Fees, error) {
				return feealert.Fees{}, errors.New("mempool unavailable")
			},
		}
		h, notifier, _ := newTestHandler(notFoundRegistry(), fees, nil)

		h.onGas(t.Context(), nil, textUpdate(42, "/gas"))

		require.Len(t, notifier.sent, 1)
		assert.Equal(t, gasUnavailableText, notifier.sent[0])
	})

	t.Run("should forward the rune summary for registered users", func(t *testing.T) {
		tokens := &tokensStub{
			rune: func(ctx context.Context, address string) (string, error) {
				assert.Equal(t, testAddress, address)
				return "🔮 *Rune Balances*\n\nsummary", nil
			},
		}
		h, notifier, _ := newTestHandler(registeredRegistry(), nil, tokens)

		h.onRune(t.Context(), nil, textUpdate(42, "/rune"))

		require.Len(t, notifier.sent, 1)
		assert.Equal(t, "🔮 *Rune Balances*\n\nsummary", notifier.sent[0])
	})

	t.Run("should clear an active flow on unregister", func(t *testing.T) {
		registry := registeredRegistry()
		registry.unregister = func(ctx context.Context, chatID int64) error { return nil }
		h, notifier, flows := newTestHandler(registry, nil, nil)

		flows.Begin(42, chatflow.StateAwaitingThreshold, thresholdTimeoutText)
		h.onUnregister(t.Context(), nil, textUpdate(42, "/unregister"))

		require.Len(t, notifier.sent, 1)
		assert.Equal(t, unregisteredText, notifier.sent[0])
		assert.Equal(t, chatflow.StateIdle, flows.Current(42))
	})

	t.Run("should ignore updates without a message payload", func(t *testing.T) {
		h, notifier, _ := newTestHandler(notFoundRegistry(), nil, nil)

		h.onStart(t.Context(), nil, &models.Update{})

		assert.Empty(t, notifier.sent)
	})
}

func TestMessageFlow(t *testing.T) {
	t.Run("should register the address sent after the prompt", func(t *testing.T) {
		var registered string
		registry := notFoundRegistry()
		registry.register = func(ctx context.Context, chatID int64, address string) (account.Account, error) {
			registered = address
			return account.New(chatID, address, 0), nil
		}
		h, notifier, flows := newTestHandler(registry, nil, nil)

		flows.Begin(42, chatflow.StateAwaitingAddress, addressTimeoutText)
		h.onMessage(t.Context(), nil, textUpdate(42, testAddress))

		assert.Equal(t, testAddress, registered)
		assert.Equal(t, chatflow.StateIdle, flows.Current(42))
		require.Len(t, notifier.sent, 1)
		assert.Contains(t, notifier.sent[0], "has been registered!")
	})

	t.Run("should keep the flow open after an invalid address", func(t *testing.T) {
		registry := notFoundRegistry()
		registry.register = func(ctx context.Context, chatID int64, address string) (account.Account, error) {
			return account.Account{}, validator.ErrValidation
		}
		h, notifier, flows := newTestHandler(registry, nil, nil)

		flows.Begin(42, chatflow.StateAwaitingAddress, addressTimeoutText)
		h.onMessage(t.Context(), nil, textUpdate(42, "not-an-address"))

		assert.Equal(t, chatflow.StateAwaitingAddress, flows.Current(42))
		require.Len(t, notifier.sent, 1)
		assert.Equal(t, invalidAddressText, notifier.sent[0])
	})

	t.Run("should update the address during an edit flow", func(t *testing.T) {
		var edited string
		registry := registeredRegistry()
		registry.edit = func(ctx context.Context, chatID int64, newAddress string) error {
			edited = newAddress
			return nil
		}
		h, notifier, flows := newTestHandler(registry, nil, nil)

		flows.Begin(42, chatflow.StateAwaitingEdit, editTimeoutText)
		h.onMessage(t.Context(), nil, textUpdate(42, testAddress))

		assert.Equal(t, testAddress, edited)
		assert.Equal(t, chatflow.StateIdle, flows.Current(42))
		require.Len(t, notifier.sent, 1)
		assert.Contains(t, notifier.sent[0], "has been updated to")
	})

	t.Run("should store an integer threshold", func(t *testing.T) {
		var stored int64
		registry := registeredRegistry()
		registry.setFeeThreshold = func(ctx context.Context, chatID int64, satPerVB int64) error {
			stored = satPerVB
			return nil
		}
		h, notifier, flows := newTestHandler(registry, nil, nil)

		flows.Begin(42, chatflow.StateAwaitingThreshold, thresholdTimeoutText)
		h.onMessage(t.Context(), nil, textUpdate(42, "15"))

		assert.Equal(t, int64(15), stored)
		assert.Equal(t, chatflow.StateIdle, flows.Current(42))
		require.Len(t, notifier.sent, 1)
		assert.Equal(t, "⛽️ Your gas price threshold has been set to: 15 sat/vB", notifier.sent[0])
	})

	t.Run("should re-prompt on a non-integer threshold", func(t *testing.T) {
		h, notifier, flows := newTestHandler(registeredRegistry(), nil, nil)

		flows.Begin(42, chatflow.StateAwaitingThreshold, thresholdTimeoutText)
		h.onMessage(t.Context(), nil, textUpdate(42, "12.5"))

		assert.Equal(t, chatflow.StateAwaitingThreshold, flows.Current(42))
		require.Len(t, notifier.sent, 1)
		assert.Equal(t, invalidThresholdText, notifier.sent[0])
	})

	t.Run("should ignore free text from idle chats", func(t *testing.T) {
		h, notifier, _ := newTestHandler(notFoundRegistry(), nil, nil)

		h.onMessage(t.Context(), nil, textUpdate(42, "hello"))

		assert.Empty(t, notifier.sent)
	})
}
