// Package chatflow tracks which multi-step command each chat is in the
// middle of, as an explicit per-chat state machine with an expiry timestamp.
// Expired flows are reaped by a periodic sweep that also delivers the
// timeout notice, so no per-chat timers or capturing closures are needed.
package chatflow

import (
	"context"
	"sync"
	"time"

	"github.com/satwatch/satwatch/internal/pkg/logger"
)

// InputTimeout is how long the bot waits for the follow-up message of a
// multi-step command.
const InputTimeout = 2 * time.Minute

// Notifier delivers the timeout notice to a chat.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) (int, error)
}

type flow struct {
	state       State
	deadline    time.Time
	timeoutText string
}

// Manager owns the per-chat input flows.
type Manager struct {
	mu       sync.Mutex
	flows    map[int64]flow
	notifier Notifier
	now      func() time.Time
}

type config struct {
	now func() time.Time
}

// Option customizes the manager.
type Option func(*config)

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// NewManager builds a flow manager that sends timeout notices through the
// given notifier.
func NewManager(notifier Notifier, opts ...Option) *Manager {
	cfg := config{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Manager{
		flows:    make(map[int64]flow),
		notifier: notifier,
		now:      cfg.now,
	}
}

// Begin puts the chat into the given state with a fresh deadline, replacing
// any flow already in progress. timeoutText is what the user sees if the
// deadline passes without input.
func (m *Manager) Begin(chatID int64, state State, timeoutText string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.flows[chatID] = flow{
		state:       state,
		deadline:    m.now().Add(InputTimeout),
		timeoutText: timeoutText,
	}
}

// Current returns the chat's active state. A flow past its deadline reports
// StateIdle; the entry itself is left for SweepExpired so the timeout notice
// still goes out.
func (m *Manager) Current(chatID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.flows[chatID]
	if !ok || m.now().After(f.deadline) {
		return StateIdle
	}
	return f.state
}

// Clear ends the chat's flow, typically after its input was accepted.
func (m *Manager) Clear(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.flows, chatID)
}

// SweepExpired notifies and removes every flow whose deadline has passed.
func (m *Manager) SweepExpired(ctx context.Context) {
	m.mu.Lock()
	expired := make(map[int64]flow)
	for chatID, f := range m.flows {
		if m.now().After(f.deadline) {
			expired[chatID] = f
			delete(m.flows, chatID)
		}
	}
	m.mu.Unlock()

	for chatID, f := range expired {
		if _, err := m.notifier.Send(ctx, chatID, f.timeoutText); err != nil {
			logger.Error(ctx, "sending input timeout notice",
				"chat_id", chatID,
				"state", f.state.String(),
				"error", err,
			)
		}
	}
}
