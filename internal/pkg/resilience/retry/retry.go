// Package retry wraps avast/retry-go behind a small interface with
// functional options. The default policy is exponential backoff with three
// total attempts, which suits short-lived upstream hiccups such as a
// messaging API returning 5xx.
package retry

import (
	"context"
	"time"

	retrygo "github.com/avast/retry-go/v4"
)

// Retry executes an operation with automatic re-attempts on failure.
type Retry interface {
	// Execute runs operation until it succeeds, attempts are exhausted, or
	// ctx is done. The operation must be safe to invoke more than once.
	Execute(ctx context.Context, operation func() error) error
}

type config struct {
	attempts    uint
	delay       time.Duration
	maxDelay    time.Duration
	lastErrOnly bool
}

// Option customizes the retrier produced by New.
type Option func(*config)

type retrier struct {
	cfg config
}

var _ Retry = (*retrier)(nil)

// New builds a Retry. Defaults: 3 attempts, 1s base delay, 5s max delay,
// exponential backoff, only the last error returned.
func New(opts ...Option) Retry {
	cfg := config{
		attempts:    3,
		delay:       1 * time.Second,
		maxDelay:    5 * time.Second,
		lastErrOnly: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &retrier{cfg: cfg}
}

// WithAttempts sets the total number of attempts (first try included).
func WithAttempts(n uint) Option {
	return func(c *config) {
		c.attempts = n
	}
}

// WithDelay sets the base delay between attempts.
func WithDelay(d time.Duration) Option {
	return func(c *config) {
		c.delay = d
	}
}

// WithMaxDelay caps the delay between attempts.
func WithMaxDelay(d time.Duration) Option {
	return func(c *config) {
		c.maxDelay = d
	}
}

// WithLastErrorOnly controls whether Execute returns just the final error or
// the joined history of attempt errors.
func WithLastErrorOnly(b bool) Option {
	return func(c *config) {
		c.lastErrOnly = b
	}
}

func (r *retrier) Execute(ctx context.Context, operation func() error) error {
	return retrygo.Do(
		operation,
		retrygo.Context(ctx),
		retrygo.Attempts(r.cfg.attempts),
		retrygo.Delay(r.cfg.delay),
		retrygo.MaxDelay(r.cfg.maxDelay),
		retrygo.LastErrorOnly(r.cfg.lastErrOnly),
		retrygo.DelayType(retrygo.BackOffDelay),
	)
}
