// Package scheduler drives the periodic work: the per-account transaction
// reconciliation cycle, the fee threshold sweep, and the expiry sweep of
// interactive input flows. Accounts are processed independently; one slow or
// failing account is bounded by a timeout and never stalls the rest of the
// batch.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/satwatch/satwatch/internal/account"
	"github.com/satwatch/satwatch/internal/feealert"
	"github.com/satwatch/satwatch/internal/pkg/logger"
	"github.com/satwatch/satwatch/internal/txtracker"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// ErrServiceAlreadyStarted is returned if Start is called more than once.
var ErrServiceAlreadyStarted = errors.New("service already started")

const trackingErrorText = "An error occurred while tracking your transactions. We are working to resolve this issue."

// FlowSweeper reaps expired interactive input flows.
type FlowSweeper interface {
	SweepExpired(ctx context.Context)
}

// Notifier informs a user that their tracking cycle failed.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) (int, error)
}

// Service is the scheduler lifecycle.
type Service interface {
	// Start registers the cron jobs and begins ticking. Returns
	// ErrServiceAlreadyStarted on a second call.
	Start(ctx context.Context) error

	// Close stops the cron and cancels in-flight cycles. Safe to call even
	// if the service never started.
	Close()
}

type service struct {
	mu        sync.Mutex
	isStarted bool
	cron      *cron.Cron
	baseCtx   context.Context
	cancel    context.CancelFunc

	storage  account.Storage
	locks    *account.Locks
	tracker  txtracker.Service
	fees     feealert.Service
	flows    FlowSweeper
	notifier Notifier

	trackEvery     time.Duration
	feeEvery       time.Duration
	flowSweepEvery time.Duration
	accountTimeout time.Duration
}

var _ Service = (*service)(nil)

type config struct {
	trackEvery     time.Duration
	feeEvery       time.Duration
	flowSweepEvery time.Duration
	accountTimeout time.Duration
}

// Option customizes scheduler cadence.
type Option func(*config)

// WithTrackInterval sets how often the reconciliation cycle runs.
func WithTrackInterval(d time.Duration) Option {
	return func(c *config) { c.trackEvery = d }
}

// WithFeeInterval sets how often the fee threshold sweep runs.
func WithFeeInterval(d time.Duration) Option {
	return func(c *config) { c.feeEvery = d }
}

// WithFlowSweepInterval sets how often expired input flows are reaped.
func WithFlowSweepInterval(d time.Duration) Option {
	return func(c *config) { c.flowSweepEvery = d }
}

// WithAccountTimeout bounds one account's reconciliation cycle.
func WithAccountTimeout(d time.Duration) Option {
	return func(c *config) { c.accountTimeout = d }
}

// New wires a scheduler. Defaults: tracking every minute, fee sweep every
// five minutes, flow sweep every thirty seconds, 45-second per-account
// timeout.
func New(
	storage account.Storage,
	locks *account.Locks,
	tracker txtracker.Service,
	fees feealert.Service,
	flows FlowSweeper,
	notifier Notifier,
	opts ...Option,
) *service {
	cfg := config{
		trackEvery:     time.Minute,
		feeEvery:       5 * time.Minute,
		flowSweepEvery: 30 * time.Second,
		accountTimeout: 45 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		storage:        storage,
		locks:          locks,
		tracker:        tracker,
		fees:           fees,
		flows:          flows,
		notifier:       notifier,
		trackEvery:     cfg.trackEvery,
		feeEvery:       cfg.feeEvery,
		flowSweepEvery: cfg.flowSweepEvery,
		accountTimeout: cfg.accountTimeout,
	}
}

func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return ErrServiceAlreadyStarted
	}

	s.baseCtx, s.cancel = context.WithCancel(ctx)
	s.cron = cron.New()

	jobs := []struct {
		every time.Duration
		run   func()
	}{
		{s.trackEvery, s.trackAll},
		{s.feeEvery, s.feeSweep},
		{s.flowSweepEvery, s.flowSweep},
	}
	for _, job := range jobs {
		if _, err := s.cron.AddFunc("@every "+job.every.String(), job.run); err != nil {
			s.cancel()
			return err
		}
	}

	s.cron.Start()
	s.isStarted = true
	return nil
}

func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		s.cron.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.isStarted = false
}

// trackAll runs one reconciliation cycle over every registered account.
func (s *service) trackAll() {
	ctx := s.baseCtx
	cycleID := uuid.Must(uuid.NewV7()).String()

	accounts, err := s.storage.List(ctx)
	if err != nil {
		logger.Error(ctx, "listing accounts for tracking cycle",
			"cycle_id", cycleID,
			"error", err,
		)
		return
	}

	for _, acct := range accounts {
		s.trackOne(ctx, cycleID, acct.ChatID)
	}

	logger.Debug(ctx, "tracking cycle complete",
		"cycle_id", cycleID,
		"accounts", len(accounts),
	)
}

func (s *service) trackOne(ctx context.Context, cycleID string, chatID int64) {
	s.locks.Lock(chatID)
	defer s.locks.Unlock(chatID)

	ctx, cancel := context.WithTimeout(ctx, s.accountTimeout)
	defer cancel()

	// Re-read under the lock: a command may have edited or removed the
	// account since List.
	acct, err := s.storage.Get(ctx, chatID)
	if err != nil {
		if !errors.Is(err, account.ErrNotFound) {
			logger.Error(ctx, "loading account for tracking",
				"cycle_id", cycleID,
				"chat_id", chatID,
				"error", err,
			)
		}
		return
	}

	updated, err := s.tracker.Track(ctx, acct)
	if err != nil {
		logger.Error(ctx, "tracking cycle failed, retrying next tick",
			"cycle_id", cycleID,
			"chat_id", chatID,
			"error", err,
		)
		if _, err := s.notifier.Send(ctx, chatID, trackingErrorText); err != nil {
			logger.Error(ctx, "notifying user of tracking failure",
				"chat_id", chatID,
				"error", err,
			)
		}
		return
	}

	if err := s.storage.Put(ctx, updated); err != nil {
		// In-memory progress is lost for this cycle; the next one re-derives
		// it from the same persisted state.
		logger.Error(ctx, "persisting account state",
			"cycle_id", cycleID,
			"chat_id", chatID,
			"error", err,
		)
	}
}

func (s *service) feeSweep() {
	ctx := s.baseCtx

	accounts, err := s.storage.List(ctx)
	if err != nil {
		logger.Error(ctx, "listing accounts for fee sweep", "error", err)
		return
	}

	if err := s.fees.Sweep(ctx, accounts); err != nil {
		logger.Error(ctx, "fee sweep failed", "error", err)
	}
}

func (s *service) flowSweep() {
	s.flows.SweepExpired(s.baseCtx)
}
