// Package accountregistry manages the lifecycle of watched accounts:
// registration, address edits, unregistration, and fee-threshold
// preferences. Input validation happens here so storage backends only ever
// see well-formed records.
package accountregistry

import (
	"context"
	"errors"
	"time"

	"github.com/satwatch/satwatch/internal/account"
)

var (
	// ErrAlreadyRegistered is returned when a chat attempts a second
	// registration.
	ErrAlreadyRegistered = errors.New("account already registered")

	// ErrNotRegistered is returned for operations that need an existing
	// account.
	ErrNotRegistered = errors.New("account not registered")

	// ErrNoThreshold is returned when clearing a fee threshold that was
	// never set.
	ErrNoThreshold = errors.New("no fee threshold set")
)

// Service is the account lifecycle surface used by the chat handlers and the
// operator CLI.
type Service interface {
	// Register creates an account for the chat with the cursor set to the
	// current time, so only activity after registration is announced.
	Register(ctx context.Context, chatID int64, address string) (account.Account, error)

	// Edit replaces the watched address of an existing account.
	Edit(ctx context.Context, chatID int64, newAddress string) error

	// Unregister deletes the account. Returns ErrNotRegistered when there is
	// nothing to delete, letting callers warn instead of fail.
	Unregister(ctx context.Context, chatID int64) error

	// Get returns the account for the chat, or ErrNotRegistered.
	Get(ctx context.Context, chatID int64) (account.Account, error)

	// SetFeeThreshold stores the sat/vB level at or below which the user
	// receives fee alerts.
	SetFeeThreshold(ctx context.Context, chatID int64, satPerVB int64) error

	// ClearFeeThreshold removes the alert threshold. Returns ErrNoThreshold
	// when none was set.
	ClearFeeThreshold(ctx context.Context, chatID int64) error
}

type service struct {
	storage account.Storage
	now     func() time.Time
}

var _ Service = (*service)(nil)

type config struct {
	now func() time.Time
}

// Option customizes the registry service.
type Option func(*config)

// WithClock overrides the time source used for cursor initialization.
// Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// New wires a registry service around the given account storage.
func New(storage account.Storage, opts ...Option) *service {
	cfg := config{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		storage: storage,
		now:     cfg.now,
	}
}

func (s *service) Register(ctx context.Context, chatID int64, address string) (account.Account, error) {
	if _, err := s.storage.Get(ctx, chatID); err == nil {
		return account.Account{}, ErrAlreadyRegistered
	} else if !errors.Is(err, account.ErrNotFound) {
		return account.Account{}, err
	}

	if err := validateAddress(address); err != nil {
		return account.Account{}, err
	}

	acct := account.New(chatID, address, s.now().Unix())
	if err := s.storage.Put(ctx, acct); err != nil {
		return account.Account{}, err
	}

	return acct, nil
}

func (s *service) Edit(ctx context.Context, chatID int64, newAddress string) error {
	acct, err := s.Get(ctx, chatID)
	if err != nil {
		return err
	}

	if err := validateAddress(newAddress); err != nil {
		return err
	}

	acct.Address = newAddress
	return s.storage.Put(ctx, acct)
}

func (s *service) Unregister(ctx context.Context, chatID int64) error {
	if _, err := s.Get(ctx, chatID); err != nil {
		return err
	}

	return s.storage.Delete(ctx, chatID)
}

func (s *service) Get(ctx context.Context, chatID int64) (account.Account, error) {
	acct, err := s.storage.Get(ctx, chatID)
	if errors.Is(err, account.ErrNotFound) {
		return account.Account{}, ErrNotRegistered
	}
	return acct, err
}

func (s *service) SetFeeThreshold(ctx context.Context, chatID int64, satPerVB int64) error {
	acct, err := s.Get(ctx, chatID)
	if err != nil {
		return err
	}

	acct.FeeThreshold = &satPerVB
	return s.storage.Put(ctx, acct)
}

func (s *service) ClearFeeThreshold(ctx context.Context, chatID int64) error {
	acct, err := s.Get(ctx, chatID)
	if err != nil {
		return err
	}

	if acct.FeeThreshold == nil {
		return ErrNoThreshold
	}

	acct.FeeThreshold = nil
	return s.storage.Put(ctx, acct)
}
