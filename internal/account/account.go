// Package account defines the per-user watch state and the storage contract
// used to persist it. Every other service receives the state store through
// this interface, so the durable backend (flat file, Redis) is swappable and
// tests run against an in-memory fake.
package account

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Storage lookups for chat IDs that have no
// registered account.
var ErrNotFound = errors.New("account not found")

// PendingEntry records a notification that was sent for an unconfirmed
// transaction and is awaiting its confirmation edit.
type PendingEntry struct {
	// MessageID is the handle of the sent chat message, needed to edit it
	// once the transaction confirms.
	MessageID int

	// Text is the exact body that was sent. The confirmed variant is derived
	// from it by swapping the status marker, so the amount and fiat value are
	// never recomputed against a drifted exchange rate.
	Text string
}

// Account is the full watch state for one registered chat.
type Account struct {
	// ChatID identifies the chat the account belongs to.
	ChatID int64

	// Address is the watched Bitcoin address.
	Address string

	// Cursor is the block-time watermark (unix seconds). Confirmed
	// transactions below it are considered already processed. It only moves
	// forward.
	Cursor int64

	// Pending maps transaction IDs to their pending notifications. An entry
	// exists iff a pending notification went out and its confirmation edit
	// has not been processed yet.
	Pending map[string]PendingEntry

	// FeeThreshold, when set, is the sat/vB level at or below which the user
	// wants fee alerts.
	FeeThreshold *int64
}

// New returns an account for the given chat and address with the cursor set
// to now and an empty pending set.
func New(chatID int64, address string, now int64) Account {
	return Account{
		ChatID:  chatID,
		Address: address,
		Cursor:  now,
		Pending: make(map[string]PendingEntry),
	}
}

// Storage is the durable keyed store of accounts.
type Storage interface {
	// Get loads the account for a chat. Returns ErrNotFound when the chat is
	// not registered.
	Get(ctx context.Context, chatID int64) (Account, error)

	// Put creates or replaces the account record.
	Put(ctx context.Context, acct Account) error

	// Delete removes the account record. Deleting an absent account is not
	// an error.
	Delete(ctx context.Context, chatID int64) error

	// List returns every stored account.
	List(ctx context.Context) ([]Account, error)
}
