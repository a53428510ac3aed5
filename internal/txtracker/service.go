// Package txtracker implements the reconciliation loop at the heart of the
// bot. Each cycle it pulls the full transaction history for a watched
// address, decides which transactions are new against the account's cursor
// and pending set, announces them, and transitions earlier pending
// notifications to confirmed by editing them in place.
package txtracker

import (
	"context"
	"fmt"

	"github.com/satwatch/satwatch/internal/account"
	"github.com/satwatch/satwatch/internal/pkg/logger"
)

// Service runs one reconciliation cycle for one account.
type Service interface {
	// Track fetches the address history, notifies new activity, confirms
	// pending notifications, and returns the account with its cursor and
	// pending set updated. On a transient upstream failure the account comes
	// back unchanged alongside the error, so the next cycle retries from the
	// same state.
	Track(ctx context.Context, acct account.Account) (account.Account, error)
}

type service struct {
	ledger   Ledger
	notifier Notifier
}

var _ Service = (*service)(nil)

// New wires a tracker service from its ledger source and notification port.
func New(ledger Ledger, notifier Notifier) *service {
	return &service{
		ledger:   ledger,
		notifier: notifier,
	}
}

// isNew decides whether a transaction should be announced. A transaction
// already represented in the pending set is never re-announced, even though
// the full history listing keeps returning it.
func isNew(acct account.Account, tx Transaction) bool {
	if _, pending := acct.Pending[tx.ID]; pending {
		return false
	}
	if tx.Confirmed {
		return tx.BlockTime >= acct.Cursor
	}
	return true
}

func (s *service) Track(ctx context.Context, acct account.Account) (account.Account, error) {
	txs, err := s.ledger.ListTransactions(ctx, acct.Address)
	if err != nil {
		return acct, fmt.Errorf("fetching transactions for %s: %w", acct.Address, err)
	}

	// A missing exchange rate degrades the fiat display to zero; it never
	// blocks transaction processing.
	price, err := s.ledger.PriceUSD(ctx)
	if err != nil {
		logger.Warn(ctx, "btc price unavailable, reporting $0.00",
			"chat_id", acct.ChatID,
			"error", err,
		)
		price = 0
	}

	sortByBlockTime(txs)

	if acct.Pending == nil {
		acct.Pending = make(map[string]account.PendingEntry)
	}

	// The cursor itself is only moved once the whole batch has been walked,
	// keeping its advancement atomic for the cycle.
	candidate := acct.Cursor

	for _, tx := range txs {
		if isNew(acct, tx) {
			text := renderNotification(tx, acct.Address, price)

			messageID, err := s.notifier.Send(ctx, acct.ChatID, text)
			if err != nil {
				// Without a handle there is nothing to track. An unconfirmed
				// transaction stays out of the pending set and is picked up
				// again as new on the next cycle.
				logger.Error(ctx, "sending transaction notification",
					"chat_id", acct.ChatID,
					"tx_id", tx.ID,
					"error", err,
				)
			} else {
				logger.Info(ctx, "new transaction announced",
					"chat_id", acct.ChatID,
					"tx_id", tx.ID,
					"confirmed", tx.Confirmed,
				)
				if !tx.Confirmed {
					acct.Pending[tx.ID] = account.PendingEntry{
						MessageID: messageID,
						Text:      text,
					}
				}
			}

			if tx.Confirmed && tx.BlockTime > candidate {
				candidate = tx.BlockTime
			}
		}

		// Previously announced as pending and now confirmed: edit the
		// original message instead of sending a duplicate.
		if entry, ok := acct.Pending[tx.ID]; ok && tx.Confirmed {
			if err := s.notifier.Edit(ctx, acct.ChatID, entry.MessageID, confirmedText(entry.Text)); err != nil {
				// The entry stays in the pending set so the edit is retried
				// next cycle. Re-editing with the same derived text is
				// harmless.
				logger.Error(ctx, "editing confirmed transaction notification",
					"chat_id", acct.ChatID,
					"tx_id", tx.ID,
					"error", err,
				)
				continue
			}

			logger.Info(ctx, "pending transaction confirmed",
				"chat_id", acct.ChatID,
				"tx_id", tx.ID,
			)

			delete(acct.Pending, tx.ID)
			if tx.BlockTime > candidate {
				candidate = tx.BlockTime
			}
		}
	}

	// The +1 keeps the just-processed block time from matching ">= cursor"
	// again next cycle. A second confirmed transaction sharing that exact
	// block time but only appearing in a later fetch is therefore skipped.
	acct.Cursor = candidate + 1

	return acct, nil
}
