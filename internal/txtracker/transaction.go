package txtracker

import (
	"cmp"
	"context"
	"slices"
)

// Funds is one transaction input or output: an address and the satoshi value
// moved to or from it.
type Funds struct {
	Address string
	Value   int64
}

// Transaction is the ledger view of one Bitcoin transaction involving the
// watched address. BlockTime is only meaningful when Confirmed is true.
type Transaction struct {
	ID        string
	Confirmed bool
	BlockTime int64
	Inputs    []Funds
	Outputs   []Funds
}

// Ledger fetches on-chain data for a watched address. Implementations return
// the complete transaction history on every call; the engine filters out
// what it has already handled.
type Ledger interface {
	// ListTransactions returns every known transaction for the address,
	// confirmed and unconfirmed.
	ListTransactions(ctx context.Context, address string) ([]Transaction, error)

	// PriceUSD returns the current BTC/USD exchange rate.
	PriceUSD(ctx context.Context) (float64, error)
}

// Notifier delivers chat notifications. Send returns the message handle
// needed to edit the notification once a pending transaction confirms.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) (int, error)
	Edit(ctx context.Context, chatID int64, messageID int, text string) error
}

// sortByBlockTime orders transactions ascending by block time, keeping
// unconfirmed ones last in their original relative order. Unconfirmed
// transactions carry no block time and must never win a cursor comparison.
func sortByBlockTime(txs []Transaction) {
	slices.SortStableFunc(txs, func(a, b Transaction) int {
		switch {
		case a.Confirmed && b.Confirmed:
			return cmp.Compare(a.BlockTime, b.BlockTime)
		case a.Confirmed:
			return -1
		case b.Confirmed:
			return 1
		default:
			return 0
		}
	})
}
