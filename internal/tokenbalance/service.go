// Package tokenbalance answers on-demand balance queries for fungible
// tokens carried on Bitcoin (runes and BRC-20), formatting the indexer's
// raw listings into the chat messages the bot replies with.
package tokenbalance

import (
	"context"
	"fmt"
	"net/url"
)

// RuneBalance is one rune holding as reported by the indexer. Amount comes
// through as a decimal string because holdings routinely exceed int64.
type RuneBalance struct {
	Name   string
	Symbol string
	Amount string
}

// Brc20Balance is one BRC-20 holding as reported by the indexer.
type Brc20Balance struct {
	Ticker  string
	Balance string
}

// Indexer fetches token holdings for an address. Implementations return only
// holdings with a nonzero balance.
type Indexer interface {
	RuneBalances(ctx context.Context, address string) ([]RuneBalance, error)
	Brc20Balances(ctx context.Context, address string) ([]Brc20Balance, error)
}

// Service renders token balance summaries for a watched address.
type Service interface {
	// RuneSummary returns the chat message listing all rune holdings of the
	// address, or a "none found" notice.
	RuneSummary(ctx context.Context, address string) (string, error)

	// Brc20Summary returns the chat message listing all nonzero BRC-20
	// holdings of the address, or a "none found" notice.
	Brc20Summary(ctx context.Context, address string) (string, error)
}

type service struct {
	indexer Indexer
}

var _ Service = (*service)(nil)

// New wires a token balance service around the given indexer.
func New(indexer Indexer) *service {
	return &service{indexer: indexer}
}

func (s *service) RuneSummary(ctx context.Context, address string) (string, error) {
	balances, err := s.indexer.RuneBalances(ctx, address)
	if err != nil {
		return "", fmt.Errorf("fetching rune balances: %w", err)
	}

	if len(balances) == 0 {
		return fmt.Sprintf("No runes found for your Bitcoin address %s.", address), nil
	}

	msg := "🔮 *Rune Balances*\n\n"
	for _, b := range balances {
		msg += fmt.Sprintf("%s [%s](https://unisat.io/runes/market?tick=%s): %s\n",
			b.Symbol,
			b.Name,
			url.QueryEscape(b.Name),
			groupDigits(b.Amount),
		)
	}

	return msg, nil
}

func (s *service) Brc20Summary(ctx context.Context, address string) (string, error) {
	balances, err := s.indexer.Brc20Balances(ctx, address)
	if err != nil {
		return "", fmt.Errorf("fetching brc20 balances: %w", err)
	}

	if len(balances) == 0 {
		return fmt.Sprintf("No BRC20 tokens found for your Bitcoin address %s.", address), nil
	}

	msg := "💰 *BRC20 Balances*\n\n"
	for _, token := range balances {
		msg += fmt.Sprintf("[%s](https://unisat.io/market/brc20?tick=%s): %s\n",
			token.Ticker,
			token.Ticker,
			groupDigits(token.Balance),
		)
	}

	return msg, nil
}
