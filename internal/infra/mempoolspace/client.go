// Package mempoolspace implements the ledger ports against the mempool.space
// REST API: address transaction history, BTC/USD price, and recommended fee
// tiers. Requests go through a retrying HTTP client and a circuit breaker so
// a degraded upstream fails fast instead of dragging every user's cycle
// through timeouts.
package mempoolspace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/satwatch/satwatch/internal/feealert"
	"github.com/satwatch/satwatch/internal/pkg/logger"
	"github.com/satwatch/satwatch/internal/txtracker"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
)

const defaultBaseURL = "https://mempool.space"

type client struct {
	baseURL string
	http    *retryablehttp.Client
	breaker *gobreaker.CircuitBreaker
}

// The client serves both the tracker's ledger port and the fee source.
var (
	_ txtracker.Ledger   = (*client)(nil)
	_ feealert.FeeSource = (*client)(nil)
)

type config struct {
	baseURL string
}

// Option customizes the client.
type Option func(*config)

// WithBaseURL overrides the API base URL. Intended for tests and self-hosted
// mempool instances.
func WithBaseURL(u string) Option {
	return func(c *config) {
		c.baseURL = u
	}
}

// NewClient builds a mempool.space client on top of the given HTTP client.
func NewClient(httpClient *retryablehttp.Client, opts ...Option) *client {
	cfg := config{baseURL: defaultBaseURL}
	for _, opt := range opts {
		opt(&cfg)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "mempool.space",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &client{
		baseURL: cfg.baseURL,
		http:    httpClient,
		breaker: breaker,
	}
}

func (c *client) getJSON(ctx context.Context, path string, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
		}

		return nil, json.NewDecoder(resp.Body).Decode(out)
	})
	return err
}

// apiTransaction mirrors the wire shape of one entry in the address
// transaction listing.
type apiTransaction struct {
	TxID   string `json:"txid"`
	Status struct {
		Confirmed bool  `json:"confirmed"`
		BlockTime int64 `json:"block_time"`
	} `json:"status"`
	Vin []struct {
		Prevout struct {
			ScriptpubkeyAddress string `json:"scriptpubkey_address"`
			Value               int64  `json:"value"`
		} `json:"prevout"`
	} `json:"vin"`
	Vout []struct {
		ScriptpubkeyAddress string `json:"scriptpubkey_address"`
		Value               int64  `json:"value"`
	} `json:"vout"`
}

func (t apiTransaction) toDomain() txtracker.Transaction {
	tx := txtracker.Transaction{
		ID:        t.TxID,
		Confirmed: t.Status.Confirmed,
		BlockTime: t.Status.BlockTime,
		Inputs:    make([]txtracker.Funds, 0, len(t.Vin)),
		Outputs:   make([]txtracker.Funds, 0, len(t.Vout)),
	}

	for _, in := range t.Vin {
		tx.Inputs = append(tx.Inputs, txtracker.Funds{
			Address: in.Prevout.ScriptpubkeyAddress,
			Value:   in.Prevout.Value,
		})
	}
	for _, out := range t.Vout {
		tx.Outputs = append(tx.Outputs, txtracker.Funds{
			Address: out.ScriptpubkeyAddress,
			Value:   out.Value,
		})
	}

	return tx
}

// ListTransactions returns the full known history of the address, confirmed
// and unconfirmed.
func (c *client) ListTransactions(ctx context.Context, address string) ([]txtracker.Transaction, error) {
	var raw []apiTransaction
	if err := c.getJSON(ctx, "/api/address/"+address+"/txs", &raw); err != nil {
		return nil, err
	}

	txs := make([]txtracker.Transaction, 0, len(raw))
	for _, t := range raw {
		txs = append(txs, t.toDomain())
	}
	return txs, nil
}

// PriceUSD returns the current BTC/USD rate.
func (c *client) PriceUSD(ctx context.Context) (float64, error) {
	var prices struct {
		USD float64 `json:"USD"`
	}
	if err := c.getJSON(ctx, "/api/v1/prices", &prices); err != nil {
		return 0, err
	}
	return prices.USD, nil
}

// RecommendedFees returns the current fee tiers in sat/vB.
func (c *client) RecommendedFees(ctx context.Context) (feealert.Fees, error) {
	var fees struct {
		FastestFee  int64 `json:"fastestFee"`
		HalfHourFee int64 `json:"halfHourFee"`
		HourFee     int64 `json:"hourFee"`
	}
	if err := c.getJSON(ctx, "/api/v1/fees/recommended", &fees); err != nil {
		return feealert.Fees{}, err
	}

	return feealert.Fees{
		Fastest:  fees.FastestFee,
		HalfHour: fees.HalfHourFee,
		Hour:     fees.HourFee,
	}, nil
}
