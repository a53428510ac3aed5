// Package unisat implements the token indexer port against the UniSat open
// API, which reports rune and BRC-20 holdings per address. All endpoints sit
// behind bearer-token auth and wrap their payloads in a code/data envelope.
package unisat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/satwatch/satwatch/internal/tokenbalance"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"
)

const (
	defaultBaseURL = "https://open-api.unisat.io"

	// pageLimit caps one listing request. The bot reads a single page; an
	// address holding more than 500 distinct tokens is out of scope.
	pageLimit = "500"
)

type client struct {
	baseURL string
	apiKey  string
	http    *retryablehttp.Client
}

var _ tokenbalance.Indexer = (*client)(nil)

type config struct {
	baseURL string
}

// Option customizes the client.
type Option func(*config)

// WithBaseURL overrides the API base URL. Intended for tests.
func WithBaseURL(u string) Option {
	return func(c *config) {
		c.baseURL = u
	}
}

// NewClient builds a UniSat client on top of the given HTTP client.
func NewClient(httpClient *retryablehttp.Client, apiKey string, opts ...Option) *client {
	cfg := config{baseURL: defaultBaseURL}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &client{
		baseURL: cfg.baseURL,
		apiKey:  apiKey,
		http:    httpClient,
	}
}

// envelope is the common UniSat response wrapper. A non-zero code means the
// request failed even when HTTP reports 200.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

func (c *client) getData(ctx context.Context, path string, query url.Values, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return err
	}
	if env.Code != 0 {
		return fmt.Errorf("GET %s: api error code %d: %s", path, env.Code, env.Message)
	}

	return json.Unmarshal(env.Data, out)
}

// RuneBalances returns the address's rune holdings.
func (c *client) RuneBalances(ctx context.Context, address string) ([]tokenbalance.RuneBalance, error) {
	query := url.Values{
		"start": {"1"},
		"limit": {pageLimit},
	}

	var data struct {
		Detail []struct {
			SpacedRune string `json:"spacedRune"`
			Symbol     string `json:"symbol"`
			Amount     string `json:"amount"`
		} `json:"detail"`
	}
	if err := c.getData(ctx, "/v1/indexer/address/"+address+"/runes/balance-list", query, &data); err != nil {
		return nil, err
	}

	balances := make([]tokenbalance.RuneBalance, 0, len(data.Detail))
	for _, r := range data.Detail {
		balances = append(balances, tokenbalance.RuneBalance{
			Name:   r.SpacedRune,
			Symbol: r.Symbol,
			Amount: r.Amount,
		})
	}
	return balances, nil
}

// Brc20Balances returns the address's BRC-20 holdings, dropping zero
// balances the indexer still lists.
func (c *client) Brc20Balances(ctx context.Context, address string) ([]tokenbalance.Brc20Balance, error) {
	query := url.Values{
		"start":       {"1"},
		"limit":       {pageLimit},
		"tick_filter": {"24"},
	}

	var data struct {
		Detail []struct {
			Ticker         string `json:"ticker"`
			OverallBalance string `json:"overallBalance"`
		} `json:"detail"`
	}
	if err := c.getData(ctx, "/v1/indexer/address/"+address+"/brc20/summary", query, &data); err != nil {
		return nil, err
	}

	balances := make([]tokenbalance.Brc20Balance, 0, len(data.Detail))
	for _, t := range data.Detail {
		if b, err := decimal.NewFromString(t.OverallBalance); err != nil || !b.IsPositive() {
			continue
		}
		balances = append(balances, tokenbalance.Brc20Balance{
			Ticker:  t.Ticker,
			Balance: t.OverallBalance,
		})
	}
	return balances, nil
}
