package mempoolspace

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	transporthttp "github.com/satwatch/satwatch/internal/pkg/transport/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := transporthttp.NewClient(
		transporthttp.WithTimeout(2*time.Second),
		transporthttp.WithRetryMax(0),
	)

	return NewClient(httpClient, WithBaseURL(server.URL))
}

func TestClient_ListTransactions(t *testing.T) {
	t.Run("should decode the address transaction listing", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/address/bc1qaddr/txs", r.URL.Path)
			w.Write([]byte(`[
				{
					"txid": "t1",
					"status": {"confirmed": true, "block_time": 1700000100},
					"vin": [{"prevout": {"scriptpubkey_address": "bc1qsender", "value": 5000}}],
					"vout": [{"scriptpubkey_address": "bc1qaddr", "value": 4500}]
				},
				{
					"txid": "t2",
					"status": {"confirmed": false},
					"vin": [],
					"vout": [{"scriptpubkey_address": "bc1qaddr", "value": 100}]
				}
			]`))
		}))

		txs, err := c.ListTransactions(t.Context(), "bc1qaddr")
		require.NoError(t, err)
		require.Len(t, txs, 2)

		assert.Equal(t, "t1", txs[0].ID)
		assert.True(t, txs[0].Confirmed)
		assert.Equal(t, int64(1_700_000_100), txs[0].BlockTime)
		require.Len(t, txs[0].Inputs, 1)
		assert.Equal(t, "bc1qsender", txs[0].Inputs[0].Address)
		assert.Equal(t, int64(5000), txs[0].Inputs[0].Value)
		require.Len(t, txs[0].Outputs, 1)
		assert.Equal(t, int64(4500), txs[0].Outputs[0].Value)

		assert.False(t, txs[1].Confirmed)
		assert.Zero(t, txs[1].BlockTime)
	})

	t.Run("should fail on a non-list payload", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"message": "address not found"}`))
		}))

		_, err := c.ListTransactions(t.Context(), "bc1qaddr")
		assert.Error(t, err)
	})

	t.Run("should fail on a non-200 status", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))

		_, err := c.ListTransactions(t.Context(), "bc1qaddr")
		assert.Error(t, err)
	})
}

func TestClient_PriceUSD(t *testing.T) {
	t.Run("should return the USD rate", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/prices", r.URL.Path)
			w.Write([]byte(`{"USD": 97123.45, "EUR": 89000}`))
		}))

		price, err := c.PriceUSD(t.Context())
		require.NoError(t, err)
		assert.InDelta(t, 97123.45, price, 0.001)
	})
}

func TestClient_RecommendedFees(t *testing.T) {
	t.Run("should map the three tiers", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/fees/recommended", r.URL.Path)
			w.Write([]byte(`{"fastestFee": 25, "halfHourFee": 15, "hourFee": 8, "economyFee": 4, "minimumFee": 1}`))
		}))

		fees, err := c.RecommendedFees(t.Context())
		require.NoError(t, err)
		assert.Equal(t, int64(25), fees.Fastest)
		assert.Equal(t, int64(15), fees.HalfHour)
		assert.Equal(t, int64(8), fees.Hour)
	})
}
