package txtracker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/satwatch/satwatch/internal/account"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const watchedAddress = "bc1ptestaddressqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq"

type ledgerStub struct {
	listFunc  func(ctx context.Context, address string) ([]Transaction, error)
	priceFunc func(ctx context.Context) (float64, error)
}

func (l *ledgerStub) ListTransactions(ctx context.Context, address string) ([]Transaction, error) {
	return l.listFunc(ctx, address)
}

func (l *ledgerStub) PriceUSD(ctx context.Context) (float64, error) {
	if l.priceFunc == nil {
		return 100_000, nil
	}
	return l.priceFunc(ctx)
}

type sentMessage struct {
	chatID int64
	text   string
}

type editedMessage struct {
	chatID    int64
	messageID int
	text      string
}

type notifierStub struct {
	nextMessageID int
	sendErr       error
	editErr       error

	sent   []sentMessage
	edited []editedMessage
}

func (n *notifierStub) Send(ctx context.Context, chatID int64, text string) (int, error) {
	if n.sendErr != nil {
		return 0, n.sendErr
	}
	n.nextMessageID++
	n.sent = append(n.sent, sentMessage{chatID: chatID, text: text})
	return n.nextMessageID, nil
}

func (n *notifierStub) Edit(ctx context.Context, chatID int64, messageID int, text string) error {
	if n.editErr != nil {
		return n.editErr
	}
	n.edited = append(n.edited, editedMessage{chatID: chatID, messageID: messageID, text: text})
	return nil
}

func incomingTx(id string, confirmed bool, blockTime, value int64) Transaction {
	return Transaction{
		ID:        id,
		Confirmed: confirmed,
		BlockTime: blockTime,
		Inputs:    []Funds{{Address: "bc1qsomeoneelse", Value: value + 500}},
		Outputs:   []Funds{{Address: watchedAddress, Value: value}},
	}
}

func fixedLedger(txs ...Transaction) *ledgerStub {
	return &ledgerStub{
		listFunc: func(ctx context.Context, address string) ([]Transaction, error) {
			return txs, nil
		},
	}
}

func TestService_Track(t *testing.T) {
	t.Run("should announce a pending transaction and record it in the pending set", func(t *testing.T) {
		notifier := &notifierStub{}
		svc := New(fixedLedger(incomingTx("t1", false, 0, 5_000_000_000)), notifier)

		acct := account.New(10, watchedAddress, 1_700_000_000)

		updated, err := svc.Track(t.Context(), acct)
		require.NoError(t, err)

		require.Len(t, notifier.sent, 1)
		assert.Contains(t, notifier.sent[0].text, "Pending")
		assert.Contains(t, notifier.sent[0].text, "📥 *Incoming*")
		assert.Contains(t, notifier.sent[0].text, "50.00000000 BTC")

		entry, ok := updated.Pending["t1"]
		require.True(t, ok)
		assert.Equal(t, 1, entry.MessageID)
		assert.Equal(t, notifier.sent[0].text, entry.Text)
	})

	t.Run("should edit the pending notification once the transaction confirms", func(t *testing.T) {
		const blockTime = int64(1_700_000_100)

		tx := incomingTx("t1", false, 0, 5_000_000_000)
		notifier := &notifierStub{}
		ledger := fixedLedger(tx)
		svc := New(ledger, notifier)

		acct := account.New(10, watchedAddress, 1_700_000_000)

		acct, err := svc.Track(t.Context(), acct)
		require.NoError(t, err)
		require.Len(t, notifier.sent, 1)

		tx.Confirmed = true
		tx.BlockTime = blockTime
		ledger.listFunc = func(ctx context.Context, address string) ([]Transaction, error) {
			return []Transaction{tx}, nil
		}

		acct, err = svc.Track(t.Context(), acct)
		require.NoError(t, err)

		assert.Len(t, notifier.sent, 1, "a confirmed pending transaction must never trigger a second send")
		require.Len(t, notifier.edited, 1)
		assert.Equal(t, 1, notifier.edited[0].messageID)
		assert.Contains(t, notifier.edited[0].text, "Confirmed")
		assert.NotContains(t, notifier.edited[0].text, "Pending")

		assert.Empty(t, acct.Pending)
		assert.Equal(t, blockTime+1, acct.Cursor)
	})

	t.Run("should never announce the same transaction twice across refetches of full history", func(t *testing.T) {
		tx := incomingTx("t1", true, 1_700_000_050, 1_000)
		notifier := &notifierStub{}
		svc := New(fixedLedger(tx), notifier)

		acct := account.New(10, watchedAddress, 1_700_000_000)

		for range 3 {
			var err error
			acct, err = svc.Track(t.Context(), acct)
			require.NoError(t, err)
		}

		assert.Len(t, notifier.sent, 1)
		assert.Empty(t, notifier.edited)
	})

	t.Run("should skip confirmed transactions below the cursor", func(t *testing.T) {
		notifier := &notifierStub{}
		svc := New(fixedLedger(incomingTx("old", true, 1_699_999_000, 1_000)), notifier)

		acct := account.New(10, watchedAddress, 1_700_000_000)

		updated, err := svc.Track(t.Context(), acct)
		require.NoError(t, err)

		assert.Empty(t, notifier.sent)
		assert.Equal(t, acct.Cursor+1, updated.Cursor)
	})

	t.Run("should return the account unchanged when the ledger fetch fails", func(t *testing.T) {
		ledger := &ledgerStub{
			listFunc: func(ctx context.Context, address string) ([]Transaction, error) {
				return nil, errors.New("upstream down")
			},
		}
		notifier := &notifierStub{}
		svc := New(ledger, notifier)

		acct := account.New(10, watchedAddress, 1_700_000_000)
		acct.Pending["t9"] = account.PendingEntry{MessageID: 7, Text: "Status: " + statusPending}

		updated, err := svc.Track(t.Context(), acct)
		require.Error(t, err)

		assert.Equal(t, acct.Cursor, updated.Cursor)
		assert.Equal(t, acct.Pending, updated.Pending)
		assert.Empty(t, notifier.sent)
		assert.Empty(t, notifier.edited)
	})

	t.Run("should keep announcing when the exchange rate is unavailable", func(t *testing.T) {
		ledger := fixedLedger(incomingTx("t1", false, 0, 100_000_000))
		ledger.priceFunc = func(ctx context.Context) (float64, error) {
			return 0, errors.New("rate source down")
		}
		notifier := &notifierStub{}
		svc := New(ledger, notifier)

		_, err := svc.Track(t.Context(), account.New(10, watchedAddress, 1_700_000_000))
		require.NoError(t, err)

		require.Len(t, notifier.sent, 1)
		assert.Contains(t, notifier.sent[0].text, "($0.00)")
	})

	t.Run("should not record a pending entry when the send fails", func(t *testing.T) {
		notifier := &notifierStub{sendErr: errors.New("chat unreachable")}
		ledger := fixedLedger(incomingTx("t1", false, 0, 1_000))
		svc := New(ledger, notifier)

		acct, err := svc.Track(t.Context(), account.New(10, watchedAddress, 1_700_000_000))
		require.NoError(t, err)
		assert.Empty(t, acct.Pending)

		// Once delivery recovers, the transaction is picked up as new again.
		notifier.sendErr = nil
		acct, err = svc.Track(t.Context(), acct)
		require.NoError(t, err)
		require.Len(t, notifier.sent, 1)
		assert.Contains(t, acct.Pending, "t1")
	})

	t.Run("should retry a failed confirmation edit on the next cycle", func(t *testing.T) {
		tx := incomingTx("t1", true, 1_700_000_100, 1_000)
		notifier := &notifierStub{editErr: errors.New("edit rejected")}
		svc := New(fixedLedger(tx), notifier)

		acct := account.New(10, watchedAddress, 1_700_000_000)
		acct.Pending["t1"] = account.PendingEntry{MessageID: 3, Text: "Status: " + statusPending}

		acct, err := svc.Track(t.Context(), acct)
		require.NoError(t, err)
		assert.Contains(t, acct.Pending, "t1", "failed edit keeps the entry for retry")

		notifier.editErr = nil
		acct, err = svc.Track(t.Context(), acct)
		require.NoError(t, err)

		assert.NotContains(t, acct.Pending, "t1")
		require.Len(t, notifier.edited, 1)
		assert.Equal(t, 3, notifier.edited[0].messageID)
		assert.Empty(t, notifier.sent, "a pending transaction is never re-announced")
	})

	t.Run("should keep the cursor monotonically non-decreasing across cycles", func(t *testing.T) {
		notifier := &notifierStub{}
		ledger := fixedLedger(
			incomingTx("t1", true, 1_700_000_100, 1_000),
			incomingTx("t2", true, 1_700_000_050, 2_000),
		)
		svc := New(ledger, notifier)

		acct := account.New(10, watchedAddress, 1_700_000_000)

		previous := acct.Cursor
		for range 4 {
			var err error
			acct, err = svc.Track(t.Context(), acct)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, acct.Cursor, previous)
			previous = acct.Cursor
		}

		assert.Equal(t, int64(1_700_000_100)+1, acct.Cursor)
		assert.Len(t, notifier.sent, 2)
	})

	t.Run("should classify a spend from the watched address as outgoing", func(t *testing.T) {
		tx := Transaction{
			ID:        "t1",
			Confirmed: false,
			Inputs:    []Funds{{Address: watchedAddress, Value: 150_000_000}},
			Outputs: []Funds{
				{Address: "bc1qrecipient", Value: 100_000_000},
				{Address: watchedAddress, Value: 40_000_000}, // change
			},
		}
		notifier := &notifierStub{}
		svc := New(fixedLedger(tx), notifier)

		_, err := svc.Track(t.Context(), account.New(10, watchedAddress, 1_700_000_000))
		require.NoError(t, err)

		require.Len(t, notifier.sent, 1)
		assert.Contains(t, notifier.sent[0].text, "📤 *Outgoing*")
		assert.Contains(t, notifier.sent[0].text, "Sent: 1.10000000 BTC")
	})
}

func TestSortByBlockTime(t *testing.T) {
	t.Run("should order confirmed ascending with unconfirmed last", func(t *testing.T) {
		txs := []Transaction{
			{ID: "u1"},
			{ID: "c2", Confirmed: true, BlockTime: 200},
			{ID: "u2"},
			{ID: "c1", Confirmed: true, BlockTime: 100},
		}

		sortByBlockTime(txs)

		ids := make([]string, 0, len(txs))
		for _, tx := range txs {
			ids = append(ids, tx.ID)
		}
		assert.Equal(t, []string{"c1", "c2", "u1", "u2"}, ids)
	})
}

func TestComputeValue(t *testing.T) {
	t.Run("should report the full input as outgoing when spent to a third party", func(t *testing.T) {
		tx := Transaction{
			Inputs:  []Funds{{Address: "A", Value: 100}},
			Outputs: []Funds{{Address: "B", Value: 90}},
		}

		v := ComputeValue(tx, "A")
		assert.Equal(t, int64(100), v.TotalOut)
		assert.Equal(t, int64(0), v.TotalIn)
		assert.Equal(t, int64(100), v.Net(true))
	})

	t.Run("should exclude change from the net sent amount", func(t *testing.T) {
		tx := Transaction{
			Inputs: []Funds{{Address: "A", Value: 100}},
			Outputs: []Funds{
				{Address: "B", Value: 60},
				{Address: "A", Value: 30},
			},
		}

		v := ComputeValue(tx, "A")
		assert.Equal(t, int64(70), v.Net(true))
	})

	t.Run("should sum only outputs to the watched address for incoming", func(t *testing.T) {
		tx := Transaction{
			Inputs: []Funds{{Address: "C", Value: 500}},
			Outputs: []Funds{
				{Address: "A", Value: 200},
				{Address: "A", Value: 50},
				{Address: "D", Value: 250},
			},
		}

		v := ComputeValue(tx, "A")
		assert.Equal(t, int64(250), v.TotalIn)
		assert.Equal(t, int64(250), v.Net(false))
	})

	t.Run("should return zero totals for a malformed transaction", func(t *testing.T) {
		v := ComputeValue(Transaction{}, "A")
		assert.Zero(t, v.TotalIn)
		assert.Zero(t, v.TotalOut)
	})
}

func TestConfirmedText(t *testing.T) {
	t.Run("should swap only the status marker", func(t *testing.T) {
		body := renderNotification(incomingTx("t1", false, 0, 123_456), watchedAddress, 50_000)
		confirmed := confirmedText(body)

		assert.NotContains(t, confirmed, statusPending)
		assert.Contains(t, confirmed, statusConfirmed)
		assert.Equal(t,
			strings.ReplaceAll(body, statusPending, statusConfirmed),
			confirmed,
		)
	})
}
