package txtracker

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	statusPending   = "⏳ *Pending*"
	statusConfirmed = "✅ *Confirmed*"

	explorerBaseURL = "https://mempool.space"
)

var satoshisPerBTC = decimal.NewFromInt(100_000_000)

// renderNotification builds the chat message for a newly detected
// transaction: direction, linked address, BTC amount to 8 decimal places,
// fiat value to 2, transaction link, and the status marker. A zero priceUSD
// (rate unavailable) degrades the fiat value to $0.00 rather than blocking
// the notification.
func renderNotification(tx Transaction, address string, priceUSD float64) string {
	var (
		direction = "📥 *Incoming*"
		verb      = "Received"
		status    = statusPending
	)

	outgoing := isOutgoing(tx, address)
	if outgoing {
		direction = "📤 *Outgoing*"
		verb = "Sent"
	}
	if tx.Confirmed {
		status = statusConfirmed
	}

	amount := decimal.NewFromInt(ComputeValue(tx, address).Net(outgoing)).Div(satoshisPerBTC)
	fiat := amount.Mul(decimal.NewFromFloat(priceUSD))

	return fmt.Sprintf("%s *Transaction Detected*!\n"+
		"Bitcoin Address: [%s](%s/address/%s)\n"+
		"%s: %s BTC ($%s)\n"+
		"[Tx hash](%s/tx/%s)\n"+
		"Status: %s",
		direction,
		address, explorerBaseURL, address,
		verb, amount.StringFixed(8), fiat.StringFixed(2),
		explorerBaseURL, tx.ID,
		status,
	)
}

// confirmedText derives the confirmation edit from the stored pending body
// by swapping the status marker. Reusing the original text keeps the amount
// and fiat value exactly as announced.
func confirmedText(pendingText string) string {
	return strings.Replace(pendingText, statusPending, statusConfirmed, 1)
}
