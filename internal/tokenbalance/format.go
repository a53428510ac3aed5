package tokenbalance

import (
	"strings"

	"github.com/shopspring/decimal"
)

// groupDigits renders an indexer amount string with thousands separators,
// e.g. "1234567.5" becomes "1,234,567.5". Strings that do not parse as a
// number are returned untouched.
func groupDigits(amount string) string {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return amount
	}

	s := d.String()

	var sign string
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}

	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}

	return b.String()
}
