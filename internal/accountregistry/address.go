package accountregistry

import "github.com/satwatch/satwatch/internal/pkg/validator"

// watchTarget carries the address through validation. Only native
// segwit/taproot addresses are accepted; legacy base58 formats are rejected.
type watchTarget struct {
	Address string `validate:"required,btc_address"`
}

// validateAddress checks that the string is a plausible mainnet
// segwit/taproot address.
func validateAddress(address string) error {
	return validator.Validate(watchTarget{Address: address})
}
