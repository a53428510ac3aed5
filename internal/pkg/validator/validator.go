// Package validator wraps go-playground/validator for declarative struct
// validation with uniform error formatting. Besides the standard tags it
// registers a "btc_address" rule accepting native segwit/taproot Bitcoin
// addresses (bech32 alphabet, 42-62 characters).
package validator

import (
	"errors"
	"fmt"
	"regexp"
	"sync"

	gvalidator "github.com/go-playground/validator/v10"
)

// ErrValidation is the root of every error chain returned when validation
// fails, so callers can branch with errors.Is.
var ErrValidation = errors.New("struct validation failed")

var (
	validate *gvalidator.Validate
	initOnce sync.Once
)

// btcAddressPattern matches mainnet bech32 addresses: the "bc" prefix
// followed by 40 to 60 lowercase base32 characters.
var btcAddressPattern = regexp.MustCompile(`^bc[a-z0-9]{40,60}$`)

const errStringFormat = "'%s': value '%v' does not satisfy the '%s' rule"

// Init prepares the shared validator instance and registers custom rules.
// It is safe to call from multiple packages; only the first call does work.
func Init() {
	initOnce.Do(func() {
		validate = gvalidator.New(gvalidator.WithRequiredStructEnabled())

		// Registration cannot fail here: the tag is constant and the
		// function is non-nil.
		_ = validate.RegisterValidation("btc_address", func(fl gvalidator.FieldLevel) bool {
			return btcAddressPattern.MatchString(fl.Field().String())
		})
	})
}

func formatError(err error) error {
	var validationErrors gvalidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := []error{ErrValidation}
	for _, validationErr := range validationErrors {
		errs = append(errs, fmt.Errorf(errStringFormat,
			validationErr.Field(),
			validationErr.Value(),
			validationErr.Tag(),
		))
	}

	return errors.Join(errs...)
}

// Validate checks the struct against its validation tags. On failure it
// returns a joined error rooted at ErrValidation with one entry per field.
func Validate(v any) error {
	Init()

	if err := validate.Struct(v); err != nil {
		return formatError(err)
	}

	return nil
}
