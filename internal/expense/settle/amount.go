package settle

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	maxAmountLen     = 32
	maxIntegerDigits = 12
	minExponent      = -maxAmountLen
)

// MaxAmount is the largest magnitude a NUMERIC(14,2) column holds.
var MaxAmount = decimal.New(99999999999999, -2)

// ParseAmount parses a decimal string coming from user input or settle
// metadata and rounds it to two fractional digits. Values whose magnitude
// exceeds MaxAmount are ErrAmountOutOfRange.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrAmountRequired
	}
	if len(s) > maxAmountLen {
		return decimal.Zero, fmt.Errorf("%w: %d characters", ErrAmountOutOfRange, len(s))
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	// Rounding rescales the coefficient, so bound the exponent first.
	exp := int64(d.Exponent())
	if exp < minExponent || int64(d.NumDigits())+exp > maxIntegerDigits {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrAmountOutOfRange, s)
	}
	d = d.Round(2)
	if d.Abs().GreaterThan(MaxAmount) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrAmountOutOfRange, s)
	}
	return d, nil
}

// FormatAmount renders an amount with exactly two fractional digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// parseOptionalAmount treats a blank string as zero.
func parseOptionalAmount(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return ParseAmount(s)
}
