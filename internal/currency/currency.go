// Package currency looks up display details for ISO 4217 codes. Amounts are
// never converted between currencies.
package currency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ErrUnknownCurrency = errors.New("unknown currency")

// Info describes how amounts in one currency are displayed.
type Info struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Digits int    `json:"digits"`
}

var printer = message.NewPrinter(language.English)

// Lookup returns the symbol and minor-unit digits of code.
func Lookup(code string) (Info, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	scale, _ := currency.Standard.Rounding(unit)
	symbol := printer.Sprint(currency.NarrowSymbol(unit))
	if symbol == "" {
		symbol = unit.String()
	}
	return Info{Code: unit.String(), Symbol: symbol, Digits: scale}, nil
}

// LookupOrDefault never fails: unknown codes render as the raw code with two
// digits.
func LookupOrDefault(code string) Info {
	info, err := Lookup(code)
	if err != nil {
		return Info{Code: strings.ToUpper(code), Symbol: strings.ToUpper(code), Digits: 2}
	}
	return info
}

// Format renders d with the currency's symbol and digits.
func (i Info) Format(d decimal.Decimal) string {
	return i.Symbol + d.StringFixed(int32(i.Digits))
}
