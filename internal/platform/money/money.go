// Package money holds the decimal helpers used for expense amounts.
//
// Amounts are decimal.Decimal values with two fractional digits. Storage
// keeps whole cents so SQLite never rounds a float.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Places is the number of fractional digits kept for every amount.
const Places = 2

var printer = message.NewPrinter(language.AmericanEnglish)

// ErrOutOfRange indicates an amount whose cent count does not fit in int64.
var ErrOutOfRange = errors.New("amount out of range")

// FromFloat converts a float (as sent by JSON clients) into a rounded amount.
func FromFloat(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value).Round(Places)
}

// FromCents converts a stored cent count into an amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -Places)
}

// ToCents converts an amount into whole cents, rounding half away from zero.
func ToCents(amount decimal.Decimal) (int64, error) {
	cents := amount.Round(Places).Shift(Places)
	if !cents.BigInt().IsInt64() {
		return 0, ErrOutOfRange
	}
	return cents.IntPart(), nil
}

// Sum adds amounts; an empty input sums to zero.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return total
}

// Float returns the amount as a float64 for JSON and regression math.
func Float(amount decimal.Decimal) float64 {
	return amount.Round(Places).InexactFloat64()
}

// Format renders an amount as US dollars with digit grouping, e.g. $1,234.50.
func Format(amount decimal.Decimal) string {
	rounded := amount.Round(Places)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	return sign + "$" + printer.Sprintf("%.2f", rounded.InexactFloat64())
}
