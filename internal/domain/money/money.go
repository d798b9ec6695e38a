// Package money holds the rounding rules for monetary amounts.
package money

import "github.com/shopspring/decimal"

// Places is the number of fractional digits every amount is rounded to.
const Places = 2

// Round2 rounds d to two fractional digits, with ties rounded away from zero
// (1.005 -> 1.01, -1.005 -> -1.01).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Round2Float rounds a binary float by first taking its shortest decimal
// representation, so 1.005 rounds to 1.01 even though the float is slightly
// below 1.005.
func Round2Float(f float64) decimal.Decimal {
	return Round2(decimal.NewFromFloat(f))
}

// Format renders d with exactly two fractional digits.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}
