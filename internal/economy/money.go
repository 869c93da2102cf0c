// Package economy holds the player's treasury and the pure money rules:
// currency rounding, income accrual with bonuses, and auto-collection
// thresholds.
package economy

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrLoanLimit             = errors.New("loan limit exceeded")
)

// Round rounds v to a whole currency unit, halves away from zero.
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(0).InexactFloat64()
}

// Floor drops the fractional part of a non-negative balance.
func Floor(v float64) float64 {
	return decimal.NewFromFloat(v).Floor().InexactFloat64()
}

// Format renders a currency amount for notifications, e.g. "$1,250".
func Format(v float64) string {
	d := decimal.NewFromFloat(v).Round(0)
	s := d.Abs().String()
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if d.IsNegative() {
		return "-$" + s
	}
	return "$" + s
}
