// Package types provides common value types shared across domains.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal so that paidAmount + balanceDue == grandTotal holds
// exactly, with no floating-point drift.
type Money = decimal.Decimal

// NewMoney creates a Money value from an int64 amount of whole currency units.
// Retail prices here are whole shillings, so this is the common constructor.
func NewMoney(v int64) Money {
	return decimal.NewFromInt(v)
}

// NewMoneyFromString creates a Money value from a string.
// Preferred for fractional values coming over the wire.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ZeroMoney returns the zero Money value.
func ZeroMoney() Money {
	return decimal.Zero
}

// Percent is a discount percentage in [0, 100].
type Percent = decimal.Decimal

// ApplyDiscount returns amount * (1 - pct/100).
func ApplyDiscount(amount Money, pct Percent) Money {
	hundred := decimal.NewFromInt(100)
	factor := hundred.Sub(pct).Div(hundred)
	return amount.Mul(factor)
}

// ValidPercent reports whether pct is within [0, 100].
func ValidPercent(pct Percent) bool {
	return !pct.IsNegative() && pct.LessThanOrEqual(decimal.NewFromInt(100))
}
