package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is the only currency the storefront sells in.
const Currency = "INR"

// Money is an amount in paise, the minor unit the payment gateway works in.
type Money int64

func (m Money) Rupees() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

func (m Money) Times(quantity int) Money {
	return m * Money(quantity)
}

func (m Money) String() string {
	return "₹" + m.Rupees().StringFixed(2)
}

// MoneyFromDecimal converts a rupee amount (as stored in NUMERIC columns) to paise,
// rounding half away from zero.
func MoneyFromDecimal(rupees decimal.Decimal) Money {
	return Money(rupees.Shift(2).Round(0).IntPart())
}

func ParseRupees(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("parse amount %q: negative amount", s)
	}
	return MoneyFromDecimal(d), nil
}
