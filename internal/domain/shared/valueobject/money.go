package valueobject

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	CAD Currency = "CAD"
)

// DefaultCurrency is the storefront's settlement currency
const DefaultCurrency = USD

// minorUnitExponent is the number of decimal places between major and minor
// units. All supported currencies use two.
const minorUnitExponent = 2

// Money is an immutable monetary amount in major units (dollars, euros).
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoney(d, currency)
}

// FromMinorUnits converts a gateway amount (cents) into Money.
// 4599 becomes 45.99.
func FromMinorUnits(minor int64, currency Currency) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{
		amount:   decimal.New(minor, -minorUnitExponent),
		currency: currency,
	}
}

// ParseCurrency normalizes a gateway currency code ("usd") into a Currency.
func ParseCurrency(code string) Currency {
	if code == "" {
		return DefaultCurrency
	}
	return Currency(strings.ToUpper(code))
}

// Amount returns the amount in major units
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency
func (m Money) Currency() Currency {
	return m.currency
}

// MinorUnits returns the amount in minor units, rounding half away from zero.
func (m Money) MinorUnits() int64 {
	return m.amount.Shift(minorUnitExponent).Round(0).IntPart()
}

// IsPositive returns true if the amount is greater than zero
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// MultiplyByInt multiplies the amount by an integer factor
func (m Money) MultiplyByInt(factor int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(factor)), currency: m.currency}
}

// String returns the amount with two decimal places and the currency code
func (m Money) String() string {
	return m.amount.StringFixed(minorUnitExponent) + " " + string(m.currency)
}
