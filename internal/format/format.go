// Package format renders balances and amounts for display.
package format

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Missing is shown in place of an absent value.
const Missing = "—"

// Balance renders a balance with two fixed decimals, or Missing when absent.
func Balance(value *decimal.Decimal) string {
	if value == nil {
		return Missing
	}
	return value.StringFixed(2)
}

// Amount renders value in currency using the currency's symbol, separators and
// minor units. Unknown currencies fall back to Balance formatting followed by the code.
func Amount(value decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return value.StringFixed(2) + " " + currency
	}
	minor := value.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display()
}

// IsCurrency reports whether code is a known ISO 4217 currency.
func IsCurrency(code string) bool {
	return money.GetCurrency(code) != nil
}
