// Package fx provides display-currency conversion over a static rate table.
//
// Rates are multipliers against a fixed base currency. There is no live
// fetching and no historical lookup; unknown codes degrade to a 1:1 rate.
package fx

import "tally/internal/core"

// BaseCurrency is the unit the table's rates are expressed against.
const BaseCurrency = "USD"

// Table maps a currency code to its rate relative to the base currency.
type Table map[string]float64

// DefaultTable returns the compiled-in rate table.
func DefaultTable() Table {
	return Table{
		"USD": 1,
		"EUR": 0.92,
		"GBP": 0.78,
		"JPY": 150.36,
		"CAD": 1.35,
		"AUD": 1.48,
		"INR": 83.12,
		"CNY": 7.23,
		"MXN": 16.74,
		"BRL": 5.03,
	}
}

// Currencies returns the codes the table knows about, in display order.
func (t Table) Currencies() []string {
	return []string{"USD", "EUR", "GBP", "JPY", "CAD", "AUD", "INR", "CNY", "MXN", "BRL"}
}

func (t Table) rate(code string) float64 {
	if r, ok := t[code]; ok && r > 0 {
		return r
	}
	return 1
}

// Convert re-expresses an amount in another currency by normalizing through
// the base unit. Half-up rounding on the resulting cents.
func (t Table) Convert(amount core.Money, from, to string) core.Money {
	if from == to {
		return amount
	}
	value := float64(amount.Cents)
	if from != BaseCurrency {
		value = value / t.rate(from)
	}
	if to != BaseCurrency {
		value = value * t.rate(to)
	}
	return core.Money{Cents: core.CentsOf(value / 100)}
}
