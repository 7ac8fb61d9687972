package services

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes every formatted amount.
var CurrencySymbol = "$"

// FormatMoney renders an amount with thousands separators and exactly two
// decimal places, e.g. $1,234,567.89. Amounts are rounded half to even
// before display.
func FormatMoney(amount decimal.Decimal) string {
	amount = RoundMoney(amount)
	negative := amount.IsNegative()
	if negative {
		amount = amount.Neg()
	}
	result := CurrencySymbol + humanize.FormatFloat("#,###.##", amount.InexactFloat64())
	if negative {
		result = "-" + result
	}
	return result
}

// FormatQuantity renders sprints or hours with one decimal place.
func FormatQuantity(q decimal.Decimal) string {
	return q.StringFixed(1)
}

// FormatPercent renders a percentage without trailing zeros, e.g. "12.5%".
func FormatPercent(p decimal.Decimal) string {
	return p.String() + "%"
}
