package services

import "github.com/shopspring/decimal"

// moneyPlaces is the scale every monetary result is rounded to.
const moneyPlaces = 2

var (
	hundred     = decimal.NewFromInt(100)
	hoursPerDay = decimal.NewFromInt(8)
	fullPercent = hundred
	zeroPercent = decimal.Zero
)

// RoundMoney rounds d to 2 decimal places, half to even. Every cost the
// engine returns passes through here so that subtotals are sums of rounded
// line costs.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(moneyPlaces)
}

// ClampPercent limits a utilization percentage to [0, 100].
func ClampPercent(d decimal.Decimal) decimal.Decimal {
	if d.LessThan(zeroPercent) {
		return zeroPercent
	}
	if d.GreaterThan(fullPercent) {
		return fullPercent
	}
	return d
}

// SumMoney adds already-rounded amounts.
func SumMoney(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
