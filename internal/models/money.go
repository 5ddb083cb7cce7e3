package models

import "github.com/shopspring/decimal"

// MoneyScale is the number of fractional digits stored for an amount
const MoneyScale = 2

// MaxMoney is the largest amount a NUMERIC(12,2) column holds
var MaxMoney = decimal.RequireFromString("9999999999.99")

// MoneyFits reports whether d is stored without rounding or overflow:
// at most two significant fractional digits and |d| <= MaxMoney.
func MoneyFits(d decimal.Decimal) bool {
	if d.Exponent() < -MoneyScale && !d.Equal(d.Round(MoneyScale)) {
		return false
	}
	return !d.Abs().GreaterThan(MaxMoney)
}
