// Package units converts fixed-point ledger integers into decimals and
// human-readable strings.
package units

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Fixed-point scales used by the lending protocol.
const (
	HealthFactorDecimals = 18
	BaseCurrencyDecimals = 8
	BasisPointDecimals   = 4
	RayDecimals          = 27
)

var (
	// OneHealthFactor is 1.0 at 18 decimals.
	OneHealthFactor = big.NewInt(1_000_000_000_000_000_000)
	BPS             = decimal.NewFromInt(10_000)
)

// ToDecimal scales v down by the given number of decimals. A nil value is zero.
func ToDecimal(v *big.Int, decimals int32) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -decimals)
}

// Format renders v with its trailing zeros trimmed, e.g. 1500000000000000000 at
// 18 decimals becomes "1.5".
func Format(v *big.Int, decimals int32) string {
	return ToDecimal(v, decimals).String()
}

// FormatBase renders an 8-decimal base-currency amount.
func FormatBase(v *big.Int) string {
	return Format(v, BaseCurrencyDecimals)
}

// BPSToPercent renders basis points as a percentage with two decimals, so
// 8250 becomes "82.50".
func BPSToPercent(v *big.Int) string {
	return ToDecimal(v, 2).StringFixed(2)
}

// BonusFraction returns the share above par of a liquidation bonus given in
// basis points. 10500 yields 0.05; values at or below 10000 yield zero.
func BonusFraction(bps uint64) decimal.Decimal {
	if bps <= 10_000 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(bps - 10_000)).Div(BPS)
}
