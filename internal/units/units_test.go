package units

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	require.Equal(t, "1", Format(OneHealthFactor, HealthFactorDecimals))
	require.Equal(t, "0.95", Format(big.NewInt(950_000_000_000_000_000), HealthFactorDecimals))
	require.Equal(t, "1000", FormatBase(big.NewInt(100_000_000_000)))
	require.Equal(t, "0", Format(nil, 6))
	require.Equal(t, "0.000001", Format(big.NewInt(1), 6))
}

func TestBPSToPercent(t *testing.T) {
	require.Equal(t, "82.50", BPSToPercent(big.NewInt(8250)))
	require.Equal(t, "0.00", BPSToPercent(big.NewInt(0)))
}

func TestBonusFraction(t *testing.T) {
	require.True(t, BonusFraction(10500).Equal(decimal.RequireFromString("0.05")))
	require.True(t, BonusFraction(10000).IsZero())
	require.True(t, BonusFraction(0).IsZero())
	require.True(t, BonusFraction(11000).Equal(decimal.RequireFromString("0.1")))
}
