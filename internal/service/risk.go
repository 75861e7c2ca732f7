package service

import (
	"math/big"

	"github.com/alanyoungcy/liqscope/internal/domain"
	"github.com/alanyoungcy/liqscope/internal/units"
)

// Health factor boundaries at 18 decimals.
var (
	liquidationCeiling = units.OneHealthFactor
	mediumRiskCeiling  = big.NewInt(1_020_000_000_000_000_000)
	atRiskCeiling      = big.NewInt(1_050_000_000_000_000_000)
)

// IsLiquidatable reports whether 0 < hf < 1.0.
func IsLiquidatable(hf *big.Int) bool {
	return hf != nil && hf.Sign() > 0 && hf.Cmp(liquidationCeiling) < 0
}

// IsAtRisk reports whether 0 < hf < 1.05.
func IsAtRisk(hf *big.Int) bool {
	return hf != nil && hf.Sign() > 0 && hf.Cmp(atRiskCeiling) < 0
}

// ClassifyRisk maps a health factor in [0, 1.05) to its tier. It returns false
// for anything at or above 1.05.
func ClassifyRisk(hf *big.Int) (domain.RiskTier, bool) {
	switch {
	case hf == nil || hf.Sign() < 0:
		return "", false
	case hf.Cmp(liquidationCeiling) < 0:
		return domain.RiskHigh, true
	case hf.Cmp(mediumRiskCeiling) < 0:
		return domain.RiskMedium, true
	case hf.Cmp(atRiskCeiling) < 0:
		return domain.RiskLow, true
	default:
		return "", false
	}
}
