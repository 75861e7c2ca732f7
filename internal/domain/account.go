package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AccountSnapshot holds the aggregate position of one account. Base amounts
// carry 8 decimals and HealthFactor carries 18. A zero health factor means the
// account has no debt and is neither liquidatable nor at risk.
type AccountSnapshot struct {
	Address                     common.Address `json:"address"`
	TotalCollateralBase         *big.Int       `json:"totalCollateralBase"`
	TotalDebtBase               *big.Int       `json:"totalDebtBase"`
	AvailableBorrowsBase        *big.Int       `json:"availableBorrowsBase"`
	CurrentLiquidationThreshold *big.Int       `json:"currentLiquidationThreshold"`
	LTV                         *big.Int       `json:"ltv"`
	HealthFactor                *big.Int       `json:"healthFactor"`
	HealthFactorFormatted       string         `json:"healthFactorFormatted"`
	IsLiquidatable              bool           `json:"isLiquidatable"`
	IsAtRisk                    bool           `json:"isAtRisk"`
}

// PositionEntry is one account's holding in one reserve.
type PositionEntry struct {
	Asset             common.Address `json:"asset"`
	Symbol            string         `json:"symbol"`
	Balance           *big.Int       `json:"currentATokenBalance"`
	StableDebt        *big.Int       `json:"currentStableDebt"`
	VariableDebt      *big.Int       `json:"currentVariableDebt"`
	TotalDebt         *big.Int       `json:"totalDebt"`
	Decimals          uint8          `json:"decimals"`
	CollateralEnabled bool           `json:"usageAsCollateralEnabled"`
	BalanceFormatted  string         `json:"balanceFormatted"`
	DebtFormatted     string         `json:"debtFormatted"`
	LiquidationBonus  uint64         `json:"liquidationBonus"`
}

// Positions splits an account's holdings into supplied and borrowed entries.
// A reserve with both a balance and a debt appears in both lists.
type Positions struct {
	Collateral []PositionEntry `json:"collateral"`
	Debt       []PositionEntry `json:"debt"`
}

// RiskTier grades how close an at-risk account is to liquidation.
type RiskTier string

const (
	RiskHigh   RiskTier = "HIGH"
	RiskMedium RiskTier = "MEDIUM"
	RiskLow    RiskTier = "LOW"
)

// GasWarning is attached to every opportunity.
const GasWarning = "Profit calculation does not include Gas costs. Actual profit will be lower."

// LiquidationOpportunity is the analysis of a liquidatable or at-risk account.
// USD amounts are decimal strings; LiquidationThreshold is a percentage.
type LiquidationOpportunity struct {
	Address              common.Address  `json:"userAddress"`
	HealthFactor         string          `json:"healthFactor"`
	TotalCollateralUSD   string          `json:"totalCollateralUSD"`
	TotalDebtUSD         string          `json:"totalDebtUSD"`
	AvailableBorrowsUSD  string          `json:"availableBorrowsUSD"`
	LiquidationThreshold string          `json:"liquidationThreshold"`
	Collateral           []PositionEntry `json:"collateralAssets"`
	Debt                 []PositionEntry `json:"debtAssets"`
	PotentialProfit      string          `json:"potentialProfit"`
	RiskTier             RiskTier        `json:"riskLevel"`
	GasWarning           string          `json:"gasWarning"`
}

// BatchResult is the outcome for one address of a batch analysis. Exactly one
// of Opportunity and Error is set unless the account is healthy, in which case
// both are empty.
type BatchResult struct {
	Address     string                  `json:"address"`
	Opportunity *LiquidationOpportunity `json:"opportunity"`
	Error       string                  `json:"error,omitempty"`
}
