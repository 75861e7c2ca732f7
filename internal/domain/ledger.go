package domain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AccountData is the decoded result of Pool.getUserAccountData. Base amounts
// carry 8 decimals, the threshold and LTV are basis points and the health
// factor carries 18 decimals.
type AccountData struct {
	TotalCollateralBase         *big.Int
	TotalDebtBase               *big.Int
	AvailableBorrowsBase        *big.Int
	CurrentLiquidationThreshold *big.Int
	LTV                         *big.Int
	HealthFactor                *big.Int
}

// ReserveToken is one entry of DataProvider.getAllReservesTokens.
type ReserveToken struct {
	Symbol  string
	Address common.Address
}

// ReserveConfig is the decoded result of
// DataProvider.getReserveConfigurationData. Ratios are basis points.
type ReserveConfig struct {
	Decimals                 uint64
	LTV                      uint64
	LiquidationThreshold     uint64
	LiquidationBonus         uint64
	ReserveFactor            uint64
	UsageAsCollateralEnabled bool
	BorrowingEnabled         bool
	StableBorrowRateEnabled  bool
	IsActive                 bool
	IsFrozen                 bool
}

// UserReserve is the decoded result of DataProvider.getUserReserveData.
type UserReserve struct {
	CurrentATokenBalance     *big.Int
	CurrentStableDebt        *big.Int
	CurrentVariableDebt      *big.Int
	PrincipalStableDebt      *big.Int
	ScaledVariableDebt       *big.Int
	StableBorrowRate         *big.Int
	LiquidityRate            *big.Int
	StableRateLastUpdated    uint64
	UsageAsCollateralEnabled bool
}

// ReserveTokenAddresses lists the tokenized positions of one reserve.
type ReserveTokenAddresses struct {
	AToken            common.Address
	StableDebtToken   common.Address
	VariableDebtToken common.Address
}

// ReserveData is the decoded result of DataProvider.getReserveData. Rates and
// indexes are rays (27 decimals).
type ReserveData struct {
	Unbacked                *big.Int
	AccruedToTreasuryScaled *big.Int
	TotalAToken             *big.Int
	TotalStableDebt         *big.Int
	TotalVariableDebt       *big.Int
	LiquidityRate           *big.Int
	VariableBorrowRate      *big.Int
	StableBorrowRate        *big.Int
	AverageStableBorrowRate *big.Int
	LiquidityIndex          *big.Int
	VariableBorrowIndex     *big.Int
	LastUpdateTimestamp     uint64
}

// LedgerGateway executes read-only calls against the lending pool, its data
// provider, its price oracle and arbitrary ERC-20 contracts. Every failure is
// reported as a *GatewayError.
type LedgerGateway interface {
	UserAccountData(ctx context.Context, user common.Address) (AccountData, error)
	ReservesList(ctx context.Context) ([]common.Address, error)

	AllReservesTokens(ctx context.Context) ([]ReserveToken, error)
	ReserveConfiguration(ctx context.Context, asset common.Address) (ReserveConfig, error)
	UserReserveData(ctx context.Context, asset, user common.Address) (UserReserve, error)
	ReserveTokensAddresses(ctx context.Context, asset common.Address) (ReserveTokenAddresses, error)
	ReserveData(ctx context.Context, asset common.Address) (ReserveData, error)

	AssetPrice(ctx context.Context, asset common.Address) (*big.Int, error)
	AssetsPrices(ctx context.Context, assets []common.Address) ([]*big.Int, error)

	TokenDecimals(ctx context.Context, token common.Address) (uint8, error)
	TokenSymbol(ctx context.Context, token common.Address) (string, error)
	TokenBalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error)
	TokenTotalSupply(ctx context.Context, token common.Address) (*big.Int, error)

	BlockNumber(ctx context.Context) (uint64, error)
}
