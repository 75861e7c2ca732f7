package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/liqscope/internal/domain"
	"github.com/alanyoungcy/liqscope/internal/units"
)

// CloseFactor is the share of outstanding debt one liquidation may repay.
var CloseFactor = decimal.RequireFromString("0.5")

// AccountReader is the account view the analyzer builds on.
type AccountReader interface {
	Snapshot(ctx context.Context, address string) (domain.AccountSnapshot, error)
	Positions(ctx context.Context, address string) (domain.Positions, error)
}

// Analyzer produces a liquidation opportunity for one address, or nil when the
// account is healthy.
type Analyzer interface {
	Analyze(ctx context.Context, address string) (*domain.LiquidationOpportunity, error)
}

// AnalyzerService estimates liquidation profitability for at-risk accounts.
type AnalyzerService struct {
	accounts AccountReader
	gateway  domain.LedgerGateway
	recorder Recorder
	logger   *slog.Logger
}

var _ Analyzer = (*AnalyzerService)(nil)

// NewAnalyzerService creates an AnalyzerService. The gateway is used for
// oracle prices only.
func NewAnalyzerService(
	accounts AccountReader,
	gateway domain.LedgerGateway,
	recorder Recorder,
	logger *slog.Logger,
) *AnalyzerService {
	return &AnalyzerService{
		accounts: accounts,
		gateway:  gateway,
		recorder: recorderOrNop(recorder),
		logger:   logger.With(slog.String("component", "analyzer_service")),
	}
}

// Analyze returns nil, nil for a healthy account. Liquidatable accounts get a
// profit estimate using the most profitable collateral; at-risk accounts
// report a profit of "0".
func (s *AnalyzerService) Analyze(ctx context.Context, address string) (*domain.LiquidationOpportunity, error) {
	snap, err := s.accounts.Snapshot(ctx, address)
	if err != nil {
		return nil, err
	}
	if !snap.IsLiquidatable && !snap.IsAtRisk {
		return nil, nil
	}

	positions, err := s.accounts.Positions(ctx, address)
	if err != nil {
		return nil, err
	}

	tier, _ := ClassifyRisk(snap.HealthFactor)
	totalDebtUSD := units.ToDecimal(snap.TotalDebtBase, units.BaseCurrencyDecimals)

	profit := "0"
	if snap.IsLiquidatable {
		prices, err := s.collateralPrices(ctx, positions.Collateral)
		if err != nil {
			return nil, fmt.Errorf("analyzer_service: collateral prices for %s: %w", snap.Address.Hex(), err)
		}
		if best := EstimateProfit(totalDebtUSD, positions.Collateral, prices); best.IsPositive() {
			profit = best.StringFixed(2)
		}
	}

	s.recorder.OpportunityFound(tier)
	s.logger.DebugContext(ctx, "opportunity analysed",
		slog.String("address", snap.Address.Hex()),
		slog.String("health_factor", snap.HealthFactorFormatted),
		slog.String("tier", string(tier)),
		slog.String("profit", profit),
	)

	return &domain.LiquidationOpportunity{
		Address:              snap.Address,
		HealthFactor:         snap.HealthFactorFormatted,
		TotalCollateralUSD:   units.FormatBase(snap.TotalCollateralBase),
		TotalDebtUSD:         totalDebtUSD.String(),
		AvailableBorrowsUSD:  units.FormatBase(snap.AvailableBorrowsBase),
		LiquidationThreshold: units.BPSToPercent(snap.CurrentLiquidationThreshold),
		Collateral:           positions.Collateral,
		Debt:                 positions.Debt,
		PotentialProfit:      profit,
		RiskTier:             tier,
		GasWarning:           domain.GasWarning,
	}, nil
}

// collateralPrices fetches oracle prices for all collateral assets in one call.
func (s *AnalyzerService) collateralPrices(ctx context.Context, collateral []domain.PositionEntry) (map[common.Address]*big.Int, error) {
	if len(collateral) == 0 {
		return map[common.Address]*big.Int{}, nil
	}
	assets := lo.Map(collateral, func(p domain.PositionEntry, _ int) common.Address { return p.Asset })
	raw, err := s.gateway.AssetsPrices(ctx, assets)
	if err != nil {
		return nil, err
	}
	prices := make(map[common.Address]*big.Int, len(assets))
	for i, asset := range assets {
		prices[asset] = raw[i]
	}
	return prices, nil
}

// EstimateProfit returns the best single-collateral liquidation profit in USD.
// For each collateral with a positive price and a bonus above par, the
// repayable debt is capped by the close factor, by the collateral value net of
// the bonus and by the total debt; the profit is that debt times the bonus
// fraction. Collateral without a price or bonus is skipped.
func EstimateProfit(totalDebtUSD decimal.Decimal, collateral []domain.PositionEntry, prices map[common.Address]*big.Int) decimal.Decimal {
	closeCap := totalDebtUSD.Mul(CloseFactor)
	best := decimal.Zero

	for _, c := range collateral {
		price, ok := prices[c.Asset]
		if !ok || price == nil || price.Sign() <= 0 {
			continue
		}
		bonus := units.BonusFraction(c.LiquidationBonus)
		if !bonus.IsPositive() {
			continue
		}

		value := units.ToDecimal(c.Balance, int32(c.Decimals)).
			Mul(units.ToDecimal(price, units.BaseCurrencyDecimals))
		coverable := value.Div(decimal.NewFromInt(1).Add(bonus))
		repayable := decimal.Min(closeCap, coverable, totalDebtUSD)

		if profit := repayable.Mul(bonus); profit.GreaterThan(best) {
			best = profit
		}
	}
	return best
}
