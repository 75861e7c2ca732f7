package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/liqscope/internal/domain"
	"github.com/alanyoungcy/liqscope/internal/units"
)

// ReserveFinder looks up one reserve.
type ReserveFinder interface {
	Find(ctx context.Context, asset common.Address) (domain.ReserveDescriptor, error)
}

// ReserveStatsService reports supply, borrow and rates of a reserve.
type ReserveStatsService struct {
	gateway  domain.LedgerGateway
	reserves ReserveFinder
	logger   *slog.Logger
}

// NewReserveStatsService creates a ReserveStatsService.
func NewReserveStatsService(gateway domain.LedgerGateway, reserves ReserveFinder, logger *slog.Logger) *ReserveStatsService {
	return &ReserveStatsService{
		gateway:  gateway,
		reserves: reserves,
		logger:   logger.With(slog.String("component", "reserve_stats")),
	}
}

// Stats returns the statistics of asset, or domain.ErrNotFound when the asset
// is not a listed reserve. Supply is the aToken total supply; borrow is
// stable plus variable debt; APYs are ray rates expressed as fractions.
func (s *ReserveStatsService) Stats(ctx context.Context, asset string) (domain.ReserveStats, error) {
	addr, err := domain.ParseAddress(asset)
	if err != nil {
		return domain.ReserveStats{}, err
	}
	reserve, err := s.reserves.Find(ctx, addr)
	if err != nil {
		return domain.ReserveStats{}, err
	}

	var (
		supply *big.Int
		data   domain.ReserveData
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tokens, err := s.gateway.ReserveTokensAddresses(gctx, addr)
		if err != nil {
			return err
		}
		supply, err = s.gateway.TokenTotalSupply(gctx, tokens.AToken)
		return err
	})
	g.Go(func() error {
		var err error
		data, err = s.gateway.ReserveData(gctx, addr)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.ReserveStats{}, fmt.Errorf("reserve_stats: %s: %w", reserve.Symbol, err)
	}

	decimals := int32(reserve.Decimals)
	borrow := new(big.Int).Add(orZero(data.TotalStableDebt), orZero(data.TotalVariableDebt))
	supplyDec := units.ToDecimal(supply, decimals)
	borrowDec := units.ToDecimal(borrow, decimals)

	utilization := "0"
	if supplyDec.IsPositive() {
		utilization = borrowDec.Div(supplyDec).StringFixed(4)
	}

	return domain.ReserveStats{
		Symbol:          reserve.Symbol,
		TotalSupply:     supplyDec.String(),
		TotalBorrow:     borrowDec.String(),
		UtilizationRate: utilization,
		SupplyAPY:       units.ToDecimal(data.LiquidityRate, units.RayDecimals).StringFixed(4),
		BorrowAPY:       units.ToDecimal(data.VariableBorrowRate, units.RayDecimals).StringFixed(4),
	}, nil
}
