package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/liqscope/internal/domain"
	"github.com/alanyoungcy/liqscope/internal/units"
)

// AccountService reads aggregate account metrics and per-reserve positions.
type AccountService struct {
	gateway  domain.LedgerGateway
	reserves ReserveLister
	logger   *slog.Logger
}

// NewAccountService creates an AccountService.
func NewAccountService(gateway domain.LedgerGateway, reserves ReserveLister, logger *slog.Logger) *AccountService {
	return &AccountService{
		gateway:  gateway,
		reserves: reserves,
		logger:   logger.With(slog.String("component", "account_service")),
	}
}

// Snapshot returns the aggregate position of address. The address is validated
// before any ledger call.
func (s *AccountService) Snapshot(ctx context.Context, address string) (domain.AccountSnapshot, error) {
	user, err := domain.ParseAddress(address)
	if err != nil {
		return domain.AccountSnapshot{}, err
	}
	data, err := s.gateway.UserAccountData(ctx, user)
	if err != nil {
		return domain.AccountSnapshot{}, fmt.Errorf("account_service: account data for %s: %w", user.Hex(), err)
	}
	return domain.AccountSnapshot{
		Address:                     user,
		TotalCollateralBase:         data.TotalCollateralBase,
		TotalDebtBase:               data.TotalDebtBase,
		AvailableBorrowsBase:        data.AvailableBorrowsBase,
		CurrentLiquidationThreshold: data.CurrentLiquidationThreshold,
		LTV:                         data.LTV,
		HealthFactor:                data.HealthFactor,
		HealthFactorFormatted:       units.Format(data.HealthFactor, units.HealthFactorDecimals),
		IsLiquidatable:              IsLiquidatable(data.HealthFactor),
		IsAtRisk:                    IsAtRisk(data.HealthFactor),
	}, nil
}

// Positions returns the reserves in which address has supplied or borrowed.
// One user-reserve query is issued per reserve, concurrently; any failure
// fails the whole call.
func (s *AccountService) Positions(ctx context.Context, address string) (domain.Positions, error) {
	user, err := domain.ParseAddress(address)
	if err != nil {
		return domain.Positions{}, err
	}
	reserves, err := s.reserves.ListReserves(ctx)
	if err != nil {
		return domain.Positions{}, fmt.Errorf("account_service: list reserves: %w", err)
	}

	userData := make([]domain.UserReserve, len(reserves))
	g, gctx := errgroup.WithContext(ctx)
	for i, res := range reserves {
		g.Go(func() error {
			ur, err := s.gateway.UserReserveData(gctx, res.Asset, user)
			if err != nil {
				return err
			}
			userData[i] = ur
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Positions{}, fmt.Errorf("account_service: user reserves for %s: %w", user.Hex(), err)
	}

	out := domain.Positions{
		Collateral: []domain.PositionEntry{},
		Debt:       []domain.PositionEntry{},
	}
	for i, res := range reserves {
		entry, supplied, borrowed := buildPosition(res, userData[i])
		if supplied {
			out.Collateral = append(out.Collateral, entry)
		}
		if borrowed {
			out.Debt = append(out.Debt, entry)
		}
	}
	return out, nil
}

func buildPosition(res domain.ReserveDescriptor, ur domain.UserReserve) (domain.PositionEntry, bool, bool) {
	balance := orZero(ur.CurrentATokenBalance)
	stable := orZero(ur.CurrentStableDebt)
	variable := orZero(ur.CurrentVariableDebt)
	total := new(big.Int).Add(stable, variable)
	decimals := int32(res.Decimals)

	entry := domain.PositionEntry{
		Asset:             res.Asset,
		Symbol:            res.Symbol,
		Balance:           balance,
		StableDebt:        stable,
		VariableDebt:      variable,
		TotalDebt:         total,
		Decimals:          res.Decimals,
		CollateralEnabled: ur.UsageAsCollateralEnabled,
		BalanceFormatted:  units.Format(balance, decimals),
		DebtFormatted:     units.Format(total, decimals),
		LiquidationBonus:  res.LiquidationBonus,
	}
	return entry, balance.Sign() > 0, total.Sign() > 0
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
