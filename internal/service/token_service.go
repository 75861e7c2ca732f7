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

// TokenService reads ERC-20 balances.
type TokenService struct {
	gateway domain.LedgerGateway
	logger  *slog.Logger
}

// NewTokenService creates a TokenService.
func NewTokenService(gateway domain.LedgerGateway, logger *slog.Logger) *TokenService {
	return &TokenService{
		gateway: gateway,
		logger:  logger.With(slog.String("component", "token_service")),
	}
}

// Balance returns the balance of holder in token, scaled by the token's own
// decimals.
func (s *TokenService) Balance(ctx context.Context, token, holder string) (domain.TokenBalance, error) {
	tokenAddr, err := domain.ParseAddress(token)
	if err != nil {
		return domain.TokenBalance{}, err
	}
	holderAddr, err := domain.ParseAddress(holder)
	if err != nil {
		return domain.TokenBalance{}, err
	}

	out := domain.TokenBalance{Token: tokenAddr.Hex(), Holder: holderAddr.Hex()}
	var balance *big.Int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.Decimals, err = s.gateway.TokenDecimals(gctx, tokenAddr)
		return err
	})
	g.Go(func() error {
		var err error
		out.Symbol, err = s.gateway.TokenSymbol(gctx, tokenAddr)
		return err
	})
	g.Go(func() error {
		var err error
		balance, err = s.gateway.TokenBalanceOf(gctx, tokenAddr, holderAddr)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.TokenBalance{}, fmt.Errorf("token_service: balance of %s: %w", tokenAddr.Hex(), err)
	}

	balance = orZero(balance)
	out.Raw = balance.String()
	out.Formatted = units.Format(balance, int32(out.Decimals))
	return out, nil
}
