package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/liqscope/internal/domain"
	"github.com/alanyoungcy/liqscope/internal/units"
)

// PriceService reads oracle prices and formats them in USD.
type PriceService struct {
	gateway domain.LedgerGateway
	logger  *slog.Logger
}

// NewPriceService creates a PriceService.
func NewPriceService(gateway domain.LedgerGateway, logger *slog.Logger) *PriceService {
	return &PriceService{
		gateway: gateway,
		logger:  logger.With(slog.String("component", "price_service")),
	}
}

// AssetPrice returns the USD price of asset as a decimal string.
func (s *PriceService) AssetPrice(ctx context.Context, asset string) (string, error) {
	addr, err := domain.ParseAddress(asset)
	if err != nil {
		return "", err
	}
	price, err := s.gateway.AssetPrice(ctx, addr)
	if err != nil {
		return "", fmt.Errorf("price_service: price of %s: %w", addr.Hex(), err)
	}
	return units.FormatBase(price), nil
}

// AssetPrices returns USD prices keyed by the addresses as given. All
// addresses are validated first and fetched in one oracle call.
func (s *PriceService) AssetPrices(ctx context.Context, assets []string) (map[string]string, error) {
	addrs := make([]common.Address, len(assets))
	for i, a := range assets {
		addr, err := domain.ParseAddress(a)
		if err != nil {
			return nil, err
		}
		addrs[i] = addr
	}
	out := make(map[string]string, len(assets))
	if len(addrs) == 0 {
		return out, nil
	}
	prices, err := s.gateway.AssetsPrices(ctx, addrs)
	if err != nil {
		return nil, fmt.Errorf("price_service: prices of %d assets: %w", len(addrs), err)
	}
	for i, a := range assets {
		out[a] = units.FormatBase(prices[i])
	}
	return out, nil
}
