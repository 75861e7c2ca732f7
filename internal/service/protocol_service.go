package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

// ProtocolInfo names the deployment being observed.
type ProtocolInfo struct {
	Protocol string
	Network  string
	Pool     common.Address
}

// ProtocolService reports liveness of the observed deployment.
type ProtocolService struct {
	gateway  domain.LedgerGateway
	reserves ReserveLister
	info     ProtocolInfo
	logger   *slog.Logger
}

// NewProtocolService creates a ProtocolService.
func NewProtocolService(gateway domain.LedgerGateway, reserves ReserveLister, info ProtocolInfo, logger *slog.Logger) *ProtocolService {
	return &ProtocolService{
		gateway:  gateway,
		reserves: reserves,
		info:     info,
		logger:   logger.With(slog.String("component", "protocol_service")),
	}
}

// BlockNumber returns the latest block height.
func (s *ProtocolService) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := s.gateway.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("protocol_service: block number: %w", err)
	}
	return n, nil
}

// Status returns the current block and the number of listed reserves.
func (s *ProtocolService) Status(ctx context.Context) (domain.ProtocolStatus, error) {
	var (
		block    uint64
		reserves []domain.ReserveDescriptor
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		block, err = s.BlockNumber(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		reserves, err = s.reserves.ListReserves(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.ProtocolStatus{}, err
	}
	return domain.ProtocolStatus{
		Protocol:     s.info.Protocol,
		Network:      s.info.Network,
		BlockNumber:  block,
		PoolAddress:  s.info.Pool.Hex(),
		ReserveCount: len(reserves),
		Status:       "operational",
	}, nil
}
