package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

// DefaultReserveTTL is how long a fetched reserve list stays fresh.
const DefaultReserveTTL = 60 * time.Second

// ReserveLister lists the supported reserves.
type ReserveLister interface {
	ListReserves(ctx context.Context) ([]domain.ReserveDescriptor, error)
}

// ReserveRegistry caches the reserve list and its risk parameters. A refresh
// replaces the whole list or nothing; a failed refresh leaves the previous
// list in place. Concurrent refreshes after expiry are not coalesced.
type ReserveRegistry struct {
	gateway  domain.LedgerGateway
	ttl      time.Duration
	now      func() time.Time
	recorder Recorder
	logger   *slog.Logger

	mu        sync.RWMutex
	reserves  []domain.ReserveDescriptor
	fetchedAt time.Time
}

var _ ReserveLister = (*ReserveRegistry)(nil)

// NewReserveRegistry creates a registry. A non-positive ttl selects
// DefaultReserveTTL.
func NewReserveRegistry(
	gateway domain.LedgerGateway,
	ttl time.Duration,
	recorder Recorder,
	logger *slog.Logger,
) *ReserveRegistry {
	if ttl <= 0 {
		ttl = DefaultReserveTTL
	}
	return &ReserveRegistry{
		gateway:  gateway,
		ttl:      ttl,
		now:      time.Now,
		recorder: recorderOrNop(recorder),
		logger:   logger.With(slog.String("component", "reserve_registry")),
	}
}

// SetClock replaces the time source. Intended for tests.
func (r *ReserveRegistry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// ListReserves returns the cached reserve list, refreshing it when older than
// the TTL. The returned slice is shared and must not be modified.
func (r *ReserveRegistry) ListReserves(ctx context.Context) ([]domain.ReserveDescriptor, error) {
	r.mu.RLock()
	cached, fetchedAt, now := r.reserves, r.fetchedAt, r.now
	r.mu.RUnlock()

	started := now()
	if cached != nil && started.Sub(fetchedAt) < r.ttl {
		r.recorder.RegistryLookup(true)
		return cached, nil
	}
	r.recorder.RegistryLookup(false)

	fresh, err := r.fetch(ctx)
	r.recorder.RegistryRefresh(now().Sub(started), err)
	if err != nil {
		return nil, fmt.Errorf("reserve_registry: refresh: %w", err)
	}

	r.mu.Lock()
	r.reserves = fresh
	r.fetchedAt = started
	r.mu.Unlock()

	r.logger.DebugContext(ctx, "reserve list refreshed", slog.Int("reserves", len(fresh)))
	return fresh, nil
}

// Find returns the reserve for asset or domain.ErrNotFound.
func (r *ReserveRegistry) Find(ctx context.Context, asset common.Address) (domain.ReserveDescriptor, error) {
	reserves, err := r.ListReserves(ctx)
	if err != nil {
		return domain.ReserveDescriptor{}, err
	}
	for _, res := range reserves {
		if res.Asset == asset {
			return res, nil
		}
	}
	return domain.ReserveDescriptor{}, fmt.Errorf("reserve_registry: %s: %w", asset.Hex(), domain.ErrNotFound)
}

func (r *ReserveRegistry) fetch(ctx context.Context) ([]domain.ReserveDescriptor, error) {
	tokens, err := r.gateway.AllReservesTokens(ctx)
	if err != nil {
		return nil, err
	}

	configs := make([]domain.ReserveConfig, len(tokens))
	decimals := make([]uint8, len(tokens))

	g, gctx := errgroup.WithContext(ctx)
	for i, tok := range tokens {
		g.Go(func() error {
			cfg, err := r.gateway.ReserveConfiguration(gctx, tok.Address)
			if err != nil {
				return err
			}
			configs[i] = cfg
			return nil
		})
		g.Go(func() error {
			d, err := r.gateway.TokenDecimals(gctx, tok.Address)
			if err != nil {
				return err
			}
			decimals[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reserves := make([]domain.ReserveDescriptor, len(tokens))
	for i, tok := range tokens {
		cfg := configs[i]
		reserves[i] = domain.ReserveDescriptor{
			Symbol:               tok.Symbol,
			Asset:                tok.Address,
			Decimals:             decimals[i],
			LTV:                  cfg.LTV,
			LiquidationThreshold: cfg.LiquidationThreshold,
			LiquidationBonus:     cfg.LiquidationBonus,
			CollateralEnabled:    cfg.UsageAsCollateralEnabled,
			BorrowEnabled:        cfg.BorrowingEnabled,
			Active:               cfg.IsActive,
		}
	}
	return reserves, nil
}
