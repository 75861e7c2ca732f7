package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRegistry(gw domain.LedgerGateway) (*ReserveRegistry, *fakeClock) {
	clock := newFakeClock()
	r := NewReserveRegistry(gw, 0, nil, discardLogger())
	r.SetClock(clock.Now)
	return r, clock
}

func TestReserveRegistryBuildsDescriptors(t *testing.T) {
	gw := newFakeGateway()
	r, _ := newTestRegistry(gw)

	reserves, err := r.ListReserves(context.Background())
	require.NoError(t, err)
	require.Len(t, reserves, 3)

	require.Equal(t, domain.ReserveDescriptor{
		Symbol: "WETH", Asset: wethAddr, Decimals: 18,
		LTV: 8050, LiquidationThreshold: 8300, LiquidationBonus: 10500,
		CollateralEnabled: true, BorrowEnabled: true, Active: true,
	}, reserves[0])
	require.Equal(t, "USDC", reserves[1].Symbol)
	require.Equal(t, uint8(6), reserves[1].Decimals)
	require.Equal(t, "GHO", reserves[2].Symbol)
	require.False(t, reserves[2].CollateralEnabled)

	require.Equal(t, 3, gw.count("getReserveConfigurationData"))
	require.Equal(t, 3, gw.count("decimals"))
}

func TestReserveRegistryCachesWithinTTL(t *testing.T) {
	gw := newFakeGateway()
	r, clock := newTestRegistry(gw)
	ctx := context.Background()

	first, err := r.ListReserves(ctx)
	require.NoError(t, err)
	clock.Advance(59 * time.Second)
	second, err := r.ListReserves(ctx)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Same(t, &first[0], &second[0])
	require.Equal(t, 1, gw.count("getAllReservesTokens"))

	clock.Advance(2 * time.Second)
	_, err = r.ListReserves(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, gw.count("getAllReservesTokens"))

	_, err = r.ListReserves(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, gw.count("getAllReservesTokens"))
}

func TestReserveRegistryFailedRefreshKeepsPreviousList(t *testing.T) {
	gw := newFakeGateway()
	r, clock := newTestRegistry(gw)
	ctx := context.Background()

	before, err := r.ListReserves(ctx)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	gw.setErr("decimals", errors.New("rpc down"))
	_, err = r.ListReserves(ctx)
	require.ErrorIs(t, err, domain.ErrGateway)

	r.mu.RLock()
	require.Equal(t, before, r.reserves)
	r.mu.RUnlock()

	gw.setErr("decimals", nil)
	after, err := r.ListReserves(ctx)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestReserveRegistryTokenListFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.setErr("getAllReservesTokens", errors.New("timeout"))
	r, _ := newTestRegistry(gw)

	_, err := r.ListReserves(context.Background())
	require.ErrorIs(t, err, domain.ErrGateway)
	require.Zero(t, gw.count("getReserveConfigurationData"))
}

func TestReserveRegistryFind(t *testing.T) {
	gw := newFakeGateway()
	r, _ := newTestRegistry(gw)
	ctx := context.Background()

	res, err := r.Find(ctx, usdcAddr)
	require.NoError(t, err)
	require.Equal(t, "USDC", res.Symbol)

	_, err = r.Find(ctx, aliceAddr)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

type refreshRecorder struct {
	nopRecorder
	mu       sync.Mutex
	elapsed  []time.Duration
	failures int
}

func (r *refreshRecorder) RegistryRefresh(elapsed time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.elapsed = append(r.elapsed, elapsed)
	if err != nil {
		r.failures++
	}
}

// slowTokensGateway advances the clock while the token list is fetched.
type slowTokensGateway struct {
	*fakeGateway
	clock *fakeClock
	delay time.Duration
}

func (g *slowTokensGateway) AllReservesTokens(ctx context.Context) ([]domain.ReserveToken, error) {
	g.clock.Advance(g.delay)
	return g.fakeGateway.AllReservesTokens(ctx)
}

func TestReserveRegistryRecordsRefreshDurationOnItsClock(t *testing.T) {
	clock := newFakeClock()
	rec := &refreshRecorder{}
	gw := &slowTokensGateway{fakeGateway: newFakeGateway(), clock: clock, delay: 3 * time.Second}
	r := NewReserveRegistry(gw, 0, rec, discardLogger())
	r.SetClock(clock.Now)

	_, err := r.ListReserves(context.Background())
	require.NoError(t, err)

	require.Equal(t, []time.Duration{3 * time.Second}, rec.elapsed)
	require.Zero(t, rec.failures)
}
