package chain

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

type fakeBackend struct {
	mu        sync.Mutex
	responses map[string][]interface{}
	raw       map[string][]byte
	errs      map[string]error
	calls     []string
	delay     time.Duration
	block     uint64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		responses: map[string][]interface{}{},
		raw:       map[string][]byte{},
		errs:      map[string]error{},
	}
}

func (f *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	for _, contract := range []abi.ABI{poolABI, dataProviderABI, oracleABI, erc20ABI} {
		m, err := contract.MethodById(msg.Data[:4])
		if err != nil {
			continue
		}
		f.mu.Lock()
		f.calls = append(f.calls, m.Name)
		f.mu.Unlock()
		if err := f.errs[m.Name]; err != nil {
			return nil, err
		}
		if raw, ok := f.raw[m.Name]; ok {
			return raw, nil
		}
		return m.Outputs.Pack(f.responses[m.Name]...)
	}
	return nil, errors.New("unknown selector")
}

func (f *fakeBackend) BlockNumber(ctx context.Context) (uint64, error) {
	if err := f.errs["eth_blockNumber"]; err != nil {
		return 0, err
	}
	return f.block, nil
}

type countingLimiter struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (l *countingLimiter) Allow(context.Context, string) (bool, error) { return true, nil }

func (l *countingLimiter) Wait(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	return l.err
}

type recordingObserver struct {
	mu      sync.Mutex
	methods []string
	failed  int
}

func (o *recordingObserver) ObserveCall(method string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.methods = append(o.methods, method)
	if err != nil {
		o.failed++
	}
}

var (
	testUser  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testAsset = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	testDebt  = common.HexToAddress("0x00000000000000000000000000000000000000cc")
)

func newTestClient(b Backend, opts Options) *Client {
	return New(b, Contracts{
		Pool:         common.HexToAddress("0x01"),
		DataProvider: common.HexToAddress("0x02"),
		Oracle:       common.HexToAddress("0x03"),
	}, opts)
}

func TestUserAccountData(t *testing.T) {
	b := newFakeBackend()
	b.responses["getUserAccountData"] = []interface{}{
		big.NewInt(100_000_000_000), big.NewInt(80_000_000_000), big.NewInt(0),
		big.NewInt(8250), big.NewInt(8000), big.NewInt(950_000_000_000_000_000),
	}
	c := newTestClient(b, Options{})

	data, err := c.UserAccountData(context.Background(), testUser)
	require.NoError(t, err)
	require.Equal(t, int64(100_000_000_000), data.TotalCollateralBase.Int64())
	require.Equal(t, int64(8250), data.CurrentLiquidationThreshold.Int64())
	require.Equal(t, int64(950_000_000_000_000_000), data.HealthFactor.Int64())
}

func TestAllReservesTokens(t *testing.T) {
	b := newFakeBackend()
	b.responses["getAllReservesTokens"] = []interface{}{[]tokenData{
		{Symbol: "WETH", TokenAddress: testAsset},
		{Symbol: "USDC", TokenAddress: testDebt},
	}}
	c := newTestClient(b, Options{})

	tokens, err := c.AllReservesTokens(context.Background())
	require.NoError(t, err)
	require.Equal(t, []domain.ReserveToken{
		{Symbol: "WETH", Address: testAsset},
		{Symbol: "USDC", Address: testDebt},
	}, tokens)
}

func TestReserveConfiguration(t *testing.T) {
	b := newFakeBackend()
	b.responses["getReserveConfigurationData"] = []interface{}{
		big.NewInt(18), big.NewInt(8000), big.NewInt(8250), big.NewInt(10500), big.NewInt(1500),
		true, true, false, true, false,
	}
	c := newTestClient(b, Options{})

	cfg, err := c.ReserveConfiguration(context.Background(), testAsset)
	require.NoError(t, err)
	require.Equal(t, domain.ReserveConfig{
		Decimals: 18, LTV: 8000, LiquidationThreshold: 8250, LiquidationBonus: 10500, ReserveFactor: 1500,
		UsageAsCollateralEnabled: true, BorrowingEnabled: true, IsActive: true,
	}, cfg)
}

func TestReserveConfigurationRejectsOutOfRangeRatios(t *testing.T) {
	b := newFakeBackend()
	b.responses["getReserveConfigurationData"] = []interface{}{
		big.NewInt(18), big.NewInt(12000), big.NewInt(8250), big.NewInt(10500), big.NewInt(1500),
		true, true, false, true, false,
	}
	c := newTestClient(b, Options{})

	_, err := c.ReserveConfiguration(context.Background(), testAsset)
	require.ErrorIs(t, err, domain.ErrGateway)
	require.Contains(t, err.Error(), "malformed response")
}

func TestUserReserveData(t *testing.T) {
	b := newFakeBackend()
	b.responses["getUserReserveData"] = []interface{}{
		big.NewInt(5), big.NewInt(1), big.NewInt(2), big.NewInt(0), big.NewInt(0),
		big.NewInt(0), big.NewInt(0), big.NewInt(1_700_000_000), true,
	}
	c := newTestClient(b, Options{})

	ur, err := c.UserReserveData(context.Background(), testAsset, testUser)
	require.NoError(t, err)
	require.Equal(t, int64(5), ur.CurrentATokenBalance.Int64())
	require.Equal(t, int64(2), ur.CurrentVariableDebt.Int64())
	require.Equal(t, uint64(1_700_000_000), ur.StableRateLastUpdated)
	require.True(t, ur.UsageAsCollateralEnabled)
}

func TestAssetsPricesLengthMismatch(t *testing.T) {
	b := newFakeBackend()
	b.responses["getAssetsPrices"] = []interface{}{[]*big.Int{big.NewInt(1)}}
	c := newTestClient(b, Options{})

	_, err := c.AssetsPrices(context.Background(), []common.Address{testAsset, testDebt})
	require.ErrorIs(t, err, domain.ErrGateway)
}

func TestTokenCalls(t *testing.T) {
	b := newFakeBackend()
	b.responses["decimals"] = []interface{}{uint8(6)}
	b.responses["symbol"] = []interface{}{"USDC"}
	b.responses["balanceOf"] = []interface{}{big.NewInt(42)}
	c := newTestClient(b, Options{})
	ctx := context.Background()

	d, err := c.TokenDecimals(ctx, testDebt)
	require.NoError(t, err)
	require.Equal(t, uint8(6), d)

	s, err := c.TokenSymbol(ctx, testDebt)
	require.NoError(t, err)
	require.Equal(t, "USDC", s)

	bal, err := c.TokenBalanceOf(ctx, testDebt, testUser)
	require.NoError(t, err)
	require.Equal(t, int64(42), bal.Int64())
}

func TestCallErrorsAreGatewayErrors(t *testing.T) {
	b := newFakeBackend()
	b.errs["getUserAccountData"] = errors.New("execution reverted")
	obs := &recordingObserver{}
	c := newTestClient(b, Options{Observer: obs})

	_, err := c.UserAccountData(context.Background(), testUser)
	require.ErrorIs(t, err, domain.ErrGateway)

	var gwErr *domain.GatewayError
	require.ErrorAs(t, err, &gwErr)
	require.Equal(t, "getUserAccountData", gwErr.Method)
	require.Equal(t, 1, obs.failed)
}

func TestEmptyResponseIsGatewayError(t *testing.T) {
	b := newFakeBackend()
	b.raw["decimals"] = []byte{}
	c := newTestClient(b, Options{})

	_, err := c.TokenDecimals(context.Background(), testAsset)
	require.ErrorIs(t, err, domain.ErrGateway)
}

func TestCallTimeout(t *testing.T) {
	b := newFakeBackend()
	b.delay = time.Second
	c := newTestClient(b, Options{CallTimeout: 20 * time.Millisecond})

	_, err := c.AssetPrice(context.Background(), testAsset)
	require.ErrorIs(t, err, domain.ErrGateway)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimiterGatesEveryCall(t *testing.T) {
	b := newFakeBackend()
	b.responses["getAssetPrice"] = []interface{}{big.NewInt(100_000_000)}
	b.block = 19_000_000
	lim := &countingLimiter{}
	c := newTestClient(b, Options{Limiter: lim, LimiterKey: "mainnet"})
	ctx := context.Background()

	_, err := c.AssetPrice(ctx, testAsset)
	require.NoError(t, err)
	n, err := c.BlockNumber(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(19_000_000), n)
	require.Equal(t, []string{"mainnet", "mainnet"}, lim.keys)

	lim.err = domain.ErrRateLimited
	_, err = c.AssetPrice(ctx, testAsset)
	require.ErrorIs(t, err, domain.ErrGateway)
	require.ErrorIs(t, err, domain.ErrRateLimited)
}
