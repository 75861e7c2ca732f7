package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

var (
	wethAddr = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdcAddr = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	ghoAddr  = common.HexToAddress("0x40D16FC0246aD3160Ccc09B8D0D3A2cD28aE6C2f")

	aliceAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")
	alice     = aliceAddr.Hex()
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// e returns 10^n.
func e(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}

// scaled returns v * 10^n.
func scaled(v int64, n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(v), e(n))
}

// hf converts a health factor in thousandths into its 18-decimal form.
func hf(milli int64) *big.Int {
	return scaled(milli, 15)
}

type fakeGateway struct {
	mu sync.Mutex

	tokens       []domain.ReserveToken
	configs      map[common.Address]domain.ReserveConfig
	decimals     map[common.Address]uint8
	symbols      map[common.Address]string
	accounts     map[common.Address]domain.AccountData
	userReserves map[common.Address]map[common.Address]domain.UserReserve
	prices       map[common.Address]*big.Int
	tokenAddrs   map[common.Address]domain.ReserveTokenAddresses
	reserveData  map[common.Address]domain.ReserveData
	supplies     map[common.Address]*big.Int
	balances     map[common.Address]*big.Int
	block        uint64

	errs  map[string]error
	calls map[string]int
}

// newFakeGateway lists WETH (18 decimals, 5% bonus), USDC (6 decimals, 4.5%
// bonus) and GHO (not collateral, no bonus).
func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		tokens: []domain.ReserveToken{
			{Symbol: "WETH", Address: wethAddr},
			{Symbol: "USDC", Address: usdcAddr},
			{Symbol: "GHO", Address: ghoAddr},
		},
		configs: map[common.Address]domain.ReserveConfig{
			wethAddr: {Decimals: 18, LTV: 8050, LiquidationThreshold: 8300, LiquidationBonus: 10500, UsageAsCollateralEnabled: true, BorrowingEnabled: true, IsActive: true},
			usdcAddr: {Decimals: 6, LTV: 7700, LiquidationThreshold: 8000, LiquidationBonus: 10450, UsageAsCollateralEnabled: true, BorrowingEnabled: true, IsActive: true},
			ghoAddr:  {Decimals: 18, BorrowingEnabled: true, IsActive: true},
		},
		decimals:     map[common.Address]uint8{wethAddr: 18, usdcAddr: 6, ghoAddr: 18},
		symbols:      map[common.Address]string{wethAddr: "WETH", usdcAddr: "USDC", ghoAddr: "GHO"},
		accounts:     map[common.Address]domain.AccountData{},
		userReserves: map[common.Address]map[common.Address]domain.UserReserve{},
		prices: map[common.Address]*big.Int{
			wethAddr: scaled(2000, 8),
			usdcAddr: e(8),
			ghoAddr:  e(8),
		},
		tokenAddrs:  map[common.Address]domain.ReserveTokenAddresses{},
		reserveData: map[common.Address]domain.ReserveData{},
		supplies:    map[common.Address]*big.Int{},
		balances:    map[common.Address]*big.Int{},
		errs:        map[string]error{},
		calls:       map[string]int{},
	}
}

func (f *fakeGateway) enter(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	if err := f.errs[method]; err != nil {
		return &domain.GatewayError{Method: method, Err: err}
	}
	return nil
}

func (f *fakeGateway) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeGateway) setErr(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, method)
		return
	}
	f.errs[method] = err
}

// setAccount registers aggregate data for user with base amounts in whole USD.
func (f *fakeGateway) setAccount(user common.Address, collateralUSD, debtUSD int64, health *big.Int) {
	f.accounts[user] = domain.AccountData{
		TotalCollateralBase:         scaled(collateralUSD, 8),
		TotalDebtBase:               scaled(debtUSD, 8),
		AvailableBorrowsBase:        big.NewInt(0),
		CurrentLiquidationThreshold: big.NewInt(8250),
		LTV:                         big.NewInt(8000),
		HealthFactor:                health,
	}
}

func (f *fakeGateway) setUserReserve(user, asset common.Address, balance, variableDebt *big.Int) {
	if f.userReserves[user] == nil {
		f.userReserves[user] = map[common.Address]domain.UserReserve{}
	}
	f.userReserves[user][asset] = domain.UserReserve{
		CurrentATokenBalance:     balance,
		CurrentStableDebt:        big.NewInt(0),
		CurrentVariableDebt:      variableDebt,
		UsageAsCollateralEnabled: balance.Sign() > 0,
	}
}

var errUnknown = errors.New("unknown")

func (f *fakeGateway) UserAccountData(_ context.Context, user common.Address) (domain.AccountData, error) {
	if err := f.enter("getUserAccountData"); err != nil {
		return domain.AccountData{}, err
	}
	data, ok := f.accounts[user]
	if !ok {
		return domain.AccountData{
			TotalCollateralBase: new(big.Int), TotalDebtBase: new(big.Int), AvailableBorrowsBase: new(big.Int),
			CurrentLiquidationThreshold: new(big.Int), LTV: new(big.Int), HealthFactor: new(big.Int),
		}, nil
	}
	return data, nil
}

func (f *fakeGateway) ReservesList(context.Context) ([]common.Address, error) {
	if err := f.enter("getReservesList"); err != nil {
		return nil, err
	}
	out := make([]common.Address, len(f.tokens))
	for i, t := range f.tokens {
		out[i] = t.Address
	}
	return out, nil
}

func (f *fakeGateway) AllReservesTokens(context.Context) ([]domain.ReserveToken, error) {
	if err := f.enter("getAllReservesTokens"); err != nil {
		return nil, err
	}
	return append([]domain.ReserveToken(nil), f.tokens...), nil
}

func (f *fakeGateway) ReserveConfiguration(_ context.Context, asset common.Address) (domain.ReserveConfig, error) {
	if err := f.enter("getReserveConfigurationData"); err != nil {
		return domain.ReserveConfig{}, err
	}
	cfg, ok := f.configs[asset]
	if !ok {
		return domain.ReserveConfig{}, &domain.GatewayError{Method: "getReserveConfigurationData", Err: errUnknown}
	}
	return cfg, nil
}

func (f *fakeGateway) UserReserveData(_ context.Context, asset, user common.Address) (domain.UserReserve, error) {
	if err := f.enter("getUserReserveData"); err != nil {
		return domain.UserReserve{}, err
	}
	if ur, ok := f.userReserves[user][asset]; ok {
		return ur, nil
	}
	return domain.UserReserve{
		CurrentATokenBalance: new(big.Int), CurrentStableDebt: new(big.Int), CurrentVariableDebt: new(big.Int),
	}, nil
}

func (f *fakeGateway) ReserveTokensAddresses(_ context.Context, asset common.Address) (domain.ReserveTokenAddresses, error) {
	if err := f.enter("getReserveTokensAddresses"); err != nil {
		return domain.ReserveTokenAddresses{}, err
	}
	return f.tokenAddrs[asset], nil
}

func (f *fakeGateway) ReserveData(_ context.Context, asset common.Address) (domain.ReserveData, error) {
	if err := f.enter("getReserveData"); err != nil {
		return domain.ReserveData{}, err
	}
	return f.reserveData[asset], nil
}

func (f *fakeGateway) AssetPrice(_ context.Context, asset common.Address) (*big.Int, error) {
	if err := f.enter("getAssetPrice"); err != nil {
		return nil, err
	}
	if p, ok := f.prices[asset]; ok {
		return p, nil
	}
	return big.NewInt(0), nil
}

func (f *fakeGateway) AssetsPrices(_ context.Context, assets []common.Address) ([]*big.Int, error) {
	if err := f.enter("getAssetsPrices"); err != nil {
		return nil, err
	}
	out := make([]*big.Int, len(assets))
	for i, a := range assets {
		if p, ok := f.prices[a]; ok {
			out[i] = p
		} else {
			out[i] = big.NewInt(0)
		}
	}
	return out, nil
}

func (f *fakeGateway) TokenDecimals(_ context.Context, token common.Address) (uint8, error) {
	if err := f.enter("decimals"); err != nil {
		return 0, err
	}
	return f.decimals[token], nil
}

func (f *fakeGateway) TokenSymbol(_ context.Context, token common.Address) (string, error) {
	if err := f.enter("symbol"); err != nil {
		return "", err
	}
	return f.symbols[token], nil
}

func (f *fakeGateway) TokenBalanceOf(_ context.Context, token, _ common.Address) (*big.Int, error) {
	if err := f.enter("balanceOf"); err != nil {
		return nil, err
	}
	if b, ok := f.balances[token]; ok {
		return b, nil
	}
	return big.NewInt(0), nil
}

func (f *fakeGateway) TokenTotalSupply(_ context.Context, token common.Address) (*big.Int, error) {
	if err := f.enter("totalSupply"); err != nil {
		return nil, err
	}
	if s, ok := f.supplies[token]; ok {
		return s, nil
	}
	return big.NewInt(0), nil
}

func (f *fakeGateway) BlockNumber(context.Context) (uint64, error) {
	if err := f.enter("eth_blockNumber"); err != nil {
		return 0, err
	}
	return f.block, nil
}

var _ domain.LedgerGateway = (*fakeGateway)(nil)
