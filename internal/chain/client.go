// Package chain implements domain.LedgerGateway over an Ethereum JSON-RPC
// endpoint using eth_call against the lending pool, its data provider, its
// price oracle and ERC-20 tokens.
package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

// Backend is the subset of ethclient.Client the gateway needs.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Observer receives the outcome of every ledger call.
type Observer interface {
	ObserveCall(method string, elapsed time.Duration, err error)
}

// Contracts holds the protocol deployment addresses.
type Contracts struct {
	Pool         common.Address
	DataProvider common.Address
	Oracle       common.Address
}

// Options tunes a Client. Zero values disable the corresponding feature.
type Options struct {
	// CallTimeout bounds each individual call.
	CallTimeout time.Duration
	// Limiter throttles calls under LimiterKey before they are sent.
	Limiter    domain.RateLimiter
	LimiterKey string
	Observer   Observer
	Logger     *slog.Logger
}

// Client is a domain.LedgerGateway backed by JSON-RPC.
type Client struct {
	backend   Backend
	contracts Contracts
	opts      Options
	logger    *slog.Logger
}

var _ domain.LedgerGateway = (*Client)(nil)

// Dial connects to rpcURL and returns the raw ethclient for New.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	c, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial: %w", err)
	}
	return c, nil
}

// New creates a gateway over backend.
func New(backend Backend, contracts Contracts, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.LimiterKey == "" {
		opts.LimiterKey = "rpc"
	}
	return &Client{
		backend:   backend,
		contracts: contracts,
		opts:      opts,
		logger:    logger.With(slog.String("component", "chain")),
	}
}

// Contracts returns the deployment addresses the client reads from.
func (c *Client) Contracts() Contracts { return c.contracts }

// UserAccountData reads Pool.getUserAccountData.
func (c *Client) UserAccountData(ctx context.Context, user common.Address) (domain.AccountData, error) {
	const method = "getUserAccountData"
	out, err := c.call(ctx, poolABI, c.contracts.Pool, method, user)
	if err != nil {
		return domain.AccountData{}, err
	}
	vals, err := bigs(out, 6)
	if err != nil {
		return domain.AccountData{}, malformed(method, err)
	}
	return domain.AccountData{
		TotalCollateralBase:         vals[0],
		TotalDebtBase:               vals[1],
		AvailableBorrowsBase:        vals[2],
		CurrentLiquidationThreshold: vals[3],
		LTV:                         vals[4],
		HealthFactor:                vals[5],
	}, nil
}

// ReservesList reads Pool.getReservesList.
func (c *Client) ReservesList(ctx context.Context) ([]common.Address, error) {
	const method = "getReservesList"
	out, err := c.call(ctx, poolABI, c.contracts.Pool, method)
	if err != nil {
		return nil, err
	}
	list, err := field[[]common.Address](out, 0)
	if err != nil {
		return nil, malformed(method, err)
	}
	return list, nil
}

// AllReservesTokens reads DataProvider.getAllReservesTokens.
func (c *Client) AllReservesTokens(ctx context.Context) ([]domain.ReserveToken, error) {
	const method = "getAllReservesTokens"
	out, err := c.call(ctx, dataProviderABI, c.contracts.DataProvider, method)
	if err != nil {
		return nil, err
	}
	raw, err := convertTuples[tokenData](out)
	if err != nil {
		return nil, malformed(method, err)
	}
	tokens := make([]domain.ReserveToken, len(raw))
	for i, t := range raw {
		tokens[i] = domain.ReserveToken{Symbol: t.Symbol, Address: t.TokenAddress}
	}
	return tokens, nil
}

type tokenData struct {
	Symbol       string
	TokenAddress common.Address
}

// ReserveConfiguration reads DataProvider.getReserveConfigurationData.
func (c *Client) ReserveConfiguration(ctx context.Context, asset common.Address) (domain.ReserveConfig, error) {
	const method = "getReserveConfigurationData"
	out, err := c.call(ctx, dataProviderABI, c.contracts.DataProvider, method, asset)
	if err != nil {
		return domain.ReserveConfig{}, err
	}
	cfg, err := decodeReserveConfig(out)
	if err != nil {
		return domain.ReserveConfig{}, malformed(method, err)
	}
	return cfg, nil
}

// UserReserveData reads DataProvider.getUserReserveData.
func (c *Client) UserReserveData(ctx context.Context, asset, user common.Address) (domain.UserReserve, error) {
	const method = "getUserReserveData"
	out, err := c.call(ctx, dataProviderABI, c.contracts.DataProvider, method, asset, user)
	if err != nil {
		return domain.UserReserve{}, err
	}
	ur, err := decodeUserReserve(out)
	if err != nil {
		return domain.UserReserve{}, malformed(method, err)
	}
	return ur, nil
}

// ReserveTokensAddresses reads DataProvider.getReserveTokensAddresses.
func (c *Client) ReserveTokensAddresses(ctx context.Context, asset common.Address) (domain.ReserveTokenAddresses, error) {
	const method = "getReserveTokensAddresses"
	out, err := c.call(ctx, dataProviderABI, c.contracts.DataProvider, method, asset)
	if err != nil {
		return domain.ReserveTokenAddresses{}, err
	}
	var addrs [3]common.Address
	for i := range addrs {
		if addrs[i], err = field[common.Address](out, i); err != nil {
			return domain.ReserveTokenAddresses{}, malformed(method, err)
		}
	}
	return domain.ReserveTokenAddresses{
		AToken:            addrs[0],
		StableDebtToken:   addrs[1],
		VariableDebtToken: addrs[2],
	}, nil
}

// ReserveData reads DataProvider.getReserveData.
func (c *Client) ReserveData(ctx context.Context, asset common.Address) (domain.ReserveData, error) {
	const method = "getReserveData"
	out, err := c.call(ctx, dataProviderABI, c.contracts.DataProvider, method, asset)
	if err != nil {
		return domain.ReserveData{}, err
	}
	rd, err := decodeReserveData(out)
	if err != nil {
		return domain.ReserveData{}, malformed(method, err)
	}
	return rd, nil
}

// AssetPrice reads Oracle.getAssetPrice. Prices carry 8 decimals.
func (c *Client) AssetPrice(ctx context.Context, asset common.Address) (*big.Int, error) {
	const method = "getAssetPrice"
	out, err := c.call(ctx, oracleABI, c.contracts.Oracle, method, asset)
	if err != nil {
		return nil, err
	}
	price, err := field[*big.Int](out, 0)
	if err != nil {
		return nil, malformed(method, err)
	}
	return price, nil
}

// AssetsPrices reads Oracle.getAssetsPrices. The result is index-aligned with
// assets.
func (c *Client) AssetsPrices(ctx context.Context, assets []common.Address) ([]*big.Int, error) {
	const method = "getAssetsPrices"
	out, err := c.call(ctx, oracleABI, c.contracts.Oracle, method, assets)
	if err != nil {
		return nil, err
	}
	prices, err := field[[]*big.Int](out, 0)
	if err != nil {
		return nil, malformed(method, err)
	}
	if len(prices) != len(assets) {
		return nil, malformed(method, fmt.Errorf("got %d prices for %d assets", len(prices), len(assets)))
	}
	return prices, nil
}

// TokenDecimals reads ERC20.decimals.
func (c *Client) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	const method = "decimals"
	out, err := c.call(ctx, erc20ABI, token, method)
	if err != nil {
		return 0, err
	}
	d, err := field[uint8](out, 0)
	if err != nil {
		return 0, malformed(method, err)
	}
	return d, nil
}

// TokenSymbol reads ERC20.symbol.
func (c *Client) TokenSymbol(ctx context.Context, token common.Address) (string, error) {
	const method = "symbol"
	out, err := c.call(ctx, erc20ABI, token, method)
	if err != nil {
		return "", err
	}
	s, err := field[string](out, 0)
	if err != nil {
		return "", malformed(method, err)
	}
	return s, nil
}

// TokenBalanceOf reads ERC20.balanceOf.
func (c *Client) TokenBalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	const method = "balanceOf"
	out, err := c.call(ctx, erc20ABI, token, method, account)
	if err != nil {
		return nil, err
	}
	v, err := field[*big.Int](out, 0)
	if err != nil {
		return nil, malformed(method, err)
	}
	return v, nil
}

// TokenTotalSupply reads ERC20.totalSupply.
func (c *Client) TokenTotalSupply(ctx context.Context, token common.Address) (*big.Int, error) {
	const method = "totalSupply"
	out, err := c.call(ctx, erc20ABI, token, method)
	if err != nil {
		return nil, err
	}
	v, err := field[*big.Int](out, 0)
	if err != nil {
		return nil, malformed(method, err)
	}
	return v, nil
}

// BlockNumber returns the latest block height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	const method = "eth_blockNumber"
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	n, err := do(ctx, c.opts.Limiter, c.opts.LimiterKey, func(ctx context.Context) (uint64, error) {
		return c.backend.BlockNumber(ctx)
	})
	c.observe(method, start, err)
	if err != nil {
		return 0, &domain.GatewayError{Method: method, Err: err}
	}
	return n, nil
}

// call packs args, executes eth_call against to and unpacks the result.
func (c *Client) call(ctx context.Context, contract abi.ABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, &domain.GatewayError{Method: method, Err: fmt.Errorf("pack: %w", err)}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	raw, err := do(ctx, c.opts.Limiter, c.opts.LimiterKey, func(ctx context.Context) ([]byte, error) {
		return c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	})
	if err == nil && len(raw) == 0 {
		err = errors.New("empty response")
	}
	var out []interface{}
	if err == nil {
		out, err = contract.Unpack(method, raw)
		if err != nil {
			err = fmt.Errorf("unpack: %w", err)
		}
	}
	c.observe(method, start, err)
	if err != nil {
		c.logger.Debug("ledger call failed",
			slog.String("method", method),
			slog.String("to", to.Hex()),
			slog.String("error", err.Error()),
		)
		return nil, &domain.GatewayError{Method: method, Err: err}
	}
	return out, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.CallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.opts.CallTimeout)
}

// do waits for a limiter slot, then runs fn. Deadline expiry during the wait
// or the call is reported as the context error.
func do[T any](ctx context.Context, limiter domain.RateLimiter, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if limiter != nil {
		if err := limiter.Wait(ctx, key); err != nil {
			return zero, fmt.Errorf("rate limit: %w", err)
		}
	}
	return fn(ctx)
}

func (c *Client) observe(method string, start time.Time, err error) {
	if c.opts.Observer != nil {
		c.opts.Observer.ObserveCall(method, time.Since(start), err)
	}
}

func malformed(method string, err error) error {
	return &domain.GatewayError{Method: method, Err: fmt.Errorf("malformed response: %w", err)}
}
