package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

// EngineConfig tunes the analysis engine.
type EngineConfig struct {
	ReserveTTL       time.Duration
	BatchConcurrency int
	Protocol         ProtocolInfo
}

// Engine wires the analysis services over one gateway and exposes them as a
// single facade for the tool and HTTP front ends.
type Engine struct {
	Registry *ReserveRegistry
	Accounts *AccountService
	Analyzer *AnalyzerService
	Batch    *BatchService
	Prices   *PriceService
	Stats    *ReserveStatsService
	Protocol *ProtocolService
	Tokens   *TokenService
}

// NewEngine builds all services over gateway.
func NewEngine(gateway domain.LedgerGateway, cfg EngineConfig, recorder Recorder, logger *slog.Logger) *Engine {
	registry := NewReserveRegistry(gateway, cfg.ReserveTTL, recorder, logger)
	accounts := NewAccountService(gateway, registry, logger)
	analyzer := NewAnalyzerService(accounts, gateway, recorder, logger)
	return &Engine{
		Registry: registry,
		Accounts: accounts,
		Analyzer: analyzer,
		Batch:    NewBatchService(analyzer, cfg.BatchConcurrency, recorder, logger),
		Prices:   NewPriceService(gateway, logger),
		Stats:    NewReserveStatsService(gateway, registry, logger),
		Protocol: NewProtocolService(gateway, registry, cfg.Protocol, logger),
		Tokens:   NewTokenService(gateway, logger),
	}
}

// ListReserves returns the supported reserves.
func (e *Engine) ListReserves(ctx context.Context) ([]domain.ReserveDescriptor, error) {
	return e.Registry.ListReserves(ctx)
}

// Snapshot reads and classifies the account health of address.
func (e *Engine) Snapshot(ctx context.Context, address string) (domain.AccountSnapshot, error) {
	return e.Accounts.Snapshot(ctx, address)
}

// Positions lists the collateral and debt entries of address.
func (e *Engine) Positions(ctx context.Context, address string) (domain.Positions, error) {
	return e.Accounts.Positions(ctx, address)
}

// Analyze returns the liquidation opportunity of address, or nil when it is healthy.
func (e *Engine) Analyze(ctx context.Context, address string) (*domain.LiquidationOpportunity, error) {
	return e.Analyzer.Analyze(ctx, address)
}

// AnalyzeBatch analyses addresses concurrently, one result per input.
func (e *Engine) AnalyzeBatch(ctx context.Context, addresses []string) []domain.BatchResult {
	return e.Batch.AnalyzeBatch(ctx, addresses)
}

// AssetPrice returns the oracle price of asset in USD.
func (e *Engine) AssetPrice(ctx context.Context, asset string) (string, error) {
	return e.Prices.AssetPrice(ctx, asset)
}

// AssetPrices returns the oracle prices of assets keyed as given.
func (e *Engine) AssetPrices(ctx context.Context, assets []string) (map[string]string, error) {
	return e.Prices.AssetPrices(ctx, assets)
}

// ReserveStats returns supply, borrow and rate figures for asset.
func (e *Engine) ReserveStats(ctx context.Context, asset string) (domain.ReserveStats, error) {
	return e.Stats.Stats(ctx, asset)
}

// BlockNumber returns the latest block number.
func (e *Engine) BlockNumber(ctx context.Context) (uint64, error) {
	return e.Protocol.BlockNumber(ctx)
}

// ProtocolStatus reports the deployment, block and reserve count.
func (e *Engine) ProtocolStatus(ctx context.Context) (domain.ProtocolStatus, error) {
	return e.Protocol.Status(ctx)
}

// TokenBalance returns the ERC-20 balance of holder for token.
func (e *Engine) TokenBalance(ctx context.Context, token, holder string) (domain.TokenBalance, error) {
	return e.Tokens.Balance(ctx, token, holder)
}

// IsValidAddress reports whether s is a well-formed account address.
func (e *Engine) IsValidAddress(s string) bool {
	return domain.IsValidAddress(s)
}
