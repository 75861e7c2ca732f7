package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/samber/lo"

	"github.com/alanyoungcy/liqscope/internal/domain"
	"github.com/alanyoungcy/liqscope/internal/units"
)

// Engine is the analysis surface the tools expose.
type Engine interface {
	ListReserves(ctx context.Context) ([]domain.ReserveDescriptor, error)
	Snapshot(ctx context.Context, address string) (domain.AccountSnapshot, error)
	Positions(ctx context.Context, address string) (domain.Positions, error)
	Analyze(ctx context.Context, address string) (*domain.LiquidationOpportunity, error)
	AnalyzeBatch(ctx context.Context, addresses []string) []domain.BatchResult
	AssetPrice(ctx context.Context, asset string) (string, error)
	AssetPrices(ctx context.Context, assets []string) (map[string]string, error)
	ReserveStats(ctx context.Context, asset string) (domain.ReserveStats, error)
	ProtocolStatus(ctx context.Context) (domain.ProtocolStatus, error)
	TokenBalance(ctx context.Context, token, holder string) (domain.TokenBalance, error)
}

// Account status labels.
const (
	StatusLiquidatable = "LIQUIDATABLE"
	StatusAtRisk       = "AT_RISK"
	StatusHealthy      = "HEALTHY"
	StatusError        = "ERROR"
)

type toolFunc func(ctx context.Context, args map[string]any) (any, error)

// ToolExecutor runs tools against the engine. Arguments are expected to have
// passed schema validation already.
type ToolExecutor struct {
	engine Engine
}

// NewToolExecutor creates a ToolExecutor.
func NewToolExecutor(engine Engine) *ToolExecutor {
	return &ToolExecutor{engine: engine}
}

func (te *ToolExecutor) handlers() map[string]toolFunc {
	return map[string]toolFunc{
		ToolGetUserHealth:       te.userHealth,
		ToolAnalyzeLiquidation:  te.analyzeLiquidation,
		ToolGetUserPositions:    te.userPositions,
		ToolGetAaveReserves:     te.reserves,
		ToolGetAssetPrice:       te.assetPrice,
		ToolGetAssetPrices:      te.assetPrices,
		ToolGetReserveStats:     te.reserveStats,
		ToolGetProtocolStatus:   te.protocolStatus,
		ToolBatchCheckAddresses: te.batchCheck,
		ToolValidateAddress:     te.validateAddress,
		ToolGetTokenBalance:     te.tokenBalance,
	}
}

type healthReport struct {
	Address              string `json:"address"`
	HealthFactor         string `json:"healthFactor"`
	TotalCollateralUSD   string `json:"totalCollateralUSD"`
	TotalDebtUSD         string `json:"totalDebtUSD"`
	AvailableBorrowsUSD  string `json:"availableBorrowsUSD"`
	LiquidationThreshold string `json:"liquidationThreshold"`
	LTV                  string `json:"ltv"`
	IsLiquidatable       bool   `json:"isLiquidatable"`
	IsAtRisk             bool   `json:"isAtRisk"`
	Status               string `json:"status"`
}

func (te *ToolExecutor) userHealth(ctx context.Context, args map[string]any) (any, error) {
	address, err := addressArg(args, "address")
	if err != nil {
		return nil, err
	}
	snap, err := te.engine.Snapshot(ctx, address)
	if err != nil {
		return nil, err
	}

	status := StatusHealthy
	switch {
	case snap.IsLiquidatable:
		status = StatusLiquidatable
	case snap.IsAtRisk:
		status = StatusAtRisk
	}
	return healthReport{
		Address:              snap.Address.Hex(),
		HealthFactor:         snap.HealthFactorFormatted,
		TotalCollateralUSD:   usd(snap.TotalCollateralBase),
		TotalDebtUSD:         usd(snap.TotalDebtBase),
		AvailableBorrowsUSD:  usd(snap.AvailableBorrowsBase),
		LiquidationThreshold: units.BPSToPercent(snap.CurrentLiquidationThreshold),
		LTV:                  units.BPSToPercent(snap.LTV),
		IsLiquidatable:       snap.IsLiquidatable,
		IsAtRisk:             snap.IsAtRisk,
		Status:               status,
	}, nil
}

func (te *ToolExecutor) analyzeLiquidation(ctx context.Context, args map[string]any) (any, error) {
	address, err := addressArg(args, "address")
	if err != nil {
		return nil, err
	}
	opp, err := te.engine.Analyze(ctx, address)
	if err != nil {
		return nil, err
	}
	if opp == nil {
		return map[string]string{
			"message": "No liquidation opportunity found. Position is healthy.",
			"address": address,
		}, nil
	}
	return opp, nil
}

type positionsReport struct {
	Address    string                 `json:"address"`
	Collateral []domain.PositionEntry `json:"collateralPositions"`
	Debt       []domain.PositionEntry `json:"debtPositions"`
}

func (te *ToolExecutor) userPositions(ctx context.Context, args map[string]any) (any, error) {
	address, err := addressArg(args, "address")
	if err != nil {
		return nil, err
	}
	positions, err := te.engine.Positions(ctx, address)
	if err != nil {
		return nil, err
	}
	return positionsReport{
		Address:    address,
		Collateral: positions.Collateral,
		Debt:       positions.Debt,
	}, nil
}

type reserveView struct {
	Symbol               string `json:"symbol"`
	Address              string `json:"address"`
	Decimals             uint8  `json:"decimals"`
	LTV                  string `json:"ltv"`
	LiquidationThreshold string `json:"liquidationThreshold"`
	LiquidationBonus     string `json:"liquidationBonus"`
	CanBeCollateral      bool   `json:"canBeCollateral"`
	CanBeBorrowed        bool   `json:"canBeBorrowed"`
	IsActive             bool   `json:"isActive"`
}

func (te *ToolExecutor) reserves(ctx context.Context, _ map[string]any) (any, error) {
	reserves, err := te.engine.ListReserves(ctx)
	if err != nil {
		return nil, err
	}
	views := lo.Map(reserves, func(r domain.ReserveDescriptor, _ int) reserveView {
		return reserveView{
			Symbol:               r.Symbol,
			Address:              r.Asset.Hex(),
			Decimals:             r.Decimals,
			LTV:                  percent(r.LTV),
			LiquidationThreshold: percent(r.LiquidationThreshold),
			LiquidationBonus:     percent(bonusPremium(r.LiquidationBonus)),
			CanBeCollateral:      r.CollateralEnabled,
			CanBeBorrowed:        r.BorrowEnabled,
			IsActive:             r.Active,
		}
	})
	return map[string]any{
		"totalReserves": len(views),
		"reserves":      views,
	}, nil
}

func (te *ToolExecutor) assetPrice(ctx context.Context, args map[string]any) (any, error) {
	asset, err := addressArg(args, "assetAddress")
	if err != nil {
		return nil, err
	}
	price, err := te.engine.AssetPrice(ctx, asset)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"assetAddress": asset,
		"priceUSD":     price,
	}, nil
}

func (te *ToolExecutor) assetPrices(ctx context.Context, args map[string]any) (any, error) {
	assets, err := addressListArg(args, "assetAddresses")
	if err != nil {
		return nil, err
	}
	prices, err := te.engine.AssetPrices(ctx, assets)
	if err != nil {
		return nil, err
	}
	return map[string]any{"prices": prices}, nil
}

func (te *ToolExecutor) reserveStats(ctx context.Context, args map[string]any) (any, error) {
	asset, err := addressArg(args, "assetAddress")
	if err != nil {
		return nil, err
	}
	return te.engine.ReserveStats(ctx, asset)
}

func (te *ToolExecutor) protocolStatus(ctx context.Context, _ map[string]any) (any, error) {
	return te.engine.ProtocolStatus(ctx)
}

// BatchEntry is the per-address line of a batch summary.
type BatchEntry struct {
	Address      string `json:"address"`
	Status       string `json:"status"`
	HealthFactor string `json:"healthFactor"`
	TotalDebtUSD string `json:"totalDebtUSD"`
	RiskLevel    string `json:"riskLevel"`
	Error        string `json:"error,omitempty"`
}

// BatchSummary aggregates a batch check.
type BatchSummary struct {
	TotalChecked int          `json:"totalChecked"`
	Successful   int          `json:"successful"`
	Failed       int          `json:"failed"`
	Liquidatable int          `json:"liquidatable"`
	AtRisk       int          `json:"atRisk"`
	Healthy      int          `json:"healthy"`
	Results      []BatchEntry `json:"results"`
}

// Summarize counts batch outcomes. A HIGH tier opportunity counts as
// liquidatable and any other opportunity as at risk.
func Summarize(results []domain.BatchResult) BatchSummary {
	summary := BatchSummary{
		TotalChecked: len(results),
		Results:      make([]BatchEntry, 0, len(results)),
	}
	for _, r := range results {
		entry := BatchEntry{
			Address:      r.Address,
			HealthFactor: "N/A",
			TotalDebtUSD: "0",
			RiskLevel:    "NONE",
			Error:        r.Error,
		}
		switch {
		case r.Error != "":
			summary.Failed++
			entry.Status = StatusError
		case r.Opportunity == nil:
			summary.Healthy++
			entry.Status = StatusHealthy
		default:
			if r.Opportunity.RiskTier == domain.RiskHigh {
				summary.Liquidatable++
				entry.Status = StatusLiquidatable
			} else {
				summary.AtRisk++
				entry.Status = StatusAtRisk
			}
			entry.HealthFactor = r.Opportunity.HealthFactor
			entry.TotalDebtUSD = r.Opportunity.TotalDebtUSD
			entry.RiskLevel = string(r.Opportunity.RiskTier)
		}
		summary.Results = append(summary.Results, entry)
	}
	summary.Successful = summary.TotalChecked - summary.Failed
	return summary
}

func (te *ToolExecutor) batchCheck(ctx context.Context, args map[string]any) (any, error) {
	addresses, err := addressListArg(args, "addresses")
	if err != nil {
		return nil, err
	}
	return Summarize(te.engine.AnalyzeBatch(ctx, addresses)), nil
}

func (te *ToolExecutor) validateAddress(_ context.Context, args map[string]any) (any, error) {
	address, err := stringArg(args, "address")
	if err != nil {
		return nil, err
	}
	valid := domain.IsValidAddress(address)
	message := "Invalid Ethereum address format"
	if valid {
		message = "Valid Ethereum address format"
	}
	return map[string]any{
		"address": address,
		"isValid": valid,
		"message": message,
	}, nil
}

func (te *ToolExecutor) tokenBalance(ctx context.Context, args map[string]any) (any, error) {
	token, err := addressArg(args, "tokenAddress")
	if err != nil {
		return nil, err
	}
	holder, err := addressArg(args, "holderAddress")
	if err != nil {
		return nil, err
	}
	return te.engine.TokenBalance(ctx, token, holder)
}

func stringArg(args map[string]any, key string) (string, error) {
	s, ok := args[key].(string)
	if !ok || s == "" {
		return "", &RPCError{
			Code:    InvalidParams,
			Message: fmt.Sprintf("%s parameter is required and must be a string", key),
		}
	}
	return s, nil
}

func addressArg(args map[string]any, key string) (string, error) {
	s, err := stringArg(args, key)
	if err != nil {
		return "", err
	}
	if !domain.IsValidAddress(s) {
		return "", &RPCError{
			Code:    InvalidParams,
			Message: "Invalid Ethereum address format",
			Data:    s,
		}
	}
	return s, nil
}

// addressListArg rejects the whole list when any entry is malformed, naming
// every offender.
func addressListArg(args map[string]any, key string) ([]string, error) {
	raw, ok := args[key].([]any)
	if !ok || len(raw) == 0 {
		return nil, &RPCError{
			Code:    InvalidParams,
			Message: fmt.Sprintf("%s parameter is required and must be a non-empty array", key),
		}
	}

	var invalid []string
	addresses := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			invalid = append(invalid, fmt.Sprint(v))
			continue
		}
		if !domain.IsValidAddress(s) {
			invalid = append(invalid, s)
			continue
		}
		addresses = append(addresses, s)
	}
	if len(invalid) > 0 {
		return nil, &RPCError{
			Code:    InvalidParams,
			Message: fmt.Sprintf("Invalid Ethereum addresses: %s", strings.Join(invalid, ", ")),
			Data:    invalid,
		}
	}
	return addresses, nil
}

func usd(v *big.Int) string {
	return units.ToDecimal(v, units.BaseCurrencyDecimals).StringFixed(2)
}

func percent(bps uint64) string {
	return units.BPSToPercent(new(big.Int).SetUint64(bps)) + "%"
}

// bonusPremium strips the 10000 base from a liquidation bonus.
func bonusPremium(bonus uint64) uint64 {
	if bonus <= 10_000 {
		return 0
	}
	return bonus - 10_000
}

func textResult(v any) (*CallToolResult, error) {
	text, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, &RPCError{
			Code:    InternalError,
			Message: "Failed to serialize tool result",
			Data:    err.Error(),
		}
	}
	return &CallToolResult{
		Content: []TextContent{{Type: "text", Text: string(text)}},
	}, nil
}
