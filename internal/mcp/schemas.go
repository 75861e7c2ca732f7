package mcp

// MaxBatchAddresses bounds batch_check_addresses.
const MaxBatchAddresses = 20

// MaxPriceAssets bounds get_asset_prices.
const MaxPriceAssets = 50

// Tool names.
const (
	ToolGetUserHealth       = "get_user_health"
	ToolAnalyzeLiquidation  = "analyze_liquidation"
	ToolGetUserPositions    = "get_user_positions"
	ToolGetAaveReserves     = "get_aave_reserves"
	ToolGetAssetPrice       = "get_asset_price"
	ToolGetAssetPrices      = "get_asset_prices"
	ToolGetReserveStats     = "get_reserve_stats"
	ToolGetProtocolStatus   = "get_protocol_status"
	ToolBatchCheckAddresses = "batch_check_addresses"
	ToolValidateAddress     = "validate_address"
	ToolGetTokenBalance     = "get_token_balance"
)

func stringProperty(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
		"minLength":   1,
	}
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func addressListProperty(description string, maxItems int) map[string]any {
	return map[string]any{
		"type":        "array",
		"description": description,
		"items":       map[string]any{"type": "string"},
		"minItems":    1,
		"maxItems":    maxItems,
	}
}

// ToolDefinitions lists every tool in the order tools/list reports them.
func ToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        ToolGetUserHealth,
			Description: "Get health factor and account data for a specific Ethereum address on Aave V3. Returns collateral, debt, and liquidation status.",
			InputSchema: objectSchema(map[string]any{
				"address": stringProperty("Ethereum address to check (must be a valid address)"),
			}, "address"),
		},
		{
			Name:        ToolAnalyzeLiquidation,
			Description: "Analyze a user position for liquidation opportunity. Returns detailed information including collateral assets, debt assets, risk level, and potential profit.",
			InputSchema: objectSchema(map[string]any{
				"address": stringProperty("Ethereum address to analyze (must be a valid address)"),
			}, "address"),
		},
		{
			Name:        ToolGetUserPositions,
			Description: "Get detailed breakdown of a user collateral and debt positions across all Aave V3 assets.",
			InputSchema: objectSchema(map[string]any{
				"address": stringProperty("Ethereum address to query"),
			}, "address"),
		},
		{
			Name:        ToolGetAaveReserves,
			Description: "Get list of all available reserves (assets) in Aave V3 protocol with their configuration.",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        ToolGetAssetPrice,
			Description: "Get current price for a specific asset from Aave oracle.",
			InputSchema: objectSchema(map[string]any{
				"assetAddress": stringProperty("Token contract address"),
			}, "assetAddress"),
		},
		{
			Name:        ToolGetAssetPrices,
			Description: "Get current prices for several assets from Aave oracle in one call.",
			InputSchema: objectSchema(map[string]any{
				"assetAddresses": addressListProperty("Token contract addresses", MaxPriceAssets),
			}, "assetAddresses"),
		},
		{
			Name:        ToolGetReserveStats,
			Description: "Get supply, borrow, utilization and rates of one Aave V3 reserve.",
			InputSchema: objectSchema(map[string]any{
				"assetAddress": stringProperty("Underlying token contract address"),
			}, "assetAddress"),
		},
		{
			Name:        ToolGetProtocolStatus,
			Description: "Get general Aave V3 protocol status including current block number.",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        ToolBatchCheckAddresses,
			Description: "Batch check multiple Ethereum addresses for liquidation opportunities. Returns a summary of all addresses with their health status.",
			InputSchema: objectSchema(map[string]any{
				"addresses": addressListProperty("Array of Ethereum addresses to check (max 20 addresses)", MaxBatchAddresses),
			}, "addresses"),
		},
		{
			Name:        ToolValidateAddress,
			Description: "Validate if a string is a valid Ethereum address format.",
			InputSchema: objectSchema(map[string]any{
				"address": map[string]any{
					"type":        "string",
					"description": "Address string to validate",
				},
			}, "address"),
		},
		{
			Name:        ToolGetTokenBalance,
			Description: "Get the ERC-20 balance of a holder for a token.",
			InputSchema: objectSchema(map[string]any{
				"tokenAddress":  stringProperty("ERC-20 token contract address"),
				"holderAddress": stringProperty("Address whose balance is read"),
			}, "tokenAddress", "holderAddress"),
		},
	}
}
