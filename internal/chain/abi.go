package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Only the read-only methods the analyzer needs are declared.
const (
	poolABIJSON = `[
	{"type":"function","name":"getUserAccountData","stateMutability":"view",
	 "inputs":[{"name":"user","type":"address"}],
	 "outputs":[
	  {"name":"totalCollateralBase","type":"uint256"},
	  {"name":"totalDebtBase","type":"uint256"},
	  {"name":"availableBorrowsBase","type":"uint256"},
	  {"name":"currentLiquidationThreshold","type":"uint256"},
	  {"name":"ltv","type":"uint256"},
	  {"name":"healthFactor","type":"uint256"}]},
	{"type":"function","name":"getReservesList","stateMutability":"view",
	 "inputs":[],
	 "outputs":[{"name":"","type":"address[]"}]}
	]`

	dataProviderABIJSON = `[
	{"type":"function","name":"getAllReservesTokens","stateMutability":"view",
	 "inputs":[],
	 "outputs":[{"name":"","type":"tuple[]","components":[
	  {"name":"symbol","type":"string"},
	  {"name":"tokenAddress","type":"address"}]}]},
	{"type":"function","name":"getReserveConfigurationData","stateMutability":"view",
	 "inputs":[{"name":"asset","type":"address"}],
	 "outputs":[
	  {"name":"decimals","type":"uint256"},
	  {"name":"ltv","type":"uint256"},
	  {"name":"liquidationThreshold","type":"uint256"},
	  {"name":"liquidationBonus","type":"uint256"},
	  {"name":"reserveFactor","type":"uint256"},
	  {"name":"usageAsCollateralEnabled","type":"bool"},
	  {"name":"borrowingEnabled","type":"bool"},
	  {"name":"stableBorrowRateEnabled","type":"bool"},
	  {"name":"isActive","type":"bool"},
	  {"name":"isFrozen","type":"bool"}]},
	{"type":"function","name":"getUserReserveData","stateMutability":"view",
	 "inputs":[{"name":"asset","type":"address"},{"name":"user","type":"address"}],
	 "outputs":[
	  {"name":"currentATokenBalance","type":"uint256"},
	  {"name":"currentStableDebt","type":"uint256"},
	  {"name":"currentVariableDebt","type":"uint256"},
	  {"name":"principalStableDebt","type":"uint256"},
	  {"name":"scaledVariableDebt","type":"uint256"},
	  {"name":"stableBorrowRate","type":"uint256"},
	  {"name":"liquidityRate","type":"uint256"},
	  {"name":"stableRateLastUpdated","type":"uint40"},
	  {"name":"usageAsCollateralEnabled","type":"bool"}]},
	{"type":"function","name":"getReserveTokensAddresses","stateMutability":"view",
	 "inputs":[{"name":"asset","type":"address"}],
	 "outputs":[
	  {"name":"aTokenAddress","type":"address"},
	  {"name":"stableDebtTokenAddress","type":"address"},
	  {"name":"variableDebtTokenAddress","type":"address"}]},
	{"type":"function","name":"getReserveData","stateMutability":"view",
	 "inputs":[{"name":"asset","type":"address"}],
	 "outputs":[
	  {"name":"unbacked","type":"uint256"},
	  {"name":"accruedToTreasuryScaled","type":"uint256"},
	  {"name":"totalAToken","type":"uint256"},
	  {"name":"totalStableDebt","type":"uint256"},
	  {"name":"totalVariableDebt","type":"uint256"},
	  {"name":"liquidityRate","type":"uint256"},
	  {"name":"variableBorrowRate","type":"uint256"},
	  {"name":"stableBorrowRate","type":"uint256"},
	  {"name":"averageStableBorrowRate","type":"uint256"},
	  {"name":"liquidityIndex","type":"uint256"},
	  {"name":"variableBorrowIndex","type":"uint256"},
	  {"name":"lastUpdateTimestamp","type":"uint40"}]}
	]`

	oracleABIJSON = `[
	{"type":"function","name":"getAssetPrice","stateMutability":"view",
	 "inputs":[{"name":"asset","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getAssetsPrices","stateMutability":"view",
	 "inputs":[{"name":"assets","type":"address[]"}],
	 "outputs":[{"name":"","type":"uint256[]"}]}
	]`

	erc20ABIJSON = `[
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"uint256"}]}
	]`
)

var (
	poolABI         = mustParseABI("pool", poolABIJSON)
	dataProviderABI = mustParseABI("data provider", dataProviderABIJSON)
	oracleABI       = mustParseABI("oracle", oracleABIJSON)
	erc20ABI        = mustParseABI("erc20", erc20ABIJSON)
)

func mustParseABI(name, raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("chain: parse %s abi: %v", name, err))
	}
	return parsed
}
