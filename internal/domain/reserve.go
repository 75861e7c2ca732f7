package domain

import "github.com/ethereum/go-ethereum/common"

// ReserveDescriptor describes one supported lending asset and its static risk
// parameters. Ratios are basis points; LiquidationBonus includes the 10000
// base, so 10500 means a 5% bonus.
type ReserveDescriptor struct {
	Symbol               string         `json:"symbol"`
	Asset                common.Address `json:"address"`
	Decimals             uint8          `json:"decimals"`
	LTV                  uint64         `json:"ltv"`
	LiquidationThreshold uint64         `json:"liquidationThreshold"`
	LiquidationBonus     uint64         `json:"liquidationBonus"`
	CollateralEnabled    bool           `json:"canBeCollateral"`
	BorrowEnabled        bool           `json:"canBeBorrowed"`
	Active               bool           `json:"isActive"`
}

// ReserveStats summarises supply and borrow activity of one reserve. Rates are
// fractions (0.05 is 5%).
type ReserveStats struct {
	Symbol          string `json:"symbol"`
	TotalSupply     string `json:"totalSupply"`
	TotalBorrow     string `json:"totalBorrow"`
	UtilizationRate string `json:"utilizationRate"`
	SupplyAPY       string `json:"supplyAPY"`
	BorrowAPY       string `json:"borrowAPY"`
}

// ProtocolStatus is a point-in-time view of the protocol deployment.
type ProtocolStatus struct {
	Protocol     string `json:"protocol"`
	Network      string `json:"network"`
	BlockNumber  uint64 `json:"blockNumber"`
	PoolAddress  string `json:"poolAddress"`
	ReserveCount int    `json:"reserveCount"`
	Status       string `json:"status"`
}

// TokenBalance is an ERC-20 balance of one holder.
type TokenBalance struct {
	Token     string `json:"token"`
	Holder    string `json:"holder"`
	Symbol    string `json:"symbol"`
	Decimals  uint8  `json:"decimals"`
	Raw       string `json:"raw"`
	Formatted string `json:"balance"`
}
