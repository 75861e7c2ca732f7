package notify

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

// Message is a rendered alert.
type Message struct {
	Title string
	Body  string
	Tier  domain.RiskTier
}

// FormatOpportunity renders an opportunity as a short plain-text alert.
func FormatOpportunity(opp *domain.LiquidationOpportunity) Message {
	symbols := func(entries []domain.PositionEntry) string {
		if len(entries) == 0 {
			return "-"
		}
		return strings.Join(lo.Map(entries, func(p domain.PositionEntry, _ int) string { return p.Symbol }), ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Account: %s\n", opp.Address.Hex())
	fmt.Fprintf(&b, "Health factor: %s\n", opp.HealthFactor)
	fmt.Fprintf(&b, "Collateral: $%s (%s)\n", opp.TotalCollateralUSD, symbols(opp.Collateral))
	fmt.Fprintf(&b, "Debt: $%s (%s)\n", opp.TotalDebtUSD, symbols(opp.Debt))
	fmt.Fprintf(&b, "Estimated profit: $%s\n", opp.PotentialProfit)
	b.WriteString(opp.GasWarning)

	return Message{
		Title: fmt.Sprintf("%s risk liquidation opportunity", opp.RiskTier),
		Body:  b.String(),
		Tier:  opp.RiskTier,
	}
}
