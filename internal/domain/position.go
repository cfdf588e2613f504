package domain

// Side of an open position as mirrored from the brokerage.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Position is a read-only mirror of brokerage state, refreshed each poll.
// Quantity, cost basis and market value are normalized to positive
// magnitudes regardless of side.
type Position struct {
	Symbol      string
	Side        Side
	Quantity    float64
	CostBasis   float64
	MarketValue float64
	Exchange    string
}

// MovementPct is the unrealized move as a percentage of cost basis.
func (p *Position) MovementPct() float64 {
	if p.CostBasis == 0 {
		return 0
	}
	return 100 * (p.MarketValue - p.CostBasis) / p.CostBasis
}
