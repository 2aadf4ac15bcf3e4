// Package models defines data structures for dhandash
package models

import "math"

// SnapshotSource tags where a portfolio snapshot came from
type SnapshotSource string

const (
	SourceDhan SnapshotSource = "dhan"
	SourceMock SnapshotSource = "mock"
)

// Position is the canonical view of a holding enriched with its current price and P&L.
// Build it with NewPosition so PnL is always derived.
type Position struct {
	Symbol    string  `json:"symbol"`
	Qty       float64 `json:"qty"`
	AvgPrice  float64 `json:"avgPrice"`
	LastPrice float64 `json:"lastPrice"`
	PnL       float64 `json:"pnl"`
}

// NewPosition returns a Position with lastPrice defaulted to avgPrice when it is
// unknown (zero, negative or NaN) and pnl = (lastPrice - avgPrice) * qty.
func NewPosition(symbol string, qty, avgPrice, lastPrice float64) Position {
	if math.IsNaN(avgPrice) || avgPrice < 0 {
		avgPrice = 0
	}
	if math.IsNaN(lastPrice) || lastPrice <= 0 {
		lastPrice = avgPrice
	}
	return Position{
		Symbol:    symbol,
		Qty:       qty,
		AvgPrice:  avgPrice,
		LastPrice: lastPrice,
		PnL:       (lastPrice - avgPrice) * qty,
	}
}

// MarketValue returns lastPrice * qty
func (p Position) MarketValue() float64 {
	return p.LastPrice * p.Qty
}

// PortfolioSnapshot is a point-in-time view of cash, positions and derived equity
type PortfolioSnapshot struct {
	Cash      float64        `json:"cash"`
	Equity    float64        `json:"equity"`
	Positions []Position     `json:"positions"`
	Source    SnapshotSource `json:"source"`
	Message   string         `json:"message,omitempty"`
}

// NewPortfolioSnapshot composes a snapshot, computing equity as
// cash + sum(lastPrice * qty). Negative cash is clamped to zero.
// Positions keep the order they were given in.
func NewPortfolioSnapshot(cash float64, positions []Position, source SnapshotSource, message string) *PortfolioSnapshot {
	if math.IsNaN(cash) || cash < 0 {
		cash = 0
	}
	if positions == nil {
		positions = []Position{}
	}

	equity := cash
	for _, p := range positions {
		equity += p.MarketValue()
	}

	return &PortfolioSnapshot{
		Cash:      cash,
		Equity:    equity,
		Positions: positions,
		Source:    source,
		Message:   message,
	}
}

// TotalPnL sums position P&L
func (s *PortfolioSnapshot) TotalPnL() float64 {
	var total float64
	for _, p := range s.Positions {
		total += p.PnL
	}
	return total
}
