package portfolio

import (
	"github.com/bobmcallan/dhandash/internal/models"
)

// SymbolsNeedingQuotes returns the distinct symbols of holdings that carry no
// strictly positive lastTradedPrice, in first-seen order. An empty result
// means no quote lookup is needed at all.
func SymbolsNeedingQuotes(raw []models.RawHolding) []string {
	var symbols []string
	seen := make(map[string]bool)

	for _, h := range raw {
		if _, ok := h.LastTradedPrice(); ok {
			continue
		}
		sym, ok := h.Symbol()
		if !ok || seen[sym] {
			continue
		}
		seen[sym] = true
		symbols = append(symbols, sym)
	}
	return symbols
}

// ResolvePositions maps raw holdings to positions. It performs no I/O.
//
// Last price is the first strictly positive value of: the holding's
// lastTradedPrice, quotes[symbol], quotes[securityId], the alternate
// last-price fields, and finally the average price. Holdings that fail
// validation are skipped.
func ResolvePositions(raw []models.RawHolding, quotes map[string]float64) []models.Position {
	positions := make([]models.Position, 0, len(raw))

	for _, h := range raw {
		if !h.Valid() {
			continue
		}
		sym, _ := h.Symbol()
		qty, _ := h.Quantity()
		avg, _ := h.AvgPrice()

		positions = append(positions, models.NewPosition(sym, qty, avg, lastPrice(h, sym, quotes)))
	}
	return positions
}

// lastPrice returns 0 when nothing is known; NewPosition then falls back to avg.
func lastPrice(h models.RawHolding, symbol string, quotes map[string]float64) float64 {
	if p, ok := h.LastTradedPrice(); ok {
		return p
	}
	if p := quotes[symbol]; p > 0 {
		return p
	}
	if id := h.SecurityID(); id != "" {
		if p := quotes[id]; p > 0 {
			return p
		}
	}
	if p, ok := h.AlternateLastPrice(); ok {
		return p
	}
	return 0
}
