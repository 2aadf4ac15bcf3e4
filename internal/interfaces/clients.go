// Package interfaces defines service contracts for dhandash
package interfaces

import (
	"context"

	"github.com/bobmcallan/dhandash/internal/models"
)

// BrokerClient provides access to the brokerage API
type BrokerClient interface {
	// Configured reports whether an access credential is available
	Configured() bool

	// GetHoldings retrieves the valid raw holdings from the first endpoint that yields any
	GetHoldings(ctx context.Context) ([]models.RawHolding, error)

	// GetQuote retrieves a live price for one symbol
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)

	// GetQuotes retrieves live prices concurrently; unknown prices map to 0
	GetQuotes(ctx context.Context, symbols []string) map[string]float64

	// GetCash retrieves available cash; 0 when unknown
	GetCash(ctx context.Context) float64
}
