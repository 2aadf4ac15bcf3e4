package interfaces

import (
	"context"

	"github.com/bobmcallan/dhandash/internal/models"
)

// PortfolioService assembles portfolio snapshots
type PortfolioService interface {
	// GetSnapshot returns the current snapshot. It never fails: broker
	// problems produce a mock snapshot instead.
	GetSnapshot(ctx context.Context) *models.PortfolioSnapshot
}

// EquityService maintains the equity time series
type EquityService interface {
	// Observe takes a fresh snapshot and offers its equity to the series
	Observe(ctx context.Context) *models.PortfolioSnapshot

	// Points returns a copy of the series, oldest first
	Points() []models.EquityPoint
}

// QuoteService looks up single-symbol quotes
type QuoteService interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}
