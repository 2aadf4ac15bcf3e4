// Package portfolio assembles portfolio snapshots from the broker
package portfolio

import (
	"context"

	"github.com/bobmcallan/dhandash/internal/common"
	"github.com/bobmcallan/dhandash/internal/interfaces"
	"github.com/bobmcallan/dhandash/internal/metrics"
	"github.com/bobmcallan/dhandash/internal/models"
)

// FailurePolicy decides what snapshot to serve when holdings cannot be fetched
type FailurePolicy func(err error) *models.PortfolioSnapshot

// UseMockSnapshot serves the demo portfolio, naming the failure in its message
func UseMockSnapshot(err error) *models.PortfolioSnapshot {
	return MockSnapshot(err.Error())
}

// Service implements PortfolioService
type Service struct {
	broker    interfaces.BrokerClient
	onFailure FailurePolicy
	metrics   *metrics.Metrics
	currency  string
	logger    *common.Logger
}

// Option configures the service
type Option func(*Service)

// WithFailurePolicy replaces the default UseMockSnapshot policy
func WithFailurePolicy(p FailurePolicy) Option {
	return func(s *Service) {
		if p != nil {
			s.onFailure = p
		}
	}
}

// WithMetrics attaches Prometheus instrumentation
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithDisplayCurrency sets the currency used in log summaries
func WithDisplayCurrency(code string) Option {
	return func(s *Service) {
		s.currency = code
	}
}

// NewService creates a new portfolio service
func NewService(broker interfaces.BrokerClient, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		broker:    broker,
		onFailure: UseMockSnapshot,
		currency:  "INR",
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetSnapshot fetches holdings, resolves prices and cash, and composes a
// snapshot. Any holdings failure is handed to the failure policy; quote and
// cash problems only degrade prices to avg and cash to 0.
func (s *Service) GetSnapshot(ctx context.Context) *models.PortfolioSnapshot {
	raw, err := s.broker.GetHoldings(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Holdings unavailable, applying failure policy")
		snap := s.onFailure(err)
		s.record(snap)
		return snap
	}

	var quotes map[string]float64
	if symbols := SymbolsNeedingQuotes(raw); len(symbols) > 0 {
		s.logger.Debug().Int("symbols", len(symbols)).Msg("Fetching quotes for unpriced holdings")
		quotes = s.broker.GetQuotes(ctx, symbols)
	}

	positions := ResolvePositions(raw, quotes)
	cash := s.broker.GetCash(ctx)

	snap := models.NewPortfolioSnapshot(cash, positions, models.SourceDhan, "")
	s.logger.Info().
		Str("source", string(snap.Source)).
		Int("positions", len(snap.Positions)).
		Str("cash", common.FormatMoney(snap.Cash, s.currency)).
		Str("equity", common.FormatMoney(snap.Equity, s.currency)).
		Msg("Portfolio snapshot assembled")

	s.record(snap)
	return snap
}

func (s *Service) record(snap *models.PortfolioSnapshot) {
	s.metrics.Snapshot(string(snap.Source), snap.Equity)
}

// Ensure Service implements PortfolioService
var _ interfaces.PortfolioService = (*Service)(nil)
