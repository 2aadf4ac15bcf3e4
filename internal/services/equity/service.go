package equity

import (
	"context"

	"github.com/bobmcallan/dhandash/internal/common"
	"github.com/bobmcallan/dhandash/internal/interfaces"
	"github.com/bobmcallan/dhandash/internal/metrics"
	"github.com/bobmcallan/dhandash/internal/models"
)

// Service implements EquityService by feeding portfolio snapshots into a Series
type Service struct {
	portfolio interfaces.PortfolioService
	series    *Series
	metrics   *metrics.Metrics
	logger    *common.Logger
}

// NewService creates a new equity service. m may be nil.
func NewService(portfolio interfaces.PortfolioService, series *Series, m *metrics.Metrics, logger *common.Logger) *Service {
	return &Service{
		portfolio: portfolio,
		series:    series,
		metrics:   m,
		logger:    logger,
	}
}

// Observe assembles a fresh snapshot and offers its equity to the series.
// Mock snapshots are observed too, so the chart always has data.
func (s *Service) Observe(ctx context.Context) *models.PortfolioSnapshot {
	snap := s.portfolio.GetSnapshot(ctx)
	obs := s.series.Observe(snap.Equity)

	s.metrics.EquityObserved(obs.Appended, obs.Evicted, obs.Len)

	event := s.logger.Debug()
	if obs.Seeded {
		event = s.logger.Info()
	}
	event.
		Str("source", string(snap.Source)).
		Float64("equity", snap.Equity).
		Bool("appended", obs.Appended).
		Bool("evicted", obs.Evicted).
		Int("points", obs.Len).
		Msg("Equity observed")

	return snap
}

// Points returns a copy of the series, oldest first
func (s *Service) Points() []models.EquityPoint {
	return s.series.Read()
}

// Ensure Service implements EquityService
var _ interfaces.EquityService = (*Service)(nil)
