package equity

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/dhandash/internal/common"
	"github.com/bobmcallan/dhandash/internal/metrics"
	"github.com/bobmcallan/dhandash/internal/models"
)

type mockPortfolio struct {
	equities []float64
	calls    int
}

func (m *mockPortfolio) GetSnapshot(_ context.Context) *models.PortfolioSnapshot {
	e := m.equities[min(m.calls, len(m.equities)-1)]
	m.calls++
	return models.NewPortfolioSnapshot(e, nil, models.SourceDhan, "")
}

func TestService_ObserveFeedsSeries(t *testing.T) {
	clock := newFakeClock()
	portfolio := &mockPortfolio{equities: []float64{1000, 1000.2, 1100}}
	m := metrics.NewMetrics()
	svc := NewService(portfolio, newTestSeries(clock), m, common.NewSilentLogger())

	snap := svc.Observe(context.Background())
	assert.Equal(t, 1000.0, snap.Equity)

	clock.Advance(time.Second)
	svc.Observe(context.Background()) // dropped by the throttle
	clock.Advance(time.Second)
	svc.Observe(context.Background())

	pts := svc.Points()
	require.Len(t, pts, 2)
	assert.Equal(t, 1100.0, pts[1].Equity)
	assert.Equal(t, 3, portfolio.calls)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EquityAppends))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EquityDropped))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EquityPoints))
}

func TestRenderChart(t *testing.T) {
	pts := []models.EquityPoint{
		{T: 1_700_000_000_000, Equity: 18000},
		{T: 1_700_000_005_000, Equity: 18250},
		{T: 1_700_000_010_000, Equity: 18426.2},
	}

	png, err := RenderChart(pts, "INR")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestRenderChart_FlatSeries(t *testing.T) {
	pts := []models.EquityPoint{
		{T: 1_700_000_000_000, Equity: 500},
		{T: 1_700_000_000_000, Equity: 500},
	}

	png, err := RenderChart(pts, "USD")
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}

func TestRenderChart_TooFewPoints(t *testing.T) {
	_, err := RenderChart([]models.EquityPoint{{T: 1, Equity: 1}}, "INR")
	assert.True(t, errors.Is(err, ErrNotEnoughPoints))
}
