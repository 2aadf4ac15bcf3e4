package equity

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/dhandash/internal/common"
	"github.com/bobmcallan/dhandash/internal/models"
)

// ErrNotEnoughPoints is returned when the series is too short to chart
var ErrNotEnoughPoints = errors.New("need at least 2 equity points")

// RenderChart renders the equity series as a PNG line chart with y-axis
// labels in the given display currency. Returns raw PNG bytes.
func RenderChart(points []models.EquityPoint, currency string) ([]byte, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w, got %d", ErrNotEnoughPoints, len(points))
	}

	series := chart.TimeSeries{
		Name: "Equity",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("16a34a"), // green-600
			StrokeWidth: 2,
			FillColor:   drawing.ColorFromHex("16a34a").WithAlpha(24),
		},
		XValues: make([]time.Time, len(points)),
		YValues: make([]float64, len(points)),
	}
	for i, p := range points {
		series.XValues[i] = p.Time()
		series.YValues[i] = p.Equity
	}

	graph := chart.Chart{
		Title:  "Account Equity",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("15:04:05")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return common.FormatCompact(f, currency)
				}
				return ""
			},
		},
		Series: []chart.Series{series},
	}

	// go-chart rejects zero-width ranges; pad flat series
	if r, ok := flatRange(series.YValues, max(1, math.Abs(series.YValues[0])*0.01)); ok {
		graph.YAxis.Range = r
	}
	xs := make([]float64, len(series.XValues))
	for i, t := range series.XValues {
		xs[i] = chart.TimeToFloat64(t)
	}
	if r, ok := flatRange(xs, float64(time.Second)); ok {
		graph.XAxis.Range = r
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}

// flatRange returns a padded range when all values are equal
func flatRange(values []float64, pad float64) (*chart.ContinuousRange, bool) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi > lo {
		return nil, false
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}, true
}
