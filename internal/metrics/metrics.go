// Package metrics holds the Prometheus instrumentation for dhandash.
//
// Each Metrics value owns its own registry so tests can build as many as
// they like without colliding on the global default registerer. All methods
// are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Broker request outcomes
const (
	OutcomeOK           = "ok"
	OutcomeHTTPError    = "http_error"
	OutcomeNetworkError = "network_error"
	OutcomeParseError   = "parse_error"
	OutcomeEmpty        = "empty"
)

// Metrics holds all Prometheus metrics for the dashboard.
type Metrics struct {
	registry *prometheus.Registry

	BrokerRequests  *prometheus.CounterVec // labels: kind, outcome
	QuoteMisses     prometheus.Counter
	Snapshots       *prometheus.CounterVec // labels: source
	SnapshotEquity  prometheus.Gauge
	EquityPoints    prometheus.Gauge
	EquityAppends   prometheus.Counter
	EquityDropped   prometheus.Counter
	EquityEvictions prometheus.Counter
	HTTPRequestDur  *prometheus.HistogramVec // labels: path, status
}

// NewMetrics registers and returns all metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BrokerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dhandash_broker_requests_total",
			Help: "Outbound broker requests by endpoint kind and outcome",
		}, []string{"kind", "outcome"}),
		QuoteMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dhandash_quote_misses_total",
			Help: "Symbols for which no endpoint returned a usable price",
		}),
		Snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dhandash_snapshots_total",
			Help: "Portfolio snapshots assembled, by data source",
		}, []string{"source"}),
		SnapshotEquity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dhandash_snapshot_equity",
			Help: "Equity of the most recent snapshot",
		}),
		EquityPoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dhandash_equity_series_points",
			Help: "Current length of the equity series",
		}),
		EquityAppends: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dhandash_equity_appends_total",
			Help: "Observations admitted into the equity series",
		}),
		EquityDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dhandash_equity_dropped_total",
			Help: "Observations rejected by the sampling throttle",
		}),
		EquityEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dhandash_equity_evictions_total",
			Help: "Oldest points evicted because the series was at capacity",
		}),
		HTTPRequestDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dhandash_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.BrokerRequests,
		m.QuoteMisses,
		m.Snapshots,
		m.SnapshotEquity,
		m.EquityPoints,
		m.EquityAppends,
		m.EquityDropped,
		m.EquityEvictions,
		m.HTTPRequestDur,
	)

	return m
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) BrokerRequest(kind, outcome string) {
	if m == nil {
		return
	}
	m.BrokerRequests.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) QuoteMiss() {
	if m == nil {
		return
	}
	m.QuoteMisses.Inc()
}

func (m *Metrics) Snapshot(source string, equity float64) {
	if m == nil {
		return
	}
	m.Snapshots.WithLabelValues(source).Inc()
	m.SnapshotEquity.Set(equity)
}

// EquityObserved records the throttle decision and the resulting series length.
func (m *Metrics) EquityObserved(appended, evicted bool, length int) {
	if m == nil {
		return
	}
	if appended {
		m.EquityAppends.Inc()
	} else {
		m.EquityDropped.Inc()
	}
	if evicted {
		m.EquityEvictions.Inc()
	}
	m.EquityPoints.Set(float64(length))
}

func (m *Metrics) HTTPRequest(path, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDur.WithLabelValues(path, status).Observe(dur.Seconds())
}
