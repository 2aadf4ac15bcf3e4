// Package equity maintains the sampled equity time series
package equity

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/bobmcallan/dhandash/internal/common"
	"github.com/bobmcallan/dhandash/internal/models"
)

// Defaults for a series built without options
const (
	DefaultCapacity        = 600
	DefaultMinInterval     = 5 * time.Second
	DefaultChangeThreshold = 0.001
	DefaultSyntheticPoints = 60

	syntheticSpacing = time.Second
	syntheticStep    = 0.0005 // max relative move per synthetic tick
)

// Observation is the outcome of offering one equity value to the series
type Observation struct {
	Appended bool
	Evicted  bool
	Seeded   bool
	Len      int
}

// Series is a bounded, time-ordered buffer of equity points. Appends are
// throttled: a point is stored only when equity moved by more than the
// change threshold or the last point is at least minInterval old. Once full,
// each append evicts the oldest point. Safe for concurrent use.
type Series struct {
	mu     sync.Mutex
	points []models.EquityPoint

	capacity        int
	minInterval     time.Duration
	threshold       float64
	synthetic       bool
	syntheticPoints int

	now  func() time.Time
	rand *rand.Rand
}

// SeriesOption configures a Series
type SeriesOption func(*Series)

// WithCapacity bounds the series length
func WithCapacity(n int) SeriesOption {
	return func(s *Series) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithMinInterval sets the age after which a point is always appended
func WithMinInterval(d time.Duration) SeriesOption {
	return func(s *Series) {
		if d > 0 {
			s.minInterval = d
		}
	}
}

// WithChangeThreshold sets the relative move that forces an append
func WithChangeThreshold(f float64) SeriesOption {
	return func(s *Series) {
		if f > 0 {
			s.threshold = f
		}
	}
}

// WithSyntheticSeed backfills n demo points on the first observation
func WithSyntheticSeed(n int) SeriesOption {
	return func(s *Series) {
		if n > 0 {
			s.synthetic = true
			s.syntheticPoints = n
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) SeriesOption {
	return func(s *Series) {
		s.now = now
	}
}

// WithRand sets the random source used for synthetic seeding
func WithRand(r *rand.Rand) SeriesOption {
	return func(s *Series) {
		s.rand = r
	}
}

// NewSeries creates an empty series
func NewSeries(opts ...SeriesOption) *Series {
	s := &Series{
		capacity:        DefaultCapacity,
		minInterval:     DefaultMinInterval,
		threshold:       DefaultChangeThreshold,
		syntheticPoints: DefaultSyntheticPoints,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rand == nil {
		s.rand = rand.New(rand.NewSource(s.now().UnixNano()))
	}
	return s
}

// NewSeriesFromConfig creates a series from the [equity] config section
func NewSeriesFromConfig(cfg common.EquityConfig, opts ...SeriesOption) *Series {
	base := []SeriesOption{
		WithCapacity(cfg.Capacity),
		WithMinInterval(cfg.GetMinInterval()),
		WithChangeThreshold(cfg.ChangeThreshold),
	}
	if cfg.SeedMode == common.SeedModeSynthetic {
		base = append(base, WithSyntheticSeed(cfg.SyntheticPoints))
	}
	return NewSeries(append(base, opts...)...)
}

// Observe offers equity observed now. The first observation seeds the
// series; later ones pass through the sampling throttle.
func (s *Series) Observe(equity float64) Observation {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now().UnixMilli()

	if len(s.points) == 0 {
		s.seed(t, equity)
		return Observation{Appended: true, Seeded: true, Len: len(s.points)}
	}

	last := s.points[len(s.points)-1]
	if t < last.T {
		t = last.T
	}

	moved := math.Abs(equity-last.Equity) > s.threshold*math.Abs(last.Equity)
	stale := t-last.T >= s.minInterval.Milliseconds()
	if !moved && !stale {
		return Observation{Len: len(s.points)}
	}

	evicted := s.appendLocked(models.EquityPoint{T: t, Equity: equity})
	return Observation{Appended: true, Evicted: evicted, Len: len(s.points)}
}

// Append stores p unconditionally, bypassing the throttle. A timestamp
// earlier than the last point is clamped to it. Reports whether the oldest
// point was evicted.
func (s *Series) Append(p models.EquityPoint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.points); n > 0 && p.T < s.points[n-1].T {
		p.T = s.points[n-1].T
	}
	return s.appendLocked(p)
}

// Read returns a copy of the series, oldest first
func (s *Series) Read() []models.EquityPoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.EquityPoint, len(s.points))
	copy(out, s.points)
	return out
}

// Len returns the number of stored points
func (s *Series) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points)
}

func (s *Series) appendLocked(p models.EquityPoint) bool {
	s.points = append(s.points, p)
	if len(s.points) <= s.capacity {
		return false
	}
	copy(s.points, s.points[1:])
	s.points = s.points[:len(s.points)-1]
	return true
}

// seed writes the first point(s). In synthetic mode it backfills a random
// walk at 1s spacing whose final point is exactly {t, equity}.
func (s *Series) seed(t int64, equity float64) {
	if !s.synthetic {
		s.points = append(s.points, models.EquityPoint{T: t, Equity: equity})
		return
	}

	n := s.syntheticPoints
	walk := make([]float64, n)
	for i := 1; i < n; i++ {
		walk[i] = walk[i-1] + (s.rand.Float64()*2-1)*syntheticStep
	}

	spacing := syntheticSpacing.Milliseconds()
	for i := 0; i < n; i++ {
		pt := models.EquityPoint{
			T:      t - int64(n-1-i)*spacing,
			Equity: equity * (1 + walk[i] - walk[n-1]),
		}
		if i == n-1 {
			pt.Equity = equity
		}
		s.appendLocked(pt)
	}
}
