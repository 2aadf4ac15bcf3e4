package equity

import (
	"math/rand"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/dhandash/internal/common"
	"github.com/bobmcallan/dhandash/internal/models"
)

// fakeClock is a manually advanced clock
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSeries(clock *fakeClock, opts ...SeriesOption) *Series {
	return NewSeries(append([]SeriesOption{WithClock(clock.Now), WithRand(rand.New(rand.NewSource(1)))}, opts...)...)
}

func TestSeries_FirstObservationSeedsOnePoint(t *testing.T) {
	clock := newFakeClock()
	s := newTestSeries(clock)

	obs := s.Observe(1000)

	assert.Equal(t, Observation{Appended: true, Seeded: true, Len: 1}, obs)
	assert.Equal(t, []models.EquityPoint{{T: clock.Now().UnixMilli(), Equity: 1000}}, s.Read())
}

func TestSeries_ThrottleDropsSmallFastMoves(t *testing.T) {
	clock := newFakeClock()
	s := newTestSeries(clock)
	s.Observe(1000)

	clock.Advance(4999 * time.Millisecond)
	obs := s.Observe(1000.5)

	assert.False(t, obs.Appended)
	assert.Equal(t, 1, s.Len())
}

func TestSeries_LargeMoveAppendsImmediately(t *testing.T) {
	clock := newFakeClock()
	s := newTestSeries(clock)
	s.Observe(1000)

	clock.Advance(10 * time.Millisecond)
	obs := s.Observe(1001.5)

	assert.True(t, obs.Appended)
	assert.Equal(t, 2, s.Len())

	clock.Advance(10 * time.Millisecond)
	assert.True(t, s.Observe(990).Appended, "drops count as moves too")
}

func TestSeries_StalePointAlwaysAppends(t *testing.T) {
	clock := newFakeClock()
	s := newTestSeries(clock)
	s.Observe(1000)

	clock.Advance(5 * time.Second)
	obs := s.Observe(1000)

	assert.True(t, obs.Appended)
	pts := s.Read()
	require.Len(t, pts, 2)
	assert.Equal(t, int64(5000), pts[1].T-pts[0].T)
}

func TestSeries_ZeroEquityBaseline(t *testing.T) {
	clock := newFakeClock()
	s := newTestSeries(clock)
	s.Observe(0)

	clock.Advance(time.Millisecond)
	assert.False(t, s.Observe(0).Appended)
	assert.True(t, s.Observe(0.01).Appended)
}

func TestSeries_EvictsOldestAtCapacity(t *testing.T) {
	clock := newFakeClock()
	s := newTestSeries(clock, WithCapacity(3))

	for i := 0; i < 3; i++ {
		obs := s.Observe(float64(100 + i))
		assert.False(t, obs.Evicted)
		clock.Advance(5 * time.Second)
	}

	obs := s.Observe(200)
	assert.True(t, obs.Evicted)
	assert.Equal(t, 3, obs.Len)

	pts := s.Read()
	assert.Equal(t, []float64{101, 102, 200}, []float64{pts[0].Equity, pts[1].Equity, pts[2].Equity})
}

func TestSeries_ReadReturnsCopy(t *testing.T) {
	clock := newFakeClock()
	s := newTestSeries(clock)
	s.Observe(1000)

	pts := s.Read()
	pts[0].Equity = -1

	assert.Equal(t, 1000.0, s.Read()[0].Equity)
}

func TestSeries_BackwardsClockIsClamped(t *testing.T) {
	clock := newFakeClock()
	s := newTestSeries(clock)
	s.Observe(1000)
	first := clock.Now().UnixMilli()

	clock.Advance(-time.Minute)
	assert.True(t, s.Observe(2000).Appended)

	assert.False(t, s.Append(models.EquityPoint{T: 0, Equity: 3000}))
	for _, p := range s.Read() {
		assert.Equal(t, first, p.T)
	}
}

func TestSeries_SyntheticSeed(t *testing.T) {
	clock := newFakeClock()
	s := newTestSeries(clock, WithSyntheticSeed(60))

	obs := s.Observe(18426.2)
	assert.True(t, obs.Seeded)
	assert.Equal(t, 60, obs.Len)

	pts := s.Read()
	require.Len(t, pts, 60)
	assert.Equal(t, clock.Now().UnixMilli(), pts[59].T)
	assert.Equal(t, 18426.2, pts[59].Equity)
	for i := 1; i < len(pts); i++ {
		assert.Equal(t, int64(1000), pts[i].T-pts[i-1].T, "point %d", i)
		assert.InDelta(t, 18426.2, pts[i-1].Equity, 18426.2*0.05)
	}
}

func TestSeries_SyntheticSeedRespectsCapacity(t *testing.T) {
	clock := newFakeClock()
	s := newTestSeries(clock, WithSyntheticSeed(60), WithCapacity(10))

	s.Observe(500)

	pts := s.Read()
	require.Len(t, pts, 10)
	assert.Equal(t, clock.Now().UnixMilli(), pts[9].T)
}

func TestNewSeriesFromConfig(t *testing.T) {
	cfg := common.NewDefaultConfig().Equity
	cfg.Capacity = 42
	cfg.MinInterval = "1s"
	cfg.SeedMode = common.SeedModeSynthetic
	cfg.SyntheticPoints = 5

	clock := newFakeClock()
	s := NewSeriesFromConfig(cfg, WithClock(clock.Now))

	assert.Equal(t, 42, s.capacity)
	assert.Equal(t, time.Second, s.minInterval)
	assert.Equal(t, 0.001, s.threshold)
	assert.True(t, s.synthetic)
	assert.Equal(t, 5, s.Observe(1).Len)
}

func TestSeries_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	type step struct {
		dt     int64
		equity float64
	}
	stepGen := gopter.CombineGens(
		gen.Int64Range(-2000, 8000),
		gen.Float64Range(0, 2e5),
	).Map(func(v []any) step {
		return step{dt: v[0].(int64), equity: v[1].(float64)}
	})

	run := func(capacity int, synthetic bool, steps []step) []models.EquityPoint {
		clock := newFakeClock()
		opts := []SeriesOption{WithCapacity(capacity)}
		if synthetic {
			opts = append(opts, WithSyntheticSeed(60))
		}
		s := newTestSeries(clock, opts...)
		for _, st := range steps {
			clock.Advance(time.Duration(st.dt) * time.Millisecond)
			s.Observe(st.equity)
		}
		return s.Read()
	}

	properties.Property("timestamps never decrease", prop.ForAll(
		func(capacity int, synthetic bool, steps []step) bool {
			pts := run(capacity, synthetic, steps)
			for i := 1; i < len(pts); i++ {
				if pts[i].T < pts[i-1].T {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 80), gen.Bool(), gen.SliceOf(stepGen),
	))

	properties.Property("length never exceeds capacity", prop.ForAll(
		func(capacity int, synthetic bool, steps []step) bool {
			return len(run(capacity, synthetic, steps)) <= capacity
		},
		gen.IntRange(1, 80), gen.Bool(), gen.SliceOf(stepGen),
	))

	properties.Property("quiet observations within the interval are dropped", prop.ForAll(
		func(base float64, dt int64, frac float64) bool {
			clock := newFakeClock()
			s := newTestSeries(clock)
			s.Observe(base)
			clock.Advance(time.Duration(dt) * time.Millisecond)
			obs := s.Observe(base * (1 + frac))
			return !obs.Appended && s.Len() == 1
		},
		gen.Float64Range(1, 1e6), gen.Int64Range(0, 4999), gen.Float64Range(-0.0009, 0.0009),
	))

	properties.Property("stale observations are always appended", prop.ForAll(
		func(base, next float64, dt int64) bool {
			clock := newFakeClock()
			s := newTestSeries(clock)
			s.Observe(base)
			clock.Advance(time.Duration(dt) * time.Millisecond)
			return s.Observe(next).Appended && s.Len() == 2
		},
		gen.Float64Range(0, 1e6), gen.Float64Range(0, 1e6), gen.Int64Range(5000, 1e7),
	))

	properties.TestingRun(t)
}
