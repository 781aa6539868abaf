package montecarlo

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/optstats/internal/model"
	"github.com/wonny/optstats/internal/stats"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fixturePortfolio builds n closed trades with alternating P/L, one per day.
func fixturePortfolio(n int) *model.Portfolio {
	trades := make([]model.Trade, 0, n)
	for i := 0; i < n; i++ {
		pl := 400.0
		if i%3 == 0 {
			pl = -650.0
		}
		d := date(2025, 1, 2).AddDate(0, 0, i)
		trades = append(trades, model.Trade{
			DateOpened: d, DateClosed: d, PL: pl, FundsAtClose: 100_000,
		})
	}
	return model.NewPortfolio(trades)
}

func testConfig(seed int64) Config {
	cfg := DefaultConfig()
	cfg.NumSimulations = 200
	cfg.DaysForward = 60
	cfg.Seed = seed
	return cfg
}

func TestSimulate_FixedSeedIsReproducible(t *testing.T) {
	p := fixturePortfolio(20)

	s1, err := NewSimulator(testConfig(42), nil)
	require.NoError(t, err)
	s2, err := NewSimulator(testConfig(42), nil)
	require.NoError(t, err)

	r1, err := s1.Simulate(p, 100_000)
	require.NoError(t, err)
	r2, err := s2.Simulate(p, 100_000)
	require.NoError(t, err)

	// Identical seed and inputs → identical paths, run metadata aside.
	require.Equal(t, len(r1.Paths), len(r2.Paths))
	assert.Equal(t, r1.Paths, r2.Paths)
	assert.Equal(t, r1.FinalReturns, r2.FinalReturns)
	assert.Equal(t, r1.Percentiles, r2.Percentiles)
	assert.NotEqual(t, r1.RunID, r2.RunID, "run IDs must stay unique")
}

func TestSimulate_DifferentSeedsDiverge(t *testing.T) {
	p := fixturePortfolio(20)

	s1, _ := NewSimulator(testConfig(1), nil)
	s2, _ := NewSimulator(testConfig(2), nil)

	r1, err := s1.Simulate(p, 100_000)
	require.NoError(t, err)
	r2, err := s2.Simulate(p, 100_000)
	require.NoError(t, err)

	assert.NotEqual(t, r1.FinalReturns, r2.FinalReturns)
}

func TestSimulate_InsufficientTrades(t *testing.T) {
	p := fixturePortfolio(MinTrades - 1)

	s, _ := NewSimulator(testConfig(42), nil)
	_, err := s.Simulate(p, 100_000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData), "want ErrInsufficientData, got %v", err)
}

func TestSimulate_VaR95MatchesFifthPercentile(t *testing.T) {
	p := fixturePortfolio(30)

	s, _ := NewSimulator(testConfig(7), nil)
	r, err := s.Simulate(p, 100_000)
	require.NoError(t, err)

	p5 := stats.PercentileOf(r.FinalReturns, 5)
	if p5 < 0 {
		assert.InDelta(t, -p5, r.VaR95, 1e-12, "VaR-95 must be the loss-positive 5th percentile")
	} else {
		assert.Equal(t, 0.0, r.VaR95)
	}
}

func TestSimulate_ResultShape(t *testing.T) {
	p := fixturePortfolio(25)

	cfg := testConfig(99)
	s, _ := NewSimulator(cfg, nil)
	r, err := s.Simulate(p, 100_000)
	require.NoError(t, err)

	assert.Len(t, r.Paths, cfg.NumSimulations)
	assert.Len(t, r.Paths[0], cfg.DaysForward)
	assert.Len(t, r.FinalReturns, cfg.NumSimulations)
	assert.Len(t, r.Percentiles, len(cfg.Percentiles))
	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, 25, r.InputSampleCount)

	// Percentiles are monotonically non-decreasing
	assert.LessOrEqual(t, r.Percentiles[5], r.Percentiles[50])
	assert.LessOrEqual(t, r.Percentiles[50], r.Percentiles[95])

	// Ruin probability is a probability
	assert.GreaterOrEqual(t, r.RuinProbability, 0.0)
	assert.LessOrEqual(t, r.RuinProbability, 1.0)
	assert.GreaterOrEqual(t, r.MaxDrawdownP95, r.MaxDrawdownP50)
}

func TestSimulate_DailyBootstrap(t *testing.T) {
	p := fixturePortfolio(15)

	cfg := testConfig(5)
	cfg.Method = MethodDailyBootstrap
	s, err := NewSimulator(cfg, nil)
	require.NoError(t, err)

	r, err := s.Simulate(p, 100_000)
	require.NoError(t, err)
	assert.Equal(t, 15, r.InputSampleCount, "one return per trading day")
}

func TestSimulate_ParametricNormal(t *testing.T) {
	p := fixturePortfolio(15)

	cfg := testConfig(5)
	cfg.Method = MethodParametricNormal
	s, err := NewSimulator(cfg, nil)
	require.NoError(t, err)

	r, err := s.Simulate(p, 100_000)
	require.NoError(t, err)
	assert.Len(t, r.Paths, cfg.NumSimulations)
}

func TestHistoricalDailyReturns_CollapsesSameDay(t *testing.T) {
	// Two closes on the same day are one observation against the same
	// capital base.
	d := date(2025, 1, 6)
	p := model.NewPortfolio([]model.Trade{
		{DateOpened: d, DateClosed: d, PL: 500},
		{DateOpened: d, DateClosed: d, PL: 2000},
		{DateOpened: d, DateClosed: d.AddDate(0, 0, 1), PL: -1000},
	})

	returns := HistoricalDailyReturns(p, 100_000)
	require.Len(t, returns, 2)

	assert.InDelta(t, 2500.0/100_000, returns[0], 1e-12)
	// Second day compounds on the updated capital
	assert.InDelta(t, -1000.0/102_500, returns[1], 1e-12)
}

func TestSimulate_ParametricTail(t *testing.T) {
	p := fixturePortfolio(30)

	s, _ := NewSimulator(testConfig(11), nil)
	r, err := s.Simulate(p, 100_000)
	require.NoError(t, err)

	// NormInv(0.95) = 1.645; the fields follow the normal fit of the
	// final returns, loss positive with the same clamp as VaR95.
	wantVaR := -(r.MeanFinalReturn - 1.645*r.StdFinalReturn)
	if wantVaR > 0 {
		assert.InDelta(t, wantVaR, r.ParametricVaR, 1e-12)
	} else {
		assert.Equal(t, 0.0, r.ParametricVaR)
	}

	if r.ParametricVaR > 0 {
		assert.Greater(t, r.ParametricCVaR, r.ParametricVaR,
			"expected shortfall exceeds VaR at the same confidence")
	}
}

func TestNewSimulator_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero simulations", func(c *Config) { c.NumSimulations = 0 }},
		{"zero days", func(c *Config) { c.DaysForward = 0 }},
		{"empty percentiles", func(c *Config) { c.Percentiles = nil }},
		{"percentile out of range", func(c *Config) { c.Percentiles = []float64{100} }},
		{"confidence out of range", func(c *Config) { c.ConfidenceLevel = 1.5 }},
		{"unknown method", func(c *Config) { c.Method = "quantum" }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := DefaultConfig()
			c.mutate(&cfg)
			_, err := NewSimulator(cfg, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestSimulate_RejectsNonPositiveCapital(t *testing.T) {
	s, _ := NewSimulator(testConfig(1), nil)
	_, err := s.Simulate(fixturePortfolio(20), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestPathMaxDrawdown(t *testing.T) {
	// Equity 1.0 → 1.2 (peak) → 0.9 → 1.1: max drawdown (1.2-0.9)/1.2
	path := []float64{0.2, -0.1, 0.1}
	got := pathMaxDrawdown(path)
	want := (1.2 - 0.9) / 1.2
	assert.InDelta(t, want, got, 1e-12)

	assert.Equal(t, 0.0, pathMaxDrawdown([]float64{0.1, 0.2, 0.3}))
}

func TestExpectedShortfall(t *testing.T) {
	// 20 sorted finals: bottom 5% = worst single observation
	sorted := make([]float64, 20)
	for i := range sorted {
		sorted[i] = -0.5 + float64(i)*0.05
	}
	es := expectedShortfall(sorted)
	assert.InDelta(t, 0.5, es, 1e-12)

	// All-positive tail → 0
	assert.Equal(t, 0.0, expectedShortfall([]float64{0.1, 0.2, 0.3}))
	assert.False(t, math.IsNaN(expectedShortfall(nil)))
}
