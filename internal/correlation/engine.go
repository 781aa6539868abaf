package correlation

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/optstats/internal/model"
	"github.com/wonny/optstats/internal/stats"
)

// Method selects the correlation coefficient.
type Method string

const (
	MethodPearson  Method = "pearson"
	MethodSpearman Method = "spearman"
	MethodKendall  Method = "kendall"
)

// ErrInvalidConfig invalid engine configuration.
var ErrInvalidConfig = errors.New("invalid correlation configuration")

// Config holds correlation engine settings.
type Config struct {
	Method Method `json:"method"`
	// MinTradingDays excludes strategies observed on fewer distinct
	// dates than this. Thin strategies produce unstable coefficients.
	MinTradingDays int `json:"min_trading_days"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{Method: MethodPearson, MinTradingDays: 10}
}

// Matrix is a symmetric strategy × strategy correlation matrix with a
// fixed, sorted strategy order so output is deterministic.
type Matrix struct {
	Strategies []string    `json:"strategies"`
	Values     [][]float64 `json:"values"`
	Method     Method      `json:"method"`
	// Excluded lists strategies dropped for insufficient trading days.
	Excluded []string `json:"excluded,omitempty"`
}

// At returns the coefficient for a strategy pair, ok=false when either
// strategy is not part of the matrix.
func (m *Matrix) At(a, b string) (float64, bool) {
	ai, bi := -1, -1
	for i, s := range m.Strategies {
		if s == a {
			ai = i
		}
		if s == b {
			bi = i
		}
	}
	if ai < 0 || bi < 0 {
		return 0, false
	}
	return m.Values[ai][bi], true
}

// Engine computes strategy correlation matrices from per-strategy daily
// P/L series. Stateless; safe for concurrent use.
type Engine struct {
	config Config
}

// NewEngine validates the config and creates an engine.
func NewEngine(config Config) (*Engine, error) {
	switch config.Method {
	case MethodPearson, MethodSpearman, MethodKendall:
	default:
		return nil, fmt.Errorf("%w: unknown method %q", ErrInvalidConfig, config.Method)
	}
	if config.MinTradingDays < 2 {
		return nil, fmt.Errorf("%w: min_trading_days must be >= 2", ErrInvalidConfig)
	}
	return &Engine{config: config}, nil
}

// Compute builds the matrix. Trades are grouped by strategy then calendar
// date with same-day P/L summed; the date axis is the union of all
// qualifying strategies' dates and missing days carry 0.0 P/L (a day a
// strategy did not trade is a flat day, not a gap to interpolate).
// Fewer than two qualifying strategies yields an empty matrix.
func (e *Engine) Compute(portfolio *model.Portfolio) Matrix {
	daily := groupDailyPL(portfolio)

	var qualifying, excluded []string
	for strategy, series := range daily {
		if len(series) >= e.config.MinTradingDays {
			qualifying = append(qualifying, strategy)
		} else {
			excluded = append(excluded, strategy)
		}
	}
	sort.Strings(qualifying)
	sort.Strings(excluded)

	m := Matrix{Strategies: qualifying, Method: e.config.Method, Excluded: excluded}
	if len(qualifying) < 2 {
		return m
	}

	axis := dateAxis(daily, qualifying)
	aligned := make([][]float64, len(qualifying))
	for i, strategy := range qualifying {
		aligned[i] = alignSeries(daily[strategy], axis)
	}

	m.Values = make([][]float64, len(qualifying))
	for i := range qualifying {
		m.Values[i] = make([]float64, len(qualifying))
		m.Values[i][i] = 1.0
	}
	for i := 0; i < len(qualifying); i++ {
		for j := i + 1; j < len(qualifying); j++ {
			c := e.correlate(aligned[i], aligned[j])
			m.Values[i][j] = c
			m.Values[j][i] = c
		}
	}

	return m
}

func (e *Engine) correlate(x, y []float64) float64 {
	switch e.config.Method {
	case MethodSpearman:
		return pearson(stats.Ranks(x), stats.Ranks(y))
	case MethodKendall:
		return kendallTau(x, y)
	default:
		return pearson(x, y)
	}
}

// groupDailyPL maps strategy → date(midnight UTC key) → summed P/L.
func groupDailyPL(portfolio *model.Portfolio) map[string]map[time.Time]float64 {
	out := make(map[string]map[time.Time]float64)
	for _, t := range portfolio.Trades() {
		if t.Strategy == "" || !t.IsClosed() {
			continue
		}
		d := dateKey(t.DateClosed)
		if out[t.Strategy] == nil {
			out[t.Strategy] = make(map[time.Time]float64)
		}
		out[t.Strategy][d] += t.PL
	}
	return out
}

func dateAxis(daily map[string]map[time.Time]float64, strategies []string) []time.Time {
	seen := make(map[time.Time]bool)
	var axis []time.Time
	for _, s := range strategies {
		for d := range daily[s] {
			if !seen[d] {
				seen[d] = true
				axis = append(axis, d)
			}
		}
	}
	sort.Slice(axis, func(i, j int) bool { return axis[i].Before(axis[j]) })
	return axis
}

func alignSeries(series map[time.Time]float64, axis []time.Time) []float64 {
	out := make([]float64, len(axis))
	for i, d := range axis {
		out[i] = series[d] // zero fill for missing days
	}
	return out
}

func dateKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// pearson computes the Pearson coefficient; zero-variance input → 0.
func pearson(x, y []float64) float64 {
	n := len(x)
	if n != len(y) || n < 2 {
		return 0
	}
	mx, my := stats.Mean(x), stats.Mean(y)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		dy := y[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	return sxy / math.Sqrt(sxx*syy)
}

// kendallTau computes tau-b, adjusting the denominator for ties.
func kendallTau(x, y []float64) float64 {
	n := len(x)
	if n != len(y) || n < 2 {
		return 0
	}
	var concordant, discordant, tiesX, tiesY float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := x[i] - x[j]
			dy := y[i] - y[j]
			switch {
			case dx == 0 && dy == 0:
				// joint tie, counted in neither
			case dx == 0:
				tiesX++
			case dy == 0:
				tiesY++
			case dx*dy > 0:
				concordant++
			default:
				discordant++
			}
		}
	}
	denom := math.Sqrt((concordant + discordant + tiesX) * (concordant + discordant + tiesY))
	if denom == 0 {
		return 0
	}
	return (concordant - discordant) / denom
}
