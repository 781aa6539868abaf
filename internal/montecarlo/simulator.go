package montecarlo

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/optstats/internal/model"
	"github.com/wonny/optstats/internal/stats"
	"github.com/wonny/optstats/pkg/logger"
)

var (
	ErrInsufficientData = errors.New("insufficient data for simulation")
	ErrInvalidConfig    = errors.New("invalid simulation configuration")
)

// Simulator resamples historical trades into forward equity-path
// distributions. The *rand.Rand is constructed locally per simulator so
// concurrent simulations never share generator state.
type Simulator struct {
	config Config
	rng    *rand.Rand
	logger *logger.Logger
}

// NewSimulator 새 시뮬레이터 생성
// Seed 0 falls back to a time-based seed; any other value makes runs
// with identical inputs byte-identical.
func NewSimulator(config Config, log *logger.Logger) (*Simulator, error) {
	if err := validate(config); err != nil {
		return nil, err
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Simulator{
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
		logger: log,
	}, nil
}

func validate(config Config) error {
	if config.NumSimulations <= 0 {
		return fmt.Errorf("%w: num_simulations must be > 0", ErrInvalidConfig)
	}
	if config.DaysForward <= 0 {
		return fmt.Errorf("%w: days_forward must be > 0", ErrInvalidConfig)
	}
	if len(config.Percentiles) == 0 {
		return fmt.Errorf("%w: percentiles cannot be empty", ErrInvalidConfig)
	}
	for _, p := range config.Percentiles {
		if p <= 0 || p >= 100 {
			return fmt.Errorf("%w: percentile %v out of range (0,100)", ErrInvalidConfig, p)
		}
	}
	if config.ConfidenceLevel <= 0 || config.ConfidenceLevel >= 1 {
		return fmt.Errorf("%w: confidence_level must be in (0,1)", ErrInvalidConfig)
	}
	switch config.Method {
	case MethodTradeBootstrap, MethodDailyBootstrap, MethodParametricNormal:
	default:
		return fmt.Errorf("%w: unknown method %q", ErrInvalidConfig, config.Method)
	}
	return nil
}

// Simulate runs the configured number of independent paths.
// startingCapital is the denominator for converting sampled P/L into
// returns; it must be positive.
func (s *Simulator) Simulate(portfolio *model.Portfolio, startingCapital float64) (*Result, error) {
	if startingCapital <= 0 {
		return nil, fmt.Errorf("%w: starting capital must be > 0", ErrInvalidConfig)
	}

	var (
		paths [][]float64
		n     int
		err   error
	)

	switch s.config.Method {
	case MethodTradeBootstrap:
		paths, n, err = s.tradeBootstrap(portfolio, startingCapital)
	case MethodDailyBootstrap:
		paths, n, err = s.dailyBootstrap(portfolio, startingCapital)
	case MethodParametricNormal:
		if s.logger != nil {
			s.logger.Warn("Parametric simulation discards tail shape; use bootstrap for decisions")
		}
		paths, n, err = s.parametric(portfolio, startingCapital)
	}
	if err != nil {
		return nil, err
	}

	result := s.summarize(paths)
	result.InputSampleCount = n

	if s.logger != nil {
		s.logger.WithFields(map[string]interface{}{
			"method":      string(s.config.Method),
			"simulations": s.config.NumSimulations,
			"days":        s.config.DaysForward,
			"samples":     n,
			"var_95":      result.VaR95,
		}).Info("Monte Carlo simulation complete")
	}

	return result, nil
}

// tradeBootstrap samples individual historical trade P/L with
// replacement, one per forward day. Each sampled P/L is converted to a
// return against the running capital before being compounded in.
func (s *Simulator) tradeBootstrap(portfolio *model.Portfolio, startingCapital float64) ([][]float64, int, error) {
	pls := tradePLs(portfolio)
	if len(pls) < MinTrades {
		return nil, 0, fmt.Errorf("%w: got %d trades, need %d", ErrInsufficientData, len(pls), MinTrades)
	}

	paths := make([][]float64, s.config.NumSimulations)
	for i := range paths {
		path := make([]float64, s.config.DaysForward)
		capital := startingCapital
		cum := 0.0
		for d := 0; d < s.config.DaysForward; d++ {
			pl := pls[s.rng.Intn(len(pls))]
			if capital > 0 {
				cum += pl / capital
			}
			capital += pl
			path[d] = cum
		}
		paths[i] = path
	}
	return paths, len(pls), nil
}

// dailyBootstrap collapses trades into one realized return per historical
// trading day, then samples those returns with replacement.
func (s *Simulator) dailyBootstrap(portfolio *model.Portfolio, startingCapital float64) ([][]float64, int, error) {
	returns := HistoricalDailyReturns(portfolio, startingCapital)
	if len(returns) < MinDailyReturns {
		return nil, 0, fmt.Errorf("%w: got %d daily returns, need %d", ErrInsufficientData, len(returns), MinDailyReturns)
	}

	paths := make([][]float64, s.config.NumSimulations)
	for i := range paths {
		path := make([]float64, s.config.DaysForward)
		cum := 0.0
		for d := 0; d < s.config.DaysForward; d++ {
			cum += returns[s.rng.Intn(len(returns))]
			path[d] = cum
		}
		paths[i] = path
	}
	return paths, len(returns), nil
}

// parametric draws i.i.d. normal returns from the historical daily mean
// and standard deviation. Comparison/testing only.
func (s *Simulator) parametric(portfolio *model.Portfolio, startingCapital float64) ([][]float64, int, error) {
	returns := HistoricalDailyReturns(portfolio, startingCapital)
	if len(returns) < MinDailyReturns {
		return nil, 0, fmt.Errorf("%w: got %d daily returns, need %d", ErrInsufficientData, len(returns), MinDailyReturns)
	}

	mean := stats.Mean(returns)
	sd := stats.StdDev(returns)

	paths := make([][]float64, s.config.NumSimulations)
	for i := range paths {
		path := make([]float64, s.config.DaysForward)
		cum := 0.0
		for d := 0; d < s.config.DaysForward; d++ {
			cum += mean + sd*s.rng.NormFloat64()
			path[d] = cum
		}
		paths[i] = path
	}
	return paths, len(returns), nil
}

func (s *Simulator) summarize(paths [][]float64) *Result {
	finals := make([]float64, len(paths))
	ruined := 0
	maxDDs := make([]float64, len(paths))

	for i, path := range paths {
		finals[i] = path[len(path)-1]
		maxDDs[i] = pathMaxDrawdown(path)
		if s.config.RuinThreshold < 0 && pathBreaches(path, s.config.RuinThreshold) {
			ruined++
		}
	}

	sortedFinals := make([]float64, len(finals))
	copy(sortedFinals, finals)
	sort.Float64s(sortedFinals)

	percentiles := make(map[float64]float64, len(s.config.Percentiles))
	for _, p := range s.config.Percentiles {
		percentiles[p] = stats.Percentile(sortedFinals, p)
	}

	sort.Float64s(maxDDs)

	result := &Result{
		RunID:           uuid.New().String(),
		RunDate:         time.Now(),
		Config:          s.config,
		Paths:           paths,
		FinalReturns:    finals,
		Percentiles:     percentiles,
		MeanFinalReturn: stats.Mean(finals),
		StdFinalReturn:  stats.StdDev(finals),
		RuinProbability: float64(ruined) / float64(len(paths)),
		MaxDrawdownP50:  stats.Percentile(maxDDs, 50),
		MaxDrawdownP95:  stats.Percentile(maxDDs, 95),
	}

	// VaR-95 is the 5th percentile of final returns, loss positive.
	p5 := stats.Percentile(sortedFinals, 5)
	if p5 < 0 {
		result.VaR95 = -p5
	}
	result.CVaR95 = expectedShortfall(sortedFinals)

	// Parametric tail from the normal fit of the finals: VaR at z, CVaR
	// via the closed-form normal expected shortfall φ(z)/(1-c).
	z := stats.NormInv(s.config.ConfidenceLevel)
	alpha := 1 - s.config.ConfidenceLevel
	if v := -(result.MeanFinalReturn - z*result.StdFinalReturn); v > 0 {
		result.ParametricVaR = v
	}
	if v := -(result.MeanFinalReturn - result.StdFinalReturn*stats.NormPDF(z)/alpha); v > 0 {
		result.ParametricCVaR = v
	}

	return result
}

// HistoricalDailyReturns collapses realized P/L into one return per
// historical trading day, compounding the capital base forward as each
// day's P/L is realized. Exported so callers can inspect the sample the
// daily bootstrap draws from.
func HistoricalDailyReturns(portfolio *model.Portfolio, startingCapital float64) []float64 {
	closed := portfolio.SortedByClose()
	if len(closed) == 0 {
		return nil
	}

	var (
		returns []float64
		capital = startingCapital
		dayPL   float64
		current = closed[0].DateClosed
	)

	flush := func() {
		if capital > 0 {
			returns = append(returns, dayPL/capital)
		}
		capital += dayPL
		dayPL = 0
	}

	for _, t := range closed {
		if !sameDate(t.DateClosed, current) {
			flush()
			current = t.DateClosed
		}
		dayPL += t.PL
	}
	flush()

	return returns
}

func tradePLs(portfolio *model.Portfolio) []float64 {
	trades := portfolio.Trades()
	out := make([]float64, 0, len(trades))
	for _, t := range trades {
		if t.IsClosed() {
			out = append(out, t.PL)
		}
	}
	return out
}

func pathMaxDrawdown(path []float64) float64 {
	// Cumulative returns relative to an equity index starting at 1.0.
	peak := 1.0
	var maxDD float64
	for _, cum := range path {
		equity := 1.0 + cum
		if equity > peak {
			peak = equity
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - equity) / peak
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

func pathBreaches(path []float64, threshold float64) bool {
	for _, cum := range path {
		if cum <= threshold {
			return true
		}
	}
	return false
}

// expectedShortfall averages the tail at or below the 5th percentile,
// loss positive (CVaR=0.07 → tail 평균 7% 손실).
func expectedShortfall(sorted []float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	cut := len(sorted) / 20
	if cut == 0 {
		cut = 1
	}
	var sum float64
	for _, v := range sorted[:cut] {
		sum += v
	}
	avg := sum / float64(cut)
	if avg < 0 {
		return -avg
	}
	return 0
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
