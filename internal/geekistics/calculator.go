package geekistics

import (
	"math"

	"github.com/wonny/optstats/internal/model"
	"github.com/wonny/optstats/internal/stats"
	"github.com/wonny/optstats/internal/timeline"
	"github.com/wonny/optstats/pkg/logger"
)

// Engine is the aggregate risk calculator. Pure: every Compute call is a
// function of its inputs only, safe for concurrent use.
// ⭐ SSOT: 집계 리스크 지표 계산은 여기서만
type Engine struct {
	config Config
	logger *logger.Logger
}

// NewEngine creates a calculator with the given config. A nil logger
// disables progress logging.
func NewEngine(config Config, log *logger.Logger) *Engine {
	return &Engine{config: config, logger: log}
}

// Compute builds the full statistics bundle for a trade set.
//
// isFiltered marks a strategy-filtered view. A daily log is only trusted
// for returns and drawdown when the view is unfiltered: the log describes
// the whole account, so a per-strategy drawdown cannot be read from it.
// Filtered views always fall back to trade-derived estimation.
func (e *Engine) Compute(portfolio *model.Portfolio, log *model.DailyLog, isFiltered bool) Statistics {
	var s Statistics

	s.Basic = e.basicStats(portfolio)

	// Resolve the capital base. The log wins only on unfiltered views.
	effectiveLog := log
	if isFiltered {
		effectiveLog = nil
	}
	recon := timeline.Reconstruct(portfolio, effectiveLog)

	s.Capital = e.capitalStats(portfolio, recon)
	s.Drawdown = DrawdownStats{
		MaxDrawdownPct:    recon.MaxDrawdownPct,
		PctDaysInDrawdown: recon.PctDaysInDrawdown,
		Source:            string(recon.Source),
	}

	returns := dailyReturns(recon.Timeline)
	s.Ratios = e.ratioStats(returns, s.Capital.CAGR, recon.MaxDrawdownPct)

	if e.config.DrawdownThreshold > 0 && s.Drawdown.MaxDrawdownPct > e.config.DrawdownThreshold && e.logger != nil {
		e.logger.WithFields(map[string]interface{}{
			"max_drawdown": s.Drawdown.MaxDrawdownPct,
			"threshold":    e.config.DrawdownThreshold,
		}).Warn("Max drawdown exceeds configured threshold")
	}

	s.Streaks = computeStreaks(portfolio)
	s.Periodic = computePeriodic(portfolio)
	s.Kelly = kellyStats(s.Basic)
	s.Margin = marginStats(portfolio)

	if e.logger != nil {
		e.logger.WithFields(map[string]interface{}{
			"trades":       s.Basic.TotalTrades,
			"win_rate":     s.Basic.WinRate,
			"cagr":         s.Capital.CAGR,
			"max_drawdown": s.Drawdown.MaxDrawdownPct,
			"source":       s.Drawdown.Source,
			"filtered":     isFiltered,
		}).Debug("Aggregate statistics computed")
	}

	return s
}

func (e *Engine) basicStats(portfolio *model.Portfolio) BasicStats {
	b := BasicStats{TotalTrades: portfolio.Len()}

	var sumWins, sumLosses float64
	for _, t := range portfolio.Trades() {
		b.TotalPL += t.PL
		b.Commissions += t.Commissions
		b.TotalPremium += math.Abs(t.Premium)

		switch {
		case t.PL > 0:
			b.Wins++
			sumWins += t.PL
			if t.PL > b.MaxWin {
				b.MaxWin = t.PL
			}
		case t.PL < 0:
			b.Losses++
			sumLosses += t.PL
			if t.PL < b.MaxLoss {
				b.MaxLoss = t.PL
			}
		default:
			b.Breakeven++
		}
	}

	if b.TotalTrades > 0 {
		b.WinRate = float64(b.Wins) / float64(b.TotalTrades)
	}
	if b.TotalPremium > 0 {
		b.PremiumCapturePct = b.TotalPL / b.TotalPremium * 100
	}
	if b.Wins > 0 {
		b.AvgWin = sumWins / float64(b.Wins)
	}
	if b.Losses > 0 {
		b.AvgLoss = sumLosses / float64(b.Losses)
	}

	switch {
	case b.Losses == 0 && b.Wins > 0:
		b.ProfitFactor = math.Inf(1)
	case b.Losses > 0:
		b.ProfitFactor = sumWins / math.Abs(sumLosses)
	}

	return b
}

func (e *Engine) capitalStats(portfolio *model.Portfolio, recon timeline.Result) CapitalStats {
	c := CapitalStats{
		InitialCapital: recon.InitialCapital,
		FinalCapital:   recon.FinalCapital,
	}

	// The trade-derived timeline starts at a synthetic anchor one day
	// before the first trade; the year span must only cover real
	// observations, so the trade path measures over the trade dates.
	var spanDays float64
	if recon.Source == timeline.SourceDailyLog && len(recon.Timeline) > 1 {
		first := recon.Timeline[0].Date
		last := recon.Timeline[len(recon.Timeline)-1].Date
		spanDays = last.Sub(first).Hours() / 24
	} else if first, last, ok := portfolio.DateRange(); ok {
		spanDays = last.Sub(first).Hours() / 24
	}
	c.Years = spanDays / 365.25

	c.CAGR = cagr(c.InitialCapital, c.FinalCapital, c.Years)
	return c
}

// cagr returns the compound annual growth rate as a fraction.
// years <= 0 → 0; a non-positive capital ratio → the -100% sentinel.
func cagr(initial, final, years float64) float64 {
	if years <= 0 || initial == 0 {
		return 0
	}
	ratio := final / initial
	if ratio <= 0 {
		return -1.0
	}
	return math.Pow(ratio, 1/years) - 1
}

func (e *Engine) ratioStats(returns []float64, cagrVal, maxDrawdownPct float64) RatioStats {
	var r RatioStats

	// Daily risk-free rate: RiskFreeRate is an annual percentage.
	rfDaily := (e.config.RiskFreeRate / 100) / e.config.AnnualizationFactor

	excess := make([]float64, len(returns))
	for i, ret := range returns {
		excess[i] = ret - rfDaily
	}

	r.Sharpe = sharpe(excess, e.config.AnnualizationFactor)
	r.Sortino = sortino(excess, e.config.AnnualizationFactor)
	r.Calmar = calmar(cagrVal, maxDrawdownPct)
	r.DailyVaR = dailyVaR(returns, e.config.ConfidenceLevel)
	return r
}

// dailyVaR is the parametric one-day VaR: -(mean - z·std) of daily
// returns with z = NormInv(confidence), clamped loss-positive.
func dailyVaR(returns []float64, confidence float64) float64 {
	if len(returns) < 2 || confidence <= 0 || confidence >= 1 {
		return 0
	}
	z := stats.NormInv(confidence)
	if v := -(stats.Mean(returns) - z*stats.StdDev(returns)); v > 0 {
		return v
	}
	return 0
}

func sharpe(excess []float64, annualization float64) float64 {
	if len(excess) < 2 {
		return 0
	}
	sd := stats.StdDev(excess)
	if sd == 0 {
		return 0
	}
	return stats.Mean(excess) / sd * math.Sqrt(annualization)
}

// sortino uses the same numerator as sharpe but only negative excess
// returns in the denominator. No downside at all → +Inf.
func sortino(excess []float64, annualization float64) float64 {
	if len(excess) < 2 {
		return 0
	}
	var downside []float64
	for _, x := range excess {
		if x < 0 {
			downside = append(downside, x)
		}
	}
	if len(downside) == 0 {
		return math.Inf(1)
	}
	sd := stats.StdDev(downside)
	if sd == 0 {
		return math.Inf(1)
	}
	return stats.Mean(excess) / sd * math.Sqrt(annualization)
}

func calmar(cagrVal, maxDrawdownPct float64) float64 {
	if maxDrawdownPct == 0 {
		if cagrVal > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return math.Abs(cagrVal / (maxDrawdownPct / 100))
}

// kellyStats derives the Kelly bet fraction from the win/loss profile:
// kelly = (b*p - q) / b with b = avg_win/|avg_loss|, p = win rate.
func kellyStats(b BasicStats) KellyStats {
	var k KellyStats
	if b.Wins == 0 || b.Losses == 0 || b.AvgLoss == 0 {
		return k
	}
	k.PayoffRatio = b.AvgWin / math.Abs(b.AvgLoss)
	if k.PayoffRatio == 0 {
		return k
	}
	p := b.WinRate
	q := 1 - p
	k.KellyPercent = (k.PayoffRatio*p - q) / k.PayoffRatio * 100
	return k
}

func marginStats(portfolio *model.Portfolio) MarginStats {
	var roms []float64
	for _, t := range portfolio.Trades() {
		if rom, ok := t.ReturnOnMargin(); ok {
			roms = append(roms, rom)
		}
	}

	m := MarginStats{Samples: len(roms)}
	if len(roms) == 0 {
		return m
	}

	m.Mean = stats.Mean(roms)
	m.StdDev = stats.StdDev(roms)
	m.Min = roms[0]
	m.Max = roms[0]
	for _, r := range roms[1:] {
		if r < m.Min {
			m.Min = r
		}
		if r > m.Max {
			m.Max = r
		}
	}
	return m
}

// dailyReturns converts the reconstructed capital curve into simple daily
// returns. Zero-valued predecessors are skipped to avoid division by zero.
func dailyReturns(curve []timeline.CapitalPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Value
		if prev == 0 {
			continue
		}
		out = append(out, (curve[i].Value-prev)/prev)
	}
	return out
}
