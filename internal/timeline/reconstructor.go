package timeline

import (
	"math"
	"time"

	"github.com/wonny/optstats/internal/model"
)

// Source identifies which data path produced the reconstruction.
type Source string

const (
	// SourceDailyLog daily log 기반 (authoritative)
	SourceDailyLog Source = "daily_log"
	// SourceTrades trade snapshot 보간 기반 (fallback)
	SourceTrades Source = "trades"
)

// CapitalPoint is one day on the reconstructed capital curve.
type CapitalPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Result holds the reconstructed capital timeline and drawdown figures.
// Percentages are positive magnitudes (drawdown 12.5% → 12.5).
type Result struct {
	InitialCapital    float64        `json:"initial_capital"`
	FinalCapital      float64        `json:"final_capital"`
	Timeline          []CapitalPoint `json:"timeline"`
	MaxDrawdownPct    float64        `json:"max_drawdown_pct"`
	PctDaysInDrawdown float64        `json:"pct_days_in_drawdown"`
	Source            Source         `json:"source"`
}

// epsilon guards divisions when a peak sits at or near zero.
const epsilon = 1e-9

// Reconstruct builds the daily capital curve for a portfolio.
//
// When a daily log is attached it is authoritative: initial capital is
// first.NetLiquidity - first.DailyPL, the curve is the logged net
// liquidity, and max drawdown is the largest |drawdown_pct| the broker
// reported. This holds even when the trade set is strategy-filtered —
// the full-portfolio starting capital is reused unscaled rather than
// reallocated proportionally (compatibility with the upstream product).
//
// Without a log the close-date funds_at_close snapshots are treated as
// known points, a synthetic point one day before the first trade anchors
// the curve at the inferred initial capital, and days between known
// points are linearly interpolated.
func Reconstruct(portfolio *model.Portfolio, log *model.DailyLog) Result {
	if log.Len() > 0 {
		return fromDailyLog(log)
	}
	return fromTrades(portfolio)
}

func fromDailyLog(log *model.DailyLog) Result {
	entries := log.Entries()
	first := entries[0]
	last := entries[len(entries)-1]

	res := Result{
		InitialCapital: first.NetLiquidity - first.DailyPL,
		FinalCapital:   last.NetLiquidity,
		Source:         SourceDailyLog,
		Timeline:       make([]CapitalPoint, 0, len(entries)),
	}

	for _, e := range entries {
		res.Timeline = append(res.Timeline, CapitalPoint{Date: e.Date, Value: e.NetLiquidity})
		if dd := math.Abs(e.DrawdownPct); dd > res.MaxDrawdownPct {
			res.MaxDrawdownPct = dd
		}
	}

	res.PctDaysInDrawdown = pctBelowPeak(values(res.Timeline))
	return res
}

func fromTrades(portfolio *model.Portfolio) Result {
	res := Result{Source: SourceTrades}
	if portfolio.Len() == 0 {
		return res
	}

	opened := portfolio.SortedByOpen()
	first := opened[0]
	res.InitialCapital = first.FundsAtClose - first.PL

	// Known points: one per close date, last snapshot of the day wins.
	closed := portfolio.SortedByClose()
	if len(closed) == 0 {
		res.FinalCapital = res.InitialCapital
		return res
	}

	known := []CapitalPoint{{
		Date:  day(first.DateOpened).AddDate(0, 0, -1),
		Value: res.InitialCapital,
	}}
	for _, t := range closed {
		d := day(t.DateClosed)
		if last := &known[len(known)-1]; last.Date.Equal(d) {
			last.Value = t.FundsAtClose
			continue
		}
		known = append(known, CapitalPoint{Date: d, Value: t.FundsAtClose})
	}

	res.Timeline = interpolateDaily(known)
	res.FinalCapital = res.Timeline[len(res.Timeline)-1].Value
	res.MaxDrawdownPct = maxDrawdown(values(res.Timeline), res.InitialCapital)

	// Time-in-drawdown counts observed snapshots, not interpolated days.
	snapshots := make([]float64, 0, len(known)-1)
	for _, p := range known[1:] {
		snapshots = append(snapshots, p.Value)
	}
	res.PctDaysInDrawdown = pctBelowPeak(snapshots)

	return res
}

// interpolateDaily fills every calendar day between consecutive known
// points with a linear ramp and holds flat after the last point.
func interpolateDaily(known []CapitalPoint) []CapitalPoint {
	out := []CapitalPoint{known[0]}
	for i := 1; i < len(known); i++ {
		prev, next := known[i-1], known[i]
		span := int(next.Date.Sub(prev.Date).Hours() / 24)
		for d := 1; d <= span; d++ {
			frac := float64(d) / float64(span)
			out = append(out, CapitalPoint{
				Date:  prev.Date.AddDate(0, 0, d),
				Value: prev.Value + (next.Value-prev.Value)*frac,
			})
		}
	}
	return out
}

// maxDrawdown walks the curve with a non-decreasing peak seeded at the
// initial capital and returns the worst (peak-value)/peak as a percent.
func maxDrawdown(series []float64, initial float64) float64 {
	if len(series) < 2 {
		return 0
	}
	peak := initial
	var maxDD float64
	for _, v := range series {
		if v > peak {
			peak = v
		}
		if peak <= epsilon {
			continue
		}
		dd := (peak - v) / peak
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD * 100
}

// pctBelowPeak returns the percentage of observations strictly below the
// running peak. Fewer than two observations → 0.
func pctBelowPeak(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	peak := series[0]
	below := 0
	for _, v := range series {
		if v > peak {
			peak = v
		}
		if v < peak {
			below++
		}
	}
	return float64(below) / float64(len(series)) * 100
}

func values(points []CapitalPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
