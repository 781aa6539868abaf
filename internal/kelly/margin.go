package kelly

import (
	"sort"
	"time"

	"github.com/wonny/optstats/internal/model"
)

// MarginMode selects the capital denominator for margin utilization.
type MarginMode string

const (
	// MarginFixed denominator is always the starting capital.
	MarginFixed MarginMode = "fixed"
	// MarginCompounding denominator grows with realized P/L: capital on
	// day D = starting + Σ P/L of trades closed strictly before D, or
	// the daily log's exact net liquidity when a row exists (log wins).
	MarginCompounding MarginMode = "compounding"
)

// MarginDay is one day of the margin-utilization timeline.
type MarginDay struct {
	Date           time.Time          `json:"date"`
	TotalMargin    float64            `json:"total_margin"`
	ByStrategy     map[string]float64 `json:"by_strategy"`
	CapitalBase    float64            `json:"capital_base"`
	UtilizationPct float64            `json:"utilization_pct"`
}

// MarginTimeline is the per-day margin usage across the portfolio's
// active range plus peak figures used by the allocation synthesis.
type MarginTimeline struct {
	Mode            MarginMode         `json:"mode"`
	StartingCapital float64            `json:"starting_capital"`
	Days            []MarginDay        `json:"days"`
	PeakTotalMargin float64            `json:"peak_total_margin"`
	PeakUtilization float64            `json:"peak_utilization_pct"`
	PeakByStrategy  map[string]float64 `json:"peak_by_strategy"` // dollars
}

// BuildMarginTimeline walks every calendar day on which any trade's
// margin is active (open date through close date inclusive) and
// accumulates total and per-strategy requirements. A still-open trade
// has no close date, so its margin is held through the end of the
// observed range — the broker is still reserving it.
func BuildMarginTimeline(portfolio *model.Portfolio, log *model.DailyLog, mode MarginMode, startingCapital float64) MarginTimeline {
	tl := MarginTimeline{
		Mode:            mode,
		StartingCapital: startingCapital,
		PeakByStrategy:  make(map[string]float64),
	}

	trades := portfolio.Trades()
	if len(trades) == 0 {
		return tl
	}

	first, last, _ := portfolio.DateRange()
	first = dateKey(first)
	last = dateKey(last)

	// Realized P/L per close date, so the compounding base can fold in
	// every trade that closed before the day being priced. Multiple
	// closes on one date all land in that date's bucket.
	realized := make(map[time.Time]float64)
	var closeDates []time.Time
	for _, t := range trades {
		if !t.IsClosed() {
			continue
		}
		d := dateKey(t.DateClosed)
		if _, seen := realized[d]; !seen {
			closeDates = append(closeDates, d)
		}
		realized[d] += t.PL
	}
	sort.Slice(closeDates, func(i, j int) bool { return closeDates[i].Before(closeDates[j]) })

	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		day := MarginDay{Date: d, ByStrategy: make(map[string]float64)}

		for _, t := range trades {
			if t.MarginReq <= 0 {
				continue
			}
			open := dateKey(t.DateOpened)
			end := last
			if t.IsClosed() {
				end = dateKey(t.DateClosed)
			}
			if d.Before(open) || d.After(end) {
				continue
			}
			day.TotalMargin += t.MarginReq
			if t.Strategy != "" {
				day.ByStrategy[t.Strategy] += t.MarginReq
			}
		}

		day.CapitalBase = capitalBaseOn(d, mode, startingCapital, closeDates, realized, log)
		if day.CapitalBase > 0 {
			day.UtilizationPct = day.TotalMargin / day.CapitalBase * 100
		}

		if day.TotalMargin > tl.PeakTotalMargin {
			tl.PeakTotalMargin = day.TotalMargin
		}
		if day.UtilizationPct > tl.PeakUtilization {
			tl.PeakUtilization = day.UtilizationPct
		}
		for strategy, m := range day.ByStrategy {
			if m > tl.PeakByStrategy[strategy] {
				tl.PeakByStrategy[strategy] = m
			}
		}

		tl.Days = append(tl.Days, day)
	}

	return tl
}

func capitalBaseOn(d time.Time, mode MarginMode, startingCapital float64, closeDates []time.Time, realized map[time.Time]float64, log *model.DailyLog) float64 {
	if mode == MarginFixed {
		return startingCapital
	}

	// The exact logged net liquidity beats any estimate.
	if nl, ok := log.NetLiquidityOn(d); ok {
		return nl
	}

	base := startingCapital
	for _, cd := range closeDates {
		if !cd.Before(d) {
			break
		}
		base += realized[cd]
	}
	return base
}

// RunningCapital returns the end-of-day compounding capital on asOf:
// starting capital plus realized P/L of every trade closed on or before
// that date. Trades sharing a close date all contribute — this is the
// value carried into the next day's denominator.
func RunningCapital(portfolio *model.Portfolio, startingCapital float64, asOf time.Time) float64 {
	cutoff := dateKey(asOf)
	capital := startingCapital
	for _, t := range portfolio.Trades() {
		if t.IsClosed() && !dateKey(t.DateClosed).After(cutoff) {
			capital += t.PL
		}
	}
	return capital
}

func dateKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
