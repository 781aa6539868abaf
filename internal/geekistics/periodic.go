package geekistics

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/optstats/internal/model"
)

// WeekNumbering selects how weekly periods are keyed.
type WeekNumbering string

const (
	// PeriodWeekLegacy counts weeks from the first Sunday of the year
	// (week 00 covers days before it). Matches the upstream product's
	// strftime("%U") grouping, kept for bit-compatible results.
	PeriodWeekLegacy WeekNumbering = "legacy"
	// PeriodWeekISO uses ISO-8601 week numbering.
	PeriodWeekISO WeekNumbering = "iso"
)

// computePeriodic groups realized P/L by calendar month and by week and
// reports the share of periods that closed positive.
func computePeriodic(portfolio *model.Portfolio) PeriodicStats {
	return computePeriodicWith(portfolio, PeriodWeekLegacy)
}

func computePeriodicWith(portfolio *model.Portfolio, numbering WeekNumbering) PeriodicStats {
	monthly := make(map[string]*PeriodStat)
	weekly := make(map[string]*PeriodStat)

	for _, t := range portfolio.Trades() {
		d := t.DateOpened
		addPeriod(monthly, d.Format("2006-01"), t.PL)
		addPeriod(weekly, weekKey(d, numbering), t.PL)
	}

	return PeriodicStats{
		Monthly:        flattenPeriods(monthly),
		Weekly:         flattenPeriods(weekly),
		MonthlyWinRate: periodWinRate(monthly),
		WeeklyWinRate:  periodWinRate(weekly),
	}
}

func addPeriod(m map[string]*PeriodStat, key string, pl float64) {
	p, ok := m[key]
	if !ok {
		p = &PeriodStat{Period: key}
		m[key] = p
	}
	p.PL += pl
	p.Trades++
}

// weekKey formats "2025-W07". Legacy numbering: week = (yday + 7 - w) / 7
// with Sunday as weekday 0, so days before the year's first Sunday land
// in week 00.
func weekKey(d time.Time, numbering WeekNumbering) string {
	if numbering == PeriodWeekISO {
		y, w := d.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	}
	w := int(d.Weekday())
	week := (d.YearDay() + 7 - w - 1) / 7
	return fmt.Sprintf("%04d-W%02d", d.Year(), week)
}

func flattenPeriods(m map[string]*PeriodStat) []PeriodStat {
	out := make([]PeriodStat, 0, len(m))
	for _, p := range m {
		p.Win = p.PL > 0
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

func periodWinRate(m map[string]*PeriodStat) float64 {
	if len(m) == 0 {
		return 0
	}
	wins := 0
	for _, p := range m {
		if p.PL > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(m)) * 100
}
