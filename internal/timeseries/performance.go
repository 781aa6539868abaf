package timeseries

import (
	"sort"
	"time"

	"github.com/wonny/optstats/internal/model"
)

// EquityStep is one realized-trade step on the cumulative equity curve.
type EquityStep struct {
	Date          time.Time `json:"date"`
	PL            float64   `json:"pl"`
	Equity        float64   `json:"equity"`         // cumulative P/L
	HighWaterMark float64   `json:"high_water_mark"`
	DrawdownPct   float64   `json:"drawdown_pct"` // vs capital + HWM, positive
}

// EquityCurve replays closed trades in close order and tracks the running
// high-water mark and per-step drawdown against startingCapital plus the
// mark. Read-only over the input; no state survives the call.
func EquityCurve(portfolio *model.Portfolio, startingCapital float64) []EquityStep {
	closed := portfolio.SortedByClose()
	if len(closed) == 0 {
		return nil
	}

	steps := make([]EquityStep, 0, len(closed))
	var equity, hwm float64
	for _, t := range closed {
		equity += t.PL
		if equity > hwm {
			hwm = equity
		}

		step := EquityStep{
			Date:          t.DateClosed,
			PL:            t.PL,
			Equity:        equity,
			HighWaterMark: hwm,
		}
		if base := startingCapital + hwm; base > 0 {
			step.DrawdownPct = (hwm - equity) / base * 100
		}
		steps = append(steps, step)
	}
	return steps
}

// MonthCell is one month in the P/L grid.
type MonthCell struct {
	Year   int     `json:"year"`
	Month  int     `json:"month"`
	PL     float64 `json:"pl"`
	Trades int     `json:"trades"`
}

// YearRow aggregates a calendar year.
type YearRow struct {
	Year   int     `json:"year"`
	PL     float64 `json:"pl"`
	Trades int     `json:"trades"`
}

// MonthlyGrid holds the heatmap data: per-month cells plus yearly totals,
// both sorted chronologically.
type MonthlyGrid struct {
	Months []MonthCell `json:"months"`
	Years  []YearRow   `json:"years"`
}

// BuildMonthlyGrid groups realized P/L by close month.
func BuildMonthlyGrid(portfolio *model.Portfolio) MonthlyGrid {
	type ym struct{ y, m int }
	months := make(map[ym]*MonthCell)
	years := make(map[int]*YearRow)

	for _, t := range portfolio.Trades() {
		if !t.IsClosed() {
			continue
		}
		y, m, _ := t.DateClosed.Date()
		key := ym{y, int(m)}
		if months[key] == nil {
			months[key] = &MonthCell{Year: y, Month: int(m)}
		}
		months[key].PL += t.PL
		months[key].Trades++

		if years[y] == nil {
			years[y] = &YearRow{Year: y}
		}
		years[y].PL += t.PL
		years[y].Trades++
	}

	var grid MonthlyGrid
	for _, c := range months {
		grid.Months = append(grid.Months, *c)
	}
	for _, r := range years {
		grid.Years = append(grid.Years, *r)
	}
	sort.Slice(grid.Months, func(i, j int) bool {
		a, b := grid.Months[i], grid.Months[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
	sort.Slice(grid.Years, func(i, j int) bool { return grid.Years[i].Year < grid.Years[j].Year })
	return grid
}

// StreakCensus counts how many streaks of each exact length occurred,
// wins and losses separately. Breakeven trades terminate both kinds.
type StreakCensus struct {
	WinStreaks  map[int]int `json:"win_streaks"`  // length → occurrences
	LossStreaks map[int]int `json:"loss_streaks"`
}

// BuildStreakCensus walks trades in open order.
func BuildStreakCensus(portfolio *model.Portfolio) StreakCensus {
	census := StreakCensus{
		WinStreaks:  make(map[int]int),
		LossStreaks: make(map[int]int),
	}

	var winRun, lossRun int
	flushWin := func() {
		if winRun > 0 {
			census.WinStreaks[winRun]++
			winRun = 0
		}
	}
	flushLoss := func() {
		if lossRun > 0 {
			census.LossStreaks[lossRun]++
			lossRun = 0
		}
	}

	for _, t := range portfolio.SortedByOpen() {
		switch {
		case t.PL > 0:
			flushLoss()
			winRun++
		case t.PL < 0:
			flushWin()
			lossRun++
		default:
			flushWin()
			flushLoss()
		}
	}
	flushWin()
	flushLoss()
	return census
}
