package model

import (
	"sort"
	"time"
)

// Portfolio owns an ordered set of Trades for one upload session.
// Order is source row order, not necessarily chronological.
type Portfolio struct {
	trades []Trade
}

// NewPortfolio copies trades into a new Portfolio. The Portfolio is the
// exclusive owner of its trades from this point on.
func NewPortfolio(trades []Trade) *Portfolio {
	cp := make([]Trade, len(trades))
	copy(cp, trades)
	return &Portfolio{trades: cp}
}

// Len returns the trade count.
func (p *Portfolio) Len() int {
	if p == nil {
		return 0
	}
	return len(p.trades)
}

// Trades returns a copy of the trade set in source order.
func (p *Portfolio) Trades() []Trade {
	if p == nil {
		return nil
	}
	cp := make([]Trade, len(p.trades))
	copy(cp, p.trades)
	return cp
}

// TotalPL sums realized P/L over all trades.
func (p *Portfolio) TotalPL() float64 {
	var total float64
	for _, t := range p.trades {
		total += t.PL
	}
	return total
}

// Strategies returns the distinct strategy labels, sorted, so callers
// iterating over them produce deterministic output.
func (p *Portfolio) Strategies() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range p.trades {
		if t.Strategy == "" || seen[t.Strategy] {
			continue
		}
		seen[t.Strategy] = true
		out = append(out, t.Strategy)
	}
	sort.Strings(out)
	return out
}

// FilterByStrategy returns a new Portfolio containing only trades with the
// given strategy label. Source order is preserved.
func (p *Portfolio) FilterByStrategy(strategy string) *Portfolio {
	var filtered []Trade
	for _, t := range p.trades {
		if t.Strategy == strategy {
			filtered = append(filtered, t)
		}
	}
	return NewPortfolio(filtered)
}

// SortedByOpen returns the trades sorted chronologically by
// (date_opened, time_opened, funds_at_close ascending). This is the
// canonical ordering for initial-capital inference and streak iteration.
func (p *Portfolio) SortedByOpen() []Trade {
	sorted := p.Trades()
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.DateOpened.Equal(b.DateOpened) {
			return a.DateOpened.Before(b.DateOpened)
		}
		if a.TimeOpened != b.TimeOpened {
			return a.TimeOpened < b.TimeOpened
		}
		return a.FundsAtClose < b.FundsAtClose
	})
	return sorted
}

// SortedByClose returns closed trades sorted by (date_closed, time_closed).
func (p *Portfolio) SortedByClose() []Trade {
	var closed []Trade
	for _, t := range p.trades {
		if t.IsClosed() {
			closed = append(closed, t)
		}
	}
	sort.SliceStable(closed, func(i, j int) bool {
		a, b := closed[i], closed[j]
		if !a.DateClosed.Equal(b.DateClosed) {
			return a.DateClosed.Before(b.DateClosed)
		}
		return a.TimeClosed < b.TimeClosed
	})
	return closed
}

// DateRange returns the earliest open date and the latest close date over
// all trades, ok=false on an empty portfolio.
func (p *Portfolio) DateRange() (first, last time.Time, ok bool) {
	if p.Len() == 0 {
		return time.Time{}, time.Time{}, false
	}
	for i, t := range p.trades {
		if i == 0 || t.DateOpened.Before(first) {
			first = t.DateOpened
		}
		end := t.DateClosed
		if end.IsZero() {
			end = t.DateOpened
		}
		if end.After(last) {
			last = end
		}
	}
	return first, last, true
}

// Summary is the derived roll-up the presentation layer shows next to the
// upload: totals only, no risk math.
type Summary struct {
	TradeCount int      `json:"trade_count"`
	TotalPL    float64  `json:"total_pl"`
	Strategies []string `json:"strategies"`
}

// Summarize builds the portfolio summary.
func (p *Portfolio) Summarize() Summary {
	return Summary{
		TradeCount: p.Len(),
		TotalPL:    p.TotalPL(),
		Strategies: p.Strategies(),
	}
}
