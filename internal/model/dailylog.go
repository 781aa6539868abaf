package model

import "time"

// DailyLogEntry is one end-of-day account snapshot. When a daily log is
// attached it is ground truth for that date and supersedes anything
// interpolated from trade snapshots.
type DailyLogEntry struct {
	Date         time.Time `json:"date"`
	NetLiquidity float64   `json:"net_liquidity"` // cash + positions at EOD
	TradingFunds float64   `json:"trading_funds"`
	DailyPL      float64   `json:"daily_pl"`
	DailyPLPct   float64   `json:"daily_pl_pct"`
	DrawdownPct  float64   `json:"drawdown_pct"` // broker-reported, may be negative
}

// DailyLog is an immutable, date-ordered collection of DailyLogEntry,
// optionally attached to a Portfolio for a session.
type DailyLog struct {
	entries []DailyLogEntry
}

// NewDailyLog copies entries so later mutation of the input slice cannot
// leak into the log. Entries are assumed already sorted by date, which is
// how every broker export ships them; callers with unsorted data sort first.
func NewDailyLog(entries []DailyLogEntry) *DailyLog {
	cp := make([]DailyLogEntry, len(entries))
	copy(cp, entries)
	return &DailyLog{entries: cp}
}

// Len returns the number of entries.
func (d *DailyLog) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Entries returns a copy of the underlying entries.
func (d *DailyLog) Entries() []DailyLogEntry {
	if d == nil {
		return nil
	}
	cp := make([]DailyLogEntry, len(d.entries))
	copy(cp, d.entries)
	return cp
}

// First returns the earliest entry, ok=false on an empty log.
func (d *DailyLog) First() (DailyLogEntry, bool) {
	if d.Len() == 0 {
		return DailyLogEntry{}, false
	}
	return d.entries[0], true
}

// Last returns the latest entry, ok=false on an empty log.
func (d *DailyLog) Last() (DailyLogEntry, bool) {
	if d.Len() == 0 {
		return DailyLogEntry{}, false
	}
	return d.entries[len(d.entries)-1], true
}

// NetLiquidityOn returns the exact net liquidity recorded for the given
// calendar date, ok=false when the log has no row for that date.
func (d *DailyLog) NetLiquidityOn(date time.Time) (float64, bool) {
	if d == nil {
		return 0, false
	}
	y, m, day := date.Date()
	for _, e := range d.entries {
		ey, em, ed := e.Date.Date()
		if ey == y && em == m && ed == day {
			return e.NetLiquidity, true
		}
	}
	return 0, false
}
