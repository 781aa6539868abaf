package model

import "time"

// Trade is one closed (or still open) options position as reported by the
// broker export. Created once at parse time and never mutated afterwards;
// every calculator treats the slice it receives as read-only.
// ⭐ SSOT: 모든 계산기는 이 타입만 소비 (loosely-typed map 접근 금지)
type Trade struct {
	DateOpened time.Time `json:"date_opened"`
	TimeOpened string    `json:"time_opened"` // HH:MM:SS, broker local time
	DateClosed time.Time `json:"date_closed"` // zero value when still open
	TimeClosed string    `json:"time_closed"`

	Legs     string  `json:"legs"`     // leg description, e.g. "1 Jan 17 4800 P STO"
	Strategy string  `json:"strategy"` // strategy label used for grouping
	Premium  float64 `json:"premium"`
	PL       float64 `json:"pl"` // realized P/L, net of commissions

	Contracts    int     `json:"contracts"`
	FundsAtClose float64 `json:"funds_at_close"` // capital snapshot when the trade closed
	MarginReq    float64 `json:"margin_req"`     // broker margin requirement while open

	Commissions float64 `json:"commissions"`
	OpeningVIX  float64 `json:"opening_vix"`
	ClosingVIX  float64 `json:"closing_vix"`
	MaxProfit   float64 `json:"max_profit"`
	MaxLoss     float64 `json:"max_loss"`
}

// IsClosed reports whether the trade has a close date.
func (t Trade) IsClosed() bool {
	return !t.DateClosed.IsZero()
}

// HoldingDays returns the calendar days the position was held, minimum 0.
// Same-day trades report 0.
func (t Trade) HoldingDays() int {
	if !t.IsClosed() {
		return 0
	}
	d := int(t.DateClosed.Sub(t.DateOpened).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// ReturnOnMargin returns the trade's P/L as a percentage of its margin
// requirement, and false when the margin requirement is not positive.
func (t Trade) ReturnOnMargin() (float64, bool) {
	if t.MarginReq <= 0 {
		return 0, false
	}
	return t.PL / t.MarginReq * 100, true
}
