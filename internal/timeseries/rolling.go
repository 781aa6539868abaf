package timeseries

import (
	"math"
	"time"

	"github.com/wonny/optstats/internal/model"
	"github.com/wonny/optstats/internal/stats"
)

// RollingPoint is one trailing-window observation, anchored at the close
// date of the window's last trade.
type RollingPoint struct {
	Date         time.Time `json:"date"`
	WinRate      float64   `json:"win_rate"` // fraction
	ProfitFactor float64   `json:"profit_factor"`
	// SharpeApprox is mean/std of the window's per-trade return-on-margin
	// values — a per-trade approximation, not the annualized daily Sharpe.
	SharpeApprox float64 `json:"sharpe_approx"`
	Volatility   float64 `json:"volatility"` // std of window P/L
}

// Rolling computes trailing-window metrics over closed trades in close
// order. window is the trade count per observation; windows shorter than
// 2 produce no output.
func Rolling(portfolio *model.Portfolio, window int) []RollingPoint {
	if window < 2 {
		return nil
	}
	closed := portfolio.SortedByClose()
	if len(closed) < window {
		return nil
	}

	out := make([]RollingPoint, 0, len(closed)-window+1)
	for end := window; end <= len(closed); end++ {
		out = append(out, windowPoint(closed[end-window:end]))
	}
	return out
}

func windowPoint(trades []model.Trade) RollingPoint {
	p := RollingPoint{Date: trades[len(trades)-1].DateClosed}

	var wins int
	var sumWins, sumLosses float64
	pls := make([]float64, 0, len(trades))
	var roms []float64

	for _, t := range trades {
		pls = append(pls, t.PL)
		if rom, ok := t.ReturnOnMargin(); ok {
			roms = append(roms, rom)
		}
		switch {
		case t.PL > 0:
			wins++
			sumWins += t.PL
		case t.PL < 0:
			sumLosses += t.PL
		}
	}

	p.WinRate = float64(wins) / float64(len(trades))
	switch {
	case sumLosses == 0 && sumWins > 0:
		p.ProfitFactor = math.Inf(1)
	case sumLosses != 0:
		p.ProfitFactor = sumWins / math.Abs(sumLosses)
	}

	if sd := stats.StdDev(roms); sd > 0 {
		p.SharpeApprox = stats.Mean(roms) / sd
	}
	p.Volatility = stats.StdDev(pls)
	return p
}
