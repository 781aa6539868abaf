package kelly

import (
	"math"

	"github.com/wonny/optstats/internal/model"
)

// Metrics is the Kelly-criterion profile for one strategy (or the whole
// portfolio). All fields are zero when the strategy has no wins, no
// losses, or a zero average loss — the formula is undefined there and
// callers branch on value, not error.
type Metrics struct {
	Strategy    string  `json:"strategy"` // empty for portfolio-wide
	Trades      int     `json:"trades"`
	WinRate     float64 `json:"win_rate"`     // fraction in [0,1]
	PayoffRatio float64 `json:"payoff_ratio"` // avg_win / |avg_loss|
	// KellyFraction = (payoff*p - q) / payoff, the optimal capital
	// fraction; KellyPercent is the same ×100.
	KellyFraction float64 `json:"kelly_fraction"`
	KellyPercent  float64 `json:"kelly_percent"`
	AvgWin        float64 `json:"avg_win"`
	AvgLoss       float64 `json:"avg_loss"` // negative
}

// Compute derives Kelly metrics for one trade set.
func Compute(trades []model.Trade) Metrics {
	m := Metrics{Trades: len(trades)}

	var wins, losses int
	var sumWins, sumLosses float64
	for _, t := range trades {
		switch {
		case t.PL > 0:
			wins++
			sumWins += t.PL
		case t.PL < 0:
			losses++
			sumLosses += t.PL
		}
	}

	if len(trades) > 0 {
		m.WinRate = float64(wins) / float64(len(trades))
	}
	if wins == 0 || losses == 0 {
		return m
	}

	m.AvgWin = sumWins / float64(wins)
	m.AvgLoss = sumLosses / float64(losses)
	if m.AvgLoss == 0 {
		return m
	}

	m.PayoffRatio = m.AvgWin / math.Abs(m.AvgLoss)
	if m.PayoffRatio == 0 {
		return m
	}

	p := m.WinRate
	q := 1 - p
	m.KellyFraction = (m.PayoffRatio*p - q) / m.PayoffRatio
	m.KellyPercent = m.KellyFraction * 100
	return m
}

// ComputeAll returns portfolio-wide metrics plus one entry per strategy,
// keyed in the portfolio's sorted strategy order.
func ComputeAll(portfolio *model.Portfolio) (portfolioWide Metrics, perStrategy []Metrics) {
	portfolioWide = Compute(portfolio.Trades())

	for _, strategy := range portfolio.Strategies() {
		m := Compute(portfolio.FilterByStrategy(strategy).Trades())
		m.Strategy = strategy
		perStrategy = append(perStrategy, m)
	}
	return portfolioWide, perStrategy
}
