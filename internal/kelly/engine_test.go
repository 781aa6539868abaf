package kelly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/optstats/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// tradesWithWinRate builds 10 trades with the given number of wins, fixed
// payoff 2:1 (+200 wins, -100 losses).
func tradesWithWinRate(wins int) []model.Trade {
	trades := make([]model.Trade, 0, 10)
	for i := 0; i < 10; i++ {
		pl := -100.0
		if i < wins {
			pl = 200.0
		}
		trades = append(trades, model.Trade{PL: pl})
	}
	return trades
}

func TestCompute_KnownValue(t *testing.T) {
	// p=0.6, b=2 → kelly = (2*0.6 - 0.4)/2 = 0.4
	m := Compute(tradesWithWinRate(6))
	assert.InDelta(t, 0.6, m.WinRate, 1e-12)
	assert.InDelta(t, 2.0, m.PayoffRatio, 1e-12)
	assert.InDelta(t, 0.4, m.KellyFraction, 1e-12)
	assert.InDelta(t, 40.0, m.KellyPercent, 1e-12)
}

func TestCompute_MonotonicInWinRate(t *testing.T) {
	// At a fixed payoff ratio, higher win rate never lowers Kelly.
	prev := -1.0
	for wins := 1; wins <= 9; wins++ {
		m := Compute(tradesWithWinRate(wins))
		assert.GreaterOrEqual(t, m.KellyFraction, prev,
			"kelly fraction decreased at win rate %.1f", m.WinRate)
		prev = m.KellyFraction
	}
}

func TestCompute_NegativeEdge(t *testing.T) {
	// p=0.2, b=2 → kelly = (0.4 - 0.8)/2 = -0.2: a losing game sizes
	// negative rather than clamping, callers decide what to show.
	m := Compute(tradesWithWinRate(2))
	assert.InDelta(t, -0.2, m.KellyFraction, 1e-12)
}

func TestCompute_UndefinedCases(t *testing.T) {
	// No losses
	m := Compute([]model.Trade{{PL: 100}, {PL: 50}})
	assert.Equal(t, 0.0, m.KellyFraction)
	assert.Equal(t, 1.0, m.WinRate)

	// No wins
	m = Compute([]model.Trade{{PL: -100}})
	assert.Equal(t, 0.0, m.KellyFraction)

	// Empty
	m = Compute(nil)
	assert.Equal(t, 0, m.Trades)
	assert.Equal(t, 0.0, m.KellyFraction)
}

func TestComputeAll(t *testing.T) {
	trades := append(tradesWithWinRate(6), model.Trade{Strategy: "X", PL: 300})
	for i := range trades[:10] {
		trades[i].Strategy = "Condor"
	}
	p := model.NewPortfolio(trades)

	portfolioWide, perStrategy := ComputeAll(p)
	assert.Equal(t, 11, portfolioWide.Trades)
	assert.Len(t, perStrategy, 2)
	// Sorted strategy order
	assert.Equal(t, "Condor", perStrategy[0].Strategy)
	assert.Equal(t, "X", perStrategy[1].Strategy)
}

func TestEngine_Analyze_MarginShortfall(t *testing.T) {
	// Strategy historically used 30k margin but Kelly grants far less.
	trades := make([]model.Trade, 0, 12)
	for i := 0; i < 12; i++ {
		pl := 200.0
		if i%2 == 0 {
			pl = -180.0
		}
		d := date(2025, 1, 2).AddDate(0, 0, i)
		trades = append(trades, model.Trade{
			Strategy: "Wide Condor", DateOpened: d, DateClosed: d.AddDate(0, 0, 2),
			PL: pl, MarginReq: 30_000,
		})
	}
	p := model.NewPortfolio(trades)

	engine := NewEngine(AllocationConfig{
		StartingCapital: 100_000,
		MarginMode:      MarginFixed,
	}, nil)
	analysis := engine.Analyze(p, nil)

	assert.Len(t, analysis.Allocations, 1)
	alloc := analysis.Allocations[0]
	assert.Equal(t, "Wide Condor", alloc.Strategy)
	assert.Equal(t, 100.0, alloc.Multiplier, "default multiplier promotes to full Kelly")
	if alloc.Dollars < alloc.PeakMarginUsed {
		assert.True(t, alloc.MarginShortfall)
	}
}

func TestEngine_Analyze_MultiplierScaling(t *testing.T) {
	trades := tradesWithWinRate(6)
	for i := range trades {
		trades[i].Strategy = "Condor"
		trades[i].DateOpened = date(2025, 1, 2).AddDate(0, 0, i)
		trades[i].DateClosed = trades[i].DateOpened
	}
	p := model.NewPortfolio(trades)

	engine := NewEngine(AllocationConfig{
		StartingCapital: 100_000,
		Multipliers:     map[string]float64{"Condor": 50},
	}, nil)
	analysis := engine.Analyze(p, nil)

	alloc := analysis.Allocations[0]
	assert.InDelta(t, 40.0, alloc.KellyPercent, 1e-9)
	assert.InDelta(t, 20.0, alloc.AppliedPercent, 1e-9, "half Kelly halves the applied percent")
	assert.InDelta(t, 20_000.0, alloc.Dollars, 1e-6)
}
