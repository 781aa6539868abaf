package geekistics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/optstats/internal/model"
	"github.com/wonny/optstats/internal/stats"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCompute_AllLosingTrades(t *testing.T) {
	// Both trades lose: profit factor 0, win rate 0.
	p := model.NewPortfolio([]model.Trade{
		{
			DateOpened: date(2025, 1, 2), DateClosed: date(2025, 1, 10),
			PL: -6850.60, MarginReq: 16025, FundsAtClose: 93_149.40,
		},
		{
			DateOpened: date(2025, 1, 3), DateClosed: date(2025, 1, 15),
			PL: -10874.16, MarginReq: 22660, FundsAtClose: 82_275.24,
		},
	})

	engine := NewEngine(DefaultConfig(), nil)
	s := engine.Compute(p, nil, false)

	assert.Equal(t, 2, s.Basic.TotalTrades)
	assert.Equal(t, 0, s.Basic.Wins)
	assert.Equal(t, 2, s.Basic.Losses)
	assert.Equal(t, 0.0, s.Basic.WinRate)
	assert.Equal(t, 0.0, s.Basic.ProfitFactor)
	assert.InDelta(t, -17724.76, s.Basic.TotalPL, 1e-9)
	assert.InDelta(t, -10874.16, s.Basic.MaxLoss, 1e-9)

	// Kelly is undefined without wins
	assert.Equal(t, 0.0, s.Kelly.KellyPercent)
}

func TestCompute_WinRateInvariants(t *testing.T) {
	p := model.NewPortfolio([]model.Trade{
		{DateOpened: date(2025, 1, 1), DateClosed: date(2025, 1, 2), PL: 100, FundsAtClose: 100_100},
		{DateOpened: date(2025, 1, 2), DateClosed: date(2025, 1, 3), PL: -50, FundsAtClose: 100_050},
		{DateOpened: date(2025, 1, 3), DateClosed: date(2025, 1, 4), PL: 0, FundsAtClose: 100_050},
		{DateOpened: date(2025, 1, 4), DateClosed: date(2025, 1, 5), PL: 75, FundsAtClose: 100_125},
	})

	engine := NewEngine(DefaultConfig(), nil)
	s := engine.Compute(p, nil, false)

	require.Equal(t, s.Basic.TotalTrades, s.Basic.Wins+s.Basic.Losses+s.Basic.Breakeven)
	assert.GreaterOrEqual(t, s.Basic.WinRate, 0.0)
	assert.LessOrEqual(t, s.Basic.WinRate, 1.0)
	assert.Equal(t, 0.5, s.Basic.WinRate)
	assert.Equal(t, 1, s.Basic.Breakeven)
}

func TestCompute_PremiumCapture(t *testing.T) {
	p := model.NewPortfolio([]model.Trade{
		{DateOpened: date(2025, 1, 1), DateClosed: date(2025, 1, 2), Premium: 1000, PL: 600, FundsAtClose: 100_600},
		{DateOpened: date(2025, 1, 2), DateClosed: date(2025, 1, 3), Premium: -1000, PL: -200, FundsAtClose: 100_400},
	})

	engine := NewEngine(DefaultConfig(), nil)
	s := engine.Compute(p, nil, false)

	assert.InDelta(t, 2000.0, s.Basic.TotalPremium, 1e-9)
	// 400 kept out of 2000 collected → 20%
	assert.InDelta(t, 20.0, s.Basic.PremiumCapturePct, 1e-9)
}

func TestCompute_ProfitFactorInfiniteWithoutLosses(t *testing.T) {
	p := model.NewPortfolio([]model.Trade{
		{DateOpened: date(2025, 1, 1), DateClosed: date(2025, 1, 2), PL: 100, FundsAtClose: 100_100},
		{DateOpened: date(2025, 1, 2), DateClosed: date(2025, 1, 3), PL: 200, FundsAtClose: 100_300},
	})

	engine := NewEngine(DefaultConfig(), nil)
	s := engine.Compute(p, nil, false)
	assert.True(t, math.IsInf(s.Basic.ProfitFactor, 1), "profit factor should be +Inf")
}

func TestCompute_CapitalFromDailyLog(t *testing.T) {
	log := model.NewDailyLog([]model.DailyLogEntry{
		{Date: date(2024, 1, 2), NetLiquidity: 100_000, DailyPL: 0},
		{Date: date(2024, 7, 2), NetLiquidity: 105_000, DailyPL: 5000},
		{Date: date(2025, 1, 2), NetLiquidity: 108_000, DailyPL: 3000},
	})
	p := model.NewPortfolio([]model.Trade{
		{DateOpened: date(2024, 1, 2), DateClosed: date(2025, 1, 2), PL: 8000, FundsAtClose: 108_000},
	})

	engine := NewEngine(DefaultConfig(), nil)
	s := engine.Compute(p, log, false)

	assert.Equal(t, 100_000.0, s.Capital.InitialCapital)
	assert.Equal(t, 108_000.0, s.Capital.FinalCapital)
	assert.Equal(t, "daily_log", s.Drawdown.Source)

	// One year span → CAGR ≈ 8%
	assert.InDelta(t, 0.08, s.Capital.CAGR, 0.002)
}

func TestCompute_YearSpanFromTradeDates(t *testing.T) {
	// 2024-01-02 → 2025-01-01 is 365 days. The reconstructed curve's
	// synthetic anchor must not stretch the span.
	p := model.NewPortfolio([]model.Trade{
		{
			DateOpened: date(2024, 1, 2), DateClosed: date(2025, 1, 1),
			PL: 8000, FundsAtClose: 108_000,
		},
	})

	engine := NewEngine(DefaultConfig(), nil)
	s := engine.Compute(p, nil, false)

	assert.InDelta(t, 365.0/365.25, s.Capital.Years, 1e-9)
}

func TestCompute_FilteredViewIgnoresDailyLog(t *testing.T) {
	log := model.NewDailyLog([]model.DailyLogEntry{
		{Date: date(2025, 1, 2), NetLiquidity: 100_000},
	})
	p := model.NewPortfolio([]model.Trade{
		{
			DateOpened: date(2025, 1, 2), DateClosed: date(2025, 1, 5),
			Strategy: "Strangle", PL: 500, FundsAtClose: 50_500,
		},
	})

	engine := NewEngine(DefaultConfig(), nil)
	s := engine.Compute(p, log, true)

	// The account-wide log must not be used for a per-strategy view.
	assert.Equal(t, "trades", s.Drawdown.Source)
	assert.Equal(t, 50_000.0, s.Capital.InitialCapital)
}

func TestCAGR(t *testing.T) {
	assert.InDelta(t, 0.10, cagr(100_000, 110_000, 1), 1e-9)

	// Two years of 21% total growth → 10% per year
	assert.InDelta(t, 0.10, cagr(100_000, 121_000, 2), 1e-9)

	// Wiped-out capital → -100% sentinel, not NaN
	assert.Equal(t, -1.0, cagr(100_000, -5_000, 1))
	assert.Equal(t, -1.0, cagr(100_000, 0, 1))

	// Degenerate spans
	assert.Equal(t, 0.0, cagr(100_000, 110_000, 0))
	assert.Equal(t, 0.0, cagr(0, 110_000, 1))
}

func TestSharpe(t *testing.T) {
	// Constant returns → zero variance → 0
	assert.Equal(t, 0.0, sharpe([]float64{0.01, 0.01, 0.01}, 252))

	// Positive mean with spread → positive Sharpe
	s := sharpe([]float64{0.02, -0.01, 0.03, 0.01}, 252)
	assert.Greater(t, s, 0.0)

	assert.Equal(t, 0.0, sharpe([]float64{0.01}, 252))
}

func TestSortino_NoDownside(t *testing.T) {
	s := sortino([]float64{0.01, 0.02, 0.015}, 252)
	assert.True(t, math.IsInf(s, 1), "no downside deviation should give +Inf")
}

func TestDailyVaR(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.005, -0.01, 0.02}

	// NormInv(0.95) = 1.645
	want := -(stats.Mean(returns) - 1.645*stats.StdDev(returns))
	assert.InDelta(t, want, dailyVaR(returns, 0.95), 1e-12)

	// Tightly clustered positive returns → no loss at risk
	assert.Equal(t, 0.0, dailyVaR([]float64{0.01, 0.0101, 0.0099}, 0.95))

	assert.Equal(t, 0.0, dailyVaR([]float64{0.01}, 0.95))
	assert.Equal(t, 0.0, dailyVaR(returns, 1.5))
}

func TestCalmar(t *testing.T) {
	assert.InDelta(t, 2.0, calmar(0.20, 10.0), 1e-9)
	assert.True(t, math.IsInf(calmar(0.10, 0), 1))
	assert.Equal(t, 0.0, calmar(-0.10, 0))
}

func TestKellyStats(t *testing.T) {
	// 60% wins, payoff 2:1 → kelly = (2*0.6-0.4)/2 = 40%
	b := BasicStats{
		TotalTrades: 10, Wins: 6, Losses: 4,
		WinRate: 0.6, AvgWin: 200, AvgLoss: -100,
	}
	k := kellyStats(b)
	assert.InDelta(t, 2.0, k.PayoffRatio, 1e-9)
	assert.InDelta(t, 40.0, k.KellyPercent, 1e-9)

	// Undefined without losses
	k = kellyStats(BasicStats{Wins: 5, WinRate: 1.0, AvgWin: 100})
	assert.Equal(t, 0.0, k.KellyPercent)
}

func TestMarginStats(t *testing.T) {
	p := model.NewPortfolio([]model.Trade{
		{PL: 100, MarginReq: 1000},  // +10%
		{PL: -200, MarginReq: 1000}, // -20%
		{PL: 500},                   // no margin, excluded
	})

	m := marginStats(p)
	assert.Equal(t, 2, m.Samples)
	assert.InDelta(t, -5.0, m.Mean, 1e-9)
	assert.Equal(t, -20.0, m.Min)
	assert.Equal(t, 10.0, m.Max)
}
