package geekistics

// =============================================================================
// Configuration
// =============================================================================

// Config holds the aggregate calculator's tunables.
// ⭐ SSOT: 재현성을 위해 모든 설정을 명시적으로 기록
type Config struct {
	RiskFreeRate        float64 `json:"risk_free_rate"`       // annual, percent (2.0 = 2%)
	AnnualizationFactor float64 `json:"annualization_factor"` // trading days per year
	ConfidenceLevel     float64 `json:"confidence_level"`     // e.g. 0.95
	DrawdownThreshold   float64 `json:"drawdown_threshold"`   // percent, flags deep-drawdown periods
}

// DefaultConfig returns the calculator defaults.
func DefaultConfig() Config {
	return Config{
		RiskFreeRate:        2.0,
		AnnualizationFactor: 252,
		ConfidenceLevel:     0.95,
		DrawdownThreshold:   15.0,
	}
}

// =============================================================================
// Statistics bundle
// =============================================================================

// Statistics is the full nested bundle. Every sub-struct is derivable and
// testable on its own; the presentation layer serializes this as-is.
type Statistics struct {
	Basic    BasicStats    `json:"basic"`
	Capital  CapitalStats  `json:"capital"`
	Ratios   RatioStats    `json:"ratios"`
	Drawdown DrawdownStats `json:"drawdown"`
	Streaks  StreakStats   `json:"streaks"`
	Periodic PeriodicStats `json:"periodic"`
	Kelly    KellyStats    `json:"kelly"`
	Margin   MarginStats   `json:"margin"`
}

// BasicStats win/loss 기본 통계
type BasicStats struct {
	TotalTrades  int     `json:"total_trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Breakeven    int     `json:"breakeven"`
	WinRate      float64 `json:"win_rate"` // fraction in [0,1]
	TotalPL      float64 `json:"total_pl"`
	Commissions  float64 `json:"commissions"`
	TotalPremium float64 `json:"total_premium"` // |premium| summed
	// PremiumCapturePct P/L as a share of collected premium, percent.
	PremiumCapturePct float64 `json:"premium_capture_pct"`
	AvgWin            float64 `json:"avg_win"`
	MaxWin            float64 `json:"max_win"`
	AvgLoss           float64 `json:"avg_loss"`      // negative
	MaxLoss           float64 `json:"max_loss"`      // most negative
	ProfitFactor      float64 `json:"profit_factor"` // +Inf when no losses and ≥1 win
}

// CapitalStats 자본 및 성장률
type CapitalStats struct {
	InitialCapital float64 `json:"initial_capital"`
	FinalCapital   float64 `json:"final_capital"`
	Years          float64 `json:"years"`
	CAGR           float64 `json:"cagr"` // fraction; -1.0 sentinel when capital wiped out
}

// RatioStats 위험조정 수익률 지표
type RatioStats struct {
	Sharpe  float64 `json:"sharpe"`
	Sortino float64 `json:"sortino"` // +Inf when no downside deviation
	Calmar  float64 `json:"calmar"`  // +Inf when no drawdown and CAGR > 0
	// DailyVaR parametric daily VaR at Config.ConfidenceLevel from the
	// normal fit of daily returns. Fraction, loss positive.
	DailyVaR float64 `json:"daily_var"`
}

// DrawdownStats 낙폭 지표
type DrawdownStats struct {
	MaxDrawdownPct    float64 `json:"max_drawdown_pct"`
	PctDaysInDrawdown float64 `json:"pct_days_in_drawdown"`
	Source            string  `json:"source"` // "daily_log" | "trades"
}

// StreakStats 연속 승/패
type StreakStats struct {
	MaxWinStreak      int `json:"max_win_streak"`
	MaxLossStreak     int `json:"max_loss_streak"`
	CurrentWinStreak  int `json:"current_win_streak"`
	CurrentLossStreak int `json:"current_loss_streak"`
}

// PeriodStat one calendar period's aggregate.
type PeriodStat struct {
	Period string  `json:"period"` // "2025-01" or "2025-W07"
	PL     float64 `json:"pl"`
	Trades int     `json:"trades"`
	Win    bool    `json:"win"` // summed P/L > 0
}

// PeriodicStats 월별/주별 승률
type PeriodicStats struct {
	Monthly        []PeriodStat `json:"monthly"`
	Weekly         []PeriodStat `json:"weekly"`
	MonthlyWinRate float64      `json:"monthly_win_rate"` // percent
	WeeklyWinRate  float64      `json:"weekly_win_rate"`  // percent
}

// KellyStats Kelly criterion 포지션 사이징
type KellyStats struct {
	PayoffRatio  float64 `json:"payoff_ratio"` // avg_win / |avg_loss|
	KellyPercent float64 `json:"kelly_percent"`
}

// MarginStats per-trade return-on-margin distribution (percent).
type MarginStats struct {
	Samples int     `json:"samples"`
	Mean    float64 `json:"mean"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	StdDev  float64 `json:"std_dev"`
}
