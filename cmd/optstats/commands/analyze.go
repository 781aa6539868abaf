package commands

import (
	"fmt"
	"math"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/wonny/optstats/internal/geekistics"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "집계 통계 계산 (win rate, CAGR, Sharpe, drawdown)",
	Long: `트레이드 내역 전체에 대한 집계 리스크/성과 지표를 계산합니다.

계산 항목:
- 승률, profit factor, 평균 손익
- CAGR, Sharpe, Sortino, Calmar
- 최대 낙폭 및 drawdown 체류 비율
- 연속 승/패, 월별/주별 승률
- Kelly %, 증거금 수익률 분포

Example:
  go run ./cmd/optstats analyze --trades trades.csv
  go run ./cmd/optstats analyze --trades trades.csv --daily-log log.csv
  go run ./cmd/optstats analyze --trades trades.csv --strategy "Iron Condor" --json`,
	RunE: runAnalyze,
}

var (
	// Flags
	analyzeRiskFree float64
	analyzeAnnual   float64
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Flags
	analyzeCmd.Flags().Float64Var(&analyzeRiskFree, "risk-free", 0, "연 무위험 이자율 %, 0이면 환경설정값 사용")
	analyzeCmd.Flags().Float64Var(&analyzeAnnual, "annualization", 0, "연환산 계수, 0이면 환경설정값 사용")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, log, portfolio, daily, err := loadSession()
	if err != nil {
		return err
	}

	engineConfig := geekistics.Config{
		RiskFreeRate:        cfg.RiskFreeRate,
		AnnualizationFactor: cfg.AnnualizationFactor,
		ConfidenceLevel:     cfg.ConfidenceLevel,
		DrawdownThreshold:   cfg.DrawdownThreshold,
	}
	if analyzeRiskFree != 0 {
		engineConfig.RiskFreeRate = analyzeRiskFree
	}
	if analyzeAnnual != 0 {
		engineConfig.AnnualizationFactor = analyzeAnnual
	}

	engine := geekistics.NewEngine(engineConfig, log)
	statistics := engine.Compute(portfolio, daily, strategy != "")

	if jsonOutput {
		return printJSON(statistics)
	}

	printStatistics(statistics, strategy)
	return nil
}

func printStatistics(s geekistics.Statistics, filteredStrategy string) {
	title := "Aggregate Statistics"
	if filteredStrategy != "" {
		title = fmt.Sprintf("Aggregate Statistics — %s", filteredStrategy)
	}
	printSectionHeader(title)

	// Basic
	fmt.Println("\n📊 Trades")
	fmt.Printf("   Total: %d (W %d / L %d / BE %d)\n",
		s.Basic.TotalTrades, s.Basic.Wins, s.Basic.Losses, s.Basic.Breakeven)
	fmt.Printf("   Win Rate:      %.1f%%\n", s.Basic.WinRate*100)
	fmt.Printf("   Total P/L:     %s\n", money(s.Basic.TotalPL))
	fmt.Printf("   Commissions:   %s\n", money(s.Basic.Commissions))
	if s.Basic.TotalPremium > 0 {
		fmt.Printf("   Premium Capture: %.1f%% of %s\n", s.Basic.PremiumCapturePct, money(s.Basic.TotalPremium))
	}
	fmt.Printf("   Avg Win/Loss:  %s / %s\n", money(s.Basic.AvgWin), money(s.Basic.AvgLoss))
	fmt.Printf("   Max Win/Loss:  %s / %s\n", money(s.Basic.MaxWin), money(s.Basic.MaxLoss))
	fmt.Printf("   Profit Factor: %s\n", ratio(s.Basic.ProfitFactor))

	// Capital
	fmt.Println("\n💰 Capital")
	fmt.Printf("   Initial: %s\n", money(s.Capital.InitialCapital))
	fmt.Printf("   Final:   %s\n", money(s.Capital.FinalCapital))
	fmt.Printf("   Years:   %.2f\n", s.Capital.Years)
	fmt.Printf("   CAGR:    %s\n", pct(s.Capital.CAGR*100))

	// Risk
	fmt.Println("\n📉 Risk")
	fmt.Printf("   Sharpe:  %s", ratio(s.Ratios.Sharpe))
	if s.Ratios.Sharpe > 2.0 {
		fmt.Print(" ✅")
	} else if s.Ratios.Sharpe < 1.0 && !math.IsInf(s.Ratios.Sharpe, 1) {
		fmt.Print(" ⚠️")
	}
	fmt.Println()
	fmt.Printf("   Sortino: %s\n", ratio(s.Ratios.Sortino))
	fmt.Printf("   Calmar:  %s\n", ratio(s.Ratios.Calmar))
	fmt.Printf("   Daily VaR: %.2f%%\n", s.Ratios.DailyVaR*100)
	fmt.Printf("   Max Drawdown: %.2f%% (source: %s)\n", s.Drawdown.MaxDrawdownPct, s.Drawdown.Source)
	fmt.Printf("   Days in Drawdown: %.1f%%\n", s.Drawdown.PctDaysInDrawdown)

	// Streaks
	fmt.Println("\n🔁 Streaks")
	fmt.Printf("   Max Win/Loss Streak: %d / %d\n", s.Streaks.MaxWinStreak, s.Streaks.MaxLossStreak)
	fmt.Printf("   Current:             %d / %d\n", s.Streaks.CurrentWinStreak, s.Streaks.CurrentLossStreak)

	// Periodic
	fmt.Println("\n📅 Periodic")
	fmt.Printf("   Monthly Win Rate: %.1f%% (%d months)\n", s.Periodic.MonthlyWinRate, len(s.Periodic.Monthly))
	fmt.Printf("   Weekly Win Rate:  %.1f%% (%d weeks)\n", s.Periodic.WeeklyWinRate, len(s.Periodic.Weekly))
	printPeriodTable(s.Periodic)

	// Sizing
	fmt.Println("\n🎯 Sizing")
	fmt.Printf("   Payoff Ratio: %s\n", ratio(s.Kelly.PayoffRatio))
	fmt.Printf("   Kelly %%:      %.2f%%\n", s.Kelly.KellyPercent)
	if s.Margin.Samples > 0 {
		fmt.Printf("   Return on Margin: mean %.2f%%, min %.2f%%, max %.2f%% (n=%d)\n",
			s.Margin.Mean, s.Margin.Min, s.Margin.Max, s.Margin.Samples)
	}
	fmt.Println()
}

// printPeriodTable renders the trailing months so a long history stays
// readable in the terminal.
func printPeriodTable(p geekistics.PeriodicStats) {
	months := p.Monthly
	if len(months) == 0 {
		return
	}
	if len(months) > 12 {
		months = months[len(months)-12:]
	}

	fmt.Println()
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Month", "P/L", "Trades", "Result")
	for _, m := range months {
		result := "LOSS"
		if m.Win {
			result = "WIN"
		}
		table.Append(m.Period, money(m.PL), fmt.Sprintf("%d", m.Trades), result)
	}
	table.Render()
}
