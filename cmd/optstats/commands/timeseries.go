package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/wonny/optstats/internal/timeseries"
)

// timeseriesCmd represents the timeseries command
var timeseriesCmd = &cobra.Command{
	Use:   "timeseries",
	Short: "수익 곡선, 월별 그리드, 분포 분석",
	Long: `성과 시계열과 트레이드 분포를 계산합니다.

계산 항목:
- 실현 P/L 기준 equity curve (고점 대비 낙폭 포함)
- 월별/연도별 P/L 그리드
- 요일/시간대/보유기간/증거금수익률 분포
- trailing-window 롤링 지표
- 연속 승/패 길이 분포

Example:
  go run ./cmd/optstats timeseries --trades trades.csv
  go run ./cmd/optstats timeseries --trades trades.csv --rolling 30 --json`,
	RunE: runTimeseries,
}

var (
	// Flags
	tsRolling int
	tsCapital float64
)

func init() {
	rootCmd.AddCommand(timeseriesCmd)

	// Flags
	timeseriesCmd.Flags().IntVar(&tsRolling, "rolling", 30, "롤링 윈도우 트레이드 수")
	timeseriesCmd.Flags().Float64Var(&tsCapital, "capital", 0, "시작 자본, 0이면 환경설정값")
}

// timeseriesReport bundles every view for --json output.
type timeseriesReport struct {
	Equity         []timeseries.EquityStep    `json:"equity"`
	MonthlyGrid    timeseries.MonthlyGrid     `json:"monthly_grid"`
	ByWeekday      timeseries.Distribution    `json:"by_weekday"`
	ByHour         timeseries.Distribution    `json:"by_hour"`
	ByHoldDuration timeseries.Distribution    `json:"by_hold_duration"`
	ByReturnMargin timeseries.Distribution    `json:"by_return_on_margin"`
	Rolling        []timeseries.RollingPoint  `json:"rolling"`
	Streaks        timeseries.StreakCensus    `json:"streaks"`
}

func runTimeseries(cmd *cobra.Command, args []string) error {
	cfg, _, portfolio, _, err := loadSession()
	if err != nil {
		return err
	}

	capital := cfg.StartingCapital
	if tsCapital > 0 {
		capital = tsCapital
	}

	report := timeseriesReport{
		Equity:         timeseries.EquityCurve(portfolio, capital),
		MonthlyGrid:    timeseries.BuildMonthlyGrid(portfolio),
		ByWeekday:      timeseries.ByWeekday(portfolio),
		ByHour:         timeseries.ByHour(portfolio),
		ByHoldDuration: timeseries.ByHoldDuration(portfolio),
		ByReturnMargin: timeseries.ByReturnOnMargin(portfolio),
		Rolling:        timeseries.Rolling(portfolio, tsRolling),
		Streaks:        timeseries.BuildStreakCensus(portfolio),
	}

	if jsonOutput {
		return printJSON(report)
	}

	printTimeseriesReport(report)
	return nil
}

func printTimeseriesReport(r timeseriesReport) {
	printSectionHeader("Performance Timeseries")

	// Equity curve tail
	if n := len(r.Equity); n > 0 {
		fmt.Println("\n📈 Equity Curve (last 10 realized trades)")
		start := n - 10
		if start < 0 {
			start = 0
		}
		for _, step := range r.Equity[start:] {
			fmt.Printf("   %s  %10s  equity %12s  dd %.2f%%\n",
				step.Date.Format("2006-01-02"), money(step.PL), money(step.Equity), step.DrawdownPct)
		}
	}

	// Monthly grid
	if len(r.MonthlyGrid.Years) > 0 {
		fmt.Println("\n📅 Yearly P/L")
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Year", "P/L", "Trades")
		for _, y := range r.MonthlyGrid.Years {
			table.Append(fmt.Sprintf("%d", y.Year), money(y.PL), fmt.Sprintf("%d", y.Trades))
		}
		table.Render()
	}

	printDistribution("📆 By Weekday", r.ByWeekday)
	printDistribution("🕐 By Open Hour", r.ByHour)
	printDistribution("⏳ By Hold Duration", r.ByHoldDuration)
	printDistribution("💹 By Return on Margin", r.ByReturnMargin)

	// Rolling tail
	if n := len(r.Rolling); n > 0 {
		last := r.Rolling[n-1]
		fmt.Printf("\n🔄 Rolling (%d points, window %d)\n", n, tsRolling)
		fmt.Printf("   Latest (%s): win rate %.1f%%, PF %s, vol %s\n",
			last.Date.Format("2006-01-02"), last.WinRate*100, ratio(last.ProfitFactor), money(last.Volatility))
	}

	printStreakCensus(r.Streaks)
	fmt.Println()
}

func printDistribution(title string, d timeseries.Distribution) {
	if len(d.Buckets) == 0 {
		return
	}
	fmt.Println("\n" + title)
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Bucket", "Trades", "P/L", "Win%")
	for _, b := range d.Buckets {
		winPct := 0.0
		if b.Trades > 0 {
			winPct = float64(b.Wins) / float64(b.Trades) * 100
		}
		table.Append(b.Label, fmt.Sprintf("%d", b.Trades), money(b.PL), fmt.Sprintf("%.0f%%", winPct))
	}
	table.Render()
	fmt.Printf("   skew %.2f, excess kurtosis %.2f\n", d.Skewness, d.ExcessKurtosis)
}

func printStreakCensus(c timeseries.StreakCensus) {
	if len(c.WinStreaks) == 0 && len(c.LossStreaks) == 0 {
		return
	}
	fmt.Println("\n🔁 Streak Census (length × occurrences)")
	fmt.Printf("   Wins:   %s\n", formatCensus(c.WinStreaks))
	fmt.Printf("   Losses: %s\n", formatCensus(c.LossStreaks))
}

func formatCensus(m map[int]int) string {
	if len(m) == 0 {
		return "-"
	}
	lengths := make([]int, 0, len(m))
	for l := range m {
		lengths = append(lengths, l)
	}
	sort.Ints(lengths)

	out := ""
	for i, l := range lengths {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%d×%d", l, m[l])
	}
	return out
}
