package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/wonny/optstats/internal/kelly"
)

// kellyCmd represents the kelly command
var kellyCmd = &cobra.Command{
	Use:   "kelly",
	Short: "Kelly criterion 포지션 사이징 및 증거금 타임라인",
	Long: `전략별 Kelly %를 계산하고 과거 증거금 사용 이력과 대조합니다.

증거금 모드:
- fixed        분모는 항상 시작 자본
- compounding  실현 P/L 누적 반영 (일별 로그가 있으면 로그 우선)

Example:
  go run ./cmd/optstats kelly --trades trades.csv
  go run ./cmd/optstats kelly --trades trades.csv --mode compounding --multiplier 50
  go run ./cmd/optstats kelly --trades trades.csv --mult "Iron Condor=50,Strangle=25"`,
	RunE: runKelly,
}

var (
	// Flags
	kellyMode       string
	kellyMultiplier float64
	kellyPerMult    string
	kellyCapital    float64
)

func init() {
	rootCmd.AddCommand(kellyCmd)

	// Flags
	kellyCmd.Flags().StringVar(&kellyMode, "mode", "", "증거금 계산 모드 (fixed/compounding, 기본: 환경설정값)")
	kellyCmd.Flags().Float64Var(&kellyMultiplier, "multiplier", 0, "기본 Kelly 배수 %, 0이면 환경설정값 (100=full Kelly)")
	kellyCmd.Flags().StringVar(&kellyPerMult, "mult", "", "전략별 배수 (\"전략=배수,전략=배수\")")
	kellyCmd.Flags().Float64Var(&kellyCapital, "capital", 0, "시작 자본, 0이면 환경설정값")
}

func runKelly(cmd *cobra.Command, args []string) error {
	cfg, log, portfolio, daily, err := loadSession()
	if err != nil {
		return err
	}

	mode := kelly.MarginMode(cfg.MarginCalculationMode)
	if kellyMode != "" {
		mode = kelly.MarginMode(kellyMode)
	}
	if mode != kelly.MarginFixed && mode != kelly.MarginCompounding {
		return fmt.Errorf("unknown margin mode %q", mode)
	}

	capital := cfg.StartingCapital
	if kellyCapital > 0 {
		capital = kellyCapital
	}

	defaultMult := cfg.KellyFractionMultiplier
	if kellyMultiplier > 0 {
		defaultMult = kellyMultiplier
	}

	multipliers, err := parseMultipliers(kellyPerMult)
	if err != nil {
		return err
	}

	engine := kelly.NewEngine(kelly.AllocationConfig{
		StartingCapital:   capital,
		MarginMode:        mode,
		Multipliers:       multipliers,
		DefaultMultiplier: defaultMult,
	}, log)

	analysis := engine.Analyze(portfolio, daily)

	if jsonOutput {
		return printJSON(analysis)
	}

	printKellyAnalysis(analysis)
	return nil
}

// parseMultipliers parses "Strategy=50,Other=25" into a map.
func parseMultipliers(raw string) (map[string]float64, error) {
	if raw == "" {
		return nil, nil
	}
	out := make(map[string]float64)
	for _, pair := range strings.Split(raw, ",") {
		name, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("invalid multiplier %q, want 전략=배수", pair)
		}
		var mult float64
		if _, err := fmt.Sscanf(value, "%f", &mult); err != nil {
			return nil, fmt.Errorf("invalid multiplier value %q: %w", value, err)
		}
		out[strings.TrimSpace(name)] = mult
	}
	return out, nil
}

func printKellyAnalysis(a kelly.Analysis) {
	printSectionHeader("Kelly Position Sizing")

	fmt.Println("\n🎯 Portfolio")
	fmt.Printf("   Trades:       %d\n", a.Portfolio.Trades)
	fmt.Printf("   Win Rate:     %.1f%%\n", a.Portfolio.WinRate*100)
	fmt.Printf("   Payoff Ratio: %s\n", ratio(a.Portfolio.PayoffRatio))
	fmt.Printf("   Kelly %%:      %.2f%%\n", a.Portfolio.KellyPercent)

	if len(a.Allocations) > 0 {
		fmt.Println("\n📋 Per-Strategy Allocation")
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Strategy", "Kelly%", "Mult", "Applied%", "Dollars", "Peak Margin", "Status")
		for _, alloc := range a.Allocations {
			status := "OK"
			if alloc.MarginShortfall {
				status = "⚠️ SHORTFALL"
			}
			table.Append(
				alloc.Strategy,
				fmt.Sprintf("%.2f", alloc.KellyPercent),
				fmt.Sprintf("%.0f", alloc.Multiplier),
				fmt.Sprintf("%.2f", alloc.AppliedPercent),
				money(alloc.Dollars),
				money(alloc.PeakMarginUsed),
				status,
			)
		}
		table.Render()
	}

	fmt.Println("\n📊 Margin Timeline")
	fmt.Printf("   Mode:             %s\n", a.Timeline.Mode)
	fmt.Printf("   Days Tracked:     %d\n", len(a.Timeline.Days))
	fmt.Printf("   Peak Total Margin: %s\n", money(a.Timeline.PeakTotalMargin))
	fmt.Printf("   Peak Utilization:  %.1f%%\n", a.Timeline.PeakUtilization)
	fmt.Println()
}
