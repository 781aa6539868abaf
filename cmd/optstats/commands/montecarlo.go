package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wonny/optstats/internal/montecarlo"
)

// montecarloCmd represents the montecarlo command
var montecarloCmd = &cobra.Command{
	Use:   "montecarlo",
	Short: "Monte Carlo bootstrap 시뮬레이션",
	Long: `과거 트레이드를 복원추출하여 미래 수익 분포를 시뮬레이션합니다.

방법:
- trade_bootstrap    개별 트레이드 P/L 복원추출 (기본)
- daily_bootstrap    일별 실현 수익률 복원추출
- parametric_normal  정규분포 가정 (비교용)

Example:
  go run ./cmd/optstats montecarlo --trades trades.csv
  go run ./cmd/optstats montecarlo --trades trades.csv --seed 42 --simulations 5000
  go run ./cmd/optstats montecarlo --trades trades.csv --method daily_bootstrap`,
	RunE: runMonteCarlo,
}

var (
	// Flags
	mcMethod      string
	mcSimulations int
	mcDays        int
	mcSeed        int64
	mcCapital     float64
	mcRuin        float64
)

func init() {
	rootCmd.AddCommand(montecarloCmd)

	// Flags
	montecarloCmd.Flags().StringVar(&mcMethod, "method", "", "시뮬레이션 방법 (기본: 환경설정값)")
	montecarloCmd.Flags().IntVar(&mcSimulations, "simulations", 0, "시뮬레이션 횟수, 0이면 환경설정값")
	montecarloCmd.Flags().IntVar(&mcDays, "days", 0, "전방 시뮬레이션 일수, 0이면 환경설정값")
	montecarloCmd.Flags().Int64Var(&mcSeed, "seed", 0, "랜덤 시드 (0=시간 기반)")
	montecarloCmd.Flags().Float64Var(&mcCapital, "capital", 0, "시작 자본, 0이면 환경설정값")
	montecarloCmd.Flags().Float64Var(&mcRuin, "ruin", -0.5, "파산 기준 누적 수익률 (예: -0.5)")
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, log, portfolio, _, err := loadSession()
	if err != nil {
		return err
	}

	simConfig := montecarlo.DefaultConfig()
	simConfig.Method = montecarlo.Method(cfg.MonteCarlo.BootstrapMethod)
	simConfig.NumSimulations = cfg.MonteCarlo.NumSimulations
	simConfig.DaysForward = cfg.MonteCarlo.DaysForward
	simConfig.ConfidenceLevel = cfg.ConfidenceLevel
	simConfig.Seed = cfg.MonteCarlo.RandomSeed
	simConfig.RuinThreshold = mcRuin

	if mcMethod != "" {
		simConfig.Method = montecarlo.Method(mcMethod)
	}
	if mcSimulations > 0 {
		simConfig.NumSimulations = mcSimulations
	}
	if mcDays > 0 {
		simConfig.DaysForward = mcDays
	}
	if mcSeed != 0 {
		simConfig.Seed = mcSeed
	}

	capital := cfg.StartingCapital
	if mcCapital > 0 {
		capital = mcCapital
	}

	simulator, err := montecarlo.NewSimulator(simConfig, log)
	if err != nil {
		return err
	}

	result, err := simulator.Simulate(portfolio, capital)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(result)
	}

	printMonteCarloResult(result, capital)
	return nil
}

func printMonteCarloResult(r *montecarlo.Result, capital float64) {
	printSectionHeader("Monte Carlo Simulation")
	fmt.Printf("  Run ID    : %s\n", r.RunID)
	fmt.Printf("  Method    : %s\n", r.Config.Method)
	fmt.Printf("  Paths     : %d × %d days (seed %d)\n",
		r.Config.NumSimulations, r.Config.DaysForward, r.Config.Seed)
	fmt.Printf("  Samples   : %d historical observations\n", r.InputSampleCount)

	fmt.Println("\n📈 Final Cumulative Return")
	fmt.Printf("   Mean: %s   Std: %.2f%%\n", pct(r.MeanFinalReturn*100), r.StdFinalReturn*100)

	var ps []float64
	for p := range r.Percentiles {
		ps = append(ps, p)
	}
	sort.Float64s(ps)
	for _, p := range ps {
		v := r.Percentiles[p]
		fmt.Printf("   P%02.0f:  %s (%s)\n", p, pct(v*100), money(capital*(1+v)))
	}

	fmt.Println("\n📉 Tail Risk")
	fmt.Printf("   VaR 95:  %.2f%% (%s)\n", r.VaR95*100, money(capital*r.VaR95))
	fmt.Printf("   CVaR 95: %.2f%%\n", r.CVaR95*100)
	fmt.Printf("   Parametric VaR/CVaR (%.0f%%): %.2f%% / %.2f%%\n",
		r.Config.ConfidenceLevel*100, r.ParametricVaR*100, r.ParametricCVaR*100)
	fmt.Printf("   Ruin Probability: %.2f%% (threshold %.0f%%)\n",
		r.RuinProbability*100, r.Config.RuinThreshold*100)
	fmt.Printf("   Path Max Drawdown: P50 %.1f%% / P95 %.1f%%\n",
		r.MaxDrawdownP50*100, r.MaxDrawdownP95*100)
	fmt.Println()
}
