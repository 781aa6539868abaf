package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/optstats/internal/model"
	"github.com/wonny/optstats/internal/normalize"
	"github.com/wonny/optstats/pkg/config"
	"github.com/wonny/optstats/pkg/logger"
)

var (
	// Global flags
	tradesFile  string
	dailyLog    string
	profileFile string
	strategy    string
	jsonOutput  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "optstats",
	Short: "Options trading performance and risk analytics",
	Long: `optstats — historical options-trade analytics

Computes performance, risk, and position-sizing statistics from broker
CSV exports: drawdown reconstruction, CAGR/Sharpe/Sortino/Calmar,
strategy correlation, Monte Carlo bootstrap, and Kelly sizing.

Usage:
  go run ./cmd/optstats [command]

Examples:
  go run ./cmd/optstats analyze --trades trades.csv
  go run ./cmd/optstats montecarlo --trades trades.csv --seed 42
  go run ./cmd/optstats kelly --trades trades.csv --mode compounding`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&tradesFile, "trades", "", "trade export CSV (required)")
	rootCmd.PersistentFlags().StringVar(&dailyLog, "daily-log", "", "daily log CSV (optional)")
	rootCmd.PersistentFlags().StringVar(&profileFile, "profile", "", "broker column-mapping profile YAML (default: generic)")
	rootCmd.PersistentFlags().StringVar(&strategy, "strategy", "", "restrict analysis to one strategy")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit JSON instead of tables")
}

// loadSession loads config, logger, and the normalized portfolio plus
// optional daily log — the shared preamble of every subcommand.
func loadSession() (*config.Config, *logger.Logger, *model.Portfolio, *model.DailyLog, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	if tradesFile == "" {
		return nil, nil, nil, nil, fmt.Errorf("--trades is required")
	}

	var profile *normalize.Profile
	if profileFile != "" {
		profile, err = normalize.LoadProfile(profileFile)
		if err != nil {
			return nil, nil, nil, nil, err
		}
	}
	normalizer := normalize.New(profile, log)

	f, err := os.Open(tradesFile)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open trades: %w", err)
	}
	defer f.Close()

	trades, rowErrs, err := normalizer.Trades(f)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("normalize trades: %w", err)
	}
	for _, re := range rowErrs {
		log.WithError(re).Warn("Skipped malformed trade row")
	}

	portfolio := model.NewPortfolio(trades)
	if strategy != "" {
		portfolio = portfolio.FilterByStrategy(strategy)
	}

	var daily *model.DailyLog
	if dailyLog != "" {
		df, err := os.Open(dailyLog)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("open daily log: %w", err)
		}
		defer df.Close()
		daily, _, err = normalizer.DailyLog(df)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("normalize daily log: %w", err)
		}
	}

	return cfg, log, portfolio, daily, nil
}
