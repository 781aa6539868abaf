package commands

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/wonny/optstats/internal/correlation"
)

// correlationCmd represents the correlation command
var correlationCmd = &cobra.Command{
	Use:   "correlation",
	Short: "전략 간 일별 P/L 상관관계",
	Long: `전략별 일별 실현 P/L 시계열의 상관행렬을 계산합니다.

방법: pearson (기본), spearman, kendall
거래일 수가 --min-days 미만인 전략은 제외됩니다.

Example:
  go run ./cmd/optstats correlation --trades trades.csv
  go run ./cmd/optstats correlation --trades trades.csv --method spearman --min-days 20`,
	RunE: runCorrelation,
}

var (
	// Flags
	corrMethod  string
	corrMinDays int
)

func init() {
	rootCmd.AddCommand(correlationCmd)

	// Flags
	correlationCmd.Flags().StringVar(&corrMethod, "method", "pearson", "상관계수 방법 (pearson/spearman/kendall)")
	correlationCmd.Flags().IntVar(&corrMinDays, "min-days", 10, "전략 포함 최소 거래일 수")
}

func runCorrelation(cmd *cobra.Command, args []string) error {
	_, _, portfolio, _, err := loadSession()
	if err != nil {
		return err
	}

	engine, err := correlation.NewEngine(correlation.Config{
		Method:         correlation.Method(corrMethod),
		MinTradingDays: corrMinDays,
	})
	if err != nil {
		return err
	}

	matrix := engine.Compute(portfolio)

	if jsonOutput {
		return printJSON(matrix)
	}

	printCorrelationMatrix(matrix)
	return nil
}

func printCorrelationMatrix(m correlation.Matrix) {
	printSectionHeader(fmt.Sprintf("Strategy Correlation (%s)", m.Method))

	if len(m.Strategies) < 2 {
		fmt.Println("\n⚠️  Fewer than two strategies qualify; no matrix to compute.")
		for _, s := range m.Excluded {
			fmt.Printf("   excluded: %s\n", s)
		}
		fmt.Println()
		return
	}

	fmt.Println()
	table := tablewriter.NewWriter(os.Stdout)
	header := append([]string{""}, m.Strategies...)
	table.Header(header)
	for i, s := range m.Strategies {
		row := make([]string, 0, len(m.Strategies)+1)
		row = append(row, s)
		for j := range m.Strategies {
			row = append(row, fmt.Sprintf("%.3f", m.Values[i][j]))
		}
		table.Append(row)
	}
	table.Render()

	if len(m.Excluded) > 0 {
		fmt.Printf("\n⚠️  Excluded (insufficient trading days): %d strategies\n", len(m.Excluded))
		for _, s := range m.Excluded {
			fmt.Printf("   • %s\n", s)
		}
	}
	fmt.Println()
}
