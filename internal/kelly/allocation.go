package kelly

import (
	"github.com/wonny/optstats/internal/model"
	"github.com/wonny/optstats/pkg/logger"
)

// AllocationConfig drives the allocation synthesis.
type AllocationConfig struct {
	StartingCapital float64    `json:"starting_capital"`
	MarginMode      MarginMode `json:"margin_mode"`
	// Multipliers scale each strategy's computed Kelly % (100 = full
	// Kelly, 50 = half Kelly, 200 = double). Missing strategies use
	// DefaultMultiplier.
	Multipliers       map[string]float64 `json:"multipliers"`
	DefaultMultiplier float64            `json:"default_multiplier"`
}

// StrategyAllocation is one strategy's synthesized sizing row. The
// MarginShortfall flag is the engine's key risk signal: the strategy has
// historically used more margin than the allocation currently grants it.
type StrategyAllocation struct {
	Strategy        string  `json:"strategy"`
	KellyPercent    float64 `json:"kelly_percent"`
	Multiplier      float64 `json:"multiplier"`
	AppliedPercent  float64 `json:"applied_percent"`
	Dollars         float64 `json:"dollars"`
	PeakMarginUsed  float64 `json:"peak_margin_used"`
	MarginShortfall bool    `json:"margin_shortfall"`
}

// Analysis is the full position-sizing output for one portfolio.
type Analysis struct {
	Portfolio   Metrics              `json:"portfolio"`
	Strategies  []Metrics            `json:"strategies"`
	Timeline    MarginTimeline       `json:"margin_timeline"`
	Allocations []StrategyAllocation `json:"allocations"`
}

// Engine composes Kelly metrics, the margin timeline, and the allocation
// synthesis. Stateless.
type Engine struct {
	config AllocationConfig
	logger *logger.Logger
}

// NewEngine creates a position-sizing engine. A zero DefaultMultiplier
// is promoted to 100 (full Kelly).
func NewEngine(config AllocationConfig, log *logger.Logger) *Engine {
	if config.DefaultMultiplier == 0 {
		config.DefaultMultiplier = 100
	}
	if config.MarginMode == "" {
		config.MarginMode = MarginFixed
	}
	return &Engine{config: config, logger: log}
}

// Analyze builds the complete sizing analysis.
func (e *Engine) Analyze(portfolio *model.Portfolio, log *model.DailyLog) Analysis {
	portfolioWide, perStrategy := ComputeAll(portfolio)
	timeline := BuildMarginTimeline(portfolio, log, e.config.MarginMode, e.config.StartingCapital)

	analysis := Analysis{
		Portfolio:  portfolioWide,
		Strategies: perStrategy,
		Timeline:   timeline,
	}

	for _, m := range perStrategy {
		mult, ok := e.config.Multipliers[m.Strategy]
		if !ok {
			mult = e.config.DefaultMultiplier
		}

		a := StrategyAllocation{
			Strategy:     m.Strategy,
			KellyPercent: m.KellyPercent,
			Multiplier:   mult,
		}
		a.AppliedPercent = m.KellyPercent * mult / 100
		if a.AppliedPercent > 0 {
			a.Dollars = e.config.StartingCapital * a.AppliedPercent / 100
		}
		a.PeakMarginUsed = timeline.PeakByStrategy[m.Strategy]
		a.MarginShortfall = a.PeakMarginUsed > a.Dollars

		if a.MarginShortfall && e.logger != nil {
			e.logger.WithFields(map[string]interface{}{
				"strategy":    a.Strategy,
				"peak_margin": a.PeakMarginUsed,
				"allocation":  a.Dollars,
			}).Warn("Historical margin usage exceeds applied allocation")
		}

		analysis.Allocations = append(analysis.Allocations, a)
	}

	return analysis
}
