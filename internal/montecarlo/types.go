package montecarlo

import "time"

// Method 시뮬레이션 방법
type Method string

const (
	// MethodTradeBootstrap 개별 트레이드 P/L 복원추출
	MethodTradeBootstrap Method = "trade_bootstrap"
	// MethodDailyBootstrap 일별 실현 수익률 복원추출
	MethodDailyBootstrap Method = "daily_bootstrap"
	// MethodParametricNormal 정규분포 가정 (비교/테스트 전용 —
	// tail 형태를 버리므로 기본 방법으로 쓰지 않는다)
	MethodParametricNormal Method = "parametric_normal"
)

// 최소 샘플 수 (fail-closed)
const (
	MinTrades       = 10
	MinDailyReturns = 5
)

// Config Monte Carlo 시뮬레이션 설정
// ⭐ SSOT: 재현성을 위해 모든 설정을 명시적으로 기록
type Config struct {
	Method         Method    `json:"method"`
	NumSimulations int       `json:"num_simulations"`
	DaysForward    int       `json:"days_forward"`
	Percentiles    []float64 `json:"percentiles"`
	// ConfidenceLevel drives the parametric tail estimates (0.95 →
	// 95% VaR/CVaR from the normal fit of the final returns).
	ConfidenceLevel float64 `json:"confidence_level"`
	// Seed 재현성용 시드 (0=시간 기반)
	Seed int64 `json:"seed"`
	// RuinThreshold cumulative-return level treated as account ruin
	// (e.g. -0.5 for a 50% loss). Zero disables the ruin census.
	RuinThreshold float64 `json:"ruin_threshold"`
}

// DefaultConfig returns the simulator defaults.
func DefaultConfig() Config {
	return Config{
		Method:          MethodTradeBootstrap,
		NumSimulations:  1000,
		DaysForward:     252,
		Percentiles:     []float64{5, 25, 50, 75, 95},
		ConfidenceLevel: 0.95,
		Seed:            0,
		RuinThreshold:   -0.5,
	}
}

// Result Monte Carlo 시뮬레이션 결과
// Paths hold cumulative returns (fractions); VaR95 follows the
// loss-positive convention used across the module.
type Result struct {
	RunID   string    `json:"run_id"`
	RunDate time.Time `json:"run_date"`
	Config  Config    `json:"config"` // 재현성용 설정 기록

	InputSampleCount int `json:"input_sample_count"`

	Paths        [][]float64         `json:"paths"`
	FinalReturns []float64           `json:"final_returns"`
	Percentiles  map[float64]float64 `json:"percentiles"`

	MeanFinalReturn float64 `json:"mean_final_return"`
	StdFinalReturn  float64 `json:"std_final_return"`
	// VaR95 is the 5th percentile of final returns under the
	// loss-positive convention: a positive 5th percentile reports 0
	// here (no loss at risk), the signed value stays in Percentiles[5].
	VaR95  float64 `json:"var_95"`  // 손실, 양수
	CVaR95 float64 `json:"cvar_95"` // expected shortfall, 양수

	// Parametric tail estimates from a normal fit of the final returns
	// at Config.ConfidenceLevel, for comparison with the bootstrap VaR.
	ParametricVaR  float64 `json:"parametric_var"`  // 손실, 양수
	ParametricCVaR float64 `json:"parametric_cvar"` // 손실, 양수

	// Path-level risk census.
	RuinProbability float64 `json:"ruin_probability"`
	MaxDrawdownP50  float64 `json:"max_drawdown_p50"`
	MaxDrawdownP95  float64 `json:"max_drawdown_p95"`
}
