package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the analytics engine.
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	Env string // development, staging, production

	// Statistics
	RiskFreeRate        float64 // annual, percent
	AnnualizationFactor float64 // trading days per year
	ConfidenceLevel     float64
	DrawdownThreshold   float64 // percent

	// Position sizing
	StartingCapital         float64
	MarginCalculationMode   string // fixed, compounding
	KellyFractionMultiplier float64

	// Monte Carlo
	MonteCarlo MonteCarloConfig

	// Result cache
	Cache CacheConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// MonteCarloConfig holds simulation settings.
type MonteCarloConfig struct {
	NumSimulations  int
	DaysForward     int
	BootstrapMethod string // trade_bootstrap, daily_bootstrap, parametric_normal
	RandomSeed      int64
}

// CacheConfig holds result-cache settings.
type CacheConfig struct {
	TTL        time.Duration
	MaxEntries int
}

// Load reads configuration from environment variables.
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		RiskFreeRate:        getEnvAsFloat("RISK_FREE_RATE", 2.0),
		AnnualizationFactor: getEnvAsFloat("ANNUALIZATION_FACTOR", 252),
		ConfidenceLevel:     getEnvAsFloat("CONFIDENCE_LEVEL", 0.95),
		DrawdownThreshold:   getEnvAsFloat("DRAWDOWN_THRESHOLD", 15.0),

		StartingCapital:         getEnvAsFloat("STARTING_CAPITAL", 100_000),
		MarginCalculationMode:   getEnv("MARGIN_CALCULATION_MODE", "fixed"),
		KellyFractionMultiplier: getEnvAsFloat("KELLY_FRACTION_MULTIPLIER", 100),

		MonteCarlo: MonteCarloConfig{
			NumSimulations:  getEnvAsInt("MC_NUM_SIMULATIONS", 1000),
			DaysForward:     getEnvAsInt("MC_DAYS_FORWARD", 252),
			BootstrapMethod: getEnv("MC_BOOTSTRAP_METHOD", "trade_bootstrap"),
			RandomSeed:      int64(getEnvAsInt("MC_RANDOM_SEED", 0)),
		},

		Cache: CacheConfig{
			TTL:        getEnvAsDuration("CACHE_TTL", "30m"),
			MaxEntries: getEnvAsInt("CACHE_MAX_ENTRIES", 64),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks required values and ranges.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}
	if c.AnnualizationFactor <= 0 {
		return fmt.Errorf("ANNUALIZATION_FACTOR must be > 0")
	}
	if c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 1 {
		return fmt.Errorf("CONFIDENCE_LEVEL must be in (0, 1)")
	}
	if c.StartingCapital <= 0 {
		return fmt.Errorf("STARTING_CAPITAL must be > 0")
	}
	if c.MarginCalculationMode != "fixed" && c.MarginCalculationMode != "compounding" {
		return fmt.Errorf("MARGIN_CALCULATION_MODE must be fixed or compounding")
	}
	if c.KellyFractionMultiplier < 0 {
		return fmt.Errorf("KELLY_FRACTION_MULTIPLIER must be >= 0")
	}
	if c.MonteCarlo.NumSimulations <= 0 {
		return fmt.Errorf("MC_NUM_SIMULATIONS must be > 0")
	}
	if c.MonteCarlo.DaysForward <= 0 {
		return fmt.Errorf("MC_DAYS_FORWARD must be > 0")
	}
	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
