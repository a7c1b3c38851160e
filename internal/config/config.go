package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port         int
	DevMode      bool
	LogLevel     string
	DatabasePath string // simulation results database
	HistoryDir   string // per-symbol price history databases

	// Simulation defaults, applied when a request omits them
	SimulationPeriodDays int
	InitialCapital       float64
	TransactionCost      float64
	RiskFreeRate         float64
	AssumedMarketReturn  float64

	// Pacing between benchmark fetches to respect rate limits
	BenchmarkFetchDelay time.Duration

	// Simulation rows older than this are pruned by the retention job
	RetentionDays int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnvAsInt("PORT", 8080),
		DevMode:              getEnvAsBool("DEV_MODE", false),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DatabasePath:         getEnv("DATABASE_PATH", "./data/simulation_results.db"),
		HistoryDir:           getEnv("HISTORY_DIR", "./data/history"),
		SimulationPeriodDays: getEnvAsInt("SIMULATION_PERIOD_DAYS", 252),
		InitialCapital:       getEnvAsFloat("INITIAL_CAPITAL", 100_000_000),
		TransactionCost:      getEnvAsFloat("TRANSACTION_COST", 0.003),
		RiskFreeRate:         getEnvAsFloat("RISK_FREE_RATE", 0.03),
		AssumedMarketReturn:  getEnvAsFloat("ASSUMED_MARKET_RETURN", 0.08),
		BenchmarkFetchDelay:  time.Duration(getEnvAsInt("BENCHMARK_FETCH_DELAY_MS", 100)) * time.Millisecond,
		RetentionDays:        getEnvAsInt("RETENTION_DAYS", 180),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.InitialCapital <= 0 {
		return fmt.Errorf("INITIAL_CAPITAL must be positive")
	}
	if c.TransactionCost < 0 || c.TransactionCost >= 1 {
		return fmt.Errorf("TRANSACTION_COST must be in [0, 1)")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
