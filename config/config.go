package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"arbSimBot/internal/adapters/logger" // Import the logger package for LogLevel
)

// Feed modes select where venue quotes come from.
const (
	FeedModeSynthetic = "synthetic" // Multi-venue random walk, no network
	FeedModeBinance   = "binance"   // Live Binance spot tickers as one venue
)

// Config holds all application configuration.
type Config struct {
	// Market scanning
	Symbols      []string      // Symbols scanned each cycle
	Venues       []string      // Venue names for the synthetic feed
	FeedMode     string        // "synthetic" or "binance"
	ScanInterval time.Duration // Pause between scan cycles

	// Detection
	MinSpreadThreshold decimal.Decimal // Minimum cross-venue spread fraction (e.g., 0.002)

	// Risk limits
	MaxDailyTrades         int             // Settled round trips allowed per day
	DailyLossLimitFraction decimal.Decimal // Daily loss tolerance as a fraction of the bankroll
	MaxConsecutiveLosses   int             // Losing streak that trips the breaker
	MaxPositionFraction    decimal.Decimal // Largest bankroll fraction per trade
	MaxConcurrentPositions int             // In-flight execution cap

	// Execution simulation
	LatencyMin           time.Duration   // Lower bound of simulated venue latency
	LatencyMax           time.Duration   // Upper bound of simulated venue latency
	SlippageMin          decimal.Decimal // Lower bound of adverse slippage fraction
	SlippageMax          decimal.Decimal // Upper bound of adverse slippage fraction
	ExecutionFailureRate float64         // Probability a venue rejects an order
	FeeRate              decimal.Decimal // Fee fraction per fill
	StartingBalance      decimal.Decimal // Paper bankroll

	// Synthetic feed shape
	SyntheticBasePrice   decimal.Decimal // Starting mid price per symbol
	SyntheticWalkStep    float64         // Largest fractional mid move per quote
	SyntheticVenueJitter float64         // Largest per-venue divergence from the mid

	// Binance feed (only used when FeedMode is "binance")
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Database
	DBPath string

	// Logging
	LogLevel logger.LogLevel // Use the LogLevel type from the logger adapter
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Market scanning
	cfg.Symbols = getEnvAsList("SYMBOLS", []string{"BTCUSDT"})
	if len(cfg.Symbols) == 0 {
		errs = append(errs, "SYMBOLS must list at least one symbol")
	}

	cfg.Venues = getEnvAsList("VENUES", []string{"alpha", "beta", "gamma"})
	cfg.FeedMode = strings.ToLower(getEnv("FEED_MODE", FeedModeSynthetic))
	switch cfg.FeedMode {
	case FeedModeSynthetic:
		if len(cfg.Venues) < 2 {
			errs = append(errs, "VENUES must list at least two venues for the synthetic feed")
		}
	case FeedModeBinance:
		// A single live venue cannot arb against itself; synthetic venues
		// fill out the quote map alongside the live one.
		if len(cfg.Venues) < 1 {
			errs = append(errs, "VENUES must list at least one synthetic venue alongside the binance feed")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown FEED_MODE %q", cfg.FeedMode))
	}

	scanIntervalMs := getEnvAsInt("SCAN_INTERVAL_MS", 5000)
	if scanIntervalMs <= 0 {
		errs = append(errs, "SCAN_INTERVAL_MS must be positive")
	}
	cfg.ScanInterval = time.Duration(scanIntervalMs) * time.Millisecond

	// Detection
	cfg.MinSpreadThreshold, err = getEnvAsDecimal("MIN_SPREAD_THRESHOLD", "0.002")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MIN_SPREAD_THRESHOLD: %v", err))
	} else if cfg.MinSpreadThreshold.IsNegative() {
		errs = append(errs, "MIN_SPREAD_THRESHOLD cannot be negative")
	}

	// Risk limits
	cfg.MaxDailyTrades = getEnvAsInt("MAX_DAILY_TRADES", 50)
	if cfg.MaxDailyTrades <= 0 {
		errs = append(errs, "MAX_DAILY_TRADES must be positive")
	}

	cfg.DailyLossLimitFraction, err = getEnvAsDecimal("DAILY_LOSS_LIMIT_FRACTION", "0.05")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid DAILY_LOSS_LIMIT_FRACTION: %v", err))
	} else if !cfg.DailyLossLimitFraction.IsPositive() {
		errs = append(errs, "DAILY_LOSS_LIMIT_FRACTION must be positive")
	}

	cfg.MaxConsecutiveLosses = getEnvAsInt("MAX_CONSECUTIVE_LOSSES", 3)
	if cfg.MaxConsecutiveLosses <= 0 {
		errs = append(errs, "MAX_CONSECUTIVE_LOSSES must be positive")
	}

	cfg.MaxPositionFraction, err = getEnvAsDecimal("MAX_POSITION_FRACTION", "0.1")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_POSITION_FRACTION: %v", err))
	} else if !cfg.MaxPositionFraction.IsPositive() || cfg.MaxPositionFraction.GreaterThan(decimal.NewFromInt(1)) {
		errs = append(errs, "MAX_POSITION_FRACTION must be in (0, 1]")
	}

	cfg.MaxConcurrentPositions = getEnvAsInt("MAX_CONCURRENT_POSITIONS", 3)
	if cfg.MaxConcurrentPositions <= 0 {
		errs = append(errs, "MAX_CONCURRENT_POSITIONS must be positive")
	}

	// Execution simulation
	latencyMinMs := getEnvAsInt("LATENCY_MIN_MS", 50)
	latencyMaxMs := getEnvAsInt("LATENCY_MAX_MS", 200)
	if latencyMinMs < 0 || latencyMaxMs < latencyMinMs {
		errs = append(errs, "LATENCY_MIN_MS/LATENCY_MAX_MS must form a non-negative range")
	}
	cfg.LatencyMin = time.Duration(latencyMinMs) * time.Millisecond
	cfg.LatencyMax = time.Duration(latencyMaxMs) * time.Millisecond

	cfg.SlippageMin, err = getEnvAsDecimal("SLIPPAGE_MIN", "0.0001")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SLIPPAGE_MIN: %v", err))
	}
	cfg.SlippageMax, err = getEnvAsDecimal("SLIPPAGE_MAX", "0.002")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SLIPPAGE_MAX: %v", err))
	}
	if cfg.SlippageMin.IsNegative() || cfg.SlippageMax.LessThan(cfg.SlippageMin) {
		errs = append(errs, "SLIPPAGE_MIN/SLIPPAGE_MAX must form a non-negative range")
	}

	cfg.ExecutionFailureRate = getEnvAsFloat("EXECUTION_FAILURE_RATE", 0.02)
	if cfg.ExecutionFailureRate < 0 || cfg.ExecutionFailureRate >= 1 {
		errs = append(errs, "EXECUTION_FAILURE_RATE must be in [0, 1)")
	}

	cfg.FeeRate, err = getEnvAsDecimal("FEE_RATE", "0.001")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid FEE_RATE: %v", err))
	} else if cfg.FeeRate.IsNegative() {
		errs = append(errs, "FEE_RATE cannot be negative")
	}

	cfg.StartingBalance, err = getEnvAsDecimal("STARTING_BALANCE", "10000")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid STARTING_BALANCE: %v", err))
	} else if !cfg.StartingBalance.IsPositive() {
		errs = append(errs, "STARTING_BALANCE must be positive")
	}

	// Synthetic feed shape
	cfg.SyntheticBasePrice, err = getEnvAsDecimal("SYNTHETIC_BASE_PRICE", "50000")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SYNTHETIC_BASE_PRICE: %v", err))
	} else if !cfg.SyntheticBasePrice.IsPositive() {
		errs = append(errs, "SYNTHETIC_BASE_PRICE must be positive")
	}
	cfg.SyntheticWalkStep = getEnvAsFloat("SYNTHETIC_WALK_STEP", 0.0005)
	cfg.SyntheticVenueJitter = getEnvAsFloat("SYNTHETIC_VENUE_JITTER", 0.003)
	if cfg.SyntheticWalkStep < 0 || cfg.SyntheticVenueJitter < 0 {
		errs = append(errs, "SYNTHETIC_WALK_STEP and SYNTHETIC_VENUE_JITTER cannot be negative")
	}

	// Binance feed credentials (optional; public tickers need no keys)
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true) // Default to testnet for safety

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/trade_log.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDecimal(key, defaultValue string) (decimal.Decimal, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
