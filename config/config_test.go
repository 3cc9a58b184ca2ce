package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The env var names every test may touch. Cleared up front so a developer's
// shell or a stray .env value cannot leak into assertions.
var configEnvVars = []string{
	"SYMBOLS", "VENUES", "FEED_MODE", "SCAN_INTERVAL_MS",
	"MIN_SPREAD_THRESHOLD",
	"MAX_DAILY_TRADES", "DAILY_LOSS_LIMIT_FRACTION", "MAX_CONSECUTIVE_LOSSES",
	"MAX_POSITION_FRACTION", "MAX_CONCURRENT_POSITIONS",
	"LATENCY_MIN_MS", "LATENCY_MAX_MS", "SLIPPAGE_MIN", "SLIPPAGE_MAX",
	"EXECUTION_FAILURE_RATE", "FEE_RATE", "STARTING_BALANCE",
	"SYNTHETIC_BASE_PRICE", "SYNTHETIC_WALK_STEP", "SYNTHETIC_VENUE_JITTER",
	"BINANCE_API_KEY", "BINANCE_API_SECRET", "IS_TESTNET",
	"DB_PATH", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"BTCUSDT"}, cfg.Symbols)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, cfg.Venues)
	assert.Equal(t, FeedModeSynthetic, cfg.FeedMode)
	assert.Equal(t, 5*time.Second, cfg.ScanInterval)
	assert.Equal(t, "0.002", cfg.MinSpreadThreshold.String())
	assert.Equal(t, 50, cfg.MaxDailyTrades)
	assert.Equal(t, "0.05", cfg.DailyLossLimitFraction.String())
	assert.Equal(t, 3, cfg.MaxConsecutiveLosses)
	assert.Equal(t, "0.1", cfg.MaxPositionFraction.String())
	assert.Equal(t, 3, cfg.MaxConcurrentPositions)
	assert.Equal(t, 50*time.Millisecond, cfg.LatencyMin)
	assert.Equal(t, 200*time.Millisecond, cfg.LatencyMax)
	assert.Equal(t, "0.0001", cfg.SlippageMin.String())
	assert.Equal(t, "0.002", cfg.SlippageMax.String())
	assert.Equal(t, 0.02, cfg.ExecutionFailureRate)
	assert.Equal(t, "0.001", cfg.FeeRate.String())
	assert.Equal(t, "10000", cfg.StartingBalance.String())
	assert.Equal(t, "50000", cfg.SyntheticBasePrice.String())
	assert.True(t, cfg.IsTestnet)
	assert.Equal(t, "./data/trade_log.db", cfg.DBPath)
}

func TestLoadConfigOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SYMBOLS", "BTCUSDT, ETHUSDT")
	t.Setenv("VENUES", "alpha,beta")
	t.Setenv("SCAN_INTERVAL_MS", "250")
	t.Setenv("MIN_SPREAD_THRESHOLD", "0.005")
	t.Setenv("MAX_DAILY_TRADES", "5")
	t.Setenv("STARTING_BALANCE", "2500.50")
	t.Setenv("IS_TESTNET", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Symbols)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.Venues)
	assert.Equal(t, 250*time.Millisecond, cfg.ScanInterval)
	assert.Equal(t, "0.005", cfg.MinSpreadThreshold.String())
	assert.Equal(t, 5, cfg.MaxDailyTrades)
	assert.Equal(t, "2500.5", cfg.StartingBalance.String())
	assert.False(t, cfg.IsTestnet)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantMsg string
	}{
		{name: "unknown feed mode", key: "FEED_MODE", value: "kraken", wantMsg: "FEED_MODE"},
		{name: "one synthetic venue", key: "VENUES", value: "alpha", wantMsg: "VENUES"},
		{name: "zero scan interval", key: "SCAN_INTERVAL_MS", value: "0", wantMsg: "SCAN_INTERVAL_MS"},
		{name: "negative spread threshold", key: "MIN_SPREAD_THRESHOLD", value: "-0.001", wantMsg: "MIN_SPREAD_THRESHOLD"},
		{name: "malformed spread threshold", key: "MIN_SPREAD_THRESHOLD", value: "abc", wantMsg: "MIN_SPREAD_THRESHOLD"},
		{name: "zero daily trades", key: "MAX_DAILY_TRADES", value: "0", wantMsg: "MAX_DAILY_TRADES"},
		{name: "zero loss fraction", key: "DAILY_LOSS_LIMIT_FRACTION", value: "0", wantMsg: "DAILY_LOSS_LIMIT_FRACTION"},
		{name: "position fraction above one", key: "MAX_POSITION_FRACTION", value: "1.5", wantMsg: "MAX_POSITION_FRACTION"},
		{name: "inverted latency range", key: "LATENCY_MIN_MS", value: "500", wantMsg: "LATENCY_MIN_MS"},
		{name: "failure rate of one", key: "EXECUTION_FAILURE_RATE", value: "1", wantMsg: "EXECUTION_FAILURE_RATE"},
		{name: "negative fee rate", key: "FEE_RATE", value: "-0.01", wantMsg: "FEE_RATE"},
		{name: "zero starting balance", key: "STARTING_BALANCE", value: "0", wantMsg: "STARTING_BALANCE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := LoadConfig()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadConfigBinanceMode(t *testing.T) {
	clearEnv(t)
	t.Setenv("FEED_MODE", "binance")
	t.Setenv("VENUES", "alpha")
	t.Setenv("BINANCE_API_KEY", "key")
	t.Setenv("BINANCE_API_SECRET", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, FeedModeBinance, cfg.FeedMode)
	assert.Equal(t, []string{"alpha"}, cfg.Venues)
	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, "secret", cfg.SecretKey)
}

func TestLoadConfigBadValuesFallBack(t *testing.T) {
	// Malformed ints and floats fall back to their defaults rather than
	// failing the load.
	clearEnv(t)
	t.Setenv("MAX_DAILY_TRADES", "many")
	t.Setenv("EXECUTION_FAILURE_RATE", "sometimes")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.MaxDailyTrades)
	assert.Equal(t, 0.02, cfg.ExecutionFailureRate)
}
