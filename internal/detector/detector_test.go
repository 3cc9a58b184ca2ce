package detector

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testConfig() Config {
	return Config{
		MinSpreadThreshold:  dec("0.002"),
		MaxPositionFraction: dec("0.1"),
		StartingBalance:     dec("10000"),
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     testConfig(),
			wantErr: false,
		},
		{
			name: "negative threshold",
			cfg: Config{
				MinSpreadThreshold:  dec("-0.001"),
				MaxPositionFraction: dec("0.1"),
				StartingBalance:     dec("10000"),
			},
			wantErr: true,
		},
		{
			name: "zero position fraction",
			cfg: Config{
				MinSpreadThreshold:  dec("0.002"),
				MaxPositionFraction: decimal.Zero,
				StartingBalance:     dec("10000"),
			},
			wantErr: true,
		},
		{
			name: "position fraction above one",
			cfg: Config{
				MinSpreadThreshold:  dec("0.002"),
				MaxPositionFraction: dec("1.5"),
				StartingBalance:     dec("10000"),
			},
			wantErr: true,
		},
		{
			name: "zero starting balance",
			cfg: Config{
				MinSpreadThreshold:  dec("0.002"),
				MaxPositionFraction: dec("0.1"),
				StartingBalance:     decimal.Zero,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, d)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, d)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	d, err := New(testConfig())
	require.NoError(t, err)

	t.Run("signal on spread above threshold", func(t *testing.T) {
		// 45000 -> 45225 is exactly a 0.5% spread.
		signal, ok := d.Detect("BTCUSDT", map[string]decimal.Decimal{
			"alpha": dec("45000"),
			"beta":  dec("45225"),
		})
		require.True(t, ok)
		assert.Equal(t, "BTCUSDT", signal.Symbol)
		assert.Equal(t, "alpha", signal.BuyVenue)
		assert.Equal(t, "beta", signal.SellVenue)
		assert.True(t, signal.BuyPrice.Equal(dec("45000")))
		assert.True(t, signal.SellPrice.Equal(dec("45225")))
		assert.True(t, signal.Spread.Equal(dec("0.005")), "spread was %s", signal.Spread)
		// Sizing: 10% of 10000 committed at the buy price.
		wantQty := dec("1000").Div(dec("45000"))
		assert.True(t, signal.Quantity.Equal(wantQty))
		assert.True(t, signal.ExpectedProfit.Equal(dec("225").Mul(wantQty)))
		assert.False(t, signal.DetectedAt.IsZero())
	})

	t.Run("no signal below threshold", func(t *testing.T) {
		// 0.199% spread against a 0.2% threshold.
		_, ok := d.Detect("BTCUSDT", map[string]decimal.Decimal{
			"alpha": dec("100000"),
			"beta":  dec("100199"),
		})
		assert.False(t, ok)
	})

	t.Run("signal at exactly the threshold", func(t *testing.T) {
		signal, ok := d.Detect("BTCUSDT", map[string]decimal.Decimal{
			"alpha": dec("100000"),
			"beta":  dec("100200"),
		})
		require.True(t, ok)
		assert.True(t, signal.Spread.Equal(dec("0.002")))
	})

	t.Run("picks extreme venues out of many", func(t *testing.T) {
		signal, ok := d.Detect("ETHUSDT", map[string]decimal.Decimal{
			"alpha": dec("3010"),
			"beta":  dec("2990"),
			"gamma": dec("3025"),
			"delta": dec("3000"),
		})
		require.True(t, ok)
		assert.Equal(t, "beta", signal.BuyVenue)
		assert.Equal(t, "gamma", signal.SellVenue)
	})

	t.Run("tied minimum resolves lexicographically", func(t *testing.T) {
		signal, ok := d.Detect("BTCUSDT", map[string]decimal.Decimal{
			"beta":  dec("45000"),
			"alpha": dec("45000"),
			"gamma": dec("45225"),
		})
		require.True(t, ok)
		assert.Equal(t, "alpha", signal.BuyVenue)
		assert.Equal(t, "gamma", signal.SellVenue)
	})

	t.Run("tied maximum resolves lexicographically", func(t *testing.T) {
		signal, ok := d.Detect("BTCUSDT", map[string]decimal.Decimal{
			"alpha": dec("45000"),
			"gamma": dec("45225"),
			"beta":  dec("45225"),
		})
		require.True(t, ok)
		assert.Equal(t, "alpha", signal.BuyVenue)
		assert.Equal(t, "beta", signal.SellVenue)
	})

	t.Run("all venues tied produces no signal", func(t *testing.T) {
		_, ok := d.Detect("BTCUSDT", map[string]decimal.Decimal{
			"alpha": dec("45000"),
			"beta":  dec("45000"),
			"gamma": dec("45000"),
		})
		assert.False(t, ok)
	})

	t.Run("single venue produces no signal", func(t *testing.T) {
		_, ok := d.Detect("BTCUSDT", map[string]decimal.Decimal{
			"alpha": dec("45000"),
		})
		assert.False(t, ok)
	})

	t.Run("empty snapshot produces no signal", func(t *testing.T) {
		_, ok := d.Detect("BTCUSDT", map[string]decimal.Decimal{})
		assert.False(t, ok)
	})

	t.Run("zero price produces no signal", func(t *testing.T) {
		_, ok := d.Detect("BTCUSDT", map[string]decimal.Decimal{
			"alpha": decimal.Zero,
			"beta":  dec("45225"),
		})
		assert.False(t, ok)
	})
}

func TestDetectConfidence(t *testing.T) {
	d, err := New(testConfig())
	require.NoError(t, err)

	t.Run("wide spread caps at maximum", func(t *testing.T) {
		// 10% spread: spread*10 alone is 1.0, well above the cap.
		signal, ok := d.Detect("BTCUSDT", map[string]decimal.Decimal{
			"alpha": dec("40000"),
			"beta":  dec("44000"),
		})
		require.True(t, ok)
		assert.Equal(t, maxConfidence, signal.Confidence)
	})

	t.Run("narrow spread scores below the cap", func(t *testing.T) {
		// 0.5% spread: spread*10 = 0.05, stability just under 1, so the
		// score lands around 0.55.
		signal, ok := d.Detect("BTCUSDT", map[string]decimal.Decimal{
			"alpha": dec("45000"),
			"beta":  dec("45225"),
		})
		require.True(t, ok)
		assert.Less(t, signal.Confidence, maxConfidence)
		assert.InDelta(t, 0.5475, signal.Confidence, 0.001)
	})

	t.Run("wider spread means higher confidence", func(t *testing.T) {
		narrow, ok := d.Detect("BTCUSDT", map[string]decimal.Decimal{
			"alpha": dec("45000"),
			"beta":  dec("45135"), // 0.3%
		})
		require.True(t, ok)
		wide, ok := d.Detect("BTCUSDT", map[string]decimal.Decimal{
			"alpha": dec("45000"),
			"beta":  dec("45450"), // 1%
		})
		require.True(t, ok)
		assert.Greater(t, wide.Confidence, narrow.Confidence)
	})
}
