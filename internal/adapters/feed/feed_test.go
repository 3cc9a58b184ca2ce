package feed

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbSimBot/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// stubVenue serves one fixed price or one fixed error.
type stubVenue struct {
	price decimal.Decimal
	err   error
}

func (s *stubVenue) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if s.err != nil {
		return decimal.Zero, s.err
	}
	return s.price, nil
}

// seqRandom replays a fixed sequence of draws, then repeats the last one.
type seqRandom struct {
	seq []float64
	idx int
}

func (r *seqRandom) Float64() float64 {
	if r.idx >= len(r.seq) {
		return r.seq[len(r.seq)-1]
	}
	v := r.seq[r.idx]
	r.idx++
	return v
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestMux(t *testing.T) {
	ctx := context.Background()

	t.Run("requires sources and a logger", func(t *testing.T) {
		_, err := NewMux(nil, &mockLogger{})
		assert.Error(t, err)
		_, err = NewMux(map[string]ports.VenuePriceSource{"alpha": &stubVenue{price: dec("1")}}, nil)
		assert.Error(t, err)
	})

	t.Run("GetPrice routes to the named venue", func(t *testing.T) {
		m, err := NewMux(map[string]ports.VenuePriceSource{
			"alpha": &stubVenue{price: dec("45000")},
			"beta":  &stubVenue{price: dec("45225")},
		}, &mockLogger{})
		require.NoError(t, err)

		p, err := m.GetPrice(ctx, "BTCUSDT", "beta")
		require.NoError(t, err)
		assert.True(t, p.Equal(dec("45225")))
	})

	t.Run("GetPrice rejects an unknown venue", func(t *testing.T) {
		m, err := NewMux(map[string]ports.VenuePriceSource{"alpha": &stubVenue{price: dec("45000")}}, &mockLogger{})
		require.NoError(t, err)

		_, err = m.GetPrice(ctx, "BTCUSDT", "omega")
		require.ErrorIs(t, err, ports.ErrUnknownVenue)
	})

	t.Run("GetPrice propagates a venue error", func(t *testing.T) {
		m, err := NewMux(map[string]ports.VenuePriceSource{"alpha": &stubVenue{err: ports.ErrNoQuote}}, &mockLogger{})
		require.NoError(t, err)

		_, err = m.GetPrice(ctx, "BTCUSDT", "alpha")
		require.ErrorIs(t, err, ports.ErrNoQuote)
	})

	t.Run("GetPrices skips failing and non-positive venues", func(t *testing.T) {
		m, err := NewMux(map[string]ports.VenuePriceSource{
			"alpha": &stubVenue{price: dec("45000")},
			"beta":  &stubVenue{err: ports.ErrNoQuote},
			"gamma": &stubVenue{price: decimal.Zero},
		}, &mockLogger{})
		require.NoError(t, err)

		quotes, err := m.GetPrices(ctx, "BTCUSDT")
		require.NoError(t, err)
		require.Len(t, quotes, 1)
		assert.True(t, quotes["alpha"].Equal(dec("45000")))
	})
}

func TestSynthetic(t *testing.T) {
	ctx := context.Background()

	baseCfg := func() SyntheticConfig {
		return SyntheticConfig{
			Venues:      []string{"alpha", "beta"},
			BasePrices:  map[string]decimal.Decimal{"BTCUSDT": dec("50000")},
			WalkStep:    0.001,
			VenueJitter: 0.003,
		}
	}

	t.Run("validates configuration", func(t *testing.T) {
		cfg := baseCfg()
		cfg.Venues = nil
		_, err := NewSynthetic(cfg, &seqRandom{seq: []float64{0.5}})
		assert.Error(t, err)

		cfg = baseCfg()
		cfg.BasePrices = nil
		_, err = NewSynthetic(cfg, &seqRandom{seq: []float64{0.5}})
		assert.Error(t, err)

		cfg = baseCfg()
		cfg.BasePrices = map[string]decimal.Decimal{"BTCUSDT": decimal.Zero}
		_, err = NewSynthetic(cfg, &seqRandom{seq: []float64{0.5}})
		assert.Error(t, err)

		_, err = NewSynthetic(baseCfg(), nil)
		assert.Error(t, err)
	})

	t.Run("unknown symbol has no quote", func(t *testing.T) {
		s, err := NewSynthetic(baseCfg(), &seqRandom{seq: []float64{0.5}})
		require.NoError(t, err)

		_, err = s.Venue("alpha").GetPrice(ctx, "DOGEUSDT")
		require.ErrorIs(t, err, ports.ErrNoQuote)
	})

	t.Run("midpoint draws leave the base price unchanged", func(t *testing.T) {
		// A 0.5 draw maps to a zero step and zero jitter.
		s, err := NewSynthetic(baseCfg(), &seqRandom{seq: []float64{0.5}})
		require.NoError(t, err)

		p, err := s.Venue("alpha").GetPrice(ctx, "BTCUSDT")
		require.NoError(t, err)
		assert.True(t, p.Equal(dec("50000")), "price was %s", p)
	})

	t.Run("venues diverge around a shared mid", func(t *testing.T) {
		// Walk step zero pins the mid; opposite jitter draws push the two
		// venues to opposite sides of it.
		cfg := baseCfg()
		cfg.WalkStep = 0
		s, err := NewSynthetic(cfg, &seqRandom{seq: []float64{0.5, 1.0 - 1e-9, 0.5, 0.0}})
		require.NoError(t, err)

		high, err := s.Venue("alpha").GetPrice(ctx, "BTCUSDT")
		require.NoError(t, err)
		low, err := s.Venue("beta").GetPrice(ctx, "BTCUSDT")
		require.NoError(t, err)

		assert.True(t, high.GreaterThan(dec("50000")))
		assert.True(t, low.LessThan(dec("50000")))
		// Jitter is bounded at ±0.3% of the mid.
		assert.True(t, high.LessThanOrEqual(dec("50150.0001")))
		assert.True(t, low.GreaterThanOrEqual(dec("49850")))
	})

	t.Run("quotes stay positive under extreme draws", func(t *testing.T) {
		s, err := NewSynthetic(baseCfg(), &seqRandom{seq: []float64{0.0}})
		require.NoError(t, err)

		for i := 0; i < 100; i++ {
			p, err := s.Venue("alpha").GetPrice(ctx, "BTCUSDT")
			require.NoError(t, err)
			assert.True(t, p.IsPositive())
		}
	})

	t.Run("sources cover every configured venue", func(t *testing.T) {
		s, err := NewSynthetic(baseCfg(), &seqRandom{seq: []float64{0.5}})
		require.NoError(t, err)

		sources := s.Sources()
		require.Len(t, sources, 2)
		assert.Contains(t, sources, "alpha")
		assert.Contains(t, sources, "beta")
	})
}
