package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"arbSimBot/internal/ports"
)

// SyntheticConfig parameterizes the synthetic multi-venue feed.
type SyntheticConfig struct {
	// Venues are the venue names quotes will be produced for.
	Venues []string
	// BasePrices seeds the shared mid price per symbol.
	BasePrices map[string]decimal.Decimal
	// WalkStep is the largest fractional move of the mid price per quote
	// (e.g., 0.001 moves the mid up to ±0.1% each step).
	WalkStep float64
	// VenueJitter is the largest fractional divergence of one venue's
	// quote from the shared mid (e.g., 0.003). Spreads only appear when
	// venues diverge, so a zero jitter produces no opportunities.
	VenueJitter float64
}

// Synthetic produces correlated random-walk quotes for a set of venues: one
// shared mid price per symbol, plus a per-venue divergence so detectable
// spreads occur at a controllable rate.
type Synthetic struct {
	cfg  SyntheticConfig
	rand ports.RandomSource

	mu   sync.Mutex
	mids map[string]decimal.Decimal
}

// NewSynthetic creates the shared feed state. Per-venue handles come from
// Venue and plug into the mux like any live adapter.
func NewSynthetic(cfg SyntheticConfig, rnd ports.RandomSource) (*Synthetic, error) {
	if rnd == nil {
		return nil, fmt.Errorf("random source is required for synthetic feed")
	}
	if len(cfg.Venues) == 0 {
		return nil, fmt.Errorf("synthetic feed requires at least one venue")
	}
	if len(cfg.BasePrices) == 0 {
		return nil, fmt.Errorf("synthetic feed requires base prices")
	}
	if cfg.WalkStep < 0 || cfg.VenueJitter < 0 {
		return nil, fmt.Errorf("walk step and venue jitter cannot be negative")
	}
	mids := make(map[string]decimal.Decimal, len(cfg.BasePrices))
	for sym, p := range cfg.BasePrices {
		if !p.IsPositive() {
			return nil, fmt.Errorf("base price for %s must be positive", sym)
		}
		mids[sym] = p
	}
	return &Synthetic{cfg: cfg, rand: rnd, mids: mids}, nil
}

// Venue returns the price-source handle for one named venue.
func (s *Synthetic) Venue(name string) ports.VenuePriceSource {
	return &syntheticVenue{feed: s, name: name}
}

// Sources returns all venue handles keyed by name, ready for the mux.
func (s *Synthetic) Sources() map[string]ports.VenuePriceSource {
	out := make(map[string]ports.VenuePriceSource, len(s.cfg.Venues))
	for _, v := range s.cfg.Venues {
		out[v] = s.Venue(v)
	}
	return out
}

// quote advances the shared mid one walk step and applies this venue's
// divergence draw.
func (s *Synthetic) quote(symbol string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mid, ok := s.mids[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ports.ErrNoQuote, symbol)
	}

	// Mid random walk, symmetric around zero.
	step := (s.rand.Float64()*2 - 1) * s.cfg.WalkStep
	mid = mid.Mul(decimal.NewFromFloat(1 + step))
	s.mids[symbol] = mid

	jitter := (s.rand.Float64()*2 - 1) * s.cfg.VenueJitter
	return mid.Mul(decimal.NewFromFloat(1 + jitter)), nil
}

type syntheticVenue struct {
	feed *Synthetic
	name string
}

func (v *syntheticVenue) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return v.feed.quote(symbol)
}
