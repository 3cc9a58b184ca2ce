// Package detector scans per-venue price snapshots for cross-exchange
// arbitrage opportunities. Detection is a pure function over the snapshot it
// is given: it never fetches prices and never mutates shared state.
package detector

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"arbSimBot/internal/domain"
)

const maxConfidence = 0.95

// Config holds the detector parameters.
type Config struct {
	// MinSpreadThreshold is the minimum fractional gap between the highest
	// and lowest venue price for a signal to be produced (e.g., 0.002).
	MinSpreadThreshold decimal.Decimal
	// MaxPositionFraction bounds the proposed quantity: at most this
	// fraction of the starting balance is committed to one trade.
	MaxPositionFraction decimal.Decimal
	// StartingBalance is the session bankroll used for sizing.
	StartingBalance decimal.Decimal
}

// Detector proposes trade signals from venue price maps.
type Detector struct {
	cfg Config
}

// New creates a detector, validating the configuration.
func New(cfg Config) (*Detector, error) {
	if cfg.MinSpreadThreshold.IsNegative() {
		return nil, fmt.Errorf("MinSpreadThreshold cannot be negative")
	}
	if !cfg.MaxPositionFraction.IsPositive() || cfg.MaxPositionFraction.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("MaxPositionFraction must be in (0, 1]")
	}
	if !cfg.StartingBalance.IsPositive() {
		return nil, fmt.Errorf("StartingBalance must be positive")
	}
	return &Detector{cfg: cfg}, nil
}

// Detect inspects the given venue quotes for symbol and proposes a signal if
// the spread between the extreme venues exceeds the configured threshold.
// The map must carry at least two venues; stale or missing quotes are the
// caller's responsibility and are expected to simply be absent.
//
// Tie-break rule: among venues tied for the minimum price the
// lexicographically first is the buy venue; the sell venue is chosen the same
// way among the remaining venues tied for the maximum, so the two venues are
// always distinct. If every venue quotes the same price the spread is zero
// and no signal is produced.
func (d *Detector) Detect(symbol string, pricesByVenue map[string]decimal.Decimal) (domain.TradeSignal, bool) {
	if len(pricesByVenue) < 2 {
		return domain.TradeSignal{}, false
	}

	venues := make([]string, 0, len(pricesByVenue))
	for v := range pricesByVenue {
		venues = append(venues, v)
	}
	sort.Strings(venues)

	buyVenue := venues[0]
	minPrice := pricesByVenue[buyVenue]
	for _, v := range venues[1:] {
		if pricesByVenue[v].LessThan(minPrice) {
			buyVenue = v
			minPrice = pricesByVenue[v]
		}
	}

	sellVenue := ""
	maxPrice := decimal.Zero
	for _, v := range venues {
		if v == buyVenue {
			continue
		}
		if sellVenue == "" || pricesByVenue[v].GreaterThan(maxPrice) {
			sellVenue = v
			maxPrice = pricesByVenue[v]
		}
	}

	if !minPrice.IsPositive() || !maxPrice.GreaterThan(minPrice) {
		// Zero, negative, or flat quotes never yield a tradeable gap.
		return domain.TradeSignal{}, false
	}

	gap := maxPrice.Sub(minPrice)
	spread := gap.Div(minPrice)
	if spread.LessThan(d.cfg.MinSpreadThreshold) {
		return domain.TradeSignal{}, false
	}

	quantity := d.cfg.StartingBalance.Mul(d.cfg.MaxPositionFraction).Div(minPrice)
	expectedProfit := gap.Mul(quantity)

	return domain.TradeSignal{
		Symbol:         symbol,
		BuyVenue:       buyVenue,
		SellVenue:      sellVenue,
		BuyPrice:       minPrice,
		SellPrice:      maxPrice,
		Spread:         spread,
		Quantity:       quantity,
		ExpectedProfit: expectedProfit,
		Confidence:     confidence(spread, minPrice, maxPrice),
		DetectedAt:     time.Now().UTC(),
	}, true
}

// confidence scores a signal from its spread and the symmetry of the two
// extreme prices: a wide gap between otherwise close prices is more likely a
// real inefficiency than feed noise. Bounded at maxConfidence.
func confidence(spread, minPrice, maxPrice decimal.Decimal) float64 {
	avg := minPrice.Add(maxPrice).Div(decimal.NewFromInt(2))
	stability := 1 - maxPrice.Sub(minPrice).Div(avg).InexactFloat64()
	score := spread.InexactFloat64()*10 + stability*0.5
	return math.Min(maxConfidence, score)
}
