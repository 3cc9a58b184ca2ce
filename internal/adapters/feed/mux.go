// Package feed composes per-venue price sources into the aggregate price
// map the detector scans, and provides a synthetic multi-venue feed for
// paper sessions that need no network.
package feed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"arbSimBot/internal/ports"
)

// Mux implements ports.ExchangePriceSource over a set of named per-venue
// sources. A venue whose source fails a quote is simply absent from the map;
// the detector treats a thin map as "no signal", not an error.
type Mux struct {
	sources map[string]ports.VenuePriceSource
	logger  ports.Logger
}

// NewMux creates a price mux over the given venue sources.
func NewMux(sources map[string]ports.VenuePriceSource, logger ports.Logger) (*Mux, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for price mux")
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("price mux requires at least one venue source")
	}
	return &Mux{sources: sources, logger: logger}, nil
}

// GetPrice retrieves the current price for a symbol at a named venue.
func (m *Mux) GetPrice(ctx context.Context, symbol, venue string) (decimal.Decimal, error) {
	src, ok := m.sources[venue]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ports.ErrUnknownVenue, venue)
	}
	price, err := src.GetPrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("venue %q quote for %s failed: %w", venue, symbol, err)
	}
	return price, nil
}

// GetPrices retrieves the symbol's price at every venue that currently has
// a usable quote.
func (m *Mux) GetPrices(ctx context.Context, symbol string) (map[string]decimal.Decimal, error) {
	quotes := make(map[string]decimal.Decimal, len(m.sources))
	for venue, src := range m.sources {
		price, err := src.GetPrice(ctx, symbol)
		if err != nil {
			m.logger.Debug(ctx, "Venue quote unavailable, skipping for this cycle", map[string]interface{}{
				"venue": venue, "symbol": symbol, "error": err.Error(),
			})
			continue
		}
		if !price.IsPositive() {
			continue
		}
		quotes[venue] = price
	}
	return quotes, nil
}
