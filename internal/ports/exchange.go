package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"arbSimBot/internal/domain"
)

// VenuePriceSource supplies the current price quoted by a single venue.
// Implementations (REST poll, websocket feed) are adapters; the core depends
// only on this capability.
type VenuePriceSource interface {
	// GetPrice retrieves the venue's current price for a symbol.
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// ExchangePriceSource aggregates per-venue quotes for the detector and the
// execution simulator.
type ExchangePriceSource interface {
	// GetPrice retrieves the current price for a symbol at a named venue.
	GetPrice(ctx context.Context, symbol, venue string) (decimal.Decimal, error)

	// GetPrices retrieves the current price for a symbol at every venue
	// that has a quote available. Venues with no usable quote are simply
	// absent from the map; fewer than two entries means no detection is
	// possible this cycle.
	GetPrices(ctx context.Context, symbol string) (map[string]decimal.Decimal, error)
}

// OrderPlacer is the real-venue boundary a live implementation would replace
// the simulator with. The simulator never calls it.
type OrderPlacer interface {
	// PlaceOrder submits a market order and returns the fill price and
	// fees actually charged by the venue.
	PlaceOrder(ctx context.Context, venue, symbol string, side domain.OrderSide, quantity decimal.Decimal) (fillPrice, fees decimal.Decimal, err error)
}
