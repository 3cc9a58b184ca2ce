package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order represents one leg of a simulated arbitrage trade. An order is
// created PENDING by the orchestrator and mutated exactly once, by the
// execution simulator, when it resolves to a terminal status.
type Order struct {
	ID             string          // UUID assigned at creation
	Symbol         string          // Trading symbol (e.g., "BTCUSDT")
	Side           OrderSide       // BUY or SELL
	Quantity       decimal.Decimal // Requested size
	ReferencePrice decimal.Decimal // Venue quote at creation time
	FillPrice      decimal.Decimal // Actual fill price after slippage (zero unless FILLED)
	Fee            decimal.Decimal // Fee charged on fill (zero unless FILLED)
	Type           OrderType       // Order kind (MARKET)
	Venue          string          // Venue the order targets
	Status         OrderStatus     // Lifecycle state
	RejectReason   RejectReason    // Populated when Status is REJECTED
	CreatedAt      time.Time       // When the orchestrator created the order
	ResolvedAt     time.Time       // When the simulator resolved it (zero while PENDING)
}

// IsTerminal reports whether the order has reached a terminal status.
func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}
