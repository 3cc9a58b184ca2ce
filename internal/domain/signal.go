package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeSignal is a cross-venue price gap proposed by the detector.
// Signals are produced fresh each scan cycle and never persisted: once the
// risk gate consumes one it either becomes a pair of orders or is dropped.
type TradeSignal struct {
	Symbol         string          // Trading symbol (e.g., "BTCUSDT")
	BuyVenue       string          // Venue quoting the lowest price
	SellVenue      string          // Venue quoting the highest price
	BuyPrice       decimal.Decimal // Lowest venue price at detection
	SellPrice      decimal.Decimal // Highest venue price at detection
	Spread         decimal.Decimal // (SellPrice - BuyPrice) / BuyPrice
	Quantity       decimal.Decimal // Proposed size, bounded by the position fraction
	ExpectedProfit decimal.Decimal // (SellPrice - BuyPrice) * Quantity, pre-fee
	Confidence     float64         // Bounded score derived from spread and price symmetry
	DetectedAt     time.Time       // Timestamp of the scan that produced the signal
}
