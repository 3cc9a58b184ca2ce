package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeOutcome records the result of one arbitrage round trip: the BUY leg
// at the cheap venue plus the SELL leg at the expensive venue. Realized is
// only meaningful once the SELL leg filled; a round trip whose SELL leg was
// rejected leaves the position open and Completed false.
type TradeOutcome struct {
	Symbol       string          // Trading symbol
	BuyVenue     string          // Venue of the BUY leg
	SellVenue    string          // Venue of the SELL leg
	BuyOrderID   string          // Order ID of the BUY leg ("" if never created)
	SellOrderID  string          // Order ID of the SELL leg ("" if never created)
	Quantity     decimal.Decimal // Round-trip size
	Realized     decimal.Decimal // Net realized profit, fees of both legs included
	FeesPaid     decimal.Decimal // Total fees across both legs
	Completed    bool            // Both legs FILLED
	OpenExposure bool            // BUY filled but SELL did not; position left open
	StartedAt    time.Time       // When the BUY leg was dispatched
	FinishedAt   time.Time       // When the last leg resolved
}

// RiskSnapshot is a point-in-time copy of the risk state, taken after each
// settle and appended to the trade log as the audit trail.
type RiskSnapshot struct {
	DailyPnL          decimal.Decimal
	DailyTradeCount   int
	ConsecutiveLosses int
	Halted            bool
	HaltReason        string
	TakenAt           time.Time
}
