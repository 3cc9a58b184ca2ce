package domain

// OrderSide represents the side of an order (BUY or SELL).
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// Opposite returns the other side.
func (s OrderSide) Opposite() OrderSide {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderType represents the kind of order placed at a venue.
type OrderType string

const (
	// Market is the only order type the simulator produces; the fill
	// price is the venue reference price adjusted by slippage.
	Market OrderType = "MARKET"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusFilled    OrderStatus = "FILLED"
	StatusRejected  OrderStatus = "REJECTED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition is allowed from the status.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusFilled, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is a legal
// lifecycle transition. Terminal states allow no transitions.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s != StatusPending {
		return false
	}
	return next.IsTerminal()
}

// RejectReason indicates why an order resolved REJECTED.
type RejectReason string

const (
	RejectReasonNone                 RejectReason = ""
	RejectReasonVenueFailure         RejectReason = "VENUE_FAILURE"
	RejectReasonInsufficientBalance  RejectReason = "INSUFFICIENT_BALANCE"
	RejectReasonInsufficientPosition RejectReason = "INSUFFICIENT_POSITION"
)
