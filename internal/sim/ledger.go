package sim

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"arbSimBot/internal/ports"
)

// positionState tracks one symbol's net quantity and its fee-inclusive
// average cost, so the realized profit of a closing SELL already accounts
// for what the opening BUY cost in fees.
type positionState struct {
	Qty     decimal.Decimal
	AvgCost decimal.Decimal
}

// Ledger is the cash balance and per-symbol position book, exclusively owned
// by the execution simulator. It mutates only on an order's transition to
// FILLED, atomically with the fee deduction, so the conservation law over
// the balance holds exactly fill by fill.
type Ledger struct {
	mu           sync.Mutex
	startingCash decimal.Decimal
	cash         decimal.Decimal
	positions    map[string]positionState
}

// NewLedger constructs a ledger seeded with the starting cash balance.
func NewLedger(startingCash decimal.Decimal) (*Ledger, error) {
	if !startingCash.IsPositive() {
		return nil, fmt.Errorf("starting cash must be positive")
	}
	return &Ledger{
		startingCash: startingCash,
		cash:         startingCash,
		positions:    make(map[string]positionState),
	}, nil
}

// StartingCash returns the initial bankroll.
func (l *Ledger) StartingCash() decimal.Decimal { return l.startingCash }

// Balance returns the current cash balance.
func (l *Ledger) Balance() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

// Position returns the net quantity held for a symbol.
func (l *Ledger) Position(symbol string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.positions[symbol].Qty
}

// ApplyBuy commits a BUY fill: cash decreases by cost plus fee and the
// position's average cost absorbs the fee. Returns ErrInsufficientFunds
// without mutating anything if cash cannot cover cost plus fee.
func (l *Ledger) ApplyBuy(symbol string, qty, fillPrice, fee decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cost := qty.Mul(fillPrice)
	total := cost.Add(fee)
	if l.cash.LessThan(total) {
		return fmt.Errorf("%w: need %s, have %s", ports.ErrInsufficientFunds, total, l.cash)
	}

	state := l.positions[symbol]
	newQty := state.Qty.Add(qty)
	// Average cost carries the fee so a later sell realizes net of it.
	newAvg := state.AvgCost.Mul(state.Qty).Add(total).Div(newQty)

	l.cash = l.cash.Sub(total)
	l.positions[symbol] = positionState{Qty: newQty, AvgCost: newAvg}
	return nil
}

// ApplySell commits a SELL fill: cash increases by proceeds minus fee and
// the realized profit against the average cost basis is returned. Returns
// ErrInsufficientPosition without mutating anything if the held quantity
// cannot cover the sale.
func (l *Ledger) ApplySell(symbol string, qty, fillPrice, fee decimal.Decimal) (realized decimal.Decimal, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state := l.positions[symbol]
	if state.Qty.LessThan(qty) {
		return decimal.Zero, fmt.Errorf("%w: need %s, have %s", ports.ErrInsufficientPosition, qty, state.Qty)
	}

	proceeds := qty.Mul(fillPrice)
	realized = proceeds.Sub(fee).Sub(state.AvgCost.Mul(qty))

	l.cash = l.cash.Add(proceeds).Sub(fee)
	newQty := state.Qty.Sub(qty)
	if newQty.IsZero() {
		delete(l.positions, symbol)
	} else {
		l.positions[symbol] = positionState{Qty: newQty, AvgCost: state.AvgCost}
	}
	return realized, nil
}
