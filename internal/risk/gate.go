// Package risk implements the admission gate that decides whether a detected
// opportunity may proceed to execution, and the latched circuit breaker that
// halts the session when loss or frequency limits trip.
package risk

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"arbSimBot/internal/domain"
)

// Config holds the risk gate limits.
type Config struct {
	MaxDailyTrades         int             // Hard cap on settled round trips per day
	DailyLossLimitFraction decimal.Decimal // Fraction of starting balance tolerated as daily loss
	MaxConsecutiveLosses   int             // Losing streak that trips the breaker
	MaxPositionFraction    decimal.Decimal // Largest fraction of starting balance per trade
	MinSpreadThreshold     decimal.Decimal // Defensive re-check of the detector's threshold
	StartingBalance        decimal.Decimal // Session bankroll the fractions apply to
}

// Gate is the single authoritative holder of mutable risk state. Every
// mutation goes through Settle or StartNewDay under one mutex so that
// concurrently resolving trades cannot lose an update.
type Gate struct {
	cfg Config

	mu                sync.Mutex
	dailyPnL          decimal.Decimal
	dailyTradeCount   int
	consecutiveLosses int
	halted            bool
	haltReason        string
}

// New creates a risk gate, validating the configuration.
func New(cfg Config) (*Gate, error) {
	if cfg.MaxDailyTrades <= 0 {
		return nil, fmt.Errorf("MaxDailyTrades must be positive")
	}
	if !cfg.DailyLossLimitFraction.IsPositive() {
		return nil, fmt.Errorf("DailyLossLimitFraction must be positive")
	}
	if cfg.MaxConsecutiveLosses <= 0 {
		return nil, fmt.Errorf("MaxConsecutiveLosses must be positive")
	}
	if !cfg.MaxPositionFraction.IsPositive() {
		return nil, fmt.Errorf("MaxPositionFraction must be positive")
	}
	if !cfg.StartingBalance.IsPositive() {
		return nil, fmt.Errorf("StartingBalance must be positive")
	}
	return &Gate{cfg: cfg, dailyPnL: decimal.Zero}, nil
}

// Admit evaluates a signal against the current risk state. It is read-only:
// approving a signal reserves nothing. The rejection predicates run in a
// fixed order and the first failing reason is reported.
func (g *Gate) Admit(signal domain.TradeSignal) (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	// 1. Latched halt short-circuits everything else.
	if g.halted {
		return false, fmt.Sprintf("trading halted: %s", g.haltReason)
	}

	// 2. Daily trade limit.
	if g.dailyTradeCount >= g.cfg.MaxDailyTrades {
		return false, fmt.Sprintf("daily trade limit reached (%d/%d)", g.dailyTradeCount, g.cfg.MaxDailyTrades)
	}

	// 3. Daily loss limit.
	if g.dailyPnL.LessThanOrEqual(g.lossLimit().Neg()) {
		return false, fmt.Sprintf("daily loss limit reached (pnl %s, limit %s)", g.dailyPnL, g.lossLimit().Neg())
	}

	// 4. Consecutive losses.
	if g.consecutiveLosses >= g.cfg.MaxConsecutiveLosses {
		return false, fmt.Sprintf("consecutive loss limit reached (%d/%d)", g.consecutiveLosses, g.cfg.MaxConsecutiveLosses)
	}

	// 5. Position size.
	notional := signal.Quantity.Mul(signal.BuyPrice)
	maxNotional := g.cfg.StartingBalance.Mul(g.cfg.MaxPositionFraction)
	if notional.GreaterThan(maxNotional) {
		return false, fmt.Sprintf("position size %s exceeds maximum allowed %s", notional, maxNotional)
	}

	// 6. Spread re-check; the detector should already guarantee this.
	if signal.Spread.LessThan(g.cfg.MinSpreadThreshold) {
		return false, fmt.Sprintf("spread %s below threshold %s", signal.Spread, g.cfg.MinSpreadThreshold)
	}

	return true, ""
}

// Settle applies one completed round trip to the risk state. It must be
// called exactly once per settled trade. After mutating the counters it
// re-evaluates the halt predicates and latches the halted flag, so a later
// Admit short-circuits without re-deriving thresholds.
func (g *Gate) Settle(outcome *domain.TradeOutcome) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.dailyTradeCount++
	g.dailyPnL = g.dailyPnL.Add(outcome.Realized)
	if outcome.Realized.IsNegative() {
		g.consecutiveLosses++
	} else {
		g.consecutiveLosses = 0
	}

	g.relatchLocked()
}

// relatchLocked recomputes the latched halt flag from the current counters.
// Caller must hold g.mu.
func (g *Gate) relatchLocked() {
	switch {
	case g.dailyTradeCount >= g.cfg.MaxDailyTrades:
		g.halted = true
		g.haltReason = "daily trade limit reached"
	case g.dailyPnL.LessThanOrEqual(g.lossLimit().Neg()):
		g.halted = true
		g.haltReason = "daily loss limit reached"
	case g.consecutiveLosses >= g.cfg.MaxConsecutiveLosses:
		g.halted = true
		g.haltReason = "consecutive loss limit reached"
	}
}

// Halted reports whether the circuit breaker has latched.
func (g *Gate) Halted() (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.halted, g.haltReason
}

// StartNewDay resets the daily counters and clears the latch. It is the only
// reset path; counters never reset implicitly.
func (g *Gate) StartNewDay() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dailyPnL = decimal.Zero
	g.dailyTradeCount = 0
	g.consecutiveLosses = 0
	g.halted = false
	g.haltReason = ""
}

// Snapshot returns a point-in-time copy of the risk state for the audit log.
func (g *Gate) Snapshot() domain.RiskSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return domain.RiskSnapshot{
		DailyPnL:          g.dailyPnL,
		DailyTradeCount:   g.dailyTradeCount,
		ConsecutiveLosses: g.consecutiveLosses,
		Halted:            g.halted,
		HaltReason:        g.haltReason,
		TakenAt:           time.Now().UTC(),
	}
}

func (g *Gate) lossLimit() decimal.Decimal {
	return g.cfg.DailyLossLimitFraction.Mul(g.cfg.StartingBalance)
}
