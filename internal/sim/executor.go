// Package sim is the paper execution engine: it resolves admitted orders
// through a simulated venue round trip (latency, slippage, random rejection)
// and owns the cash/position ledger those fills mutate.
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"arbSimBot/internal/domain"
	"arbSimBot/internal/ports"
)

// Config holds the simulation parameters.
type Config struct {
	LatencyMin  time.Duration   // Lower bound of the simulated network round trip
	LatencyMax  time.Duration   // Upper bound of the simulated network round trip
	SlippageMin decimal.Decimal // Lower bound of the adverse fill-price fraction
	SlippageMax decimal.Decimal // Upper bound of the adverse fill-price fraction
	FailureRate float64         // Probability a venue rejects an order outright
	FeeRate     decimal.Decimal // Fee fraction charged on every fill
}

// Simulator resolves orders asynchronously against the ledger it owns.
// Each order runs as its own goroutine; the ledger serializes the fills.
type Simulator struct {
	cfg    Config
	prices ports.ExchangePriceSource
	ledger *Ledger
	rand   ports.RandomSource
	logger ports.Logger
}

// New creates a simulator, validating the configuration.
func New(cfg Config, prices ports.ExchangePriceSource, ledger *Ledger, rnd ports.RandomSource, logger ports.Logger) (*Simulator, error) {
	if prices == nil || ledger == nil || rnd == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for simulator")
	}
	if cfg.LatencyMin < 0 || cfg.LatencyMax < cfg.LatencyMin {
		return nil, fmt.Errorf("latency range [%v, %v] is invalid", cfg.LatencyMin, cfg.LatencyMax)
	}
	if cfg.SlippageMin.IsNegative() || cfg.SlippageMax.LessThan(cfg.SlippageMin) {
		return nil, fmt.Errorf("slippage range [%s, %s] is invalid", cfg.SlippageMin, cfg.SlippageMax)
	}
	if cfg.FailureRate < 0 || cfg.FailureRate >= 1 {
		return nil, fmt.Errorf("failure rate %v must be in [0, 1)", cfg.FailureRate)
	}
	if cfg.FeeRate.IsNegative() {
		return nil, fmt.Errorf("fee rate cannot be negative")
	}
	return &Simulator{cfg: cfg, prices: prices, ledger: ledger, rand: rnd, logger: logger}, nil
}

// Ledger exposes the simulator's ledger for balance/position inspection.
func (s *Simulator) Ledger() *Ledger { return s.ledger }

// Execute resolves a single PENDING order to a terminal status, mutating it
// exactly once. Once dispatched an order always resolves to FILLED or
// REJECTED; there is no mid-flight abort, so shutdown must drain in-flight
// orders rather than cancel them.
func (s *Simulator) Execute(ctx context.Context, order *domain.Order) error {
	if order.Status != domain.StatusPending {
		return fmt.Errorf("%w: order %s is %s", ports.ErrOrderNotPending, order.ID, order.Status)
	}

	// 1. Network latency before the venue sees the order. Deliberately not
	// interruptible: a dispatched order must reach a terminal state.
	time.Sleep(s.latency())

	// 2. Re-read the reference price; it may have moved during the sleep.
	refPrice, err := s.prices.GetPrice(ctx, order.Symbol, order.Venue)
	if err != nil {
		s.logger.Warn(ctx, "Reference price unavailable at resolution, rejecting order", map[string]interface{}{
			"orderID": order.ID, "venue": order.Venue, "error": err.Error(),
		})
		s.reject(order, domain.RejectReasonVenueFailure)
		return nil
	}
	order.ReferencePrice = refPrice

	// 3. Venue-side rejection (rate limiting, matching engine hiccup).
	if s.rand.Float64() < s.cfg.FailureRate {
		s.logger.Debug(ctx, "Simulated venue rejection", map[string]interface{}{"orderID": order.ID, "venue": order.Venue})
		s.reject(order, domain.RejectReasonVenueFailure)
		return nil
	}

	// 4. Slippage always moves against the trader: buys fill above the
	// reference, sells below it.
	slip := s.slippage()
	var fillPrice decimal.Decimal
	if order.Side == domain.Buy {
		fillPrice = refPrice.Mul(decimal.NewFromInt(1).Add(slip))
	} else {
		fillPrice = refPrice.Mul(decimal.NewFromInt(1).Sub(slip))
	}

	// 5/6. Sufficiency is validated inside the ledger, atomically with the
	// mutation, so an invariant-violating fill can never commit.
	fee := order.Quantity.Mul(fillPrice).Mul(s.cfg.FeeRate)
	switch order.Side {
	case domain.Buy:
		err = s.ledger.ApplyBuy(order.Symbol, order.Quantity, fillPrice, fee)
		if err != nil {
			s.logger.Warn(ctx, "BUY rejected at fill time", map[string]interface{}{"orderID": order.ID, "error": err.Error()})
			s.reject(order, domain.RejectReasonInsufficientBalance)
			return nil
		}
	case domain.Sell:
		_, err = s.ledger.ApplySell(order.Symbol, order.Quantity, fillPrice, fee)
		if err != nil {
			s.logger.Warn(ctx, "SELL rejected at fill time", map[string]interface{}{"orderID": order.ID, "error": err.Error()})
			s.reject(order, domain.RejectReasonInsufficientPosition)
			return nil
		}
	}

	order.FillPrice = fillPrice
	order.Fee = fee
	order.Status = domain.StatusFilled
	order.ResolvedAt = time.Now().UTC()
	return nil
}

// ExecuteRoundTrip resolves both legs of an admitted signal: the BUY leg at
// the cheap venue, then the SELL leg at the expensive venue, which only runs
// if the BUY filled. A SELL leg skipped because its BUY failed is CANCELLED
// so every created order still reaches a terminal state.
func (s *Simulator) ExecuteRoundTrip(ctx context.Context, buyLeg, sellLeg *domain.Order) (*domain.TradeOutcome, error) {
	outcome := &domain.TradeOutcome{
		Symbol:      buyLeg.Symbol,
		BuyVenue:    buyLeg.Venue,
		SellVenue:   sellLeg.Venue,
		BuyOrderID:  buyLeg.ID,
		SellOrderID: sellLeg.ID,
		Quantity:    buyLeg.Quantity,
		Realized:    decimal.Zero,
		FeesPaid:    decimal.Zero,
		StartedAt:   time.Now().UTC(),
	}

	if err := s.Execute(ctx, buyLeg); err != nil {
		return nil, err
	}
	if buyLeg.Status != domain.StatusFilled {
		s.Cancel(sellLeg)
		outcome.FinishedAt = time.Now().UTC()
		return outcome, nil
	}
	outcome.FeesPaid = buyLeg.Fee

	// Cost basis the sell realizes against, fee included by the ledger.
	costBasis := buyLeg.Quantity.Mul(buyLeg.FillPrice).Add(buyLeg.Fee)

	if err := s.Execute(ctx, sellLeg); err != nil {
		return nil, err
	}
	outcome.FinishedAt = time.Now().UTC()

	if sellLeg.Status != domain.StatusFilled {
		// Position stays open; nothing realized yet.
		outcome.OpenExposure = true
		return outcome, nil
	}

	outcome.FeesPaid = outcome.FeesPaid.Add(sellLeg.Fee)
	outcome.Realized = sellLeg.Quantity.Mul(sellLeg.FillPrice).Sub(sellLeg.Fee).Sub(costBasis)
	outcome.Completed = true
	return outcome, nil
}

// Cancel marks a still-PENDING order CANCELLED. Orders already dispatched
// cannot be cancelled; they always drain to FILLED or REJECTED.
func (s *Simulator) Cancel(order *domain.Order) bool {
	if !order.Status.CanTransitionTo(domain.StatusCancelled) {
		return false
	}
	order.Status = domain.StatusCancelled
	order.ResolvedAt = time.Now().UTC()
	return true
}

func (s *Simulator) reject(order *domain.Order, reason domain.RejectReason) {
	order.Status = domain.StatusRejected
	order.RejectReason = reason
	order.ResolvedAt = time.Now().UTC()
}

// latency draws a uniform duration from the configured range.
func (s *Simulator) latency() time.Duration {
	span := s.cfg.LatencyMax - s.cfg.LatencyMin
	if span <= 0 {
		return s.cfg.LatencyMin
	}
	return s.cfg.LatencyMin + time.Duration(s.rand.Float64()*float64(span))
}

// slippage draws a uniform adverse fraction from the configured range.
func (s *Simulator) slippage() decimal.Decimal {
	span := s.cfg.SlippageMax.Sub(s.cfg.SlippageMin)
	if !span.IsPositive() {
		return s.cfg.SlippageMin
	}
	return s.cfg.SlippageMin.Add(span.Mul(decimal.NewFromFloat(s.rand.Float64())))
}
