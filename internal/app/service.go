package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"arbSimBot/config"
	"arbSimBot/internal/detector"
	"arbSimBot/internal/domain"
	"arbSimBot/internal/ports"
	"arbSimBot/internal/risk"
	"arbSimBot/internal/sim"
)

// sessionState is the trading session's state machine. HALTED is terminal
// for the session: only an explicit new-day reset before the next Start
// could clear it.
type sessionState string

const (
	stateRunning sessionState = "RUNNING"
	stateHalted  sessionState = "HALTED"
)

// tradeResult carries a resolved round trip from its execution goroutine to
// the single settle path.
type tradeResult struct {
	buyLeg  *domain.Order
	sellLeg *domain.Order
	outcome *domain.TradeOutcome
}

// ArbService drives the scan-evaluate-execute loop: it pulls signals from
// the detector, pushes them through the risk gate, dispatches admitted
// signals to the execution simulator, and feeds completed round trips back
// into the gate. The loop itself is single-threaded; only execution
// simulation runs concurrently.
type ArbService struct {
	cfg       *config.Config
	logger    ports.Logger
	prices    ports.ExchangePriceSource
	detector  *detector.Detector
	gate      *risk.Gate
	simulator *sim.Simulator
	tradeRepo ports.TradeLogRepository

	// In-flight executions, capped at MaxConcurrentPositions. Signals
	// admitted while the cap is reached are dropped, never queued.
	mu       sync.Mutex
	inFlight int
	state    sessionState

	wg      sync.WaitGroup
	results chan tradeResult
}

// NewArbService creates a new application service instance.
func NewArbService(
	cfg *config.Config,
	logger ports.Logger,
	prices ports.ExchangePriceSource,
	det *detector.Detector,
	gate *risk.Gate,
	simulator *sim.Simulator,
	tradeRepo ports.TradeLogRepository,
) (*ArbService, error) {
	if cfg == nil || logger == nil || prices == nil || det == nil || gate == nil || simulator == nil || tradeRepo == nil {
		return nil, fmt.Errorf("missing required dependencies for ArbService")
	}
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("configuration Symbols must not be empty")
	}
	if cfg.MaxConcurrentPositions <= 0 {
		return nil, fmt.Errorf("configuration MaxConcurrentPositions must be positive")
	}
	if cfg.ScanInterval <= 0 {
		return nil, fmt.Errorf("configuration ScanInterval must be positive")
	}

	return &ArbService{
		cfg:       cfg,
		logger:    logger,
		prices:    prices,
		detector:  det,
		gate:      gate,
		simulator: simulator,
		tradeRepo: tradeRepo,
		state:     stateRunning,
	}, nil
}

// StartNewDay resets the gate's daily counters. Exposed for an external
// scheduler; the service never resets implicitly.
func (s *ArbService) StartNewDay(ctx context.Context) {
	s.gate.StartNewDay()
	s.mu.Lock()
	s.state = stateRunning
	s.mu.Unlock()
	s.logger.Info(ctx, "New trading day started, risk counters reset")
}

// Start runs the scan loop until the context is cancelled or the risk gate
// halts the session. In-flight executions are always drained to a terminal
// state before Start returns; a forced abort would leave the ledger
// ambiguous.
func (s *ArbService) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting arbitrage service...", map[string]interface{}{
		"symbols":      s.cfg.Symbols,
		"scanInterval": s.cfg.ScanInterval.String(),
		"maxInFlight":  s.cfg.MaxConcurrentPositions,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	// Single settle path: one consumer serializes gate updates and audit
	// writes for all concurrently resolving trades.
	s.results = make(chan tradeResult, s.cfg.MaxConcurrentPositions)
	consumerDone := make(chan struct{})
	go s.consumeResults(s.results, consumerDone)

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	var exitErr error
loop:
	for {
		if halted, reason := s.gate.Halted(); halted {
			s.mu.Lock()
			s.state = stateHalted
			s.mu.Unlock()
			s.logger.Warn(ctx, "Risk gate halted trading, stopping scan loop", map[string]interface{}{"reason": reason})
			break loop
		}

		s.runCycle(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Context cancelled, initiating shutdown...")
			break loop
		case <-ticker.C:
		}
	}

	// Drain: wait for every dispatched execution, then let the consumer
	// finish settling what drained in.
	s.logger.Info(ctx, "Waiting for in-flight executions to drain...")
	s.wg.Wait()
	close(s.results)
	<-consumerDone

	s.logger.Info(ctx, "Arbitrage service stopped.", map[string]interface{}{
		"finalBalance": s.simulator.Ledger().Balance().String(),
	})
	return exitErr
}

// runCycle performs one scan over the tracked symbols. Per-symbol failures
// are logged and skipped; nothing in a cycle may take the loop down.
func (s *ArbService) runCycle(ctx context.Context) {
	for _, symbol := range s.cfg.Symbols {
		quotes, err := s.prices.GetPrices(ctx, symbol)
		if err != nil {
			s.logger.Warn(ctx, "Failed to fetch venue prices, skipping symbol this cycle", map[string]interface{}{
				"symbol": symbol, "error": err.Error(),
			})
			continue
		}

		signal, ok := s.detector.Detect(symbol, quotes)
		if !ok {
			continue
		}
		s.logger.Info(ctx, "Opportunity detected", map[string]interface{}{
			"symbol":     symbol,
			"buyVenue":   signal.BuyVenue,
			"sellVenue":  signal.SellVenue,
			"spread":     signal.Spread.String(),
			"confidence": signal.Confidence,
		})

		approved, reason := s.gate.Admit(signal)
		if !approved {
			s.logger.Info(ctx, "Signal rejected by risk gate", map[string]interface{}{"symbol": symbol, "reason": reason})
			continue
		}

		if !s.acquireSlot() {
			s.logger.Warn(ctx, "Max concurrent positions reached, dropping admitted signal", map[string]interface{}{
				"symbol": symbol, "maxInFlight": s.cfg.MaxConcurrentPositions,
			})
			continue
		}

		s.dispatch(ctx, signal)
	}
}

// dispatch creates the two order legs for an admitted signal and hands them
// to the simulator on a fresh goroutine. Fire-and-forget from the loop's
// perspective, but tracked by the WaitGroup so shutdown can drain.
func (s *ArbService) dispatch(ctx context.Context, signal domain.TradeSignal) {
	now := time.Now().UTC()
	buyLeg := &domain.Order{
		ID:             uuid.NewString(),
		Symbol:         signal.Symbol,
		Side:           domain.Buy,
		Quantity:       signal.Quantity,
		ReferencePrice: signal.BuyPrice,
		Type:           domain.Market,
		Venue:          signal.BuyVenue,
		Status:         domain.StatusPending,
		CreatedAt:      now,
	}
	sellLeg := &domain.Order{
		ID:             uuid.NewString(),
		Symbol:         signal.Symbol,
		Side:           domain.Sell,
		Quantity:       signal.Quantity,
		ReferencePrice: signal.SellPrice,
		Type:           domain.Market,
		Venue:          signal.SellVenue,
		Status:         domain.StatusPending,
		CreatedAt:      now,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.releaseSlot()

		outcome, err := s.simulator.ExecuteRoundTrip(ctx, buyLeg, sellLeg)
		if err != nil {
			s.logger.Error(ctx, err, "Round trip execution failed", map[string]interface{}{"buyOrderID": buyLeg.ID})
			return
		}
		// The channel is only closed after wg.Wait returns, so this send
		// can never hit a closed channel.
		s.results <- tradeResult{buyLeg: buyLeg, sellLeg: sellLeg, outcome: outcome}
	}()
}

// consumeResults is the single settle path: it applies completed round trips
// to the risk gate and appends the audit records.
func (s *ArbService) consumeResults(results <-chan tradeResult, done chan<- struct{}) {
	defer close(done)
	ctx := context.Background()
	for res := range results {
		s.processResult(ctx, res)
	}
}

func (s *ArbService) processResult(ctx context.Context, res tradeResult) {
	if res.outcome.Completed {
		s.gate.Settle(res.outcome)
	}
	snap := s.gate.Snapshot()

	for _, leg := range []*domain.Order{res.buyLeg, res.sellLeg} {
		if leg == nil || !leg.IsTerminal() {
			continue
		}
		if err := s.tradeRepo.LogOrder(ctx, leg); err != nil {
			s.logger.Error(ctx, err, "Failed to append order to trade log", map[string]interface{}{"orderID": leg.ID})
		}
	}
	if res.outcome.Completed {
		if err := s.tradeRepo.LogOutcome(ctx, res.outcome, snap); err != nil {
			s.logger.Error(ctx, err, "Failed to append outcome to trade log", map[string]interface{}{"symbol": res.outcome.Symbol})
		}
		s.logger.Info(ctx, "Round trip settled", map[string]interface{}{
			"symbol":     res.outcome.Symbol,
			"realized":   res.outcome.Realized.String(),
			"dailyPnL":   snap.DailyPnL.String(),
			"dailyCount": snap.DailyTradeCount,
			"halted":     snap.Halted,
		})
	} else {
		s.logger.Warn(ctx, "Round trip did not complete", map[string]interface{}{
			"symbol":       res.outcome.Symbol,
			"openExposure": res.outcome.OpenExposure,
		})
	}
}

func (s *ArbService) acquireSlot() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight >= s.cfg.MaxConcurrentPositions {
		return false
	}
	s.inFlight++
	return true
}

func (s *ArbService) releaseSlot() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
}
