// simrunner drives the full detect-admit-execute pipeline against the
// synthetic feed for a fixed number of scan cycles with a seeded random
// source, then prints the session report. Useful for reproducible parameter
// sweeps without waiting real scan intervals.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"arbSimBot/config"
	"arbSimBot/internal/adapters/feed"
	"arbSimBot/internal/adapters/logger"
	"arbSimBot/internal/analytics"
	"arbSimBot/internal/detector"
	"arbSimBot/internal/domain"
	"arbSimBot/internal/risk"
	"arbSimBot/internal/sim"
)

var (
	cycles = flag.Int("cycles", 500, "Number of scan cycles to run")
	seed   = flag.Int64("seed", 1, "Random source seed (same seed, same session)")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	appLogger := logger.NewStdLogger(logger.LevelWarn) // Keep the run quiet; the report is the output

	rnd := sim.NewRandomSource(*seed)

	basePrices := make(map[string]decimal.Decimal, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		basePrices[s] = cfg.SyntheticBasePrice
	}
	synthetic, err := feed.NewSynthetic(feed.SyntheticConfig{
		Venues:      cfg.Venues,
		BasePrices:  basePrices,
		WalkStep:    cfg.SyntheticWalkStep,
		VenueJitter: cfg.SyntheticVenueJitter,
	}, rnd)
	if err != nil {
		log.Fatalf("FATAL: Failed to build synthetic feed: %v", err)
	}
	prices, err := feed.NewMux(synthetic.Sources(), appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to build price mux: %v", err)
	}

	det, err := detector.New(detector.Config{
		MinSpreadThreshold:  cfg.MinSpreadThreshold,
		MaxPositionFraction: cfg.MaxPositionFraction,
		StartingBalance:     cfg.StartingBalance,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to build detector: %v", err)
	}
	gate, err := risk.New(risk.Config{
		MaxDailyTrades:         cfg.MaxDailyTrades,
		DailyLossLimitFraction: cfg.DailyLossLimitFraction,
		MaxConsecutiveLosses:   cfg.MaxConsecutiveLosses,
		MaxPositionFraction:    cfg.MaxPositionFraction,
		MinSpreadThreshold:     cfg.MinSpreadThreshold,
		StartingBalance:        cfg.StartingBalance,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to build risk gate: %v", err)
	}
	ledger, err := sim.NewLedger(cfg.StartingBalance)
	if err != nil {
		log.Fatalf("FATAL: Failed to build ledger: %v", err)
	}
	simulator, err := sim.New(sim.Config{
		// Zero latency so a long run finishes quickly; slippage and
		// failure draws still apply.
		LatencyMin:  0,
		LatencyMax:  0,
		SlippageMin: cfg.SlippageMin,
		SlippageMax: cfg.SlippageMax,
		FailureRate: cfg.ExecutionFailureRate,
		FeeRate:     cfg.FeeRate,
	}, prices, ledger, rnd, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to build simulator: %v", err)
	}

	ctx := context.Background()
	var outcomes []*domain.TradeOutcome
	var signals, admitted, dropped int

	for i := 0; i < *cycles; i++ {
		if halted, reason := gate.Halted(); halted {
			fmt.Printf("Session halted after %d cycles: %s\n", i, reason)
			break
		}
		for _, symbol := range cfg.Symbols {
			quotes, err := prices.GetPrices(ctx, symbol)
			if err != nil {
				continue
			}
			signal, ok := det.Detect(symbol, quotes)
			if !ok {
				continue
			}
			signals++
			approved, _ := gate.Admit(signal)
			if !approved {
				dropped++
				continue
			}
			admitted++

			// Sequential execution keeps the run reproducible for a
			// given seed; concurrency behavior is covered by the tests.
			buyLeg, sellLeg := makeLegs(signal)
			outcome, err := simulator.ExecuteRoundTrip(ctx, buyLeg, sellLeg)
			if err != nil {
				log.Fatalf("FATAL: Round trip failed: %v", err)
			}
			if outcome.Completed {
				gate.Settle(outcome)
				outcomes = append(outcomes, outcome)
			}
		}
	}

	printReport(cfg, outcomes, ledger.Balance(), signals, admitted, dropped)
}

func makeLegs(signal domain.TradeSignal) (*domain.Order, *domain.Order) {
	now := time.Now().UTC()
	buy := &domain.Order{
		ID: uuid.NewString(), Symbol: signal.Symbol, Side: domain.Buy,
		Quantity: signal.Quantity, ReferencePrice: signal.BuyPrice,
		Type: domain.Market, Venue: signal.BuyVenue, Status: domain.StatusPending, CreatedAt: now,
	}
	sell := &domain.Order{
		ID: uuid.NewString(), Symbol: signal.Symbol, Side: domain.Sell,
		Quantity: signal.Quantity, ReferencePrice: signal.SellPrice,
		Type: domain.Market, Venue: signal.SellVenue, Status: domain.StatusPending, CreatedAt: now,
	}
	return buy, sell
}

func printReport(cfg *config.Config, outcomes []*domain.TradeOutcome, finalBalance decimal.Decimal, signals, admitted, dropped int) {
	m := analytics.Analyze(outcomes, cfg.StartingBalance)

	fmt.Printf("\nSignals detected: %d, admitted: %d, rejected: %d\n\n", signals, admitted, dropped)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Metric\tValue\t")
	fmt.Fprintf(w, "Round trips\t%d\t\n", m.TotalTrades)
	fmt.Fprintf(w, "Win rate\t%.2f%%\t\n", m.WinRate*100)
	fmt.Fprintf(w, "Total realized\t%s\t\n", m.TotalRealized.StringFixed(4))
	fmt.Fprintf(w, "Total fees\t%s\t\n", m.TotalFees.StringFixed(4))
	fmt.Fprintf(w, "Avg win\t%s\t\n", m.AverageWin.StringFixed(4))
	fmt.Fprintf(w, "Avg loss\t%s\t\n", m.AverageLoss.StringFixed(4))
	fmt.Fprintf(w, "Profit factor\t%.3f\t\n", m.ProfitFactor)
	fmt.Fprintf(w, "Max drawdown\t%.2f%%\t\n", m.MaxDrawdown*100)
	fmt.Fprintf(w, "ROI\t%.2f%%\t\n", m.ReturnOnInvestment*100)
	fmt.Fprintf(w, "Final ledger balance\t%s\t\n", finalBalance.StringFixed(4))
	w.Flush()
}
