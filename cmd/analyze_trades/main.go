// analyze_trades reads a session's SQLite trade log and prints a performance
// report over the logged round trips.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"arbSimBot/internal/adapters/logger"
	"arbSimBot/internal/adapters/sqlite"
	"arbSimBot/internal/analytics"
)

var (
	dbPath  = flag.String("db", "./data/trade_log.db", "Path to the trade log database")
	limit   = flag.Int("limit", 1000, "Maximum number of round trips to analyze (newest first)")
	balance = flag.String("balance", "10000", "Starting balance the session ran with, for ROI/drawdown")
)

func main() {
	flag.Parse()

	startingBalance, err := decimal.NewFromString(*balance)
	if err != nil {
		log.Fatalf("FATAL: Invalid starting balance %q: %v", *balance, err)
	}

	appLogger := logger.NewStdLogger(logger.LevelWarn)
	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: *dbPath, Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: Failed to open trade log: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	outcomes, err := repo.FindRecentOutcomes(ctx, *limit)
	if err != nil {
		log.Fatalf("FATAL: Failed to read round trips: %v", err)
	}
	if len(outcomes) == 0 {
		fmt.Println("No round trips logged yet.")
		return
	}
	today, err := repo.CountOutcomesToday(ctx)
	if err != nil {
		log.Fatalf("FATAL: Failed to count today's round trips: %v", err)
	}

	m := analytics.Analyze(outcomes, startingBalance)

	fmt.Printf("\nTrade log: %s (%d round trips analyzed, %d today)\n\n", *dbPath, m.TotalTrades, today)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Metric\tValue\t")
	fmt.Fprintf(w, "Round trips\t%d\t\n", m.TotalTrades)
	fmt.Fprintf(w, "Winners / losers\t%d / %d\t\n", m.WinningTrades, m.LosingTrades)
	fmt.Fprintf(w, "Win rate\t%.2f%%\t\n", m.WinRate*100)
	fmt.Fprintf(w, "Total realized\t%s\t\n", m.TotalRealized.StringFixed(4))
	fmt.Fprintf(w, "Total fees\t%s\t\n", m.TotalFees.StringFixed(4))
	fmt.Fprintf(w, "Avg win\t%s\t\n", m.AverageWin.StringFixed(4))
	fmt.Fprintf(w, "Avg loss\t%s\t\n", m.AverageLoss.StringFixed(4))
	fmt.Fprintf(w, "Profit factor\t%.3f\t\n", m.ProfitFactor)
	fmt.Fprintf(w, "Max consecutive wins\t%d\t\n", m.MaxConsecutiveWins)
	fmt.Fprintf(w, "Max consecutive losses\t%d\t\n", m.MaxConsecutiveLosses)
	fmt.Fprintf(w, "Max drawdown\t%.2f%%\t\n", m.MaxDrawdown*100)
	fmt.Fprintf(w, "ROI\t%.2f%%\t\n", m.ReturnOnInvestment*100)
	fmt.Fprintf(w, "Avg round-trip time\t%s\t\n", m.AverageRoundTripTime)
	w.Flush()

	fmt.Println("\nRecent round trips:")
	rw := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintln(rw, "Finished\tSymbol\tBuy\tSell\tQty\tRealized\tFees\t")
	n := len(outcomes)
	if n > 10 {
		n = 10
	}
	// FindRecentOutcomes returns newest first; Analyze re-sorts oldest
	// first, so take from the tail.
	for _, o := range outcomes[len(outcomes)-n:] {
		fmt.Fprintf(rw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			o.FinishedAt.Format("2006-01-02 15:04:05"), o.Symbol,
			o.BuyVenue, o.SellVenue,
			o.Quantity.StringFixed(6), o.Realized.StringFixed(4), o.FeesPaid.StringFixed(4))
	}
	rw.Flush()
}
