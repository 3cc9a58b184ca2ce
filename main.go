package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"time"

	"github.com/shopspring/decimal"

	"arbSimBot/config"
	"arbSimBot/internal/adapters/binanceclient"
	"arbSimBot/internal/adapters/feed"
	"arbSimBot/internal/adapters/logger"
	"arbSimBot/internal/adapters/sqlite"
	"arbSimBot/internal/app"
	"arbSimBot/internal/detector"
	"arbSimBot/internal/ports"
	"arbSimBot/internal/risk"
	"arbSimBot/internal/sim"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Trade Log (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize trade log repository")
		log.Fatalf("FATAL: Failed to initialize trade log repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing trade log repository")
		}
	}()

	// 4. Initialize Price Feed
	rnd := sim.NewRandomSource(time.Now().UnixNano())
	prices, err := buildPriceSource(cfg, rnd, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize price feed")
		log.Fatalf("FATAL: Failed to initialize price feed: %v", err)
	}
	appLogger.Info(context.Background(), "Price feed initialized", map[string]interface{}{"mode": cfg.FeedMode, "venues": cfg.Venues})

	// 5. Initialize Core Components
	det, err := detector.New(detector.Config{
		MinSpreadThreshold:  cfg.MinSpreadThreshold,
		MaxPositionFraction: cfg.MaxPositionFraction,
		StartingBalance:     cfg.StartingBalance,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize detector: %v", err)
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
		log.Fatalf("FATAL: Failed to initialize risk gate: %v", err)
	}

	ledger, err := sim.NewLedger(cfg.StartingBalance)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize ledger: %v", err)
	}
	simulator, err := sim.New(sim.Config{
		LatencyMin:  cfg.LatencyMin,
		LatencyMax:  cfg.LatencyMax,
		SlippageMin: cfg.SlippageMin,
		SlippageMax: cfg.SlippageMax,
		FailureRate: cfg.ExecutionFailureRate,
		FeeRate:     cfg.FeeRate,
	}, prices, ledger, rnd, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize execution simulator: %v", err)
	}

	// 6. Initialize Application Service
	service, err := app.NewArbService(cfg, appLogger, prices, det, gate, simulator, repo)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize arbitrage service")
		log.Fatalf("FATAL: Failed to initialize arbitrage service: %v", err)
	}
	appLogger.Info(context.Background(), "Arbitrage service initialized")

	// 7. Start the Service
	if err := service.Start(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Arbitrage service exited with error")
		log.Fatalf("FATAL: Arbitrage service exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}

// buildPriceSource assembles the venue map behind the price mux. The
// synthetic mode simulates every venue; the binance mode pairs the live spot
// feed with synthetic venues so cross-venue spreads still occur.
func buildPriceSource(cfg *config.Config, rnd ports.RandomSource, appLogger *logger.StdLogger) (ports.ExchangePriceSource, error) {
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
		return nil, err
	}
	sources := synthetic.Sources()

	if cfg.FeedMode == config.FeedModeBinance {
		client, err := binanceclient.New(binanceclient.Config{
			APIKey:     cfg.APIKey,
			SecretKey:  cfg.SecretKey,
			UseTestnet: cfg.IsTestnet,
			Logger:     appLogger,
		})
		if err != nil {
			return nil, err
		}
		sources["binance"] = client
	}

	return feed.NewMux(sources, appLogger)
}
