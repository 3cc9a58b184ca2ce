// Package sqlite is the append-only trade log: every terminal order, every
// settled round trip, and the risk snapshot taken after each settle. It is
// the system's only durable output.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"arbSimBot/internal/domain"
	"arbSimBot/internal/ports"
)

// Repository implements the ports.TradeLogRepository interface using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/trade_log.db" // Default path
	}

	// Create data directory if it doesn't exist (skip for in-memory DBs)
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
			cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
			return nil, err
		}
	}

	// Open database connection
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("%w: failed to open database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		err = fmt.Errorf("%w: failed to ping database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Set connection pool settings (important for SQLite)
	db.SetMaxOpenConns(1) // SQLite handles concurrency internally, but Go driver benefits from limiting connections
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Trade log schema initialized/verified", map[string]interface{}{"path": dbPath})

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
// Monetary values are stored as TEXT so the decimal representations survive
// the round trip without binary float drift.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		quantity TEXT NOT NULL,
		reference_price TEXT NOT NULL,
		fill_price TEXT NOT NULL,
		fee TEXT NOT NULL,
		order_type TEXT NOT NULL,
		venue TEXT NOT NULL,
		status TEXT NOT NULL,
		reject_reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		resolved_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		buy_venue TEXT NOT NULL,
		sell_venue TEXT NOT NULL,
		buy_order_id TEXT NOT NULL,
		sell_order_id TEXT NOT NULL,
		quantity TEXT NOT NULL,
		realized TEXT NOT NULL,
		fees_paid TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS risk_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trade_id INTEGER NOT NULL,
		daily_pnl TEXT NOT NULL,
		daily_trade_count INTEGER NOT NULL,
		consecutive_losses INTEGER NOT NULL,
		halted INTEGER NOT NULL,
		halt_reason TEXT NOT NULL DEFAULT '',
		taken_at TIMESTAMP NOT NULL
	);
	-- Indexes for common lookups
	CREATE INDEX IF NOT EXISTS idx_orders_symbol_created ON orders (symbol, created_at);
	CREATE INDEX IF NOT EXISTS idx_trades_finished ON trades (finished_at);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite trade log")
		return r.db.Close()
	}
	return nil
}

// LogOrder appends a terminal order to the log.
func (r *Repository) LogOrder(ctx context.Context, order *domain.Order) error {
	if !order.IsTerminal() {
		return fmt.Errorf("%w: refusing to log non-terminal order %s (%s)", ports.ErrInvalidRequest, order.ID, order.Status)
	}
	const query = `
	INSERT INTO orders (id, symbol, side, quantity, reference_price, fill_price, fee, order_type, venue, status, reject_reason, created_at, resolved_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		order.ID, order.Symbol, string(order.Side), order.Quantity.String(),
		order.ReferencePrice.String(), order.FillPrice.String(), order.Fee.String(),
		string(order.Type), order.Venue, string(order.Status), string(order.RejectReason),
		order.CreatedAt, order.ResolvedAt)
	if err != nil {
		return fmt.Errorf("%w: failed to insert order %s: %v", ports.ErrQueryFailed, order.ID, err)
	}
	return nil
}

// LogOutcome appends a round-trip outcome and the post-settle risk snapshot
// in one transaction.
func (r *Repository) LogOutcome(ctx context.Context, outcome *domain.TradeOutcome, snap domain.RiskSnapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", ports.ErrQueryFailed, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO trades (symbol, buy_venue, sell_venue, buy_order_id, sell_order_id, quantity, realized, fees_paid, started_at, finished_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		outcome.Symbol, outcome.BuyVenue, outcome.SellVenue, outcome.BuyOrderID, outcome.SellOrderID,
		outcome.Quantity.String(), outcome.Realized.String(), outcome.FeesPaid.String(),
		outcome.StartedAt, outcome.FinishedAt)
	if err != nil {
		return fmt.Errorf("%w: failed to insert trade for %s: %v", ports.ErrQueryFailed, outcome.Symbol, err)
	}
	tradeID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%w: failed to read trade id: %v", ports.ErrQueryFailed, err)
	}

	halted := 0
	if snap.Halted {
		halted = 1
	}
	_, err = tx.ExecContext(ctx, `
	INSERT INTO risk_snapshots (trade_id, daily_pnl, daily_trade_count, consecutive_losses, halted, halt_reason, taken_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tradeID, snap.DailyPnL.String(), snap.DailyTradeCount, snap.ConsecutiveLosses, halted, snap.HaltReason, snap.TakenAt)
	if err != nil {
		return fmt.Errorf("%w: failed to insert risk snapshot: %v", ports.ErrQueryFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit outcome: %v", ports.ErrQueryFailed, err)
	}
	return nil
}

// FindRecentOutcomes retrieves the most recent round-trip outcomes, newest first.
func (r *Repository) FindRecentOutcomes(ctx context.Context, limit int) ([]*domain.TradeOutcome, error) {
	const query = `
	SELECT symbol, buy_venue, sell_venue, buy_order_id, sell_order_id, quantity, realized, fees_paid, started_at, finished_at
	FROM trades ORDER BY finished_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query trades: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var outcomes []*domain.TradeOutcome
	for rows.Next() {
		var o domain.TradeOutcome
		var qty, realized, fees string
		if err := rows.Scan(&o.Symbol, &o.BuyVenue, &o.SellVenue, &o.BuyOrderID, &o.SellOrderID,
			&qty, &realized, &fees, &o.StartedAt, &o.FinishedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan trade row: %v", ports.ErrQueryFailed, err)
		}
		if o.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("corrupt quantity %q in trade log: %w", qty, err)
		}
		if o.Realized, err = decimal.NewFromString(realized); err != nil {
			return nil, fmt.Errorf("corrupt realized %q in trade log: %w", realized, err)
		}
		if o.FeesPaid, err = decimal.NewFromString(fees); err != nil {
			return nil, fmt.Errorf("corrupt fees %q in trade log: %w", fees, err)
		}
		o.Completed = true // Only settled round trips are logged
		outcomes = append(outcomes, &o)
	}
	return outcomes, rows.Err()
}

// TotalRealized sums the realized profit across all logged outcomes.
// Summation happens in decimal on the application side; SQLite's SUM would
// coerce the TEXT column to float.
func (r *Repository) TotalRealized(ctx context.Context) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT realized FROM trades`)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: failed to query realized totals: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var realized string
		if err := rows.Scan(&realized); err != nil {
			return decimal.Zero, fmt.Errorf("%w: failed to scan realized row: %v", ports.ErrQueryFailed, err)
		}
		d, err := decimal.NewFromString(realized)
		if err != nil {
			return decimal.Zero, fmt.Errorf("corrupt realized %q in trade log: %w", realized, err)
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

// CountOutcomesToday counts round trips logged since UTC midnight.
func (r *Repository) CountOutcomesToday(ctx context.Context) (int, error) {
	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trades WHERE finished_at >= ?`, midnight).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count today's trades: %v", ports.ErrQueryFailed, err)
	}
	return count, nil
}
