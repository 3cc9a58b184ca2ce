package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"arbSimBot/internal/domain"
)

// TradeLogRepository is the append-only audit log: every terminal order,
// every completed round trip, and the risk snapshot taken after each settle.
// Nothing in the core reads its own state back from the log at runtime.
type TradeLogRepository interface {
	// LogOrder appends a terminal order. Appending a non-terminal order
	// is an error.
	LogOrder(ctx context.Context, order *domain.Order) error

	// LogOutcome appends a round-trip outcome together with the risk
	// snapshot taken after it was settled.
	LogOutcome(ctx context.Context, outcome *domain.TradeOutcome, snap domain.RiskSnapshot) error

	// FindRecentOutcomes retrieves the most recent round-trip outcomes,
	// newest first, up to limit.
	FindRecentOutcomes(ctx context.Context, limit int) ([]*domain.TradeOutcome, error)

	// TotalRealized sums the realized profit across all logged outcomes.
	TotalRealized(ctx context.Context) (decimal.Decimal, error)

	// CountOutcomesToday counts round trips logged since UTC midnight.
	CountOutcomesToday(ctx context.Context) (int, error)
}
