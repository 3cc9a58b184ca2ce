package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbSimBot/internal/domain"
	"arbSimBot/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(Config{DBPath: ":memory:", Logger: &mockLogger{}})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func filledOrder(side domain.OrderSide) *domain.Order {
	now := time.Now().UTC()
	return &domain.Order{
		ID:             uuid.NewString(),
		Symbol:         "BTCUSDT",
		Side:           side,
		Quantity:       dec("0.02"),
		ReferencePrice: dec("45000"),
		FillPrice:      dec("45045"),
		Fee:            dec("0.9009"),
		Type:           domain.Market,
		Venue:          "alpha",
		Status:         domain.StatusFilled,
		CreatedAt:      now,
		ResolvedAt:     now,
	}
}

func settledOutcome(realized string, finished time.Time) *domain.TradeOutcome {
	return &domain.TradeOutcome{
		Symbol:      "BTCUSDT",
		BuyVenue:    "alpha",
		SellVenue:   "beta",
		BuyOrderID:  uuid.NewString(),
		SellOrderID: uuid.NewString(),
		Quantity:    dec("0.02"),
		Realized:    dec(realized),
		FeesPaid:    dec("1.8044955"),
		Completed:   true,
		StartedAt:   finished.Add(-time.Second),
		FinishedAt:  finished,
	}
}

func testSnapshot() domain.RiskSnapshot {
	return domain.RiskSnapshot{
		DailyPnL:        dec("2.5"),
		DailyTradeCount: 1,
		TakenAt:         time.Now().UTC(),
	}
}

func TestNewRepository(t *testing.T) {
	t.Run("initializes an in-memory schema", func(t *testing.T) {
		repo := newTestRepo(t)
		assert.NotNil(t, repo)
	})

	t.Run("requires a logger", func(t *testing.T) {
		repo, err := NewRepository(Config{DBPath: ":memory:"})
		require.Error(t, err)
		assert.Nil(t, repo)
	})
}

func TestLogOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("appends a filled order", func(t *testing.T) {
		repo := newTestRepo(t)
		require.NoError(t, repo.LogOrder(ctx, filledOrder(domain.Buy)))
	})

	t.Run("appends a rejected order with its reason", func(t *testing.T) {
		repo := newTestRepo(t)
		order := filledOrder(domain.Buy)
		order.Status = domain.StatusRejected
		order.RejectReason = domain.RejectReasonVenueFailure
		order.FillPrice = decimal.Zero
		order.Fee = decimal.Zero
		require.NoError(t, repo.LogOrder(ctx, order))
	})

	t.Run("refuses a pending order", func(t *testing.T) {
		repo := newTestRepo(t)
		order := filledOrder(domain.Buy)
		order.Status = domain.StatusPending
		err := repo.LogOrder(ctx, order)
		require.ErrorIs(t, err, ports.ErrInvalidRequest)
	})

	t.Run("refuses a duplicate order id", func(t *testing.T) {
		repo := newTestRepo(t)
		order := filledOrder(domain.Buy)
		require.NoError(t, repo.LogOrder(ctx, order))
		err := repo.LogOrder(ctx, order)
		require.ErrorIs(t, err, ports.ErrQueryFailed)
	})
}

func TestLogOutcomeAndFindRecent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	base := time.Now().UTC()
	first := settledOutcome("2.5", base.Add(-2*time.Second))
	second := settledOutcome("-1.25", base.Add(-time.Second))
	require.NoError(t, repo.LogOutcome(ctx, first, testSnapshot()))
	require.NoError(t, repo.LogOutcome(ctx, second, testSnapshot()))

	t.Run("newest first with limit", func(t *testing.T) {
		outcomes, err := repo.FindRecentOutcomes(ctx, 1)
		require.NoError(t, err)
		require.Len(t, outcomes, 1)
		assert.Equal(t, second.BuyOrderID, outcomes[0].BuyOrderID)
	})

	t.Run("decimal fields survive the round trip exactly", func(t *testing.T) {
		outcomes, err := repo.FindRecentOutcomes(ctx, 10)
		require.NoError(t, err)
		require.Len(t, outcomes, 2)

		got := outcomes[1] // Oldest
		assert.True(t, got.Realized.Equal(dec("2.5")))
		assert.True(t, got.FeesPaid.Equal(dec("1.8044955")))
		assert.True(t, got.Quantity.Equal(dec("0.02")))
		assert.True(t, got.Completed)
	})

	t.Run("total realized sums in decimal", func(t *testing.T) {
		total, err := repo.TotalRealized(ctx)
		require.NoError(t, err)
		assert.True(t, total.Equal(dec("1.25")), "total was %s", total)
	})

	t.Run("today's count includes both", func(t *testing.T) {
		count, err := repo.CountOutcomesToday(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestFindRecentOutcomesEmpty(t *testing.T) {
	repo := newTestRepo(t)

	outcomes, err := repo.FindRecentOutcomes(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, outcomes)

	total, err := repo.TotalRealized(context.Background())
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	count, err := repo.CountOutcomesToday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
