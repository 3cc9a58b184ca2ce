// Package analytics summarizes a session's settled round trips into the
// report printed by the analysis tooling.
package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"arbSimBot/internal/domain"
)

// SessionMetrics holds performance metrics over a set of round-trip outcomes.
type SessionMetrics struct {
	TotalTrades          int
	WinningTrades        int
	LosingTrades         int
	WinRate              float64
	TotalRealized        decimal.Decimal
	TotalFees            decimal.Decimal
	AverageWin           decimal.Decimal
	AverageLoss          decimal.Decimal
	ProfitFactor         float64
	MaxDrawdown          float64 // Deepest peak-to-trough equity drop, as a fraction of the peak
	FinalBalance         decimal.Decimal
	ReturnOnInvestment   float64
	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	AverageRoundTripTime time.Duration
}

// Analyze computes session metrics from settled round trips. Outcomes are
// processed in completion order; the slice is sorted in place.
func Analyze(outcomes []*domain.TradeOutcome, startingBalance decimal.Decimal) *SessionMetrics {
	m := &SessionMetrics{
		TotalRealized: decimal.Zero,
		TotalFees:     decimal.Zero,
		AverageWin:    decimal.Zero,
		AverageLoss:   decimal.Zero,
		FinalBalance:  startingBalance,
	}
	if len(outcomes) == 0 {
		return m
	}

	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].FinishedAt.Before(outcomes[j].FinishedAt)
	})

	balance := startingBalance
	peak := startingBalance
	grossWins := decimal.Zero
	grossLosses := decimal.Zero
	var streakWins, streakLosses int
	var totalDuration time.Duration

	for _, o := range outcomes {
		m.TotalTrades++
		m.TotalRealized = m.TotalRealized.Add(o.Realized)
		m.TotalFees = m.TotalFees.Add(o.FeesPaid)
		totalDuration += o.FinishedAt.Sub(o.StartedAt)

		if o.Realized.IsPositive() {
			m.WinningTrades++
			grossWins = grossWins.Add(o.Realized)
			streakWins++
			streakLosses = 0
		} else {
			m.LosingTrades++
			grossLosses = grossLosses.Add(o.Realized.Neg())
			streakLosses++
			streakWins = 0
		}
		if streakWins > m.MaxConsecutiveWins {
			m.MaxConsecutiveWins = streakWins
		}
		if streakLosses > m.MaxConsecutiveLosses {
			m.MaxConsecutiveLosses = streakLosses
		}

		balance = balance.Add(o.Realized)
		if balance.GreaterThan(peak) {
			peak = balance
		} else if peak.IsPositive() {
			dd := peak.Sub(balance).Div(peak).InexactFloat64()
			if dd > m.MaxDrawdown {
				m.MaxDrawdown = dd
			}
		}
	}

	m.FinalBalance = balance
	m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)
	if m.WinningTrades > 0 {
		m.AverageWin = grossWins.Div(decimal.NewFromInt(int64(m.WinningTrades)))
	}
	if m.LosingTrades > 0 {
		m.AverageLoss = grossLosses.Div(decimal.NewFromInt(int64(m.LosingTrades))).Neg()
	}
	if grossLosses.IsPositive() {
		m.ProfitFactor = grossWins.Div(grossLosses).InexactFloat64()
	}
	if startingBalance.IsPositive() {
		m.ReturnOnInvestment = balance.Sub(startingBalance).Div(startingBalance).InexactFloat64()
	}
	m.AverageRoundTripTime = totalDuration / time.Duration(len(outcomes))
	return m
}
