package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solTraderBot/internal/domain"
)

func closedTrade(token string, invested, tokens, exitPrice float64, reason domain.ExitReason, exitTime time.Time) *domain.Trade {
	return &domain.Trade{
		TokenAddress:   token,
		TokenName:      token,
		AmountInvested: invested,
		TokensReceived: tokens,
		EntryPriceSOL:  invested / tokens,
		ExitPriceSOL:   exitPrice,
		ExitReason:     reason,
		Status:         domain.StatusClosed,
		EntryTime:      exitTime.Add(-30 * time.Minute),
		ExitTime:       exitTime,
	}
}

func TestTradePNL(t *testing.T) {
	// Bought 10000 tokens for 1 SOL, sold at 0.00015 SOL each.
	trade := closedTrade("tokA", 1.0, 10000, 0.00015, domain.ExitReasonTargetGain, time.Now())
	assert.InDelta(t, 0.5, TradePNL(trade), 1e-9)

	// Sold below entry.
	losing := closedTrade("tokB", 1.0, 10000, 0.00008, domain.ExitReasonStopLoss, time.Now())
	assert.InDelta(t, -0.2, TradePNL(losing), 1e-9)
}

func TestAnalyze_Empty(t *testing.T) {
	report := Analyze(nil)
	assert.Equal(t, 0, report.TotalTrades)
	assert.Equal(t, 0.0, report.TotalProfit)
}

func TestAnalyze_IgnoresActiveTrades(t *testing.T) {
	active := &domain.Trade{Status: domain.StatusActive, TokenAddress: "tokA"}
	report := Analyze([]*domain.Trade{active})
	assert.Equal(t, 0, report.TotalTrades)
}

func TestAnalyze_Report(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	trades := []*domain.Trade{
		closedTrade("tokA", 1.0, 10000, 0.00015, domain.ExitReasonTargetGain, base),                     // +0.5
		closedTrade("tokB", 1.0, 10000, 0.00016, domain.ExitReasonTargetGain, base.Add(time.Hour)),      // +0.6
		closedTrade("tokC", 1.0, 10000, 0.00008, domain.ExitReasonStopLoss, base.Add(2*time.Hour)),      // -0.2
		closedTrade("tokA", 1.0, 10000, 0.00007, domain.ExitReasonStopLoss, base.AddDate(0, 1, 0)),      // -0.3
		closedTrade("tokD", 1.0, 10000, 0.00014, domain.ExitReasonTargetGain, base.AddDate(0, 1, 0).Add(time.Hour)), // +0.4
	}

	report := Analyze(trades)
	require.Equal(t, 5, report.TotalTrades)
	assert.Equal(t, 3, report.WinningTrades)
	assert.Equal(t, 2, report.LosingTrades)
	assert.InDelta(t, 0.6, report.WinRate, 1e-9)
	assert.InDelta(t, 1.0, report.TotalProfit, 1e-9)
	assert.InDelta(t, 0.5, report.AverageWin, 1e-9)
	assert.InDelta(t, -0.25, report.AverageLoss, 1e-9)
	assert.InDelta(t, 3.0, report.ProfitFactor, 1e-9)
	assert.Equal(t, 3, report.GainExits)
	assert.Equal(t, 2, report.LossExits)
	assert.Equal(t, 2, report.MaxConsecutiveWins)
	assert.Equal(t, 2, report.MaxConsecutiveLosses)
	assert.Equal(t, 30*time.Minute, report.AverageHoldDuration)

	// Per-token: tokA had one win and one loss.
	assert.InDelta(t, 0.2, report.TokenReturns["tokA"], 1e-9)

	monthly := report.SortedMonthlyReturns()
	require.Len(t, monthly, 2)
	assert.InDelta(t, 0.9, monthly[0].Return, 1e-9)
	assert.InDelta(t, 0.1, monthly[1].Return, 1e-9)
}
