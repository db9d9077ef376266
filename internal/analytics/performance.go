// Package analytics computes performance summaries over closed trades.
// Everything here is offline reporting; nothing feeds back into trading.
package analytics

import (
	"sort"
	"time"

	"solTraderBot/internal/domain"
)

// PerformanceReport summarizes the outcome of a set of closed trades.
// All monetary values are in SOL.
type PerformanceReport struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	TotalProfit   float64
	AverageWin    float64
	AverageLoss   float64
	ProfitFactor  float64
	Expectancy    float64

	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	AverageHoldDuration  time.Duration

	GainExits int // trades closed on the gain target
	LossExits int // trades closed on the stop loss

	MonthlyReturns map[string]float64
	TokenReturns   map[string]float64
}

// TradePNL returns the realized profit of a closed trade in SOL:
// sale proceeds at the exit price minus the total amount invested.
func TradePNL(trade *domain.Trade) float64 {
	return trade.TokensReceived*trade.ExitPriceSOL - trade.AmountInvested
}

// Analyze builds a performance report from closed trades. Trades that are
// still active are ignored.
func Analyze(trades []*domain.Trade) *PerformanceReport {
	report := &PerformanceReport{
		MonthlyReturns: make(map[string]float64),
		TokenReturns:   make(map[string]float64),
	}

	closed := make([]*domain.Trade, 0, len(trades))
	for _, trade := range trades {
		if trade.Status == domain.StatusClosed {
			closed = append(closed, trade)
		}
	}
	if len(closed) == 0 {
		return report
	}

	sort.Slice(closed, func(i, j int) bool {
		return closed[i].ExitTime.Before(closed[j].ExitTime)
	})

	var consecutiveWins, consecutiveLosses int
	var totalWin, totalLoss float64
	var totalHold time.Duration

	for _, trade := range closed {
		pnl := TradePNL(trade)
		report.TotalTrades++
		report.TotalProfit += pnl
		totalHold += trade.ExitTime.Sub(trade.EntryTime)

		if pnl > 0 {
			report.WinningTrades++
			totalWin += pnl
			consecutiveWins++
			consecutiveLosses = 0
		} else {
			report.LosingTrades++
			totalLoss += pnl
			consecutiveLosses++
			consecutiveWins = 0
		}
		if consecutiveWins > report.MaxConsecutiveWins {
			report.MaxConsecutiveWins = consecutiveWins
		}
		if consecutiveLosses > report.MaxConsecutiveLosses {
			report.MaxConsecutiveLosses = consecutiveLosses
		}

		switch trade.ExitReason {
		case domain.ExitReasonTargetGain:
			report.GainExits++
		case domain.ExitReasonStopLoss:
			report.LossExits++
		}

		report.MonthlyReturns[trade.ExitTime.Format("2006-01")] += pnl
		report.TokenReturns[trade.TokenAddress] += pnl
	}

	report.WinRate = float64(report.WinningTrades) / float64(report.TotalTrades)
	if report.WinningTrades > 0 {
		report.AverageWin = totalWin / float64(report.WinningTrades)
	}
	if report.LosingTrades > 0 {
		report.AverageLoss = totalLoss / float64(report.LosingTrades)
	}
	if totalLoss != 0 {
		report.ProfitFactor = totalWin / -totalLoss
	}
	report.Expectancy = (report.WinRate * report.AverageWin) + ((1 - report.WinRate) * report.AverageLoss)
	report.AverageHoldDuration = totalHold / time.Duration(report.TotalTrades)

	return report
}

// MonthlyReturn is one month's realized profit.
type MonthlyReturn struct {
	Month  time.Time
	Return float64
}

// SortedMonthlyReturns returns the monthly returns in chronological order.
func (r *PerformanceReport) SortedMonthlyReturns() []MonthlyReturn {
	returns := make([]MonthlyReturn, 0, len(r.MonthlyReturns))
	for month, profit := range r.MonthlyReturns {
		date, err := time.Parse("2006-01", month)
		if err != nil {
			continue
		}
		returns = append(returns, MonthlyReturn{Month: date, Return: profit})
	}
	sort.Slice(returns, func(i, j int) bool {
		return returns[i].Month.Before(returns[j].Month)
	})
	return returns
}
