package domain

import "fmt"

// PriceChangePercent computes the percentage change of currentPrice
// relative to entryPrice. An entry price of zero or below is an error,
// never a silent zero result.
func PriceChangePercent(currentPrice, entryPrice float64) (float64, error) {
	if entryPrice <= 0 {
		return 0, fmt.Errorf("entry price must be positive, got %f", entryPrice)
	}
	return (currentPrice - entryPrice) / entryPrice * 100, nil
}

// ShouldExit reports whether a price change has crossed either exit
// threshold. Both thresholds are expressed as positive percentages.
func ShouldExit(changePct, targetGainPct, targetLossPct float64) bool {
	return changePct >= targetGainPct || changePct <= -targetLossPct
}

// ExitReasonFor maps a triggering price change to the threshold that fired.
func ExitReasonFor(changePct float64) ExitReason {
	if changePct >= 0 {
		return ExitReasonTargetGain
	}
	return ExitReasonStopLoss
}
