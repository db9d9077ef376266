package domain

import "time"

// Trade represents a position held against a single token.
type Trade struct {
	ID             string      // Unique identifier, assigned at creation
	TokenAddress   string      // Mint address of the token; dedup key for aggregation
	TokenName      string      // Human-readable token name at entry time
	AmountInvested float64     // Cumulative SOL committed; only grows while active
	TokensReceived float64     // Cumulative token quantity acquired; only grows while active
	EntryPriceSOL  float64     // Native price recorded at the first buy
	EntryPriceUSD  float64     // Display price recorded at the first buy
	TargetGainPct  float64     // Positive percentage gain that triggers the exit
	TargetLossPct  float64     // Positive percentage loss that triggers the exit
	TradeType      TradeType   // QUICK_PROFIT or INVEST
	Status         TradeStatus // ACTIVE until the sell path closes it, then CLOSED forever
	EntryTime      time.Time   // Timestamp of the first buy
	ExitTime       time.Time   // Timestamp of the close (zero value while active)
	ExitPriceSOL   float64     // Native price observed when the exit triggered (0 while active)
	ExitReason     ExitReason  // Which threshold fired (empty while active)
}

// IsActive checks whether the trade is still being monitored.
func (t *Trade) IsActive() bool {
	return t.Status == StatusActive
}
