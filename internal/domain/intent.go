package domain

// TradeIntent is an upstream decision to buy a token with specified exit
// thresholds. The investment amount is supplied by configuration, not by
// the intent.
type TradeIntent struct {
	TokenAddress  string
	TokenName     string
	TargetGainPct float64 // Positive percentage
	TargetLossPct float64 // Positive percentage
	TradeType     TradeType
}
