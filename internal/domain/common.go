package domain

// TradeStatus represents the lifecycle state of a trade.
type TradeStatus string

const (
	StatusActive TradeStatus = "ACTIVE"
	StatusClosed TradeStatus = "CLOSED"
)

// TradeType classifies the holding horizon of a trade. It is carried
// through the ledger but does not alter exit math.
type TradeType string

const (
	TradeTypeQuickProfit TradeType = "QUICK_PROFIT"
	TradeTypeInvest      TradeType = "INVEST"
)

// ExitReason indicates which threshold triggered the sell.
type ExitReason string

const (
	ExitReasonTargetGain ExitReason = "TARGET_GAIN"
	ExitReasonStopLoss   ExitReason = "STOP_LOSS"
)
