package ports

import "context"

// SwapOptions carries venue tuning parameters supplied by configuration.
type SwapOptions struct {
	ReferralPublicKey string
	PriorityFee       float64
	Slippage          float64
	UseJito           bool
}

// BuyRequest describes a buy order against the execution venue.
type BuyRequest struct {
	PrivateKey string // Decrypted signing key
	PublicKey  string
	Mint       string  // Token address to buy
	AmountSOL  float64 // SOL to spend
	Options    SwapOptions
}

// BuyResult holds the venue's response to a buy order.
type BuyResult struct {
	Success         bool
	TxID            string
	TokensPurchased float64
}

// SellRequest describes a sell order against the execution venue.
type SellRequest struct {
	PrivateKey  string
	PublicKey   string
	Mint        string
	TokenAmount float64 // Token quantity to sell
	Options     SwapOptions
}

// SellResult holds the venue's response to a sell order.
type SellResult struct {
	Success bool
	TxID    string
}

// ExecutionVenue defines the interface for placing orders on a market.
// Order routing, slippage protection and venue selection live behind this
// boundary.
type ExecutionVenue interface {
	Buy(ctx context.Context, req BuyRequest) (*BuyResult, error)
	Sell(ctx context.Context, req SellRequest) (*SellResult, error)
}
