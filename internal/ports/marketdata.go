package ports

import "context"

// TokenPrice holds the current prices for a token pair.
type TokenPrice struct {
	TokenName string  // Base token name as reported by the feed
	PriceSOL  float64 // Price in the native currency (SOL)
	PriceUSD  float64 // Price in the display currency (USD)
}

// MarketDataFeed defines the interface for querying current token prices.
// Used both at buy time (entry price) and by the monitoring loop.
type MarketDataFeed interface {
	// GetPrice retrieves the current price for a token on the given network.
	// Returns an error when no price is available; callers treat this as a
	// transient failure.
	GetPrice(ctx context.Context, network, tokenAddress string) (*TokenPrice, error)
}
