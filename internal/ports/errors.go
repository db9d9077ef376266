package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Venue / Market Data Errors
	ErrVenueUnavailable = errors.New("execution venue API is unavailable")
	ErrBuyFailed        = errors.New("buy order failed or returned no transaction id")
	ErrSellFailed       = errors.New("sell order failed or returned no transaction id")
	ErrPriceUnavailable = errors.New("market data feed returned no price for token")

	// Wallet Errors
	ErrWalletUnavailable = errors.New("wallet details not found or private key missing")
	ErrKeyDecryption     = errors.New("failed to decrypt wallet private key")

	// Signal Errors
	ErrSignalRejected = errors.New("signal rejected by upstream decision")
	ErrInvalidSignal  = errors.New("invalid or incomplete upstream signal")

	// Database Specific Errors
	ErrDuplicateEntry = errors.New("database record already exists")
	ErrQueryFailed    = errors.New("database query failed")
	ErrUpdateFailed   = errors.New("database update failed")
)
