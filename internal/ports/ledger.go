package ports

import (
	"context"

	"solTraderBot/internal/domain"
)

// TradeLedger defines the interface for the durable trade store.
// It is the single source of truth for which trades exist and which are
// still active; no monitoring state is persisted anywhere else.
type TradeLedger interface {
	// Create saves a new trade and returns its assigned ID.
	Create(ctx context.Context, trade *domain.Trade) (string, error)
	// FindByID retrieves a trade by its unique ID.
	// Returns nil, nil if not found.
	FindByID(ctx context.Context, id string) (*domain.Trade, error)
	// FindActiveByToken retrieves the currently active trade for a token, if any.
	// Returns nil, nil if no active trade exists.
	FindActiveByToken(ctx context.Context, tokenAddress string) (*domain.Trade, error)
	// FindActive retrieves all active trades, ordered by entry time.
	FindActive(ctx context.Context) ([]*domain.Trade, error)
	// FindClosed retrieves all closed trades, ordered by exit time.
	// Used for offline performance reporting.
	FindClosed(ctx context.Context) ([]*domain.Trade, error)
	// AddAmounts atomically adds newly acquired amounts to an existing trade
	// and returns the updated record. The update is a per-record atomic
	// read-modify-write; amounts only ever increase.
	AddAmounts(ctx context.Context, id string, deltaInvested, deltaTokens float64) (*domain.Trade, error)
	// CloseTrade transitions a trade to CLOSED, recording the exit price and
	// reason. The transition happens exactly once and is never reverted;
	// closed trades remain in the ledger as an audit trail.
	CloseTrade(ctx context.Context, id string, exitPriceSOL float64, reason domain.ExitReason) error
}
