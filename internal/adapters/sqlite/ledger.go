package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"solTraderBot/internal/domain"
	"solTraderBot/internal/ports"
)

// Ledger implements the ports.TradeLedger interface using SQLite.
type Ledger struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite ledger.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewLedger creates a new SQLite ledger instance.
func NewLedger(cfg Config) (*Ledger, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite ledger")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/trades.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite ledger initialization failed")
		return nil, err
	}

	// WAL mode for concurrent reads from the monitoring tasks
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite ledger initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite ledger initialization failed")
		return nil, err
	}

	// SQLite serializes writes internally; limiting the pool keeps the Go
	// driver from piling up lock contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ledger := &Ledger{db: db, logger: cfg.Logger}

	if err := ledger.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite ledger initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Trade ledger initialized", map[string]interface{}{"path": dbPath})

	return ledger, nil
}

// initializeSchema creates tables if they don't exist.
// The partial unique index makes "at most one ACTIVE trade per token" a
// ledger-level guarantee, not just an aggregator-level one.
func (l *Ledger) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		token_address TEXT NOT NULL,
		token_name TEXT NOT NULL,
		amount_invested REAL NOT NULL,
		tokens_received REAL NOT NULL,
		entry_price_sol REAL NOT NULL,
		entry_price_usd REAL NOT NULL,
		target_gain_pct REAL NOT NULL,
		target_loss_pct REAL NOT NULL,
		trade_type TEXT NOT NULL,
		status TEXT NOT NULL,
		entry_time TIMESTAMP NOT NULL,
		exit_time TIMESTAMP DEFAULT NULL,
		exit_price_sol REAL DEFAULT NULL,
		exit_reason TEXT DEFAULT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_trades_active_token
		ON trades (token_address) WHERE status = 'ACTIVE';
	CREATE INDEX IF NOT EXISTS idx_trades_status ON trades (status);
	`
	_, err := l.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	if l.db != nil {
		l.logger.Info(context.Background(), "Closing trade ledger database connection")
		return l.db.Close()
	}
	return nil
}

const tradeColumns = `
	id, token_address, token_name, amount_invested, tokens_received,
	entry_price_sol, entry_price_usd, target_gain_pct, target_loss_pct,
	trade_type, status, entry_time, exit_time,
	COALESCE(exit_price_sol, 0), COALESCE(exit_reason, '')`

// Create saves a new trade and returns its assigned ID.
func (l *Ledger) Create(ctx context.Context, trade *domain.Trade) (string, error) {
	const query = `
	INSERT INTO trades (id, token_address, token_name, amount_invested, tokens_received,
	                    entry_price_sol, entry_price_usd, target_gain_pct, target_loss_pct,
	                    trade_type, status, entry_time)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id := trade.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := l.db.ExecContext(ctx, query,
		id, trade.TokenAddress, trade.TokenName, trade.AmountInvested, trade.TokensReceived,
		trade.EntryPriceSOL, trade.EntryPriceUSD, trade.TargetGainPct, trade.TargetLossPct,
		trade.TradeType, trade.Status, trade.EntryTime)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return "", fmt.Errorf("active trade already exists for token %s: %w", trade.TokenAddress, ports.ErrDuplicateEntry)
		}
		return "", fmt.Errorf("failed to insert trade for token %s: %w", trade.TokenAddress, err)
	}

	trade.ID = id
	l.logger.Debug(ctx, "Trade created", map[string]interface{}{"tradeID": id, "token": trade.TokenAddress})
	return id, nil
}

// FindByID retrieves a trade by its unique ID.
func (l *Ledger) FindByID(ctx context.Context, id string) (*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = ?`

	row := l.db.QueryRowContext(ctx, query, id)
	trade, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query trade by ID %s: %w", id, err)
	}
	return trade, nil
}

// FindActiveByToken retrieves the currently active trade for a token, if any.
func (l *Ledger) FindActiveByToken(ctx context.Context, tokenAddress string) (*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE token_address = ? AND status = ?`

	row := l.db.QueryRowContext(ctx, query, tokenAddress, domain.StatusActive)
	trade, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			l.logger.Debug(ctx, "No active trade found for token", map[string]interface{}{"token": tokenAddress})
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query active trade for token %s: %w", tokenAddress, err)
	}
	return trade, nil
}

// FindActive retrieves all active trades, ordered by entry time.
func (l *Ledger) FindActive(ctx context.Context) ([]*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE status = ? ORDER BY entry_time`

	rows, err := l.db.QueryContext(ctx, query, domain.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query active trades: %w", err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade during FindActive: %w", err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// FindClosed retrieves all closed trades, ordered by exit time.
func (l *Ledger) FindClosed(ctx context.Context) ([]*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE status = ? ORDER BY exit_time`

	rows, err := l.db.QueryContext(ctx, query, domain.StatusClosed)
	if err != nil {
		return nil, fmt.Errorf("failed to query closed trades: %w", err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade during FindClosed: %w", err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// AddAmounts atomically adds newly acquired amounts to an active trade and
// returns the updated record. The read-modify-write happens inside a single
// UPDATE, so concurrent merges never lose increments.
func (l *Ledger) AddAmounts(ctx context.Context, id string, deltaInvested, deltaTokens float64) (*domain.Trade, error) {
	const query = `
	UPDATE trades
	SET amount_invested = amount_invested + ?, tokens_received = tokens_received + ?
	WHERE id = ? AND status = ?`

	result, err := l.db.ExecContext(ctx, query, deltaInvested, deltaTokens, id, domain.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to add amounts to trade %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected for trade %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("active trade %s not found for amount update: %w", id, ports.ErrNotFound)
	}

	updated, err := l.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("trade %s vanished after amount update: %w", id, ports.ErrNotFound)
	}
	l.logger.Debug(ctx, "Trade amounts updated", map[string]interface{}{
		"tradeID":        id,
		"amountInvested": updated.AmountInvested,
		"tokensReceived": updated.TokensReceived,
	})
	return updated, nil
}

// CloseTrade transitions an active trade to CLOSED. Closing a trade that is
// not active reports ports.ErrNotFound, which keeps the transition one-way.
func (l *Ledger) CloseTrade(ctx context.Context, id string, exitPriceSOL float64, reason domain.ExitReason) error {
	const query = `
	UPDATE trades
	SET status = ?, exit_time = ?, exit_price_sol = ?, exit_reason = ?
	WHERE id = ? AND status = ?`

	result, err := l.db.ExecContext(ctx, query,
		domain.StatusClosed, time.Now().UTC(), exitPriceSOL, reason, id, domain.StatusActive)
	if err != nil {
		return fmt.Errorf("failed to close trade %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for close of trade %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("active trade %s not found for close: %w", id, ports.ErrNotFound)
	}
	l.logger.Debug(ctx, "Trade closed", map[string]interface{}{"tradeID": id, "reason": reason})
	return nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanTrade scans a row into a domain.Trade struct.
func scanTrade(s scanner) (*domain.Trade, error) {
	t := &domain.Trade{}
	var exitTime sql.NullTime
	var status, tradeType, exitReason string
	err := s.Scan(
		&t.ID, &t.TokenAddress, &t.TokenName, &t.AmountInvested, &t.TokensReceived,
		&t.EntryPriceSOL, &t.EntryPriceUSD, &t.TargetGainPct, &t.TargetLossPct,
		&tradeType, &status, &t.EntryTime, &exitTime, &t.ExitPriceSOL, &exitReason)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	if exitTime.Valid {
		t.ExitTime = exitTime.Time
	}
	t.TradeType = domain.TradeType(tradeType)
	t.Status = domain.TradeStatus(status)
	t.ExitReason = domain.ExitReason(exitReason)
	return t, nil
}
