// Package monitor runs one lightweight recurring task per active trade,
// evaluating exit thresholds against live market data.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"solTraderBot/internal/domain"
	"solTraderBot/internal/metrics"
	"solTraderBot/internal/ports"
	"solTraderBot/internal/ratelimit"
)

const defaultInterval = 5 * time.Second

// TradeCloser is the sell path invoked when an exit threshold is crossed.
// The scheduler retires the trade's task after exactly one invocation,
// whether or not the sell succeeds.
type TradeCloser interface {
	SellTrade(ctx context.Context, trade *domain.Trade, currentPrice float64, reason domain.ExitReason) error
}

// Scheduler owns the live monitoring task set: an explicit registry of
// tradeID to re-armed timer, populated at startup from the ledger and
// mutated only by Start and retirement. Nothing here is persisted; a
// restart rebuilds the set from the ledger's ACTIVE trades.
type Scheduler struct {
	ledger   ports.TradeLedger
	feed     ports.MarketDataFeed
	limiter  *ratelimit.SlidingWindow
	closer   TradeCloser
	logger   ports.Logger
	network  string
	interval time.Duration

	mu      sync.Mutex
	tasks   map[string]*time.Timer
	stopped bool
}

// Config holds the scheduler's collaborators and tuning.
type Config struct {
	Ledger   ports.TradeLedger
	Feed     ports.MarketDataFeed
	Limiter  *ratelimit.SlidingWindow
	Closer   TradeCloser
	Logger   ports.Logger
	Network  string        // Network passed to the market data feed (e.g. "solana")
	Interval time.Duration // Standard tick interval; doubled on internal errors
}

// NewScheduler creates a monitoring scheduler.
func NewScheduler(cfg Config) (*Scheduler, error) {
	if cfg.Ledger == nil || cfg.Feed == nil || cfg.Limiter == nil || cfg.Closer == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("missing required dependencies for Scheduler")
	}
	network := cfg.Network
	if network == "" {
		network = "solana"
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Scheduler{
		ledger:   cfg.Ledger,
		feed:     cfg.Feed,
		limiter:  cfg.Limiter,
		closer:   cfg.Closer,
		logger:   cfg.Logger,
		network:  network,
		interval: interval,
		tasks:    make(map[string]*time.Timer),
	}, nil
}

// Start begins monitoring a trade. Starting an already-monitored trade is
// a no-op, which makes rehydration idempotent.
func (s *Scheduler) Start(tradeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if _, ok := s.tasks[tradeID]; ok {
		return
	}
	s.tasks[tradeID] = time.AfterFunc(0, func() { s.tick(tradeID) })
	metrics.SetActiveTrades(len(s.tasks))
	s.logger.Info(context.Background(), "Started monitoring trade", map[string]interface{}{"tradeID": tradeID})
}

// Rehydrate rebuilds the task set from the ledger's active trades. Called
// on process start so monitoring survives restarts; trades that already
// have a live task are left alone.
func (s *Scheduler) Rehydrate(ctx context.Context) error {
	trades, err := s.ledger.FindActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active trades for monitoring: %w", err)
	}
	for _, trade := range trades {
		s.Start(trade.ID)
	}
	s.logger.Info(ctx, "Trade monitoring initialized", map[string]interface{}{"activeTrades": len(trades)})
	return nil
}

// Stop drops all in-memory task state. The next startup's rehydration
// resumes monitoring of any still-active trades.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, timer := range s.tasks {
		timer.Stop()
		delete(s.tasks, id)
	}
	metrics.SetActiveTrades(0)
	s.logger.Info(context.Background(), "Monitoring scheduler stopped")
}

// TaskCount reports the number of live monitoring tasks.
func (s *Scheduler) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// IsMonitoring reports whether a trade has a live task.
func (s *Scheduler) IsMonitoring(tradeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[tradeID]
	return ok
}

// reschedule re-arms the trade's task after the given delay. A task that
// was retired or a scheduler that was stopped swallows the re-arm.
func (s *Scheduler) reschedule(tradeID string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if _, ok := s.tasks[tradeID]; !ok {
		return
	}
	s.tasks[tradeID] = time.AfterFunc(delay, func() { s.tick(tradeID) })
}

// retire removes the trade's task from the live set. Retirement is the
// only way a task terminates.
func (s *Scheduler) retire(tradeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.tasks[tradeID]; ok {
		timer.Stop()
		delete(s.tasks, tradeID)
	}
	metrics.SetActiveTrades(len(s.tasks))
}

// tick runs one evaluation cycle for a trade.
func (s *Scheduler) tick(tradeID string) {
	ctx := context.Background()

	// Cooperative admission: a denial defers this trade's evaluation to
	// the next tick without consuming a budget slot.
	if !s.limiter.TryAcquire() {
		s.logger.Debug(ctx, "Rate limit approaching, skipping this check", map[string]interface{}{"tradeID": tradeID})
		metrics.IncRateLimitDeferral()
		s.reschedule(tradeID, s.interval)
		return
	}

	trade, err := s.ledger.FindByID(ctx, tradeID)
	if err != nil {
		// Ledger trouble is an internal failure; back off instead of
		// hammering the store.
		s.logger.Error(ctx, err, "Failed to re-read trade, backing off", map[string]interface{}{"tradeID": tradeID})
		s.reschedule(tradeID, 2*s.interval)
		return
	}
	if trade == nil || !trade.IsActive() {
		// Closed by a concurrent path or gone entirely. Not an error.
		s.logger.Debug(ctx, "Trade no longer active, retiring monitor", map[string]interface{}{"tradeID": tradeID})
		s.retire(tradeID)
		return
	}

	metrics.IncMonitorTick()
	s.limiter.Record()
	price, err := s.feed.GetPrice(ctx, s.network, trade.TokenAddress)
	if err != nil {
		s.logger.Warn(ctx, "Failed to fetch token price", map[string]interface{}{
			"tradeID": tradeID,
			"token":   trade.TokenAddress,
			"error":   err.Error(),
		})
		s.reschedule(tradeID, s.interval)
		return
	}

	changePct, err := domain.PriceChangePercent(price.PriceSOL, trade.EntryPriceSOL)
	if err != nil {
		s.logger.Error(ctx, err, "Invalid entry price on trade, backing off", map[string]interface{}{"tradeID": tradeID})
		s.reschedule(tradeID, 2*s.interval)
		return
	}

	s.logger.Debug(ctx, "Monitoring tick", map[string]interface{}{
		"tradeID":      tradeID,
		"currentPrice": price.PriceSOL,
		"entryPrice":   trade.EntryPriceSOL,
		"changePct":    changePct,
		"targetGain":   trade.TargetGainPct,
		"targetLoss":   trade.TargetLossPct,
	})

	if domain.ShouldExit(changePct, trade.TargetGainPct, trade.TargetLossPct) {
		reason := domain.ExitReasonFor(changePct)
		s.logger.Info(ctx, "Exit threshold crossed, selling", map[string]interface{}{
			"tradeID":   tradeID,
			"changePct": changePct,
			"reason":    reason,
		})
		metrics.IncExit(string(reason))
		// Attempt the sell once. The task retires whether or not the
		// sell succeeds, so a trade is never exited twice.
		if err := s.closer.SellTrade(ctx, trade, price.PriceSOL, reason); err != nil {
			s.logger.Error(ctx, err, "Sell attempt failed, retiring monitor anyway", map[string]interface{}{"tradeID": tradeID})
		}
		s.retire(tradeID)
		return
	}

	s.reschedule(tradeID, s.interval)
}
