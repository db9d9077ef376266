package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solTraderBot/internal/domain"
	"solTraderBot/internal/ports"
	"solTraderBot/internal/ratelimit"
)

// --- Mocks ---

type nopLogger struct{}

func (l *nopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (l *nopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (l *nopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (l *nopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type mockLedger struct {
	mu          sync.Mutex
	trades      map[string]*domain.Trade
	findByIDErr error
	findActErr  error
	reads       []time.Time
}

func newMockLedger(trades ...*domain.Trade) *mockLedger {
	m := &mockLedger{trades: make(map[string]*domain.Trade)}
	for _, tr := range trades {
		m.trades[tr.ID] = tr
	}
	return m
}

func (m *mockLedger) Create(ctx context.Context, trade *domain.Trade) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades[trade.ID] = trade
	return trade.ID, nil
}

func (m *mockLedger) FindByID(ctx context.Context, id string) (*domain.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads = append(m.reads, time.Now())
	if m.findByIDErr != nil {
		return nil, m.findByIDErr
	}
	tr, ok := m.trades[id]
	if !ok {
		return nil, nil
	}
	cp := *tr
	return &cp, nil
}

func (m *mockLedger) FindActiveByToken(ctx context.Context, tokenAddress string) (*domain.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tr := range m.trades {
		if tr.TokenAddress == tokenAddress && tr.Status == domain.StatusActive {
			cp := *tr
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockLedger) FindActive(ctx context.Context) ([]*domain.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findActErr != nil {
		return nil, m.findActErr
	}
	var out []*domain.Trade
	for _, tr := range m.trades {
		if tr.Status == domain.StatusActive {
			cp := *tr
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockLedger) FindClosed(ctx context.Context) ([]*domain.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Trade
	for _, tr := range m.trades {
		if tr.Status == domain.StatusClosed {
			cp := *tr
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockLedger) AddAmounts(ctx context.Context, id string, deltaInvested, deltaTokens float64) (*domain.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tr, ok := m.trades[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	tr.AmountInvested += deltaInvested
	tr.TokensReceived += deltaTokens
	cp := *tr
	return &cp, nil
}

func (m *mockLedger) CloseTrade(ctx context.Context, id string, exitPriceSOL float64, reason domain.ExitReason) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tr, ok := m.trades[id]
	if !ok || tr.Status != domain.StatusActive {
		return ports.ErrNotFound
	}
	tr.Status = domain.StatusClosed
	tr.ExitPriceSOL = exitPriceSOL
	tr.ExitReason = reason
	return nil
}

func (m *mockLedger) readCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reads)
}

func (m *mockLedger) readTimes() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Time, len(m.reads))
	copy(out, m.reads)
	return out
}

func (m *mockLedger) status(id string) domain.TradeStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trades[id].Status
}

type mockFeed struct {
	mu    sync.Mutex
	price float64
	err   error
	calls int
}

func (m *mockFeed) GetPrice(ctx context.Context, network, tokenAddress string) (*ports.TokenPrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &ports.TokenPrice{TokenName: "TEST", PriceSOL: m.price, PriceUSD: m.price * 150}, nil
}

func (m *mockFeed) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockCloser struct {
	mu     sync.Mutex
	err    error
	ledger *mockLedger
	calls  []domain.ExitReason
}

func (m *mockCloser) SellTrade(ctx context.Context, trade *domain.Trade, currentPrice float64, reason domain.ExitReason) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, reason)
	if m.err != nil {
		return m.err
	}
	if m.ledger != nil {
		return m.ledger.CloseTrade(ctx, trade.ID, currentPrice, reason)
	}
	return nil
}

func (m *mockCloser) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockCloser) lastReason() domain.ExitReason {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	return m.calls[len(m.calls)-1]
}

// --- Helpers ---

func activeTrade(id, token string) *domain.Trade {
	return &domain.Trade{
		ID:             id,
		TokenAddress:   token,
		TokenName:      "TEST",
		AmountInvested: 0.5,
		TokensReceived: 10000,
		EntryPriceSOL:  100,
		TargetGainPct:  50,
		TargetLossPct:  20,
		TradeType:      domain.TradeTypeQuickProfit,
		Status:         domain.StatusActive,
		EntryTime:      time.Now().UTC(),
	}
}

func newTestScheduler(t *testing.T, cfg Config) *Scheduler {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = &nopLogger{}
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.NewSlidingWindow(1000, time.Minute)
	}
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Millisecond
	}
	s, err := NewScheduler(cfg)
	require.NoError(t, err)
	t.Cleanup(s.Stop)
	return s
}

// --- Tests ---

func TestNewScheduler_Validation(t *testing.T) {
	_, err := NewScheduler(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required dependencies")
}

func TestScheduler_Rehydrate(t *testing.T) {
	closed := activeTrade("t-closed", "tokD")
	closed.Status = domain.StatusClosed
	ledger := newMockLedger(
		activeTrade("t-1", "tokA"),
		activeTrade("t-2", "tokB"),
		activeTrade("t-3", "tokC"),
		closed,
	)
	feed := &mockFeed{price: 100}
	closer := &mockCloser{ledger: ledger}
	s := newTestScheduler(t, Config{Ledger: ledger, Feed: feed, Closer: closer})

	require.NoError(t, s.Rehydrate(context.Background()))
	assert.Equal(t, 3, s.TaskCount())
	assert.True(t, s.IsMonitoring("t-1"))
	assert.True(t, s.IsMonitoring("t-2"))
	assert.True(t, s.IsMonitoring("t-3"))
	assert.False(t, s.IsMonitoring("t-closed"))

	// Rehydrating again must not duplicate tasks.
	require.NoError(t, s.Rehydrate(context.Background()))
	assert.Equal(t, 3, s.TaskCount())
}

func TestScheduler_Rehydrate_LedgerError(t *testing.T) {
	ledger := newMockLedger()
	ledger.findActErr = errors.New("db locked")
	s := newTestScheduler(t, Config{Ledger: ledger, Feed: &mockFeed{price: 100}, Closer: &mockCloser{}})

	err := s.Rehydrate(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, s.TaskCount())
}

func TestScheduler_ExitOnGain(t *testing.T) {
	trade := activeTrade("t-gain", "tokA")
	ledger := newMockLedger(trade)
	feed := &mockFeed{price: 160} // +60% against entry 100, target gain 50
	closer := &mockCloser{ledger: ledger}
	s := newTestScheduler(t, Config{Ledger: ledger, Feed: feed, Closer: closer})

	s.Start("t-gain")
	require.Eventually(t, func() bool { return s.TaskCount() == 0 }, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, closer.callCount())
	assert.Equal(t, domain.ExitReasonTargetGain, closer.lastReason())
	assert.Equal(t, domain.StatusClosed, ledger.status("t-gain"))

	// The task is gone; no further sell attempts happen.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, closer.callCount())
}

func TestScheduler_ExitOnLoss(t *testing.T) {
	trade := activeTrade("t-loss", "tokA")
	ledger := newMockLedger(trade)
	feed := &mockFeed{price: 75} // -25% against entry 100, target loss 20
	closer := &mockCloser{ledger: ledger}
	s := newTestScheduler(t, Config{Ledger: ledger, Feed: feed, Closer: closer})

	s.Start("t-loss")
	require.Eventually(t, func() bool { return s.TaskCount() == 0 }, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, closer.callCount())
	assert.Equal(t, domain.ExitReasonStopLoss, closer.lastReason())
	assert.Equal(t, domain.StatusClosed, ledger.status("t-loss"))
}

func TestScheduler_SellFailureStillRetires(t *testing.T) {
	trade := activeTrade("t-fail", "tokA")
	ledger := newMockLedger(trade)
	feed := &mockFeed{price: 200}
	closer := &mockCloser{err: errors.New("venue down")}
	s := newTestScheduler(t, Config{Ledger: ledger, Feed: feed, Closer: closer})

	s.Start("t-fail")
	require.Eventually(t, func() bool { return s.TaskCount() == 0 }, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, closer.callCount())
	// The sell never landed, so the trade record stays active even though
	// monitoring has stopped.
	assert.Equal(t, domain.StatusActive, ledger.status("t-fail"))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, closer.callCount())
}

func TestScheduler_HoldWithinThresholds(t *testing.T) {
	trade := activeTrade("t-hold", "tokA")
	ledger := newMockLedger(trade)
	feed := &mockFeed{price: 120} // +20%, inside the 50/-20 band
	closer := &mockCloser{ledger: ledger}
	s := newTestScheduler(t, Config{Ledger: ledger, Feed: feed, Closer: closer})

	s.Start("t-hold")
	require.Eventually(t, func() bool { return feed.callCount() >= 3 }, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, s.TaskCount())
	assert.Equal(t, 0, closer.callCount())
	assert.Equal(t, domain.StatusActive, ledger.status("t-hold"))
}

func TestScheduler_FeedFailureKeepsMonitoring(t *testing.T) {
	trade := activeTrade("t-feed", "tokA")
	ledger := newMockLedger(trade)
	feed := &mockFeed{err: errors.New("upstream 500")}
	closer := &mockCloser{ledger: ledger}
	s := newTestScheduler(t, Config{Ledger: ledger, Feed: feed, Closer: closer})

	s.Start("t-feed")
	require.Eventually(t, func() bool { return feed.callCount() >= 3 }, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, s.TaskCount())
	assert.Equal(t, 0, closer.callCount())
	assert.Equal(t, domain.StatusActive, ledger.status("t-feed"))
}

func TestScheduler_ClosedTradeRetiresSilently(t *testing.T) {
	trade := activeTrade("t-gone", "tokA")
	trade.Status = domain.StatusClosed
	ledger := newMockLedger(trade)
	feed := &mockFeed{price: 100}
	closer := &mockCloser{ledger: ledger}
	s := newTestScheduler(t, Config{Ledger: ledger, Feed: feed, Closer: closer})

	s.Start("t-gone")
	require.Eventually(t, func() bool { return s.TaskCount() == 0 }, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, closer.callCount())
	assert.Equal(t, 0, feed.callCount())
}

func TestScheduler_MissingTradeRetires(t *testing.T) {
	ledger := newMockLedger()
	feed := &mockFeed{price: 100}
	closer := &mockCloser{}
	s := newTestScheduler(t, Config{Ledger: ledger, Feed: feed, Closer: closer})

	s.Start("t-missing")
	require.Eventually(t, func() bool { return s.TaskCount() == 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, closer.callCount())
}

func TestScheduler_LedgerErrorBacksOff(t *testing.T) {
	trade := activeTrade("t-err", "tokA")
	ledger := newMockLedger(trade)
	ledger.findByIDErr = errors.New("db locked")
	feed := &mockFeed{price: 100}
	closer := &mockCloser{}
	interval := 20 * time.Millisecond
	s := newTestScheduler(t, Config{Ledger: ledger, Feed: feed, Closer: closer, Interval: interval})

	s.Start("t-err")
	require.Eventually(t, func() bool { return ledger.readCount() >= 3 }, 5*time.Second, 5*time.Millisecond)

	// After a failed read the next attempt waits at least twice the
	// standard interval.
	reads := ledger.readTimes()
	for i := 1; i < 3; i++ {
		gap := reads[i].Sub(reads[i-1])
		assert.GreaterOrEqual(t, gap, 2*interval, "read %d rescheduled too soon", i)
	}
	assert.Equal(t, 1, s.TaskCount())
	assert.Equal(t, 0, feed.callCount())
}

func TestScheduler_RateLimitDefersWithoutConsuming(t *testing.T) {
	trade := activeTrade("t-limit", "tokA")
	ledger := newMockLedger(trade)
	feed := &mockFeed{price: 200} // would exit immediately if evaluated
	closer := &mockCloser{ledger: ledger}
	limiter := ratelimit.NewSlidingWindow(0, time.Minute) // denies everything
	s := newTestScheduler(t, Config{Ledger: ledger, Feed: feed, Closer: closer, Limiter: limiter})

	s.Start("t-limit")
	time.Sleep(100 * time.Millisecond)

	// Every tick deferred: the task stays alive and no budget was spent
	// on reads or price fetches.
	assert.Equal(t, 1, s.TaskCount())
	assert.Equal(t, 0, ledger.readCount())
	assert.Equal(t, 0, feed.callCount())
	assert.Equal(t, 0, closer.callCount())
}

func TestScheduler_StartIsIdempotent(t *testing.T) {
	trade := activeTrade("t-dup", "tokA")
	ledger := newMockLedger(trade)
	feed := &mockFeed{price: 110}
	closer := &mockCloser{ledger: ledger}
	s := newTestScheduler(t, Config{Ledger: ledger, Feed: feed, Closer: closer})

	s.Start("t-dup")
	s.Start("t-dup")
	s.Start("t-dup")
	assert.Equal(t, 1, s.TaskCount())
}

func TestScheduler_StopDropsAllTasks(t *testing.T) {
	ledger := newMockLedger(activeTrade("t-1", "tokA"), activeTrade("t-2", "tokB"))
	feed := &mockFeed{price: 110}
	closer := &mockCloser{ledger: ledger}
	s := newTestScheduler(t, Config{Ledger: ledger, Feed: feed, Closer: closer})

	require.NoError(t, s.Rehydrate(context.Background()))
	require.Equal(t, 2, s.TaskCount())

	s.Stop()
	assert.Equal(t, 0, s.TaskCount())

	// Starts after Stop are ignored.
	s.Start("t-1")
	assert.Equal(t, 0, s.TaskCount())
}
