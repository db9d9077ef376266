package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solTraderBot/internal/ports"
)

type mockSource struct {
	mu      sync.Mutex
	signals []*ports.RawSignal
	err     error
	calls   int
}

func (m *mockSource) Next(ctx context.Context) (*ports.RawSignal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.signals) == 0 {
		return nil, errors.New("no signal available")
	}
	s := m.signals[0]
	if len(m.signals) > 1 {
		m.signals = m.signals[1:]
	}
	return s, nil
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type serviceFixture struct {
	service *Service
	traderF *traderFixture
	monitor *mockMonitor
	source  *mockSource
}

func newServiceFixture(t *testing.T, tradingEnabled bool, source *mockSource) *serviceFixture {
	t.Helper()
	tf := newTraderFixture(t)
	tf.trader.cfg.TradingEnabled = tradingEnabled
	monitor := &mockMonitor{}
	svc, err := NewService(tf.trader.cfg, &nopLogger{}, tf.trader, monitor, source)
	require.NoError(t, err)
	return &serviceFixture{service: svc, traderF: tf, monitor: monitor, source: source}
}

func runBriefly(t *testing.T, svc *Service, d time.Duration) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return svc.Run(ctx)
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(nil, nil, nil, nil, nil)
	require.Error(t, err)

	cfg := testConfig()
	cfg.SignalPollInterval = 0
	tf := newTraderFixture(t)
	_, err = NewService(cfg, &nopLogger{}, tf.trader, &mockMonitor{}, &mockSource{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SignalPollInterval")
}

func TestService_RunSubmitsBuyForActionableSignal(t *testing.T) {
	source := &mockSource{signals: []*ports.RawSignal{{
		TokenAddress: "tokA",
		TokenName:    "TEST",
		Decision:     "Quick Profit: momentum building. Gain +50%, Loss -20%",
	}}}
	f := newServiceFixture(t, true, source)

	require.NoError(t, runBriefly(t, f.service, 100*time.Millisecond))

	assert.True(t, f.monitor.rehydrated)
	assert.True(t, f.monitor.stopped)
	assert.GreaterOrEqual(t, source.callCount(), 1)

	active, err := f.traderF.ledger.FindActive(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, active)
	assert.Equal(t, "tokA", active[0].TokenAddress)
}

func TestService_RunSkipsBuyWhenTradingDisabled(t *testing.T) {
	source := &mockSource{signals: []*ports.RawSignal{{
		TokenAddress: "tokA",
		TokenName:    "TEST",
		Decision:     "Quick Profit: momentum building. Gain +50%, Loss -20%",
	}}}
	f := newServiceFixture(t, false, source)

	require.NoError(t, runBriefly(t, f.service, 100*time.Millisecond))

	assert.GreaterOrEqual(t, source.callCount(), 1)
	assert.Equal(t, 0, f.traderF.venue.buyCallCount())
}

func TestService_RunIgnoresPassDecision(t *testing.T) {
	source := &mockSource{signals: []*ports.RawSignal{{
		TokenAddress: "tokA",
		TokenName:    "TEST",
		Decision:     "Pass: liquidity too thin",
	}}}
	f := newServiceFixture(t, true, source)

	require.NoError(t, runBriefly(t, f.service, 100*time.Millisecond))

	assert.Equal(t, 0, f.traderF.venue.buyCallCount())
	active, _ := f.traderF.ledger.FindActive(context.Background())
	assert.Empty(t, active)
}

func TestService_RunToleratesSourceFailure(t *testing.T) {
	source := &mockSource{err: errors.New("upstream down")}
	f := newServiceFixture(t, true, source)

	require.NoError(t, runBriefly(t, f.service, 100*time.Millisecond))

	// The loop keeps polling across failures instead of exiting.
	assert.GreaterOrEqual(t, source.callCount(), 2)
	assert.True(t, f.monitor.stopped)
}

func TestService_RunFailsOnRehydrateError(t *testing.T) {
	source := &mockSource{}
	f := newServiceFixture(t, true, source)
	f.monitor.rehydrateErr = errors.New("db locked")

	err := runBriefly(t, f.service, 100*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rehydrate")
	assert.Equal(t, 0, source.callCount())
}
