package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solTraderBot/config"
	"solTraderBot/internal/metrics"
	"solTraderBot/internal/ports"
	sig "solTraderBot/internal/signal"
)

// signalSource yields the next trade signal from upstream.
type signalSource interface {
	Next(ctx context.Context) (*ports.RawSignal, error)
}

// monitorController is the lifecycle surface of the monitoring scheduler.
type monitorController interface {
	Rehydrate(ctx context.Context) error
	Stop()
}

// Service is the bot's top-level loop: rehydrate monitoring at startup,
// then poll for signals and hand actionable ones to the Trader.
type Service struct {
	cfg     *config.Config
	logger  ports.Logger
	trader  *Trader
	monitor monitorController
	source  signalSource
}

// NewService creates the application service.
func NewService(
	cfg *config.Config,
	logger ports.Logger,
	trader *Trader,
	monitor monitorController,
	source signalSource,
) (*Service, error) {
	// Validate dependencies
	if cfg == nil || logger == nil || trader == nil || monitor == nil || source == nil {
		return nil, fmt.Errorf("missing required dependencies for Service")
	}
	if cfg.SignalPollInterval <= 0 {
		return nil, fmt.Errorf("configuration SignalPollInterval must be positive")
	}
	return &Service{
		cfg:     cfg,
		logger:  logger,
		trader:  trader,
		monitor: monitor,
		source:  source,
	}, nil
}

// Run starts the bot and blocks until the context is canceled or a
// shutdown signal arrives.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info(ctx, "Starting trading service...", map[string]interface{}{
		"tradingEnabled": s.cfg.TradingEnabled,
		"pollInterval":   s.cfg.SignalPollInterval.String(),
	})

	// Create a context that can be canceled by signals
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case received := <-sigCh:
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": received.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	// Resume monitoring of trades that were active before the last
	// shutdown. Monitoring state lives only in the ledger, so a failure
	// here means flying blind; treat it as fatal.
	if err := s.monitor.Rehydrate(ctx); err != nil {
		s.logger.Error(ctx, err, "Failed to rehydrate trade monitoring")
		return fmt.Errorf("failed to rehydrate trade monitoring: %w", err)
	}

	ticker := time.NewTicker(s.cfg.SignalPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Shutting down trading service...")
			s.monitor.Stop()
			return nil
		case <-ticker.C:
			s.processSignal(ctx)
		}
	}
}

// processSignal fetches one signal, parses its decision and, when trading
// is enabled, submits the resulting buy intent.
func (s *Service) processSignal(ctx context.Context) {
	raw, err := s.source.Next(ctx)
	if err != nil {
		s.logger.Warn(ctx, "Failed to fetch signal", map[string]interface{}{"error": err.Error()})
		return
	}

	intent, err := sig.ParseDecision(raw.TokenAddress, raw.TokenName, raw.Decision)
	if err != nil {
		if errors.Is(err, ports.ErrSignalRejected) {
			s.logger.Info(ctx, "Signal passed on token", map[string]interface{}{
				"token":    raw.TokenAddress,
				"decision": raw.Decision,
			})
			metrics.IncBuy("rejected")
			return
		}
		s.logger.Warn(ctx, "Unparseable signal decision", map[string]interface{}{
			"token":    raw.TokenAddress,
			"decision": raw.Decision,
			"error":    err.Error(),
		})
		return
	}

	if !s.cfg.TradingEnabled {
		s.logger.Info(ctx, "Trading disabled, skipping buy", map[string]interface{}{
			"token":     intent.TokenAddress,
			"tradeType": intent.TradeType,
		})
		return
	}

	outcome, err := s.trader.SubmitBuy(ctx, intent)
	if err != nil {
		s.logger.Error(ctx, err, "Buy submission failed", map[string]interface{}{"token": intent.TokenAddress})
		return
	}
	s.logger.Info(ctx, "Buy submitted", map[string]interface{}{
		"tradeID":  outcome.TradeID,
		"token":    intent.TokenAddress,
		"isUpdate": outcome.IsUpdate,
		"txID":     outcome.TxID,
	})
}
