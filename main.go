package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"solTraderBot/config"
	"solTraderBot/internal/adapters/agentapi"
	"solTraderBot/internal/adapters/dexscreener"
	"solTraderBot/internal/adapters/logger"
	"solTraderBot/internal/adapters/raydium"
	"solTraderBot/internal/adapters/sqlite"
	"solTraderBot/internal/adapters/wallet"
	"solTraderBot/internal/app"
	"solTraderBot/internal/monitor"
	"solTraderBot/internal/ratelimit"
	"solTraderBot/internal/signal"
	"solTraderBot/pkg/retrier"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()
	ctx := context.Background()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Trade Ledger (Database Adapter)
	ledger, err := sqlite.NewLedger(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize trade ledger")
		log.Fatalf("FATAL: Failed to initialize trade ledger: %v", err)
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing trade ledger")
		}
	}()
	appLogger.Info(ctx, "Trade ledger initialized", map[string]interface{}{"dbPath": cfg.DBPath})

	// 4. Initialize Market Data Feed
	feed, err := dexscreener.New(dexscreener.Config{
		BaseURL: cfg.MarketDataBaseURL,
		Timeout: cfg.HTTPTimeout,
		Logger:  appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize market data feed")
		log.Fatalf("FATAL: Failed to initialize market data feed: %v", err)
	}

	// 5. Initialize Execution Venue
	venue, err := raydium.New(raydium.Config{
		BaseURL: cfg.VenueBaseURL,
		Timeout: cfg.HTTPTimeout,
		Logger:  appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize execution venue")
		log.Fatalf("FATAL: Failed to initialize execution venue: %v", err)
	}

	// 6. Initialize Wallet Provider
	walletProvider, err := wallet.New(wallet.Config{
		PublicKey:           cfg.WalletPublicKey,
		EncryptedPrivateKey: cfg.WalletEncryptedKey,
		EncryptionKeyHex:    cfg.WalletEncryptionKey,
		Logger:              appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize wallet provider")
		log.Fatalf("FATAL: Failed to initialize wallet provider: %v", err)
	}

	// 7. Initialize Signal Source
	agentClient, err := agentapi.New(agentapi.Config{
		BaseURL: cfg.SignalBaseURL,
		Timeout: cfg.HTTPTimeout,
		Logger:  appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize signal client")
		log.Fatalf("FATAL: Failed to initialize signal client: %v", err)
	}
	signalRetrier := retrier.New(retrier.WithMaxAttempts(cfg.SignalMaxAttempts))
	source, err := signal.NewSource(agentClient, signalRetrier, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize signal source")
		log.Fatalf("FATAL: Failed to initialize signal source: %v", err)
	}

	// 8. Initialize Trade Execution and Monitoring
	trader, err := app.NewTrader(cfg, appLogger, ledger, venue, feed, walletProvider)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize trader")
		log.Fatalf("FATAL: Failed to initialize trader: %v", err)
	}

	limiter := ratelimit.NewSlidingWindow(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
	scheduler, err := monitor.NewScheduler(monitor.Config{
		Ledger:   ledger,
		Feed:     feed,
		Limiter:  limiter,
		Closer:   trader,
		Logger:   appLogger,
		Network:  cfg.Network,
		Interval: cfg.MonitorInterval,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize monitoring scheduler")
		log.Fatalf("FATAL: Failed to initialize monitoring scheduler: %v", err)
	}
	trader.AttachMonitor(scheduler)

	// 9. Expose Metrics
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		appLogger.Info(ctx, "Metrics server listening", map[string]interface{}{"addr": cfg.MetricsAddr})
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			appLogger.Error(ctx, err, "Metrics server exited")
		}
	}()

	// 10. Initialize and Run the Application Service
	service, err := app.NewService(cfg, appLogger, trader, scheduler, source)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize trading service")
		log.Fatalf("FATAL: Failed to initialize trading service: %v", err)
	}

	if err := service.Run(ctx); err != nil {
		appLogger.Error(ctx, err, "Trading service exited with error")
		log.Fatalf("FATAL: Trading service exited with error: %v", err)
	}

	appLogger.Info(ctx, "Application finished gracefully.")
}
