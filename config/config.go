package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"solTraderBot/internal/adapters/logger"
)

// Config holds all application configuration.
type Config struct {
	// Trading Parameters
	TradingEnabled      bool    // Master switch; when false, signals are parsed but no buys happen
	InvestmentAmountSOL float64 // SOL spent per buy
	Network             string  // Chain identifier passed to the market data feed
	PriorityFee         float64 // Transaction priority fee in SOL
	BuySlippage         float64 // Buy slippage tolerance percentage
	SellSlippage        float64 // Sell slippage tolerance percentage
	ReferralPublicKey   string
	UseJito             bool

	// Monitoring
	MonitorInterval      time.Duration // Standard delay between price checks per trade
	RateLimitMaxRequests int           // Shared budget of price checks per window
	RateLimitWindow      time.Duration

	// Signals
	SignalPollInterval time.Duration
	SignalMaxAttempts  int // Bounded retries per signal fetch

	// Wallet
	WalletPublicKey     string
	WalletEncryptedKey  string // base64(nonce || ciphertext)
	WalletEncryptionKey string // hex-encoded 32-byte key

	// Upstream services
	MarketDataBaseURL string // Empty uses the adapter's default
	VenueBaseURL      string
	SignalBaseURL     string
	HTTPTimeout       time.Duration

	// Database
	DBPath string

	// Observability
	MetricsAddr string
	LogLevel    zapcore.Level
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Trading Parameters
	cfg.TradingEnabled = getEnvAsBool("TRADING_ENABLED", false) // Default off for safety

	cfg.InvestmentAmountSOL, err = getEnvAsFloatRequired("INVESTMENT_AMOUNT_SOL", 0.1)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid INVESTMENT_AMOUNT_SOL: %v", err))
	} else if cfg.InvestmentAmountSOL <= 0 {
		errs = append(errs, "INVESTMENT_AMOUNT_SOL must be positive")
	}

	cfg.Network = getEnv("NETWORK", "solana")
	if cfg.Network == "" {
		errs = append(errs, "NETWORK must be set")
	}

	cfg.PriorityFee, err = getEnvAsFloatRequired("PRIORITY_FEE", 0.0001)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid PRIORITY_FEE: %v", err))
	} else if cfg.PriorityFee < 0 {
		errs = append(errs, "PRIORITY_FEE cannot be negative")
	}

	cfg.BuySlippage, err = getEnvAsFloatRequired("BUY_SLIPPAGE", 10.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid BUY_SLIPPAGE: %v", err))
	} else if cfg.BuySlippage <= 0 || cfg.BuySlippage > 100 {
		errs = append(errs, "BUY_SLIPPAGE must be between 0 and 100")
	}

	cfg.SellSlippage, err = getEnvAsFloatRequired("SELL_SLIPPAGE", 15.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SELL_SLIPPAGE: %v", err))
	} else if cfg.SellSlippage <= 0 || cfg.SellSlippage > 100 {
		errs = append(errs, "SELL_SLIPPAGE must be between 0 and 100")
	}

	cfg.ReferralPublicKey = getEnv("REFERRAL_PUBLIC_KEY", "")
	cfg.UseJito = getEnvAsBool("USE_JITO", true)

	// Monitoring
	monitorIntervalSeconds := getEnvAsInt("MONITOR_INTERVAL_SECONDS", 5)
	if monitorIntervalSeconds <= 0 {
		errs = append(errs, "MONITOR_INTERVAL_SECONDS must be positive")
	}
	cfg.MonitorInterval = time.Duration(monitorIntervalSeconds) * time.Second

	cfg.RateLimitMaxRequests = getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 300)
	if cfg.RateLimitMaxRequests <= 0 {
		errs = append(errs, "RATE_LIMIT_MAX_REQUESTS must be positive")
	}

	rateLimitWindowSeconds := getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60)
	if rateLimitWindowSeconds <= 0 {
		errs = append(errs, "RATE_LIMIT_WINDOW_SECONDS must be positive")
	}
	cfg.RateLimitWindow = time.Duration(rateLimitWindowSeconds) * time.Second

	// Signals
	signalPollSeconds := getEnvAsInt("SIGNAL_POLL_INTERVAL_SECONDS", 60)
	if signalPollSeconds <= 0 {
		errs = append(errs, "SIGNAL_POLL_INTERVAL_SECONDS must be positive")
	}
	cfg.SignalPollInterval = time.Duration(signalPollSeconds) * time.Second

	cfg.SignalMaxAttempts = getEnvAsInt("SIGNAL_MAX_ATTEMPTS", 3)
	if cfg.SignalMaxAttempts <= 0 {
		errs = append(errs, "SIGNAL_MAX_ATTEMPTS must be positive")
	}

	// Wallet
	cfg.WalletPublicKey = getEnv("WALLET_PUBLIC_KEY", "")
	cfg.WalletEncryptedKey = getEnv("WALLET_ENCRYPTED_PRIVATE_KEY", "")
	cfg.WalletEncryptionKey = getEnv("WALLET_ENCRYPTION_KEY", "")
	if cfg.TradingEnabled {
		// The wallet is only touched on the live trading path.
		if cfg.WalletPublicKey == "" {
			errs = append(errs, "WALLET_PUBLIC_KEY must be set when trading is enabled")
		}
		if cfg.WalletEncryptedKey == "" {
			errs = append(errs, "WALLET_ENCRYPTED_PRIVATE_KEY must be set when trading is enabled")
		}
		if cfg.WalletEncryptionKey == "" {
			errs = append(errs, "WALLET_ENCRYPTION_KEY must be set when trading is enabled")
		}
	}

	// Upstream services
	cfg.MarketDataBaseURL = getEnv("MARKET_DATA_BASE_URL", "")
	cfg.VenueBaseURL = getEnv("VENUE_BASE_URL", "")
	if cfg.VenueBaseURL == "" {
		errs = append(errs, "VENUE_BASE_URL must be set")
	}
	cfg.SignalBaseURL = getEnv("SIGNAL_BASE_URL", "")
	if cfg.SignalBaseURL == "" {
		errs = append(errs, "SIGNAL_BASE_URL must be set")
	}

	httpTimeoutSeconds := getEnvAsInt("HTTP_TIMEOUT_SECONDS", 30)
	if httpTimeoutSeconds <= 0 {
		errs = append(errs, "HTTP_TIMEOUT_SECONDS must be positive")
	}
	cfg.HTTPTimeout = time.Duration(httpTimeoutSeconds) * time.Second

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/trades.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Observability
	cfg.MetricsAddr = getEnv("METRICS_ADDR", ":9090")
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr)

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Log warning? For non-required fields, default is often acceptable.
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
