// Package dexscreener implements the ports.MarketDataFeed interface against
// the DexScreener token-pairs HTTP API.
package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"solTraderBot/internal/ports"
)

const defaultBaseURL = "https://api.dexscreener.com"

// Client implements ports.MarketDataFeed.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     ports.Logger
}

// Config holds configuration specific to the DexScreener adapter.
type Config struct {
	BaseURL string        // Defaults to the public API
	Timeout time.Duration // HTTP timeout per request
	Logger  ports.Logger
}

// New creates a new DexScreener client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for DexScreener client")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     cfg.Logger,
	}, nil
}

// pair mirrors the subset of the token-pairs response the bot uses.
// Prices arrive as decimal strings.
type pair struct {
	PriceNative string `json:"priceNative"`
	PriceUSD    string `json:"priceUsd"`
	BaseToken   struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"baseToken"`
}

// GetPrice retrieves the current native and display prices for a token.
// The first listed pair is taken as authoritative, matching how the feed
// ranks pairs by liquidity.
func (c *Client) GetPrice(ctx context.Context, network, tokenAddress string) (*ports.TokenPrice, error) {
	url := fmt.Sprintf("%s/token-pairs/v1/%s/%s", c.baseURL, network, tokenAddress)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build price request for %s: %w", tokenAddress, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price request for %s failed: %w", tokenAddress, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price request for %s returned status %d: %w", tokenAddress, resp.StatusCode, ports.ErrPriceUnavailable)
	}

	var pairs []pair
	if err := json.NewDecoder(resp.Body).Decode(&pairs); err != nil {
		return nil, fmt.Errorf("failed to decode price response for %s: %w", tokenAddress, err)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no pairs listed for token %s: %w", tokenAddress, ports.ErrPriceUnavailable)
	}

	priceNative, err := strconv.ParseFloat(pairs[0].PriceNative, 64)
	if err != nil {
		return nil, fmt.Errorf("unparsable native price %q for %s: %w", pairs[0].PriceNative, tokenAddress, ports.ErrPriceUnavailable)
	}
	priceUSD, err := strconv.ParseFloat(pairs[0].PriceUSD, 64)
	if err != nil {
		return nil, fmt.Errorf("unparsable usd price %q for %s: %w", pairs[0].PriceUSD, tokenAddress, ports.ErrPriceUnavailable)
	}

	name := pairs[0].BaseToken.Name
	if name == "" {
		name = pairs[0].BaseToken.Symbol
	}

	c.logger.Debug(ctx, "Fetched token price", map[string]interface{}{
		"token":       tokenAddress,
		"priceNative": priceNative,
		"priceUsd":    priceUSD,
	})

	return &ports.TokenPrice{
		TokenName: name,
		PriceSOL:  priceNative,
		PriceUSD:  priceUSD,
	}, nil
}
