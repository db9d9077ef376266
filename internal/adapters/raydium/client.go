// Package raydium implements the ports.ExecutionVenue interface against a
// Raydium swap HTTP API. Order routing and slippage handling happen on the
// API side; this adapter only submits orders and reports outcomes.
package raydium

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"solTraderBot/internal/ports"
)

const (
	buyPath  = "/solana/swap/buy"
	sellPath = "/solana/swap/sell"
)

// Client implements ports.ExecutionVenue.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     ports.Logger
}

// Config holds configuration specific to the swap API adapter.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  ports.Logger
}

// New creates a new swap API client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for swap API client")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required for swap API client: %w", ports.ErrConfigurationError)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		logger:     cfg.Logger,
	}, nil
}

type buyPayload struct {
	PrivateKey        string  `json:"private_key"`
	PublicKey         string  `json:"public_key"`
	Mint              string  `json:"mint"`
	Amount            float64 `json:"amount"`
	ReferralPublicKey string  `json:"referralPublicKey,omitempty"`
	PriorityFee       float64 `json:"priorityFee"`
	Slippage          float64 `json:"slippage"`
	UseJito           bool    `json:"useJito"`
}

type sellPayload struct {
	PrivateKey        string  `json:"private_key"`
	PublicKey         string  `json:"public_key"`
	Mint              string  `json:"mint"`
	TokenAmount       float64 `json:"tokenAmount"`
	ReferralPublicKey string  `json:"referralPublicKey,omitempty"`
	PriorityFee       float64 `json:"priorityFee"`
	Slippage          float64 `json:"slippage"`
	UseJito           bool    `json:"useJito"`
}

// swapResponse mirrors the API's order result. Quantities arrive as
// decimal strings.
type swapResponse struct {
	Success         bool   `json:"success"`
	TxID            string `json:"txid"`
	TokensPurchased string `json:"tokensPurchased"`
	Error           string `json:"error"`
}

// Buy places a buy order. A response without a transaction id is treated as
// a failed order even when the success flag is set.
func (c *Client) Buy(ctx context.Context, req ports.BuyRequest) (*ports.BuyResult, error) {
	payload := buyPayload{
		PrivateKey:        req.PrivateKey,
		PublicKey:         req.PublicKey,
		Mint:              req.Mint,
		Amount:            req.AmountSOL,
		ReferralPublicKey: req.Options.ReferralPublicKey,
		PriorityFee:       req.Options.PriorityFee,
		Slippage:          req.Options.Slippage,
		UseJito:           req.Options.UseJito,
	}

	var resp swapResponse
	if err := c.post(ctx, buyPath, payload, &resp); err != nil {
		return nil, err
	}

	if !resp.Success || resp.TxID == "" {
		c.logger.Warn(ctx, "Buy order declined by venue", map[string]interface{}{
			"mint":  req.Mint,
			"error": resp.Error,
		})
		return &ports.BuyResult{Success: false}, nil
	}

	tokens, err := strconv.ParseFloat(resp.TokensPurchased, 64)
	if err != nil {
		return nil, fmt.Errorf("unparsable purchased quantity %q for mint %s: %w", resp.TokensPurchased, req.Mint, ports.ErrBuyFailed)
	}

	c.logger.Info(ctx, "Buy order filled", map[string]interface{}{
		"mint":   req.Mint,
		"txId":   resp.TxID,
		"tokens": tokens,
	})
	return &ports.BuyResult{Success: true, TxID: resp.TxID, TokensPurchased: tokens}, nil
}

// Sell places a sell order for a token quantity.
func (c *Client) Sell(ctx context.Context, req ports.SellRequest) (*ports.SellResult, error) {
	payload := sellPayload{
		PrivateKey:        req.PrivateKey,
		PublicKey:         req.PublicKey,
		Mint:              req.Mint,
		TokenAmount:       req.TokenAmount,
		ReferralPublicKey: req.Options.ReferralPublicKey,
		PriorityFee:       req.Options.PriorityFee,
		Slippage:          req.Options.Slippage,
		UseJito:           req.Options.UseJito,
	}

	var resp swapResponse
	if err := c.post(ctx, sellPath, payload, &resp); err != nil {
		return nil, err
	}

	if !resp.Success || resp.TxID == "" {
		c.logger.Warn(ctx, "Sell order declined by venue", map[string]interface{}{
			"mint":  req.Mint,
			"error": resp.Error,
		})
		return &ports.SellResult{Success: false}, nil
	}

	c.logger.Info(ctx, "Sell order filled", map[string]interface{}{
		"mint": req.Mint,
		"txId": resp.TxID,
	})
	return &ports.SellResult{Success: true, TxID: resp.TxID}, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build swap request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("swap request failed: %w: %v", ports.ErrVenueUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("swap API returned status %d: %w", resp.StatusCode, ports.ErrVenueUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode swap response: %w", err)
	}
	return nil
}
