// Package agentapi implements the ports.SignalSource interface against the
// upstream analysis service: one call discovers a candidate token, a second
// asks the trading agent for its decision on it.
package agentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"solTraderBot/internal/ports"
)

const (
	latestTokenPath = "/tokens/latest"
	decisionPath    = "/agents/trade-decision"
)

// Client implements ports.SignalSource.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     ports.Logger
}

// Config holds configuration specific to the analysis service adapter.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  ports.Logger
}

// New creates a new analysis service client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for analysis service client")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required for analysis service client: %w", ports.ErrConfigurationError)
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

type candidateToken struct {
	TokenAddress string `json:"tokenAddress"`
	TokenName    string `json:"tokenName"`
	ChainID      string `json:"chainId"`
}

type decisionRequest struct {
	Chain           string `json:"chain"`
	ContractAddress string `json:"contractAddress"`
}

type agentResponse struct {
	Agents []struct {
		Name     string `json:"name"`
		Response string `json:"response"`
		Decision string `json:"decision"`
	} `json:"agents"`
}

// Fetch retrieves the next candidate signal: the latest discovered token
// plus the trading agent's analysis and decision text for it.
func (c *Client) Fetch(ctx context.Context) (*ports.RawSignal, error) {
	var token candidateToken
	if err := c.get(ctx, latestTokenPath, &token); err != nil {
		return nil, fmt.Errorf("failed to fetch candidate token: %w", err)
	}
	if token.TokenAddress == "" {
		return nil, fmt.Errorf("candidate token has no address: %w", ports.ErrInvalidSignal)
	}

	var decision agentResponse
	if err := c.post(ctx, decisionPath, decisionRequest{Chain: token.ChainID, ContractAddress: token.TokenAddress}, &decision); err != nil {
		return nil, fmt.Errorf("failed to fetch agent decision for %s: %w", token.TokenAddress, err)
	}
	if len(decision.Agents) == 0 {
		return nil, fmt.Errorf("analysis service returned no agents for %s: %w", token.TokenAddress, ports.ErrInvalidSignal)
	}

	agent := decision.Agents[0]
	c.logger.Debug(ctx, "Fetched signal", map[string]interface{}{
		"token":    token.TokenAddress,
		"decision": agent.Decision,
	})

	return &ports.RawSignal{
		TokenAddress: token.TokenAddress,
		TokenName:    token.TokenName,
		ChainID:      token.ChainID,
		Analysis:     agent.Response,
		Decision:     agent.Decision,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("analysis service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("analysis service returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode analysis service response: %w", err)
	}
	return nil
}
