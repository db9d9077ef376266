package signal

import (
	"context"
	"fmt"

	"solTraderBot/internal/ports"
	"solTraderBot/pkg/retrier"
)

// Source fetches signals from the upstream analysis service with a bounded
// retry budget. Once the budget is exhausted it fails with a typed error
// instead of retrying indefinitely.
type Source struct {
	upstream ports.SignalSource
	retrier  *retrier.Retrier
	logger   ports.Logger
}

// NewSource wraps an upstream signal source. A nil retrier gets the
// package defaults.
func NewSource(upstream ports.SignalSource, r *retrier.Retrier, logger ports.Logger) (*Source, error) {
	if upstream == nil || logger == nil {
		return nil, fmt.Errorf("upstream source and logger are required")
	}
	if r == nil {
		r = retrier.New()
	}
	return &Source{upstream: upstream, retrier: r, logger: logger}, nil
}

// Next retrieves one well-formed signal. Transient upstream failures and
// malformed responses are retried up to the budget; afterwards the last
// failure is reported as ports.ErrInvalidSignal.
func (s *Source) Next(ctx context.Context) (*ports.RawSignal, error) {
	raw, err := retrier.DoWithData(s.retrier, ctx, func(ctx context.Context) (*ports.RawSignal, error) {
		sig, err := s.upstream.Fetch(ctx)
		if err != nil {
			s.logger.Warn(ctx, "Signal fetch failed, will retry within budget", map[string]interface{}{"error": err.Error()})
			return nil, err
		}
		if sig == nil || sig.TokenAddress == "" || sig.Decision == "" {
			s.logger.Warn(ctx, "Upstream returned incomplete signal, will retry within budget")
			return nil, ports.ErrInvalidSignal
		}
		return sig, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ports.ErrInvalidSignal, err)
	}
	return raw, nil
}
