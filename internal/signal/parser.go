// Package signal turns upstream analysis output into trade intents.
package signal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"solTraderBot/internal/domain"
	"solTraderBot/internal/ports"
)

// Fallback thresholds used when the decision text carries no parsable
// gain/loss targets.
const (
	DefaultTargetGainPct = 50.0
	DefaultTargetLossPct = 20.0
)

var (
	quickGainRe = regexp.MustCompile(`Gain \+(\d+)%`)
	quickLossRe = regexp.MustCompile(`Loss -(\d+)%`)
	// The standard format appears in two phrasings.
	investGainRe = regexp.MustCompile(`(?i)(?:take profit at|Gain \+)(\d+)%`)
	investLossRe = regexp.MustCompile(`(?i)(?:stop loss at|Loss -)(\d+)%`)
)

// ParseDecision extracts a trade intent from free-form decision text.
// "Pass" decisions return ports.ErrSignalRejected; decisions that are
// neither a pass nor a recognized buy format return ports.ErrInvalidSignal.
// Missing gain/loss targets fall back to the documented defaults.
func ParseDecision(tokenAddress, tokenName, decision string) (*domain.TradeIntent, error) {
	if tokenAddress == "" {
		return nil, fmt.Errorf("%w: missing token address", ports.ErrInvalidSignal)
	}
	if strings.HasPrefix(decision, "Pass") {
		return nil, fmt.Errorf("%w: %s", ports.ErrSignalRejected, decision)
	}

	var (
		tradeType      domain.TradeType
		gainRe, lossRe *regexp.Regexp
	)
	switch {
	case strings.HasPrefix(decision, "Quick Profit"):
		tradeType = domain.TradeTypeQuickProfit
		gainRe, lossRe = quickGainRe, quickLossRe
	case strings.HasPrefix(decision, "Invest"):
		tradeType = domain.TradeTypeInvest
		gainRe, lossRe = investGainRe, investLossRe
	default:
		return nil, fmt.Errorf("%w: unrecognized decision %q", ports.ErrInvalidSignal, decision)
	}

	return &domain.TradeIntent{
		TokenAddress:  tokenAddress,
		TokenName:     tokenName,
		TargetGainPct: extractPct(gainRe, decision, DefaultTargetGainPct),
		TargetLossPct: extractPct(lossRe, decision, DefaultTargetLossPct),
		TradeType:     tradeType,
	}, nil
}

func extractPct(re *regexp.Regexp, decision string, fallback float64) float64 {
	m := re.FindStringSubmatch(decision)
	if m == nil {
		return fallback
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
