package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"solTraderBot/config"
	"solTraderBot/internal/domain"
	"solTraderBot/internal/metrics"
	"solTraderBot/internal/ports"
	"solTraderBot/internal/signal"
)

// MonitorStarter begins the recurring evaluation of a trade. Implemented
// by the monitor scheduler; attached after construction because the
// scheduler's sell path is the Trader itself.
type MonitorStarter interface {
	Start(tradeID string)
}

// BuyOutcome describes the result of submitting a buy intent.
type BuyOutcome struct {
	Success        bool
	TradeID        string
	TxID           string
	IsUpdate       bool // true when the buy merged into an existing active trade
	AmountInvested float64
	TokensReceived float64
}

// Trader executes buys and sells against the venue and keeps the trade
// ledger consistent with what actually happened on chain. At most one
// ACTIVE trade exists per token: a buy for a token that already has one
// merges into it instead of creating a second record.
type Trader struct {
	cfg    *config.Config
	logger ports.Logger
	ledger ports.TradeLedger
	venue  ports.ExecutionVenue
	feed   ports.MarketDataFeed
	wallet ports.WalletProvider

	monitor MonitorStarter

	// tokenLocks serializes the check-then-act window per token so two
	// near-simultaneous signals for the same token cannot both take the
	// create path.
	mu         sync.Mutex
	tokenLocks map[string]*sync.Mutex
}

// NewTrader creates the trade execution service.
func NewTrader(
	cfg *config.Config,
	logger ports.Logger,
	ledger ports.TradeLedger,
	venue ports.ExecutionVenue,
	feed ports.MarketDataFeed,
	wallet ports.WalletProvider,
) (*Trader, error) {
	// Validate dependencies
	if cfg == nil || logger == nil || ledger == nil || venue == nil || feed == nil || wallet == nil {
		return nil, fmt.Errorf("missing required dependencies for Trader")
	}
	if cfg.InvestmentAmountSOL <= 0 {
		return nil, fmt.Errorf("configuration InvestmentAmountSOL must be positive")
	}
	return &Trader{
		cfg:        cfg,
		logger:     logger,
		ledger:     ledger,
		venue:      venue,
		feed:       feed,
		wallet:     wallet,
		tokenLocks: make(map[string]*sync.Mutex),
	}, nil
}

// AttachMonitor wires the monitoring scheduler in. Must be called before
// the first SubmitBuy; the scheduler cannot be a constructor argument
// because it takes the Trader as its sell path.
func (t *Trader) AttachMonitor(m MonitorStarter) {
	t.monitor = m
}

func (t *Trader) lockToken(tokenAddress string) func() {
	t.mu.Lock()
	lock, ok := t.tokenLocks[tokenAddress]
	if !ok {
		lock = &sync.Mutex{}
		t.tokenLocks[tokenAddress] = lock
	}
	t.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

// SubmitBuy executes a buy for the intent and records it in the ledger.
// The venue buy happens first; the ledger is only touched once the swap
// succeeded, so a failed buy leaves no record behind.
func (t *Trader) SubmitBuy(ctx context.Context, intent *domain.TradeIntent) (*BuyOutcome, error) {
	if intent == nil || intent.TokenAddress == "" {
		return nil, fmt.Errorf("%w: buy intent missing token address", ports.ErrInvalidSignal)
	}

	// Unspecified thresholds fall back to the standard targets.
	targetGain := intent.TargetGainPct
	if targetGain <= 0 {
		targetGain = signal.DefaultTargetGainPct
	}
	targetLoss := intent.TargetLossPct
	if targetLoss <= 0 {
		targetLoss = signal.DefaultTargetLossPct
	}

	unlock := t.lockToken(intent.TokenAddress)
	defer unlock()

	existing, err := t.ledger.FindActiveByToken(ctx, intent.TokenAddress)
	if err != nil {
		metrics.IncBuy("failed")
		return nil, fmt.Errorf("failed to check for existing trade: %w", err)
	}

	price, err := t.feed.GetPrice(ctx, t.cfg.Network, intent.TokenAddress)
	if err != nil {
		metrics.IncBuy("failed")
		return nil, fmt.Errorf("failed to fetch entry price for %s: %w", intent.TokenAddress, err)
	}

	details, privateKey, err := t.walletCredentials(ctx)
	if err != nil {
		metrics.IncBuy("failed")
		return nil, err
	}

	result, err := t.venue.Buy(ctx, ports.BuyRequest{
		PrivateKey: privateKey,
		PublicKey:  details.PublicKey,
		Mint:       intent.TokenAddress,
		AmountSOL:  t.cfg.InvestmentAmountSOL,
		Options:    t.swapOptions(t.cfg.BuySlippage),
	})
	if err != nil {
		metrics.IncBuy("failed")
		return nil, fmt.Errorf("buy execution failed for %s: %w", intent.TokenAddress, err)
	}
	if !result.Success || result.TxID == "" {
		t.logger.Warn(ctx, "Venue declined buy", map[string]interface{}{"token": intent.TokenAddress})
		metrics.IncBuy("failed")
		return nil, fmt.Errorf("%w: venue declined buy for %s", ports.ErrBuyFailed, intent.TokenAddress)
	}

	if existing != nil {
		updated, err := t.ledger.AddAmounts(ctx, existing.ID, t.cfg.InvestmentAmountSOL, result.TokensPurchased)
		if err != nil {
			// The swap landed but the record update failed. Surface it
			// loudly; the trade keeps its last known-good amounts.
			t.logger.Error(ctx, err, "Buy executed but ledger update failed", map[string]interface{}{
				"tradeID": existing.ID,
				"txID":    result.TxID,
			})
			metrics.IncBuy("failed")
			return nil, fmt.Errorf("%w: trade %s not updated after buy %s", ports.ErrUpdateFailed, existing.ID, result.TxID)
		}
		t.logger.Info(ctx, "Merged buy into existing trade", map[string]interface{}{
			"tradeID":        updated.ID,
			"token":          intent.TokenAddress,
			"txID":           result.TxID,
			"amountInvested": updated.AmountInvested,
			"tokensReceived": updated.TokensReceived,
		})
		metrics.IncBuy("merged")
		return &BuyOutcome{
			Success:        true,
			TradeID:        updated.ID,
			TxID:           result.TxID,
			IsUpdate:       true,
			AmountInvested: updated.AmountInvested,
			TokensReceived: updated.TokensReceived,
		}, nil
	}

	tokenName := intent.TokenName
	if tokenName == "" {
		tokenName = price.TokenName
	}
	trade := &domain.Trade{
		TokenAddress:   intent.TokenAddress,
		TokenName:      tokenName,
		AmountInvested: t.cfg.InvestmentAmountSOL,
		TokensReceived: result.TokensPurchased,
		EntryPriceSOL:  price.PriceSOL,
		EntryPriceUSD:  price.PriceUSD,
		TargetGainPct:  targetGain,
		TargetLossPct:  targetLoss,
		TradeType:      intent.TradeType,
		Status:         domain.StatusActive,
		EntryTime:      time.Now().UTC(),
	}
	id, err := t.ledger.Create(ctx, trade)
	if err != nil {
		t.logger.Error(ctx, err, "Buy executed but trade record creation failed", map[string]interface{}{
			"token": intent.TokenAddress,
			"txID":  result.TxID,
		})
		metrics.IncBuy("failed")
		return nil, fmt.Errorf("failed to record trade after buy %s: %w", result.TxID, err)
	}

	t.logger.Info(ctx, "Opened new trade", map[string]interface{}{
		"tradeID":    id,
		"token":      intent.TokenAddress,
		"txID":       result.TxID,
		"entryPrice": price.PriceSOL,
		"targetGain": targetGain,
		"targetLoss": targetLoss,
	})
	metrics.IncBuy("created")

	if t.monitor != nil {
		t.monitor.Start(id)
	} else {
		t.logger.Error(ctx, nil, "No monitor attached, trade will not be watched until restart", map[string]interface{}{"tradeID": id})
	}

	return &BuyOutcome{
		Success:        true,
		TradeID:        id,
		TxID:           result.TxID,
		IsUpdate:       false,
		AmountInvested: trade.AmountInvested,
		TokensReceived: trade.TokensReceived,
	}, nil
}

// SellTrade liquidates the trade's full token position and closes its
// record. Called by the monitor when an exit threshold is crossed.
func (t *Trader) SellTrade(ctx context.Context, trade *domain.Trade, currentPrice float64, reason domain.ExitReason) error {
	if trade == nil {
		return fmt.Errorf("%w: no trade to sell", ports.ErrNotFound)
	}

	details, privateKey, err := t.walletCredentials(ctx)
	if err != nil {
		return err
	}

	result, err := t.venue.Sell(ctx, ports.SellRequest{
		PrivateKey:  privateKey,
		PublicKey:   details.PublicKey,
		Mint:        trade.TokenAddress,
		TokenAmount: trade.TokensReceived,
		Options:     t.swapOptions(t.cfg.SellSlippage),
	})
	if err != nil {
		return fmt.Errorf("sell execution failed for trade %s: %w", trade.ID, err)
	}
	if !result.Success || result.TxID == "" {
		return fmt.Errorf("%w: venue declined sell for trade %s", ports.ErrSellFailed, trade.ID)
	}

	if err := t.ledger.CloseTrade(ctx, trade.ID, currentPrice, reason); err != nil {
		t.logger.Error(ctx, err, "Sell executed but trade close failed", map[string]interface{}{
			"tradeID": trade.ID,
			"txID":    result.TxID,
		})
		return fmt.Errorf("%w: trade %s not closed after sell %s", ports.ErrUpdateFailed, trade.ID, result.TxID)
	}

	t.logger.Info(ctx, "Trade closed", map[string]interface{}{
		"tradeID":   trade.ID,
		"token":     trade.TokenAddress,
		"txID":      result.TxID,
		"exitPrice": currentPrice,
		"reason":    reason,
	})
	return nil
}

func (t *Trader) walletCredentials(ctx context.Context) (*ports.WalletDetails, string, error) {
	details, err := t.wallet.GetWalletDetails(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ports.ErrWalletUnavailable, err)
	}
	privateKey, err := t.wallet.DecryptPrivateKey(details.EncryptedPrivateKey)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ports.ErrKeyDecryption, err)
	}
	return details, privateKey, nil
}

func (t *Trader) swapOptions(slippage float64) ports.SwapOptions {
	return ports.SwapOptions{
		ReferralPublicKey: t.cfg.ReferralPublicKey,
		PriorityFee:       t.cfg.PriorityFee,
		Slippage:          slippage,
		UseJito:           t.cfg.UseJito,
	}
}
