package utils

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"solTraderBot/internal/domain"
)

// WriteTradesToCSV exports trades for spreadsheet analysis. Active trades
// are written with empty exit columns.
func WriteTradesToCSV(trades []*domain.Trade, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{
		"id", "token_address", "token_name", "trade_type", "status",
		"amount_invested", "tokens_received", "entry_price_sol", "entry_time",
		"exit_price_sol", "exit_time", "exit_reason",
	})

	for _, t := range trades {
		exitPrice := ""
		exitTime := ""
		if t.Status == domain.StatusClosed {
			exitPrice = strconv.FormatFloat(t.ExitPriceSOL, 'f', -1, 64)
			exitTime = t.ExitTime.Format(time.RFC3339)
		}
		writer.Write([]string{
			t.ID,
			t.TokenAddress,
			t.TokenName,
			string(t.TradeType),
			string(t.Status),
			strconv.FormatFloat(t.AmountInvested, 'f', -1, 64),
			strconv.FormatFloat(t.TokensReceived, 'f', -1, 64),
			strconv.FormatFloat(t.EntryPriceSOL, 'f', -1, 64),
			t.EntryTime.Format(time.RFC3339),
			exitPrice,
			exitTime,
			string(t.ExitReason),
		})
	}
	return writer.Error()
}
