package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"text/tabwriter"

	"solTraderBot/internal/adapters/logger"
	"solTraderBot/internal/adapters/sqlite"
	"solTraderBot/internal/analytics"
	"solTraderBot/internal/utils"
)

func main() {
	dbPath := flag.String("db", "./data/trades.db", "path to the trade ledger database")
	csvPath := flag.String("csv", "", "optional path to export all trades as CSV")
	flag.Parse()

	ledger, err := sqlite.NewLedger(sqlite.Config{
		DBPath: *dbPath,
		Logger: logger.NewNop(),
	})
	if err != nil {
		log.Fatalf("Error opening trade ledger: %v", err)
	}
	defer ledger.Close()

	ctx := context.Background()
	closed, err := ledger.FindClosed(ctx)
	if err != nil {
		log.Fatalf("Error loading closed trades: %v", err)
	}
	active, err := ledger.FindActive(ctx)
	if err != nil {
		log.Fatalf("Error loading active trades: %v", err)
	}

	report := analytics.Analyze(closed)

	fmt.Printf("## Trade Performance (%d closed, %d active)\n\n", report.TotalTrades, len(active))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(w, "Trades\tWinRate\tAvgWin\tAvgLoss\tProfitFactor\tTotalPnL\tGainExits\tLossExits\t")
	fmt.Fprintf(w, "%d\t%.2f%%\t%.4f\t%.4f\t%.2f\t%.4f\t%d\t%d\t\n",
		report.TotalTrades,
		report.WinRate*100,
		report.AverageWin,
		report.AverageLoss,
		report.ProfitFactor,
		report.TotalProfit,
		report.GainExits,
		report.LossExits,
	)
	w.Flush()

	fmt.Printf("\nAverage hold: %s   Max win streak: %d   Max loss streak: %d   Expectancy: %.4f SOL\n",
		report.AverageHoldDuration, report.MaxConsecutiveWins, report.MaxConsecutiveLosses, report.Expectancy)

	if len(report.MonthlyReturns) > 0 {
		fmt.Println("\n## Monthly Returns (SOL)")
		for _, m := range report.SortedMonthlyReturns() {
			fmt.Printf("  %s  %+.4f\n", m.Month.Format("2006-01"), m.Return)
		}
	}

	if len(report.TokenReturns) > 0 {
		fmt.Println("\n## Per-Token Returns (SOL)")
		tokens := make([]string, 0, len(report.TokenReturns))
		for token := range report.TokenReturns {
			tokens = append(tokens, token)
		}
		sort.Slice(tokens, func(i, j int) bool {
			return report.TokenReturns[tokens[i]] > report.TokenReturns[tokens[j]]
		})
		for _, token := range tokens {
			fmt.Printf("  %-44s  %+.4f\n", token, report.TokenReturns[token])
		}
	}

	if *csvPath != "" {
		trades := append(closed, active...)
		if err := utils.WriteTradesToCSV(trades, *csvPath); err != nil {
			log.Fatalf("Error writing CSV export: %v", err)
		}
		fmt.Printf("\nExported %d trades to %s\n", len(trades), *csvPath)
	}
}
