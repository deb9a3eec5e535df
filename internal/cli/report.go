package cli

import (
	"sort"
	"time"

	"github.com/spf13/cobra"

	"papertrade/internal/models"
	"papertrade/internal/trading"
	"papertrade/pkg/utils"
)

func newReportCmd(app *App) *cobra.Command {
	var txPath string
	var asOfStr string
	var ticker string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report performance metrics from a transaction log",
		Long: `Loads a transaction log CSV and prints cost, proceeds, commissions,
profits and returns for each ticker, computed from matched round
trips in settlement-date order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf := time.Now()
			if asOfStr != "" {
				parsed, err := time.Parse("2006-01-02", asOfStr)
				if err != nil {
					return err
				}
				asOf = parsed
			}
			return runReport(cmd, app, txPath, ticker, asOf)
		},
	}

	cmd.Flags().StringVarP(&txPath, "transactions", "t", "", "transaction log CSV (required)")
	cmd.Flags().StringVar(&asOfStr, "as-of", "", "report date, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&ticker, "ticker", "", "restrict the report to one ticker")
	cmd.MarkFlagRequired("transactions")

	return cmd
}

func runReport(cmd *cobra.Command, app *App, txPath, ticker string, asOf time.Time) error {
	txs, err := loadTransactionLog(txPath)
	if err != nil {
		return err
	}
	app.Logger.Info().Int("transactions", len(txs)).Time("as_of", asOf).Msg("building report")

	baskets := make(map[string][]models.Transaction)
	for _, tx := range txs {
		if !tx.Type.IsShare() {
			continue
		}
		if ticker != "" && tx.Ticker != ticker {
			continue
		}
		baskets[tx.Ticker] = append(baskets[tx.Ticker], tx)
	}
	if len(baskets) == 0 {
		cmd.Println("No share transactions to report.")
		return nil
	}

	for _, t := range sortedKeys(baskets) {
		printBasketReport(cmd, t, baskets[t], asOf)
	}
	return nil
}

func printBasketReport(cmd *cobra.Command, ticker string, basket []models.Transaction, asOf time.Time) {
	cmd.Printf("%s\n", ticker)
	cmd.Printf("  Cost:           %s\n", utils.FormatMoney(trading.CalculateCost(basket, asOf)))
	cmd.Printf("  Proceeds:       %s\n", utils.FormatMoney(trading.CalculateProceeds(basket, asOf)))
	cmd.Printf("  Commissions:    %s\n", utils.FormatMoney(trading.CalculateCommissions(basket, asOf)))
	cmd.Printf("  Held shares:    %s\n", utils.FormatShares(trading.GetHeldShares(basket, asOf)))

	if avg, err := trading.CalculateAverageCost(basket, asOf); err == nil {
		cmd.Printf("  Average cost:   %s\n", utils.FormatMoney(avg))
	}

	cmd.Printf("  Gross profit:   %s\n", utils.FormatPnL(trading.CalculateGrossProfit(basket, asOf)))
	cmd.Printf("  Net profit:     %s\n", utils.FormatPnL(trading.CalculateNetProfit(basket, asOf)))

	if ret, ok := trading.CalculateGrossReturn(basket, asOf); ok {
		cmd.Printf("  Gross return:   %s\n", utils.FormatPercent(ret))
	}
	if ret, ok := trading.CalculateNetReturn(basket, asOf); ok {
		cmd.Printf("  Net return:     %s\n", utils.FormatPercent(ret))
	}
	if ret, ok := trading.CalculateAnnualGrossReturn(basket, asOf); ok {
		cmd.Printf("  Annual gross:   %s\n", utils.FormatPercent(ret))
	}
	if ret, ok := trading.CalculateAnnualNetReturn(basket, asOf); ok {
		cmd.Printf("  Annual net:     %s\n", utils.FormatPercent(ret))
	}

	if avg, ok := trading.CalculateAverageProfit(basket, asOf); ok {
		cmd.Printf("  Avg profit:     %s\n", utils.FormatMoney(avg))
	}
	if med, ok := trading.CalculateMedianProfit(basket, asOf); ok {
		cmd.Printf("  Median profit:  %s\n", utils.FormatMoney(med))
	}
	if sd, ok := trading.CalculateProfitStdDev(basket, asOf); ok {
		cmd.Printf("  Profit stddev:  %s\n", utils.FormatMoney(sd))
	}
	cmd.Println()
}

func sortedKeys(m map[string][]models.Transaction) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
