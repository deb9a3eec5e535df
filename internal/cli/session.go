package cli

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"papertrade/internal/broker"
	"papertrade/internal/config"
	"papertrade/internal/errors"
	"papertrade/internal/pricing"
	"papertrade/internal/stream"
	"papertrade/pkg/utils"
)

func newSessionCmd(app *App) *cobra.Command {
	var ordersPath string
	var pricesPath string

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Run a simulated trading session from an order script",
		Long: `Runs a scripted trading session: deposits the configured initial
cash, submits every order in the script to the simulated brokerage,
waits for all of them to fill, expire or fault, and prints the
resulting portfolio.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, app, ordersPath, pricesPath)
		},
	}

	cmd.Flags().StringVarP(&ordersPath, "orders", "o", "", "order script CSV (required)")
	cmd.Flags().StringVarP(&pricesPath, "prices", "p", "", "price history CSV (overrides config)")
	cmd.MarkFlagRequired("orders")

	return cmd
}

func runSession(cmd *cobra.Command, app *App, ordersPath, pricesPath string) error {
	cfg := app.Config
	logger := app.Logger

	if pricesPath == "" {
		pricesPath = cfg.Simulation.PriceHistory
	}
	var quotes pricing.QuoteProvider
	if pricesPath != "" {
		series, err := pricing.LoadCSVFile(pricesPath)
		if err != nil {
			return err
		}
		quotes = series
		logger.Info().Str("path", pricesPath).Msg("loaded price history")
	}

	features, err := featuresFromConfig(cfg)
	if err != nil {
		return err
	}

	account := broker.NewTradingAccount(broker.AccountConfig{
		Features:   features,
		CashTicker: cfg.Account.CashTicker,
		Quotes:     quotes,
		Delay:      delayFromConfig(cfg),
		Slippage:   broker.PercentSlippage{Percent: decimal.NewFromFloat(cfg.Simulation.SlippagePercent)},
		Logger:     logger,
		Workers:    cfg.Account.Workers,
	})
	defer account.Close()

	hub := stream.NewHub()
	hub.Attach(account)
	hub.Start()
	defer hub.Stop()
	events := hub.Subscribe("")

	now := time.Now()
	deposit := decimal.NewFromFloat(cfg.Account.InitialDeposit)
	if deposit.IsPositive() {
		if err := account.Deposit(now, deposit); err != nil {
			return err
		}
		cmd.Printf("Deposited %s\n", utils.FormatMoney(deposit))
	}

	orders, err := loadOrderScript(ordersPath, now)
	if err != nil {
		return err
	}
	logger.Info().Int("orders", len(orders)).Msg("starting session")

	submitted := 0
	for _, order := range orders {
		if err := account.Submit(order); err != nil {
			var orderErr *errors.OrderError
			if errors.As(err, &orderErr) {
				cmd.Printf("Rejected %s %s: %s\n", order.Type, order.Ticker, orderErr.Reason)
				continue
			}
			return err
		}
		submitted++
	}

	// Every submitted order reaches exactly one terminal state, but the
	// hub sheds events under backpressure, so the loop cannot count on
	// receiving one per order. Quiescence comes from the account; after
	// that, drain whatever the hub still delivers within a grace period.
	done := make(chan struct{})
	go func() {
		account.WaitAll()
		close(done)
	}()

	displayed := 0
	var flush <-chan time.Time
	for displayed < submitted {
		select {
		case ev := <-events:
			printEvent(cmd, ev)
			displayed++
			continue
		case <-done:
			done = nil
			flush = time.After(time.Second)
			continue
		case <-flush:
		}
		break
	}
	if done != nil {
		<-done
	}
	if displayed < submitted {
		cmd.Printf("(%d order events not displayed)\n", submitted-displayed)
	}

	cmd.Printf("\nSession complete: %d of %d orders submitted\n\n", submitted, len(orders))
	printPortfolio(cmd, account, quotes, time.Now())
	return nil
}

func printEvent(cmd *cobra.Command, ev stream.OrderEvent) {
	switch ev.Kind {
	case stream.EventFilled:
		cmd.Printf("FILLED  %-6s %s x %s @ %s\n",
			ev.Order.Ticker, ev.Order.Type,
			ev.Transaction.Shares.String(),
			utils.FormatMoney(ev.Transaction.Price))
	case stream.EventExpired:
		cmd.Printf("EXPIRED %-6s %s x %s\n",
			ev.Order.Ticker, ev.Order.Type, ev.Order.Shares.String())
	case stream.EventCancelled:
		cmd.Printf("CANCELLED %-6s %s\n", ev.Order.Ticker, ev.Order.Type)
	case stream.EventFaulted:
		cmd.Printf("FAULTED %-6s %s: %v\n", ev.Order.Ticker, ev.Order.Type, ev.Err)
	}
}

func featuresFromConfig(cfg *config.Config) (broker.Features, error) {
	commission := broker.CommissionSchedule(broker.FreeCommission{})
	if cfg.Account.Commission > 0 {
		commission = broker.FlatCommission{Fee: decimal.NewFromFloat(cfg.Account.Commission)}
	}
	switch cfg.Account.Mode {
	case "basic":
		return broker.NewBasicFeatures(commission), nil
	case "short":
		return broker.NewShortFeatures(commission), nil
	case "full":
		return broker.NewFullFeatures(commission, broker.FlatMargin{Leverage: cfg.Account.Leverage}), nil
	default:
		return broker.Features{}, errors.NewValidationError("account.mode", cfg.Account.Mode, "must be basic, short or full")
	}
}

func delayFromConfig(cfg *config.Config) broker.DelayStrategy {
	min := time.Duration(cfg.Simulation.MinDelayMs) * time.Millisecond
	max := time.Duration(cfg.Simulation.MaxDelayMs) * time.Millisecond
	if max <= min {
		return broker.FixedDelay(min)
	}
	return broker.NewRandomDelay(min, max)
}

func printPortfolio(cmd *cobra.Command, account *broker.TradingAccount, quotes pricing.QuoteProvider, asOf time.Time) {
	portfolio := account.Portfolio()

	cmd.Printf("Cash (%s): %s\n", portfolio.CashTicker(),
		utils.FormatMoney(portfolio.GetAvailableCash(asOf)))

	for _, pos := range portfolio.Positions() {
		cmd.Printf("\n%s\n", pos.Ticker())
		cmd.Printf("  Held shares:  %s\n", utils.FormatShares(pos.HeldShares(asOf)))
		if avg, err := pos.AverageCost(asOf); err == nil {
			cmd.Printf("  Average cost: %s\n", utils.FormatMoney(avg))
		}
		cmd.Printf("  Gross profit: %s\n", utils.FormatPnL(pos.GrossProfit(asOf)))
		cmd.Printf("  Net profit:   %s\n", utils.FormatPnL(pos.NetProfit(asOf)))
	}

	if quotes != nil {
		if total, err := portfolio.Value(asOf, quotes); err == nil {
			cmd.Printf("\nTotal value: %s\n", utils.FormatMoney(total))
		} else {
			cmd.Printf("\nTotal value unavailable: %v\n", err)
		}
	}
}
