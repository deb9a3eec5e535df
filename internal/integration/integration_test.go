// Package integration provides end-to-end tests for the trading system.
package integration

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"papertrade/internal/broker"
	"papertrade/internal/models"
	"papertrade/internal/pricing"
	"papertrade/internal/stream"
	"papertrade/internal/trading"
)

// TestEndToEndRoundTrip runs the complete workflow: deposit, submit a
// buy and a sell through the simulated brokerage, watch the terminal
// events through the hub, and verify the realized profit numbers in the
// resulting portfolio.
func TestEndToEndRoundTrip(t *testing.T) {
	quotes := pricing.FixedPrice{Price: decimal.NewFromInt(100)}

	account := broker.NewTradingAccount(broker.AccountConfig{
		Features:   broker.NewBasicFeatures(broker.FlatCommission{Fee: decimal.NewFromFloat(7.95)}),
		CashTicker: "$",
		Quotes:     quotes,
		Delay:      broker.FixedDelay(time.Millisecond),
		Slippage:   broker.NoSlippage{},
		Logger:     zerolog.Nop(),
		Workers:    4,
	})
	defer account.Close()

	hub := stream.NewHub()
	hub.Attach(account)
	hub.Start()
	defer hub.Stop()
	events := hub.Subscribe("MSFT")

	now := time.Now()
	if err := account.Deposit(now, decimal.NewFromInt(10000)); err != nil {
		t.Fatal(err)
	}

	buy, err := models.NewOrder(now, now.Add(time.Hour), models.OrderBuy, "MSFT",
		decimal.NewFromInt(5), decimal.NewFromInt(100), models.PricingMarket)
	if err != nil {
		t.Fatal(err)
	}
	if err := account.Submit(buy); err != nil {
		t.Fatal(err)
	}
	waitForEvent(t, events, stream.EventFilled)

	sellIssued := time.Now()
	sell, err := models.NewOrder(sellIssued, sellIssued.Add(time.Hour), models.OrderSell, "MSFT",
		decimal.NewFromInt(5), decimal.NewFromInt(110), models.PricingMarket)
	if err != nil {
		t.Fatal(err)
	}
	if err := account.Submit(sell); err != nil {
		t.Fatal(err)
	}
	waitForEvent(t, events, stream.EventFilled)

	account.WaitAll()

	pos, ok := account.Portfolio().GetPosition("MSFT")
	if !ok {
		t.Fatal("no MSFT position after fills")
	}

	asOf := time.Now().Add(time.Hour)
	if got := pos.HeldShares(asOf); !got.IsZero() {
		t.Errorf("held = %s, want 0 after round trip", got)
	}
	if got, want := pos.GrossProfit(asOf), decimal.NewFromInt(50); !got.Equal(want) {
		t.Errorf("gross profit = %s, want %s", got, want)
	}
	// 7.95 per share on both sides of 5 shares: 79.50 in fees.
	if got, want := pos.NetProfit(asOf), decimal.NewFromFloat(-29.50); !got.Equal(want) {
		t.Errorf("net profit = %s, want %s", got, want)
	}

	commissions := trading.CalculateCommissions(pos.Transactions(), asOf)
	if want := decimal.NewFromFloat(79.50); !commissions.Equal(want) {
		t.Errorf("commissions = %s, want %s", commissions, want)
	}

	value, err := account.Portfolio().Value(asOf, quotes)
	if err != nil {
		t.Fatal(err)
	}
	if want := decimal.NewFromInt(10000); !value.Equal(want) {
		t.Errorf("portfolio value = %s, want cash only %s", value, want)
	}
}

// TestEndToEndCancellation verifies that an order cancelled while
// waiting on its simulated delay never touches the portfolio.
func TestEndToEndCancellation(t *testing.T) {
	account := broker.NewTradingAccount(broker.AccountConfig{
		Features:   broker.NewBasicFeatures(broker.FreeCommission{}),
		CashTicker: "$",
		Delay:      broker.FixedDelay(time.Second),
		Slippage:   broker.NoSlippage{},
		Logger:     zerolog.Nop(),
	})
	defer account.Close()

	hub := stream.NewHub()
	hub.Attach(account)
	hub.Start()
	defer hub.Stop()
	events := hub.Subscribe("")

	now := time.Now()
	order, err := models.NewOrder(now, now.Add(time.Hour), models.OrderBuy, "MSFT",
		decimal.NewFromInt(5), decimal.NewFromInt(100), models.PricingMarket)
	if err != nil {
		t.Fatal(err)
	}
	if err := account.Submit(order); err != nil {
		t.Fatal(err)
	}
	account.TryCancelOrder(order)

	ev := waitForEvent(t, events, stream.EventCancelled)
	if ev.Order != order {
		t.Error("cancellation event carries a different order")
	}

	account.WaitAll()
	if _, ok := account.Portfolio().GetPosition("MSFT"); ok {
		t.Error("cancelled order left a position behind")
	}
}

func waitForEvent(t *testing.T, events <-chan stream.OrderEvent, kind stream.EventKind) stream.OrderEvent {
	t.Helper()
	select {
	case ev := <-events:
		if ev.Kind != kind {
			t.Fatalf("event kind = %s, want %s", ev.Kind, kind)
		}
		return ev
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s event", kind)
		return stream.OrderEvent{}
	}
}
