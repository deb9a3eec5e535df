package trading

import (
	"testing"

	"github.com/shopspring/decimal"

	"papertrade/internal/errors"
	"papertrade/internal/models"
	"papertrade/internal/pricing"
)

func TestPortfolioCashRouting(t *testing.T) {
	p := NewPortfolio("$")

	if err := p.Deposit(day0, decimal.NewFromInt(10000)); err != nil {
		t.Fatal(err)
	}
	if got, want := p.GetAvailableCash(later), decimal.NewFromInt(10000); !got.Equal(want) {
		t.Errorf("available cash = %s, want %s", got, want)
	}

	// A share transaction against the cash ticker is rejected.
	buy, err := models.NewTransaction(day0, models.OrderBuy, "$",
		decimal.NewFromInt(100), decimal.NewFromInt(5), decimal.Zero)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.AddTransaction(buy); !errors.Is(err, errors.ErrCashTickerMismatch) {
		t.Errorf("share tx on cash ticker: error = %v, want ErrCashTickerMismatch", err)
	}

	// A cash transaction against a position ticker is rejected.
	deposit, err := models.NewDeposit(day0, "MSFT", decimal.NewFromInt(100))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.AddTransaction(deposit); !errors.Is(err, errors.ErrCashTickerMismatch) {
		t.Errorf("cash tx on position ticker: error = %v, want ErrCashTickerMismatch", err)
	}
}

func TestPortfolioWithdrawalGuard(t *testing.T) {
	p, err := NewPortfolioWithDeposit("$", day0, decimal.NewFromInt(1000))
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Withdraw(day0.AddDate(0, 0, 1), decimal.NewFromInt(400)); err != nil {
		t.Fatal(err)
	}
	err = p.Withdraw(day0.AddDate(0, 0, 2), decimal.NewFromInt(700))
	if err == nil {
		t.Fatal("overdraft accepted")
	}
	if !errors.Is(err, errors.ErrInsufficientFunds) {
		t.Errorf("error = %v, want ErrInsufficientFunds", err)
	}
	if got, want := p.GetAvailableCash(later), decimal.NewFromInt(600); !got.Equal(want) {
		t.Errorf("available cash = %s, want %s", got, want)
	}
}

func TestPortfolioAvailableCashAsOfDate(t *testing.T) {
	p := NewPortfolio("$")
	if err := p.Deposit(day0, decimal.NewFromInt(1000)); err != nil {
		t.Fatal(err)
	}
	if err := p.Deposit(day0.AddDate(0, 0, 10), decimal.NewFromInt(500)); err != nil {
		t.Fatal(err)
	}

	if got, want := p.GetAvailableCash(day0.AddDate(0, 0, 5)), decimal.NewFromInt(1000); !got.Equal(want) {
		t.Errorf("cash before second deposit = %s, want %s", got, want)
	}
	if got, want := p.GetAvailableCash(later), decimal.NewFromInt(1500); !got.Equal(want) {
		t.Errorf("cash after both deposits = %s, want %s", got, want)
	}
	if got := p.GetAvailableCash(day0.AddDate(0, 0, -1)); !got.IsZero() {
		t.Errorf("cash before first deposit = %s, want 0", got)
	}
}

func TestPortfolioCreatesPositionsOnFirstUse(t *testing.T) {
	p := NewPortfolio("$")

	if _, ok := p.GetPosition("MSFT"); ok {
		t.Error("position exists before first trade")
	}

	buy, err := models.NewTransaction(day0, models.OrderBuy, "MSFT",
		decimal.NewFromInt(100), decimal.NewFromInt(5), decimal.Zero)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.AddTransaction(buy); err != nil {
		t.Fatal(err)
	}

	pos, ok := p.GetPosition("MSFT")
	if !ok {
		t.Fatal("position missing after first trade")
	}
	if got, want := pos.HeldShares(later), decimal.NewFromInt(5); !got.Equal(want) {
		t.Errorf("held = %s, want %s", got, want)
	}
	if got := p.Tickers(); len(got) != 1 || got[0] != "MSFT" {
		t.Errorf("Tickers() = %v, want [MSFT]", got)
	}
}

func TestPortfolioAddTransactionsStopsAtFirstError(t *testing.T) {
	p := NewPortfolio("$")

	deposit, _ := models.NewDeposit(day0, "$", decimal.NewFromInt(1000))
	buy, _ := models.NewTransaction(day0.AddDate(0, 0, 1), models.OrderBuy, "MSFT",
		decimal.NewFromInt(100), decimal.NewFromInt(5), decimal.Zero)
	oversell, _ := models.NewTransaction(day0.AddDate(0, 0, 2), models.OrderSell, "MSFT",
		decimal.NewFromInt(110), decimal.NewFromInt(50), decimal.Zero)

	err := p.AddTransactions([]models.Transaction{oversell, buy, deposit})
	if err == nil {
		t.Fatal("oversell accepted")
	}
	if !errors.Is(err, errors.ErrInsufficientShares) {
		t.Errorf("error = %v, want ErrInsufficientShares", err)
	}

	// The batch is applied in settlement order, so the deposit and buy
	// preceding the failing sell remain applied.
	if got, want := p.GetAvailableCash(later), decimal.NewFromInt(1000); !got.Equal(want) {
		t.Errorf("available cash = %s, want %s", got, want)
	}
	pos, ok := p.GetPosition("MSFT")
	if !ok {
		t.Fatal("position missing")
	}
	if got, want := pos.HeldShares(later), decimal.NewFromInt(5); !got.Equal(want) {
		t.Errorf("held = %s, want %s", got, want)
	}
}

func TestPortfolioValue(t *testing.T) {
	p := NewPortfolio("$")
	if err := p.Deposit(day0, decimal.NewFromInt(1000)); err != nil {
		t.Fatal(err)
	}
	buy, _ := models.NewTransaction(day0, models.OrderBuy, "MSFT",
		decimal.NewFromInt(100), decimal.NewFromInt(5), decimal.Zero)
	if err := p.AddTransaction(buy); err != nil {
		t.Fatal(err)
	}

	value, err := p.Value(later, pricing.FixedPrice{Price: decimal.NewFromInt(120)})
	if err != nil {
		t.Fatal(err)
	}
	if want := decimal.NewFromInt(1600); !value.Equal(want) {
		t.Errorf("value = %s, want %s", value, want)
	}
}
