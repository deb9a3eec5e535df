package trading

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/errors"
	"papertrade/internal/models"
)

var (
	day0  = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	later = day0.AddDate(1, 0, 0)
)

func mustTx(t *testing.T, settlement time.Time, typ models.OrderType, price, shares, commission float64) models.Transaction {
	t.Helper()
	tx, err := models.NewTransaction(settlement, typ, "MSFT",
		decimal.NewFromFloat(price), decimal.NewFromFloat(shares), decimal.NewFromFloat(commission))
	if err != nil {
		t.Fatal(err)
	}
	return tx
}

// A round trip of 5 shares bought at 100.00 and sold at 110.00 with a
// 7.95 per-share commission on each side: 50.00 gross profit, 79.50 in
// total commissions, -29.50 net.
func TestRoundTripProfits(t *testing.T) {
	basket := []models.Transaction{
		mustTx(t, day0, models.OrderBuy, 100, 5, 7.95),
		mustTx(t, day0.AddDate(0, 1, 0), models.OrderSell, 110, 5, 7.95),
	}

	if got, want := CalculateCost(basket, later), decimal.NewFromInt(500); !got.Equal(want) {
		t.Errorf("cost = %s, want %s", got, want)
	}
	if got, want := CalculateProceeds(basket, later), decimal.NewFromInt(550); !got.Equal(want) {
		t.Errorf("proceeds = %s, want %s", got, want)
	}
	if got, want := CalculateCommissions(basket, later), decimal.NewFromFloat(79.50); !got.Equal(want) {
		t.Errorf("commissions = %s, want %s", got, want)
	}
	if got, want := CalculateGrossProfit(basket, later), decimal.NewFromInt(50); !got.Equal(want) {
		t.Errorf("gross profit = %s, want %s", got, want)
	}
	if got, want := CalculateNetProfit(basket, later), decimal.NewFromFloat(-29.50); !got.Equal(want) {
		t.Errorf("net profit = %s, want %s", got, want)
	}
	if held := GetHeldShares(basket, later); !held.IsZero() {
		t.Errorf("held shares = %s, want 0", held)
	}
}

func TestAsOfDateExcludesLaterTransactions(t *testing.T) {
	buyDate := day0
	sellDate := day0.AddDate(0, 1, 0)
	basket := []models.Transaction{
		mustTx(t, buyDate, models.OrderBuy, 100, 5, 0),
		mustTx(t, sellDate, models.OrderSell, 110, 5, 0),
	}

	beforeSell := sellDate.AddDate(0, 0, -1)
	if got, want := GetHeldShares(basket, beforeSell), decimal.NewFromInt(5); !got.Equal(want) {
		t.Errorf("held before sell = %s, want %s", got, want)
	}
	if got := CalculateProceeds(basket, beforeSell); !got.IsZero() {
		t.Errorf("proceeds before sell = %s, want 0", got)
	}
	if got := CalculateGrossProfit(basket, beforeSell); !got.IsZero() {
		t.Errorf("gross profit before sell = %s, want 0", got)
	}

	beforeBuy := buyDate.AddDate(0, 0, -1)
	if got := GetHeldShares(basket, beforeBuy); !got.IsZero() {
		t.Errorf("held before buy = %s, want 0", got)
	}
}

func TestHeldSharesNilBasket(t *testing.T) {
	if held := GetHeldShares(nil, later); !held.IsZero() {
		t.Errorf("nil basket held = %s, want 0", held)
	}
	if _, ok := CalculateGrossReturn(nil, later); ok {
		t.Error("nil basket reported a gross return")
	}
	if cost := CalculateCost(nil, later); !cost.IsZero() {
		t.Errorf("nil basket cost = %s, want 0", cost)
	}
}

func TestDividendReinvestmentExcludedFromShareArithmetic(t *testing.T) {
	reinvest, err := models.NewDividendReinvestment(day0.AddDate(0, 0, 10), "MSFT",
		decimal.NewFromInt(105), decimal.NewFromInt(2))
	if err != nil {
		t.Fatal(err)
	}
	basket := []models.Transaction{
		mustTx(t, day0, models.OrderBuy, 100, 5, 0),
		reinvest,
	}
	if got, want := GetHeldShares(basket, later), decimal.NewFromInt(5); !got.Equal(want) {
		t.Errorf("held = %s, want %s (reinvested shares excluded)", got, want)
	}
	if got, want := CalculateCost(basket, later), decimal.NewFromInt(500); !got.Equal(want) {
		t.Errorf("cost = %s, want %s", got, want)
	}
}

func TestAverageCost(t *testing.T) {
	basket := []models.Transaction{
		mustTx(t, day0, models.OrderBuy, 100, 10, 0),
		mustTx(t, day0.AddDate(0, 0, 1), models.OrderBuy, 120, 10, 0),
	}
	avg, err := CalculateAverageCost(basket, later)
	if err != nil {
		t.Fatal(err)
	}
	if want := decimal.NewFromInt(110); !avg.Equal(want) {
		t.Errorf("average cost = %s, want %s", avg, want)
	}

	// Selling reduces cost proportionally, leaving the average intact.
	basket = append(basket, mustTx(t, day0.AddDate(0, 0, 2), models.OrderSell, 130, 5, 0))
	avg, err = CalculateAverageCost(basket, later)
	if err != nil {
		t.Fatal(err)
	}
	if want := decimal.NewFromInt(110); !avg.Equal(want) {
		t.Errorf("average cost after partial sell = %s, want %s", avg, want)
	}
}

func TestAverageCostNoOpenShares(t *testing.T) {
	basket := []models.Transaction{
		mustTx(t, day0, models.OrderBuy, 100, 5, 0),
		mustTx(t, day0.AddDate(0, 0, 1), models.OrderSell, 110, 5, 0),
	}
	_, err := CalculateAverageCost(basket, later)
	if err == nil {
		t.Fatal("expected error for zero held shares")
	}
	if !errors.Is(err, errors.ErrNoOpenShares) {
		t.Errorf("error = %v, want ErrNoOpenShares", err)
	}
	var stateErr *errors.StateError
	if !errors.As(err, &stateErr) {
		t.Errorf("error = %T, want *StateError", err)
	}
}

func TestShortRoundTripProfit(t *testing.T) {
	basket := []models.Transaction{
		mustTx(t, day0, models.OrderSellShort, 100, 10, 0),
		mustTx(t, day0.AddDate(0, 0, 30), models.OrderBuyToCover, 90, 10, 0),
	}
	if got, want := CalculateGrossProfit(basket, later), decimal.NewFromInt(100); !got.Equal(want) {
		t.Errorf("short gross profit = %s, want %s", got, want)
	}
	if held := GetHeldShares(basket, later); !held.IsZero() {
		t.Errorf("held after cover = %s, want 0", held)
	}
}

// A 10% gross return realized over 73 days annualizes to 50%:
// 0.10 / (73/365).
func TestAnnualizedReturn(t *testing.T) {
	basket := []models.Transaction{
		mustTx(t, day0, models.OrderBuy, 100, 10, 0),
		mustTx(t, day0.AddDate(0, 0, 73), models.OrderSell, 110, 10, 0),
	}

	ret, ok := CalculateGrossReturn(basket, later)
	if !ok {
		t.Fatal("no gross return for completed round trip")
	}
	if want := decimal.NewFromFloat(0.10); !ret.Equal(want) {
		t.Errorf("gross return = %s, want %s", ret, want)
	}

	annual, ok := CalculateAnnualGrossReturn(basket, later)
	if !ok {
		t.Fatal("no annual gross return for completed round trip")
	}
	if want := decimal.NewFromFloat(0.50); !annual.Equal(want) {
		t.Errorf("annual gross return = %s, want %s", annual, want)
	}
}

func TestSameDayAnnualizedReturnIsUnannualized(t *testing.T) {
	basket := []models.Transaction{
		mustTx(t, day0, models.OrderBuy, 100, 10, 0),
		mustTx(t, day0, models.OrderSell, 105, 10, 0),
	}
	annual, ok := CalculateAnnualGrossReturn(basket, later)
	if !ok {
		t.Fatal("no annual return for same-day round trip")
	}
	if want := decimal.NewFromFloat(0.05); !annual.Equal(want) {
		t.Errorf("same-day annual return = %s, want %s", annual, want)
	}
}

func TestNetReturnIncludesCommissionBasis(t *testing.T) {
	basket := []models.Transaction{
		mustTx(t, day0, models.OrderBuy, 100, 5, 7.95),
		mustTx(t, day0.AddDate(0, 1, 0), models.OrderSell, 110, 5, 7.95),
	}
	net, ok := CalculateNetReturn(basket, later)
	if !ok {
		t.Fatal("no net return for completed round trip")
	}
	// -29.50 profit on a (100 + 7.95) * 5 = 539.75 basis.
	want := decimal.NewFromFloat(-29.50).Div(decimal.NewFromFloat(539.75))
	if !net.Equal(want) {
		t.Errorf("net return = %s, want %s", net, want)
	}
}

func TestProfitStatistics(t *testing.T) {
	// Three round trips with gross profits 10, 20 and 60.
	basket := []models.Transaction{
		mustTx(t, day0, models.OrderBuy, 100, 1, 0),
		mustTx(t, day0.AddDate(0, 0, 1), models.OrderSell, 110, 1, 0),
		mustTx(t, day0.AddDate(0, 0, 2), models.OrderBuy, 100, 1, 0),
		mustTx(t, day0.AddDate(0, 0, 3), models.OrderSell, 120, 1, 0),
		mustTx(t, day0.AddDate(0, 0, 4), models.OrderBuy, 100, 1, 0),
		mustTx(t, day0.AddDate(0, 0, 5), models.OrderSell, 160, 1, 0),
	}

	avg, ok := CalculateAverageProfit(basket, later)
	if !ok {
		t.Fatal("no average profit")
	}
	if want := decimal.NewFromInt(30); !avg.Equal(want) {
		t.Errorf("average profit = %s, want %s", avg, want)
	}

	med, ok := CalculateMedianProfit(basket, later)
	if !ok {
		t.Fatal("no median profit")
	}
	if want := decimal.NewFromInt(20); !med.Equal(want) {
		t.Errorf("median profit = %s, want %s", med, want)
	}

	sd, ok := CalculateProfitStdDev(basket, later)
	if !ok {
		t.Fatal("no profit stddev")
	}
	// Population stddev of {10, 20, 60} is sqrt(1400/3).
	want := decimal.NewFromFloat(21.602468994692867)
	if sd.Sub(want).Abs().GreaterThan(decimal.NewFromFloat(1e-9)) {
		t.Errorf("profit stddev = %s, want about %s", sd, want)
	}
}

func TestMedianProfitEvenCount(t *testing.T) {
	basket := []models.Transaction{
		mustTx(t, day0, models.OrderBuy, 100, 1, 0),
		mustTx(t, day0.AddDate(0, 0, 1), models.OrderSell, 110, 1, 0),
		mustTx(t, day0.AddDate(0, 0, 2), models.OrderBuy, 100, 1, 0),
		mustTx(t, day0.AddDate(0, 0, 3), models.OrderSell, 140, 1, 0),
	}
	med, ok := CalculateMedianProfit(basket, later)
	if !ok {
		t.Fatal("no median profit")
	}
	if want := decimal.NewFromInt(25); !med.Equal(want) {
		t.Errorf("median profit = %s, want %s", med, want)
	}
}
