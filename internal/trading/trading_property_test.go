package trading

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"papertrade/internal/models"
)

// Property: For any sequence of opening and closing transactions, the
// held share count depends only on settlement dates, never on the order
// the transactions were added to the basket.
func TestProperty_HeldSharesIndependentOfInsertionOrder(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	// A valid history: n buys of known size, then sells never exceeding
	// the running total, each on its own settlement day.
	historyGen := gen.SliceOfN(12, gen.IntRange(1, 100)).Map(func(sizes []int) []models.Transaction {
		var txs []models.Transaction
		held := int64(0)
		for i, size := range sizes {
			day := base.AddDate(0, 0, i)
			if i%3 == 2 && held > 0 {
				shares := int64(size)
				if shares > held {
					shares = held
				}
				tx, _ := models.NewTransaction(day, models.OrderSell, "MSFT",
					decimal.NewFromInt(110), decimal.NewFromInt(shares), decimal.Zero)
				txs = append(txs, tx)
				held -= shares
			} else {
				tx, _ := models.NewTransaction(day, models.OrderBuy, "MSFT",
					decimal.NewFromInt(100), decimal.NewFromInt(int64(size)), decimal.Zero)
				txs = append(txs, tx)
				held += int64(size)
			}
		}
		return txs
	})

	properties.Property("held shares survive basket reversal", prop.ForAll(
		func(txs []models.Transaction) bool {
			asOf := base.AddDate(1, 0, 0)
			forward := GetHeldShares(txs, asOf)

			reversed := make([]models.Transaction, len(txs))
			for i, tx := range txs {
				reversed[len(txs)-1-i] = tx
			}
			backward := GetHeldShares(reversed, asOf)

			return forward.Equal(backward)
		},
		historyGen,
	))

	properties.Property("gross profit survives basket reversal", prop.ForAll(
		func(txs []models.Transaction) bool {
			asOf := base.AddDate(1, 0, 0)
			forward := CalculateGrossProfit(txs, asOf)

			reversed := make([]models.Transaction, len(txs))
			for i, tx := range txs {
				reversed[len(txs)-1-i] = tx
			}
			backward := CalculateGrossProfit(reversed, asOf)

			return forward.Equal(backward)
		},
		historyGen,
	))

	properties.TestingRun(t)
}

// Property: Matched holdings never carry more shares than were opened,
// and the gross profit of a basket equals proceeds minus the cost of
// the closed shares when every lot is fully closed.
func TestProperty_FullyClosedBasketProfitIsProceedsMinusCost(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	tripGen := gen.SliceOfN(6, gen.IntRange(1, 50)).Map(func(sizes []int) []models.Transaction {
		var txs []models.Transaction
		for i, size := range sizes {
			shares := decimal.NewFromInt(int64(size))
			buyDay := base.AddDate(0, 0, 2*i)
			sellDay := base.AddDate(0, 0, 2*i+1)
			buy, _ := models.NewTransaction(buyDay, models.OrderBuy, "MSFT",
				decimal.NewFromInt(int64(90+size)), shares, decimal.Zero)
			sell, _ := models.NewTransaction(sellDay, models.OrderSell, "MSFT",
				decimal.NewFromInt(int64(100+size)), shares, decimal.Zero)
			txs = append(txs, buy, sell)
		}
		return txs
	})

	properties.Property("profit equals proceeds minus cost when fully closed", prop.ForAll(
		func(txs []models.Transaction) bool {
			asOf := base.AddDate(1, 0, 0)
			if !GetHeldShares(txs, asOf).IsZero() {
				return false
			}
			profit := CalculateGrossProfit(txs, asOf)
			expected := CalculateProceeds(txs, asOf).Sub(CalculateCost(txs, asOf))
			return profit.Equal(expected)
		},
		tripGen,
	))

	properties.TestingRun(t)
}
