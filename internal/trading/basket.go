// Package trading provides portfolio accounting: basket calculations,
// positions and the portfolio ledger.
package trading

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"papertrade/internal/errors"
	"papertrade/internal/models"
)

// annualReturnDigits is the rounding applied to annualized returns.
const annualReturnDigits = 20

var daysPerYear = decimal.NewFromInt(365)

// shareTransactions returns the share transactions of a basket settled on
// or before asOf, in stable settlement-date order. Running-state
// calculations depend on chronological processing, so the sort must be
// stable with respect to insertion order for equal dates.
func shareTransactions(basket []models.Transaction, asOf time.Time) []models.Transaction {
	out := make([]models.Transaction, 0, len(basket))
	for _, tx := range basket {
		if tx.Type.IsShare() && !tx.SettlementDate.After(asOf) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SettlementDate.Before(out[j].SettlementDate)
	})
	return out
}

// CalculateCost returns the total amount spent on opening transactions
// settled on or before asOf.
func CalculateCost(basket []models.Transaction, asOf time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range shareTransactions(basket, asOf) {
		if tx.Type.IsOpening() {
			total = total.Add(tx.Price.Mul(tx.Shares))
		}
	}
	return total
}

// CalculateProceeds returns the total amount received from closing
// transactions settled on or before asOf.
func CalculateProceeds(basket []models.Transaction, asOf time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range shareTransactions(basket, asOf) {
		if tx.Type.IsClosing() {
			total = total.Add(tx.Price.Mul(tx.Shares))
		}
	}
	return total
}

// CalculateCommissions returns the total brokerage fees paid on share
// transactions settled on or before asOf. Commissions are quoted per
// share, so each transaction contributes commission times shares.
func CalculateCommissions(basket []models.Transaction, asOf time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range shareTransactions(basket, asOf) {
		total = total.Add(tx.TotalCommission())
	}
	return total
}

// GetHeldShares returns the net open share count as of asOf: opening
// transactions add shares, closing transactions subtract them. The
// result depends only on settlement dates, never on insertion order.
func GetHeldShares(basket []models.Transaction, asOf time.Time) decimal.Decimal {
	held := decimal.Zero
	for _, tx := range shareTransactions(basket, asOf) {
		switch {
		case tx.Type.IsOpening():
			held = held.Add(tx.Shares)
		case tx.Type.IsClosing():
			held = held.Sub(tx.Shares)
		}
	}
	return held
}

// CalculateAverageCost returns the weighted average cost of the shares
// held as of asOf. Closing transactions reduce the running cost
// proportionally before reducing the share count. Returns a StateError
// when no shares are held as of asOf.
func CalculateAverageCost(basket []models.Transaction, asOf time.Time) (decimal.Decimal, error) {
	totalCost := decimal.Zero
	shares := decimal.Zero
	for _, tx := range shareTransactions(basket, asOf) {
		switch {
		case tx.Type.IsOpening():
			totalCost = totalCost.Add(tx.Price.Mul(tx.Shares))
			shares = shares.Add(tx.Shares)
		case tx.Type.IsClosing():
			if shares.IsZero() {
				return decimal.Zero, errors.NewStateError("average cost", "closing transaction against zero held shares", errors.ErrNoOpenShares)
			}
			totalCost = totalCost.Sub(totalCost.Div(shares).Mul(tx.Shares))
			shares = shares.Sub(tx.Shares)
		}
	}
	if shares.IsZero() {
		return decimal.Zero, errors.NewStateError("average cost", "no shares held as of date", errors.ErrNoOpenShares)
	}
	return totalCost.Div(shares), nil
}

// CalculateGrossProfit returns the realized profit before commissions
// over all holdings closed on or before asOf.
func CalculateGrossProfit(basket []models.Transaction, asOf time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, h := range Holdings(basket, asOf) {
		total = total.Add(h.GrossProfit())
	}
	return total
}

// CalculateNetProfit returns the realized profit net of commissions over
// all holdings closed on or before asOf.
func CalculateNetProfit(basket []models.Transaction, asOf time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, h := range Holdings(basket, asOf) {
		total = total.Add(h.NetProfit())
	}
	return total
}

// CalculateGrossReturn returns the share-weighted average gross return
// over all holdings as of asOf. The second result is false when there
// are no holdings, which is a distinct state from a zero return.
func CalculateGrossReturn(basket []models.Transaction, asOf time.Time) (decimal.Decimal, bool) {
	return weightedReturn(Holdings(basket, asOf), Holding.GrossReturn)
}

// CalculateNetReturn returns the share-weighted average net return over
// all holdings as of asOf; false when there are no holdings.
func CalculateNetReturn(basket []models.Transaction, asOf time.Time) (decimal.Decimal, bool) {
	return weightedReturn(Holdings(basket, asOf), Holding.NetReturn)
}

func weightedReturn(holdings []Holding, ret func(Holding) decimal.Decimal) (decimal.Decimal, bool) {
	if len(holdings) == 0 {
		return decimal.Zero, false
	}
	weighted := decimal.Zero
	totalShares := decimal.Zero
	for _, h := range holdings {
		weighted = weighted.Add(ret(h).Mul(h.Shares))
		totalShares = totalShares.Add(h.Shares)
	}
	if totalShares.IsZero() {
		return decimal.Zero, false
	}
	return weighted.Div(totalShares), true
}

// CalculateAnnualGrossReturn annualizes the gross return over the span
// from the earliest opening to the latest closing of the basket's
// holdings; false when there are no holdings.
func CalculateAnnualGrossReturn(basket []models.Transaction, asOf time.Time) (decimal.Decimal, bool) {
	ret, ok := CalculateGrossReturn(basket, asOf)
	if !ok {
		return decimal.Zero, false
	}
	return annualize(ret, Holdings(basket, asOf)), true
}

// CalculateAnnualNetReturn annualizes the net return; false when there
// are no holdings.
func CalculateAnnualNetReturn(basket []models.Transaction, asOf time.Time) (decimal.Decimal, bool) {
	ret, ok := CalculateNetReturn(basket, asOf)
	if !ok {
		return decimal.Zero, false
	}
	return annualize(ret, Holdings(basket, asOf)), true
}

// annualize divides a return by the holding span expressed in years.
// A same-day round trip has no span to annualize over and is returned
// unchanged.
func annualize(ret decimal.Decimal, holdings []Holding) decimal.Decimal {
	head, tail := holdingSpan(holdings)
	days := decimal.NewFromFloat(tail.Sub(head).Hours() / 24)
	if days.IsZero() {
		return ret
	}
	return ret.Div(days.Div(daysPerYear)).Round(annualReturnDigits)
}

func holdingSpan(holdings []Holding) (head, tail time.Time) {
	for i, h := range holdings {
		if i == 0 || h.OpenDate.Before(head) {
			head = h.OpenDate
		}
		if i == 0 || h.CloseDate.After(tail) {
			tail = h.CloseDate
		}
	}
	return head, tail
}

// CalculateAverageProfit returns the mean gross profit per holding;
// false when there are no holdings.
func CalculateAverageProfit(basket []models.Transaction, asOf time.Time) (decimal.Decimal, bool) {
	profits := holdingProfits(basket, asOf)
	if len(profits) == 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(stat.Mean(profits, nil)), true
}

// CalculateMedianProfit returns the median gross profit per holding;
// false when there are no holdings. For an even holding count the two
// middle values are averaged.
func CalculateMedianProfit(basket []models.Transaction, asOf time.Time) (decimal.Decimal, bool) {
	holdings := Holdings(basket, asOf)
	if len(holdings) == 0 {
		return decimal.Zero, false
	}
	profits := make([]decimal.Decimal, len(holdings))
	for i, h := range holdings {
		profits[i] = h.GrossProfit()
	}
	sort.Slice(profits, func(i, j int) bool { return profits[i].LessThan(profits[j]) })
	mid := len(profits) / 2
	if len(profits)%2 == 1 {
		return profits[mid], true
	}
	return profits[mid-1].Add(profits[mid]).Div(decimal.NewFromInt(2)), true
}

// CalculateProfitStdDev returns the population standard deviation of the
// gross profit per holding; false when there are no holdings.
func CalculateProfitStdDev(basket []models.Transaction, asOf time.Time) (decimal.Decimal, bool) {
	profits := holdingProfits(basket, asOf)
	if len(profits) == 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(stat.PopStdDev(profits, nil)), true
}

func holdingProfits(basket []models.Transaction, asOf time.Time) []float64 {
	holdings := Holdings(basket, asOf)
	profits := make([]float64, len(holdings))
	for i, h := range holdings {
		profits[i] = h.GrossProfit().InexactFloat64()
	}
	return profits
}
