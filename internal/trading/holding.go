package trading

import (
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/models"
)

// Holding is a matched pair of an opening and a closing share
// transaction, the unit over which realized profit and return are
// computed. A partially closed lot produces a holding for the closed
// shares only. Prices and commissions are per share.
type Holding struct {
	Ticker          string
	Short           bool
	Shares          decimal.Decimal
	OpenDate        time.Time
	CloseDate       time.Time
	OpenPrice       decimal.Decimal
	ClosePrice      decimal.Decimal
	OpenCommission  decimal.Decimal
	CloseCommission decimal.Decimal
}

// GrossProfit returns the realized profit before commissions.
func (h Holding) GrossProfit() decimal.Decimal {
	if h.Short {
		return h.OpenPrice.Sub(h.ClosePrice).Mul(h.Shares)
	}
	return h.ClosePrice.Sub(h.OpenPrice).Mul(h.Shares)
}

// NetProfit returns the realized profit after commissions on both
// sides of the holding.
func (h Holding) NetProfit() decimal.Decimal {
	fees := h.OpenCommission.Add(h.CloseCommission).Mul(h.Shares)
	return h.GrossProfit().Sub(fees)
}

// GrossReturn returns the fractional return before commissions,
// relative to the opening price.
func (h Holding) GrossReturn() decimal.Decimal {
	if h.OpenPrice.IsZero() {
		return decimal.Zero
	}
	return h.GrossProfit().Div(h.OpenPrice.Mul(h.Shares))
}

// NetReturn returns the fractional return after commissions, relative
// to the opening cost including the opening commission.
func (h Holding) NetReturn() decimal.Decimal {
	basis := h.OpenPrice.Add(h.OpenCommission).Mul(h.Shares)
	if basis.IsZero() {
		return decimal.Zero
	}
	return h.NetProfit().Div(basis)
}

// openLot tracks the unmatched remainder of an opening transaction.
type openLot struct {
	date       time.Time
	price      decimal.Decimal
	commission decimal.Decimal
	remaining  decimal.Decimal
}

// Holdings matches closing transactions against opening transactions in
// first-in-first-out settlement-date order and returns the resulting
// holdings as of asOf. Long lots (buys) are matched by sells; short lots
// (short sales) are matched by covers. The two sides are tracked
// independently per ticker.
func Holdings(basket []models.Transaction, asOf time.Time) []Holding {
	type book struct {
		long  []openLot
		short []openLot
	}
	books := make(map[string]*book)
	var holdings []Holding

	for _, tx := range shareTransactions(basket, asOf) {
		b := books[tx.Ticker]
		if b == nil {
			b = &book{}
			books[tx.Ticker] = b
		}
		switch tx.Type {
		case models.OrderBuy:
			b.long = append(b.long, newLot(tx))
		case models.OrderSellShort:
			b.short = append(b.short, newLot(tx))
		case models.OrderSell:
			holdings = append(holdings, closeLots(&b.long, tx, false)...)
		case models.OrderBuyToCover:
			holdings = append(holdings, closeLots(&b.short, tx, true)...)
		}
	}
	return holdings
}

func newLot(tx models.Transaction) openLot {
	return openLot{
		date:       tx.SettlementDate,
		price:      tx.Price,
		commission: tx.Commission,
		remaining:  tx.Shares,
	}
}

func closeLots(lots *[]openLot, tx models.Transaction, short bool) []Holding {
	var out []Holding
	toClose := tx.Shares
	for toClose.IsPositive() && len(*lots) > 0 {
		lot := &(*lots)[0]
		matched := decimal.Min(lot.remaining, toClose)
		out = append(out, Holding{
			Ticker:          tx.Ticker,
			Short:           short,
			Shares:          matched,
			OpenDate:        lot.date,
			CloseDate:       tx.SettlementDate,
			OpenPrice:       lot.price,
			ClosePrice:      tx.Price,
			OpenCommission:  lot.commission,
			CloseCommission: tx.Commission,
		})
		lot.remaining = lot.remaining.Sub(matched)
		toClose = toClose.Sub(matched)
		if lot.remaining.IsZero() {
			*lots = (*lots)[1:]
		}
	}
	return out
}
