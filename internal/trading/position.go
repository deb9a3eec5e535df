package trading

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/errors"
	"papertrade/internal/models"
)

// Position is the basket of share transactions for a single ticker.
// Mutations validate the point-in-time share invariant over the full
// date-sorted sequence, so transactions may arrive out of chronological
// order. A position persists with zero holdings once created.
type Position struct {
	ticker       string
	mu           sync.RWMutex
	transactions []models.Transaction
}

// NewPosition creates an empty position for the given ticker.
func NewPosition(ticker string) (*Position, error) {
	if ticker == "" {
		return nil, errors.NewValidationError("ticker", ticker, "must not be empty")
	}
	return &Position{ticker: ticker}, nil
}

// Ticker returns the position's ticker.
func (p *Position) Ticker() string {
	return p.ticker
}

// Transactions returns a snapshot of the position's transactions.
func (p *Position) Transactions() []models.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.Transaction, len(p.transactions))
	copy(out, p.transactions)
	return out
}

// Buy records a purchase of shares.
func (p *Position) Buy(settlement time.Time, shares, price, commission decimal.Decimal) error {
	return p.trade(settlement, models.OrderBuy, shares, price, commission)
}

// Sell records a sale of previously bought shares.
func (p *Position) Sell(settlement time.Time, shares, price, commission decimal.Decimal) error {
	return p.trade(settlement, models.OrderSell, shares, price, commission)
}

// SellShort records a short sale.
func (p *Position) SellShort(settlement time.Time, shares, price, commission decimal.Decimal) error {
	return p.trade(settlement, models.OrderSellShort, shares, price, commission)
}

// BuyToCover records a purchase covering previously shorted shares.
func (p *Position) BuyToCover(settlement time.Time, shares, price, commission decimal.Decimal) error {
	return p.trade(settlement, models.OrderBuyToCover, shares, price, commission)
}

func (p *Position) trade(settlement time.Time, typ models.OrderType, shares, price, commission decimal.Decimal) error {
	tx, err := models.NewTransaction(settlement, typ, p.ticker, price, shares, commission)
	if err != nil {
		return err
	}
	return p.AddTransaction(tx)
}

// AddTransaction appends a share transaction to the position. The
// transaction is rejected, leaving the position unchanged, if its ticker
// does not match, if it is not a share transaction, or if the resulting
// date-sorted sequence would reduce held or shorted shares below zero at
// any point in time.
func (p *Position) AddTransaction(tx models.Transaction) error {
	if tx.Ticker != p.ticker {
		return errors.NewValidationError("ticker", tx.Ticker, "transaction ticker does not match position")
	}
	if !tx.Type.IsShare() {
		return errors.NewValidationError("type", tx.Type, "cash transactions do not belong in a position")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	candidate := make([]models.Transaction, 0, len(p.transactions)+1)
	candidate = append(candidate, p.transactions...)
	candidate = append(candidate, tx)
	if err := validateShareSequence(candidate); err != nil {
		return err
	}
	p.transactions = candidate
	return nil
}

// validateShareSequence replays a transaction sequence in settlement
// order and rejects it if sells ever exceed held shares or covers ever
// exceed shorted shares.
func validateShareSequence(txs []models.Transaction) error {
	sorted := make([]models.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SettlementDate.Before(sorted[j].SettlementDate)
	})

	held := decimal.Zero
	shorted := decimal.Zero
	for _, tx := range sorted {
		switch tx.Type {
		case models.OrderBuy:
			held = held.Add(tx.Shares)
		case models.OrderSell:
			held = held.Sub(tx.Shares)
			if held.IsNegative() {
				return errors.NewStateError("sell", "sell exceeds held shares as of settlement date", errors.ErrInsufficientShares)
			}
		case models.OrderSellShort:
			shorted = shorted.Add(tx.Shares)
		case models.OrderBuyToCover:
			shorted = shorted.Sub(tx.Shares)
			if shorted.IsNegative() {
				return errors.NewStateError("buy to cover", "cover exceeds shorted shares as of settlement date", errors.ErrInsufficientShares)
			}
		}
	}
	return nil
}

// HeldShares returns the net open share count as of asOf.
func (p *Position) HeldShares(asOf time.Time) decimal.Decimal {
	return GetHeldShares(p.Transactions(), asOf)
}

// AverageCost returns the weighted average cost of shares held as of
// asOf.
func (p *Position) AverageCost(asOf time.Time) (decimal.Decimal, error) {
	return CalculateAverageCost(p.Transactions(), asOf)
}

// GrossProfit returns the realized profit before commissions as of asOf.
func (p *Position) GrossProfit(asOf time.Time) decimal.Decimal {
	return CalculateGrossProfit(p.Transactions(), asOf)
}

// NetProfit returns the realized profit after commissions as of asOf.
func (p *Position) NetProfit(asOf time.Time) decimal.Decimal {
	return CalculateNetProfit(p.Transactions(), asOf)
}
