package trading

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/errors"
	"papertrade/internal/models"
	"papertrade/internal/pricing"
)

// Portfolio aggregates a cash ledger and one position per non-cash
// ticker. The cash ticker designates the ledger; any transaction using
// it must be a pure cash movement, and cash movements must use it.
type Portfolio struct {
	cashTicker string

	mu        sync.RWMutex
	positions map[string]*Position
	cash      []models.Transaction
}

// NewPortfolio creates an empty portfolio whose cash ledger is keyed by
// cashTicker. An empty cash ticker is allowed.
func NewPortfolio(cashTicker string) *Portfolio {
	return &Portfolio{
		cashTicker: cashTicker,
		positions:  make(map[string]*Position),
	}
}

// NewPortfolioWithDeposit creates a portfolio seeded with an opening
// deposit.
func NewPortfolioWithDeposit(cashTicker string, settlement time.Time, amount decimal.Decimal) (*Portfolio, error) {
	p := NewPortfolio(cashTicker)
	if err := p.Deposit(settlement, amount); err != nil {
		return nil, err
	}
	return p, nil
}

// CashTicker returns the ticker designating the cash ledger.
func (p *Portfolio) CashTicker() string {
	return p.cashTicker
}

// Deposit adds cash to the portfolio.
func (p *Portfolio) Deposit(settlement time.Time, amount decimal.Decimal) error {
	tx, err := models.NewDeposit(settlement, p.cashTicker, amount)
	if err != nil {
		return err
	}
	return p.AddTransaction(tx)
}

// Withdraw removes cash from the portfolio. It fails if the withdrawal
// would drive available cash negative as of its settlement date.
func (p *Portfolio) Withdraw(settlement time.Time, amount decimal.Decimal) error {
	tx, err := models.NewWithdrawal(settlement, p.cashTicker, amount)
	if err != nil {
		return err
	}
	return p.AddTransaction(tx)
}

// AddTransaction routes a transaction to the cash ledger or to the
// matching position, creating the position on first use of a ticker.
func (p *Portfolio) AddTransaction(tx models.Transaction) error {
	if tx.Type.IsCash() != (tx.Ticker == p.cashTicker) {
		return errors.NewStateError("add transaction", tx.Type.String()+" against ticker "+tx.Ticker, errors.ErrCashTickerMismatch)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if tx.Type.IsCash() {
		return p.addCashLocked(tx)
	}

	pos, ok := p.positions[tx.Ticker]
	if !ok {
		var err error
		pos, err = NewPosition(tx.Ticker)
		if err != nil {
			return err
		}
		p.positions[tx.Ticker] = pos
	}
	return pos.AddTransaction(tx)
}

// AddTransactions adds transactions in settlement-date order, stopping
// at the first rejected transaction. Earlier transactions in the batch
// remain applied.
func (p *Portfolio) AddTransactions(txs []models.Transaction) error {
	sorted := make([]models.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SettlementDate.Before(sorted[j].SettlementDate)
	})
	for _, tx := range sorted {
		if err := p.AddTransaction(tx); err != nil {
			return err
		}
	}
	return nil
}

func (p *Portfolio) addCashLocked(tx models.Transaction) error {
	if tx.Type == models.OrderWithdrawal {
		available := p.availableCashLocked(tx.SettlementDate).Add(tx.CashValue())
		if available.IsNegative() {
			return errors.NewFundsError(p.cashTicker, tx.CashValue().Neg().String(), p.availableCashLocked(tx.SettlementDate).String())
		}
	}
	p.cash = append(p.cash, tx)
	return nil
}

// GetAvailableCash returns the cash balance as of the given date:
// deposits and dividends add, withdrawals subtract.
func (p *Portfolio) GetAvailableCash(asOf time.Time) decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.availableCashLocked(asOf)
}

func (p *Portfolio) availableCashLocked(asOf time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range p.cash {
		if !tx.SettlementDate.After(asOf) {
			total = total.Add(tx.CashValue())
		}
	}
	return total
}

// CashTransactions returns a snapshot of the cash ledger.
func (p *Portfolio) CashTransactions() []models.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.Transaction, len(p.cash))
	copy(out, p.cash)
	return out
}

// GetPosition returns the position for ticker, or false if the ticker
// has never been traded.
func (p *Portfolio) GetPosition(ticker string) (*Position, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pos, ok := p.positions[ticker]
	return pos, ok
}

// Positions returns a snapshot of all positions, sorted by ticker.
func (p *Portfolio) Positions() []*Position {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Position, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker() < out[j].Ticker() })
	return out
}

// Tickers returns the tickers of all tracked positions, sorted.
func (p *Portfolio) Tickers() []string {
	positions := p.Positions()
	out := make([]string, len(positions))
	for i, pos := range positions {
		out[i] = pos.Ticker()
	}
	return out
}

// Value returns the total portfolio value as of asOf: available cash
// plus the market value of all held shares at prices supplied by the
// quote provider.
func (p *Portfolio) Value(asOf time.Time, quotes pricing.QuoteProvider) (decimal.Decimal, error) {
	total := p.GetAvailableCash(asOf)
	for _, pos := range p.Positions() {
		held := pos.HeldShares(asOf)
		if held.IsZero() {
			continue
		}
		price, err := quotes.PriceAt(pos.Ticker(), asOf)
		if err != nil {
			return decimal.Zero, errors.Wrapf(err, "valuing %s", pos.Ticker())
		}
		total = total.Add(price.Mul(held))
	}
	return total, nil
}
