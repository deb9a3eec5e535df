package models

import (
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/errors"
)

// Transaction is an immutable record of a cash or share movement. Price
// and Commission are per-share magnitudes; the direction of the movement
// is carried entirely by Type. A transaction is owned by exactly one
// position (share types) or one cash ledger (cash types) and is never
// mutated after creation.
type Transaction struct {
	SettlementDate time.Time
	Type           OrderType
	Ticker         string
	Price          decimal.Decimal
	Shares         decimal.Decimal
	Commission     decimal.Decimal
}

// NewTransaction creates a validated transaction of any type.
func NewTransaction(settlement time.Time, typ OrderType, ticker string, price, shares, commission decimal.Decimal) (Transaction, error) {
	if typ.String() == "UNKNOWN" {
		return Transaction{}, errors.NewValidationError("type", typ, "unrecognized order type")
	}
	if shares.IsNegative() {
		return Transaction{}, errors.NewValidationError("shares", shares, "must not be negative")
	}
	if commission.IsNegative() {
		return Transaction{}, errors.NewValidationError("commission", commission, "must not be negative")
	}
	if price.IsNegative() {
		return Transaction{}, errors.NewValidationError("price", price, "must not be negative")
	}
	if typ&ShareOrderTypes != 0 && ticker == "" {
		return Transaction{}, errors.NewValidationError("ticker", ticker, "share transactions require a ticker")
	}
	return Transaction{
		SettlementDate: settlement,
		Type:           typ,
		Ticker:         ticker,
		Price:          price,
		Shares:         shares,
		Commission:     commission,
	}, nil
}

// NewDeposit creates a cash deposit. The ticker identifies the cash
// ledger and may be empty.
func NewDeposit(settlement time.Time, ticker string, amount decimal.Decimal) (Transaction, error) {
	if !amount.IsPositive() {
		return Transaction{}, errors.NewValidationError("amount", amount, "deposit amount must be positive")
	}
	return NewTransaction(settlement, OrderDeposit, ticker, amount, decimal.NewFromInt(1), decimal.Zero)
}

// NewWithdrawal creates a cash withdrawal for the given positive amount.
func NewWithdrawal(settlement time.Time, ticker string, amount decimal.Decimal) (Transaction, error) {
	if !amount.IsPositive() {
		return Transaction{}, errors.NewValidationError("amount", amount, "withdrawal amount must be positive")
	}
	return NewTransaction(settlement, OrderWithdrawal, ticker, amount, decimal.NewFromInt(1), decimal.Zero)
}

// NewDividendReceipt creates a cash dividend paid into the cash ledger.
func NewDividendReceipt(settlement time.Time, ticker string, amount decimal.Decimal) (Transaction, error) {
	if !amount.IsPositive() {
		return Transaction{}, errors.NewValidationError("amount", amount, "dividend amount must be positive")
	}
	return NewTransaction(settlement, OrderDividendReceipt, ticker, amount, decimal.NewFromInt(1), decimal.Zero)
}

// NewDividendReinvestment creates a share transaction representing a
// dividend paid in shares.
func NewDividendReinvestment(settlement time.Time, ticker string, price, shares decimal.Decimal) (Transaction, error) {
	return NewTransaction(settlement, OrderDividendReinvestment, ticker, price, shares, decimal.Zero)
}

// CashValue returns the signed cash impact of a cash transaction:
// deposits and dividends positive, withdrawals negative. Share
// transactions have no direct cash value here; funding is handled by the
// trading account.
func (t Transaction) CashValue() decimal.Decimal {
	switch t.Type {
	case OrderDeposit, OrderDividendReceipt:
		return t.Price.Mul(t.Shares)
	case OrderWithdrawal:
		return t.Price.Mul(t.Shares).Neg()
	default:
		return decimal.Zero
	}
}

// TotalCommission returns the aggregate brokerage fee for the
// transaction. Commission is quoted per share.
func (t Transaction) TotalCommission() decimal.Decimal {
	return t.Commission.Mul(t.Shares)
}
