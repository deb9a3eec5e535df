// Package models provides domain models for portfolio accounting and
// simulated order execution.
package models

// OrderType identifies the economic effect of a transaction or order.
// The values are bit flags so that account capabilities can be expressed
// as a set (see broker.Features).
type OrderType uint16

const (
	OrderDeposit OrderType = 1 << iota
	OrderWithdrawal
	OrderDividendReceipt
	OrderDividendReinvestment
	OrderBuy
	OrderSell
	OrderSellShort
	OrderBuyToCover
)

// ShareOrderTypes is the set of order types that move shares and are
// therefore valid for an Order submitted to a trading account.
const ShareOrderTypes = OrderBuy | OrderSell | OrderSellShort | OrderBuyToCover

// CashOrderTypes is the set of order types that move cash only.
const CashOrderTypes = OrderDeposit | OrderWithdrawal | OrderDividendReceipt

// IsCash reports whether the type is a pure cash movement.
func (t OrderType) IsCash() bool {
	return t&CashOrderTypes != 0
}

// IsShare reports whether the type moves shares.
func (t OrderType) IsShare() bool {
	return t&(ShareOrderTypes|OrderDividendReinvestment) != 0
}

// IsOpening reports whether the type opens a position. Only Buy and
// SellShort open; dividend reinvestments are excluded from open/close
// share arithmetic.
func (t OrderType) IsOpening() bool {
	return t == OrderBuy || t == OrderSellShort
}

// IsClosing reports whether the type closes a position.
func (t OrderType) IsClosing() bool {
	return t == OrderSell || t == OrderBuyToCover
}

// IsLong reports whether the type belongs to the long side of a position.
func (t OrderType) IsLong() bool {
	return t == OrderBuy || t == OrderSell
}

// IsShort reports whether the type belongs to the short side of a position.
func (t OrderType) IsShort() bool {
	return t == OrderSellShort || t == OrderBuyToCover
}

func (t OrderType) String() string {
	switch t {
	case OrderDeposit:
		return "DEPOSIT"
	case OrderWithdrawal:
		return "WITHDRAWAL"
	case OrderDividendReceipt:
		return "DIVIDEND"
	case OrderDividendReinvestment:
		return "DIVIDEND_REINVEST"
	case OrderBuy:
		return "BUY"
	case OrderSell:
		return "SELL"
	case OrderSellShort:
		return "SELL_SHORT"
	case OrderBuyToCover:
		return "BUY_TO_COVER"
	default:
		return "UNKNOWN"
	}
}

// PricingType governs how an order's fill price is determined.
// Stop alone is shorthand for StopMarket; Stop combined with Limit is a
// StopLimit. Market combined with Limit is contradictory and rejected.
type PricingType uint8

const (
	PricingMarket PricingType = 1 << iota
	PricingLimit
	PricingStop

	PricingStopMarket = PricingStop | PricingMarket
	PricingStopLimit  = PricingStop | PricingLimit
)

// Normalize collapses shorthand pricing values to their canonical form
// and reports whether the result is a recognized pricing type. The zero
// value normalizes to Market.
func (p PricingType) Normalize() (PricingType, bool) {
	switch p {
	case 0, PricingMarket:
		return PricingMarket, true
	case PricingLimit:
		return PricingLimit, true
	case PricingStop, PricingStopMarket:
		return PricingStopMarket, true
	case PricingStopLimit:
		return PricingStopLimit, true
	default:
		return p, false
	}
}

func (p PricingType) String() string {
	switch p {
	case PricingMarket:
		return "MARKET"
	case PricingLimit:
		return "LIMIT"
	case PricingStop, PricingStopMarket:
		return "STOP_MARKET"
	case PricingStopLimit:
		return "STOP_LIMIT"
	default:
		return "UNKNOWN"
	}
}
