package models

import (
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/errors"
)

// Order is a validated request to trade. Orders are immutable after
// construction and terminate in exactly one of filled, expired or
// cancelled once accepted by a trading account.
type Order struct {
	ID         string
	Issued     time.Time
	Expiration time.Time
	Type       OrderType
	Ticker     string
	Shares     decimal.Decimal
	Price      decimal.Decimal
	Pricing    PricingType
}

// NewOrder creates an order, failing fast on any invalid combination.
// The ID is an optional caller-supplied label; when empty, the trading
// account generates one internally without touching the order.
func NewOrder(issued, expiration time.Time, typ OrderType, ticker string, shares, price decimal.Decimal, pricing PricingType) (*Order, error) {
	if expiration.Before(issued) {
		return nil, errors.NewValidationError("expiration", expiration, "must not precede issue time")
	}
	// Exactly one share-type bit: composites like Buy|Sell are not an
	// order, even though each bit alone is.
	if typ&ShareOrderTypes == 0 || typ&(typ-1) != 0 {
		return nil, errors.NewValidationError("type", typ, "orders must be exactly one of buy, sell, sell short or buy to cover")
	}
	if ticker == "" {
		return nil, errors.NewValidationError("ticker", ticker, "must not be empty")
	}
	if !shares.IsPositive() {
		return nil, errors.NewValidationError("shares", shares, "must be positive")
	}
	if price.IsNegative() {
		return nil, errors.NewValidationError("price", price, "must not be negative")
	}
	normalized, ok := pricing.Normalize()
	if !ok {
		return nil, errors.NewValidationError("pricing", pricing, "unrecognized pricing type combination")
	}
	return &Order{
		Issued:     issued,
		Expiration: expiration,
		Type:       typ,
		Ticker:     ticker,
		Shares:     shares,
		Price:      price,
		Pricing:    normalized,
	}, nil
}

// Validity returns the window during which the order may fill.
func (o *Order) Validity() time.Duration {
	return o.Expiration.Sub(o.Issued)
}
