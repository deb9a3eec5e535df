// Package broker provides the simulated brokerage: account capabilities,
// commission and margin schedules, and the asynchronous order engine.
package broker

import (
	"github.com/shopspring/decimal"

	"papertrade/internal/errors"
	"papertrade/internal/models"
)

// CommissionSchedule maps an order to the brokerage fee charged per
// share when it fills.
type CommissionSchedule interface {
	PriceCheck(order *models.Order) decimal.Decimal
}

// MarginSchedule maps a ticker to the leverage the brokerage extends
// for it. A leverage of 1.0 means fully funded, no margin.
type MarginSchedule interface {
	LeverageRequirement(ticker string) float64
}

// FlatCommission charges a fixed per-share fee for every order.
type FlatCommission struct {
	Fee decimal.Decimal
}

// PriceCheck returns the flat per-share fee.
func (f FlatCommission) PriceCheck(*models.Order) decimal.Decimal {
	return f.Fee
}

// FreeCommission charges nothing.
type FreeCommission struct{}

// PriceCheck returns zero.
func (FreeCommission) PriceCheck(*models.Order) decimal.Decimal {
	return decimal.Zero
}

// NoMargin is the schedule of a brokerage that does not extend margin.
type NoMargin struct{}

// LeverageRequirement returns 1.0 for every ticker.
func (NoMargin) LeverageRequirement(string) float64 {
	return 1.0
}

// FlatMargin extends the same leverage for every ticker.
type FlatMargin struct {
	Leverage float64
}

// LeverageRequirement returns the flat leverage.
func (m FlatMargin) LeverageRequirement(string) float64 {
	if m.Leverage < 1.0 {
		return 1.0
	}
	return m.Leverage
}

// Features is the immutable capability set of a trading account: which
// order types it accepts and which commission and margin schedules it
// applies.
type Features struct {
	supported  models.OrderType
	commission CommissionSchedule
	margin     MarginSchedule
}

// NewBasicFeatures creates features for a cash account: buys and sells
// only, no margin.
func NewBasicFeatures(commission CommissionSchedule) Features {
	f, _ := NewCustomFeatures(models.OrderBuy|models.OrderSell, commission, NoMargin{})
	return f
}

// NewShortFeatures creates features for a short-only account.
func NewShortFeatures(commission CommissionSchedule) Features {
	f, _ := NewCustomFeatures(models.OrderSellShort|models.OrderBuyToCover, commission, NoMargin{})
	return f
}

// NewFullFeatures creates features supporting all four share order
// types with the given margin schedule.
func NewFullFeatures(commission CommissionSchedule, margin MarginSchedule) Features {
	f, _ := NewCustomFeatures(models.ShareOrderTypes, commission, margin)
	return f
}

// NewCustomFeatures creates features with an arbitrary subset of the
// share order types.
func NewCustomFeatures(supported models.OrderType, commission CommissionSchedule, margin MarginSchedule) (Features, error) {
	if supported == 0 || supported&^models.ShareOrderTypes != 0 {
		return Features{}, errors.NewValidationError("supported", supported, "must be a non-empty subset of the share order types")
	}
	if commission == nil {
		return Features{}, errors.NewValidationError("commission", nil, "commission schedule is required")
	}
	if margin == nil {
		margin = NoMargin{}
	}
	return Features{supported: supported, commission: commission, margin: margin}, nil
}

// Supports reports whether the account accepts orders of the given type.
func (f Features) Supports(t models.OrderType) bool {
	return t&f.supported == t && t != 0
}

// SupportedOrderTypes returns the supported order type set.
func (f Features) SupportedOrderTypes() models.OrderType {
	return f.supported
}

// Commission returns the commission schedule.
func (f Features) Commission() CommissionSchedule {
	return f.commission
}

// Margin returns the margin schedule.
func (f Features) Margin() MarginSchedule {
	return f.margin
}
