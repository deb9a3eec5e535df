package broker

import (
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// DelayStrategy produces the simulated brokerage processing latency for
// one order. Injectable so tests can substitute deterministic values.
type DelayStrategy interface {
	Delay() time.Duration
}

// SlippageStrategy maps a requested price to the simulated fill price.
type SlippageStrategy interface {
	FillPrice(requested decimal.Decimal) decimal.Decimal
}

// RandomDelay produces a uniformly distributed delay in [Min, Max].
type RandomDelay struct {
	Min time.Duration
	Max time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomDelay creates a bounded randomized delay strategy.
func NewRandomDelay(min, max time.Duration) *RandomDelay {
	if max < min {
		min, max = max, min
	}
	return &RandomDelay{
		Min: min,
		Max: max,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Delay returns the next randomized delay.
func (d *RandomDelay) Delay() time.Duration {
	if d.Max == d.Min {
		return d.Min
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Min + time.Duration(d.rng.Int63n(int64(d.Max-d.Min)))
}

// FixedDelay always waits the same duration. Zero makes processing
// effectively immediate, which tests rely on.
type FixedDelay time.Duration

// Delay returns the fixed duration.
func (d FixedDelay) Delay() time.Duration {
	return time.Duration(d)
}

// PercentSlippage fills at the requested price moved by a fixed
// percentage, rounded to two decimal places.
type PercentSlippage struct {
	Percent decimal.Decimal
}

// FillPrice returns requested * (1 + percent/100) rounded to cents.
func (s PercentSlippage) FillPrice(requested decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(s.Percent.Div(decimal.NewFromInt(100)))
	return requested.Mul(factor).Round(2)
}

// NoSlippage fills at exactly the requested price.
type NoSlippage struct{}

// FillPrice returns the requested price unchanged.
func (NoSlippage) FillPrice(requested decimal.Decimal) decimal.Decimal {
	return requested
}

// Simulation defaults. The +1% slippage mirrors a brokerage filling a
// market order slightly against the submitter.
var (
	DefaultDelay    DelayStrategy    = NewRandomDelay(25*time.Millisecond, 150*time.Millisecond)
	DefaultSlippage SlippageStrategy = PercentSlippage{Percent: decimal.NewFromInt(1)}
)
