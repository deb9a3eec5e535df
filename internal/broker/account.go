package broker

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"papertrade/internal/errors"
	"papertrade/internal/models"
	"papertrade/internal/performance"
	"papertrade/internal/pricing"
	"papertrade/internal/trading"
)

// TradingAccount accepts orders, processes each one asynchronously on a
// worker pool, and simulates fill, expiration and cancellation outcomes
// against its own portfolio. Every accepted order reaches exactly one
// terminal event: filled, expired, cancelled or faulted.
type TradingAccount struct {
	features  Features
	portfolio *trading.Portfolio
	quotes    pricing.QuoteProvider
	delay     DelayStrategy
	slippage  SlippageStrategy
	logger    zerolog.Logger
	pool      *performance.WorkerPool

	mu       sync.Mutex
	closed   bool
	inflight map[*models.Order]*pendingOrder

	// outstanding counts accepted orders not yet terminal, including
	// ones submitted while a WaitAll is in flight: WaitAll waits for
	// quiescence. A plain WaitGroup cannot be reused like that while
	// waiters are parked, so idle signals the zero crossing instead.
	outstanding int
	idle        *sync.Cond

	obsMu sync.RWMutex
	obs   observers
}

// pendingOrder is the engine-side state of one submitted order. The ID
// lives here, not on the order: orders are immutable after construction
// and may be submitted to more than one account.
type pendingOrder struct {
	id          string
	order       *models.Order
	cancelOnce  sync.Once
	cancel      chan struct{}
	cancelledAt time.Time
	resolved    atomic.Bool
}

// AccountConfig holds configuration for a trading account.
type AccountConfig struct {
	Features   Features
	CashTicker string
	Quotes     pricing.QuoteProvider
	Delay      DelayStrategy
	Slippage   SlippageStrategy
	Logger     zerolog.Logger
	Workers    int
}

// NewTradingAccount creates a trading account with an empty portfolio.
func NewTradingAccount(cfg AccountConfig) *TradingAccount {
	delay := cfg.Delay
	if delay == nil {
		delay = DefaultDelay
	}
	slippage := cfg.Slippage
	if slippage == nil {
		slippage = DefaultSlippage
	}

	pool := performance.NewWorkerPool(cfg.Workers)
	pool.Start()

	a := &TradingAccount{
		features:  cfg.Features,
		portfolio: trading.NewPortfolio(cfg.CashTicker),
		quotes:    cfg.Quotes,
		delay:     delay,
		slippage:  slippage,
		logger:    cfg.Logger,
		pool:      pool,
		inflight:  make(map[*models.Order]*pendingOrder),
	}
	a.idle = sync.NewCond(&a.mu)
	return a
}

// Features returns the account's capability set.
func (a *TradingAccount) Features() Features {
	return a.features
}

// Portfolio returns the account's portfolio. Fills are reflected into it
// as they happen; readers see a consistent prefix of additions.
func (a *TradingAccount) Portfolio() *trading.Portfolio {
	return a.portfolio
}

// Deposit adds cash to the account's portfolio.
func (a *TradingAccount) Deposit(settlement time.Time, amount decimal.Decimal) error {
	return a.portfolio.Deposit(settlement, amount)
}

// Withdraw removes cash from the account's portfolio.
func (a *TradingAccount) Withdraw(settlement time.Time, amount decimal.Decimal) error {
	return a.portfolio.Withdraw(settlement, amount)
}

// Submit validates the order against the account's features and
// registers it for asynchronous processing. It returns once the order is
// accepted; the outcome arrives through the event subscribers.
func (a *TradingAccount) Submit(order *models.Order) error {
	if order == nil {
		return errors.ErrInvalidOrder
	}
	if !a.features.Supports(order.Type) {
		return errors.NewOrderError(order.ID, order.Ticker, "submit", "order type "+order.Type.String(), errors.ErrUnsupportedOrderType)
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return errors.ErrAccountClosed
	}
	if _, dup := a.inflight[order]; dup {
		a.mu.Unlock()
		return errors.NewOrderError(order.ID, order.Ticker, "submit", "order already submitted", errors.ErrInvalidOrder)
	}
	id := order.ID
	if id == "" {
		id = uuid.NewString()
	}
	st := &pendingOrder{id: id, order: order, cancel: make(chan struct{})}
	a.inflight[order] = st
	a.outstanding++
	a.mu.Unlock()

	a.logger.Debug().
		Str("order_id", st.id).
		Str("ticker", order.Ticker).
		Str("type", order.Type.String()).
		Str("shares", order.Shares.String()).
		Msg("Order submitted")

	// Non-blocking handoff: a full queue or a torn-down pool must not
	// stall the submitter, and the accepted order still has to reach a
	// terminal state.
	if !a.pool.TrySubmit(func() { a.process(st) }) {
		go a.process(st)
	}
	return nil
}

// TryCancelOrder requests cancellation of an in-flight order, matched by
// identity. Cancellation is best-effort: it is honored only if observed
// before the order's fill/expire decision. Unknown or already completed
// orders are a no-op.
func (a *TradingAccount) TryCancelOrder(order *models.Order) {
	a.mu.Lock()
	st, ok := a.inflight[order]
	a.mu.Unlock()
	if !ok {
		return
	}
	st.cancelOnce.Do(func() {
		st.cancelledAt = time.Now()
		close(st.cancel)
	})
}

// WaitAll blocks until every submitted order has reached a terminal
// state, including orders submitted while the wait is in progress. It
// returns immediately when nothing is outstanding and is safe to call
// concurrently with Submit and with other WaitAll calls.
func (a *TradingAccount) WaitAll() {
	a.mu.Lock()
	for a.outstanding > 0 {
		a.idle.Wait()
	}
	a.mu.Unlock()
}

// Close stops accepting orders, waits for outstanding ones to resolve
// and tears down the worker pool.
func (a *TradingAccount) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.WaitAll()
	a.pool.Stop()
}

// HaveAvailableFunds reports whether the portfolio's cash as of asOf
// covers the order at current prices, after applying the margin
// schedule's leverage for the ticker. Falls back to the order's own
// price when no quote provider is configured.
func (a *TradingAccount) HaveAvailableFunds(order *models.Order, asOf time.Time) (bool, error) {
	price := order.Price
	if a.quotes != nil {
		quoted, err := a.quotes.PriceAt(order.Ticker, asOf)
		if err != nil {
			return false, err
		}
		price = quoted
	}
	leverage := a.features.Margin().LeverageRequirement(order.Ticker)
	required := price.Mul(order.Shares).Div(decimal.NewFromFloat(leverage))
	return a.portfolio.GetAvailableCash(asOf).GreaterThanOrEqual(required), nil
}

// process runs on a pool worker and drives one order to its terminal
// state. The simulated delay is the only suspension and holds no lock on
// portfolio state.
func (a *TradingAccount) process(st *pendingOrder) {
	defer a.finish()
	defer a.forget(st)
	defer func() {
		if r := recover(); r != nil {
			a.resolveFaulted(st, fmt.Errorf("order processing panic: %v", r))
		}
	}()

	order := st.order
	start := time.Now()

	select {
	case <-st.cancel:
		a.resolveCancelled(st)
		return
	default:
	}

	timer := time.NewTimer(a.delay.Delay())
	defer timer.Stop()
	select {
	case <-st.cancel:
		a.resolveCancelled(st)
		return
	case <-timer.C:
	}

	// Last chance for a cancellation; past this point the fill/expire
	// decision is made and cancellations are ignored.
	select {
	case <-st.cancel:
		a.resolveCancelled(st)
		return
	default:
	}

	fillTime := order.Issued.Add(time.Since(start))
	if fillTime.After(order.Expiration) {
		if st.resolved.CompareAndSwap(false, true) {
			a.logger.Info().
				Str("order_id", st.id).
				Str("ticker", order.Ticker).
				Time("expiration", order.Expiration).
				Msg("Order expired")
			a.notifyExpired(ExpireEvent{Expiration: order.Expiration, OrderID: st.id, Order: order})
		}
		return
	}

	fillPrice := a.slippage.FillPrice(order.Price)
	commission := a.features.Commission().PriceCheck(order)
	tx, err := models.NewTransaction(fillTime, order.Type, order.Ticker, fillPrice, order.Shares, commission)
	if err == nil {
		err = a.portfolio.AddTransaction(tx)
	}
	if err != nil {
		a.resolveFaulted(st, errors.NewOrderError(st.id, order.Ticker, "fill", "recording fill", err))
		return
	}

	if st.resolved.CompareAndSwap(false, true) {
		a.logger.Info().
			Str("order_id", st.id).
			Str("ticker", order.Ticker).
			Str("type", order.Type.String()).
			Str("shares", order.Shares.String()).
			Str("price", fillPrice.String()).
			Msg("Order filled")
		a.notifyFilled(FillEvent{Timestamp: fillTime, OrderID: st.id, Order: order, Transaction: tx})
	}
}

func (a *TradingAccount) resolveCancelled(st *pendingOrder) {
	if st.resolved.CompareAndSwap(false, true) {
		a.logger.Info().
			Str("order_id", st.id).
			Str("ticker", st.order.Ticker).
			Msg("Order cancelled")
		a.notifyCancelled(CancelEvent{Timestamp: st.cancelledAt, OrderID: st.id, Order: st.order})
	}
}

func (a *TradingAccount) resolveFaulted(st *pendingOrder, err error) {
	if st.resolved.CompareAndSwap(false, true) {
		a.logger.Error().
			Err(err).
			Str("order_id", st.id).
			Str("ticker", st.order.Ticker).
			Msg("Order faulted")
		a.notifyFaulted(FaultEvent{Timestamp: time.Now(), OrderID: st.id, Order: st.order, Err: err})
	}
}

func (a *TradingAccount) forget(st *pendingOrder) {
	a.mu.Lock()
	delete(a.inflight, st.order)
	a.mu.Unlock()
}

// finish marks one accepted order terminal and wakes WaitAll callers
// when the account goes quiescent.
func (a *TradingAccount) finish() {
	a.mu.Lock()
	a.outstanding--
	if a.outstanding == 0 {
		a.idle.Broadcast()
	}
	a.mu.Unlock()
}
