package broker

import (
	"time"

	"papertrade/internal/models"
)

// FillEvent is raised when an order fills. Timestamp is the simulated
// fill time and Transaction the resulting share transaction, already
// reflected in the account's portfolio. OrderID is the account's
// identifier for the submission; the order itself is never modified.
type FillEvent struct {
	Timestamp   time.Time
	OrderID     string
	Order       *models.Order
	Transaction models.Transaction
}

// ExpireEvent is raised when an order's expiration passes before it can
// fill. Expiration equals the order's own expiration.
type ExpireEvent struct {
	Expiration time.Time
	OrderID    string
	Order      *models.Order
}

// CancelEvent is raised when a cancellation request is honored.
// Timestamp is when the cancellation was requested.
type CancelEvent struct {
	Timestamp time.Time
	OrderID   string
	Order     *models.Order
}

// FaultEvent is raised when order processing hits an unexpected fault.
// A faulted order is terminal; it will not fill, expire or cancel.
type FaultEvent struct {
	Timestamp time.Time
	OrderID   string
	Order     *models.Order
	Err       error
}

// observers holds the per-account subscriber lists. Every subscriber
// registered at the time an order resolves is invoked exactly once for
// that order's terminal event, synchronously on the resolving worker.
type observers struct {
	filled    []func(FillEvent)
	expired   []func(ExpireEvent)
	cancelled []func(CancelEvent)
	faulted   []func(FaultEvent)
}

// OnFilled registers a subscriber for fill events.
func (a *TradingAccount) OnFilled(fn func(FillEvent)) {
	a.obsMu.Lock()
	defer a.obsMu.Unlock()
	a.obs.filled = append(a.obs.filled, fn)
}

// OnExpired registers a subscriber for expiration events.
func (a *TradingAccount) OnExpired(fn func(ExpireEvent)) {
	a.obsMu.Lock()
	defer a.obsMu.Unlock()
	a.obs.expired = append(a.obs.expired, fn)
}

// OnCancelled registers a subscriber for cancellation events.
func (a *TradingAccount) OnCancelled(fn func(CancelEvent)) {
	a.obsMu.Lock()
	defer a.obsMu.Unlock()
	a.obs.cancelled = append(a.obs.cancelled, fn)
}

// OnFaulted registers a subscriber for engine fault events.
func (a *TradingAccount) OnFaulted(fn func(FaultEvent)) {
	a.obsMu.Lock()
	defer a.obsMu.Unlock()
	a.obs.faulted = append(a.obs.faulted, fn)
}

func (a *TradingAccount) notifyFilled(ev FillEvent) {
	a.obsMu.RLock()
	subs := make([]func(FillEvent), len(a.obs.filled))
	copy(subs, a.obs.filled)
	a.obsMu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (a *TradingAccount) notifyExpired(ev ExpireEvent) {
	a.obsMu.RLock()
	subs := make([]func(ExpireEvent), len(a.obs.expired))
	copy(subs, a.obs.expired)
	a.obsMu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (a *TradingAccount) notifyCancelled(ev CancelEvent) {
	a.obsMu.RLock()
	subs := make([]func(CancelEvent), len(a.obs.cancelled))
	copy(subs, a.obs.cancelled)
	a.obsMu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (a *TradingAccount) notifyFaulted(ev FaultEvent) {
	a.obsMu.RLock()
	subs := make([]func(FaultEvent), len(a.obs.faulted))
	copy(subs, a.obs.faulted)
	a.obsMu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}
