// Package stream distributes order lifecycle events to multiple
// consumers. The trading account notifies its direct observers
// synchronously; the hub sits on top of that as a fan-out layer so
// display and reporting code can consume events over channels without
// slowing down the order engine.
package stream

import (
	"sync"
	"time"

	"papertrade/internal/broker"
	"papertrade/internal/models"
)

// EventKind identifies an order's terminal outcome.
type EventKind string

const (
	EventFilled    EventKind = "FILLED"
	EventExpired   EventKind = "EXPIRED"
	EventCancelled EventKind = "CANCELLED"
	EventFaulted   EventKind = "FAULTED"
)

// OrderEvent is a terminal order outcome as seen by hub subscribers.
type OrderEvent struct {
	Kind        EventKind
	Timestamp   time.Time
	Order       *models.Order
	Transaction models.Transaction // set for fills only
	Err         error              // set for faults only
}

// HubConfig holds configuration for the event hub.
type HubConfig struct {
	// BufferSize is the size of the internal event channel buffer.
	BufferSize int
	// SubscriberBufferSize is the size of each subscriber's channel buffer.
	SubscriberBufferSize int
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		BufferSize:           1000,
		SubscriberBufferSize: 100,
	}
}

// Hub fans order events out to per-ticker channel subscribers. Slow
// consumers never block the order engine: sends to full subscriber
// channels are dropped and counted.
type Hub struct {
	config      HubConfig
	mu          sync.RWMutex
	subscribers map[string][]*Subscriber
	eventChan   chan OrderEvent
	done        chan struct{}
	started     bool

	metricsMu       sync.Mutex
	eventsReceived  uint64
	eventsBroadcast uint64
	eventsDropped   uint64
}

// Subscriber represents a channel subscriber with metadata.
type Subscriber struct {
	ID           string
	Channel      chan OrderEvent
	DroppedCount int
	CreatedAt    time.Time
}

// NewHub creates a new event hub with default configuration.
func NewHub() *Hub {
	return NewHubWithConfig(DefaultHubConfig())
}

// NewHubWithConfig creates a new event hub with custom configuration.
func NewHubWithConfig(config HubConfig) *Hub {
	return &Hub{
		config:      config,
		subscribers: make(map[string][]*Subscriber),
		eventChan:   make(chan OrderEvent, config.BufferSize),
		done:        make(chan struct{}),
	}
}

// Attach registers the hub as an observer on a trading account so every
// terminal order event is published to the hub's subscribers.
func (h *Hub) Attach(account *broker.TradingAccount) {
	account.OnFilled(func(ev broker.FillEvent) {
		h.Publish(OrderEvent{Kind: EventFilled, Timestamp: ev.Timestamp, Order: ev.Order, Transaction: ev.Transaction})
	})
	account.OnExpired(func(ev broker.ExpireEvent) {
		h.Publish(OrderEvent{Kind: EventExpired, Timestamp: ev.Expiration, Order: ev.Order})
	})
	account.OnCancelled(func(ev broker.CancelEvent) {
		h.Publish(OrderEvent{Kind: EventCancelled, Timestamp: ev.Timestamp, Order: ev.Order})
	})
	account.OnFaulted(func(ev broker.FaultEvent) {
		h.Publish(OrderEvent{Kind: EventFaulted, Timestamp: ev.Timestamp, Order: ev.Order, Err: ev.Err})
	})
}

// Start begins the hub's distribution loop.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()

	go h.broadcastLoop()
}

// broadcastLoop is the main loop that distributes events to subscribers.
func (h *Hub) broadcastLoop() {
	for {
		select {
		case <-h.done:
			return
		case ev := <-h.eventChan:
			h.metricsMu.Lock()
			h.eventsReceived++
			h.metricsMu.Unlock()

			h.broadcast(ev)
		}
	}
}

// Stop stops the hub and closes all subscriber channels.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return
	}

	close(h.done)
	h.started = false

	for ticker, subs := range h.subscribers {
		for _, sub := range subs {
			close(sub.Channel)
		}
		delete(h.subscribers, ticker)
	}
}

// Subscribe adds a subscriber for a ticker and returns a channel to
// receive that ticker's order events. An empty ticker subscribes to
// events for all tickers.
func (h *Hub) Subscribe(ticker string) <-chan OrderEvent {
	return h.SubscribeWithID(ticker, "")
}

// SubscribeWithID adds a subscriber with a specific ID for a ticker.
func (h *Hub) SubscribeWithID(ticker, id string) <-chan OrderEvent {
	ch := make(chan OrderEvent, h.config.SubscriberBufferSize)
	sub := &Subscriber{
		ID:        id,
		Channel:   ch,
		CreatedAt: time.Now(),
	}

	h.mu.Lock()
	h.subscribers[ticker] = append(h.subscribers[ticker], sub)
	h.mu.Unlock()

	return ch
}

// Unsubscribe removes a subscriber channel for a ticker.
func (h *Hub) Unsubscribe(ticker string, ch <-chan OrderEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[ticker]
	for i, sub := range subs {
		if sub.Channel == ch {
			close(sub.Channel)
			h.subscribers[ticker] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(h.subscribers[ticker]) == 0 {
		delete(h.subscribers, ticker)
	}
}

// Publish sends an event to the hub for distribution. Non-blocking: if
// the internal buffer is full, the event is dropped and counted.
func (h *Hub) Publish(ev OrderEvent) {
	select {
	case h.eventChan <- ev:
	default:
		h.metricsMu.Lock()
		h.eventsDropped++
		h.metricsMu.Unlock()
	}
}

// broadcast sends an event to its ticker's subscribers and to the
// all-tickers subscribers. Non-blocking sends keep slow consumers from
// blocking others.
func (h *Hub) broadcast(ev OrderEvent) {
	h.mu.RLock()
	subs := make([]*Subscriber, 0, len(h.subscribers[ev.Order.Ticker])+len(h.subscribers[""]))
	subs = append(subs, h.subscribers[ev.Order.Ticker]...)
	subs = append(subs, h.subscribers[""]...)
	h.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.Channel <- ev:
			h.metricsMu.Lock()
			h.eventsBroadcast++
			h.metricsMu.Unlock()
		default:
			sub.DroppedCount++
			h.metricsMu.Lock()
			h.eventsDropped++
			h.metricsMu.Unlock()
		}
	}
}

// Stats returns hub counters.
func (h *Hub) Stats() (received, broadcastCount, dropped uint64) {
	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()
	return h.eventsReceived, h.eventsBroadcast, h.eventsDropped
}

// GetSubscriberCount returns the number of subscribers for a ticker.
func (h *Hub) GetSubscriberCount(ticker string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[ticker])
}
