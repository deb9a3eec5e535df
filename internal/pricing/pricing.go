// Package pricing supplies current-price lookups to the accounting and
// order-engine layers. Price history lives outside the core; this
// package defines the lookup capability and an in-memory series
// implementation fed from CSV price history.
package pricing

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/errors"
)

// QuoteProvider answers "what did this ticker trade at on this date".
type QuoteProvider interface {
	PriceAt(ticker string, at time.Time) (decimal.Decimal, error)
}

type pricePoint struct {
	at    time.Time
	price decimal.Decimal
}

// Series is an in-memory QuoteProvider over per-ticker price histories.
// PriceAt returns the most recent price on or before the requested date.
type Series struct {
	mu     sync.RWMutex
	points map[string][]pricePoint
}

// NewSeries creates an empty price series.
func NewSeries() *Series {
	return &Series{points: make(map[string][]pricePoint)}
}

// Add records a price for a ticker at a point in time.
func (s *Series) Add(ticker string, at time.Time, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pts := append(s.points[ticker], pricePoint{at: at, price: price})
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].at.Before(pts[j].at) })
	s.points[ticker] = pts
}

// PriceAt returns the most recent price for ticker on or before at.
func (s *Series) PriceAt(ticker string, at time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pts := s.points[ticker]
	idx := sort.Search(len(pts), func(i int) bool { return pts[i].at.After(at) })
	if idx == 0 {
		return decimal.Zero, errors.Wrapf(errors.ErrPriceNotFound, "%s at %s", ticker, at.Format("2006-01-02"))
	}
	return pts[idx-1].price, nil
}

// Tickers returns the tickers with at least one recorded price, sorted.
func (s *Series) Tickers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.points))
	for ticker := range s.points {
		out = append(out, ticker)
	}
	sort.Strings(out)
	return out
}

// FixedPrice is a QuoteProvider that returns the same price for every
// ticker and date. Useful in tests and scripted sessions.
type FixedPrice struct {
	Price decimal.Decimal
}

// PriceAt returns the fixed price.
func (f FixedPrice) PriceAt(string, time.Time) (decimal.Decimal, error) {
	return f.Price, nil
}
