// Package store implements the concurrency-safe (venue,symbol) -> Quote
// table and the cross-venue opportunity scan.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/morroisback/exchange-observer/internal/core/model"
)

// MaxAcceptableProfitPercent rejects absurd spreads usually explained by a
// stale or one-sided book; expressed as a fraction (0.5 = 50%).
const MaxAcceptableProfitPercent = 0.5

type storeKey struct {
	venue  model.Venue
	symbol model.Symbol
}

// Store is the single shared mutable resource of the observer: readers
// (the scanner) and writers (venue clients, via DataManager) run
// concurrently behind one RWMutex.
type Store struct {
	mu     sync.RWMutex
	quotes map[storeKey]model.Quote
}

func New() *Store {
	return &Store{quotes: make(map[storeKey]model.Quote)}
}

// Update upserts a quote by (venue, symbol), stamping it with the store's
// own clock. It never fails and is O(1) amortized.
func (s *Store) Update(q model.Quote) {
	q.TimestampUTC = time.Now().UTC()
	key := storeKey{venue: q.Venue, symbol: q.Symbol}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[key] = q
}

// Get returns the latest quote for (venue, symbol), or false if none has
// ever been stored.
func (s *Store) Get(venue model.Venue, symbol model.Symbol) (model.Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[storeKey{venue: venue, symbol: symbol}]
	return q, ok
}

// snapshot copies every stored quote out from under the read lock so the
// scan itself never blocks writers.
func (s *Store) snapshot() []model.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Quote, 0, len(s.quotes))
	for _, q := range s.quotes {
		out = append(out, q)
	}
	return out
}

// FindOpportunities implements the opportunity-finding algorithm: snapshot,
// freshness filter, group by symbol, enumerate ordered venue pairs, filter
// by the fractional profit thresholds, and scale to percent only in the
// output.
//
// minProfitPercent is a fraction (0.001 = 0.1%), not a percent value; the
// caller is responsible for dividing a user-facing percent input by 100
// before calling this.
func (s *Store) FindOpportunities(minProfitPercent float64, maxDataAgeSeconds int) []model.Opportunity {
	now := time.Now().UTC()
	maxAge := time.Duration(maxDataAgeSeconds) * time.Second

	bySymbol := make(map[model.Symbol][]model.Quote)
	for _, q := range s.snapshot() {
		if now.Sub(q.TimestampUTC) > maxAge {
			continue
		}
		if !q.HasBothSides() {
			continue
		}
		bySymbol[q.Symbol] = append(bySymbol[q.Symbol], q)
	}

	var out []model.Opportunity
	for symbol, quotes := range bySymbol {
		if len(quotes) < 2 {
			continue
		}
		for _, buy := range quotes {
			for _, sell := range quotes {
				if buy.Venue == sell.Venue {
					continue
				}
				profit := (*sell.BidPrice - *buy.AskPrice) / *buy.AskPrice
				if profit < minProfitPercent || profit >= MaxAcceptableProfitPercent {
					continue
				}
				out = append(out, model.Opportunity{
					Symbol:        symbol,
					BuyVenue:      buy.Venue,
					BuyPrice:      *buy.AskPrice,
					SellVenue:     sell.Venue,
					SellPrice:     *sell.BidPrice,
					ProfitPercent: profit * 100,
					BuyTimestamp:  buy.TimestampUTC,
					SellTimestamp: sell.TimestampUTC,
					BuyAge:        now.Sub(buy.TimestampUTC),
					SellAge:       now.Sub(sell.TimestampUTC),
				})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		if out[i].BuyVenue != out[j].BuyVenue {
			return out[i].BuyVenue < out[j].BuyVenue
		}
		return out[i].SellVenue < out[j].SellVenue
	})
	return out
}
