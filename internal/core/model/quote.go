package model

import "time"

// Symbol is an exchange-native trading pair identifier, e.g. "BTCUSDT".
// Normalization (underscore stripping) happens in the adapters before a
// Symbol ever reaches the store; the store treats it as an opaque string.
type Symbol string

// Quote is the normalized top-of-book record for one (venue, symbol).
// BidPrice/BidQty/AskPrice/AskQty are explicit optionals: a partial update
// (bid-only or ask-only frame) leaves the untouched side nil rather than
// coercing it to zero, since zero is a plausible, if degenerate, price.
type Quote struct {
	Venue    Venue
	Symbol   Symbol
	BidPrice *float64
	BidQty   *float64
	AskPrice *float64
	AskQty   *float64

	// TimestampUTC is set by the store at acceptance time, not by the venue's
	// own event time; it only ever moves forward for a given key.
	TimestampUTC time.Time
}

// HasBothSides reports whether the quote carries both a bid and an ask
// price, the minimum a scanner needs to treat it as one leg of a pair.
func (q Quote) HasBothSides() bool {
	return q.BidPrice != nil && q.AskPrice != nil
}

// Age returns how long ago the quote was accepted by the store, as of now.
func (q Quote) Age(now time.Time) time.Duration {
	return now.Sub(q.TimestampUTC)
}

// Ptr is a small convenience for building *float64 literals in adapters
// and tests without a local variable at every call site.
func Ptr(f float64) *float64 {
	return &f
}
