package model

import "time"

// Opportunity is a cross-venue arbitrage candidate: buying at BuyVenue's ask
// and selling at SellVenue's bid nets ProfitPercent, computed under a
// freshness bound on both legs.
type Opportunity struct {
	Symbol    Symbol
	BuyVenue  Venue
	BuyPrice  float64
	SellVenue Venue
	SellPrice float64

	// ProfitPercent is scaled to percent ((sell-buy)/buy * 100); the
	// threshold comparison that produced this opportunity was done on the
	// fractional form before scaling.
	ProfitPercent float64

	BuyTimestamp  time.Time
	SellTimestamp time.Time
	BuyAge        time.Duration
	SellAge       time.Duration
}
