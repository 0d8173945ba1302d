// Package output defines the JSONL audit-log record shapes the application
// composer writes through internal/output/jsonl's async writer.
package output

import (
	"time"

	"github.com/morroisback/exchange-observer/internal/core/model"
)

// OpportunityRecord is one arbitrage opportunity, as written to the audit
// log by the scanner's callback.
type OpportunityRecord struct {
	Type          string    `json:"type"`
	Symbol        string    `json:"symbol"`
	BuyVenue      string    `json:"buy_venue"`
	BuyPrice      float64   `json:"buy_price"`
	SellVenue     string    `json:"sell_venue"`
	SellPrice     float64   `json:"sell_price"`
	ProfitPercent float64   `json:"profit_percent"`
	ObservedAt    time.Time `json:"observed_at"`
}

// NewOpportunityRecord converts a model.Opportunity into its audit-log
// form, stamping the record with the time it was written rather than
// either leg's own timestamp.
func NewOpportunityRecord(o model.Opportunity, observedAt time.Time) OpportunityRecord {
	return OpportunityRecord{
		Type:          "opportunity",
		Symbol:        string(o.Symbol),
		BuyVenue:      string(o.BuyVenue),
		BuyPrice:      o.BuyPrice,
		SellVenue:     string(o.SellVenue),
		SellPrice:     o.SellPrice,
		ProfitPercent: o.ProfitPercent,
		ObservedAt:    observedAt,
	}
}

// StatusRecord logs a venue connection lifecycle event (connected,
// disconnected, error) to the audit log.
type StatusRecord struct {
	Type       string    `json:"type"`
	Venue      string    `json:"venue"`
	Status     string    `json:"status"`
	Detail     string    `json:"detail,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

func NewStatusRecord(venue model.Venue, status, detail string, observedAt time.Time) StatusRecord {
	return StatusRecord{
		Type:       "status",
		Venue:      string(venue),
		Status:     status,
		Detail:     detail,
		ObservedAt: observedAt,
	}
}
