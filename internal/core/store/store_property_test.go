package store

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/morroisback/exchange-observer/internal/core/model"
)

func TestStore_UpdateGet_MonotonicTimestamp_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Get after a sequence of updates returns the latest value with a non-decreasing timestamp", prop.ForAll(
		func(bids []float64) bool {
			if len(bids) == 0 {
				return true
			}
			s := New()
			var lastTs time.Time
			for _, bid := range bids {
				s.Update(model.Quote{
					Venue:    model.Binance,
					Symbol:   "BTCUSDT",
					BidPrice: model.Ptr(bid),
					AskPrice: model.Ptr(bid + 1),
				})
				got, ok := s.Get(model.Binance, "BTCUSDT")
				if !ok {
					return false
				}
				if got.TimestampUTC.Before(lastTs) {
					return false
				}
				lastTs = got.TimestampUTC
				if *got.BidPrice != bid {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(1, 100000)),
	))

	properties.TestingRun(t)
}

func TestFindOpportunities_InvariantsHold_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("every emitted opportunity satisfies venue/age/profit invariants", prop.ForAll(
		func(buyAsk, spreadFrac float64, maxAgeSeconds int) bool {
			if buyAsk <= 0 {
				buyAsk = 1
			}
			if maxAgeSeconds < 1 {
				maxAgeSeconds = 1
			}
			sellBid := buyAsk * (1 + spreadFrac)

			s := New()
			s.set(model.Quote{
				Venue: model.Binance, Symbol: "BTCUSDT",
				BidPrice: model.Ptr(buyAsk - 0.01), AskPrice: model.Ptr(buyAsk),
				TimestampUTC: time.Now().UTC(),
			})
			s.set(model.Quote{
				Venue: model.Bybit, Symbol: "BTCUSDT",
				BidPrice: model.Ptr(sellBid), AskPrice: model.Ptr(sellBid + 0.01),
				TimestampUTC: time.Now().UTC(),
			})

			opps := s.FindOpportunities(0, maxAgeSeconds)
			for _, o := range opps {
				if o.BuyVenue == o.SellVenue {
					return false
				}
				if o.BuyAge > time.Duration(maxAgeSeconds)*time.Second {
					return false
				}
				if o.SellAge > time.Duration(maxAgeSeconds)*time.Second {
					return false
				}
				fraction := o.ProfitPercent / 100
				if fraction < 0 || fraction >= MaxAcceptableProfitPercent {
					return false
				}
			}
			return true
		},
		gen.Float64Range(1, 100000),
		gen.Float64Range(0, 1),
		gen.IntRange(1, 120),
	))

	properties.TestingRun(t)
}
