// Package arbmodel holds the venue-agnostic order-book and symbol
// representation shared by the feed adapters and the arbitrage engine.
package arbmodel

import "time"

// OrderBookLevel is one price/quantity rung of a book side.
type OrderBookLevel struct {
	Price float64
	Qty   float64
}

// NormalizedOrderBook is the common shape every feed adapter emits.
// Bids are sorted descending by price, asks ascending; neither side
// retains a zero-quantity level.
type NormalizedOrderBook struct {
	Venue  string
	Symbol string
	Bids   []OrderBookLevel
	Asks   []OrderBookLevel

	// ExchangeTimestamp is the venue-reported event time when the feed
	// carries one, otherwise the local receive time.
	ExchangeTimestamp time.Time
	// ReceivedTimestamp is always the local clock at normalization.
	ReceivedTimestamp time.Time
}

// BestBid returns the top bid and whether one exists.
func (b *NormalizedOrderBook) BestBid() (OrderBookLevel, bool) {
	if len(b.Bids) == 0 {
		return OrderBookLevel{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the top ask and whether one exists.
func (b *NormalizedOrderBook) BestAsk() (OrderBookLevel, bool) {
	if len(b.Asks) == 0 {
		return OrderBookLevel{}, false
	}
	return b.Asks[0], true
}

// Valid reports whether the book satisfies the cross-free invariant:
// best bid strictly below best ask whenever both sides are present.
func (b *NormalizedOrderBook) Valid() bool {
	bid, hasBid := b.BestBid()
	ask, hasAsk := b.BestAsk()
	if hasBid && hasAsk && bid.Price >= ask.Price {
		return false
	}
	return true
}

// TruncateDepth trims both sides to at most n levels, applied by
// streaming adapters before emission (spec: 20 levels per side).
func (b *NormalizedOrderBook) TruncateDepth(n int) {
	if n <= 0 {
		return
	}
	if len(b.Bids) > n {
		b.Bids = b.Bids[:n]
	}
	if len(b.Asks) > n {
		b.Asks = b.Asks[:n]
	}
}

// NonEmpty reports whether both sides carry at least one level, the
// gate streaming adapters apply before invoking the engine callback.
func (b *NormalizedOrderBook) NonEmpty() bool {
	return len(b.Bids) > 0 && len(b.Asks) > 0
}

// DropZeroQty filters zero/negative-quantity levels from one book side,
// used by the engine after reserving depth on a simulated execution.
func DropZeroQty(levels []OrderBookLevel) []OrderBookLevel {
	out := levels[:0]
	for _, lv := range levels {
		if lv.Qty > 0 {
			out = append(out, lv)
		}
	}
	return out
}
