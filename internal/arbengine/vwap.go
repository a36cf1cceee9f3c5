package arbengine

import "github.com/arbrun/simulator/internal/arbmodel"

// vwapResult carries the volume-weighted price and the quantity
// actually filled, which can fall short of the requested size when
// depth runs out (spec.md §4.2 step 2).
type vwapResult struct {
	VWAP   float64
	Filled float64
}

// walkVWAP consumes levels in the order given (ascending asks for a
// buy, descending bids for a sell — callers pass already-sorted
// slices) up to size units and returns the volume-weighted average
// price over the filled quantity.
func walkVWAP(levels []arbmodel.OrderBookLevel, size float64) vwapResult {
	remaining := size
	var notional, filled float64
	for _, lv := range levels {
		if remaining <= 0 {
			break
		}
		take := lv.Qty
		if take > remaining {
			take = remaining
		}
		notional += take * lv.Price
		filled += take
		remaining -= take
	}
	if filled == 0 {
		return vwapResult{}
	}
	return vwapResult{VWAP: notional / filled, Filled: filled}
}

// reserveDepth mutates levels in place to consume qty units from the
// front, used by the simulator after an accepted evaluation to reflect
// the depth the simulated trade just took.
func reserveDepth(levels []arbmodel.OrderBookLevel, qty float64) []arbmodel.OrderBookLevel {
	remaining := qty
	i := 0
	for i < len(levels) && remaining > 0 {
		if levels[i].Qty > remaining {
			levels[i].Qty -= remaining
			remaining = 0
			break
		}
		remaining -= levels[i].Qty
		levels[i].Qty = 0
		i++
	}
	return arbmodel.DropZeroQty(levels)
}
