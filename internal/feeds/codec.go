package feeds

import "time"

// depthUpdate is one parsed websocket message: either a full
// snapshot-replace (Binance-shaped feeds) or an incremental diff
// (Kraken/Bybit-shaped feeds) depending on the venue's Incremental
// flag. Qty == 0 in an incremental update deletes that price level.
type depthUpdate struct {
	Bids      []rawLevel
	Asks      []rawLevel
	EventTime time.Time // zero when the venue doesn't carry one
	Heartbeat bool      // true for messages that carry no book data
}

type rawLevel struct {
	Price, Qty float64
}

// depthCodec decodes one venue's wire format into a depthUpdate.
type depthCodec interface {
	Decode(raw []byte) (depthUpdate, error)
}

// msToTime converts a venue's epoch-millisecond timestamp field to
// time.Time, returning the zero value for ms <= 0 so callers fall
// back to local receive time.
func msToTime(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
