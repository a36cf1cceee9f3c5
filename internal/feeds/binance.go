package feeds

import (
	"encoding/json"
	"strconv"
)

// binanceCodec decodes Binance's partial-book-depth stream
// (depth20@100ms-shaped messages: top-N snapshot per message, no
// sequence-numbered diffs), grounded on exchanges/binance/book.go's
// raw "b"/"a" string-pair field layout.
type binanceCodec struct{}

type binanceDepthMsg struct {
	Bids [][2]string `json:"bids"`
	Asks [][2]string `json:"asks"`
}

func (binanceCodec) Decode(raw []byte) (depthUpdate, error) {
	var msg binanceDepthMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return depthUpdate{}, err
	}
	if len(msg.Bids) == 0 && len(msg.Asks) == 0 {
		return depthUpdate{Heartbeat: true}, nil
	}
	return depthUpdate{
		Bids: parsePairs(msg.Bids),
		Asks: parsePairs(msg.Asks),
	}, nil
}

func parsePairs(pairs [][2]string) []rawLevel {
	out := make([]rawLevel, 0, len(pairs))
	for _, p := range pairs {
		price, err1 := strconv.ParseFloat(p[0], 64)
		qty, err2 := strconv.ParseFloat(p[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, rawLevel{Price: price, Qty: qty})
	}
	return out
}

// NewBinanceAdapter builds a Binance-shaped streaming depth adapter.
// endpoints are the depth stream URLs to rotate through on reconnect;
// t carries the operator's per-venue tuning.
func NewBinanceAdapter(symbol string, endpoints []string, t AdapterTuning) Adapter {
	return NewStreamingAdapter(StreamingConfig{
		Venue:               "binance",
		Symbol:              symbol,
		Endpoints:           endpoints,
		Incremental:         false,
		Codec:               binanceCodec{},
		DepthLevels:         t.DepthLevels,
		PingInterval:        t.PingInterval,
		StalenessBudget:     t.StalenessBudget,
		BackoffFloor:        t.BackoffFloor,
		BackoffCeiling:      t.BackoffCeiling,
		BackoffFactor:       t.BackoffFactor,
		CircuitMaxFailures:  t.CircuitMaxFailures,
		CircuitOpenDuration: t.CircuitOpenDuration,
	})
}
