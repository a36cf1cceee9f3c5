package feeds

import (
	"encoding/json"
)

// bybitCodec decodes Bybit v5 orderbook topic messages: "snapshot"
// type messages replace the book, "delta" messages apply incremental
// price/size pairs where size "0" deletes a level.
type bybitCodec struct{}

type bybitOrderbookMsg struct {
	Topic string `json:"topic"`
	Type  string `json:"type"`
	Ts    int64  `json:"ts"`
	Data  struct {
		Bids [][2]string `json:"b"`
		Asks [][2]string `json:"a"`
	} `json:"data"`
}

func (bybitCodec) Decode(raw []byte) (depthUpdate, error) {
	var msg bybitOrderbookMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return depthUpdate{}, err
	}
	if msg.Topic == "" {
		return depthUpdate{Heartbeat: true}, nil
	}
	return depthUpdate{
		Bids:      parsePairs(msg.Data.Bids),
		Asks:      parsePairs(msg.Data.Asks),
		EventTime: msToTime(msg.Ts),
	}, nil
}

// NewBybitAdapter builds a Bybit v5 streaming depth adapter. t
// carries the operator's per-venue tuning.
func NewBybitAdapter(symbol string, endpoints []string, t AdapterTuning) Adapter {
	return NewStreamingAdapter(StreamingConfig{
		Venue:               "bybit",
		Symbol:              symbol,
		Endpoints:           endpoints,
		Incremental:         true,
		Codec:               bybitCodec{},
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
