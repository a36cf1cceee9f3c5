package feeds

import (
	"encoding/json"
	"time"
)

// krakenCodec decodes Kraken v2 book channel diffs: a "book" channel
// message carrying incremental bid/ask entries where a quantity of
// zero deletes that level, grounded on
// internal/providers/kraken/websocket.go's channel/subscription shape.
type krakenCodec struct{}

type krakenBookMsg struct {
	Channel string `json:"channel"`
	Type    string `json:"type"`
	Data    []struct {
		Symbol    string          `json:"symbol"`
		Bids      []krakenLevel   `json:"bids"`
		Asks      []krakenLevel   `json:"asks"`
		Timestamp string          `json:"timestamp"`
	} `json:"data"`
}

type krakenLevel struct {
	Price float64 `json:"price"`
	Qty   float64 `json:"qty"`
}

func (krakenCodec) Decode(raw []byte) (depthUpdate, error) {
	var msg krakenBookMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return depthUpdate{}, err
	}
	if msg.Channel != "book" || len(msg.Data) == 0 {
		return depthUpdate{Heartbeat: true}, nil
	}

	d := msg.Data[0]
	out := depthUpdate{
		Bids: make([]rawLevel, 0, len(d.Bids)),
		Asks: make([]rawLevel, 0, len(d.Asks)),
	}
	for _, b := range d.Bids {
		out.Bids = append(out.Bids, rawLevel{Price: b.Price, Qty: b.Qty})
	}
	for _, a := range d.Asks {
		out.Asks = append(out.Asks, rawLevel{Price: a.Price, Qty: a.Qty})
	}
	if ts, err := time.Parse(time.RFC3339Nano, d.Timestamp); err == nil {
		out.EventTime = ts
	}
	return out, nil
}

// NewKrakenAdapter builds a Kraken v2 streaming depth adapter. t
// carries the operator's per-venue tuning.
func NewKrakenAdapter(symbol string, endpoints []string, t AdapterTuning) Adapter {
	return NewStreamingAdapter(StreamingConfig{
		Venue:               "kraken",
		Symbol:              symbol,
		Endpoints:           endpoints,
		Incremental:         true,
		Codec:               krakenCodec{},
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
