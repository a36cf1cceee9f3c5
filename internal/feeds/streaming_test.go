package feeds

import "testing"

func TestStreamingApplyIncrementalMergesAndDeletes(t *testing.T) {
	cfg := StreamingConfig{Venue: "kraken", Symbol: "BTCUSDT", Incremental: true, Codec: krakenCodec{}}.withDefaults()
	a := &streamingAdapter{cfg: cfg, bidMap: map[float64]float64{}, askMap: map[float64]float64{}}

	nb := a.apply(depthUpdate{
		Bids: []rawLevel{{Price: 100, Qty: 1}, {Price: 99, Qty: 2}},
		Asks: []rawLevel{{Price: 101, Qty: 1}},
	})
	if nb == nil {
		t.Fatal("expected non-nil book after first update")
	}
	if len(nb.Bids) != 2 || len(nb.Asks) != 1 {
		t.Fatalf("unexpected levels: %+v", nb)
	}

	// delete the 99 level, add a new ask
	nb = a.apply(depthUpdate{
		Bids: []rawLevel{{Price: 99, Qty: 0}},
		Asks: []rawLevel{{Price: 102, Qty: 0.5}},
	})
	if nb == nil {
		t.Fatal("expected non-nil book after second update")
	}
	if len(nb.Bids) != 1 || nb.Bids[0].Price != 100 {
		t.Fatalf("expected only the 100 bid level to remain, got %+v", nb.Bids)
	}
	if len(nb.Asks) != 2 {
		t.Fatalf("expected both ask levels, got %+v", nb.Asks)
	}
}

func TestStreamingApplySnapshotReplacesWholeSide(t *testing.T) {
	cfg := StreamingConfig{Venue: "binance", Symbol: "BTCUSDT", Incremental: false, Codec: binanceCodec{}}.withDefaults()
	a := &streamingAdapter{cfg: cfg, bidMap: map[float64]float64{}, askMap: map[float64]float64{}}

	a.apply(depthUpdate{
		Bids: []rawLevel{{Price: 100, Qty: 1}},
		Asks: []rawLevel{{Price: 101, Qty: 1}},
	})
	nb := a.apply(depthUpdate{
		Bids: []rawLevel{{Price: 105, Qty: 2}},
		Asks: []rawLevel{{Price: 106, Qty: 2}},
	})
	if nb == nil {
		t.Fatal("expected non-nil book")
	}
	if len(nb.Bids) != 1 || nb.Bids[0].Price != 105 {
		t.Fatalf("expected snapshot replace, got %+v", nb.Bids)
	}
}

func TestStreamingApplyEmptySideYieldsNil(t *testing.T) {
	cfg := StreamingConfig{Venue: "binance", Symbol: "BTCUSDT", Incremental: false, Codec: binanceCodec{}}.withDefaults()
	a := &streamingAdapter{cfg: cfg, bidMap: map[float64]float64{}, askMap: map[float64]float64{}}

	nb := a.apply(depthUpdate{Bids: nil, Asks: []rawLevel{{Price: 101, Qty: 1}}})
	if nb != nil {
		t.Fatalf("expected nil book when one side is empty, got %+v", nb)
	}
}
