package feeds

import "testing"

func TestBinanceCodecDecode(t *testing.T) {
	raw := []byte(`{"bids":[["100.5","1.2"],["100.4","2.0"]],"asks":[["100.6","0.5"]]}`)
	update, err := binanceCodec{}.Decode(raw)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(update.Bids) != 2 || len(update.Asks) != 1 {
		t.Fatalf("unexpected level counts: %+v", update)
	}
	if update.Bids[0].Price != 100.5 || update.Bids[0].Qty != 1.2 {
		t.Fatalf("unexpected bid[0]: %+v", update.Bids[0])
	}
}

func TestBinanceCodecHeartbeat(t *testing.T) {
	update, err := binanceCodec{}.Decode([]byte(`{"bids":[],"asks":[]}`))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if !update.Heartbeat {
		t.Fatal("expected heartbeat for empty book message")
	}
}

func TestKrakenCodecDecode(t *testing.T) {
	raw := []byte(`{"channel":"book","type":"update","data":[{"symbol":"BTC/USDT","bids":[{"price":100.1,"qty":1.5}],"asks":[{"price":100.2,"qty":0}],"timestamp":"2026-07-29T12:00:00.000000000Z"}]}`)
	update, err := krakenCodec{}.Decode(raw)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(update.Bids) != 1 || len(update.Asks) != 1 {
		t.Fatalf("unexpected level counts: %+v", update)
	}
	if update.Asks[0].Qty != 0 {
		t.Fatalf("expected zero-qty deletion entry preserved, got %+v", update.Asks[0])
	}
	if update.EventTime.IsZero() {
		t.Fatal("expected parsed event time")
	}
}

func TestKrakenCodecNonBookChannelIsHeartbeat(t *testing.T) {
	update, err := krakenCodec{}.Decode([]byte(`{"channel":"heartbeat"}`))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if !update.Heartbeat {
		t.Fatal("expected heartbeat for non-book channel message")
	}
}

func TestBybitCodecDecode(t *testing.T) {
	raw := []byte(`{"topic":"orderbook.50.BTCUSDT","type":"snapshot","ts":1700000000000,"data":{"b":[["100.0","3.0"]],"a":[["100.3","1.0"]]}}`)
	update, err := bybitCodec{}.Decode(raw)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(update.Bids) != 1 || len(update.Asks) != 1 {
		t.Fatalf("unexpected level counts: %+v", update)
	}
	if update.EventTime.IsZero() {
		t.Fatal("expected event time derived from ts")
	}
}

func TestBybitCodecEmptyTopicIsHeartbeat(t *testing.T) {
	update, err := bybitCodec{}.Decode([]byte(`{}`))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if !update.Heartbeat {
		t.Fatal("expected heartbeat for message with no topic")
	}
}

func TestMsToTimeZeroForNonPositive(t *testing.T) {
	if !msToTime(0).IsZero() {
		t.Fatal("expected zero time for ms=0")
	}
	if !msToTime(-5).IsZero() {
		t.Fatal("expected zero time for negative ms")
	}
	if msToTime(1700000000000).IsZero() {
		t.Fatal("expected non-zero time for positive ms")
	}
}
