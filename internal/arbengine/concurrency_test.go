package arbengine

import (
	"sync"
	"testing"

	"github.com/arbrun/simulator/internal/arbmodel"
)

// TestConcurrentOnOrderBook exercises N feeds each emitting M books
// concurrently; the single mutex must serialize every call so the
// engine never observes a torn book (spec.md §5/§8).
func TestConcurrentOnOrderBook(t *testing.T) {
	const venues = 4
	const updatesPerVenue = 200

	venueNames := []string{"A", "B", "C", "D"}
	e := NewEngine(baseConfig(), venueNames, nil, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < venues; i++ {
		venue := venueNames[i]
		wg.Add(1)
		go func(v string) {
			defer wg.Done()
			for j := 0; j < updatesPerVenue; j++ {
				e.OnOrderBook(book(v, "BTCUSDT",
					[]arbmodel.OrderBookLevel{lvl(100, 10)},
					[]arbmodel.OrderBookLevel{lvl(101, 10)},
				))
			}
		}(venue)
	}
	wg.Wait()

	snap := e.Snapshot()
	if len(snap.Wallets) != venues {
		t.Fatalf("expected %d wallets, got %d", venues, len(snap.Wallets))
	}
}
