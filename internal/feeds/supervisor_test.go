package feeds

import (
	"context"
	"sync"
	"testing"

	"github.com/arbrun/simulator/internal/arbmodel"
)

type recordingSink struct {
	mu     sync.Mutex
	venues map[string]int
}

func newRecordingSink() *recordingSink {
	return &recordingSink{venues: make(map[string]int)}
}

func (s *recordingSink) OnOrderBook(book *arbmodel.NormalizedOrderBook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.venues[book.Venue]++
}

func (s *recordingSink) counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.venues))
	for k, v := range s.venues {
		out[k] = v
	}
	return out
}

func simFactory(venue string) Factory {
	seed := int64(0)
	for _, r := range venue {
		seed += int64(r)
	}
	return func(symbol string) Adapter {
		return NewSimulatedAdapter(SimulatedConfig{Venue: venue, Symbol: symbol, Seed: seed})
	}
}

func TestSupervisorStartsAndStopsVenue(t *testing.T) {
	sink := newRecordingSink()
	sup := NewSupervisor(sink, "BTCUSDT")
	ctx := context.Background()

	sup.AddVenue(ctx, "alpha", simFactory("alpha"))
	waitFor(t, func() bool { return sink.counts()["alpha"] > 0 })

	sup.SetExchangeEnabled(ctx, "alpha", false)
	if venues := sup.ActiveVenues(); len(venues) != 0 {
		t.Fatalf("expected no active venues after disable, got %v", venues)
	}
}

func TestSupervisorAddVenueIsIdempotentUnderReenable(t *testing.T) {
	sink := newRecordingSink()
	sup := NewSupervisor(sink, "BTCUSDT")
	ctx := context.Background()

	sup.AddVenue(ctx, "beta", simFactory("beta"))
	waitFor(t, func() bool { return sink.counts()["beta"] > 0 })

	sup.SetExchangeEnabled(ctx, "beta", true) // already running: no-op
	if venues := sup.ActiveVenues(); len(venues) != 1 {
		t.Fatalf("expected exactly one active venue, got %v", venues)
	}

	sup.SetExchangeEnabled(ctx, "beta", false)
	if venues := sup.ActiveVenues(); len(venues) != 0 {
		t.Fatalf("expected no active venues after disable, got %v", venues)
	}
}

func TestSupervisorSetSymbolRestartsAllVenues(t *testing.T) {
	sink := newRecordingSink()
	sup := NewSupervisor(sink, "BTCUSDT")
	ctx := context.Background()

	sup.AddVenue(ctx, "gamma", simFactory("gamma"))
	sup.AddVenue(ctx, "delta", simFactory("delta"))
	waitFor(t, func() bool { c := sink.counts(); return c["gamma"] > 0 && c["delta"] > 0 })

	sup.SetSymbol(ctx, "ETHUSDT")
	if venues := sup.ActiveVenues(); len(venues) != 2 {
		t.Fatalf("expected both venues still running after symbol change, got %v", venues)
	}
	sup.StopAll()
	if venues := sup.ActiveVenues(); len(venues) != 0 {
		t.Fatalf("expected no venues running after StopAll, got %v", venues)
	}
}
