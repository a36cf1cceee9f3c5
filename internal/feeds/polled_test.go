package feeds

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/arbrun/simulator/internal/arbmodel"
)

func rateUnlimited() *rate.Limiter { return rate.NewLimiter(rate.Inf, 1) }

type stubFetcher struct {
	mu    sync.Mutex
	quote [2]float64
	err   error
	calls int
}

func (s *stubFetcher) Fetch(ctx context.Context) (float64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return 0, 0, s.err
	}
	return s.quote[0], s.quote[1], nil
}

func TestPolledAdapterEmitsSyntheticBook(t *testing.T) {
	fetcher := &stubFetcher{quote: [2]float64{100, 100.5}}
	a := newPolledAdapter("uphold", "BTCUSDT", fetcher)
	a.limiter = rateUnlimited()

	var received *arbmodel.NormalizedOrderBook
	var mu sync.Mutex
	ctx, cancel := context.WithCancel(context.Background())

	if err := a.Start(ctx, func(b *arbmodel.NormalizedOrderBook) {
		mu.Lock()
		if received == nil {
			received = b
		}
		mu.Unlock()
	}); err != nil {
		t.Fatalf("start error: %v", err)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return received != nil
	})

	cancel()
	a.Stop()

	mu.Lock()
	defer mu.Unlock()
	if received.Bids[0].Price != 100 || received.Asks[0].Qty != syntheticDepthSize {
		t.Fatalf("unexpected book: %+v", received)
	}
}

func TestPolledAdapterDropsCrossedQuote(t *testing.T) {
	fetcher := &stubFetcher{quote: [2]float64{101, 100}} // crossed: bid > ask
	a := newPolledAdapter("uphold", "BTCUSDT", fetcher)
	a.limiter = rateUnlimited()

	var calls int
	var mu sync.Mutex
	ctx, cancel := context.WithCancel(context.Background())
	a.Start(ctx, func(b *arbmodel.NormalizedOrderBook) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	time.Sleep(50 * time.Millisecond)
	cancel()
	a.Stop()

	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Fatalf("expected crossed quote to be dropped, got %d callbacks", calls)
	}
}

func TestPolledAdapterStartStopIdempotent(t *testing.T) {
	fetcher := &stubFetcher{quote: [2]float64{100, 101}}
	a := newPolledAdapter("uphold", "BTCUSDT", fetcher)
	a.limiter = rateUnlimited()
	ctx := context.Background()

	if err := a.Start(ctx, func(*arbmodel.NormalizedOrderBook) {}); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if err := a.Start(ctx, func(*arbmodel.NormalizedOrderBook) {}); err != nil {
		t.Fatalf("second start: %v", err)
	}
	a.Stop()
	a.Stop()
}

var errFetch = errors.New("fetch failed")

// flakyFetcher fails once, then returns a fixed valid quote, exercising
// the adapter's fetch-failure retry path. The retry waits out the
// adapter's full 2s failure sleep, so the test allows up to 3s.
type flakyFetcher struct {
	mu     sync.Mutex
	failed bool
}

func (f *flakyFetcher) Fetch(ctx context.Context) (float64, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.failed {
		f.failed = true
		return 0, 0, errFetch
	}
	return 100, 101, nil
}


func TestPolledAdapterRecoversAfterFetchFailure(t *testing.T) {
	fetcher := &flakyFetcher{}
	a := newPolledAdapter("uphold", "BTCUSDT", fetcher)
	a.limiter = rateUnlimited()

	var received *arbmodel.NormalizedOrderBook
	var mu sync.Mutex
	ctx, cancel := context.WithCancel(context.Background())
	a.Start(ctx, func(b *arbmodel.NormalizedOrderBook) {
		mu.Lock()
		if received == nil {
			received = b
		}
		mu.Unlock()
	})

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		got := received != nil
		mu.Unlock()
		if got {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	a.Stop()

	mu.Lock()
	defer mu.Unlock()
	if received == nil {
		t.Fatal("expected adapter to recover and emit a book after one failed fetch")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
