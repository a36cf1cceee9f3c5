package feeds

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/arbrun/simulator/internal/arbmodel"
)

// syntheticDepthSize is the fixed one-level depth a polled ticker
// adapter synthesizes on each side (spec.md §4.1).
const syntheticDepthSize = 100.0

// TickerFetcher fetches the current bid/ask for one symbol; the
// default implementation hits an HTTP JSON endpoint, but the
// interface lets tests substitute a stub (grounded on
// exchanges/kraken/mock.go's httptest server pattern, applied here one
// layer up so unit tests don't need a live listener at all).
type TickerFetcher interface {
	Fetch(ctx context.Context) (bid, ask float64, err error)
}

// httpTickerFetcher polls a REST endpoint and decodes a {"bid","ask"}
// JSON body.
type httpTickerFetcher struct {
	url    string
	client *http.Client
}

func (f *httpTickerFetcher) Fetch(ctx context.Context) (float64, float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return 0, 0, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	var out struct {
		Bid float64 `json:"bid"`
		Ask float64 `json:"ask"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, 0, err
	}
	return out.Bid, out.Ask, nil
}

// polledAdapter implements Adapter for Uphold-shaped venues: a 1s
// cadence REST poll producing a one-level synthetic book, dropping
// samples with a missing or crossed quote, and sleeping 2s on fetch
// failure (spec.md §4.1).
type polledAdapter struct {
	venue, symbol string
	fetcher       TickerFetcher
	limiter       *rate.Limiter

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPolledTickerAdapter builds a polled-ticker adapter for venue/
// symbol, fetching quotes from url on a 1s cadence.
func NewPolledTickerAdapter(venue, symbol, url string) Adapter {
	return newPolledAdapter(venue, symbol, &httpTickerFetcher{url: url, client: &http.Client{Timeout: 5 * time.Second}})
}

func newPolledAdapter(venue, symbol string, fetcher TickerFetcher) *polledAdapter {
	return &polledAdapter{
		venue: venue, symbol: symbol, fetcher: fetcher,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

func (a *polledAdapter) Venue() string  { return a.venue }
func (a *polledAdapter) Symbol() string { return a.symbol }

func (a *polledAdapter) Start(ctx context.Context, cb Callback) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.running = true
	a.done = make(chan struct{})
	a.mu.Unlock()

	go a.run(runCtx, cb)
	return nil
}

func (a *polledAdapter) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	cancel := a.cancel
	done := a.done
	a.running = false
	a.mu.Unlock()

	cancel()
	<-done
}

func (a *polledAdapter) run(ctx context.Context, cb Callback) {
	defer close(a.done)
	for {
		if err := a.limiter.Wait(ctx); err != nil {
			return
		}

		bid, ask, err := a.fetcher.Fetch(ctx)
		if err != nil {
			log.Warn().Str("venue", a.venue).Err(err).Msg("ticker fetch failed")
			if !sleepOrDone(ctx, 2*time.Second) {
				return
			}
			continue
		}
		if bid <= 0 || ask <= 0 || bid >= ask {
			continue
		}

		now := time.Now().UTC()
		cb(&arbmodel.NormalizedOrderBook{
			Venue: a.venue, Symbol: a.symbol,
			Bids:              []arbmodel.OrderBookLevel{{Price: bid, Qty: syntheticDepthSize}},
			Asks:              []arbmodel.OrderBookLevel{{Price: ask, Qty: syntheticDepthSize}},
			ExchangeTimestamp: now,
			ReceivedTimestamp: now,
		})
	}
}
