package feeds

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/arbrun/simulator/internal/arbmodel"
	"github.com/arbrun/simulator/internal/inventory"
)

const (
	simulatedTickInterval = 200 * time.Millisecond
	simulatedDefaultDepth = 20
	simulatedMinSpreadPct = 0.5
	simulatedMaxSpreadPct = 5.0
	simulatedMinLevelQty  = 0.02
	simulatedMaxLevelQty  = 0.6
	simulatedDriftPct     = 0.15 // max mid-price drift per tick, as a % of mid
)

// simulatedAdapter synthesizes a full depth ladder around a slowly
// drifting mid price, for venues with no live feed configured. Mid
// price starts at the asset's reference price and bounded-random-walks
// from there (spec.md §4.1 "Simulated adapter").
type simulatedAdapter struct {
	venue, symbol string
	depth         int
	driftPct      float64
	rng           *rand.Rand

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	mid     float64
}

// SimulatedConfig parameterizes one synthetic feed instance, threading
// spec.md §6's per-feed price_offset/volatility/depth_levels fields
// into the adapter.
type SimulatedConfig struct {
	Venue, Symbol string
	Seed          int64 // derived per venue so repeated runs drift identically
	DepthLevels   int   // levels per side; default 20
	VolatilityPct float64 // max mid-price drift per tick, as a %; default 0.15
	PriceOffset   float64 // added to the asset's reference price at startup
}

func (c SimulatedConfig) withDefaults() SimulatedConfig {
	if c.DepthLevels <= 0 {
		c.DepthLevels = simulatedDefaultDepth
	}
	if c.VolatilityPct <= 0 {
		c.VolatilityPct = simulatedDriftPct
	}
	return c
}

// NewSimulatedAdapter builds a bounded-drift synthetic depth adapter
// seeded by symbol's base-asset reference price plus cfg.PriceOffset.
func NewSimulatedAdapter(cfg SimulatedConfig) Adapter {
	cfg = cfg.withDefaults()
	base, _ := arbmodel.Split(cfg.Symbol)
	return &simulatedAdapter{
		venue:    cfg.Venue,
		symbol:   cfg.Symbol,
		depth:    cfg.DepthLevels,
		driftPct: cfg.VolatilityPct,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		mid:      math.Max(0.0001, inventory.ReferencePrice(base)+cfg.PriceOffset),
	}
}

func (a *simulatedAdapter) Venue() string  { return a.venue }
func (a *simulatedAdapter) Symbol() string { return a.symbol }

func (a *simulatedAdapter) Start(ctx context.Context, cb Callback) error {
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

func (a *simulatedAdapter) Stop() {
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

func (a *simulatedAdapter) run(ctx context.Context, cb Callback) {
	defer close(a.done)
	ticker := time.NewTicker(simulatedTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cb(a.nextBook())
		}
	}
}

func (a *simulatedAdapter) nextBook() *arbmodel.NormalizedOrderBook {
	a.mu.Lock()
	drift := (a.rng.Float64()*2 - 1) * a.driftPct / 100 * a.mid
	a.mid = math.Max(0.0001, a.mid+drift)
	mid := a.mid
	a.mu.Unlock()

	spreadPct := simulatedMinSpreadPct + a.rng.Float64()*(simulatedMaxSpreadPct-simulatedMinSpreadPct)
	halfSpread := mid * spreadPct / 100 / 2
	bestBid := mid - halfSpread
	bestAsk := mid + halfSpread

	tickSize := mid * 0.0005
	bids := make([]arbmodel.OrderBookLevel, 0, a.depth)
	asks := make([]arbmodel.OrderBookLevel, 0, a.depth)
	for i := 0; i < a.depth; i++ {
		qty := simulatedMinLevelQty + a.rng.Float64()*(simulatedMaxLevelQty-simulatedMinLevelQty)
		bids = append(bids, arbmodel.OrderBookLevel{Price: bestBid - float64(i)*tickSize, Qty: qty})
		qty = simulatedMinLevelQty + a.rng.Float64()*(simulatedMaxLevelQty-simulatedMinLevelQty)
		asks = append(asks, arbmodel.OrderBookLevel{Price: bestAsk + float64(i)*tickSize, Qty: qty})
	}

	now := time.Now().UTC()
	return &arbmodel.NormalizedOrderBook{
		Venue: a.venue, Symbol: a.symbol,
		Bids:              bids,
		Asks:              asks,
		ExchangeTimestamp: now,
		ReceivedTimestamp: now,
	}
}
