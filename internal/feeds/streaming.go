package feeds

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/arbrun/simulator/internal/arbmodel"
)

// StreamingConfig parameterizes one streaming-depth adapter instance
// (spec.md §4.1's "Streaming depth adapter"). Endpoints longer than
// one entry rotate per reconnect cycle.
type StreamingConfig struct {
	Venue       string
	Symbol      string
	Endpoints   []string
	Incremental bool // true: Kraken/Bybit-style diffs; false: Binance-style snapshot replace
	DepthLevels int  // truncate each side to this many levels before emission; default 20
	PingInterval    time.Duration // default 20s
	PingTimeout     time.Duration // default 20s
	StalenessBudget time.Duration // default 10s
	Codec       depthCodec

	// Reconnect backoff, per operator tuning config; zero values fall
	// back to 1s/30s/factor-2 in withDefaults.
	BackoffFloor   time.Duration
	BackoffCeiling time.Duration
	BackoffFactor  float64

	// Circuit breaker thresholds gating endpoint dial attempts.
	CircuitMaxFailures  uint32
	CircuitOpenDuration time.Duration
}

func (c StreamingConfig) withDefaults() StreamingConfig {
	if c.DepthLevels <= 0 {
		c.DepthLevels = 20
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 20 * time.Second
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = 20 * time.Second
	}
	if c.StalenessBudget <= 0 {
		c.StalenessBudget = 10 * time.Second
	}
	if c.BackoffFloor <= 0 {
		c.BackoffFloor = time.Second
	}
	if c.BackoffCeiling <= 0 {
		c.BackoffCeiling = 30 * time.Second
	}
	if c.BackoffFactor <= 1 {
		c.BackoffFactor = 2
	}
	if c.CircuitMaxFailures == 0 {
		c.CircuitMaxFailures = 3
	}
	if c.CircuitOpenDuration <= 0 {
		c.CircuitOpenDuration = c.StalenessBudget * 2
	}
	return c
}

// streamingAdapter implements Adapter for streaming-depth venues,
// grounded on internal/providers/kraken/websocket.go's Connect/
// messageLoop/pingLoop shape and exchanges/binance/book.go's
// reconnect-with-sleep loop.
type streamingAdapter struct {
	cfg StreamingConfig

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	breaker *gobreaker.CircuitBreaker

	// working book state for incremental venues
	bidMap map[float64]float64
	askMap map[float64]float64
}

// NewStreamingAdapter constructs a streaming-depth adapter for one
// (venue, symbol). cfg.Codec must not be nil.
func NewStreamingAdapter(cfg StreamingConfig) Adapter {
	cfg = cfg.withDefaults()
	st := gobreaker.Settings{
		Name:    fmt.Sprintf("feed-%s-%s", cfg.Venue, cfg.Symbol),
		Timeout: cfg.CircuitOpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.CircuitMaxFailures
		},
	}
	return &streamingAdapter{
		cfg:     cfg,
		breaker: gobreaker.NewCircuitBreaker(st),
		bidMap:  make(map[float64]float64),
		askMap:  make(map[float64]float64),
	}
}

func (a *streamingAdapter) Venue() string  { return a.cfg.Venue }
func (a *streamingAdapter) Symbol() string { return a.cfg.Symbol }

func (a *streamingAdapter) Start(ctx context.Context, cb Callback) error {
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

func (a *streamingAdapter) Stop() {
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

func (a *streamingAdapter) run(ctx context.Context, cb Callback) {
	defer close(a.done)
	bo := newBackoff(a.cfg.BackoffFloor, a.cfg.BackoffCeiling, a.cfg.BackoffFactor)
	endpointIdx := 0

	for {
		if ctx.Err() != nil {
			return
		}
		endpoint := a.cfg.Endpoints[endpointIdx%len(a.cfg.Endpoints)]
		endpointIdx++

		conn, err := a.dial(ctx, endpoint)
		if err != nil {
			log.Warn().Str("venue", a.cfg.Venue).Str("endpoint", endpoint).Err(err).Msg("feed connect failed, backing off")
			if !sleepOrDone(ctx, bo.next()) {
				return
			}
			continue
		}

		ok := a.readLoop(ctx, conn, cb, bo)
		_ = conn.Close()
		if !ok {
			if ctx.Err() != nil {
				return
			}
			if !sleepOrDone(ctx, bo.next()) {
				return
			}
			continue
		}
		bo.reset()
	}
}

// dial connects through the circuit breaker so a consistently failing
// endpoint trips the breaker and is skipped on the next rotation
// instead of being retried immediately by backoff alone.
func (a *streamingAdapter) dial(ctx context.Context, endpoint string) (*websocket.Conn, error) {
	result, err := a.breaker.Execute(func() (any, error) {
		conn, _, dErr := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
		if dErr != nil {
			return nil, dErr
		}
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*websocket.Conn), nil
}

// readLoop reads until the staleness budget elapses or the connection
// errors, decoding and forwarding each message. Every successful read
// resets bo. Returns false when the caller should reconnect.
func (a *streamingAdapter) readLoop(ctx context.Context, conn *websocket.Conn, cb Callback, bo *backoff) bool {
	_ = conn.SetReadDeadline(time.Now().Add(a.cfg.StalenessBudget))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(a.cfg.StalenessBudget))
	})

	stopPing := make(chan struct{})
	go a.pingLoop(conn, stopPing)
	defer close(stopPing)

	for {
		if ctx.Err() != nil {
			return true
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return false
		}
		bo.reset()
		_ = conn.SetReadDeadline(time.Now().Add(a.cfg.StalenessBudget))

		update, err := a.cfg.Codec.Decode(raw)
		if err != nil || update.Heartbeat {
			continue
		}

		nb := a.apply(update)
		if nb == nil {
			continue
		}
		cb(nb)
	}
}

func (a *streamingAdapter) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	t := time.NewTicker(a.cfg.PingInterval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(a.cfg.PingTimeout))
		}
	}
}

// apply folds one decoded update into the adapter's working book and
// returns the normalized book to emit, or nil when the result would
// have an empty side (spec.md §4.1: "emitted only when both sides have
// at least one non-zero level").
func (a *streamingAdapter) apply(update depthUpdate) *arbmodel.NormalizedOrderBook {
	if a.cfg.Incremental {
		applySide(a.bidMap, update.Bids)
		applySide(a.askMap, update.Asks)
	} else {
		a.bidMap = mapFromLevels(update.Bids)
		a.askMap = mapFromLevels(update.Asks)
	}

	bids := sortedLevels(a.bidMap, true)
	asks := sortedLevels(a.askMap, false)
	if len(bids) == 0 || len(asks) == 0 {
		return nil
	}

	now := time.Now().UTC()
	exTime := update.EventTime
	if exTime.IsZero() {
		exTime = now
	}
	nb := &arbmodel.NormalizedOrderBook{
		Venue: a.cfg.Venue, Symbol: a.cfg.Symbol,
		Bids: bids, Asks: asks,
		ExchangeTimestamp: exTime,
		ReceivedTimestamp: now,
	}
	nb.TruncateDepth(a.cfg.DepthLevels)
	return nb
}

func applySide(m map[float64]float64, levels []rawLevel) {
	for _, lv := range levels {
		if lv.Qty <= 0 {
			delete(m, lv.Price)
			continue
		}
		m[lv.Price] = lv.Qty
	}
}

func mapFromLevels(levels []rawLevel) map[float64]float64 {
	m := make(map[float64]float64, len(levels))
	for _, lv := range levels {
		if lv.Qty > 0 {
			m[lv.Price] = lv.Qty
		}
	}
	return m
}

func sortedLevels(m map[float64]float64, descending bool) []arbmodel.OrderBookLevel {
	out := make([]arbmodel.OrderBookLevel, 0, len(m))
	for p, q := range m {
		out = append(out, arbmodel.OrderBookLevel{Price: p, Qty: q})
	}
	sort.Slice(out, func(i, j int) bool {
		if descending {
			return out[i].Price > out[j].Price
		}
		return out[i].Price < out[j].Price
	})
	return out
}
