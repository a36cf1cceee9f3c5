// Package feeds implements the long-lived venue ingestion tasks of
// spec.md §4.1: streaming-depth, polled-ticker, and simulated
// adapters, plus the supervisor that wires them to the engine.
package feeds

import (
	"context"
	"math/rand"
	"time"

	"github.com/arbrun/simulator/internal/arbmodel"
)

// Callback delivers one normalized book to the engine. The engine's
// implementation must be safe for concurrent invocation from many
// adapters; serialization happens inside it (spec.md §6).
type Callback func(*arbmodel.NormalizedOrderBook)

// Adapter is a long-lived producer bound to one (venue, symbol).
// Start and Stop are both idempotent (spec.md §4.1).
type Adapter interface {
	Venue() string
	Symbol() string
	Start(ctx context.Context, cb Callback) error
	Stop()
}

// AdapterTuning carries a streaming adapter's per-venue operational
// knobs from internal/config.VenueTuning without feeds depending on
// the config package. Zero-valued fields fall back to
// StreamingConfig's own defaults.
type AdapterTuning struct {
	DepthLevels     int
	PingInterval    time.Duration
	StalenessBudget time.Duration

	BackoffFloor   time.Duration
	BackoffCeiling time.Duration
	BackoffFactor  float64

	CircuitMaxFailures  uint32
	CircuitOpenDuration time.Duration
}

// backoff computes exponential-with-jitter reconnect delays between a
// floor and a ceiling (1s/30s/factor 2 unless tuned), with ±30%
// multiplicative jitter, reset on a successful read (spec.md §4.1).
// The jittered delay is clamped to [floor, ceiling].
type backoff struct {
	floor, ceiling time.Duration
	factor         float64
	attempt        int
}

func newBackoff(floor, ceiling time.Duration, factor float64) *backoff {
	return &backoff{floor: floor, ceiling: ceiling, factor: factor}
}

func (b *backoff) reset() { b.attempt = 0 }

func (b *backoff) next() time.Duration {
	d := float64(b.floor) * pow(b.factor, b.attempt)
	if d > float64(b.ceiling) {
		d = float64(b.ceiling)
	}
	b.attempt++
	jitter := 1 + (rand.Float64()*0.6 - 0.3) // +/-30%
	out := time.Duration(d * jitter)
	if out < b.floor {
		out = b.floor
	}
	if out > b.ceiling {
		out = b.ceiling
	}
	return out
}

func pow(base float64, exp int) float64 {
	out := 1.0
	for i := 0; i < exp; i++ {
		out *= base
	}
	return out
}

// sleepOrDone sleeps for d unless ctx is cancelled first, returning
// false when cancellation won the race so callers can exit promptly
// (spec.md §4.1/§5's "observe cancellation within one read/sleep").
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
