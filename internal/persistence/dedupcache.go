package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DedupWindow is how long an opportunity key is remembered; two
// otherwise-identical opportunities for the same symbol/buy/sell venue
// seen within this window are considered duplicates of a single
// market event rather than two distinct ones (SPEC_FULL.md's
// opportunity-dedup design note).
const DedupWindow = 2 * time.Second

// DedupCache suppresses redundant persistence writes for opportunities
// that differ only by evaluation timestamp. It is a purely
// correctness-neutral optimization: nothing about engine behavior or
// API responses depends on it, so a nil *DedupCache (or one backed by
// an unreachable Redis) degrades to "persist everything" rather than
// failing closed.
type DedupCache struct {
	client *redis.Client
	window time.Duration
}

// NewDedupCache builds a cache against an already-constructed
// *redis.Client (tests substitute one from github.com/go-redis/
// redismock/v8). window <= 0 falls back to DedupWindow.
func NewDedupCache(client *redis.Client, window time.Duration) *DedupCache {
	if window <= 0 {
		window = DedupWindow
	}
	return &DedupCache{client: client, window: window}
}

// SeenRecently reports whether an opportunity keyed by
// (symbol, buyVenue, sellVenue) was already recorded within the
// cache's window, and marks it seen for future calls. Any Redis error is
// treated as "not seen" so a cache outage never suppresses a write.
func (c *DedupCache) SeenRecently(ctx context.Context, symbol, buyVenue, sellVenue string) bool {
	if c == nil || c.client == nil {
		return false
	}
	key := dedupKey(symbol, buyVenue, sellVenue)
	ok, err := c.client.SetNX(ctx, key, 1, c.window).Result()
	if err != nil {
		return false
	}
	return !ok
}

func dedupKey(symbol, buyVenue, sellVenue string) string {
	return fmt.Sprintf("arbsim:dedup:%s:%s:%s", symbol, buyVenue, sellVenue)
}
