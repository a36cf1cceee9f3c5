// Package config loads the simulator's two configuration surfaces:
// functional.go's JSON document (spec.md §6's runtime parameters,
// read once at startup) and tuning.go's YAML document
// (per-venue operational tuning, grounded on
// internal/config/providers.go's LoadProvidersConfig shape).
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Feed kind enum values, per spec.md §6's configuration surface. Each
// names the adapter feedFactory builds; "simulated" is the only kind
// not tied to a specific venue's wire format.
const (
	FeedBinanceWS    = "binance_ws"
	FeedKrakenWS     = "kraken_ws"
	FeedBybitWS      = "bybit_ws"
	FeedUpholdTicker = "uphold_ticker"
	FeedSimulated    = "simulated"
)

// Defaults applied to a feed's tuning fields when left at their zero
// value, per spec.md §6's "missing fields take documented defaults".
const (
	defaultFeedFee         = 0.001
	defaultFeedVolatility  = 0.15 // max mid-price drift per tick, as a %
	defaultFeedDepthLevels = 20
)

// FeedConfig names one venue and how its adapter should be built.
type FeedConfig struct {
	Venue       string  `json:"name"`
	Kind        string  `json:"kind"`
	Fee         float64 `json:"fee"`
	Enabled     *bool   `json:"enabled,omitempty"`
	PriceOffset float64 `json:"price_offset"`
	Volatility  float64 `json:"volatility"`
	DepthLevels int     `json:"depth_levels"`
	URL         string  `json:"url,omitempty"`
}

// IsEnabled reports whether this feed participates; absent "enabled"
// defaults to true (spec.md §6).
func (fc FeedConfig) IsEnabled() bool {
	return fc.Enabled == nil || *fc.Enabled
}

// withDefaults fills zero-valued tuning fields with their documented
// defaults. A zero fee/volatility/depth_levels is indistinguishable
// from an absent field in a JSON number, so an explicit zero fee
// venue isn't representable — the same zero-means-unset convention
// internal/feeds/streaming.go's StreamingConfig.withDefaults uses.
func (fc FeedConfig) withDefaults() FeedConfig {
	if fc.Fee == 0 {
		fc.Fee = defaultFeedFee
	}
	if fc.Volatility == 0 {
		fc.Volatility = defaultFeedVolatility
	}
	if fc.DepthLevels == 0 {
		fc.DepthLevels = defaultFeedDepthLevels
	}
	return fc
}

// Functional is the JSON-encoded functional configuration surface
// (spec.md §6): trade sizing, fee/transfer overrides, and which feeds
// to run.
type Functional struct {
	Symbol                  string       `json:"symbol"`
	Symbols                 []string     `json:"symbols,omitempty"`
	TradeSize               float64      `json:"trade_size"`
	TransferCostUSD         float64      `json:"transfer_cost_usd"`
	StartingBalanceUSD      float64      `json:"starting_balance_usd"`
	AutoSimulateExecution   bool         `json:"auto_simulate_execution"`
	OpportunityThresholdUSD float64      `json:"opportunity_threshold_usd"`
	Feeds                   []FeedConfig `json:"feeds"`
}

// DefaultFunctional returns the configuration used when no file is
// supplied, matching spec.md §4.3's starting values.
func DefaultFunctional() Functional {
	return Functional{
		Symbol:                "BTCUSDT",
		TradeSize:             1,
		TransferCostUSD:       0,
		StartingBalanceUSD:    2000,
		AutoSimulateExecution: true,
		Feeds: []FeedConfig{
			{Venue: "binance", Kind: FeedSimulated},
			{Venue: "kraken", Kind: FeedSimulated},
			{Venue: "bybit", Kind: FeedSimulated},
		},
	}
}

// LoadFunctional reads and validates a functional configuration file.
func LoadFunctional(path string) (Functional, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Functional{}, fmt.Errorf("read functional config: %w", err)
	}
	var f Functional
	if err := json.Unmarshal(data, &f); err != nil {
		return Functional{}, fmt.Errorf("parse functional config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return Functional{}, fmt.Errorf("invalid functional config: %w", err)
	}
	for i, fc := range f.Feeds {
		f.Feeds[i] = fc.withDefaults()
	}
	return f, nil
}

// Validate checks the invariants spec.md §6 requires before the
// config is handed to the engine.
func (f Functional) Validate() error {
	if f.Symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if f.TradeSize <= 0 {
		return fmt.Errorf("trade_size must be positive, got %f", f.TradeSize)
	}
	if f.StartingBalanceUSD <= 0 {
		return fmt.Errorf("starting_balance_usd must be positive, got %f", f.StartingBalanceUSD)
	}
	if f.TransferCostUSD < 0 {
		return fmt.Errorf("transfer_cost_usd cannot be negative, got %f", f.TransferCostUSD)
	}
	if len(f.Feeds) == 0 {
		return fmt.Errorf("at least one feed must be configured")
	}
	seen := make(map[string]bool, len(f.Feeds))
	for _, fc := range f.Feeds {
		if fc.Venue == "" {
			return fmt.Errorf("feed venue cannot be empty")
		}
		if seen[fc.Venue] {
			return fmt.Errorf("duplicate feed venue %q", fc.Venue)
		}
		seen[fc.Venue] = true
		switch fc.Kind {
		case FeedBinanceWS, FeedKrakenWS, FeedBybitWS, FeedUpholdTicker, FeedSimulated:
		default:
			return fmt.Errorf("feed %q: unknown kind %q", fc.Venue, fc.Kind)
		}
		if fc.Fee < 0 {
			return fmt.Errorf("feed %q: fee cannot be negative, got %f", fc.Venue, fc.Fee)
		}
		if fc.Volatility < 0 {
			return fmt.Errorf("feed %q: volatility cannot be negative, got %f", fc.Venue, fc.Volatility)
		}
		if fc.DepthLevels < 0 {
			return fmt.Errorf("feed %q: depth_levels cannot be negative, got %d", fc.Venue, fc.DepthLevels)
		}
	}
	return nil
}

// Venues returns the enabled configured venue names in order.
func (f Functional) Venues() []string {
	out := make([]string, 0, len(f.Feeds))
	for _, fc := range f.Feeds {
		if fc.IsEnabled() {
			out = append(out, fc.Venue)
		}
	}
	return out
}

// Fees returns the per-venue linear fee rate for every enabled feed,
// defaults applied, keyed by venue (spec.md §4.2 step 3).
func (f Functional) Fees() map[string]float64 {
	out := make(map[string]float64, len(f.Feeds))
	for _, fc := range f.Feeds {
		if !fc.IsEnabled() {
			continue
		}
		out[fc.Venue] = fc.withDefaults().Fee
	}
	return out
}
