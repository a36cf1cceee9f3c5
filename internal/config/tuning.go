package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tuning is the YAML-encoded operational tuning surface: per-venue
// timing and resilience knobs that an operator adjusts without
// touching the functional config, grounded on
// internal/config/providers.go's ProvidersConfig/LoadProvidersConfig
// shape.
type Tuning struct {
	Venues    map[string]VenueTuning `yaml:"venues"`
	Dedup     DedupTuning            `yaml:"dedup"`
	Reference ReferenceTuning        `yaml:"reference"`
}

// VenueTuning holds the per-venue staleness, backoff, and
// circuit-breaker knobs the feed adapters read at startup.
type VenueTuning struct {
	PingInterval    time.Duration `yaml:"ping_interval"`
	StalenessBudget time.Duration `yaml:"staleness_budget"`
	Backoff         BackoffTuning `yaml:"backoff"`
	Circuit         CircuitTuning `yaml:"circuit"`
}

// BackoffTuning mirrors providers.go's BackoffConfig, renamed to the
// floor/ceiling/factor/jitter vocabulary internal/feeds/adapter.go
// already uses.
type BackoffTuning struct {
	Floor   time.Duration `yaml:"floor"`
	Ceiling time.Duration `yaml:"ceiling"`
	Factor  float64       `yaml:"factor"`
	Jitter  float64       `yaml:"jitter"`
}

// CircuitTuning mirrors providers.go's CircuitConfig: the
// sony/gobreaker thresholds a streaming adapter is constructed with.
type CircuitTuning struct {
	MaxFailures  uint32        `yaml:"max_failures"`
	OpenDuration time.Duration `yaml:"open_duration"`
}

// DedupTuning configures the optional Redis opportunity-dedup cache.
type DedupTuning struct {
	Enabled  bool          `yaml:"enabled"`
	RedisURL string        `yaml:"redis_url"`
	Window   time.Duration `yaml:"window"`
}

// ReferenceTuning lets an operator override the synthetic simulated
// feed's seed reference prices and the transfer-time model's
// per-asset unit costs, both of which internal/inventory otherwise
// hardcodes.
type ReferenceTuning struct {
	Prices        map[string]float64 `yaml:"reference_prices"`
	TransferUnits map[string]float64 `yaml:"transfer_units"`
}

func defaultVenueTuning() VenueTuning {
	return VenueTuning{
		PingInterval:    20 * time.Second,
		StalenessBudget: 10 * time.Second,
		Backoff: BackoffTuning{
			Floor: time.Second, Ceiling: 30 * time.Second, Factor: 2, Jitter: 0.3,
		},
		Circuit: CircuitTuning{MaxFailures: 5, OpenDuration: 30 * time.Second},
	}
}

// DefaultTuning returns the tuning passed to internal/feeds' adapters
// when no override file is supplied. Its circuit thresholds (5
// failures, 30s open) differ from the fallbacks StreamingConfig applies
// to zero-valued fields (3 failures, twice the staleness budget).
func DefaultTuning() Tuning {
	return Tuning{
		Venues: map[string]VenueTuning{
			"binance": defaultVenueTuning(),
			"kraken":  defaultVenueTuning(),
			"bybit":   defaultVenueTuning(),
		},
		Dedup: DedupTuning{Enabled: false, Window: 2 * time.Second},
	}
}

// LoadTuning reads, validates, and fills in missing per-venue defaults
// for an operational tuning file.
func LoadTuning(path string) (Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("read tuning config: %w", err)
	}
	t := Tuning{Venues: map[string]VenueTuning{}}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("parse tuning config: %w", err)
	}
	t.fillDefaults()
	if err := t.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("invalid tuning config: %w", err)
	}
	return t, nil
}

func (t *Tuning) fillDefaults() {
	def := defaultVenueTuning()
	for venue, v := range t.Venues {
		if v.PingInterval == 0 {
			v.PingInterval = def.PingInterval
		}
		if v.StalenessBudget == 0 {
			v.StalenessBudget = def.StalenessBudget
		}
		if v.Backoff.Floor == 0 {
			v.Backoff = def.Backoff
		}
		if v.Circuit.MaxFailures == 0 {
			v.Circuit = def.Circuit
		}
		t.Venues[venue] = v
	}
	if t.Dedup.Window == 0 {
		t.Dedup.Window = 2 * time.Second
	}
}

// Validate checks every venue's tuning values against the bounds
// internal/feeds' adapters rely on.
func (t Tuning) Validate() error {
	for venue, v := range t.Venues {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("venue %q: %w", venue, err)
		}
	}
	return nil
}

// Validate checks one venue's tuning for internal consistency.
func (v VenueTuning) Validate() error {
	if v.PingInterval <= 0 {
		return fmt.Errorf("ping_interval must be positive")
	}
	if v.StalenessBudget <= 0 {
		return fmt.Errorf("staleness_budget must be positive")
	}
	if v.Backoff.Floor <= 0 || v.Backoff.Ceiling < v.Backoff.Floor {
		return fmt.Errorf("backoff ceiling must be >= floor, both positive")
	}
	if v.Backoff.Factor <= 1 {
		return fmt.Errorf("backoff factor must be > 1")
	}
	if v.Backoff.Jitter < 0 || v.Backoff.Jitter > 1 {
		return fmt.Errorf("backoff jitter must be in [0, 1]")
	}
	if v.Circuit.MaxFailures == 0 {
		return fmt.Errorf("circuit max_failures must be positive")
	}
	return nil
}

// VenueOrDefault returns the venue's full tuning, falling back to the
// package default when the venue is unlisted.
func (t Tuning) VenueOrDefault(venue string) VenueTuning {
	if v, ok := t.Venues[venue]; ok {
		return v
	}
	return defaultVenueTuning()
}
