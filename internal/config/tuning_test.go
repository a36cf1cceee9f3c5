package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTuningIsValid(t *testing.T) {
	require.NoError(t, DefaultTuning().Validate())
}

func TestLoadTuningFillsMissingDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	body := `
venues:
  binance:
    ping_interval: 5s
dedup:
  enabled: true
  redis_url: "redis://localhost:6379"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	tu, err := LoadTuning(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, tu.VenueOrDefault("binance").PingInterval)
	assert.Equal(t, defaultVenueTuning().StalenessBudget, tu.VenueOrDefault("binance").StalenessBudget)
	assert.True(t, tu.Dedup.Enabled)
	assert.Equal(t, 2*time.Second, tu.Dedup.Window)
}

func TestVenueOrDefaultFallsBackForUnlistedVenue(t *testing.T) {
	tu := DefaultTuning()
	assert.Equal(t, defaultVenueTuning(), tu.VenueOrDefault("unknown-venue"))
}

func TestVenueTuningValidateRejectsBadBackoff(t *testing.T) {
	v := defaultVenueTuning()
	v.Backoff.Ceiling = v.Backoff.Floor - time.Second
	assert.Error(t, v.Validate())
}

func TestVenueTuningValidateRejectsZeroMaxFailures(t *testing.T) {
	v := defaultVenueTuning()
	v.Circuit.MaxFailures = 0
	assert.Error(t, v.Validate())
}

func TestLoadTuningMissingFile(t *testing.T) {
	_, err := LoadTuning(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
