package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFunctionalIsValid(t *testing.T) {
	require.NoError(t, DefaultFunctional().Validate())
}

func TestLoadFunctionalReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "functional.json")
	body := `{
		"symbol": "ETHUSDT",
		"trade_size": 2.5,
		"starting_balance_usd": 5000,
		"auto_simulate_execution": true,
		"feeds": [{"name": "binance", "kind": "simulated"}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	f, err := LoadFunctional(path)
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", f.Symbol)
	assert.Equal(t, 2.5, f.TradeSize)
	assert.Equal(t, []string{"binance"}, f.Venues())
}

func TestLoadFunctionalFillsFeedDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "functional.json")
	body := `{
		"symbol": "BTCUSDT",
		"trade_size": 1,
		"starting_balance_usd": 2000,
		"feeds": [{"name": "binance", "kind": "binance_ws"}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	f, err := LoadFunctional(path)
	require.NoError(t, err)
	assert.Equal(t, defaultFeedFee, f.Feeds[0].Fee)
	assert.Equal(t, defaultFeedVolatility, f.Feeds[0].Volatility)
	assert.Equal(t, defaultFeedDepthLevels, f.Feeds[0].DepthLevels)
	assert.True(t, f.Feeds[0].IsEnabled())
}

func TestLoadFunctionalMissingFile(t *testing.T) {
	_, err := LoadFunctional(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestFunctionalValidateRejectsNonPositiveTradeSize(t *testing.T) {
	f := DefaultFunctional()
	f.TradeSize = 0
	assert.Error(t, f.Validate())
}

func TestFunctionalValidateRejectsEmptySymbol(t *testing.T) {
	f := DefaultFunctional()
	f.Symbol = ""
	assert.Error(t, f.Validate())
}

func TestFunctionalValidateRejectsNoFeeds(t *testing.T) {
	f := DefaultFunctional()
	f.Feeds = nil
	assert.Error(t, f.Validate())
}

func TestFunctionalValidateRejectsDuplicateVenue(t *testing.T) {
	f := DefaultFunctional()
	f.Feeds = append(f.Feeds, FeedConfig{Venue: "binance", Kind: FeedSimulated})
	assert.Error(t, f.Validate())
}

func TestFunctionalValidateRejectsUnknownKind(t *testing.T) {
	f := DefaultFunctional()
	f.Feeds = []FeedConfig{{Venue: "binance", Kind: "telepathic"}}
	assert.Error(t, f.Validate())
}

func TestFunctionalValidateRejectsNegativeFee(t *testing.T) {
	f := DefaultFunctional()
	f.Feeds = []FeedConfig{{Venue: "binance", Kind: FeedSimulated, Fee: -0.001}}
	assert.Error(t, f.Validate())
}

func TestFunctionalValidateRejectsNegativeTransferCost(t *testing.T) {
	f := DefaultFunctional()
	f.TransferCostUSD = -1
	assert.Error(t, f.Validate())
}

func TestVenuesExcludesDisabledFeeds(t *testing.T) {
	disabled := false
	f := DefaultFunctional()
	f.Feeds[1].Enabled = &disabled
	venues := f.Venues()
	assert.Equal(t, []string{"binance", "bybit"}, venues)
}

func TestFeesAppliesPerVenueOverrideAndDefault(t *testing.T) {
	f := DefaultFunctional()
	f.Feeds[0].Fee = 0.0025
	fees := f.Fees()
	assert.Equal(t, 0.0025, fees["binance"])
	assert.Equal(t, defaultFeedFee, fees["kraken"])
}
