package inventory

import "testing"

func TestRebalanceQuotesFourWallets(t *testing.T) {
	wallets := map[string]*Wallet{
		"a": {Venue: "a", QuoteBalance: 5000, Base: map[string]float64{}},
		"b": {Venue: "b", QuoteBalance: 1000, Base: map[string]float64{}},
		"c": {Venue: "c", QuoteBalance: 1000, Base: map[string]float64{}},
		"d": {Venue: "d", QuoteBalance: 1000, Base: map[string]float64{}},
	}

	report := RebalanceQuotes(wallets)

	if report.Transfers != 3 {
		t.Fatalf("expected 3 transfers, got %d", report.Transfers)
	}
	if report.TotalMovedUSD != 3000 {
		t.Fatalf("expected $3000 moved, got %v", report.TotalMovedUSD)
	}
	if report.TargetPerUSD != 2000 {
		t.Fatalf("expected target 2000, got %v", report.TargetPerUSD)
	}
	for name, w := range wallets {
		if diff := w.QuoteBalance - 2000; diff > 0.01 || diff < -0.01 {
			t.Errorf("wallet %s not within tolerance of target: %v", name, w.QuoteBalance)
		}
	}
}

func TestNewWalletAllocatesBaseAssets(t *testing.T) {
	w := NewWallet("binance", []string{"BTC", "ETH"})
	if w.QuoteBalance != StartingQuoteBalanceUSD {
		t.Fatalf("expected starting quote balance, got %v", w.QuoteBalance)
	}
	if w.Base["BTC"] != PerAssetAllocationUSD/ReferencePrice("BTC") {
		t.Errorf("unexpected BTC allocation: %v", w.Base["BTC"])
	}
}

func TestTransferCostUSDFallback(t *testing.T) {
	cost := TransferCostUSD("BTC", 0)
	if cost != TransferUnit("BTC")*ReferencePrice("BTC") {
		t.Errorf("unexpected fallback transfer cost: %v", cost)
	}
}
