package inventory

// ReferencePrices is the static USD-per-unit table used to size
// initial allocations and as a transfer-cost pricing fallback when no
// live stable-quoted book is available for an asset. Product-policy
// constants per spec.md §4.3/§9 — overridable via the operational
// tuning config (internal/config.Tuning.Reference.Prices).
var ReferencePrices = map[string]float64{
	"BTC":  72000,
	"ETH":  3000,
	"SOL":  140,
	"BNB":  550,
	"ADA":  0.45,
	"XRP":  0.55,
	"DOT":  6.5,
	"LINK": 14,
	"AVAX": 28,
}

// ReferencePrice returns the static USD price for an asset, defaulting
// to 1.0 (stable-asset assumption) for unknown bases per spec.md §4.3.
func ReferencePrice(asset string) float64 {
	if p, ok := ReferencePrices[asset]; ok {
		return p
	}
	return 1.0
}

// TransferUnits is the fixed on-chain quantity moved per transfer for
// a given base asset, e.g. a single on-chain withdrawal's typical
// network fee expressed in the asset itself. Product-policy constants
// per spec.md §4.2 step 4 / §9.
var TransferUnits = map[string]float64{
	"BTC":  0.0004,
	"ETH":  0.003,
	"SOL":  0.01,
	"BNB":  0.001,
	"ADA":  1.0,
	"XRP":  0.2,
	"DOT":  0.1,
	"LINK": 0.3,
	"AVAX": 0.05,
}

// TransferUnit returns the fixed per-transfer on-chain quantity for an
// asset, defaulting to 1.0 unit for stables and unknown assets.
func TransferUnit(asset string) float64 {
	if u, ok := TransferUnits[asset]; ok {
		return u
	}
	return 1.0
}

// ApplyReferenceOverrides merges operator-supplied reference prices
// and transfer-unit quantities over the package defaults, resolving
// spec.md §9's Open Question about overridable reference data in
// favor of the operational tuning config (internal/config.Tuning.
// Reference). Called once at startup before any feed or engine reads
// either table.
func ApplyReferenceOverrides(prices, transferUnits map[string]float64) {
	for asset, p := range prices {
		ReferencePrices[asset] = p
	}
	for asset, u := range transferUnits {
		TransferUnits[asset] = u
	}
}
