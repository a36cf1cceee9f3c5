package inventory

import "github.com/arbrun/simulator/internal/arbmodel"

// TransferCostUSD prices moving one transfer's worth of asset between
// venues: a fixed on-chain unit quantity (TransferUnit) times a spot
// price. The spot price prefers a stable-quoted book for the asset on
// the given venue; callers without a usable book pass priceHint <= 0
// to fall back to the static ReferencePrices table (spec.md §4.2 step
// 4).
func TransferCostUSD(asset string, priceHint float64) float64 {
	price := priceHint
	if price <= 0 {
		price = ReferencePrice(asset)
	}
	return TransferUnit(asset) * price
}

// StableQuotedPrice derives a USD spot price for an asset from a book
// whose quote side is a stable asset (USDT/USDC/USD), returning 0 when
// the book's quote is not stable-denominated or the book has no best
// bid.
func StableQuotedPrice(book *arbmodel.NormalizedOrderBook) float64 {
	if book == nil {
		return 0
	}
	_, quote := arbmodel.Split(book.Symbol)
	switch quote {
	case "USDT", "USDC", "USD":
	default:
		return 0
	}
	bid, ok := book.BestBid()
	if !ok {
		return 0
	}
	return bid.Price
}
