package inventory

// StartingQuoteBalanceUSD is the fixed quote allocation given to every
// enabled venue at engine construction (spec.md §4.3).
const StartingQuoteBalanceUSD = 2000.0

// PerAssetAllocationUSD is the USD-equivalent allocation given to each
// base asset present in any configured symbol, priced against
// ReferencePrices to derive the starting unit balance.
const PerAssetAllocationUSD = 2000.0

// QuoteAsset is the designated settlement asset of every wallet.
const QuoteAsset = "USDT"

// Wallet is a venue's balance sheet: one quote balance plus a base
// balance per asset the engine has ever needed on that venue.
type Wallet struct {
	Venue        string
	QuoteBalance float64
	Base         map[string]float64
}

// NewWallet allocates a wallet with the fixed starting quote balance
// and, for each listed base asset, a reference-priced unit balance
// worth PerAssetAllocationUSD.
func NewWallet(venue string, baseAssets []string) *Wallet {
	w := &Wallet{
		Venue:        venue,
		QuoteBalance: StartingQuoteBalanceUSD,
		Base:         make(map[string]float64, len(baseAssets)),
	}
	for _, asset := range baseAssets {
		w.Base[asset] = PerAssetAllocationUSD / ReferencePrice(asset)
	}
	return w
}

// EnsureAsset adds a zero balance for an asset the wallet hasn't seen
// yet, so later debits/credits never need a presence check.
func (w *Wallet) EnsureAsset(asset string) {
	if _, ok := w.Base[asset]; !ok {
		w.Base[asset] = 0
	}
}

// USDValue estimates the wallet's total worth: quote balance plus each
// base balance priced at ReferencePrices.
func (w *Wallet) USDValue() float64 {
	total := w.QuoteBalance
	for asset, qty := range w.Base {
		total += qty * ReferencePrice(asset)
	}
	return total
}

// StatusHint classifies a wallet for the snapshot's at-a-glance health
// signal: "healthy" with a comfortable quote cushion, "low" once the
// quote balance falls under a fifth of the starting allocation.
func (w *Wallet) StatusHint() string {
	if w.QuoteBalance < StartingQuoteBalanceUSD*0.2 {
		return "low"
	}
	return "healthy"
}

// DebitQuote reduces the quote balance by amount; callers are
// expected to have already checked sufficiency under the engine lock.
func (w *Wallet) DebitQuote(amount float64) { w.QuoteBalance -= amount }

// CreditQuote increases the quote balance by amount.
func (w *Wallet) CreditQuote(amount float64) { w.QuoteBalance += amount }

// DebitBase reduces a base asset balance by qty.
func (w *Wallet) DebitBase(asset string, qty float64) {
	w.EnsureAsset(asset)
	w.Base[asset] -= qty
}

// CreditBase increases a base asset balance by qty.
func (w *Wallet) CreditBase(asset string, qty float64) {
	w.EnsureAsset(asset)
	w.Base[asset] += qty
}
