package arbmodel

import "strings"

// quoteSuffixes is the closed set of recognized quote assets, ordered
// longest-first so suffix matching picks the longest match (e.g.
// "USDT" over "USD" for "BTCUSDT").
var quoteSuffixes = []string{
	"USDT", "USDC",
	"BNB", "SOL", "XRP", "DOT",
	"BTC", "ETH", "ADA", "AVAX",
	"LINK",
	"USD", "EUR",
}

func init() {
	// Longest-first ordering is an invariant of quoteSuffixes; keep it
	// correct even if entries are edited above.
	for i := 1; i < len(quoteSuffixes); i++ {
		for j := i; j > 0 && len(quoteSuffixes[j]) > len(quoteSuffixes[j-1]); j-- {
			quoteSuffixes[j], quoteSuffixes[j-1] = quoteSuffixes[j-1], quoteSuffixes[j]
		}
	}
}

// Split breaks an uppercase symbol like "BTCUSDT" into its base and
// quote asset, selecting the longest matching quote suffix. Symbols
// with no recognized suffix degrade to a ("BASE", "USDT") fallback so
// simulation can still proceed.
func Split(symbol string) (base, quote string) {
	sym := strings.ToUpper(symbol)
	for _, q := range quoteSuffixes {
		if strings.HasSuffix(sym, q) && len(sym) > len(q) {
			return sym[:len(sym)-len(q)], q
		}
	}
	return "BASE", "USDT"
}

// Normalize upper-cases a symbol for internal keying.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
