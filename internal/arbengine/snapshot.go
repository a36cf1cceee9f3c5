package arbengine

import "context"

// WalletView is the read-only projection of a wallet exposed on
// snapshots.
type WalletView struct {
	Venue        string
	QuoteBalance float64
	Base         map[string]float64
	USDValue     float64
	StatusHint   string
}

// Snapshot is the engine's read-only point-in-time view (spec.md
// §4.2's snapshot() contract).
type Snapshot struct {
	Venues            []string
	Wallets           map[string]WalletView
	LastOpportunity   *Opportunity
	TotalPnLUSD       float64
	BalanceUSD        float64
	SimVolumeOverride float64
}

// Snapshot acquires the engine lock and returns a point-in-time view
// of venues, wallets, and the most recent opportunity.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	wallets := make(map[string]WalletView, len(e.wallets))
	for venue, w := range e.wallets {
		baseCopy := make(map[string]float64, len(w.Base))
		for k, v := range w.Base {
			baseCopy[k] = v
		}
		wallets[venue] = WalletView{
			Venue:        venue,
			QuoteBalance: w.QuoteBalance,
			Base:         baseCopy,
			USDValue:     w.USDValue(),
			StatusHint:   w.StatusHint(),
		}
	}

	var lastOpp *Opportunity
	if e.lastOpp != nil {
		cp := *e.lastOpp
		lastOpp = &cp
	}

	return Snapshot{
		Venues:            append([]string(nil), e.venues...),
		Wallets:           wallets,
		LastOpportunity:   lastOpp,
		TotalPnLUSD:       e.totalPnLUSD,
		BalanceUSD:        e.balanceUSD,
		SimVolumeOverride: e.simVolumeOverrideUSD,
	}
}

// ListOpportunities returns up to limit most recent opportunities
// filtered by symbol. When simulationVolumeUSD > 0, current books are
// re-evaluated at that notional instead of reading the ring, and the
// persistent ring is never touched. An empty in-memory result with a
// configured store falls back to persistence, swallowing store
// errors to return an empty slice (spec.md §4.2/§7).
func (e *Engine) ListOpportunities(ctx context.Context, limit int, symbols []string, simulationVolumeUSD float64) []Opportunity {
	e.mu.Lock()
	if simulationVolumeUSD > 0 {
		defer e.mu.Unlock()
		return e.synthesizeOpportunities(limit, symbols, simulationVolumeUSD)
	}

	all := e.opportunities.recent(e.opportunities.count)
	filtered := filterOpportunities(all, symbols)
	if len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}
	store := e.store
	e.mu.Unlock()

	if len(filtered) > 0 || store == nil {
		return filtered
	}
	out, err := store.ListOpportunities(ctx, limit, symbols)
	if err != nil {
		return []Opportunity{}
	}
	return out
}

func (e *Engine) synthesizeOpportunities(limit int, symbols []string, notionalUSD float64) []Opportunity {
	bySymbol := make(map[string][]string)
	for k := range e.books {
		if len(symbols) > 0 && !containsString(symbols, k.symbol) {
			continue
		}
		bySymbol[k.symbol] = append(bySymbol[k.symbol], k.venue)
	}

	var out []Opportunity
	for symbol, venues := range bySymbol {
		for _, buy := range venues {
			for _, sell := range venues {
				if buy == sell {
					continue
				}
				out = append(out, e.evaluatePair(symbol, buy, sell, notionalUSD))
				if len(out) >= limit {
					return out
				}
			}
		}
	}
	return out
}

func containsString(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func filterOpportunities(all []Opportunity, symbols []string) []Opportunity {
	if len(symbols) == 0 {
		return all
	}
	out := make([]Opportunity, 0, len(all))
	for _, o := range all {
		if containsString(symbols, o.Symbol) {
			out = append(out, o)
		}
	}
	return out
}

// ListTrades returns up to limit most recent simulated trades
// filtered by symbol, falling back to persistence analogously to
// ListOpportunities.
func (e *Engine) ListTrades(ctx context.Context, limit int, symbols []string) []SimulatedTrade {
	e.mu.Lock()
	all := e.trades.recent(e.trades.count)
	store := e.store
	e.mu.Unlock()

	var filtered []SimulatedTrade
	if len(symbols) == 0 {
		filtered = all
	} else {
		for _, tr := range all {
			if containsString(symbols, tr.Symbol) {
				filtered = append(filtered, tr)
			}
		}
	}
	if len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}

	if len(filtered) > 0 || store == nil {
		return filtered
	}
	out, err := store.ListTrades(ctx, limit, symbols)
	if err != nil {
		return []SimulatedTrade{}
	}
	return out
}

// SpreadSeries returns up to limit most recent metrics samples.
func (e *Engine) SpreadSeries(limit int) []MetricsSample {
	e.mu.Lock()
	defer e.mu.Unlock()
	all := e.metrics.recent(e.metrics.count)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all
}
