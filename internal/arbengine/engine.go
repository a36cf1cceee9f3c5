package arbengine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/arbrun/simulator/internal/arbmodel"
	"github.com/arbrun/simulator/internal/inventory"
)

const (
	opportunityRingCapacity = 600
	tradeRingCapacity       = 300
	metricsRingCapacity     = 600
)

type bookKey struct {
	symbol string
	venue  string
}

// Engine is the single-writer arbitrage evaluator (spec.md §4.2). All
// state mutation happens under mu; feed callbacks invoke OnOrderBook
// concurrently and serialization happens here.
type Engine struct {
	mu sync.Mutex

	cfg     Config
	books   map[bookKey]*arbmodel.NormalizedOrderBook
	venues  []string
	wallets map[string]*inventory.Wallet

	simVolumeOverrideUSD float64 // <= 0 means unset

	opportunities *ring[Opportunity]
	trades        *ring[SimulatedTrade]
	metrics       *ring[MetricsSample]
	lastOpp       *Opportunity

	totalPnLUSD float64
	balanceUSD  float64

	submitter Submitter
	store     HistoricalStore
}

// NewEngine constructs an engine with one wallet per enabled venue,
// seeded per spec.md §4.3. baseAssets lists every base asset that may
// appear across configured symbols, so every wallet starts funded for
// every asset the evaluator might need.
func NewEngine(cfg Config, venues []string, baseAssets []string, submitter Submitter, store HistoricalStore) *Engine {
	e := &Engine{
		cfg:           cfg,
		books:         make(map[bookKey]*arbmodel.NormalizedOrderBook),
		venues:        append([]string(nil), venues...),
		wallets:       make(map[string]*inventory.Wallet, len(venues)),
		opportunities: newRing[Opportunity](opportunityRingCapacity),
		trades:        newRing[SimulatedTrade](tradeRingCapacity),
		metrics:       newRing[MetricsSample](metricsRingCapacity),
		balanceUSD:    cfg.StartingBalanceUSD,
		submitter:     submitter,
		store:         store,
	}
	for _, v := range venues {
		e.wallets[v] = inventory.NewWallet(v, baseAssets)
	}
	return e
}

// SetSimulationVolumeUSD sets a non-negative USD-notional override, or
// clears it when v is nil or <= 0 (spec.md §4.2 step 1).
func (e *Engine) SetSimulationVolumeUSD(v *float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v == nil || *v <= 0 {
		e.simVolumeOverrideUSD = 0
		return
	}
	e.simVolumeOverrideUSD = *v
}

// SetSymbol clears cached books for every venue so a subsequent set of
// feed restarts (owned by the caller — typically internal/feeds'
// supervisor) starts from a clean book map. Inventory is untouched
// (spec.md §4.4).
func (e *Engine) SetSymbol(symbol string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k := range e.books {
		delete(e.books, k)
	}
	_ = symbol // retained for caller bookkeeping / future multi-symbol gating
}

// SetExchangeEnabled drops cached books for a disabled venue; callers
// are responsible for rebuilding feed adapters around the new venue
// set (spec.md §4.4). The venue's wallet is retained so re-enabling it
// later resumes with its prior balances.
func (e *Engine) SetExchangeEnabled(venue string, enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if enabled {
		if _, ok := e.wallets[venue]; !ok {
			e.wallets[venue] = inventory.NewWallet(venue, nil)
		}
		if !contains(e.venues, venue) {
			e.venues = append(e.venues, venue)
		}
		return
	}
	for k := range e.books {
		if k.venue == venue {
			delete(e.books, k)
		}
	}
	e.venues = remove(e.venues, venue)
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func remove(xs []string, x string) []string {
	out := xs[:0]
	for _, v := range xs {
		if v != x {
			out = append(out, v)
		}
	}
	return out
}

// OnOrderBook accepts one normalized book, replaces state for
// (book.Symbol, book.Venue), and evaluates every directed pair on that
// symbol while the lock is held (spec.md §4.2/§5).
func (e *Engine) OnOrderBook(book *arbmodel.NormalizedOrderBook) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := bookKey{symbol: book.Symbol, venue: book.Venue}
	cp := *book
	cp.Bids = append([]arbmodel.OrderBookLevel(nil), book.Bids...)
	cp.Asks = append([]arbmodel.OrderBookLevel(nil), book.Asks...)
	e.books[key] = &cp

	if _, ok := e.wallets[book.Venue]; !ok {
		e.wallets[book.Venue] = inventory.NewWallet(book.Venue, nil)
	}

	e.evaluateSymbol(book.Symbol)
}

// evaluateSymbol iterates every directed venue pair present for
// symbol and records an opportunity for each (spec.md §4.2).
func (e *Engine) evaluateSymbol(symbol string) {
	var venuesWithBook []string
	for k := range e.books {
		if k.symbol == symbol {
			venuesWithBook = append(venuesWithBook, k.venue)
		}
	}

	for _, buyVenue := range venuesWithBook {
		for _, sellVenue := range venuesWithBook {
			if buyVenue == sellVenue {
				continue
			}
			opp := e.evaluatePair(symbol, buyVenue, sellVenue, 0)
			e.recordOpportunity(opp)
		}
	}
}

// evaluatePair runs the 8-step evaluation of spec.md §4.2 for one
// directed pair. notionalOverrideUSD > 0 re-prices size for ad-hoc
// listing queries without touching wallets or depth.
func (e *Engine) evaluatePair(symbol, buyVenue, sellVenue string, notionalOverrideUSD float64) Opportunity {
	now := time.Now().UTC()
	buyBook := e.books[bookKey{symbol, buyVenue}]
	sellBook := e.books[bookKey{symbol, sellVenue}]

	opp := Opportunity{
		ID:        uuid.NewString(),
		Timestamp: now,
		Symbol:    symbol,
		BuyVenue:  buyVenue,
		SellVenue: sellVenue,
	}
	if buyBook != nil {
		opp.BuyBookTimestamp = buyBook.ReceivedTimestamp
	}
	if sellBook != nil {
		opp.SellBookTimestamp = sellBook.ReceivedTimestamp
	}
	opp.LatencyMS = latencyMS(now, opp.BuyBookTimestamp, opp.SellBookTimestamp)

	if buyBook == nil || sellBook == nil {
		opp.Status, opp.Reason = StatusDiscarded, ReasonInvalidTradeSize
		return opp
	}

	bestAsk, hasAsk := buyBook.BestAsk()
	if !hasAsk || bestAsk.Price <= 0 {
		opp.Status, opp.Reason = StatusDiscarded, ReasonInvalidTradeSize
		return opp
	}

	// Step 1: size.
	size := e.cfg.TradeSize
	volOverride := notionalOverrideUSD
	if volOverride <= 0 {
		volOverride = e.simVolumeOverrideUSD
	}
	if volOverride > 0 {
		size = volOverride / bestAsk.Price
	}
	if size <= 0 {
		opp.Status, opp.Reason = StatusDiscarded, ReasonInvalidTradeSize
		return opp
	}

	// Step 2: VWAP both sides.
	buyFill := walkVWAP(buyBook.Asks, size)
	sellFill := walkVWAP(sellBook.Bids, size)
	filled := buyFill.Filled
	if sellFill.Filled < filled {
		filled = sellFill.Filled
	}
	opp.SizeBase = size
	opp.BuyVWAP = buyFill.VWAP
	opp.SellVWAP = sellFill.VWAP
	if filled < size {
		opp.Status, opp.Reason = StatusInsufficientLiquidity, ReasonInsufficientDepth
		return opp
	}

	// Step 3: fees.
	buyFee := e.cfg.FeeFor(buyVenue)
	sellFee := e.cfg.FeeFor(sellVenue)
	buyUnitWithFee := buyFill.VWAP * (1 + buyFee)
	sellUnitAfterFee := sellFill.VWAP * (1 - sellFee)

	// Step 4: transfer cost.
	base, _ := arbmodel.Split(symbol)
	transferCost := e.cfg.TransferCostUSD
	if transferCost <= 0 {
		transferCost = inventory.TransferCostUSD(base, inventory.StableQuotedPrice(buyBook))
	}

	// Step 5: net profit.
	netProfit := (sellUnitAfterFee-buyUnitWithFee)*size - transferCost

	// Step 6: liquidity-available checks against the buy venue wallet.
	buyWallet := e.wallets[buyVenue]
	sellWallet := e.wallets[sellVenue]
	buyCost := buyUnitWithFee * size
	if buyWallet != nil && buyCost > buyWallet.QuoteBalance {
		opp.Status, opp.Reason = StatusNoFunds, ReasonInsufficientQuoteBal
		opp.ExpectedProfitUSD = netProfit
		opp.GrossSpreadPct = grossSpreadPct(buyFill.VWAP, sellFill.VWAP)
		return opp
	}
	if sellWallet != nil && sellWallet.Base[base] < size {
		opp.Status, opp.Reason = StatusNoFunds, ReasonInsufficientBaseBal
		opp.ExpectedProfitUSD = netProfit
		opp.GrossSpreadPct = grossSpreadPct(buyFill.VWAP, sellFill.VWAP)
		return opp
	}

	// Step 7/8: classify.
	opp.GrossSpreadPct = grossSpreadPct(buyFill.VWAP, sellFill.VWAP)
	opp.ExpectedProfitUSD = netProfit
	if netProfit <= 0 {
		opp.Status, opp.Reason = StatusDiscarded, ReasonFeesAndTransferFiltered
		return opp
	}
	opp.Status, opp.Reason = StatusAccepted, ReasonProfitable
	opp.NetSpreadPct = netProfit / buyCost * 100

	if notionalOverrideUSD <= 0 {
		e.maybeSimulate(opp, buyBook, sellBook, buyWallet, sellWallet, base, buyCost, sellUnitAfterFee*size)
	}
	return opp
}

func grossSpreadPct(buyVWAP, sellVWAP float64) float64 {
	if buyVWAP <= 0 {
		return 0
	}
	return (sellVWAP - buyVWAP) / buyVWAP * 100
}

func latencyMS(now, buyTS, sellTS time.Time) int64 {
	ref := buyTS
	if sellTS.After(ref) {
		ref = sellTS
	}
	if ref.IsZero() {
		return 0
	}
	d := now.Sub(ref).Milliseconds()
	if d < 0 {
		d = 0
	}
	return d
}

func (e *Engine) recordOpportunity(opp Opportunity) {
	e.opportunities.push(opp)
	e.lastOpp = &opp
	e.metrics.push(MetricsSample{
		Timestamp:    opp.Timestamp,
		SpreadPct:    opp.GrossSpreadPct,
		Status:       opp.Status,
		Reason:       opp.Reason,
		Symbol:       opp.Symbol,
		TriggerVenue: opp.BuyVenue,
		LatencyMS:    opp.LatencyMS,
	})
	if opp.Status == StatusAccepted && e.submitter != nil {
		e.submitter.SubmitOpportunity(opp)
	}
}

// maybeSimulate executes the simulated trade of spec.md §4.2's
// "Simulation" subsection when auto-simulation is enabled, the
// evaluation was accepted, and the profit clears the configured
// threshold.
func (e *Engine) maybeSimulate(opp Opportunity, buyBook, sellBook *arbmodel.NormalizedOrderBook, buyWallet, sellWallet *inventory.Wallet, base string, buyCost, sellValue float64) {
	if !e.cfg.AutoSimulateExecution || opp.Status != StatusAccepted {
		return
	}
	if opp.ExpectedProfitUSD < e.cfg.OpportunityThresholdUSD {
		return
	}
	if buyWallet == nil || sellWallet == nil {
		return
	}

	if shortfall := buyCost - buyWallet.QuoteBalance; shortfall > 0 {
		if !e.attemptQuoteTransfer(sellWallet, buyWallet, shortfall) {
			log.Debug().Str("symbol", opp.Symbol).Str("buy", opp.BuyVenue).Msg("simulation abandoned: quote transfer insufficient")
			return
		}
	}
	if shortfall := opp.SizeBase - sellWallet.Base[base]; shortfall > 0 {
		if !e.attemptBaseTransfer(buyWallet, sellWallet, base, shortfall) {
			log.Debug().Str("symbol", opp.Symbol).Str("sell", opp.SellVenue).Msg("simulation abandoned: base transfer insufficient")
			return
		}
	}

	buyWallet.DebitQuote(buyCost)
	sellWallet.CreditQuote(sellValue)
	buyWallet.CreditBase(base, opp.SizeBase)
	sellWallet.DebitBase(base, opp.SizeBase)

	if buyBook != nil {
		buyBook.Asks = reserveDepth(buyBook.Asks, opp.SizeBase)
	}
	if sellBook != nil {
		sellBook.Bids = reserveDepth(sellBook.Bids, opp.SizeBase)
	}

	e.totalPnLUSD += opp.ExpectedProfitUSD
	e.balanceUSD += opp.ExpectedProfitUSD

	trade := SimulatedTrade{
		ID:        uuid.NewString(),
		Timestamp: opp.Timestamp,
		Symbol:    opp.Symbol,
		BuyVenue:  opp.BuyVenue,
		SellVenue: opp.SellVenue,
		SizeBase:  opp.SizeBase,
		PnLUSD:    opp.ExpectedProfitUSD,
		LatencyMS: opp.LatencyMS,
	}
	e.trades.push(trade)
	if e.submitter != nil {
		e.submitter.SubmitTrade(trade)
	}
}

// attemptQuoteTransfer moves exactly the shortfall amount of quote
// asset from src to dst, applying its transfer cost to aggregate PnL,
// and reports whether dst now holds enough.
func (e *Engine) attemptQuoteTransfer(src, dst *inventory.Wallet, shortfall float64) bool {
	if src.QuoteBalance < shortfall {
		return false
	}
	cost := inventory.TransferCostUSD(inventory.QuoteAsset, 1.0)
	src.DebitQuote(shortfall)
	dst.CreditQuote(shortfall)
	e.totalPnLUSD -= cost
	e.balanceUSD -= cost
	return true
}

// attemptBaseTransfer moves exactly the shortfall amount of a base
// asset from src to dst, applying its transfer cost to aggregate PnL.
func (e *Engine) attemptBaseTransfer(src, dst *inventory.Wallet, asset string, shortfall float64) bool {
	if src.Base[asset] < shortfall {
		return false
	}
	cost := inventory.TransferCostUSD(asset, 0)
	src.DebitBase(asset, shortfall)
	dst.CreditBase(asset, shortfall)
	e.totalPnLUSD -= cost
	e.balanceUSD -= cost
	return true
}

// RebalanceQuotes runs the quote-rebalance routine of spec.md §4.5
// across every known wallet.
func (e *Engine) RebalanceQuotes() inventory.RebalanceReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	report := inventory.RebalanceQuotes(e.wallets)
	e.totalPnLUSD -= report.TransferCostsUSD
	e.balanceUSD -= report.TransferCostsUSD
	return report
}
