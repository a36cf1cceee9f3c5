package arbengine

import (
	"testing"
	"time"

	"github.com/arbrun/simulator/internal/arbmodel"
)

func book(venue, symbol string, bids, asks []arbmodel.OrderBookLevel) *arbmodel.NormalizedOrderBook {
	now := time.Now().UTC()
	return &arbmodel.NormalizedOrderBook{
		Venue: venue, Symbol: symbol,
		Bids: bids, Asks: asks,
		ExchangeTimestamp: now, ReceivedTimestamp: now,
	}
}

func lvl(p, q float64) arbmodel.OrderBookLevel { return arbmodel.OrderBookLevel{Price: p, Qty: q} }

func baseConfig() Config {
	return Config{
		TradeSize:      1.0,
		TransferCostUSD: 0.10,
		Fees:           map[string]float64{"A": 0.001, "B": 0.001},
	}
}

// newFundedEngine builds a two-venue engine whose wallets each hold 10
// BTC, so the sell-side base-balance check does not mask the outcome
// under test.
func newFundedEngine(cfg Config) *Engine {
	e := NewEngine(cfg, []string{"A", "B"}, []string{"BTC"}, nil, nil)
	for _, w := range e.wallets {
		w.Base["BTC"] = 10
	}
	return e
}

func TestEvaluatePair_ClearArbitrageAccepted(t *testing.T) {
	e := newFundedEngine(baseConfig())
	e.books[bookKey{"BTCUSDT", "A"}] = book("A", "BTCUSDT", []arbmodel.OrderBookLevel{lvl(99.9, 10)}, []arbmodel.OrderBookLevel{lvl(100.0, 10)})
	e.books[bookKey{"BTCUSDT", "B"}] = book("B", "BTCUSDT", []arbmodel.OrderBookLevel{lvl(101.0, 10)}, []arbmodel.OrderBookLevel{lvl(101.1, 10)})

	opp := e.evaluatePair("BTCUSDT", "A", "B", 0)
	if opp.Status != StatusAccepted {
		t.Fatalf("expected accepted, got %s/%s", opp.Status, opp.Reason)
	}
	if opp.BuyVWAP != 100.0 || opp.SellVWAP != 101.0 {
		t.Errorf("unexpected VWAPs: buy=%v sell=%v", opp.BuyVWAP, opp.SellVWAP)
	}
	wantProfit := (101*0.999 - 100*1.001) - 0.10
	if diff := opp.ExpectedProfitUSD - wantProfit; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected profit %v, got %v", wantProfit, opp.ExpectedProfitUSD)
	}

	reverse := e.evaluatePair("BTCUSDT", "B", "A", 0)
	if reverse.Status != StatusDiscarded || reverse.Reason != ReasonFeesAndTransferFiltered {
		t.Errorf("expected reverse discarded/fees_and_transfer_filtered, got %s/%s", reverse.Status, reverse.Reason)
	}
}

func TestEvaluatePair_InsufficientDepth(t *testing.T) {
	e := NewEngine(baseConfig(), []string{"A", "B"}, nil, nil, nil)
	e.books[bookKey{"BTCUSDT", "A"}] = book("A", "BTCUSDT", nil, []arbmodel.OrderBookLevel{lvl(100, 0.3)})
	e.books[bookKey{"BTCUSDT", "B"}] = book("B", "BTCUSDT", []arbmodel.OrderBookLevel{lvl(101, 10)}, nil)

	opp := e.evaluatePair("BTCUSDT", "A", "B", 0)
	if opp.Status != StatusInsufficientLiquidity || opp.Reason != ReasonInsufficientDepth {
		t.Fatalf("expected insufficient_liquidity/insufficient_depth, got %s/%s", opp.Status, opp.Reason)
	}
}

func TestEvaluatePair_InsufficientFunds(t *testing.T) {
	e := NewEngine(baseConfig(), []string{"A", "B"}, nil, nil, nil)
	e.books[bookKey{"BTCUSDT", "A"}] = book("A", "BTCUSDT", nil, []arbmodel.OrderBookLevel{lvl(100.0, 10)})
	e.books[bookKey{"BTCUSDT", "B"}] = book("B", "BTCUSDT", []arbmodel.OrderBookLevel{lvl(101.0, 10)}, nil)
	e.wallets["A"].QuoteBalance = 50

	opp := e.evaluatePair("BTCUSDT", "A", "B", 0)
	if opp.Status != StatusNoFunds || opp.Reason != ReasonInsufficientQuoteBal {
		t.Fatalf("expected no_funds/insufficient_quote_balance, got %s/%s", opp.Status, opp.Reason)
	}
}

func TestEvaluatePair_FeeFiltered(t *testing.T) {
	cfg := Config{TradeSize: 1.0, TransferCostUSD: 1.0, Fees: map[string]float64{"A": 0.001, "B": 0.001}}
	e := newFundedEngine(cfg)
	e.books[bookKey{"BTCUSDT", "A"}] = book("A", "BTCUSDT", nil, []arbmodel.OrderBookLevel{lvl(100.00, 10)})
	e.books[bookKey{"BTCUSDT", "B"}] = book("B", "BTCUSDT", []arbmodel.OrderBookLevel{lvl(100.05, 10)}, nil)

	opp := e.evaluatePair("BTCUSDT", "A", "B", 0)
	if opp.Status != StatusDiscarded || opp.Reason != ReasonFeesAndTransferFiltered {
		t.Fatalf("expected discarded/fees_and_transfer_filtered, got %s/%s profit=%v", opp.Status, opp.Reason, opp.ExpectedProfitUSD)
	}
	if opp.ExpectedProfitUSD >= 0 {
		t.Errorf("expected negative net profit, got %v", opp.ExpectedProfitUSD)
	}
}

func TestEvaluatePair_VolumeOverride(t *testing.T) {
	e := NewEngine(baseConfig(), []string{"A", "B"}, nil, nil, nil)
	e.books[bookKey{"BTCUSDT", "A"}] = book("A", "BTCUSDT", nil, []arbmodel.OrderBookLevel{lvl(100, 50)})
	e.books[bookKey{"BTCUSDT", "B"}] = book("B", "BTCUSDT", []arbmodel.OrderBookLevel{lvl(101, 50)}, nil)

	override := 1000.0
	e.SetSimulationVolumeUSD(&override)
	opp := e.evaluatePair("BTCUSDT", "A", "B", 0)
	if opp.SizeBase != 10 {
		t.Fatalf("expected override size 10, got %v", opp.SizeBase)
	}
}

func TestOnOrderBook_RingsBounded(t *testing.T) {
	e := NewEngine(baseConfig(), []string{"A", "B"}, nil, nil, nil)
	for i := 0; i < opportunityRingCapacity+50; i++ {
		e.OnOrderBook(book("A", "BTCUSDT", nil, []arbmodel.OrderBookLevel{lvl(100, 10)}))
		e.OnOrderBook(book("B", "BTCUSDT", []arbmodel.OrderBookLevel{lvl(101, 10)}, nil))
	}
	if e.opportunities.count > opportunityRingCapacity {
		t.Fatalf("ring grew beyond capacity: %d", e.opportunities.count)
	}
}
