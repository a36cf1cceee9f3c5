package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/arbrun/simulator/internal/arbengine"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return &Store{db: sqlx.NewDb(db, "sqlmock"), driver: "sqlite", timeout: 5 * time.Second}, mock
}

func sampleOpportunity() arbengine.Opportunity {
	now := time.Now().UTC()
	return arbengine.Opportunity{
		ID: "opp-1", Timestamp: now, Status: arbengine.StatusAccepted, Reason: arbengine.ReasonProfitable,
		Symbol: "BTCUSDT", BuyVenue: "binance", SellVenue: "kraken", SizeBase: 1,
		GrossSpreadPct: 1, NetSpreadPct: 0.8, ExpectedProfitUSD: 5, LatencyMS: 10,
		BuyVWAP: 100, SellVWAP: 101, BuyBookTimestamp: now, SellBookTimestamp: now,
	}
}

func TestStoreInsertOpportunity(t *testing.T) {
	store, mock := newMockStore(t)
	o := sampleOpportunity()

	mock.ExpectExec("INSERT INTO opportunities").WithArgs(
		o.ID, o.Timestamp, string(o.Status), string(o.Reason), o.Symbol, o.BuyVenue, o.SellVenue,
		o.SizeBase, o.GrossSpreadPct, o.NetSpreadPct, o.ExpectedProfitUSD, o.LatencyMS,
		o.BuyVWAP, o.SellVWAP, o.BuyBookTimestamp, o.SellBookTimestamp,
	).WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.InsertOpportunity(context.Background(), o); err != nil {
		t.Fatalf("InsertOpportunity: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStoreInsertTrade(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	tr := arbengine.SimulatedTrade{ID: "trade-1", Timestamp: now, Symbol: "BTCUSDT", BuyVenue: "binance", SellVenue: "kraken", SizeBase: 1, PnLUSD: 3, LatencyMS: 5}

	mock.ExpectExec("INSERT INTO simulated_trades").WithArgs(
		tr.ID, tr.Timestamp, tr.Symbol, tr.BuyVenue, tr.SellVenue, tr.SizeBase, tr.PnLUSD, tr.LatencyMS,
	).WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.InsertTrade(context.Background(), tr); err != nil {
		t.Fatalf("InsertTrade: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStoreListOpportunitiesFiltersBySymbol(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	cols := []string{"id", "ts", "status", "reason", "symbol", "buy_venue", "sell_venue",
		"size_base", "gross_spread_pct", "net_spread_pct", "expected_profit_usd", "latency_ms",
		"buy_vwap", "sell_vwap", "buy_book_ts", "sell_book_ts"}
	rows := sqlmock.NewRows(cols).AddRow(
		"opp-1", now, "accepted", "profitable", "BTCUSDT", "binance", "kraken",
		1.0, 1.0, 0.8, 5.0, int64(10), 100.0, 101.0, now, now)

	mock.ExpectQuery("SELECT (.+) FROM opportunities WHERE symbol IN").
		WithArgs("BTCUSDT", 10).
		WillReturnRows(rows)

	out, err := store.ListOpportunities(context.Background(), 10, []string{"BTCUSDT"})
	if err != nil {
		t.Fatalf("ListOpportunities: %v", err)
	}
	if len(out) != 1 || out[0].ID != "opp-1" {
		t.Fatalf("unexpected result: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStoreListTradesNoFilter(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	cols := []string{"id", "ts", "symbol", "buy_venue", "sell_venue", "size_base", "pnl_usd", "latency_ms"}
	rows := sqlmock.NewRows(cols).AddRow("trade-1", now, "BTCUSDT", "binance", "kraken", 1.0, 3.0, int64(5))

	mock.ExpectQuery("SELECT (.+) FROM simulated_trades").
		WithArgs(25).
		WillReturnRows(rows)

	out, err := store.ListTrades(context.Background(), 25, nil)
	if err != nil {
		t.Fatalf("ListTrades: %v", err)
	}
	if len(out) != 1 || out[0].ID != "trade-1" {
		t.Fatalf("unexpected result: %+v", out)
	}
}
