// Package persistence durably records accepted opportunities and
// simulated trades and serves them back when the engine's in-memory
// rings are empty (spec.md §4.2, §9). Writes go through a bounded
// async Queue so a slow or unavailable database never blocks the
// engine's single-writer loop; reads go straight to the SQL store.
//
// Grounded on internal/persistence/postgres/trades_repo.go's
// sqlx.DB-plus-context-timeout shape, generalized to also drive
// modernc.org/sqlite for the zero-configuration default store.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/arbrun/simulator/internal/arbengine"
)

// Store wraps a sqlx.DB and implements arbengine.HistoricalStore.
// driver is either "postgres" or "sqlite", set at Open time so query
// placeholders can be rebound per backend.
type Store struct {
	db      *sqlx.DB
	driver  string
	timeout time.Duration
}

// Open connects to dsn using driver ("postgres" or "sqlite") and
// ensures the opportunities/trades tables exist.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver != "postgres" && driver != "sqlite" {
		return nil, fmt.Errorf("persistence: unsupported driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("persistence: connect: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db, driver: driver, timeout: 5 * time.Second}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("persistence: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS opportunities (
			id TEXT PRIMARY KEY,
			ts TIMESTAMP NOT NULL,
			status TEXT NOT NULL,
			reason TEXT NOT NULL,
			symbol TEXT NOT NULL,
			buy_venue TEXT NOT NULL,
			sell_venue TEXT NOT NULL,
			size_base DOUBLE PRECISION NOT NULL,
			gross_spread_pct DOUBLE PRECISION NOT NULL,
			net_spread_pct DOUBLE PRECISION NOT NULL,
			expected_profit_usd DOUBLE PRECISION NOT NULL,
			latency_ms BIGINT NOT NULL,
			buy_vwap DOUBLE PRECISION NOT NULL,
			sell_vwap DOUBLE PRECISION NOT NULL,
			buy_book_ts TIMESTAMP NOT NULL,
			sell_book_ts TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_opportunities_symbol_ts ON opportunities (symbol, ts DESC)`,
		`CREATE TABLE IF NOT EXISTS simulated_trades (
			id TEXT PRIMARY KEY,
			ts TIMESTAMP NOT NULL,
			symbol TEXT NOT NULL,
			buy_venue TEXT NOT NULL,
			sell_venue TEXT NOT NULL,
			size_base DOUBLE PRECISION NOT NULL,
			pnl_usd DOUBLE PRECISION NOT NULL,
			latency_ms BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_symbol_ts ON simulated_trades (symbol, ts DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertOpportunity persists one opportunity. Called only from the
// Queue's worker goroutine, never directly from the engine.
func (s *Store) InsertOpportunity(ctx context.Context, o arbengine.Opportunity) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := s.db.Rebind(`INSERT INTO opportunities
		(id, ts, status, reason, symbol, buy_venue, sell_venue, size_base, gross_spread_pct, net_spread_pct, expected_profit_usd, latency_ms, buy_vwap, sell_vwap, buy_book_ts, sell_book_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		o.ID, o.Timestamp, string(o.Status), string(o.Reason), o.Symbol, o.BuyVenue, o.SellVenue,
		o.SizeBase, o.GrossSpreadPct, o.NetSpreadPct, o.ExpectedProfitUSD, o.LatencyMS,
		o.BuyVWAP, o.SellVWAP, o.BuyBookTimestamp, o.SellBookTimestamp)
	if err != nil {
		return fmt.Errorf("insert opportunity: %w", err)
	}
	return nil
}

// InsertTrade persists one simulated trade.
func (s *Store) InsertTrade(ctx context.Context, t arbengine.SimulatedTrade) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := s.db.Rebind(`INSERT INTO simulated_trades
		(id, ts, symbol, buy_venue, sell_venue, size_base, pnl_usd, latency_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.Timestamp, t.Symbol, t.BuyVenue, t.SellVenue, t.SizeBase, t.PnLUSD, t.LatencyMS)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// ListOpportunities implements arbengine.HistoricalStore.
func (s *Store) ListOpportunities(ctx context.Context, limit int, symbols []string) ([]arbengine.Opportunity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query, args, err := symbolFilteredQuery(`SELECT id, ts, status, reason, symbol, buy_venue, sell_venue,
		size_base, gross_spread_pct, net_spread_pct, expected_profit_usd, latency_ms, buy_vwap, sell_vwap,
		buy_book_ts, sell_book_ts FROM opportunities`, symbols, limit)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()

	var out []arbengine.Opportunity
	for rows.Next() {
		var o arbengine.Opportunity
		var status, reason string
		if err := rows.Scan(&o.ID, &o.Timestamp, &status, &reason, &o.Symbol, &o.BuyVenue, &o.SellVenue,
			&o.SizeBase, &o.GrossSpreadPct, &o.NetSpreadPct, &o.ExpectedProfitUSD, &o.LatencyMS,
			&o.BuyVWAP, &o.SellVWAP, &o.BuyBookTimestamp, &o.SellBookTimestamp); err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		o.Status = arbengine.Status(status)
		o.Reason = arbengine.Reason(reason)
		out = append(out, o)
	}
	reverseOpportunities(out)
	return out, rows.Err()
}

// ListTrades implements arbengine.HistoricalStore.
func (s *Store) ListTrades(ctx context.Context, limit int, symbols []string) ([]arbengine.SimulatedTrade, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query, args, err := symbolFilteredQuery(`SELECT id, ts, symbol, buy_venue, sell_venue, size_base, pnl_usd, latency_ms
		FROM simulated_trades`, symbols, limit)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	defer rows.Close()

	var out []arbengine.SimulatedTrade
	for rows.Next() {
		var t arbengine.SimulatedTrade
		if err := rows.Scan(&t.ID, &t.Timestamp, &t.Symbol, &t.BuyVenue, &t.SellVenue, &t.SizeBase, &t.PnLUSD, &t.LatencyMS); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		out = append(out, t)
	}
	reverseTrades(out)
	return out, rows.Err()
}

// reverseOpportunities and reverseTrades flip the query's newest-first
// ORDER BY ts DESC result to the oldest-first ordering callers expect
// (spec.md §4.6), matching arbengine's in-memory ring buffer path.
func reverseOpportunities(s []arbengine.Opportunity) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseTrades(s []arbengine.SimulatedTrade) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func symbolFilteredQuery(base string, symbols []string, limit int) (string, []any, error) {
	query := base
	var args []any
	if len(symbols) > 0 {
		placeholders := make([]string, len(symbols))
		for i, sym := range symbols {
			placeholders[i] = "?"
			args = append(args, sym)
		}
		query += " WHERE symbol IN (" + joinPlaceholders(placeholders) + ")"
	}
	query += " ORDER BY ts DESC LIMIT ?"
	args = append(args, limit)
	return query, args, nil
}

func joinPlaceholders(ps []string) string {
	out := ps[0]
	for _, p := range ps[1:] {
		out += ", " + p
	}
	return out
}
