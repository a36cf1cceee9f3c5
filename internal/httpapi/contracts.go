// Package httpapi exposes the simulator's HTTP and websocket
// surface: read-only snapshot/opportunity/trade listings, a control
// endpoint for symbol/venue reconfiguration, and a 1s push of the
// current snapshot over websocket (spec.md §7). Grounded on
// internal/interfaces/http/server.go's mux.Router-plus-middleware-
// chain shape and internal/http/contracts.go's response envelopes.
package httpapi

import "time"

// ErrorResponse is the standard error envelope for every endpoint.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse answers GET /healthz.
type HealthResponse struct {
	Status       string   `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	ActiveVenues []string `json:"active_venues"`
}

// WalletResponse mirrors arbengine.WalletView over the wire.
type WalletResponse struct {
	Venue        string             `json:"venue"`
	QuoteBalance float64            `json:"quote_balance_usd"`
	Base         map[string]float64 `json:"base_balances"`
	USDValue     float64            `json:"usd_value"`
	StatusHint   string             `json:"status_hint"`
}

// SnapshotResponse answers GET /snapshot and is also the payload
// pushed every second over the websocket stream.
type SnapshotResponse struct {
	Type          string                `json:"type"`
	Timestamp     time.Time             `json:"timestamp"`
	Symbol        string                `json:"symbol"`
	TotalPnLUSD   float64               `json:"total_pnl_usd"`
	BalanceUSD    float64               `json:"balance_usd"`
	Wallets       []WalletResponse      `json:"wallets"`
	LastOpportunity *OpportunityResponse `json:"last_opportunity,omitempty"`
	SpreadSeries  []MetricsSampleResponse `json:"spread_series"`
}

// OpportunityResponse mirrors arbengine.Opportunity over the wire.
type OpportunityResponse struct {
	ID                string    `json:"id"`
	Timestamp         time.Time `json:"timestamp"`
	Status            string    `json:"status"`
	Reason            string    `json:"reason"`
	Symbol            string    `json:"symbol"`
	BuyVenue          string    `json:"buy_venue"`
	SellVenue         string    `json:"sell_venue"`
	SizeBase          float64   `json:"size_base"`
	GrossSpreadPct    float64   `json:"gross_spread_pct"`
	NetSpreadPct      float64   `json:"net_spread_pct"`
	ExpectedProfitUSD float64   `json:"expected_profit_usd"`
	LatencyMS         int64     `json:"latency_ms"`
	BuyVWAP           float64   `json:"buy_vwap"`
	SellVWAP          float64   `json:"sell_vwap"`
}

// TradeResponse mirrors arbengine.SimulatedTrade over the wire.
type TradeResponse struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	BuyVenue  string    `json:"buy_venue"`
	SellVenue string    `json:"sell_venue"`
	SizeBase  float64   `json:"size_base"`
	PnLUSD    float64   `json:"pnl_usd"`
	LatencyMS int64     `json:"latency_ms"`
}

// MetricsSampleResponse mirrors arbengine.MetricsSample over the wire.
type MetricsSampleResponse struct {
	Timestamp    time.Time `json:"timestamp"`
	SpreadPct    float64   `json:"spread_pct"`
	Status       string    `json:"status"`
	Symbol       string    `json:"symbol"`
	TriggerVenue string    `json:"trigger_venue"`
	LatencyMS    int64     `json:"latency_ms"`
}

// OpportunitiesResponse answers GET /opportunities.
type OpportunitiesResponse struct {
	Opportunities []OpportunityResponse `json:"opportunities"`
	Generated     time.Time             `json:"generated"`
}

// TradesResponse answers GET /trades.
type TradesResponse struct {
	Trades    []TradeResponse `json:"trades"`
	Generated time.Time       `json:"generated"`
}

// ControlRequest is the POST /control body: a partial reconfiguration
// (spec.md §4.4). Zero-value fields are left unchanged.
type ControlRequest struct {
	Symbol          string `json:"symbol,omitempty"`
	Exchange        string `json:"exchange,omitempty"`
	ExchangeEnabled *bool  `json:"exchange_enabled,omitempty"`
}

// ControlResponse acknowledges a ControlRequest.
type ControlResponse struct {
	Applied   bool      `json:"applied"`
	Timestamp time.Time `json:"timestamp"`
}
