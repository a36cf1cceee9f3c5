package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultListLimit = 100

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:       "ok",
		Timestamp:    time.Now().UTC(),
		ActiveVenues: s.supervisor.ActiveVenues(),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotMessage("arbitrage_snapshot"))
}

func (s *Server) snapshotMessage(msgType string) SnapshotResponse {
	snap := s.engine.Snapshot()
	spread := s.engine.SpreadSeries(200)
	return toSnapshotResponse(snap, spread, msgType, s.currentSymbol())
}

func (s *Server) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, defaultListLimit)
	symbols := querySymbols(r)

	var volumeOverride float64
	if raw := r.URL.Query().Get("simulation_volume_usd"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			volumeOverride = v
		}
	}

	opps := s.engine.ListOpportunities(r.Context(), limit, symbols, volumeOverride)
	out := make([]OpportunityResponse, 0, len(opps))
	for _, o := range opps {
		out = append(out, toOpportunityResponse(o))
	}
	writeJSON(w, http.StatusOK, OpportunitiesResponse{Opportunities: out, Generated: time.Now().UTC()})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, defaultListLimit)
	symbols := querySymbols(r)

	trades := s.engine.ListTrades(r.Context(), limit, symbols)
	out := make([]TradeResponse, 0, len(trades))
	for _, t := range trades {
		out = append(out, toTradeResponse(t))
	}
	writeJSON(w, http.StatusOK, TradesResponse{Trades: out, Generated: time.Now().UTC()})
}

// handleControl applies a partial reconfiguration: switching the
// tracked symbol and/or enabling or disabling one venue (spec.md
// §4.4). Both the engine and the feed supervisor are updated so
// in-flight books and live connections stay consistent.
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	var req ControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}

	if req.Symbol != "" {
		s.setSymbol(req.Symbol)
		s.engine.SetSymbol(req.Symbol)
		s.supervisor.SetSymbol(r.Context(), req.Symbol)
	}
	if req.Exchange != "" && req.ExchangeEnabled != nil {
		s.engine.SetExchangeEnabled(req.Exchange, *req.ExchangeEnabled)
		s.supervisor.SetExchangeEnabled(r.Context(), req.Exchange, *req.ExchangeEnabled)
	}

	writeJSON(w, http.StatusOK, ControlResponse{Applied: true, Timestamp: time.Now().UTC()})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "not_found", "the requested endpoint does not exist")
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"json_encoding_failed"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID, _ := r.Context().Value(requestIDKey{}).(string)
	writeJSON(w, status, ErrorResponse{
		Error: http.StatusText(status), Message: message, Code: code,
		RequestID: requestID, Timestamp: time.Now().UTC(),
	})
}

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func querySymbols(r *http.Request) []string {
	raw := r.URL.Query().Get("symbols")
	if raw == "" {
		return nil
	}
	var out []string
	for _, sym := range strings.Split(raw, ",") {
		if sym = strings.TrimSpace(sym); sym != "" {
			out = append(out, sym)
		}
	}
	return out
}
