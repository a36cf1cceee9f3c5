package httpapi

import (
	"time"

	"github.com/arbrun/simulator/internal/arbengine"
)

func toWalletResponse(w arbengine.WalletView) WalletResponse {
	return WalletResponse{
		Venue:        w.Venue,
		QuoteBalance: w.QuoteBalance,
		Base:         w.Base,
		USDValue:     w.USDValue,
		StatusHint:   w.StatusHint,
	}
}

func toOpportunityResponse(o arbengine.Opportunity) OpportunityResponse {
	return OpportunityResponse{
		ID: o.ID, Timestamp: o.Timestamp, Status: string(o.Status), Reason: string(o.Reason),
		Symbol: o.Symbol, BuyVenue: o.BuyVenue, SellVenue: o.SellVenue, SizeBase: o.SizeBase,
		GrossSpreadPct: o.GrossSpreadPct, NetSpreadPct: o.NetSpreadPct, ExpectedProfitUSD: o.ExpectedProfitUSD,
		LatencyMS: o.LatencyMS, BuyVWAP: o.BuyVWAP, SellVWAP: o.SellVWAP,
	}
}

func toTradeResponse(t arbengine.SimulatedTrade) TradeResponse {
	return TradeResponse{
		ID: t.ID, Timestamp: t.Timestamp, Symbol: t.Symbol, BuyVenue: t.BuyVenue, SellVenue: t.SellVenue,
		SizeBase: t.SizeBase, PnLUSD: t.PnLUSD, LatencyMS: t.LatencyMS,
	}
}

func toMetricsSampleResponse(m arbengine.MetricsSample) MetricsSampleResponse {
	return MetricsSampleResponse{
		Timestamp: m.Timestamp, SpreadPct: m.SpreadPct, Status: string(m.Status),
		Symbol: m.Symbol, TriggerVenue: m.TriggerVenue, LatencyMS: m.LatencyMS,
	}
}

func toSnapshotResponse(s arbengine.Snapshot, spread []arbengine.MetricsSample, msgType, symbol string) SnapshotResponse {
	wallets := make([]WalletResponse, 0, len(s.Wallets))
	for _, venue := range s.Venues {
		if w, ok := s.Wallets[venue]; ok {
			wallets = append(wallets, toWalletResponse(w))
		}
	}
	series := make([]MetricsSampleResponse, 0, len(spread))
	for _, m := range spread {
		series = append(series, toMetricsSampleResponse(m))
	}
	var lastOpp *OpportunityResponse
	if s.LastOpportunity != nil {
		r := toOpportunityResponse(*s.LastOpportunity)
		lastOpp = &r
	}
	return SnapshotResponse{
		Type: msgType, Timestamp: time.Now().UTC(), Symbol: symbol,
		TotalPnLUSD: s.TotalPnLUSD, BalanceUSD: s.BalanceUSD,
		Wallets: wallets, LastOpportunity: lastOpp, SpreadSeries: series,
	}
}
