package arbengine

import "context"

// Submitter is the narrow persistence-facing contract the engine uses
// to hand off accepted opportunities and simulated trades. Spec.md §9
// redesigns the teacher's duck-typed db/persistence collaborators into
// two explicit, optional (nil-disables) interfaces; this is the
// write-side half. Implementations must not block the caller.
type Submitter interface {
	SubmitOpportunity(o Opportunity)
	SubmitTrade(t SimulatedTrade)
}

// HistoricalStore is the read-side half: the durable query API the
// engine falls back to when its in-memory rings are empty (spec.md
// §4.2's list_opportunities/list_trades fallback).
type HistoricalStore interface {
	ListOpportunities(ctx context.Context, limit int, symbols []string) ([]Opportunity, error)
	ListTrades(ctx context.Context, limit int, symbols []string) ([]SimulatedTrade, error)
}
