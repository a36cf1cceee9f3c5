package feeds

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/arbrun/simulator/internal/arbmodel"
)

// EngineSink is the subset of arbengine.Engine the supervisor needs:
// a single ingestion point for every adapter's order books.
type EngineSink interface {
	OnOrderBook(book *arbmodel.NormalizedOrderBook)
}

// Factory builds an Adapter for one venue/symbol pair. The supervisor
// holds a Factory per venue rather than a live Adapter so it can
// rebuild the adapter cleanly on symbol changes (spec.md §4.4) instead
// of trying to mutate a running one.
type Factory func(symbol string) Adapter

type runningAdapter struct {
	adapter Adapter
	cancel  context.CancelFunc
}

// Supervisor owns the lifecycle of one Adapter per configured venue:
// starting, stopping, and swapping them as venues are enabled/disabled
// or the tracked symbol changes, fanning every book update into a
// single EngineSink. Grounded on internal/log/progress.go's StepLogger
// named-transition bookkeeping, adapted from one-shot CLI progress
// reporting into a long-lived state tracker logged through zerolog
// rather than printed to a terminal.
type Supervisor struct {
	mu       sync.Mutex
	sink     EngineSink
	symbol   string
	factories map[string]Factory
	running   map[string]*runningAdapter
}

// NewSupervisor builds a feed supervisor that delivers every adapter's
// books to sink, initially tracking symbol.
func NewSupervisor(sink EngineSink, symbol string) *Supervisor {
	return &Supervisor{
		sink:      sink,
		symbol:    symbol,
		factories: make(map[string]Factory),
		running:   make(map[string]*runningAdapter),
	}
}

// AddVenue registers factory under venue and starts it immediately
// against the currently tracked symbol.
func (s *Supervisor) AddVenue(ctx context.Context, venue string, factory Factory) {
	s.mu.Lock()
	s.factories[venue] = factory
	symbol := s.symbol
	s.mu.Unlock()

	s.startVenue(ctx, venue, symbol)
}

// SetExchangeEnabled starts or stops the named venue's adapter without
// touching any other venue.
func (s *Supervisor) SetExchangeEnabled(ctx context.Context, venue string, enabled bool) {
	if !enabled {
		s.stopVenue(venue)
		return
	}
	s.mu.Lock()
	symbol := s.symbol
	_, alreadyRunning := s.running[venue]
	s.mu.Unlock()
	if !alreadyRunning {
		s.startVenue(ctx, venue, symbol)
	}
}

// SetSymbol stops every running adapter and restarts them against the
// new symbol (spec.md §4.4: a symbol change clears in-flight books and
// reconnects every feed from scratch).
func (s *Supervisor) SetSymbol(ctx context.Context, symbol string) {
	s.mu.Lock()
	s.symbol = symbol
	venues := make([]string, 0, len(s.factories))
	for venue := range s.factories {
		venues = append(venues, venue)
	}
	s.mu.Unlock()

	for _, venue := range venues {
		s.stopVenue(venue)
		s.startVenue(ctx, venue, symbol)
	}
}

func (s *Supervisor) startVenue(ctx context.Context, venue, symbol string) {
	s.mu.Lock()
	factory, ok := s.factories[venue]
	if !ok {
		s.mu.Unlock()
		return
	}
	if _, running := s.running[venue]; running {
		s.mu.Unlock()
		return
	}
	adapter := factory(symbol)
	runCtx, cancel := context.WithCancel(ctx)
	s.running[venue] = &runningAdapter{adapter: adapter, cancel: cancel}
	s.mu.Unlock()

	log.Info().Str("venue", venue).Str("symbol", symbol).Msg("starting feed adapter")
	if err := adapter.Start(runCtx, s.sink.OnOrderBook); err != nil {
		log.Error().Str("venue", venue).Err(err).Msg("feed adapter failed to start")
		s.mu.Lock()
		delete(s.running, venue)
		s.mu.Unlock()
	}
}

func (s *Supervisor) stopVenue(venue string) {
	s.mu.Lock()
	ra, ok := s.running[venue]
	if ok {
		delete(s.running, venue)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	log.Info().Str("venue", venue).Msg("stopping feed adapter")
	ra.cancel()
	ra.adapter.Stop()
}

// StopAll stops every running adapter. Used on process shutdown.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	venues := make([]string, 0, len(s.running))
	for venue := range s.running {
		venues = append(venues, venue)
	}
	s.mu.Unlock()

	for _, venue := range venues {
		s.stopVenue(venue)
	}
}

// ActiveVenues returns the venues currently running an adapter.
func (s *Supervisor) ActiveVenues() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.running))
	for venue := range s.running {
		out = append(out, venue)
	}
	return out
}
