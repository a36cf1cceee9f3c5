package persistence

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/arbrun/simulator/internal/arbengine"
)

// DefaultQueueCapacity bounds how many unwritten records the Queue
// will buffer before it starts dropping the newest ones rather than
// blocking the engine (spec.md §9: persistence must be non-blocking).
const DefaultQueueCapacity = 5000

type writeJob struct {
	opportunity *arbengine.Opportunity
	trade       *arbengine.SimulatedTrade
}

// writer is the narrow persistence contract Queue drains into; *Store
// satisfies it. Kept separate from arbengine.HistoricalStore/Submitter
// so tests can substitute a recording fake without a real database.
type writer interface {
	InsertOpportunity(ctx context.Context, o arbengine.Opportunity) error
	InsertTrade(ctx context.Context, t arbengine.SimulatedTrade) error
}

// Queue is a bounded, lossy async writer implementing
// arbengine.Submitter: SubmitOpportunity/SubmitTrade never block,
// dropping the incoming record (and logging a warning) when the
// buffer is full. A single worker goroutine drains it into the
// underlying Store, generalizing
// internal/infrastructure/async/pipeline.go's buffered-channel-plus-
// worker shape down to one stage with no retry (a failed write is
// logged and the record is simply lost, matching spec.md's "best
// effort" persistence tier).
type Queue struct {
	jobs chan writeJob
	wg   sync.WaitGroup
}

// NewQueue starts capacity-bounded async writes against store.
func NewQueue(ctx context.Context, store *Store, capacity int) *Queue {
	return newQueue(ctx, store, capacity)
}

func newQueue(ctx context.Context, store writer, capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	q := &Queue{jobs: make(chan writeJob, capacity)}
	q.wg.Add(1)
	go q.run(ctx, store)
	return q
}

func (q *Queue) run(ctx context.Context, store writer) {
	defer q.wg.Done()
	for job := range q.jobs {
		switch {
		case job.opportunity != nil:
			if err := store.InsertOpportunity(ctx, *job.opportunity); err != nil {
				log.Warn().Err(err).Str("id", job.opportunity.ID).Msg("persist opportunity failed")
			}
		case job.trade != nil:
			if err := store.InsertTrade(ctx, *job.trade); err != nil {
				log.Warn().Err(err).Str("id", job.trade.ID).Msg("persist trade failed")
			}
		}
	}
}

// SubmitOpportunity implements arbengine.Submitter.
func (q *Queue) SubmitOpportunity(o arbengine.Opportunity) {
	select {
	case q.jobs <- writeJob{opportunity: &o}:
	default:
		log.Warn().Str("id", o.ID).Msg("persistence queue full, dropping opportunity")
	}
}

// SubmitTrade implements arbengine.Submitter.
func (q *Queue) SubmitTrade(t arbengine.SimulatedTrade) {
	select {
	case q.jobs <- writeJob{trade: &t}:
	default:
		log.Warn().Str("id", t.ID).Msg("persistence queue full, dropping trade")
	}
}

// Close stops accepting new writes and waits for the worker to drain
// whatever is already queued.
func (q *Queue) Close() {
	close(q.jobs)
	q.wg.Wait()
}

var _ arbengine.Submitter = (*Queue)(nil)
