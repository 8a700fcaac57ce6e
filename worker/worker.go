// Package worker implements the Worker Loop (spec.md §4.7, C8): a
// long-running consumer that, for each delivered task, loads candidate
// packages, runs the enumeration engine, writes results to the cache,
// and acks — with bounded per-delivery concurrency.
package worker

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/AlfredDev/bestcombo/broker"
	"github.com/AlfredDev/bestcombo/cache"
	"github.com/AlfredDev/bestcombo/concurrency"
	"github.com/AlfredDev/bestcombo/engine"
	"github.com/AlfredDev/bestcombo/fingerprint"
	"github.com/AlfredDev/bestcombo/model"
	"github.com/AlfredDev/bestcombo/repository"
)

// Worker consumes task deliveries and populates the cache with their
// computed results.
type Worker struct {
	store          cache.Store
	repo           repository.PackageRepository
	sem            *concurrency.Semaphore
	useYearlyPrice bool
	log            zerolog.Logger

	inFlight  concurrency.AtomicCounter
	completed concurrency.AtomicCounter
}

// New builds a Worker with the given bounded concurrency cap.
func New(store cache.Store, repo repository.PackageRepository, concurrencyLimit int, useYearlyPrice bool, log zerolog.Logger) *Worker {
	return &Worker{
		store:          store,
		repo:           repo,
		sem:            concurrency.NewSemaphore(concurrencyLimit),
		useYearlyPrice: useYearlyPrice,
		log:            log,
	}
}

// Run consumes deliveries off ch until it closes or ctx is canceled,
// processing each one in its own goroutine bounded by the worker's
// concurrency cap. Run blocks until every in-flight delivery it
// accepted has finished, which gives callers a drain point for
// graceful shutdown (spec.md §9 open question 3).
//
// Canceling ctx only stops new deliveries from being accepted; tasks
// already in flight run to completion against a context of their own,
// per §9's "without requiring per-task cancellation."
func (w *Worker) Run(ctx context.Context, ch <-chan broker.Delivery) {
	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case delivery, ok := <-ch:
			if !ok {
				wg.Wait()
				return
			}
			w.sem.Acquire()
			w.inFlight.Inc()
			wg.Add(1)
			go func(d broker.Delivery) {
				defer wg.Done()
				defer w.sem.Release()
				defer w.inFlight.Dec()
				w.process(context.Background(), d)
				w.completed.Inc()
			}(delivery)
		}
	}
}

// Stats reports the worker's current in-flight and lifetime-completed
// task counts, suitable for health or readiness reporting.
func (w *Worker) Stats() (inFlight, completed int64) {
	return w.inFlight.Get(), w.completed.Get()
}

// process implements spec.md §4.7 steps 1-5 for a single delivery.
func (w *Worker) process(ctx context.Context, delivery broker.Delivery) {
	var payload model.TaskPayload
	if err := json.Unmarshal(delivery.Body, &payload); err != nil {
		w.log.Error().Err(err).Msg("task payload deserialization failed, leaving unacked")
		return
	}

	universe := sortedUnique(payload.GameIDs)

	subsets, err := w.repo.AggregateSubsetsByGameIDs(ctx, universe)
	if err != nil {
		w.log.Error().Err(err).Msg("repository aggregate failed, leaving unacked")
		return
	}

	results := engine.Run(universe, subsets, payload.Limit, w.useYearlyPrice)

	// The cache key is fingerprinted from the raw payload ids, not the
	// deduped universe: FingerprintKey identity is over the multiset of
	// ids (spec.md §4.1), and the Dispatcher wrote Processing under the
	// caller's raw (possibly-duplicate) id list. Deduping here would
	// address a different cache slot than the one holding Processing.
	key := fingerprint.New(payload.GameIDs, model.FetchOptions{Limit: payload.Limit, UseYearlyPrice: w.useYearlyPrice})
	if err := w.store.Put(ctx, key, cache.Ready[cache.Results](results)); err != nil {
		w.log.Error().Err(err).Msg("cache write failed, leaving unacked")
		return
	}

	if err := delivery.Ack(); err != nil {
		w.log.Error().Err(err).Msg("ack failed")
	}
}

// sortedUnique returns ids sorted ascending with duplicates removed,
// the Worker Loop's "universe = sorted_set(game_ids)" (spec.md §4.7
// step 3), for use as the engine/repository universe. The Dispatcher
// sorts its universe but keeps duplicates, so this is distinct from the
// cache key, which fingerprints the raw payload ids.
func sortedUnique(ids []model.GameID) []model.GameID {
	sorted := append([]model.GameID{}, ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	out := sorted[:0]
	for i, id := range sorted {
		if i == 0 || id != sorted[i-1] {
			out = append(out, id)
		}
	}
	return out
}
