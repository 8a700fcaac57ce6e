// Package dispatcher implements the Request Dispatcher (spec.md §4.5,
// C7): resolve a query's universe, probe the cache under its
// FingerprintKey, and on a miss enqueue a compute task and mark the key
// Processing.
package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/AlfredDev/bestcombo/apperr"
	"github.com/AlfredDev/bestcombo/broker"
	"github.com/AlfredDev/bestcombo/cache"
	"github.com/AlfredDev/bestcombo/fingerprint"
	"github.com/AlfredDev/bestcombo/model"
	"github.com/AlfredDev/bestcombo/repository"
)

// Status is one of the three response states spec.md §4.5 step 3/6
// returns to the caller.
type Status string

const (
	StatusReady      Status = "Ready"
	StatusProcessing Status = "Processing"
	StatusError      Status = "Error"
)

// Response is what Dispatch returns to the caller.
type Response struct {
	Status Status
	IDs    []model.GameID
	Data   cache.Results
}

// Query is the caller's request: an already-resolved universe, or
// team/tournament filters the Dispatcher resolves via the repository.
type Query struct {
	GameIDs     []model.GameID
	Teams       []string
	Tournaments []string
	Options     model.FetchOptions
}

// Dispatcher wires together the three collaborators named in spec.md
// §2's data flow for the Dispatcher path: cache, broker, and the
// repository's ancillary universe resolution.
type Dispatcher struct {
	store         cache.Store
	broker        broker.Client
	repo          repository.PackageRepository
	taskQueueName string
	log           zerolog.Logger
}

// New builds a Dispatcher over its collaborators.
func New(store cache.Store, brokerClient broker.Client, repo repository.PackageRepository, taskQueueName string, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:         store,
		broker:        brokerClient,
		repo:          repo,
		taskQueueName: taskQueueName,
		log:           log,
	}
}

// Dispatch implements the state flow of spec.md §4.5 steps 1-6.
func (d *Dispatcher) Dispatch(ctx context.Context, q Query) (Response, error) {
	universe, err := d.resolveUniverse(ctx, q)
	if err != nil {
		return Response{}, err
	}
	if len(universe) == 0 {
		return Response{}, fmt.Errorf("%w: empty universe", apperr.ErrUnknownInput)
	}

	key := fingerprint.New(universe, q.Options)

	entry, err := d.store.Get(ctx, key)
	if err != nil {
		d.log.Error().Err(err).Msg("cache get failed")
		return Response{Status: StatusError, IDs: universe}, nil
	}
	if entry != nil {
		if entry.Value.IsProcessing() {
			return Response{Status: StatusProcessing, IDs: universe}, nil
		}
		if data, ok := entry.Value.Data(); ok {
			return Response{Status: StatusReady, IDs: universe, Data: data}, nil
		}
	}

	if err := d.store.Put(ctx, key, cache.Processing[cache.Results]()); err != nil {
		d.log.Error().Err(err).Msg("cache put(Processing) failed")
		return Response{Status: StatusError, IDs: universe}, nil
	}

	payload := model.TaskPayload{GameIDs: universe, Limit: q.Options.Limit}
	if err := d.publish(ctx, payload); err != nil {
		d.log.Error().Err(err).Msg("task publish failed")
		return Response{Status: StatusError, IDs: universe}, nil
	}

	return Response{Status: StatusProcessing, IDs: universe}, nil
}

// resolveUniverse implements spec.md §4.5 step 1: a caller-supplied game
// id list is used directly; otherwise the repository resolves one from
// team/tournament filters. Either way the universe is returned sorted
// ascending, with any duplicate ids kept.
func (d *Dispatcher) resolveUniverse(ctx context.Context, q Query) ([]model.GameID, error) {
	if len(q.GameIDs) > 0 {
		universe := append([]model.GameID{}, q.GameIDs...)
		sort.Slice(universe, func(i, j int) bool { return universe[i] < universe[j] })
		return universe, nil
	}
	ids, err := d.repo.AggregateGameIDs(ctx, q.Teams, q.Tournaments)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve universe: %v", apperr.ErrStore, err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// publish serializes payload onto the task queue, per spec.md §4.5
// step 5. Publish-level transport failures are reported as
// PublishFailed (a TransportError subtype per spec.md §7); the
// Processing entry already written is left in place to TTL-expire.
func (d *Dispatcher) publish(ctx context.Context, payload model.TaskPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrSerialization, err)
	}
	if err := d.broker.Publish(ctx, d.taskQueueName, body); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrPublishFailed, err)
	}
	return nil
}
