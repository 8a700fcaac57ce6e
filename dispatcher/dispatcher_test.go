package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/AlfredDev/bestcombo/apperr"
	"github.com/AlfredDev/bestcombo/broker"
	"github.com/AlfredDev/bestcombo/cache"
	"github.com/AlfredDev/bestcombo/fingerprint"
	"github.com/AlfredDev/bestcombo/model"
)

// fakeStore is an in-memory cache.Store double, mirroring the
// substitutable-backend shape the teacher uses for its analytics sinks.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string]cache.Entry[cache.Results]
	getErr  error
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]cache.Entry[cache.Results])}
}

func (s *fakeStore) Put(_ context.Context, key fingerprint.Key, value cache.Value[cache.Results]) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key.CacheAddress()] = cache.Entry[cache.Results]{Key: key, Value: value}
	return nil
}

func (s *fakeStore) Get(_ context.Context, key fingerprint.Key) (*cache.Entry[cache.Results], error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key.CacheAddress()]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

var _ cache.Store = (*fakeStore)(nil)

// fakeBroker is an in-memory broker.Client double.
type fakeBroker struct {
	mu         sync.Mutex
	published  [][]byte
	publishErr error
}

func (b *fakeBroker) DeclareQueue(context.Context, string) error { return nil }

func (b *fakeBroker) Publish(_ context.Context, _ string, payload []byte) error {
	if b.publishErr != nil {
		return b.publishErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, payload)
	return nil
}

func (b *fakeBroker) Consume(context.Context, string, string) (<-chan broker.Delivery, error) {
	return make(chan broker.Delivery), nil
}

func (b *fakeBroker) Close() error { return nil }

var _ broker.Client = (*fakeBroker)(nil)

// fakeRepo is an in-memory repository.PackageRepository double.
type fakeRepo struct {
	gameIDs []model.GameID
	err     error
}

func (r *fakeRepo) AggregateSubsetsByGameIDs(context.Context, []model.GameID) ([]model.Subset, error) {
	return nil, nil
}

func (r *fakeRepo) AggregateGameIDs(context.Context, []string, []string) ([]model.GameID, error) {
	return r.gameIDs, r.err
}

func TestDispatchMissPublishesAndMarksProcessing(t *testing.T) {
	store := newFakeStore()
	brk := &fakeBroker{}
	d := New(store, brk, &fakeRepo{}, "tasks", zerolog.Nop())

	resp, err := d.Dispatch(context.Background(), Query{GameIDs: []model.GameID{3, 1, 2}, Options: model.FetchOptions{Limit: 5}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != StatusProcessing {
		t.Fatalf("expected Processing, got %v", resp.Status)
	}
	if len(brk.published) != 1 {
		t.Fatalf("expected exactly one published task, got %d", len(brk.published))
	}

	key := fingerprint.New([]model.GameID{1, 2, 3}, model.FetchOptions{Limit: 5})
	entry, err := store.Get(context.Background(), key)
	if err != nil || entry == nil || !entry.Value.IsProcessing() {
		t.Fatalf("expected cache to hold Processing after dispatch, got entry=%+v err=%v", entry, err)
	}
}

func TestDispatchHitProcessingReturnsProcessing(t *testing.T) {
	store := newFakeStore()
	brk := &fakeBroker{}
	d := New(store, brk, &fakeRepo{}, "tasks", zerolog.Nop())

	key := fingerprint.New([]model.GameID{1}, model.FetchOptions{Limit: 5})
	_ = store.Put(context.Background(), key, cache.Processing[cache.Results]())

	resp, err := d.Dispatch(context.Background(), Query{GameIDs: []model.GameID{1}, Options: model.FetchOptions{Limit: 5}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != StatusProcessing {
		t.Fatalf("expected Processing, got %v", resp.Status)
	}
	if len(brk.published) != 0 {
		t.Fatalf("expected no publish on a Processing hit, got %d", len(brk.published))
	}
}

func TestDispatchHitReadyReturnsData(t *testing.T) {
	store := newFakeStore()
	brk := &fakeBroker{}
	d := New(store, brk, &fakeRepo{}, "tasks", zerolog.Nop())

	key := fingerprint.New([]model.GameID{1}, model.FetchOptions{Limit: 5})
	want := cache.Results{{CombinedCoveragePercent: 100}}
	_ = store.Put(context.Background(), key, cache.Ready(want))

	resp, err := d.Dispatch(context.Background(), Query{GameIDs: []model.GameID{1}, Options: model.FetchOptions{Limit: 5}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != StatusReady {
		t.Fatalf("expected Ready, got %v", resp.Status)
	}
	if len(resp.Data) != 1 || resp.Data[0].CombinedCoveragePercent != 100 {
		t.Fatalf("unexpected returned data: %+v", resp.Data)
	}
}

func TestDispatchEmptyUniverseFailsWithUnknownInput(t *testing.T) {
	d := New(newFakeStore(), &fakeBroker{}, &fakeRepo{}, "tasks", zerolog.Nop())

	_, err := d.Dispatch(context.Background(), Query{Options: model.FetchOptions{Limit: 5}})
	if err == nil {
		t.Fatalf("expected an error for an empty universe")
	}
	if !errors.Is(err, apperr.ErrUnknownInput) {
		t.Fatalf("expected an UnknownInput error, got %v", err)
	}
}

func TestDispatchPublishFailureReturnsErrorStatus(t *testing.T) {
	store := newFakeStore()
	brk := &fakeBroker{publishErr: errors.New("boom")}
	d := New(store, brk, &fakeRepo{}, "tasks", zerolog.Nop())

	resp, err := d.Dispatch(context.Background(), Query{GameIDs: []model.GameID{1}, Options: model.FetchOptions{Limit: 5}})
	if err != nil {
		t.Fatalf("publish failures are reported via Status, not error: %v", err)
	}
	if resp.Status != StatusError {
		t.Fatalf("expected Error status, got %v", resp.Status)
	}

	key := fingerprint.New([]model.GameID{1}, model.FetchOptions{Limit: 5})
	entry, _ := store.Get(context.Background(), key)
	if entry == nil || !entry.Value.IsProcessing() {
		t.Fatalf("expected the Processing entry to be left in place after a publish failure")
	}
}

func TestDispatchResolvesUniverseFromFilters(t *testing.T) {
	store := newFakeStore()
	brk := &fakeBroker{}
	repo := &fakeRepo{gameIDs: []model.GameID{5, 2}}
	d := New(store, brk, repo, "tasks", zerolog.Nop())

	resp, err := d.Dispatch(context.Background(), Query{Teams: []string{"A"}, Options: model.FetchOptions{Limit: 5}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.IDs) != 2 || resp.IDs[0] != 2 || resp.IDs[1] != 5 {
		t.Fatalf("expected resolved universe sorted ascending, got %v", resp.IDs)
	}
}
