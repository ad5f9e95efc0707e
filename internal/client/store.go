package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/ledgerline/crm-api/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// RecordPtr constrains PT to a pointer to T carrying a BaseModel
type RecordPtr[T any] interface {
	*T
	domain.Record
}

// Store mirrors one API collection in memory.
//
// Loads are cached until forced: once a load has completed and data is held,
// Load is a no-op. Mutations patch the held list instead of re-fetching.
type Store[T any, PT RecordPtr[T]] struct {
	api      *APIClient
	resource Resource
	notifier Notifier
	logger   *zap.Logger

	loads singleflight.Group

	mu        sync.RWMutex
	items     []T
	loading   bool
	hasLoaded bool
	enrich    func(PT)

	// fetching counts loads in flight; while any runs, mutations are journaled
	// and replayed onto the snapshot it returns.
	fetching int
	journal  []mutation[T]
}

type mutationKind int

const (
	mutationAdd mutationKind = iota
	mutationUpdate
	mutationDelete
)

type mutation[T any] struct {
	kind mutationKind
	id   string
	row  T
}

// NewStore creates an empty store for res
func NewStore[T any, PT RecordPtr[T]](api *APIClient, res Resource, notifier Notifier, logger *zap.Logger) *Store[T, PT] {
	return &Store[T, PT]{
		api:      api,
		resource: res,
		notifier: notifier,
		logger:   logger.With(zap.String("store", res.Name)),
	}
}

// SetEnricher registers fn to fill derived fields on every row entering the store
func (s *Store[T, PT]) SetEnricher(fn func(PT)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrich = fn
}

// Items returns a copy of the held rows, nil before the first successful load
func (s *Store[T, PT]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.items == nil {
		return nil
	}
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Loading reports whether a load without held data is in progress
func (s *Store[T, PT]) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// HasLoaded reports whether a load has completed, successfully or not
func (s *Store[T, PT]) HasLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasLoaded
}

// Load fetches the collection. Concurrent calls share one request; a completed
// load with data is not repeated unless force is set. force always issues a
// request and defeats intermediate caches.
func (s *Store[T, PT]) Load(ctx context.Context, force bool) error {
	s.mu.Lock()
	if !force && s.hasLoaded && s.items != nil {
		s.mu.Unlock()
		return nil
	}
	if s.items == nil {
		s.loading = true
	}
	s.mu.Unlock()

	key := "load"
	if force {
		key = "force"
	}
	_, err, _ := s.loads.Do(key, func() (interface{}, error) {
		return nil, s.fetch(ctx, force)
	})
	return err
}

func (s *Store[T, PT]) fetch(ctx context.Context, force bool) error {
	s.mu.Lock()
	s.fetching++
	mark := len(s.journal)
	s.mu.Unlock()

	var rows []T
	err := s.api.List(ctx, s.resource, force, &rows)

	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.journal[mark:]
	s.fetching--
	if s.fetching == 0 {
		s.journal = nil
	}

	s.loading = false
	s.hasLoaded = true
	if err != nil {
		s.logger.Warn("failed to load "+s.resource.Name+" list", zap.Error(err))
		return err
	}
	if rows == nil {
		rows = make([]T, 0)
	}
	for i := range rows {
		s.enrichLocked(PT(&rows[i]))
	}
	s.items = replay[T, PT](rows, pending)
	return nil
}

// replay applies mutations that completed while rows was being fetched
func replay[T any, PT RecordPtr[T]](rows []T, pending []mutation[T]) []T {
	for _, m := range pending {
		idx := -1
		for i := range rows {
			if PT(&rows[i]).Base().ID == m.id {
				idx = i
				break
			}
		}
		switch {
		case m.kind == mutationDelete:
			if idx >= 0 {
				rows = append(rows[:idx:idx], rows[idx+1:]...)
			}
		case idx >= 0:
			rows[idx] = m.row
		case m.kind == mutationAdd:
			rows = append([]T{m.row}, rows...)
		}
	}
	return rows
}

// recordLocked journals m when a load is in flight
func (s *Store[T, PT]) recordLocked(m mutation[T]) {
	if s.fetching > 0 {
		s.journal = append(s.journal, m)
	}
}

func (s *Store[T, PT]) enrichLocked(row PT) {
	if s.enrich != nil {
		s.enrich(row)
	}
}

// Add creates row on the server and prepends the persisted row
func (s *Store[T, PT]) Add(ctx context.Context, row PT) (PT, error) {
	noticeID := uuid.NewString()
	s.notifier.Loading(noticeID, fmt.Sprintf("Adding %s...", s.resource.Name))

	saved := PT(new(T))
	if err := s.api.Create(ctx, s.resource, row, saved); err != nil {
		s.notifier.Failure(noticeID, failureMessage(err, fmt.Sprintf("Failed to add %s", s.resource.Name)))
		return nil, err
	}

	s.mu.Lock()
	s.enrichLocked(saved)
	s.items = append([]T{*saved}, s.items...)
	s.recordLocked(mutation[T]{kind: mutationAdd, id: saved.Base().ID, row: *saved})
	s.mu.Unlock()

	s.notifier.Success(noticeID, fmt.Sprintf("Added %s", s.resource.Name))
	return saved, nil
}

// Update saves row on the server and replaces the held row with the same id
func (s *Store[T, PT]) Update(ctx context.Context, row PT) (PT, error) {
	noticeID := uuid.NewString()
	s.notifier.Loading(noticeID, fmt.Sprintf("Updating %s...", s.resource.Name))

	saved := PT(new(T))
	if err := s.api.Update(ctx, s.resource, row, saved); err != nil {
		s.notifier.Failure(noticeID, failureMessage(err, fmt.Sprintf("Failed to update %s", s.resource.Name)))
		return nil, err
	}

	s.mu.Lock()
	s.enrichLocked(saved)
	id := saved.Base().ID
	for i := range s.items {
		if PT(&s.items[i]).Base().ID == id {
			s.items[i] = *saved
		}
	}
	s.recordLocked(mutation[T]{kind: mutationUpdate, id: id, row: *saved})
	s.mu.Unlock()

	s.notifier.Success(noticeID, fmt.Sprintf("Updated %s", s.resource.Name))
	return saved, nil
}

// Delete removes the row with id on the server and drops it from the store
func (s *Store[T, PT]) Delete(ctx context.Context, id string) error {
	noticeID := uuid.NewString()
	s.notifier.Loading(noticeID, fmt.Sprintf("Deleting %s...", s.resource.Name))

	if err := s.api.Delete(ctx, s.resource, id); err != nil {
		s.notifier.Failure(noticeID, failureMessage(err, fmt.Sprintf("Failed to delete %s", s.resource.Name)))
		return err
	}

	s.mu.Lock()
	if s.items != nil {
		kept := make([]T, 0, len(s.items))
		for i := range s.items {
			if PT(&s.items[i]).Base().ID != id {
				kept = append(kept, s.items[i])
			}
		}
		s.items = kept
	}
	s.recordLocked(mutation[T]{kind: mutationDelete, id: id})
	s.mu.Unlock()

	s.notifier.Success(noticeID, fmt.Sprintf("Deleted %s", s.resource.Name))
	return nil
}

// Reenrich reapplies the enricher to every held row
func (s *Store[T, PT]) Reenrich() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		s.enrichLocked(PT(&s.items[i]))
	}
}
