package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/hangar/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[domain.ID]*domain.Instance
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[domain.ID]*domain.Instance),
	}
}

// Save persists a copy of the snapshot.
func (s *Store) Save(ctx context.Context, inst *domain.Instance) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := inst.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[inst.ID] = copied
	return nil
}

// Load retrieves a snapshot.
func (s *Store) Load(ctx context.Context, id domain.ID) (*domain.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.data[id]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}

	// Copy on read so callers can't mutate the stored snapshot
	return inst.Clone(), nil
}

// Delete removes a snapshot.
func (s *Store) Delete(ctx context.Context, id domain.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the stored ids in ascending order.
func (s *Store) List(ctx context.Context) ([]domain.ID, error) {
	s.mu.RLock()
	ids := make([]domain.ID, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
