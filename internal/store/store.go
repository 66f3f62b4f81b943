// Package store owns the live instances of the engine.
//
// The Store assigns identities and indexes instances by id and name. Each
// instance lives in a Record that separates two locks: the operation lock
// serialises lifecycle operations (create, update scopes, destroy) on one
// instance, while the data lock protects the committed values so readers
// never wait for hooks or observers to finish.
package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/hangar/pkg/domain"
)

// TypeLookup resolves type names to descriptors.
type TypeLookup interface {
	Lookup(name string) (*domain.TypeDescriptor, error)
}

// Store owns every live instance.
type Store struct {
	types TypeLookup

	mu      sync.RWMutex
	records map[domain.ID]*Record
	names   map[string]domain.ID
	lastID  uint64
}

// New creates an empty store resolving types through types.
func New(types TypeLookup) *Store {
	return &Store{
		types:   types,
		records: make(map[domain.ID]*Record),
		names:   make(map[string]domain.ID),
	}
}

// Create allocates a new instance of typeName in the Constructing state.
// The record starts in PhaseBusy; the caller returns it to PhaseIdle once
// the construction hooks have run.
// Fails with domain.ErrTypeNotFound, domain.ErrFieldMismatch or domain.ErrNameInUse.
func (s *Store) Create(typeName, name string, values map[string]any) (*Record, error) {
	desc, err := s.types.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	conformed, err := desc.Conform(values)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if name != "" {
		if owner, taken := s.names[name]; taken {
			return nil, fmt.Errorf("%w: %q (instance %s)", domain.ErrNameInUse, name, owner)
		}
	}

	// Ids come from a counter that only moves forward, so they are never reused.
	s.lastID++
	id := domain.ID(s.lastID)

	rec := &Record{
		id:       id,
		name:     name,
		typeName: desc.Name,
		phase:    PhaseBusy,
		inst:     domain.NewInstance(desc, id, name, conformed),
	}
	s.records[id] = rec
	if name != "" {
		s.names[name] = id
	}
	return rec, nil
}

// Get returns the record for id, or domain.ErrNotFound.
func (s *Store) Get(id domain.ID) (*Record, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: instance %s", domain.ErrNotFound, id)
	}
	return rec, nil
}

// Resolve returns the record of the live instance named name.
func (s *Store) Resolve(name string) (*Record, error) {
	s.mu.RLock()
	id, ok := s.names[name]
	rec := s.records[id]
	s.mu.RUnlock()

	if !ok || rec == nil {
		return nil, fmt.Errorf("%w: instance %q", domain.ErrNotFound, name)
	}
	return rec, nil
}

// Remove deletes id from the store, frees its name and marks the record removed.
// The caller must hold the record's operation lock.
func (s *Store) Remove(id domain.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: instance %s", domain.ErrNotFound, id)
	}
	delete(s.records, id)
	if name := rec.name; name != "" && s.names[name] == id {
		delete(s.names, name)
	}
	rec.removed = true
	return nil
}

// List returns the records of typeName (or every type when empty) ordered by id.
func (s *Store) List(typeName string) []*Record {
	s.mu.RLock()
	out := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		if typeName == "" || rec.typeName == typeName {
			out = append(out, rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Len returns the number of live instances.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
