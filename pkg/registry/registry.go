package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/hangar/pkg/domain"
)

// Registry holds the registered type descriptors, keyed by name.
// Each name can be registered once; descriptors are read-only afterwards.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*domain.TypeDescriptor
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]*domain.TypeDescriptor),
	}
}

// Register validates and adds a descriptor.
// Returns domain.ErrTypeExists if the name is taken.
func (r *Registry) Register(desc *domain.TypeDescriptor) error {
	if desc == nil {
		return fmt.Errorf("nil type descriptor")
	}
	if err := desc.Check(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[desc.Name]; exists {
		return fmt.Errorf("%w: %s", domain.ErrTypeExists, desc.Name)
	}
	r.types[desc.Name] = desc
	return nil
}

// Lookup returns the descriptor registered under name.
// Returns domain.ErrTypeNotFound if there is none.
func (r *Registry) Lookup(name string) (*domain.TypeDescriptor, error) {
	r.mu.RLock()
	desc, ok := r.types[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTypeNotFound, name)
	}
	return desc, nil
}

// List returns all descriptors sorted by name.
func (r *Registry) List() []*domain.TypeDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.TypeDescriptor, 0, len(r.types))
	for _, d := range r.types {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
