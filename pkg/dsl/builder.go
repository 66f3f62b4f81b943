package dsl

import (
	"fmt"

	"github.com/aretw0/hangar/pkg/domain"
)

// Registrar accepts type descriptors. *hangar.Hangar satisfies it.
type Registrar interface {
	RegisterType(desc *domain.TypeDescriptor) error
}

// Builder collects type declarations.
type Builder struct {
	order []string
	types map[string]*TypeBuilder
}

// New creates a new type builder.
func New() *Builder {
	return &Builder{
		types: make(map[string]*TypeBuilder),
	}
}

// Type starts declaring a type.
// If the type was already started, it returns the existing builder.
func (b *Builder) Type(name string) *TypeBuilder {
	if tb, ok := b.types[name]; ok {
		return tb
	}
	tb := newTypeBuilder(name)
	b.types[name] = tb
	b.order = append(b.order, name)
	return tb
}

// Build compiles every declared type in declaration order.
func (b *Builder) Build() ([]*domain.TypeDescriptor, error) {
	descs := make([]*domain.TypeDescriptor, 0, len(b.order))
	for _, name := range b.order {
		desc, err := b.types[name].Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build type %q: %w", name, err)
		}
		descs = append(descs, desc)
	}
	return descs, nil
}

// Register builds every type and registers it with r.
func (b *Builder) Register(r Registrar) error {
	descs, err := b.Build()
	if err != nil {
		return err
	}
	for _, desc := range descs {
		if err := r.RegisterType(desc); err != nil {
			return err
		}
	}
	return nil
}
