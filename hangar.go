package hangar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/hangar/internal/logging"
	"github.com/aretw0/hangar/internal/runtime"
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/observer"
	"github.com/aretw0/hangar/pkg/schema"
)

// Hangar is the high-level entry point for the library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Hangar struct {
	runtime *runtime.Engine
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	clock   func() time.Time
	Name    string
}

// Scope is an open update window on an instance. See BeginUpdate.
type Scope = runtime.Scope

// CreateOption configures a single Create call.
type CreateOption = runtime.CreateOption

// Option defines a functional option for configuring a Hangar.
type Option func(*Hangar)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(h *Hangar) {
		h.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hangar) {
		h.logger = logger
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(h *Hangar) {
		h.clock = now
	}
}

// WithLabel names the hangar. The label is attached to every log record.
func WithLabel(name string) Option {
	return func(h *Hangar) {
		h.Name = name
	}
}

// WithName gives the created instance a unique name it can be resolved by.
func WithName(name string) CreateOption {
	return runtime.WithName(name)
}

// New initializes an empty Hangar.
func New(opts ...Option) *Hangar {
	h := &Hangar{}
	for _, opt := range opts {
		opt(h)
	}

	// Ensure logger is initialized (so we don't pass nil to runtime)
	if h.logger == nil {
		h.logger = logging.NewNop()
	}
	if h.Name != "" {
		h.logger = h.logger.With("hangar", h.Name)
	}

	h.runtime = runtime.NewEngine(
		runtime.WithLifecycleHooks(h.hooks),
		runtime.WithLogger(h.logger),
		runtime.WithClock(h.clock),
	)
	return h
}

// RegisterType adds a type descriptor. Names are write-once.
func (h *Hangar) RegisterType(desc *domain.TypeDescriptor) error {
	return h.runtime.RegisterType(desc)
}

// Type returns a registered descriptor.
func (h *Hangar) Type(name string) (*domain.TypeDescriptor, error) {
	return h.runtime.Type(name)
}

// Types returns every registered descriptor sorted by name.
func (h *Hangar) Types() []*domain.TypeDescriptor {
	return h.runtime.Types()
}

// Create allocates an instance and drives it through construct and validate.
// An instance that fails validation is returned in the Invalid state, not as
// an error.
func (h *Hangar) Create(ctx context.Context, typeName string, values map[string]any, opts ...CreateOption) (domain.Instance, error) {
	return h.runtime.Create(ctx, typeName, values, opts...)
}

// Destroy removes an instance.
func (h *Hangar) Destroy(ctx context.Context, id domain.ID) error {
	return h.runtime.Destroy(ctx, id)
}

// Get returns a snapshot of an instance.
func (h *Hangar) Get(id domain.ID) (domain.Instance, error) {
	return h.runtime.Get(id)
}

// Resolve returns a snapshot of the instance with the given name.
func (h *Hangar) Resolve(name string) (domain.Instance, error) {
	return h.runtime.Resolve(name)
}

// List returns snapshots of the instances of typeName, or all when empty.
func (h *Hangar) List(typeName string) []domain.Instance {
	return h.runtime.List(typeName)
}

// BeginUpdate opens an update scope.
func (h *Hangar) BeginUpdate(ctx context.Context, id domain.ID) (*Scope, error) {
	return h.runtime.BeginUpdate(ctx, id)
}

// EndUpdate commits the open update scope and dispatches the Update event.
func (h *Hangar) EndUpdate(ctx context.Context, id domain.ID) error {
	return h.runtime.EndUpdate(ctx, id)
}

// Update runs fn inside an update scope.
func (h *Hangar) Update(ctx context.Context, id domain.ID, fn func(*Scope) error) error {
	return h.runtime.Update(ctx, id, fn)
}

// Subscribe registers an observer for the kinds in mask.
// An empty typeFilter matches every type.
func (h *Hangar) Subscribe(mask domain.EventMask, typeFilter string, cb observer.Callback) (observer.Handle, error) {
	return h.runtime.Subscribe(mask, typeFilter, cb)
}

// Unsubscribe removes an observer.
func (h *Hangar) Unsubscribe(handle observer.Handle) error {
	return h.runtime.Unsubscribe(handle)
}

// Observe starts a fluent subscription:
//
//	h.Observe(domain.EventDefine | domain.EventUpdate).Type("Drone").Callback(fn)
func (h *Hangar) Observe(mask domain.EventMask) *ObserverBuilder {
	return &ObserverBuilder{h: h, mask: mask}
}

// ObserverBuilder collects subscription parameters.
type ObserverBuilder struct {
	h          *Hangar
	mask       domain.EventMask
	typeFilter string
}

// Type restricts the subscription to instances of one type.
func (b *ObserverBuilder) Type(name string) *ObserverBuilder {
	b.typeFilter = name
	return b
}

// Callback completes the subscription.
func (b *ObserverBuilder) Callback(cb observer.Callback) (observer.Handle, error) {
	return b.h.Subscribe(b.mask, b.typeFilter, cb)
}

// Apply registers the document's types and creates its instances in order.
// See ApplyTypes and ApplyInstances.
func (h *Hangar) Apply(ctx context.Context, doc *schema.Document) ([]domain.Instance, error) {
	if err := h.ApplyTypes(doc); err != nil {
		return nil, err
	}
	return h.ApplyInstances(ctx, doc)
}

// ApplyTypes registers the document's types. Types that are already
// registered are reported as domain.ErrTypeExists.
func (h *Hangar) ApplyTypes(doc *schema.Document) error {
	descs, err := doc.Descriptors()
	if err != nil {
		return err
	}
	for _, desc := range descs {
		if err := h.RegisterType(desc); err != nil {
			return err
		}
	}
	return nil
}

// ApplyInstances creates the document's instances in order. Observer
// failures do not stop the remaining instances from being created; they are
// joined into the returned error.
func (h *Hangar) ApplyInstances(ctx context.Context, doc *schema.Document) ([]domain.Instance, error) {
	created := make([]domain.Instance, 0, len(doc.Instances))
	var dispatchErrs []error
	for i, spec := range doc.Instances {
		inst, err := h.Create(ctx, spec.Type, spec.Values, WithName(spec.Name))
		var dispatchErr *observer.DispatchError
		switch {
		case err == nil:
		case errors.As(err, &dispatchErr):
			dispatchErrs = append(dispatchErrs, err)
		default:
			return created, fmt.Errorf("instances[%d]: %w", i, err)
		}
		created = append(created, inst)
	}
	return created, errors.Join(dispatchErrs...)
}

// LoadSchema loads a schema file and applies it.
func (h *Hangar) LoadSchema(ctx context.Context, path string) (*schema.Document, []domain.Instance, error) {
	doc, err := schema.Load(path)
	if err != nil {
		return nil, nil, err
	}
	created, err := h.Apply(ctx, doc)
	return doc, created, err
}
