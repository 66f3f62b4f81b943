// Package runtime implements the lifecycle engine: it drives instances through
// construct, validate and define, manages update scopes, and dispatches the
// resulting events to observers.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/hangar/internal/logging"
	"github.com/aretw0/hangar/internal/store"
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/observer"
	"github.com/aretw0/hangar/pkg/registry"
)

// Engine is the core lifecycle runner.
type Engine struct {
	types     *registry.Registry
	store     *store.Store
	observers *observer.Registry
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	now       func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithTypeRegistry shares an existing type registry.
func WithTypeRegistry(types *registry.Registry) EngineOption {
	return func(e *Engine) {
		if types != nil {
			e.types = types
		}
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine with an empty type registry unless one is supplied.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		observers: observer.NewRegistry(),
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.types == nil {
		e.types = registry.NewRegistry()
	}
	e.store = store.New(e.types)
	return e
}

// RegisterType adds a type descriptor. Names are write-once.
func (e *Engine) RegisterType(desc *domain.TypeDescriptor) error {
	if err := e.types.Register(desc); err != nil {
		return err
	}
	e.logger.Debug("type registered", "type", desc.Name, "fields", len(desc.Fields))
	return nil
}

// Type returns a registered descriptor.
func (e *Engine) Type(name string) (*domain.TypeDescriptor, error) {
	return e.types.Lookup(name)
}

// Types returns every registered descriptor sorted by name.
func (e *Engine) Types() []*domain.TypeDescriptor {
	return e.types.List()
}

// Get returns a snapshot of the committed instance.
func (e *Engine) Get(id domain.ID) (domain.Instance, error) {
	rec, err := e.store.Get(id)
	if err != nil {
		return domain.Instance{}, err
	}
	return *rec.Snapshot(), nil
}

// Resolve returns a snapshot of the live instance with the given name.
func (e *Engine) Resolve(name string) (domain.Instance, error) {
	rec, err := e.store.Resolve(name)
	if err != nil {
		return domain.Instance{}, err
	}
	return *rec.Snapshot(), nil
}

// List returns snapshots of the instances of typeName (all types when empty), ordered by id.
func (e *Engine) List(typeName string) []domain.Instance {
	recs := e.store.List(typeName)
	out := make([]domain.Instance, 0, len(recs))
	for _, rec := range recs {
		out = append(out, *rec.Snapshot())
	}
	return out
}

// Subscribe registers an observer. See observer.Registry.Subscribe.
func (e *Engine) Subscribe(mask domain.EventMask, typeFilter string, cb observer.Callback) (observer.Handle, error) {
	if typeFilter != "" {
		if _, err := e.types.Lookup(typeFilter); err != nil {
			return 0, err
		}
	}
	return e.observers.Subscribe(mask, typeFilter, cb)
}

// Unsubscribe removes an observer. Returns domain.ErrNotFound if already removed.
func (e *Engine) Unsubscribe(h observer.Handle) error {
	return e.observers.Unsubscribe(h)
}

// CreateOption configures a single Create call.
type CreateOption func(*createConfig)

type createConfig struct {
	name string
}

// WithName gives the instance a unique name it can be resolved by.
func WithName(name string) CreateOption {
	return func(c *createConfig) {
		c.name = name
	}
}

// Create allocates an instance of typeName and runs its construct and
// validate hooks. Structural problems (unknown type, field mismatch, name in
// use) are returned as errors. A failed construct or validate hook is not an
// error: the instance is returned in the Invalid state with a Reason.
//
// When the instance is Valid, the define hook runs and a Define event is
// dispatched. Observer failures are returned as a *observer.DispatchError
// alongside the created instance.
func (e *Engine) Create(ctx context.Context, typeName string, values map[string]any, opts ...CreateOption) (domain.Instance, error) {
	var cfg createConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	rec, err := e.store.Create(typeName, cfg.name, values)
	if err != nil {
		return domain.Instance{}, err
	}

	hctx := enterHook(ctx, rec.ID())
	inst := rec.Snapshot()
	desc := inst.Descriptor()

	e.construct(hctx, desc, inst)
	if inst.State == domain.StateConstructing {
		e.validate(hctx, desc, inst)
	}
	rec.Commit(inst)

	e.logger.DebugContext(ctx, "instance created",
		"id", inst.ID, "type", inst.Type, "name", inst.Name, "state", inst.State)
	if inst.State == domain.StateInvalid {
		e.logger.InfoContext(ctx, "instance invalid", "id", inst.ID, "type", inst.Type, "reason", inst.Reason)
	}
	if e.hooks.OnCreate != nil {
		e.hooks.OnCreate(ctx, e.instanceEvent(inst))
	}

	var dispatchErr error
	if inst.Valid() {
		dispatchErr = e.define(hctx, rec, inst)
	}

	rec.Lock()
	rec.SetPhase(store.PhaseIdle)
	rec.Unlock()

	return *rec.Snapshot(), dispatchErr
}

// Destroy removes an instance. Destroying a defined instance dispatches a
// Delete event. Fails with domain.ErrNotFound, with domain.ErrScopeAlreadyOpen
// while an update scope is open or hooks are running, and with
// domain.ErrReentrantHookCall when called from the instance's own hooks.
func (e *Engine) Destroy(ctx context.Context, id domain.ID) error {
	if inHook(ctx, id) {
		return fmt.Errorf("%w: destroy instance %s", domain.ErrReentrantHookCall, id)
	}
	rec, err := e.store.Get(id)
	if err != nil {
		return err
	}

	rec.Lock()
	if err := checkAvailable(rec); err != nil {
		rec.Unlock()
		return err
	}
	if err := e.store.Remove(id); err != nil {
		rec.Unlock()
		return err
	}
	rec.Unlock()

	inst := rec.Snapshot()
	e.logger.DebugContext(ctx, "instance destroyed", "id", id, "type", inst.Type)
	if e.hooks.OnDestroy != nil {
		e.hooks.OnDestroy(ctx, e.instanceEvent(inst))
	}

	if !inst.Defined {
		return nil
	}
	return e.dispatch(enterHook(ctx, id), domain.Event{
		Kind:      domain.EventDelete,
		Instance:  *inst,
		Timestamp: e.now(),
	})
}

// checkAvailable fails unless the record is live and idle. Requires the operation lock.
func checkAvailable(rec *store.Record) error {
	if rec.Removed() {
		return fmt.Errorf("%w: instance %s", domain.ErrNotFound, rec.ID())
	}
	switch rec.Phase() {
	case store.PhaseScope:
		return fmt.Errorf("%w: instance %s", domain.ErrScopeAlreadyOpen, rec.ID())
	case store.PhaseBusy:
		return fmt.Errorf("%w: instance %s is running hooks", domain.ErrScopeAlreadyOpen, rec.ID())
	}
	return nil
}

func (e *Engine) instanceEvent(inst *domain.Instance) *domain.InstanceEvent {
	return &domain.InstanceEvent{
		Timestamp: e.now(),
		ID:        inst.ID,
		Type:      inst.Type,
		State:     inst.State,
		Reason:    inst.Reason,
	}
}
