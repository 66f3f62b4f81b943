package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/hangar/internal/store"
	"github.com/aretw0/hangar/pkg/domain"
)

// Scope is an open update window on one instance. Changes made through it
// become visible to readers when the scope is closed with EndUpdate.
type Scope struct {
	rec   *store.Record
	inner *store.Scope
}

// ID returns the instance the scope was opened on.
func (s *Scope) ID() domain.ID {
	return s.rec.ID()
}

// Set assigns a field on the working copy.
func (s *Scope) Set(field string, value any) error {
	s.rec.Lock()
	defer s.rec.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.inner.Work.Set(field, value)
}

// Get returns a field of the working copy.
func (s *Scope) Get(field string) (any, error) {
	s.rec.Lock()
	defer s.rec.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	v, ok := s.inner.Work.Value(field)
	if !ok {
		return nil, fmt.Errorf("%w: field %q", domain.ErrFieldMismatch, field)
	}
	return v, nil
}

// Add increments a numeric field by delta.
func (s *Scope) Add(field string, delta float64) error {
	s.rec.Lock()
	defer s.rec.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	f, ok := s.inner.Work.Descriptor().Field(field)
	if !ok {
		return fmt.Errorf("%w: field %q", domain.ErrFieldMismatch, field)
	}
	if err := f.Kind.CheckDelta(delta); err != nil {
		return fmt.Errorf("%w: field %q: %v", domain.ErrFieldMismatch, field, err)
	}
	switch v := s.inner.Work.Fields[field].(type) {
	case float64:
		return s.inner.Work.Set(field, v+delta)
	case int64:
		return s.inner.Work.Set(field, v+int64(delta))
	default:
		return fmt.Errorf("%w: field %q is not numeric", domain.ErrFieldMismatch, field)
	}
}

// Instance returns a copy of the working instance.
func (s *Scope) Instance() domain.Instance {
	s.rec.Lock()
	defer s.rec.Unlock()
	return *s.inner.Work.Clone()
}

// checkOpen requires the record's operation lock.
func (s *Scope) checkOpen() error {
	if s.rec.Removed() || s.rec.Phase() != store.PhaseScope || s.rec.Scope() != s.inner {
		return fmt.Errorf("%w: instance %s", domain.ErrScopeNotOpen, s.rec.ID())
	}
	return nil
}

// BeginUpdate opens an update scope on id and snapshots its field values.
// Fails with domain.ErrNotFound, domain.ErrScopeAlreadyOpen (a scope is open
// or hooks are running) or domain.ErrReentrantHookCall.
func (e *Engine) BeginUpdate(ctx context.Context, id domain.ID) (*Scope, error) {
	if inHook(ctx, id) {
		return nil, fmt.Errorf("%w: begin update on instance %s", domain.ErrReentrantHookCall, id)
	}
	rec, err := e.store.Get(id)
	if err != nil {
		return nil, err
	}

	rec.Lock()
	defer rec.Unlock()
	if err := checkAvailable(rec); err != nil {
		return nil, err
	}
	inner := rec.OpenScope()

	e.logger.DebugContext(ctx, "update scope opened", "id", id)
	return &Scope{rec: rec, inner: inner}, nil
}

// EndUpdate closes the update scope on id: it commits the working copy, runs
// the update hook, re-validates, fires Define if the instance just became
// Valid for the first time, and dispatches an Update event. Hooks cannot veto
// the update. The scope marker is cleared after dispatch.
//
// Fails with domain.ErrNotFound, domain.ErrScopeNotOpen or
// domain.ErrReentrantHookCall. Observer failures are returned as a
// *observer.DispatchError after the update has been committed.
func (e *Engine) EndUpdate(ctx context.Context, id domain.ID) error {
	if inHook(ctx, id) {
		return fmt.Errorf("%w: end update on instance %s", domain.ErrReentrantHookCall, id)
	}
	rec, err := e.store.Get(id)
	if err != nil {
		return err
	}

	rec.Lock()
	if rec.Removed() {
		rec.Unlock()
		return fmt.Errorf("%w: instance %s", domain.ErrNotFound, id)
	}
	if rec.Phase() != store.PhaseScope {
		rec.Unlock()
		return fmt.Errorf("%w: instance %s", domain.ErrScopeNotOpen, id)
	}
	scope := rec.Scope()
	rec.SetPhase(store.PhaseBusy)
	rec.Unlock()

	defer func() {
		rec.Lock()
		rec.CloseScope()
		rec.Unlock()
	}()

	hctx := enterHook(ctx, id)
	inst := scope.Work
	desc := inst.Descriptor()

	if desc.Hooks.Update != nil {
		if err := guard(func() error { desc.Hooks.Update(hctx, inst); return nil }); err != nil {
			e.logger.WarnContext(ctx, "update hook failed", "id", id, "type", inst.Type, "error", err)
		}
	}
	if err := reconform(desc, inst); err != nil {
		inst.State = domain.StateInvalid
		inst.Reason = "update: " + err.Error()
	} else {
		e.validate(hctx, desc, inst)
	}
	inst.Version++
	rec.Commit(inst)

	e.logger.DebugContext(ctx, "instance updated",
		"id", id, "type", inst.Type, "version", inst.Version, "state", inst.State)
	if e.hooks.OnUpdate != nil {
		e.hooks.OnUpdate(ctx, e.instanceEvent(inst))
	}

	var errs []error
	if inst.Valid() && !inst.Defined {
		if err := e.define(hctx, rec, inst); err != nil {
			errs = append(errs, err)
		}
	}

	committed := rec.Snapshot()
	if err := e.dispatch(hctx, domain.Event{
		Kind:      domain.EventUpdate,
		Instance:  *committed,
		Changes:   domain.Diff(scope.Base, committed.Fields),
		Timestamp: e.now(),
	}); err != nil {
		errs = append(errs, err)
	}

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}

// Update runs fn inside an update scope on id. If fn fails the scope is still
// closed (and the Update event dispatched) and fn's error is returned.
func (e *Engine) Update(ctx context.Context, id domain.ID, fn func(*Scope) error) error {
	scope, err := e.BeginUpdate(ctx, id)
	if err != nil {
		return err
	}
	fnErr := fn(scope)
	endErr := e.EndUpdate(ctx, id)
	if fnErr != nil {
		return fnErr
	}
	return endErr
}
