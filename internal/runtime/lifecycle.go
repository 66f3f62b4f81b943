package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/hangar/internal/store"
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/observer"
)

// construct runs the construct hook on inst. A failing hook, or a hook that
// leaves the fields out of shape, marks the instance Invalid.
func (e *Engine) construct(ctx context.Context, desc *domain.TypeDescriptor, inst *domain.Instance) {
	if desc.Hooks.Construct == nil {
		return
	}
	err := guard(func() error { return desc.Hooks.Construct(ctx, inst) })
	if err == nil {
		err = reconform(desc, inst)
	}
	if err != nil {
		inst.State = domain.StateInvalid
		inst.Reason = "construct: " + err.Error()
	}
}

// validate sets the instance state from the validate hook. No hook means Valid.
func (e *Engine) validate(ctx context.Context, desc *domain.TypeDescriptor, inst *domain.Instance) {
	var err error
	if desc.Hooks.Validate != nil {
		err = guard(func() error { return desc.Hooks.Validate(ctx, inst) })
	}
	if err != nil {
		inst.State = domain.StateInvalid
		inst.Reason = err.Error()
		return
	}
	inst.State = domain.StateValid
	inst.Reason = ""
}

// define marks inst as defined, runs the define hook, commits and dispatches
// the Define event. It is only called once per instance. The hook may change
// fields, so the instance is validated again; if the hook leaves it Invalid
// the new state is committed and no Define event is dispatched.
func (e *Engine) define(ctx context.Context, rec *store.Record, inst *domain.Instance) error {
	desc := inst.Descriptor()
	inst.Defined = true
	if desc.Hooks.Define != nil {
		if err := guard(func() error { desc.Hooks.Define(ctx, inst); return nil }); err != nil {
			e.logger.WarnContext(ctx, "define hook failed", "id", inst.ID, "type", inst.Type, "error", err)
		}
		if err := reconform(desc, inst); err != nil {
			inst.State = domain.StateInvalid
			inst.Reason = "define: " + err.Error()
		} else {
			e.validate(ctx, desc, inst)
		}
	}
	rec.Commit(inst)

	if !inst.Valid() {
		e.logger.InfoContext(ctx, "instance invalid after define hook", "id", inst.ID, "type", inst.Type, "reason", inst.Reason)
		return nil
	}
	return e.dispatch(ctx, domain.Event{
		Kind:      domain.EventDefine,
		Instance:  *rec.Snapshot(),
		Timestamp: e.now(),
	})
}

// dispatch delivers ev to the observers, logging and reporting failures.
func (e *Engine) dispatch(ctx context.Context, ev domain.Event) error {
	delivered, err := e.observers.Dispatch(ctx, ev)

	failed := 0
	var dispatchErr *observer.DispatchError
	if errors.As(err, &dispatchErr) {
		failed = len(dispatchErr.Failures)
		for _, f := range dispatchErr.Failures {
			e.logger.WarnContext(ctx, "observer failed",
				"event", ev.Kind.String(), "id", ev.Instance.ID, "handle", f.Handle, "error", f.Err)
		}
	}
	e.logger.DebugContext(ctx, "event dispatched",
		"event", ev.Kind.String(), "id", ev.Instance.ID, "type", ev.Instance.Type, "delivered", delivered)

	if e.hooks.OnDispatch != nil {
		e.hooks.OnDispatch(ctx, &domain.DispatchEvent{
			Timestamp: ev.Timestamp,
			Kind:      ev.Kind,
			Type:      ev.Instance.Type,
			Delivered: delivered,
			Failed:    failed,
		})
	}
	return err
}

// reconform checks that a hook left the fields in the shape of the type.
func reconform(desc *domain.TypeDescriptor, inst *domain.Instance) error {
	fields, err := desc.Conform(inst.Fields)
	if err != nil {
		return err
	}
	inst.Fields = fields
	return nil
}

// guard runs a user hook and turns a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook panicked: %v", r)
		}
	}()
	return fn()
}
