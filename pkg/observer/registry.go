package observer

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/aretw0/hangar/pkg/domain"
)

// Handle identifies a subscription.
type Handle uint64

// Callback receives matching events. A returned error is reported to the
// dispatcher but never interrupts delivery to other subscribers.
type Callback func(ctx context.Context, ev domain.Event) error

type entry struct {
	handle     Handle
	mask       domain.EventMask
	typeFilter string
	callback   Callback
	removed    atomic.Bool
}

func (e *entry) matches(ev *domain.Event) bool {
	if !e.mask.Has(ev.Kind) {
		return false
	}
	return e.typeFilter == "" || e.typeFilter == ev.Instance.Type
}

// Registry is a copy-on-write list of subscriptions.
type Registry struct {
	mu      sync.Mutex // serialises writers
	entries atomic.Pointer[[]*entry]
	nextID  atomic.Uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	empty := make([]*entry, 0)
	r.entries.Store(&empty)
	return r
}

// Subscribe registers cb for events whose kind is in mask and whose instance
// type equals typeFilter (an empty filter matches every type).
func (r *Registry) Subscribe(mask domain.EventMask, typeFilter string, cb Callback) (Handle, error) {
	if cb == nil {
		return 0, fmt.Errorf("nil observer callback")
	}
	if mask&domain.EventAll == 0 {
		return 0, fmt.Errorf("empty event mask")
	}

	e := &entry{
		handle:     Handle(r.nextID.Add(1)),
		mask:       mask,
		typeFilter: typeFilter,
		callback:   cb,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current := *r.entries.Load()
	next := make([]*entry, len(current), len(current)+1)
	copy(next, current)
	next = append(next, e)
	r.entries.Store(&next)

	return e.handle, nil
}

// Unsubscribe removes a subscription.
// Returns domain.ErrNotFound if the handle is unknown or already removed.
func (r *Registry) Unsubscribe(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := *r.entries.Load()
	for i, e := range current {
		if e.handle != h {
			continue
		}
		e.removed.Store(true)

		next := make([]*entry, 0, len(current)-1)
		next = append(next, current[:i]...)
		next = append(next, current[i+1:]...)
		r.entries.Store(&next)
		return nil
	}
	return fmt.Errorf("%w: subscription %d", domain.ErrNotFound, h)
}

// Len returns the number of active subscriptions.
func (r *Registry) Len() int {
	return len(*r.entries.Load())
}

// Dispatch delivers ev to every matching subscriber in subscription order and
// returns how many callbacks ran. If any callback failed, the error is a
// *DispatchError listing each failure.
func (r *Registry) Dispatch(ctx context.Context, ev domain.Event) (int, error) {
	snapshot := *r.entries.Load()

	var failures []Failure
	delivered := 0
	for _, e := range snapshot {
		if e.removed.Load() || !e.matches(&ev) {
			continue
		}
		delivered++
		if err := safeCall(ctx, e.callback, ev); err != nil {
			failures = append(failures, Failure{Handle: e.handle, Err: err})
		}
	}

	if len(failures) > 0 {
		return delivered, &DispatchError{Kind: ev.Kind, Failures: failures}
	}
	return delivered, nil
}

// safeCall invokes a callback and converts a panic into a *PanicError.
func safeCall(ctx context.Context, cb Callback, ev domain.Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()
	return cb(ctx, ev)
}
