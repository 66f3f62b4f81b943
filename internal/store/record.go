package store

import (
	"sync"

	"github.com/aretw0/hangar/pkg/domain"
)

// Phase is what a record is currently doing.
type Phase int

const (
	// PhaseIdle accepts any operation.
	PhaseIdle Phase = iota
	// PhaseScope has an update scope open and waits for it to close.
	PhaseScope
	// PhaseBusy is running hooks or dispatching events.
	PhaseBusy
)

// Scope is the open update window on a record.
type Scope struct {
	// Base holds the field values when the scope was opened.
	Base map[string]any
	// Work is the instance being mutated; it is committed when the scope closes.
	Work *domain.Instance
}

// Record holds one instance, its lifecycle phase and its update scope.
// The operation lock is only held for short transitions, never while hooks
// or observers run.
type Record struct {
	id       domain.ID
	name     string
	typeName string

	op sync.Mutex

	// Guarded by op.
	phase   Phase
	scope   *Scope
	removed bool

	mu   sync.RWMutex
	inst *domain.Instance
}

// ID returns the instance id. It never changes.
func (r *Record) ID() domain.ID {
	return r.id
}

// Type returns the instance type name.
func (r *Record) Type() string {
	return r.typeName
}

// Lock acquires the operation lock.
func (r *Record) Lock() { r.op.Lock() }

// Unlock releases the operation lock.
func (r *Record) Unlock() { r.op.Unlock() }

// Removed reports whether the record was destroyed. Requires the operation lock.
func (r *Record) Removed() bool { return r.removed }

// Phase returns the current phase. Requires the operation lock.
func (r *Record) Phase() Phase { return r.phase }

// SetPhase moves the record to p. Requires the operation lock.
func (r *Record) SetPhase(p Phase) { r.phase = p }

// Scope returns the open update scope, or nil. Requires the operation lock.
func (r *Record) Scope() *Scope { return r.scope }

// OpenScope starts an update window on a working copy of the committed values
// and moves the record to PhaseScope. Requires the operation lock.
func (r *Record) OpenScope() *Scope {
	work := r.Snapshot()
	base := make(map[string]any, len(work.Fields))
	for k, v := range work.Fields {
		base[k] = v
	}
	r.scope = &Scope{Base: base, Work: work}
	r.phase = PhaseScope
	return r.scope
}

// CloseScope drops the scope and returns the record to PhaseIdle.
// Requires the operation lock.
func (r *Record) CloseScope() {
	r.scope = nil
	r.phase = PhaseIdle
}

// Snapshot returns a deep copy of the committed instance.
func (r *Record) Snapshot() *domain.Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.inst.Clone()
}

// Commit replaces the committed instance with a copy of inst.
func (r *Record) Commit(inst *domain.Instance) {
	c := inst.Clone()
	r.mu.Lock()
	r.inst = c
	r.mu.Unlock()
}
