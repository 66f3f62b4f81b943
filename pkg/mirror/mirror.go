package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/hangar/internal/logging"
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/observer"
	"github.com/aretw0/hangar/pkg/ports"
)

// Source is the event stream a Mirror attaches to. *hangar.Hangar satisfies it.
type Source interface {
	Subscribe(mask domain.EventMask, typeFilter string, cb observer.Callback) (observer.Handle, error)
	Unsubscribe(h observer.Handle) error
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Mirror writes instance snapshots through to a store.
// It uses reference counting to garbage collect unused per-instance locks.
type Mirror struct {
	store ports.SnapshotStore

	mu    sync.Mutex
	locks map[domain.ID]*lockEntry

	locker     ports.DistributedLocker // optional
	lockTTL    time.Duration
	typeFilter string
	logger     *slog.Logger

	attached struct {
		sync.Mutex
		src    Source
		handle observer.Handle
	}
}

// Option configures the Mirror.
type Option func(*Mirror)

// WithLocker enables distributed locking around every write.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Mirror) {
		m.locker = locker
	}
}

// WithLockTTL sets how long a distributed lock survives a crashed holder.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Mirror) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithType mirrors only instances of one type.
func WithType(name string) Option {
	return func(m *Mirror) {
		m.typeFilter = name
	}
}

// WithLogger configures a logger for the Mirror.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mirror) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Mirror writing to store.
func New(store ports.SnapshotStore, opts ...Option) *Mirror {
	m := &Mirror{
		store:   store,
		locks:   make(map[domain.ID]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Attach subscribes the mirror to every event kind of src.
func (m *Mirror) Attach(src Source) error {
	m.attached.Lock()
	defer m.attached.Unlock()
	if m.attached.src != nil {
		return fmt.Errorf("mirror already attached")
	}

	h, err := src.Subscribe(domain.EventAll, m.typeFilter, m.Handle)
	if err != nil {
		return fmt.Errorf("failed to attach mirror: %w", err)
	}
	m.attached.src = src
	m.attached.handle = h
	return nil
}

// Detach removes the subscription made by Attach.
func (m *Mirror) Detach() error {
	m.attached.Lock()
	defer m.attached.Unlock()
	if m.attached.src == nil {
		return nil
	}
	err := m.attached.src.Unsubscribe(m.attached.handle)
	m.attached.src = nil
	return err
}

// Handle applies one event to the store. It is the observer callback
// installed by Attach.
func (m *Mirror) Handle(ctx context.Context, ev domain.Event) error {
	inst := ev.Instance
	return m.WithLock(ctx, inst.ID, func(ctx context.Context) error {
		switch ev.Kind {
		case domain.EventDefine, domain.EventUpdate:
			if err := m.store.Save(ctx, &inst); err != nil {
				return fmt.Errorf("mirror %s %s: %w", ev.Kind, inst.ID, err)
			}
		case domain.EventDelete:
			if err := m.store.Delete(ctx, inst.ID); err != nil {
				return fmt.Errorf("mirror delete %s: %w", inst.ID, err)
			}
		default:
			return nil
		}
		m.logger.DebugContext(ctx, "snapshot mirrored", "event", ev.Kind.String(), "id", inst.ID, "version", inst.Version)
		return nil
	})
}

// Load reads a snapshot under the instance lock.
func (m *Mirror) Load(ctx context.Context, id domain.ID) (*domain.Instance, error) {
	var inst *domain.Instance
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		inst, err = m.store.Load(ctx, id)
		return err
	})
	return inst, err
}

// List delegates to the store.
func (m *Mirror) List(ctx context.Context) ([]domain.ID, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Mirror) Store() ports.SnapshotStore {
	return m.store
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST lock entry.mu, and then call release(id) after unlocking.
func (m *Mirror) acquire(id domain.ID) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Mirror) release(id domain.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// WithLock executes fn while holding the lock for the instance.
func (m *Mirror) WithLock(ctx context.Context, id domain.ID, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, "instance:"+id.String(), m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
