package mirror_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/hangar"
	"github.com/aretw0/hangar/pkg/adapters/memory"
	"github.com/aretw0/hangar/pkg/adapters/redis"
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/mirror"
	"github.com/aretw0/hangar/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHangar(t *testing.T) *hangar.Hangar {
	t.Helper()
	h := hangar.New()
	require.NoError(t, h.RegisterType(&domain.TypeDescriptor{
		Name:   "Drone",
		Fields: []domain.Field{{Name: "altitude", Kind: domain.KindFloat}},
		Hooks: domain.TypeHooks{
			Validate: func(_ context.Context, inst *domain.Instance) error {
				if inst.Float("altitude") < 0 {
					return errors.New("negative altitude")
				}
				return nil
			},
		},
	}))
	require.NoError(t, h.RegisterType(&domain.TypeDescriptor{
		Name:   "Beacon",
		Fields: []domain.Field{{Name: "on", Kind: domain.KindBool}},
	}))
	return h
}

func TestMirror_WritesThrough(t *testing.T) {
	h := newHangar(t)
	store := memory.NewStore()
	m := mirror.New(store)
	require.NoError(t, m.Attach(h))
	assert.Error(t, m.Attach(h), "a mirror attaches once")
	ctx := context.Background()

	d, err := h.Create(ctx, "Drone", map[string]any{"altitude": 37})
	require.NoError(t, err)
	snap, err := m.Load(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 37.0, snap.Float("altitude"))

	require.NoError(t, h.Update(ctx, d.ID, func(s *hangar.Scope) error { return s.Add("altitude", -1) }))
	snap, err = store.Load(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 36.0, snap.Float("altitude"))
	assert.Equal(t, uint64(1), snap.Version)

	invalid, err := h.Create(ctx, "Drone", map[string]any{"altitude": -1})
	require.NoError(t, err)
	_, err = store.Load(ctx, invalid.ID)
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "undefined instances are not mirrored")

	require.NoError(t, h.Destroy(ctx, d.ID))
	_, err = store.Load(ctx, d.ID)
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)

	require.NoError(t, m.Detach())
	b, err := h.Create(ctx, "Drone", map[string]any{"altitude": 1})
	require.NoError(t, err)
	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids, b.ID, "detached mirrors stop writing")
}

func TestMirror_TypeFilter(t *testing.T) {
	h := newHangar(t)
	store := memory.NewStore()
	m := mirror.New(store, mirror.WithType("Beacon"))
	require.NoError(t, m.Attach(h))
	ctx := context.Background()

	_, err := h.Create(ctx, "Drone", map[string]any{"altitude": 1})
	require.NoError(t, err)
	b, err := h.Create(ctx, "Beacon", map[string]any{"on": true})
	require.NoError(t, err)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{b.ID}, ids)
}

type failingStore struct {
	ports.SnapshotStore
}

func (failingStore) Save(context.Context, *domain.Instance) error {
	return errors.New("disk full")
}

func TestMirror_StoreFailureIsReportedNotFatal(t *testing.T) {
	h := newHangar(t)
	m := mirror.New(failingStore{memory.NewStore()})
	require.NoError(t, m.Attach(h))

	d, err := h.Create(context.Background(), "Drone", map[string]any{"altitude": 1})
	assert.ErrorContains(t, err, "disk full")
	assert.True(t, d.Defined, "instance is committed despite the failed write")
}

func TestMirror_DistributedLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := redis.NewFromClient(client)
	m := mirror.New(store,
		mirror.WithLocker(redis.NewLocker(client, "test:")),
		mirror.WithLockTTL(5*time.Second),
	)
	h := newHangar(t)
	require.NoError(t, m.Attach(h))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(alt int) {
			defer wg.Done()
			_, err := h.Create(ctx, "Drone", map[string]any{"altitude": alt})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 4)
	for _, key := range mr.Keys() {
		assert.NotContains(t, key, "lock:", "every lock is released")
	}
}
