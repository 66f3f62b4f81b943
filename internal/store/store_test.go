package store_test

import (
	"testing"

	"github.com/aretw0/hangar/internal/store"
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	types := registry.NewRegistry()
	require.NoError(t, types.Register(&domain.TypeDescriptor{
		Name:   "Drone",
		Fields: []domain.Field{{Name: "altitude", Kind: domain.KindFloat}},
	}))
	require.NoError(t, types.Register(&domain.TypeDescriptor{
		Name:   "Rover",
		Fields: []domain.Field{{Name: "speed", Kind: domain.KindInt}},
	}))
	return store.New(types)
}

func TestStore_CreateAssignsMonotonicIDs(t *testing.T) {
	s := newStore(t)

	a, err := s.Create("Drone", "", map[string]any{"altitude": 1})
	require.NoError(t, err)
	b, err := s.Create("Drone", "", map[string]any{"altitude": 2})
	require.NoError(t, err)
	assert.Less(t, a.ID(), b.ID())

	snap := a.Snapshot()
	assert.Equal(t, domain.StateConstructing, snap.State)
	a.Lock()
	assert.Equal(t, store.PhaseBusy, a.Phase(), "new records are busy until construction ends")
	a.Unlock()
	assert.Equal(t, 1.0, snap.Float("altitude"))

	a.Lock()
	require.NoError(t, s.Remove(a.ID()))
	assert.True(t, a.Removed())
	a.Unlock()

	c, err := s.Create("Drone", "", map[string]any{"altitude": 3})
	require.NoError(t, err)
	assert.Greater(t, c.ID(), b.ID(), "ids are never reused after destroy")
}

func TestStore_CreateErrors(t *testing.T) {
	s := newStore(t)

	_, err := s.Create("Plane", "", map[string]any{"altitude": 1})
	assert.ErrorIs(t, err, domain.ErrTypeNotFound)

	_, err = s.Create("Drone", "", map[string]any{"altitude": "high"})
	assert.ErrorIs(t, err, domain.ErrFieldMismatch)

	_, err = s.Create("Drone", "", map[string]any{})
	assert.ErrorIs(t, err, domain.ErrFieldMismatch)

	assert.Zero(t, s.Len())
}

func TestStore_Names(t *testing.T) {
	s := newStore(t)

	rec, err := s.Create("Drone", "my_drone", map[string]any{"altitude": 37})
	require.NoError(t, err)

	_, err = s.Create("Drone", "my_drone", map[string]any{"altitude": 1})
	assert.ErrorIs(t, err, domain.ErrNameInUse)

	found, err := s.Resolve("my_drone")
	require.NoError(t, err)
	assert.Equal(t, rec.ID(), found.ID())

	rec.Lock()
	require.NoError(t, s.Remove(rec.ID()))
	rec.Unlock()
	_, err = s.Resolve("my_drone")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.Create("Drone", "my_drone", map[string]any{"altitude": 1})
	assert.NoError(t, err, "name is free again after destroy")
}

func TestStore_GetAndRemoveUnknown(t *testing.T) {
	s := newStore(t)
	_, err := s.Get(99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.Remove(99), domain.ErrNotFound)
}

func TestStore_ListFiltersAndOrders(t *testing.T) {
	s := newStore(t)
	_, _ = s.Create("Rover", "", map[string]any{"speed": 3})
	_, _ = s.Create("Drone", "", map[string]any{"altitude": 1})
	_, _ = s.Create("Drone", "", map[string]any{"altitude": 2})

	all := s.List("")
	require.Len(t, all, 3)
	assert.True(t, all[0].ID() < all[1].ID() && all[1].ID() < all[2].ID())

	drones := s.List("Drone")
	require.Len(t, drones, 2)
	for _, r := range drones {
		assert.Equal(t, "Drone", r.Type())
	}
}

func TestRecord_ScopeIsolation(t *testing.T) {
	s := newStore(t)
	rec, err := s.Create("Drone", "", map[string]any{"altitude": 37})
	require.NoError(t, err)

	rec.Lock()
	defer rec.Unlock()
	rec.SetPhase(store.PhaseIdle)

	scope := rec.OpenScope()
	assert.Equal(t, store.PhaseScope, rec.Phase())
	require.NoError(t, scope.Work.Set("altitude", 36))
	assert.Equal(t, 37.0, rec.Snapshot().Float("altitude"), "readers see committed values only")
	assert.Equal(t, 37.0, scope.Base["altitude"])

	rec.Commit(scope.Work)
	rec.CloseScope()
	assert.Nil(t, rec.Scope())
	assert.Equal(t, store.PhaseIdle, rec.Phase())
	assert.Equal(t, 36.0, rec.Snapshot().Float("altitude"))
}
