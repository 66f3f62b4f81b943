package ports

import (
	"context"
	"testing"

	"github.com/aretw0/hangar/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the interface contract. The store must start empty.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()

	snapshot := func(id domain.ID, altitude float64) *domain.Instance {
		return &domain.Instance{
			ID:   id,
			Name: "drone-" + id.String(),
			Type: "Drone",
			Fields: map[string]any{
				"altitude": altitude,
				"rotors":   int64(4),
				"serial":   int64(1<<53 + 1),
				"callsign": "alpha",
				"armed":    true,
			},
			State:   domain.StateValid,
			Defined: true,
			Version: 3,
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		inst := snapshot(1, 37)
		require.NoError(t, store.Save(ctx, inst), "Save should not return error")

		loaded, err := store.Load(ctx, 1)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, inst.ID, loaded.ID)
		assert.Equal(t, inst.Name, loaded.Name)
		assert.Equal(t, inst.Type, loaded.Type)
		assert.Equal(t, inst.State, loaded.State)
		assert.Equal(t, inst.Version, loaded.Version)
		assert.True(t, loaded.Defined)
		assert.Equal(t, 37.0, loaded.Float("altitude"))
		assert.Equal(t, int64(4), loaded.Fields["rotors"], "int fields keep their kind")
		assert.Equal(t, int64(1<<53+1), loaded.Int("serial"), "int fields keep full precision")
		assert.Equal(t, "alpha", loaded.Fields["callsign"])
		assert.Equal(t, true, loaded.Fields["armed"])

		inst.Fields["altitude"] = 99.0
		again, err := store.Load(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 37.0, again.Float("altitude"), "stored snapshot must not alias the caller's map")
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, snapshot(2, 10)))
		next := snapshot(2, 9)
		next.Version = 4
		require.NoError(t, store.Save(ctx, next))

		loaded, err := store.Load(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, 9.0, loaded.Float("altitude"))
		assert.Equal(t, uint64(4), loaded.Version)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, 424242)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, snapshot(3, 1)))
		require.NoError(t, store.Delete(ctx, 3), "Delete should not return error")

		_, err := store.Load(ctx, 3)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")
		assert.NoError(t, store.Delete(ctx, 3), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, snapshot(11, 1)))
		require.NoError(t, store.Save(ctx, snapshot(10, 1)))
		defer func() {
			_ = store.Delete(ctx, 10)
			_ = store.Delete(ctx, 11)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, domain.ID(10))
		assert.Contains(t, ids, domain.ID(11))
		assert.NotContains(t, ids, domain.ID(3))
		for i := 1; i < len(ids); i++ {
			assert.Less(t, ids[i-1], ids[i], "ids are listed in ascending order")
		}
	})
}
