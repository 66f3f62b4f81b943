package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/hangar/pkg/adapters/memory"
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, memory.NewStore())
}

func TestMemoryStore_LoadReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Save(ctx, &domain.Instance{
		ID:     1,
		Type:   "Pad",
		Fields: map[string]any{"slots": int64(2)},
		State:  domain.StateValid,
	}))

	first, err := store.Load(ctx, 1)
	require.NoError(t, err)
	first.Fields["slots"] = int64(99)
	first.State = domain.StateInvalid

	second, err := store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Int("slots"), "mutating a loaded snapshot must not reach the store")
	assert.Equal(t, domain.StateValid, second.State)
}

func TestMemoryStore_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(id domain.ID) {
			defer wg.Done()
			assert.NoError(t, store.Save(ctx, &domain.Instance{ID: id, Type: "Pad", Fields: map[string]any{"slots": int64(id)}}))
		}(domain.ID(i))
	}
	wg.Wait()

	ids, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 20)
	assert.Equal(t, domain.ID(1), ids[0])
	assert.Equal(t, domain.ID(20), ids[19])

	inst, err := store.Load(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), inst.Int("slots"))
}
