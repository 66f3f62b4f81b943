package registry_test

import (
	"sync"
	"testing"

	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descriptor(name string) *domain.TypeDescriptor {
	return &domain.TypeDescriptor{
		Name:   name,
		Fields: []domain.Field{{Name: "altitude", Kind: domain.KindFloat}},
	}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := registry.NewRegistry()
	require.NoError(t, r.Register(descriptor("Drone")))

	desc, err := r.Lookup("Drone")
	require.NoError(t, err)
	assert.Equal(t, "Drone", desc.Name)

	_, err = r.Lookup("Plane")
	assert.ErrorIs(t, err, domain.ErrTypeNotFound)
}

func TestRegistry_WriteOncePerName(t *testing.T) {
	r := registry.NewRegistry()
	require.NoError(t, r.Register(descriptor("Drone")))
	assert.ErrorIs(t, r.Register(descriptor("Drone")), domain.ErrTypeExists)
}

func TestRegistry_RejectsMalformed(t *testing.T) {
	r := registry.NewRegistry()
	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(&domain.TypeDescriptor{Name: "NoFields"}))
	assert.Empty(t, r.List())
}

func TestRegistry_ListSorted(t *testing.T) {
	r := registry.NewRegistry()
	require.NoError(t, r.Register(descriptor("Rover")))
	require.NoError(t, r.Register(descriptor("Drone")))

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Drone", list[0].Name)
	assert.Equal(t, "Rover", list[1].Name)
}

func TestRegistry_ConcurrentLookup(t *testing.T) {
	r := registry.NewRegistry()
	require.NoError(t, r.Register(descriptor("Drone")))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Lookup("Drone")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
