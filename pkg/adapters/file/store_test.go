package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/hangar/pkg/adapters/file"
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_DefaultDir(t *testing.T) {
	assert.Equal(t, filepath.Join(".hangar", "snapshots"), file.New("").Dir)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "nope"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_SkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Instance{ID: 5, Type: "Drone", Fields: map[string]any{"altitude": 1.0}}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "7.txt"), []byte("x"), 0o644))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{5}, ids)

	data, err := os.ReadFile(filepath.Join(dir, "5.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type": "Drone"`)
}

func TestFileStore_CorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "9.json"), []byte("{not json"), 0o644))

	_, err := file.New(dir).Load(context.Background(), 9)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSnapshotNotFound)
}
