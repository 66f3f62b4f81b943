package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"testing"

	"github.com/aretw0/hangar/pkg/adapters/memory"
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/persistence/middleware"
	"github.com/aretw0/hangar/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func drone() *domain.Instance {
	return &domain.Instance{
		ID:      1,
		Name:    "scout",
		Type:    "Drone",
		State:   domain.StateValid,
		Defined: true,
		Version: 2,
		Fields:  map[string]any{"altitude": 37.0, "pilot_token": "s3cret"},
	}
}

func TestEncryption_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunSnapshotStoreContract(t, mw(memory.NewStore()))
}

func TestEncryption_Roundtrip(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewStore()
	store := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(backend)

	require.NoError(t, store.Save(ctx, drone()))

	raw, err := backend.Load(ctx, 1)
	require.NoError(t, err)
	assert.NotContains(t, raw.Fields, "pilot_token")
	assert.Contains(t, raw.Fields, middleware.EncryptedField)
	assert.Equal(t, "scout", raw.Name, "envelope keeps metadata in the clear")
	assert.Equal(t, uint64(2), raw.Version)

	loaded, err := store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", loaded.Fields["pilot_token"])
	assert.Equal(t, 37.0, loaded.Float("altitude"))
}

func TestEncryption_KeyRotation(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(backend)
	require.NoError(t, oldStore.Save(ctx, drone()))

	newStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(backend)
	loaded, err := newStore.Load(ctx, 1)
	require.NoError(t, err, "fallback key decrypts old snapshots")

	loaded.Fields["altitude"] = 12.0
	require.NoError(t, newStore.Save(ctx, loaded))

	_, err = oldStore.Load(ctx, 1)
	assert.Error(t, err, "old key alone cannot read the re-encrypted snapshot")
}

func TestEncryption_RejectsPlainSnapshots(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewStore()
	require.NoError(t, backend.Save(ctx, drone()))

	store := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(backend)
	_, err := store.Load(ctx, 1)
	assert.ErrorContains(t, err, "missing encrypted data envelope")
}

func TestEncryption_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)
	parsed, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	_, err = middleware.ParseKey("not base64!")
	assert.Error(t, err)
	_, err = middleware.ParseKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorContains(t, err, "32 bytes")
}

func TestRedact(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewStore()
	mw, err := middleware.NewRedactMiddleware([]string{"token$", "^secret"})
	require.NoError(t, err)
	store := mw(backend)

	inst := drone()
	require.NoError(t, store.Save(ctx, inst))
	assert.Equal(t, "s3cret", inst.Fields["pilot_token"], "caller's snapshot is not modified")

	loaded, err := store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Fields["pilot_token"])
	assert.Equal(t, 37.0, loaded.Float("altitude"))

	_, err = middleware.NewRedactMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain_RedactsBeforeEncrypting(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewStore()
	redact, err := middleware.NewRedactMiddleware([]string{"token"})
	require.NoError(t, err)
	encrypt := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	store := middleware.Chain(backend, redact, encrypt)
	require.NoError(t, store.Save(ctx, drone()))

	loaded, err := store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Fields["pilot_token"])

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{1}, ids)
}
