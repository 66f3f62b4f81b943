package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/hangar/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, time.Second, cfg.Drive.Interval)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "hangar:instance:", cfg.Redis.Prefix)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(New(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hangar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
schema: fleet.yaml
drive:
  interval: 250ms
  ticks: 10
store:
  backend: sqlite
sqlite:
  path: /tmp/fleet.db
`), 0o644))

	t.Setenv("HANGAR_DRIVE_TICKS", "3")
	t.Setenv("HANGAR_HTTP_ADDR", "127.0.0.1:9000")

	cfg, err := Load(New(path))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "fleet.yaml", cfg.Schema)
	assert.Equal(t, 250*time.Millisecond, cfg.Drive.Interval)
	assert.Equal(t, 3, cfg.Drive.Ticks, "environment overrides the file")
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "/tmp/fleet.db", cfg.SQLite.Path)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(New(filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Error(t, err)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "loud"
	cfg.Drive.Interval = 0
	cfg.Store.Backend = "redis"
	cfg.Redis.Addr = ""

	err := cfg.Validate()
	require.Error(t, err)
	errs := schema.ValidationErrors(err)
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0].Error(), "log.level")
	assert.Contains(t, errs[1].Error(), "drive.interval")
	assert.Contains(t, errs[2].Error(), "redis.addr")
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = "etcd"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of none, memory, redis, sqlite, file")
}

func TestLoad_StoreMiddleware(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	path := filepath.Join(t.TempDir(), "hangar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  backend: file
  redact: ["token$"]
file:
  dir: snaps
`), 0o644))
	t.Setenv("HANGAR_STORE_ENCRYPTION_KEY", key)

	cfg, err := Load(New(path))
	require.NoError(t, err)
	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Equal(t, "snaps", cfg.File.Dir)
	assert.Equal(t, []string{"token$"}, cfg.Store.Redact)
	assert.Equal(t, key, cfg.Store.EncryptionKey)
}

func TestValidate_StoreMiddleware(t *testing.T) {
	cfg := Default()
	cfg.Store.EncryptionKey = "c2hvcnQ="
	cfg.Store.Redact = []string{"("}

	errs := schema.ValidationErrors(cfg.Validate())
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "store.encryption_key")
	assert.Contains(t, errs[1].Error(), "store.redact")

	cfg = Default()
	cfg.Store.FallbackKeys = []string{base64.StdEncoding.EncodeToString(make([]byte, 32))}
	assert.ErrorContains(t, cfg.Validate(), "require store.encryption_key")
}
