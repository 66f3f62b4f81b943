package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// DroneVault is a two-document vault equivalent to testdata/drone.yaml minus
// the unnamed invalid instance.
var DroneVault = map[string]string{
	"drone.md": `---
name: Drone
fields:
  - name: altitude
    type: float
    min: 0
  - name: status
    type: string
    one_of: [idle, flying]
instances:
  - name: scout
    values:
      altitude: 12
      status: flying
drive:
  - instance: scout
    field: altitude
    delta: -1
---
A quadcopter that reports its altitude.
`,
	"pad.md": `---
fields:
  - name: slots
    type: int
---
A landing pad.
`,
}

// WriteVault creates a temporary directory holding files (name -> content)
// and returns its absolute path. It fails the test immediately on error.
func WriteVault(t *testing.T, files map[string]string) string {
	t.Helper()

	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "Failed to write %s", name)
	}
	return dir
}
