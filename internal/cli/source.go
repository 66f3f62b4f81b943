package cli

import (
	"context"
	"os"

	loamadapter "github.com/aretw0/hangar/pkg/adapters/loam"
	"github.com/aretw0/hangar/pkg/schema"
)

// LoadDocument reads the schema at path: a YAML or JSON file, or a directory
// holding a Loam vault of type documents.
func LoadDocument(ctx context.Context, path string) (*schema.Document, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return loamadapter.Load(ctx, path)
	}
	return schema.Load(path)
}
