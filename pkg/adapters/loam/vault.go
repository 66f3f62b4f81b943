// Package loam reads a schema from a Loam vault: a directory of markdown
// documents, one per type, whose frontmatter declares the fields, instances
// and drives and whose body describes the type.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/hangar/pkg/schema"
	"github.com/aretw0/loam"
)

// Vault adapts a Loam repository to a schema document.
type Vault struct {
	Repo *loam.TypedRepository[TypeMetadata]
}

// New creates a Vault over an existing typed repository.
func New(repo *loam.TypedRepository[TypeMetadata]) *Vault {
	return &Vault{Repo: repo}
}

// Open initializes a read-only Loam repository at dir. Strict mode makes
// every numeric value a json.Number, which the field kinds then convert.
func Open(dir string) (*Vault, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid vault path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
		loam.WithVersioning(false),
		loam.WithForceTemp(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[TypeMetadata](repo)), nil
}

// Document assembles the vault into a checked schema document. Types keep
// the order of their document ids, so applying the vault is deterministic.
func (v *Vault) Document(ctx context.Context) (*schema.Document, error) {
	docs, err := v.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	out := &schema.Document{}
	seen := make(map[string]string, len(docs))
	for _, listed := range docs {
		// List only carries frontmatter; Get reads the body as well.
		doc, err := v.Repo.Get(ctx, trimExtension(listed.ID))
		if err != nil {
			return nil, fmt.Errorf("loam get failed for %s: %w", listed.ID, err)
		}
		name := doc.Data.Name
		if name == "" {
			name = trimExtension(filepath.Base(listed.ID))
		}
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("collision detected: type %q is defined in both %q and %q", name, prev, listed.ID)
		}
		seen[name] = listed.ID

		out.Types = append(out.Types, schema.TypeSpec{
			Name:        name,
			Description: strings.TrimSpace(doc.Content),
			Fields:      doc.Data.Fields,
		})
		for _, inst := range doc.Data.Instances {
			out.Instances = append(out.Instances, schema.InstanceSpec{
				Type:   name,
				Name:   inst.Name,
				Values: inst.Values,
			})
		}
		out.Drive = append(out.Drive, doc.Data.Drive...)
	}

	if err := out.Check(); err != nil {
		return nil, err
	}
	return out, nil
}

// Load opens the vault at dir and assembles its document.
func Load(ctx context.Context, dir string) (*schema.Document, error) {
	v, err := Open(dir)
	if err != nil {
		return nil, err
	}
	doc, err := v.Document(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	return doc, nil
}

func trimExtension(id string) string {
	return strings.TrimSuffix(id, filepath.Ext(id))
}
