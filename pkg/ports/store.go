package ports

import (
	"context"

	"github.com/aretw0/hangar/pkg/domain"
)

// SnapshotStore defines the interface for persisting instance snapshots.
// Snapshots are stored as JSON by the remote adapters, so numeric fields are
// read back as float64 and the type descriptor is not restored.
type SnapshotStore interface {
	// Save persists the snapshot, replacing any previous one for the same id.
	Save(ctx context.Context, inst *domain.Instance) error

	// Load retrieves the snapshot of an instance.
	// Returns domain.ErrSnapshotNotFound if there is none.
	Load(ctx context.Context, id domain.ID) (*domain.Instance, error)

	// Delete removes a snapshot. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, id domain.ID) error

	// List returns the ids of every stored snapshot in ascending order.
	List(ctx context.Context) ([]domain.ID, error)
}
