package ports

import (
	"context"

	"github.com/aretw0/vsm/pkg/domain"
)

// SnapshotStore defines the interface for persisting machine positions.
// This allows a host to checkpoint its machines and resume them after a restart.
type SnapshotStore interface {
	// Save persists the snapshot under the given machine name.
	Save(ctx context.Context, name string, snap domain.Snapshot) error

	// Load retrieves the snapshot for a machine.
	// Returns domain.ErrSnapshotNotFound if none exists.
	Load(ctx context.Context, name string) (domain.Snapshot, error)

	// Delete removes the snapshot for a machine. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all stored snapshots.
	List(ctx context.Context) ([]string, error)
}
