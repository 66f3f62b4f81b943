/*
Package ports defines the driven ports (interfaces) for hangar's persistence layer.

These interfaces decouple the mirror from concrete backends, so instance
snapshots can be kept in memory, Redis or SQLite.

# Key Interfaces

  - SnapshotStore: persists and loads instance snapshots by id.
  - DistributedLocker: serialises writers of the same snapshot across processes.

RunSnapshotStoreContract is a shared test suite every SnapshotStore adapter runs.
*/
package ports
