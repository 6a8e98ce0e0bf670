/*
Package ports defines the driven ports (interfaces) for state machine hosts.

These interfaces decouple the runtime from external implementations, allowing
hosts to work with various graph sources and snapshot backends.

# Key Interfaces

  - GraphLoader: Builds a graph from a definition source (file, memory).
  - Watchable: Signals that a definition source changed.
  - SnapshotStore: Persists and loads machine snapshots.
*/
package ports
