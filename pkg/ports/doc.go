/*
Package ports defines the driven ports (interfaces) around the behavior-tree engine.

These interfaces decouple session handling from concrete infrastructure, so the
same Manager can persist to memory or Redis and coordinate replicas through a
distributed lock.

# Key Interfaces

  - SnapshotStore: persists and loads the blackboard Snapshot of a tree.
  - DistributedLocker: serializes ticks of one tree across instances.
*/
package ports
