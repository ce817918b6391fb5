/*
Package blackboard implements the persistent memory of the behavior-tree engine.

State is scoped on three levels:

  - Shared: one Board per Blackboard for data that transcends any single tree.
  - TreeBoard: one per tree id; tree-scoped keys plus the node boards of that tree.
  - NodeBoard: one per (tree id, node id); the per-activation fields of a node.

Every board is safe for concurrent use. Ticks of the same tree are expected to be
serialized by the caller, but AsyncTask settlement writes into node boards from other
goroutines, so reads and writes are guarded and Update offers an atomic
read-modify-write.

Snapshots are meant for introspection and debugging tools. Restore rebuilds boards
from a snapshot on a best-effort basis: values that went through JSON come back with
JSON types (numbers as float64), which the engine reads tolerantly.
*/
package blackboard
