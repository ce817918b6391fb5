/*
Package bt is the behavior-tree execution engine.

A BehaviorTree owns a root Node and a Blackboard. Each call to Tick evaluates the tree
once and returns one of the four domain statuses. Nodes keep no per-tick state in Go
memory: everything that must survive between ticks (resumption indices, loop counters,
open flags, async results) lives in the node's NodeBoard, scoped to (tree id, node id).

# Lifecycle

Every node runs the same fixed sequence on each tick:

	Enter -> Open (only if not already open) -> Run -> Close (only if not Running) -> Exit

Node kinds plug into that sequence by implementing Lifecycle. BaseLifecycle provides
no-op hooks so a kind only implements what it needs. Panics raised by node logic are
recovered and converted to StatusError; Tick never panics because of node code.

# Node Kinds

  - Composites: Sequence (AND) and Priority (OR), both resuming at the child that last
    returned Running.
  - Decorators: Inverter, Repeater, UntilSuccess, UntilFailure, RewindWhenFailure,
    RewindWhenRunning.
  - Leaves: Task (synchronous function) and AsyncTask (function run on its own
    goroutine whose result is posted into the node board).

# Usage

	root := bt.NewSequence([]*bt.Node{
		bt.NewTask("check", func(ec *bt.ExecutionContext) domain.Status {
			return domain.StatusSuccess
		}),
		bt.NewAsyncTask("fetch", fetch, 2*time.Second),
	})

	tree := bt.New(root, bt.WithTreeName("agent"))
	for tree.Tick(ctx, world) == domain.StatusRunning {
		time.Sleep(100 * time.Millisecond)
	}
*/
package bt
