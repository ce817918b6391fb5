/*
Package arbor is a behavior tree execution engine.

A behavior tree is evaluated by ticking its root. Every node answers each tick
with one of four statuses (SUCCESS, FAILURE, RUNNING, ERROR). Nodes keep no
state of their own: everything that must survive between ticks lives on a
scoped blackboard, so a tree can be persisted after any tick and resumed on
another process.

# Concept

Trees are built from composites (Sequence, Priority), decorators (Inverter,
Repeater, UntilSuccess, UntilFailure, RewindWhenFailure, RewindWhenRunning)
and leaves (Task, AsyncTask). They can be assembled in Go with package bt or
declared in YAML/JSON and built through a definition.Registry.

# Usage

	eng := arbor.New(arbor.WithLogger(logger))

	tree, err := eng.LoadFile(ctx, "patrol.yaml")
	if err != nil {
		log.Fatal(err)
	}

	status, err := eng.Tick(ctx, tree.ID(), nil)

Persistence is enabled by passing a session.Manager:

	store := redis.New("localhost:6379")
	eng := arbor.New(arbor.WithSessionManager(session.NewManager(store)))
*/
package arbor
