/*
Package runner drives a behavior tree at a fixed cadence.

A tree that returns RUNNING is ticked again after the configured interval until
it settles on a terminal status, the tick budget is spent or the context is
cancelled. Each tick can be persisted through a session.Manager and reported to
a Reporter (text for humans, JSON lines for machines).

# Usage

	r := runner.New(
		runner.WithInterval(100*time.Millisecond),
		runner.WithMaxTicks(50),
		runner.WithReporter(runner.NewTextReporter(os.Stdout)),
	)

	status, err := r.Run(ctx, tree, nil)
*/
package runner
