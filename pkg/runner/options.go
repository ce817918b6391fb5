package runner

import (
	"log/slog"
	"time"

	"github.com/aretw0/arbor/pkg/session"
)

// DefaultInterval is the pause between two ticks of a running tree.
const DefaultInterval = 100 * time.Millisecond

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithInterval sets the pause between ticks. Zero ticks back to back.
func WithInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.interval = d
		}
	}
}

// WithMaxTicks bounds the number of ticks per Run. Zero or less means unbounded.
func WithMaxTicks(n int) Option {
	return func(r *Runner) {
		r.maxTicks = n
	}
}

// WithSessionManager persists every tick through m.
func WithSessionManager(m *session.Manager) Option {
	return WithTickFunc(m.Tick)
}

// WithTickFunc replaces how a single tick is performed, for instance to go
// through a host that keeps its own bookkeeping.
func WithTickFunc(fn TickFunc) Option {
	return func(r *Runner) {
		r.tickFn = fn
	}
}

// WithReporter configures where tick results are sent.
func WithReporter(rep Reporter) Option {
	return func(r *Runner) {
		r.reporter = rep
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithUntil overrides the stop condition. By default the runner stops on any
// status other than RUNNING.
func WithUntil(stop func(Report) bool) Option {
	return func(r *Runner) {
		r.until = stop
	}
}
