package bt

import "github.com/aretw0/arbor/pkg/domain"

// Logger receives the engine's log records.
// The engine decides what to log and at which severity; whether a record is
// shown is entirely up to the implementation.
type Logger interface {
	Log(level domain.Severity, msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Log(domain.Severity, string, ...any) {}
