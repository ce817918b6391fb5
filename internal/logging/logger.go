package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/arbor/pkg/domain"
)

// New creates a configured application logger.
// It writes to Stderr (to separate from Stdout tick output).
// It standardizes common keys (e.g., "error" -> "err") and renders levels
// with their syslog names.
func New(level slog.Level) *slog.Logger {
	return NewWithWriter(os.Stderr, level, false)
}

// NewWithWriter creates a logger writing to w, as text or JSON.
func NewWithWriter(w io.Writer, level slog.Level, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	// Standardize 'error' key to 'err'
	if a.Key == "error" {
		a.Key = "err"
	}
	if a.Key == slog.LevelKey && len(groups) == 0 {
		if lvl, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(domain.SeverityFromSlog(lvl).String())
		}
	}
	return a
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Syslog adapts a slog.Logger to the engine's severity-based logging contract.
// Filtering is a pure function of the configured threshold and the record level.
type Syslog struct {
	logger    *slog.Logger
	threshold domain.Severity
}

// NewSyslog wraps logger, letting through records at or above threshold.
// A nil logger discards everything.
func NewSyslog(logger *slog.Logger, threshold domain.Severity) *Syslog {
	if logger == nil {
		logger = NewNop()
	}
	return &Syslog{logger: logger, threshold: threshold}
}

// Log emits msg at level if the threshold allows it.
func (s *Syslog) Log(level domain.Severity, msg string, args ...any) {
	if !domain.Enabled(s.threshold, level) {
		return
	}
	s.logger.Log(context.Background(), level.SlogLevel(), msg, args...)
}

// Threshold returns the configured threshold.
func (s *Syslog) Threshold() domain.Severity {
	return s.threshold
}

// With returns a Syslog whose records carry args.
func (s *Syslog) With(args ...any) *Syslog {
	return &Syslog{logger: s.logger.With(args...), threshold: s.threshold}
}
