package domain

import (
	"fmt"
	"log/slog"
	"strings"
)

// Severity is a syslog severity (RFC 5424). Lower values are more severe.
type Severity int

const (
	SeverityEmerg Severity = iota + 1
	SeverityAlert
	SeverityCrit
	SeverityErr
	SeverityWarning
	SeverityNotice
	SeverityInfo
	SeverityDebug
)

var severityNames = map[Severity]string{
	SeverityEmerg:   "emerg",
	SeverityAlert:   "alert",
	SeverityCrit:    "crit",
	SeverityErr:     "err",
	SeverityWarning: "warning",
	SeverityNotice:  "notice",
	SeverityInfo:    "info",
	SeverityDebug:   "debug",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// ParseSeverity resolves a syslog severity name (case-insensitive).
// "error" and "warn" are accepted as aliases.
func ParseSeverity(name string) (Severity, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "error":
		n = "err"
	case "warn":
		n = "warning"
	}
	for sev, s := range severityNames {
		if s == n {
			return sev, nil
		}
	}
	return 0, fmt.Errorf("invalid log level %q", name)
}

// Enabled reports whether a record at level passes a threshold.
// Unknown levels are treated as emerg so they are never silently lost.
func Enabled(threshold, level Severity) bool {
	if _, ok := severityNames[level]; !ok {
		level = SeverityEmerg
	}
	return level <= threshold
}

// SlogLevel maps a syslog severity onto the slog level scale.
// Severities between the four slog anchors get intermediate offsets so the
// ordering is preserved.
func (s Severity) SlogLevel() slog.Level {
	switch s {
	case SeverityEmerg:
		return slog.LevelError + 12
	case SeverityAlert:
		return slog.LevelError + 8
	case SeverityCrit:
		return slog.LevelError + 4
	case SeverityErr:
		return slog.LevelError
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityNotice:
		return slog.LevelInfo + 2
	case SeverityInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// SeverityFromSlog is the inverse of SlogLevel for the levels it produces.
func SeverityFromSlog(l slog.Level) Severity {
	switch {
	case l >= slog.LevelError+12:
		return SeverityEmerg
	case l >= slog.LevelError+8:
		return SeverityAlert
	case l >= slog.LevelError+4:
		return SeverityCrit
	case l >= slog.LevelError:
		return SeverityErr
	case l >= slog.LevelWarn:
		return SeverityWarning
	case l >= slog.LevelInfo+2:
		return SeverityNotice
	case l >= slog.LevelInfo:
		return SeverityInfo
	default:
		return SeverityDebug
	}
}
