package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"

	"github.com/aretw0/arbor/pkg/domain"
)

// Report describes the outcome of one tick.
type Report struct {
	TreeID      string        `json:"tree_id"`
	TreeName    string        `json:"tree_name"`
	Tick        int           `json:"tick"`
	Status      domain.Status `json:"status"`
	Duration    time.Duration `json:"duration_ns"`
	ActiveNodes []string      `json:"active_nodes,omitempty"`
}

// Reporter receives every tick performed by a Runner.
type Reporter interface {
	Report(ctx context.Context, rep Report) error
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(ctx context.Context, rep Report) error

func (f ReporterFunc) Report(ctx context.Context, rep Report) error {
	return f(ctx, rep)
}

// TextReporter writes one human readable line per tick.
// Statuses are colored when the writer supports it.
type TextReporter struct {
	mu  sync.Mutex
	out *termenv.Output
}

// NewTextReporter creates a TextReporter writing to w.
func NewTextReporter(w io.Writer, opts ...termenv.OutputOption) *TextReporter {
	return &TextReporter{out: termenv.NewOutput(w, opts...)}
}

func (t *TextReporter) Report(_ context.Context, rep Report) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	status := t.out.String(string(rep.Status)).Bold()
	if c := StatusColor(rep.Status); c != "" {
		status = status.Foreground(t.out.Color(c))
	}

	line := fmt.Sprintf("#%-4d %s %-8s %s", rep.Tick, rep.TreeName, status, rep.Duration.Round(time.Microsecond))
	if len(rep.ActiveNodes) > 0 {
		line += " " + t.out.String(strings.Join(rep.ActiveNodes, " > ")).Faint().String()
	}
	_, err := fmt.Fprintln(t.out, line)
	return err
}

// StatusColor returns the hex color used to display s.
func StatusColor(s domain.Status) string {
	switch s {
	case domain.StatusSuccess:
		return "#22c55e"
	case domain.StatusFailure:
		return "#f97316"
	case domain.StatusRunning:
		return "#38bdf8"
	case domain.StatusError:
		return "#ef4444"
	}
	return ""
}

// JSONReporter writes one JSON object per tick (JSON Lines).
type JSONReporter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONReporter creates a JSONReporter writing to w.
func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{enc: json.NewEncoder(w)}
}

func (j *JSONReporter) Report(_ context.Context, rep Report) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(rep)
}
