package tui

import (
	"github.com/charmbracelet/glamour"
)

// Renderer turns markdown into terminal output.
type Renderer func(string) (string, error)

// NewRenderer returns a Renderer using glamour.
// The style follows the terminal background when attached to a TTY and falls
// back to plain ASCII otherwise.
func NewRenderer(tty bool, width int) (Renderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle("ascii")}
	if tty {
		opts = []glamour.TermRendererOption{glamour.WithAutoStyle()}
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}
