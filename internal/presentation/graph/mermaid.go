package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/arbor/pkg/bt"
	"github.com/aretw0/arbor/pkg/domain"
)

// Overlay contains runtime state to visualize on the graph.
type Overlay struct {
	// Active lists the ids of the nodes left open by the last tick.
	Active []string
	// Status maps node ids to the status of their last run.
	Status map[string]domain.Status
}

// OverlayFromTree reads the active path and the last statuses from the
// tree's own blackboard.
func OverlayFromTree(tree *bt.BehaviorTree) *Overlay {
	tb := tree.TreeBoard()
	o := &Overlay{Status: make(map[string]domain.Status)}

	if ids, ok := tb.Get(domain.KeyActiveNodes).([]string); ok {
		o.Active = append(o.Active, ids...)
	} else if raw, ok := tb.Get(domain.KeyActiveNodes).([]any); ok {
		// Restored from JSON.
		for _, v := range raw {
			if s, ok := v.(string); ok {
				o.Active = append(o.Active, s)
			}
		}
	}

	tree.Walk(func(n *bt.Node, _ int) bool {
		if nb, ok := tb.Node(n.ID()); ok {
			if s, ok := nb.LastStatus(); ok {
				o.Status[n.ID()] = s
			}
		}
		return true
	})
	return o
}

// GenerateMermaid produces a Mermaid flowchart for the tree below root.
// It applies semantic styling:
// - Composite: {{Hexagon}}
// - Decorator: ([Stadium])
// - Async task: [[Subroutine]]
// - Task: [Rectangle]
// Overlay styles (last status, active path) are applied if provided.
func GenerateMermaid(root *bt.Node, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	ids := make(map[*bt.Node]string)
	bt.Walk(root, func(n *bt.Node, _ int) bool {
		id := sanitizeMermaidID(n.ID())
		if _, seen := ids[n]; seen {
			return false
		}
		ids[n] = id

		opener, closer := "[", "]"
		switch {
		case n.Category() == domain.CategoryComposite:
			opener, closer = "{{", "}}"
		case n.Category() == domain.CategoryDecorator:
			opener, closer = "([", "])"
		case n.Type() == bt.TypeAsyncTask:
			opener, closer = "[[", "]]"
		}

		label := escapeLabel(n.Name())
		if n.Name() != n.Type() {
			label = fmt.Sprintf("%s <br/> <small>%s</small>", label, escapeLabel(n.Type()))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)

		for i, c := range n.Children() {
			if c == nil {
				continue
			}
			arrow := "-->"
			if n.Category() == domain.CategoryComposite {
				arrow = fmt.Sprintf("-- \"%d\" -->", i+1)
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", id, arrow, sanitizeMermaidID(c.ID()))
		}
		return true
	})

	if overlay != nil {
		writeOverlay(&sb, ids, overlay)
	}
	return sb.String()
}

func writeOverlay(sb *strings.Builder, ids map[*bt.Node]string, overlay *Overlay) {
	sb.WriteString("\n    %% Overlay Styles\n")
	// Black text keeps contrast on both light and dark themes.
	sb.WriteString("    classDef success fill:#dcfce7,stroke:#16a34a,color:#000;\n")
	sb.WriteString("    classDef failure fill:#ffedd5,stroke:#ea580c,color:#000;\n")
	sb.WriteString("    classDef error fill:#fee2e2,stroke:#dc2626,color:#000;\n")
	sb.WriteString("    classDef running fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

	active := make(map[string]bool, len(overlay.Active))
	for _, id := range overlay.Active {
		active[sanitizeMermaidID(id)] = true
	}
	status := make(map[string]domain.Status, len(overlay.Status))
	for id, st := range overlay.Status {
		status[sanitizeMermaidID(id)] = st
	}

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, id)
	}
	slices.Sort(names)

	for _, id := range names {
		class := statusClass(status[id])
		if active[id] {
			class = "running"
		}
		if class != "" {
			fmt.Fprintf(sb, "    class %s %s;\n", id, class)
		}
	}
}

func statusClass(s domain.Status) string {
	switch s {
	case domain.StatusSuccess:
		return "success"
	case domain.StatusFailure:
		return "failure"
	case domain.StatusError:
		return "error"
	}
	return ""
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return "n_" + s
}
