package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/arbor/pkg/bt"
	"github.com/aretw0/arbor/pkg/domain"
)

// Outline renders a tree, its runtime state and its blackboard as markdown.
func Outline(tree *bt.BehaviorTree) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", tree.Name())
	if tree.Description() != "" {
		fmt.Fprintf(&sb, "%s\n\n", tree.Description())
	}
	fmt.Fprintf(&sb, "`%s`\n\n", tree.ID())

	tb := tree.TreeBoard()
	active := make(map[string]bool)
	if ids, ok := tb.Get(domain.KeyActiveNodes).([]string); ok {
		for _, id := range ids {
			active[id] = true
		}
	}

	sb.WriteString("## Nodes\n\n")
	tree.Walk(func(n *bt.Node, depth int) bool {
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(&sb, "%s- **%s** _%s_", indent, n.Name(), n.Type())
		if nb, ok := tb.Node(n.ID()); ok {
			if s, ok := nb.LastStatus(); ok {
				fmt.Fprintf(&sb, " `%s`", s)
			}
		}
		if active[n.ID()] {
			sb.WriteString(" ◀")
		}
		sb.WriteString("\n")
		return true
	})

	shared := tree.Blackboard().Shared().Snapshot()
	if len(shared) > 0 {
		sb.WriteString("\n## Shared\n\n| Key | Value |\n| --- | --- |\n")
		keys := make([]string, 0, len(shared))
		for k := range shared {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "| %s | %v |\n", k, shared[k])
		}
	}
	return sb.String()
}
