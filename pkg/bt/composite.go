package bt

import (
	"github.com/aretw0/arbor/pkg/blackboard"
	"github.com/aretw0/arbor/pkg/domain"
)

// composite ticks its children in order, resuming at runningChild.
// The scan continues while children return pass and stops on anything else.
type composite struct {
	BaseLifecycle
	children []*Node
	pass     domain.Status
}

func (c *composite) Children() []*Node {
	out := make([]*Node, len(c.children))
	copy(out, c.children)
	return out
}

func (c *composite) Open(_ *ExecutionContext, board *blackboard.NodeBoard) {
	board.Set(domain.KeyRunningChild, 0)
}

func (c *composite) Run(ec *ExecutionContext, board *blackboard.NodeBoard) domain.Status {
	start, ok := blackboard.Int(board.Get(domain.KeyRunningChild))
	if !ok || start < 0 || start > len(c.children) {
		ec.Log(domain.SeverityErr, "corrupt resumption index",
			"key", domain.KeyRunningChild, "value", board.Get(domain.KeyRunningChild))
		return domain.StatusError
	}

	for i := start; i < len(c.children); i++ {
		child := c.children[i]
		if child == nil {
			ec.Log(domain.SeverityErr, "composite child is nil", "index", i)
			return domain.StatusError
		}
		status := child.Tick(ec)
		if status == c.pass {
			continue
		}
		if status == domain.StatusRunning {
			board.Set(domain.KeyRunningChild, i)
		}
		return status
	}
	return c.pass
}

// NewSequence creates a logical AND: the first child that does not succeed
// decides the result. An empty sequence succeeds.
func NewSequence(children []*Node, opts ...NodeOption) *Node {
	return NewNode(domain.CategoryComposite, TypeSequence,
		&composite{children: append([]*Node(nil), children...), pass: domain.StatusSuccess}, opts...)
}

// NewPriority creates a selector: the first child that does not fail
// decides the result. An empty priority fails.
func NewPriority(children []*Node, opts ...NodeOption) *Node {
	return NewNode(domain.CategoryComposite, TypePriority,
		&composite{children: append([]*Node(nil), children...), pass: domain.StatusFailure}, opts...)
}
