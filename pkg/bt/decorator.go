package bt

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/blackboard"
	"github.com/aretw0/arbor/pkg/domain"
)

// decorator owns a single child. A nil child is a configuration fault:
// every Run returns StatusError until it is fixed.
type decorator struct {
	BaseLifecycle
	child *Node
}

func (d *decorator) Children() []*Node {
	if d.child == nil {
		return nil
	}
	return []*Node{d.child}
}

func (d *decorator) missingChild(ec *ExecutionContext) bool {
	if d.child != nil {
		return false
	}
	ec.Log(domain.SeverityErr, "decorator has no child")
	return true
}

type inverter struct {
	decorator
}

func (d *inverter) Run(ec *ExecutionContext, _ *blackboard.NodeBoard) domain.Status {
	if d.missingChild(ec) {
		return domain.StatusError
	}
	switch status := d.child.Tick(ec); status {
	case domain.StatusSuccess:
		return domain.StatusFailure
	case domain.StatusFailure:
		return domain.StatusSuccess
	default:
		return status
	}
}

// NewInverter swaps Success and Failure; Running and Error pass through.
func NewInverter(child *Node, opts ...NodeOption) *Node {
	return NewNode(domain.CategoryDecorator, TypeInverter, &inverter{decorator{child: child}}, opts...)
}

type loopMode int

const (
	loopRepeat loopMode = iota
	loopUntilSuccess
	loopUntilFailure
)

// loop keeps its iteration counter under "i" on its own board.
// The counter survives Close/Open while the loop is unfinished and is dropped
// once the loop reaches a terminal outcome, so the next activation starts at 0.
type loop struct {
	decorator
	mode    loopMode
	maxLoop int
}

func (d *loop) Open(_ *ExecutionContext, board *blackboard.NodeBoard) {
	if !board.Has(domain.KeyLoopCount) {
		board.Set(domain.KeyLoopCount, 0)
	}
}

func (d *loop) Run(ec *ExecutionContext, board *blackboard.NodeBoard) domain.Status {
	if d.missingChild(ec) {
		return domain.StatusError
	}
	i, ok := blackboard.Int(board.Get(domain.KeyLoopCount))
	if !ok || i < 0 {
		ec.Log(domain.SeverityErr, "corrupt loop counter",
			"key", domain.KeyLoopCount, "value", board.Get(domain.KeyLoopCount))
		return domain.StatusError
	}
	if d.maxLoop >= 0 && i >= d.maxLoop {
		ec.Log(domain.SeverityDebug, "loop budget exhausted", "max_loop", d.maxLoop)
		board.Unset(domain.KeyLoopCount)
		return domain.StatusSuccess
	}

	status := d.child.Tick(ec)
	if status == domain.StatusRunning {
		return status
	}

	switch d.mode {
	case loopRepeat:
		if status == domain.StatusSuccess || status == domain.StatusFailure {
			board.Set(domain.KeyLoopCount, i+1)
		}
		return status

	case loopUntilSuccess:
		switch status {
		case domain.StatusFailure:
			board.Set(domain.KeyLoopCount, i+1)
			return status
		case domain.StatusSuccess:
			board.Unset(domain.KeyLoopCount)
			return domain.StatusSuccess
		}

	case loopUntilFailure:
		switch status {
		case domain.StatusSuccess:
			board.Set(domain.KeyLoopCount, i+1)
			return status
		case domain.StatusFailure:
			board.Unset(domain.KeyLoopCount)
			return domain.StatusSuccess
		}
	}

	ec.Log(domain.SeverityErr, "unexpected child status in loop", "status", string(status))
	board.Unset(domain.KeyLoopCount)
	return domain.StatusError
}

func newLoop(kind, name string, mode loopMode, maxLoop int, child *Node, opts []NodeOption) *Node {
	opts = append([]NodeOption{
		WithName(name),
		WithProperties(map[string]any{"maxLoop": maxLoop}),
	}, opts...)
	return NewNode(domain.CategoryDecorator, kind, &loop{
		decorator: decorator{child: child},
		mode:      mode,
		maxLoop:   maxLoop,
	}, opts...)
}

// NewRepeater ticks child up to maxLoop times (forever when maxLoop < 0),
// counting only Success and Failure results, and returns the child's status.
// Once the budget is spent it returns Success without ticking the child.
func NewRepeater(maxLoop int, child *Node, opts ...NodeOption) *Node {
	name := fmt.Sprintf("Repeat %dx", maxLoop)
	if maxLoop < 0 {
		name = "Repeat"
	}
	return newLoop(TypeRepeater, name, loopRepeat, maxLoop, child, opts)
}

// NewUntilSuccess re-ticks child while it fails. It returns Success when the
// child succeeds or when maxLoop failures have been counted.
func NewUntilSuccess(maxLoop int, child *Node, opts ...NodeOption) *Node {
	return newLoop(TypeUntilSuccess, "Until Success", loopUntilSuccess, maxLoop, child, opts)
}

// NewUntilFailure re-ticks child while it succeeds. It returns Success when the
// child fails or when maxLoop successes have been counted.
func NewUntilFailure(maxLoop int, child *Node, opts ...NodeOption) *Node {
	return newLoop(TypeUntilFailure, "Until Failure", loopUntilFailure, maxLoop, child, opts)
}

// rewind resets the child's resumption index when the child returns trigger.
type rewind struct {
	decorator
	trigger domain.Status
}

func (d *rewind) Run(ec *ExecutionContext, _ *blackboard.NodeBoard) domain.Status {
	if d.missingChild(ec) {
		return domain.StatusError
	}
	status := d.child.Tick(ec)
	if status == d.trigger {
		board := ec.NodeBoard(d.child)
		ec.Log(domain.SeverityDebug, "rewind",
			"child", d.child.Name(), "from", board.Get(domain.KeyRunningChild))
		board.Set(domain.KeyRunningChild, 0)
	}
	return status
}

// NewRewindWhenFailure resets the child's runningChild to 0 after a Failure.
func NewRewindWhenFailure(child *Node, opts ...NodeOption) *Node {
	return NewNode(domain.CategoryDecorator, TypeRewindWhenFailure,
		&rewind{decorator: decorator{child: child}, trigger: domain.StatusFailure}, opts...)
}

// NewRewindWhenRunning resets the child's runningChild to 0 after a Running result.
func NewRewindWhenRunning(child *Node, opts ...NodeOption) *Node {
	return NewNode(domain.CategoryDecorator, TypeRewindWhenRunning,
		&rewind{decorator: decorator{child: child}, trigger: domain.StatusRunning}, opts...)
}
