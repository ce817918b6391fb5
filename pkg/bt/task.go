package bt

import (
	"github.com/aretw0/arbor/pkg/blackboard"
	"github.com/aretw0/arbor/pkg/domain"
)

// TaskFunc is the synchronous logic of a Task leaf.
type TaskFunc func(ec *ExecutionContext) domain.Status

// TaskFuncWithBoard is a TaskFunc that also receives the leaf's own board,
// for leaves that keep state across ticks.
type TaskFuncWithBoard func(ec *ExecutionContext, board *blackboard.NodeBoard) domain.Status

type task struct {
	BaseLifecycle
	fn TaskFuncWithBoard
}

func (t *task) Run(ec *ExecutionContext, board *blackboard.NodeBoard) domain.Status {
	if t.fn == nil {
		ec.Log(domain.SeverityErr, "task has no function")
		return domain.StatusError
	}
	return t.fn(ec, board)
}

// NewTask creates a leaf that runs fn on every tick and returns its status.
func NewTask(name string, fn TaskFunc, opts ...NodeOption) *Node {
	var wrapped TaskFuncWithBoard
	if fn != nil {
		wrapped = func(ec *ExecutionContext, _ *blackboard.NodeBoard) domain.Status {
			return fn(ec)
		}
	}
	return NewStatefulTask(name, wrapped, opts...)
}

// NewStatefulTask creates a leaf whose function can read and write its node board.
// Keys written there are cleared only by the caller, not by Close.
func NewStatefulTask(name string, fn TaskFuncWithBoard, opts ...NodeOption) *Node {
	opts = append([]NodeOption{WithName(name)}, opts...)
	return NewNode(domain.CategoryTask, TypeTask, &task{fn: fn}, opts...)
}
