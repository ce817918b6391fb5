package bt

import (
	"fmt"
	"runtime/debug"

	"github.com/aretw0/arbor/pkg/blackboard"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/google/uuid"
)

// Lifecycle is implemented by every node kind.
// Each method receives the execution context and the node's own board.
type Lifecycle interface {
	Enter(ec *ExecutionContext, board *blackboard.NodeBoard)
	Open(ec *ExecutionContext, board *blackboard.NodeBoard)
	Run(ec *ExecutionContext, board *blackboard.NodeBoard) domain.Status
	Close(ec *ExecutionContext, board *blackboard.NodeBoard)
	Exit(ec *ExecutionContext, board *blackboard.NodeBoard)
}

// Parent is implemented by kinds that own child nodes.
type Parent interface {
	Children() []*Node
}

// BaseLifecycle provides no-op Enter, Open, Close and Exit hooks.
type BaseLifecycle struct{}

func (BaseLifecycle) Enter(*ExecutionContext, *blackboard.NodeBoard) {}
func (BaseLifecycle) Open(*ExecutionContext, *blackboard.NodeBoard)  {}
func (BaseLifecycle) Close(*ExecutionContext, *blackboard.NodeBoard) {}
func (BaseLifecycle) Exit(*ExecutionContext, *blackboard.NodeBoard)  {}

// Node is one element of a behavior tree: an identity plus a Lifecycle.
type Node struct {
	id          string
	category    domain.Category
	kind        string
	name        string
	description string
	properties  map[string]any
	behavior    Lifecycle
}

// NodeOption configures a Node at construction.
type NodeOption func(*Node)

// WithName sets the human name (default: the type tag).
func WithName(name string) NodeOption {
	return func(n *Node) {
		n.name = name
	}
}

// WithDescription sets the description.
func WithDescription(description string) NodeOption {
	return func(n *Node) {
		n.description = description
	}
}

// WithProperties merges props into the node properties.
func WithProperties(props map[string]any) NodeOption {
	return func(n *Node) {
		for k, v := range props {
			n.properties[k] = v
		}
	}
}

// WithID overrides the generated identifier.
// Stable ids are needed when node boards are restored in another process.
func WithID(id string) NodeOption {
	return func(n *Node) {
		n.id = id
	}
}

// WithType overrides the type tag.
func WithType(kind string) NodeOption {
	return func(n *Node) {
		n.kind = kind
	}
}

// NewNode creates a node of the given category and type tag around behavior.
// It is the extension point for custom node kinds.
func NewNode(category domain.Category, kind string, behavior Lifecycle, opts ...NodeOption) *Node {
	n := &Node{
		id:         uuid.NewString(),
		category:   category,
		kind:       kind,
		properties: make(map[string]any),
		behavior:   behavior,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.name == "" {
		n.name = n.kind
	}
	return n
}

func (n *Node) ID() string                { return n.id }
func (n *Node) Category() domain.Category { return n.category }
func (n *Node) Type() string              { return n.kind }
func (n *Node) Name() string              { return n.name }
func (n *Node) Description() string       { return n.description }

// Properties returns a copy of the node properties.
func (n *Node) Properties() map[string]any {
	out := make(map[string]any, len(n.properties))
	for k, v := range n.properties {
		out[k] = v
	}
	return out
}

// Property returns a single property.
func (n *Node) Property(key string) (any, bool) {
	v, ok := n.properties[key]
	return v, ok
}

// Behavior returns the node's lifecycle implementation.
func (n *Node) Behavior() Lifecycle { return n.behavior }

// Children returns the owned children, or nil for leaves.
func (n *Node) Children() []*Node {
	if p, ok := n.behavior.(Parent); ok {
		return p.Children()
	}
	return nil
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.name, n.id)
}

// Tick runs the node lifecycle once and returns its status.
func (n *Node) Tick(ec *ExecutionContext) domain.Status {
	board := ec.NodeBoard(n)

	n.enter(ec, board)

	status := domain.StatusRunning
	opened := true
	if !board.IsOpen() {
		opened = n.open(ec, board)
	}
	if opened {
		status = n.run(ec, board)
	} else {
		status = domain.StatusError
	}
	board.Set(domain.KeyLastStatus, status)

	if status != domain.StatusRunning {
		n.close(ec, board, status)
	}

	n.exit(ec, board)
	return status
}

func (n *Node) enter(ec *ExecutionContext, board *blackboard.NodeBoard) {
	ec.enterNode(n)
	n.guard(ec, "enter", func() { n.behavior.Enter(ec, board) })
}

func (n *Node) open(ec *ExecutionContext, board *blackboard.NodeBoard) bool {
	ec.openNode(n)
	board.OpenNode()
	return n.guard(ec, "open", func() { n.behavior.Open(ec, board) })
}

func (n *Node) run(ec *ExecutionContext, board *blackboard.NodeBoard) domain.Status {
	ec.runNode(n)
	status := domain.StatusError
	if !n.guard(ec, "run", func() { status = n.behavior.Run(ec, board) }) {
		return domain.StatusError
	}
	if !status.Valid() {
		ec.Log(domain.SeverityErr, "run returned an invalid status",
			"node", n.name, "type", n.kind, "id", n.id, "status", string(status))
		return domain.StatusError
	}
	ec.Log(domain.SeverityDebug, "run result", "node", n.name, "status", string(status))
	return status
}

func (n *Node) close(ec *ExecutionContext, board *blackboard.NodeBoard, status domain.Status) {
	ec.closeNode(n, status)
	board.CloseNode()
	n.guard(ec, "close", func() { n.behavior.Close(ec, board) })
}

func (n *Node) exit(ec *ExecutionContext, board *blackboard.NodeBoard) {
	ec.exitNode(n)
	n.guard(ec, "exit", func() { n.behavior.Exit(ec, board) })
}

// guard runs fn, recovering a panic into an err-level log record.
// It reports whether fn completed normally.
func (n *Node) guard(ec *ExecutionContext, phase string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ec.Log(domain.SeverityErr, "failed to execute "+phase,
				"node", n.name, "type", n.kind, "id", n.id,
				"panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			ok = false
		}
	}()
	fn()
	return true
}
