package bt

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/arbor/pkg/blackboard"
	"github.com/aretw0/arbor/pkg/domain"
)

// ExecutionContext is the transient per-tick companion of a tree.
// It carries the tree, the blackboard, the caller's target and the stack of
// currently open nodes. It holds no state that must survive a process restart:
// all of that lives in the blackboard.
//
// A BehaviorTree reuses one ExecutionContext across ticks so the open-node
// stack stays aligned with the open flags stored on node boards.
type ExecutionContext struct {
	mu         sync.RWMutex
	ctx        context.Context
	tree       *BehaviorTree
	blackboard *blackboard.Blackboard
	treeBoard  *blackboard.TreeBoard
	target     any
	active     []*Node
	logger     Logger
	hooks      domain.LifecycleHooks
}

// ContextOption configures an ExecutionContext.
type ContextOption func(*ExecutionContext)

// WithContextLogger sets the logger used for lifecycle tracing.
func WithContextLogger(l Logger) ContextOption {
	return func(ec *ExecutionContext) {
		ec.logger = l
	}
}

// WithTarget sets the caller-supplied world/target object.
func WithTarget(target any) ContextOption {
	return func(ec *ExecutionContext) {
		ec.target = target
	}
}

// WithContextHooks sets the node open/close hooks.
func WithContextHooks(hooks domain.LifecycleHooks) ContextOption {
	return func(ec *ExecutionContext) {
		ec.hooks = hooks
	}
}

// NewExecutionContext creates a context bound to tree and bb.
func NewExecutionContext(tree *BehaviorTree, bb *blackboard.Blackboard, opts ...ContextOption) *ExecutionContext {
	if bb == nil {
		bb = blackboard.New()
	}
	ec := &ExecutionContext{
		ctx:        context.Background(),
		tree:       tree,
		blackboard: bb,
		logger:     nopLogger{},
	}
	for _, opt := range opts {
		opt(ec)
	}
	ec.treeBoard = bb.GetOrCreateTree(tree.ID())
	return ec
}

// Context returns the Go context of the current tick.
// AsyncTask derives the context of its work from it.
func (ec *ExecutionContext) Context() context.Context {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.ctx
}

// Tree returns the tree being ticked.
func (ec *ExecutionContext) Tree() *BehaviorTree {
	return ec.tree
}

// Target returns the caller-supplied object of the current tick.
func (ec *ExecutionContext) Target() any {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.target
}

// Blackboard returns the bound blackboard.
func (ec *ExecutionContext) Blackboard() *blackboard.Blackboard {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.blackboard
}

// TreeBoard returns the board of the current tree.
func (ec *ExecutionContext) TreeBoard() *blackboard.TreeBoard {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.treeBoard
}

// Shared returns the global board of the bound blackboard.
func (ec *ExecutionContext) Shared() *blackboard.Board {
	return ec.Blackboard().Shared()
}

// NodeBoard returns the board of n within the current tree, creating it if needed.
func (ec *ExecutionContext) NodeBoard(n *Node) *blackboard.NodeBoard {
	return ec.TreeBoard().GetOrCreateNode(n.ID())
}

// ActiveNodes returns a copy of the open-node stack, root first.
func (ec *ExecutionContext) ActiveNodes() []*Node {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	out := make([]*Node, len(ec.active))
	copy(out, ec.active)
	return out
}

// Log forwards a record to the configured logger.
func (ec *ExecutionContext) Log(level domain.Severity, msg string, args ...any) {
	ec.mu.RLock()
	l := ec.logger
	ec.mu.RUnlock()
	l.Log(level, msg, args...)
}

// rebind switches the blackboard, e.g. after BehaviorTree.SetBlackboard.
func (ec *ExecutionContext) rebind(bb *blackboard.Blackboard) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.blackboard = bb
	ec.treeBoard = bb.GetOrCreateTree(ec.tree.ID())
}

func (ec *ExecutionContext) resetActive() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.active = nil
}

// prepare installs the per-tick inputs.
func (ec *ExecutionContext) prepare(ctx context.Context, target any) {
	if ctx == nil {
		ctx = context.Background()
	}
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.ctx = ctx
	ec.target = target
}

func (ec *ExecutionContext) depth() int {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return len(ec.active)
}

func (ec *ExecutionContext) trace(phase string, n *Node) {
	ec.Log(domain.SeverityDebug, strings.Repeat("  ", ec.depth())+phase,
		"node", n.name, "type", n.kind, "id", n.id)
}

func (ec *ExecutionContext) enterNode(n *Node) {
	ec.trace("ENTER", n)
}

func (ec *ExecutionContext) openNode(n *Node) {
	ec.mu.Lock()
	ec.active = append(ec.active, n)
	hook := ec.hooks.OnNodeOpen
	ec.mu.Unlock()

	ec.trace("OPEN", n)
	if hook != nil {
		hook(ec.Context(), ec.nodeEvent(domain.EventNodeOpen, n, ""))
	}
}

func (ec *ExecutionContext) runNode(n *Node) {
	ec.trace("RUN", n)
}

func (ec *ExecutionContext) closeNode(n *Node, status domain.Status) {
	ec.trace("CLOSE", n)

	ec.mu.Lock()
	for i := len(ec.active) - 1; i >= 0; i-- {
		if ec.active[i] == n {
			ec.active = append(ec.active[:i], ec.active[i+1:]...)
			break
		}
	}
	hook := ec.hooks.OnNodeClose
	ec.mu.Unlock()

	if hook != nil {
		hook(ec.Context(), ec.nodeEvent(domain.EventNodeClose, n, status))
	}
}

func (ec *ExecutionContext) exitNode(n *Node) {
	ec.trace("EXIT", n)
}

func (ec *ExecutionContext) nodeEvent(t domain.EventType, n *Node, status domain.Status) *domain.NodeEvent {
	return &domain.NodeEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      t,
			TreeID:    ec.tree.ID(),
			TreeName:  ec.tree.Name(),
		},
		NodeID:   n.id,
		NodeName: n.name,
		NodeType: n.kind,
		Category: n.category,
		Status:   status,
	}
}
