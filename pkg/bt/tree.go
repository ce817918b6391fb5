package bt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/blackboard"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/google/uuid"
)

// Options holds the logging knobs of a tree.
type Options struct {
	// Debug switches the log threshold from LogLevel to DebugLevel.
	Debug bool
	// DebugLevel is the threshold while debugging (default: debug).
	DebugLevel domain.Severity
	// LogLevel is the threshold otherwise (default: warning).
	LogLevel domain.Severity
}

// DefaultOptions returns the defaults applied by New.
func DefaultOptions() Options {
	return Options{
		Debug:      false,
		DebugLevel: domain.SeverityDebug,
		LogLevel:   domain.SeverityWarning,
	}
}

// Threshold returns the severity threshold implied by the options.
func (o Options) Threshold() domain.Severity {
	if o.Debug {
		return o.DebugLevel
	}
	return o.LogLevel
}

// BehaviorTree owns a root node, an identifier and a Blackboard.
// Tick is safe to call from multiple goroutines; calls are serialized.
type BehaviorTree struct {
	mu sync.Mutex

	id          string
	name        string
	description string
	properties  map[string]any

	root       *Node
	blackboard *blackboard.Blackboard
	opts       Options
	slogger    *slog.Logger
	logger     Logger
	hooks      domain.LifecycleHooks

	ec *ExecutionContext
}

// Option configures a BehaviorTree.
type Option func(*BehaviorTree)

// WithTreeID sets the tree identifier (default: a random UUID).
func WithTreeID(id string) Option {
	return func(t *BehaviorTree) {
		t.id = id
	}
}

// WithTreeName sets the tree name.
func WithTreeName(name string) Option {
	return func(t *BehaviorTree) {
		t.name = name
	}
}

// WithTreeDescription sets the tree description.
func WithTreeDescription(description string) Option {
	return func(t *BehaviorTree) {
		t.description = description
	}
}

// WithTreeProperties merges props into the tree properties.
func WithTreeProperties(props map[string]any) Option {
	return func(t *BehaviorTree) {
		for k, v := range props {
			t.properties[k] = v
		}
	}
}

// WithBlackboard binds an existing (possibly pre-populated) blackboard.
func WithBlackboard(bb *blackboard.Blackboard) Option {
	return func(t *BehaviorTree) {
		t.blackboard = bb
	}
}

// WithOptions replaces the logging options.
func WithOptions(opts Options) Option {
	return func(t *BehaviorTree) {
		t.opts = opts
	}
}

// WithDebug toggles debug logging.
func WithDebug(debug bool) Option {
	return func(t *BehaviorTree) {
		t.opts.Debug = debug
	}
}

// WithLogLevel sets the non-debug threshold.
func WithLogLevel(level domain.Severity) Option {
	return func(t *BehaviorTree) {
		t.opts.LogLevel = level
	}
}

// WithDebugLevel sets the debug threshold.
func WithDebugLevel(level domain.Severity) Option {
	return func(t *BehaviorTree) {
		t.opts.DebugLevel = level
	}
}

// WithSlog routes engine logs to logger, filtered by the tree options.
func WithSlog(logger *slog.Logger) Option {
	return func(t *BehaviorTree) {
		t.slogger = logger
	}
}

// WithLogger installs a custom Logger; the tree options are then ignored for filtering.
func WithLogger(l Logger) Option {
	return func(t *BehaviorTree) {
		t.logger = l
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(t *BehaviorTree) {
		t.hooks = t.hooks.Merge(hooks)
	}
}

// New creates a tree around root. A Blackboard is created if none is supplied.
func New(root *Node, opts ...Option) *BehaviorTree {
	t := &BehaviorTree{
		id:         uuid.NewString(),
		name:       domain.DefaultTreeName,
		properties: make(map[string]any),
		root:       root,
		opts:       DefaultOptions(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.blackboard == nil {
		t.blackboard = blackboard.New()
	}
	if t.logger == nil {
		base := t.slogger
		if base == nil && t.opts.Debug {
			base = logging.New(slog.LevelDebug)
		}
		t.logger = logging.NewSyslog(base, t.opts.Threshold()).With("tree", t.name, "tree_id", t.id)
	}
	return t
}

func (t *BehaviorTree) ID() string          { return t.id }
func (t *BehaviorTree) Name() string        { return t.name }
func (t *BehaviorTree) Description() string { return t.description }
func (t *BehaviorTree) Options() Options    { return t.opts }

// Properties returns a copy of the tree properties.
func (t *BehaviorTree) Properties() map[string]any {
	out := make(map[string]any, len(t.properties))
	for k, v := range t.properties {
		out[k] = v
	}
	return out
}

// Root returns the root node.
func (t *BehaviorTree) Root() *Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.root
}

// SetRoot swaps the root node. Boards of the old nodes are left in place,
// but the open path recorded for the old root is dropped.
func (t *BehaviorTree) SetRoot(root *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root = root
	if t.ec != nil {
		t.ec.resetActive()
	}
	t.blackboard.GetOrCreateTree(t.id).Unset(domain.KeyActiveNodes)
}

// Blackboard returns the bound blackboard.
func (t *BehaviorTree) Blackboard() *blackboard.Blackboard {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.blackboard
}

// SetBlackboard replaces the blackboard and rebinds the reusable context.
func (t *BehaviorTree) SetBlackboard(bb *blackboard.Blackboard) {
	if bb == nil {
		bb = blackboard.New()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.blackboard = bb
	if t.ec != nil {
		t.ec.rebind(bb)
	}
}

// Logger returns the logger the tree hands to its contexts.
func (t *BehaviorTree) Logger() Logger {
	return t.logger
}

// Context returns the reusable execution context, creating it on first use.
func (t *BehaviorTree) Context() *ExecutionContext {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.context()
}

func (t *BehaviorTree) context() *ExecutionContext {
	if t.ec == nil {
		t.ec = NewExecutionContext(t, t.blackboard,
			WithContextLogger(t.logger),
			WithContextHooks(t.hooks),
		)
	}
	return t.ec
}

// Tick evaluates the tree once with target as the world object.
// It always returns one of the four statuses.
func (t *BehaviorTree) Tick(ctx context.Context, target any) domain.Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	ec := t.context()
	ec.prepare(ctx, target)
	return t.tick(ctx, ec)
}

// TickWith evaluates the tree once using a caller-built context.
// The context must have been created for this tree.
func (t *BehaviorTree) TickWith(ec *ExecutionContext) domain.Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ec == nil {
		ec = t.context()
	}
	if ec.tree != t {
		t.logger.Log(domain.SeverityErr, "execution context belongs to another tree",
			"context_tree", ec.tree.ID())
		return domain.StatusError
	}
	return t.tick(ec.Context(), ec)
}

func (t *BehaviorTree) tick(ctx context.Context, ec *ExecutionContext) domain.Status {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	if t.hooks.OnTickStart != nil {
		t.hooks.OnTickStart(ctx, t.tickEvent(domain.EventTickStart, start, "", 0))
	}

	status := domain.StatusError
	if t.root == nil {
		ec.Log(domain.SeverityErr, "tree has no root node")
	} else {
		status = t.root.Tick(ec)
	}

	active := ec.ActiveNodes()
	ids := make([]string, len(active))
	for i, n := range active {
		ids[i] = n.ID()
	}
	ec.TreeBoard().Set(domain.KeyActiveNodes, ids)

	if t.hooks.OnTickEnd != nil {
		t.hooks.OnTickEnd(ctx, t.tickEvent(domain.EventTickEnd, time.Now(), status, time.Since(start)))
	}
	return status
}

func (t *BehaviorTree) tickEvent(typ domain.EventType, at time.Time, status domain.Status, d time.Duration) *domain.TickEvent {
	return &domain.TickEvent{
		EventBase: domain.EventBase{Timestamp: at, Type: typ, TreeID: t.id, TreeName: t.name},
		Status:    status,
		Duration:  d,
	}
}

// ActiveNodes returns the open path recorded by the last tick.
func (t *BehaviorTree) ActiveNodes() []*Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ec == nil {
		return nil
	}
	return t.ec.ActiveNodes()
}

// TreeBoard returns this tree's board on the bound blackboard.
func (t *BehaviorTree) TreeBoard() *blackboard.TreeBoard {
	return t.Blackboard().GetOrCreateTree(t.id)
}

// Release drops every board held for this tree on the bound blackboard.
func (t *BehaviorTree) Release() {
	t.Blackboard().RemoveTree(t.id)
}

// Walk visits the tree in pre-order. Returning false from fn skips the node's children.
func (t *BehaviorTree) Walk(fn func(n *Node, depth int) bool) {
	Walk(t.Root(), fn)
}

// Find returns the first node with the given id.
func (t *BehaviorTree) Find(id string) (*Node, bool) {
	var found *Node
	t.Walk(func(n *Node, _ int) bool {
		if found != nil {
			return false
		}
		if n.ID() == id {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

// Walk visits root and its descendants in pre-order.
func Walk(root *Node, fn func(n *Node, depth int) bool) {
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		if n == nil || !fn(n, depth) {
			return
		}
		for _, c := range n.Children() {
			visit(c, depth+1)
		}
	}
	visit(root, 0)
}

// ErrDuplicateNode is reported by Validate when a node instance appears twice.
var ErrDuplicateNode = errors.New("node appears more than once")

// Validate checks the tree shape: a root must exist and no node instance or
// node id may appear twice, since node state is indexed by id.
func (t *BehaviorTree) Validate() error {
	root := t.Root()
	if root == nil {
		return fmt.Errorf("%w: tree %s has no root", domain.ErrInvalidDefinition, t.id)
	}
	seen := make(map[string]*Node)
	var errs []error
	Walk(root, func(n *Node, _ int) bool {
		if prev, ok := seen[n.ID()]; ok {
			if prev == n {
				errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateNode, n))
				return false
			}
			errs = append(errs, fmt.Errorf("%w: id %s shared by %s and %s", ErrDuplicateNode, n.ID(), prev.Name(), n.Name()))
		}
		seen[n.ID()] = n
		return true
	})
	return errors.Join(errs...)
}
