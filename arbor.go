package arbor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/blackboard"
	"github.com/aretw0/arbor/pkg/bt"
	"github.com/aretw0/arbor/pkg/definition"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/aretw0/arbor/pkg/tasks"
)

// Engine is the high-level entry point for the arbor library.
// It builds trees from definitions, hosts them on one shared blackboard and
// ticks them by id.
type Engine struct {
	mu         sync.RWMutex
	registry   *definition.Registry
	blackboard *blackboard.Blackboard
	sessions   *session.Manager
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	treeOpts   []bt.Option
	trees      map[string]*hosted
}

type hosted struct {
	tree  *bt.BehaviorTree
	ticks int64
	last  domain.Status
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRegistry sets the node type registry (default: builtins plus package tasks).
func WithRegistry(reg *definition.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithBlackboard shares bb between every tree of the engine.
func WithBlackboard(bb *blackboard.Blackboard) Option {
	return func(e *Engine) {
		e.blackboard = bb
	}
}

// WithSessionManager persists every tick and restores trees on load.
func WithSessionManager(m *session.Manager) Option {
	return func(e *Engine) {
		e.sessions = m
	}
}

// WithLifecycleHooks registers observability hooks on every loaded tree.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine and its trees.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTreeOptions appends options applied to every tree built by the engine.
func WithTreeOptions(opts ...bt.Option) Option {
	return func(e *Engine) {
		e.treeOpts = append(e.treeOpts, opts...)
	}
}

// New initializes an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{trees: make(map[string]*hosted)}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = tasks.NewRegistry()
	}
	if e.blackboard == nil {
		e.blackboard = blackboard.New()
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	return e
}

// Registry returns the node type registry.
func (e *Engine) Registry() *definition.Registry { return e.registry }

// Blackboard returns the blackboard shared by the engine's trees.
func (e *Engine) Blackboard() *blackboard.Blackboard { return e.blackboard }

// Validate checks def against the engine's registry without building it.
func (e *Engine) Validate(def *definition.TreeDefinition) error {
	return definition.Validate(def, e.registry)
}

// LoadFile reads, builds and hosts the tree defined at path.
func (e *Engine) LoadFile(ctx context.Context, path string) (*bt.BehaviorTree, error) {
	def, err := definition.Load(path)
	if err != nil {
		return nil, err
	}
	return e.Load(ctx, def)
}

// Load builds def and hosts the resulting tree. A tree already hosted under
// the same id is replaced and its boards released. When a session manager is
// configured, the stored snapshot (if any) is applied to the new tree.
func (e *Engine) Load(ctx context.Context, def *definition.TreeDefinition) (*bt.BehaviorTree, error) {
	opts := []bt.Option{
		bt.WithBlackboard(e.blackboard),
		bt.WithSlog(e.logger),
		bt.WithLifecycleHooks(e.hooks),
	}
	tree, err := definition.Build(def, e.registry, append(opts, e.treeOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to build tree: %w", err)
	}

	e.mu.RLock()
	old, replaced := e.trees[tree.ID()]
	e.mu.RUnlock()
	if replaced {
		// The rebuilt nodes keep their ids, so stale open flags and resume
		// indices would otherwise carry over. A stored snapshot applies after.
		old.tree.Release()
	}

	h := &hosted{tree: tree}
	if e.sessions != nil {
		snap, err := e.sessions.Restore(ctx, tree)
		switch {
		case err == nil:
			h.ticks, h.last = snap.Ticks, snap.LastStatus
			e.logger.Info("Tree restored", "tree_id", tree.ID(), "ticks", snap.Ticks)
		case errors.Is(err, domain.ErrSnapshotNotFound):
		default:
			return nil, fmt.Errorf("failed to restore tree: %w", err)
		}
	}

	e.mu.Lock()
	e.trees[tree.ID()] = h
	e.mu.Unlock()

	if replaced {
		e.logger.Debug("Tree replaced", "tree_id", tree.ID(), "old", old.tree.Name())
	}
	e.logger.Debug("Tree loaded", "tree_id", tree.ID(), "tree", tree.Name())
	return tree, nil
}

// Tree returns a hosted tree by id.
func (e *Engine) Tree(id string) (*bt.BehaviorTree, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.trees[id]
	if !ok {
		return nil, false
	}
	return h.tree, true
}

// Trees returns the hosted trees ordered by id.
func (e *Engine) Trees() []*bt.BehaviorTree {
	e.mu.RLock()
	out := make([]*bt.BehaviorTree, 0, len(e.trees))
	for _, h := range e.trees {
		out = append(out, h.tree)
	}
	e.mu.RUnlock()

	slices.SortFunc(out, func(a, b *bt.BehaviorTree) int {
		return strings.Compare(a.ID(), b.ID())
	})
	return out
}

// Unload stops hosting a tree and releases its boards.
// The persisted snapshot, if any, is kept.
func (e *Engine) Unload(id string) error {
	e.mu.Lock()
	h, ok := e.trees[id]
	delete(e.trees, id)
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrTreeNotFound, id)
	}
	h.tree.Release()
	return nil
}

func (e *Engine) lookup(id string) (*hosted, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.trees[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTreeNotFound, id)
	}
	return h, nil
}

// Tick evaluates a hosted tree once.
func (e *Engine) Tick(ctx context.Context, id string, target any) (domain.Status, error) {
	h, err := e.lookup(id)
	if err != nil {
		return domain.StatusError, err
	}

	var status domain.Status
	if e.sessions != nil {
		status, err = e.sessions.Tick(ctx, h.tree, target)
		if err != nil {
			return status, err
		}
	} else {
		status = h.tree.Tick(ctx, target)
	}

	e.mu.Lock()
	h.ticks++
	h.last = status
	e.mu.Unlock()
	return status, nil
}

// Status returns the result of the last tick of a hosted tree and how many
// ticks it has received. A tree that was never ticked reports an empty status.
func (e *Engine) Status(id string) (domain.Status, int64, error) {
	h, err := e.lookup(id)
	if err != nil {
		return "", 0, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return h.last, h.ticks, nil
}

// Snapshot captures the current boards of a hosted tree.
func (e *Engine) Snapshot(id string) (*ports.Snapshot, error) {
	h, err := e.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	last, ticks := h.last, h.ticks
	e.mu.RUnlock()
	return session.Capture(h.tree, last, ticks), nil
}

// Restore applies snap to the hosted tree it belongs to.
func (e *Engine) Restore(snap *ports.Snapshot) error {
	h, err := e.lookup(snap.TreeID)
	if err != nil {
		return err
	}
	session.Apply(h.tree, snap)

	e.mu.Lock()
	h.ticks, h.last = snap.Ticks, snap.LastStatus
	e.mu.Unlock()
	return nil
}
