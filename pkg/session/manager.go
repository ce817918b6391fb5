package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/blackboard"
	"github.com/aretw0/arbor/pkg/bt"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a tree.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates tree ticks and snapshot persistence.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SnapshotStore

	mu    sync.Mutex            // Global lock for the maps
	locks map[string]*lockEntry // Map of active locks
	ticks map[string]int64      // Tick count of the snapshot each local tree reflects

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock TTL (default DefaultLockTTL).
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Manager with the given persistence store.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		ticks:   make(map[string]int64),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(treeID) after unlocking.
func (m *Manager) acquire(treeID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[treeID]
	if !exists {
		entry = &lockEntry{}
		m.locks[treeID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(treeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[treeID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, treeID)
	}
}

func (m *Manager) localTicks(treeID string) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.ticks[treeID]
	return n, ok
}

func (m *Manager) setLocalTicks(treeID string, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks[treeID] = n
}

// Tick runs one tick of tree with persistence around it:
// the stored snapshot is applied first if it is newer than the local boards,
// and the resulting state is saved afterwards.
func (m *Manager) Tick(ctx context.Context, tree *bt.BehaviorTree, target any) (domain.Status, error) {
	status := domain.StatusError
	err := m.WithLock(ctx, tree.ID(), func(ctx context.Context) error {
		ticks, err := m.sync(ctx, tree)
		if err != nil {
			return err
		}

		status = tree.Tick(ctx, target)

		snap := Capture(tree, status, ticks+1)
		if err := m.store.Save(ctx, tree.ID(), snap); err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
		m.setLocalTicks(tree.ID(), snap.Ticks)
		return nil
	})
	return status, err
}

// sync applies the stored snapshot when it differs from what the local boards reflect.
// It returns the tick count of the state the tree is now in.
func (m *Manager) sync(ctx context.Context, tree *bt.BehaviorTree) (int64, error) {
	snap, err := m.store.Load(ctx, tree.ID())
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		local, _ := m.localTicks(tree.ID())
		return local, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load snapshot: %w", err)
	}

	if local, ok := m.localTicks(tree.ID()); ok && local == snap.Ticks {
		return local, nil
	}
	m.logger.Debug("Restoring tree from snapshot", "tree_id", tree.ID(), "ticks", snap.Ticks)
	Apply(tree, snap)
	m.setLocalTicks(tree.ID(), snap.Ticks)
	return snap.Ticks, nil
}

// Restore loads the stored snapshot into tree's blackboard.
func (m *Manager) Restore(ctx context.Context, tree *bt.BehaviorTree) (*ports.Snapshot, error) {
	var snap *ports.Snapshot
	err := m.WithLock(ctx, tree.ID(), func(ctx context.Context) error {
		var err error
		snap, err = m.store.Load(ctx, tree.ID())
		if err != nil {
			return err
		}
		Apply(tree, snap)
		m.setLocalTicks(tree.ID(), snap.Ticks)
		return nil
	})
	return snap, err
}

// Load retrieves the stored snapshot of a tree.
func (m *Manager) Load(ctx context.Context, treeID string) (*ports.Snapshot, error) {
	var snap *ports.Snapshot
	err := m.WithLock(ctx, treeID, func(ctx context.Context) error {
		var err error
		snap, err = m.store.Load(ctx, treeID)
		return err
	})
	return snap, err
}

// Save persists the current state of tree without ticking it.
func (m *Manager) Save(ctx context.Context, tree *bt.BehaviorTree, status domain.Status) error {
	return m.WithLock(ctx, tree.ID(), func(ctx context.Context) error {
		ticks, _ := m.localTicks(tree.ID())
		if err := m.store.Save(ctx, tree.ID(), Capture(tree, status, ticks)); err != nil {
			return err
		}
		m.setLocalTicks(tree.ID(), ticks)
		return nil
	})
}

// Delete removes the snapshot of a tree from the store.
func (m *Manager) Delete(ctx context.Context, treeID string) error {
	return m.WithLock(ctx, treeID, func(ctx context.Context) error {
		if err := m.store.Delete(ctx, treeID); err != nil {
			return err
		}
		m.mu.Lock()
		delete(m.ticks, treeID)
		m.mu.Unlock()
		return nil
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// WithLock executes a function while holding the lock for the tree.
func (m *Manager) WithLock(ctx context.Context, treeID string, fn func(context.Context) error) error {
	entry := m.acquire(treeID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(treeID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, treeID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrLockAcquire, err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"tree_id", treeID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Capture builds the snapshot of tree's own boards plus the shared board.
func Capture(tree *bt.BehaviorTree, status domain.Status, ticks int64) *ports.Snapshot {
	bb := tree.Blackboard()
	return &ports.Snapshot{
		TreeID:     tree.ID(),
		TreeName:   tree.Name(),
		LastStatus: status,
		Ticks:      ticks,
		UpdatedAt:  time.Now().UTC(),
		Blackboard: blackboard.Snapshot{
			Trees:  map[string]blackboard.TreeSnapshot{tree.ID(): bb.GetOrCreateTree(tree.ID()).Snapshot()},
			Shared: bb.Shared().Snapshot(),
		},
	}
}

// Apply restores tree's boards from snap. Shared keys are merged, not replaced,
// since other trees may share the blackboard.
func Apply(tree *bt.BehaviorTree, snap *ports.Snapshot) {
	bb := tree.Blackboard()
	bb.RestoreTree(tree.ID(), snap.Blackboard.Trees[tree.ID()])
	for k, v := range snap.Blackboard.Shared {
		bb.Shared().Set(k, v)
	}
}
