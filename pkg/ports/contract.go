package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/blackboard"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractSnapshot(treeID string) *Snapshot {
	bb := blackboard.New()
	bb.Shared().Set("foo", "bar")
	bb.Node(treeID, "n1").Set(domain.KeyRunningChild, 2)
	bb.Node(treeID, "n1").OpenNode()
	return &Snapshot{
		TreeID:     treeID,
		TreeName:   "contract",
		LastStatus: domain.StatusRunning,
		Ticks:      3,
		UpdatedAt:  time.Now().UTC().Truncate(time.Second),
		Blackboard: bb.Snapshot(),
	}
}

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	treeID := "contract-test-tree-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := contractSnapshot(treeID)

		err := store.Save(ctx, treeID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, treeID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.TreeID, loaded.TreeID)
		assert.Equal(t, snap.LastStatus, loaded.LastStatus)
		assert.Equal(t, snap.Ticks, loaded.Ticks)
		assert.True(t, snap.UpdatedAt.Equal(loaded.UpdatedAt))
		assert.Equal(t, "bar", loaded.Blackboard.Shared["foo"])

		// JSON persistence may turn ints into float64; the engine reads them tolerantly.
		node := loaded.Blackboard.Trees[treeID].Node["n1"]
		idx, ok := blackboard.Int(node[domain.KeyRunningChild])
		assert.True(t, ok)
		assert.Equal(t, 2, idx)
		assert.Equal(t, true, node[domain.KeyIsOpen])
	})

	t.Run("Isolation", func(t *testing.T) {
		snap := contractSnapshot(treeID)
		require.NoError(t, store.Save(ctx, treeID, snap))

		snap.Blackboard.Shared["foo"] = "mutated"
		loaded, err := store.Load(ctx, treeID)
		require.NoError(t, err)
		assert.Equal(t, "bar", loaded.Blackboard.Shared["foo"], "saved snapshots must not alias the caller's maps")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+treeID)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, treeID, contractSnapshot(treeID))
		require.NoError(t, err)

		err = store.Delete(ctx, treeID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, treeID)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := treeID + "-1"
		id2 := treeID + "-2"
		_ = store.Save(ctx, id1, contractSnapshot(id1))
		_ = store.Save(ctx, id2, contractSnapshot(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		trees, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, trees, id1)
		assert.Contains(t, trees, id2)
	})
}
