package blackboard

import (
	"encoding/json"
	"sort"
	"sync"
)

// Blackboard owns the shared board and one TreeBoard per tree id.
type Blackboard struct {
	shared *Board

	mu    sync.RWMutex
	trees map[string]*TreeBoard
}

// New creates an empty blackboard.
func New() *Blackboard {
	return &Blackboard{
		shared: NewBoard(),
		trees:  make(map[string]*TreeBoard),
	}
}

// Shared returns the global board. It carries no isolation: callers own key naming.
func (bb *Blackboard) Shared() *Board {
	return bb.shared
}

// Tree returns the tree board for treeID, if it exists.
func (bb *Blackboard) Tree(treeID string) (*TreeBoard, bool) {
	bb.mu.RLock()
	defer bb.mu.RUnlock()
	tb, ok := bb.trees[treeID]
	return tb, ok
}

// GetOrCreateTree returns the tree board for treeID, creating an empty one if needed.
func (bb *Blackboard) GetOrCreateTree(treeID string) *TreeBoard {
	if tb, ok := bb.Tree(treeID); ok {
		return tb
	}
	bb.mu.Lock()
	defer bb.mu.Unlock()
	if tb, ok := bb.trees[treeID]; ok {
		return tb
	}
	tb := NewTreeBoard()
	bb.trees[treeID] = tb
	return tb
}

// Node is shorthand for GetOrCreateTree(treeID).GetOrCreateNode(nodeID).
func (bb *Blackboard) Node(treeID, nodeID string) *NodeBoard {
	return bb.GetOrCreateTree(treeID).GetOrCreateNode(nodeID)
}

// TreeIDs returns the ids of all tree boards in sorted order.
func (bb *Blackboard) TreeIDs() []string {
	bb.mu.RLock()
	defer bb.mu.RUnlock()
	ids := make([]string, 0, len(bb.trees))
	for id := range bb.trees {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RemoveTree releases every board held for treeID.
func (bb *Blackboard) RemoveTree(treeID string) {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	delete(bb.trees, treeID)
}

// GC drops empty node boards, then empty tree boards.
// It returns the number of node boards removed.
func (bb *Blackboard) GC() int {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	removed := 0
	for id, tb := range bb.trees {
		removed += tb.GC()
		if tb.IsEmpty() {
			delete(bb.trees, id)
		}
	}
	return removed
}

// Snapshot is the serializable form of a Blackboard.
type Snapshot struct {
	Trees  map[string]TreeSnapshot `json:"trees"`
	Shared map[string]any          `json:"shared"`
}

// Snapshot captures every board.
func (bb *Blackboard) Snapshot() Snapshot {
	bb.mu.RLock()
	defer bb.mu.RUnlock()
	snap := Snapshot{
		Trees:  make(map[string]TreeSnapshot, len(bb.trees)),
		Shared: bb.shared.Snapshot(),
	}
	for id, tb := range bb.trees {
		snap.Trees[id] = tb.Snapshot()
	}
	return snap
}

// MarshalJSON serializes the whole blackboard.
func (bb *Blackboard) MarshalJSON() ([]byte, error) {
	return json.Marshal(bb.Snapshot())
}

// Restore replaces the content of bb with snap.
// Existing TreeBoard handles for trees present in snap stay valid and are refilled.
func (bb *Blackboard) Restore(snap Snapshot) {
	bb.shared.load(snap.Shared)
	bb.mu.Lock()
	defer bb.mu.Unlock()
	for id := range bb.trees {
		if _, ok := snap.Trees[id]; !ok {
			delete(bb.trees, id)
		}
	}
	for id, ts := range snap.Trees {
		tb, ok := bb.trees[id]
		if !ok {
			tb = NewTreeBoard()
			bb.trees[id] = tb
		}
		tb.restore(ts)
	}
}

// RestoreTree replaces only the tree board for treeID.
func (bb *Blackboard) RestoreTree(treeID string, snap TreeSnapshot) {
	bb.GetOrCreateTree(treeID).restore(snap)
}
