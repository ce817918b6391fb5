package blackboard

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

// TreeBoard is a Board scoped to one tree, owning the node boards of that tree.
type TreeBoard struct {
	Board

	nodesMu sync.RWMutex
	nodes   map[string]*NodeBoard
}

// NewTreeBoard creates an empty tree board.
func NewTreeBoard() *TreeBoard {
	return &TreeBoard{nodes: make(map[string]*NodeBoard)}
}

// Node returns the node board for nodeID, if it exists.
func (tb *TreeBoard) Node(nodeID string) (*NodeBoard, bool) {
	tb.nodesMu.RLock()
	defer tb.nodesMu.RUnlock()
	nb, ok := tb.nodes[nodeID]
	return nb, ok
}

// GetOrCreateNode returns the node board for nodeID, creating an empty one if needed.
func (tb *TreeBoard) GetOrCreateNode(nodeID string) *NodeBoard {
	if nb, ok := tb.Node(nodeID); ok {
		return nb
	}
	tb.nodesMu.Lock()
	defer tb.nodesMu.Unlock()
	if tb.nodes == nil {
		tb.nodes = make(map[string]*NodeBoard)
	}
	if nb, ok := tb.nodes[nodeID]; ok {
		return nb
	}
	nb := NewNodeBoard()
	tb.nodes[nodeID] = nb
	return nb
}

// NodeIDs returns the ids of all node boards in sorted order.
func (tb *TreeBoard) NodeIDs() []string {
	tb.nodesMu.RLock()
	defer tb.nodesMu.RUnlock()
	ids := make([]string, 0, len(tb.nodes))
	for id := range tb.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RemoveNode drops the node board for nodeID.
func (tb *TreeBoard) RemoveNode(nodeID string) {
	tb.nodesMu.Lock()
	defer tb.nodesMu.Unlock()
	delete(tb.nodes, nodeID)
}

// GC drops every empty node board and returns how many were removed.
func (tb *TreeBoard) GC() int {
	tb.nodesMu.Lock()
	defer tb.nodesMu.Unlock()
	removed := 0
	for id, nb := range tb.nodes {
		if nb.IsEmpty() {
			delete(tb.nodes, id)
			removed++
		}
	}
	return removed
}

// IsEmpty reports whether neither the tree keys nor any node board hold data.
func (tb *TreeBoard) IsEmpty() bool {
	if !tb.Board.IsEmpty() {
		return false
	}
	tb.nodesMu.RLock()
	defer tb.nodesMu.RUnlock()
	for _, nb := range tb.nodes {
		if !nb.IsEmpty() {
			return false
		}
	}
	return true
}

// TreeSnapshot is the serializable form of a TreeBoard.
type TreeSnapshot struct {
	Tree map[string]any            `json:"tree,omitempty"`
	Node map[string]map[string]any `json:"node,omitempty"`
}

// SnapshotSections selects what TreeBoard.SnapshotOf includes.
type SnapshotSections struct {
	Tree bool
	Node bool
}

// Snapshot returns both the tree keys and every node board.
func (tb *TreeBoard) Snapshot() TreeSnapshot {
	return tb.SnapshotOf(SnapshotSections{Tree: true, Node: true})
}

// SnapshotOf returns the selected sections of the tree board.
func (tb *TreeBoard) SnapshotOf(sections SnapshotSections) TreeSnapshot {
	var snap TreeSnapshot
	if sections.Tree {
		snap.Tree = tb.Board.Snapshot()
	}
	if sections.Node {
		tb.nodesMu.RLock()
		snap.Node = make(map[string]map[string]any, len(tb.nodes))
		for id, nb := range tb.nodes {
			snap.Node[id] = nb.Snapshot()
		}
		tb.nodesMu.RUnlock()
	}
	return snap
}

// MarshalJSON serializes the full tree board.
func (tb *TreeBoard) MarshalJSON() ([]byte, error) {
	return json.Marshal(tb.Snapshot())
}

func (tb *TreeBoard) restore(snap TreeSnapshot) {
	tb.Board.load(snap.Tree)
	tb.nodesMu.Lock()
	defer tb.nodesMu.Unlock()
	if tb.nodes == nil {
		tb.nodes = make(map[string]*NodeBoard, len(snap.Node))
	}
	for id := range tb.nodes {
		if _, ok := snap.Node[id]; !ok {
			delete(tb.nodes, id)
		}
	}
	// Existing handles are refilled in place so that async work holding one
	// keeps writing to the board the tree reads.
	for id, data := range snap.Node {
		nb, ok := tb.nodes[id]
		if !ok {
			nb = &NodeBoard{}
			tb.nodes[id] = nb
		}
		nb.load(data)
		if !nb.Has(domain.KeyIsOpen) {
			nb.CloseNode()
		}
	}
}
