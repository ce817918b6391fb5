package ports

import (
	"context"
	"time"

	"github.com/aretw0/arbor/pkg/blackboard"
	"github.com/aretw0/arbor/pkg/domain"
)

// Snapshot is the persisted state of one tree between ticks.
type Snapshot struct {
	TreeID     string              `json:"tree_id"`
	TreeName   string              `json:"tree_name,omitempty"`
	LastStatus domain.Status       `json:"last_status,omitempty"`
	Ticks      int64               `json:"ticks"`
	UpdatedAt  time.Time           `json:"updated_at"`
	Blackboard blackboard.Snapshot `json:"blackboard"`
	// Sealed holds an encrypted payload when the snapshot passed through an
	// encrypting store; Blackboard is then empty.
	Sealed string `json:"sealed,omitempty"`
}

// SnapshotStore defines the interface for persisting tree state.
// It enables "stop & resume": a tree rebuilt in another process continues
// from the restored node boards.
type SnapshotStore interface {
	// Save persists the snapshot for a given tree ID.
	Save(ctx context.Context, treeID string, snap *Snapshot) error

	// Load retrieves the snapshot for a given tree ID.
	// Returns domain.ErrSnapshotNotFound if none exists.
	Load(ctx context.Context, treeID string) (*Snapshot, error)

	// Delete removes the snapshot for a given tree ID.
	Delete(ctx context.Context, treeID string) error

	// List returns the IDs of every stored tree.
	List(ctx context.Context) ([]string, error)
}
