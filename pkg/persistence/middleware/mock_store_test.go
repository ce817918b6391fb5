package middleware_test

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]*ports.Snapshot
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*ports.Snapshot),
	}
}

func (s *MockStore) Save(ctx context.Context, treeID string, snap *ports.Snapshot) error {
	s.data[treeID] = snap
	return nil
}

func (s *MockStore) Load(ctx context.Context, treeID string) (*ports.Snapshot, error) {
	snap, ok := s.data[treeID]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return snap, nil
}

func (s *MockStore) Delete(ctx context.Context, treeID string) error {
	delete(s.data, treeID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.SnapshotStore = (*MockStore)(nil)
