package bt_test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/arbor/pkg/blackboard"
	"github.com/aretw0/arbor/pkg/bt"
	"github.com/aretw0/arbor/pkg/domain"
)

// script is a Task that plays back a list of statuses, repeating the last one.
type script struct {
	statuses []domain.Status
	calls    int
}

func (s *script) node(name string) *bt.Node {
	return bt.NewTask(name, func(*bt.ExecutionContext) domain.Status {
		i := s.calls
		if i >= len(s.statuses) {
			i = len(s.statuses) - 1
		}
		s.calls++
		return s.statuses[i]
	})
}

func play(statuses ...domain.Status) *script {
	return &script{statuses: statuses}
}

// spy records lifecycle calls of a custom node kind.
type spy struct {
	bt.BaseLifecycle
	opens  int
	closes int
	result domain.Status
}

func (s *spy) Open(*bt.ExecutionContext, *blackboard.NodeBoard)  { s.opens++ }
func (s *spy) Close(*bt.ExecutionContext, *blackboard.NodeBoard) { s.closes++ }
func (s *spy) Run(*bt.ExecutionContext, *blackboard.NodeBoard) domain.Status {
	return s.result
}

// recorder is a bt.Logger that keeps every record.
type recorder struct {
	mu      sync.Mutex
	records []string
}

func (r *recorder) Log(level domain.Severity, msg string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, fmt.Sprintf("%s %s %v", level, msg, args))
}

func (r *recorder) has(level domain.Severity, msg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := fmt.Sprintf("%s %s", level, msg)
	for _, rec := range r.records {
		if strings.HasPrefix(rec, prefix) {
			return true
		}
	}
	return false
}

func tickN(tree *bt.BehaviorTree, n int) []domain.Status {
	out := make([]domain.Status, n)
	for i := range out {
		out[i] = tree.Tick(context.Background(), nil)
	}
	return out
}
