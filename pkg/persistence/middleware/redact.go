package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/arbor/pkg/blackboard"
	"github.com/aretw0/arbor/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

type redactMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks blackboard values whose
// keys match any of the patterns, on every board and at any nesting depth.
// Redaction is one-way: masked values are not restored on Load.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, treeID string, snap *ports.Snapshot) error {
	// Copy first: the snapshot may share maps with the live blackboard.
	cloned := *snap
	cloned.Blackboard = blackboard.Snapshot{
		Shared: m.mask(snap.Blackboard.Shared),
		Trees:  make(map[string]blackboard.TreeSnapshot, len(snap.Blackboard.Trees)),
	}
	for id, ts := range snap.Blackboard.Trees {
		out := blackboard.TreeSnapshot{Tree: m.mask(ts.Tree)}
		if ts.Node != nil {
			out.Node = make(map[string]map[string]any, len(ts.Node))
			for nodeID, data := range ts.Node {
				out.Node[nodeID] = m.mask(data)
			}
		}
		cloned.Blackboard.Trees[id] = out
	}
	return m.next.Save(ctx, treeID, &cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, treeID string) (*ports.Snapshot, error) {
	return m.next.Load(ctx, treeID)
}

func (m *redactMiddleware) Delete(ctx context.Context, treeID string) error {
	return m.next.Delete(ctx, treeID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// mask returns a deep copy of src with matching keys masked.
func (m *redactMiddleware) mask(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		if m.matches(k) {
			out[k] = Mask
			continue
		}
		if sub, ok := v.(map[string]any); ok {
			out[k] = m.mask(sub)
			continue
		}
		out[k] = v
	}
	return out
}

func (m *redactMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
