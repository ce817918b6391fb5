package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/arbor/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that write one structured record per event.
// Tick completions are logged at Info, node transitions at Debug.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	if logger == nil {
		logger = slog.Default()
	}
	return domain.LifecycleHooks{
		OnTickEnd: func(ctx context.Context, e *domain.TickEvent) {
			logger.InfoContext(ctx, "tick",
				"tree", e.TreeName,
				"tree_id", e.TreeID,
				"status", e.Status,
				"duration", e.Duration,
			)
		},
		OnNodeOpen: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node open",
				"tree_id", e.TreeID,
				"node_id", e.NodeID,
				"node", e.NodeName,
				"type", e.NodeType,
			)
		},
		OnNodeClose: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node close",
				"tree_id", e.TreeID,
				"node_id", e.NodeID,
				"node", e.NodeName,
				"type", e.NodeType,
				"status", e.Status,
			)
		},
	}
}
