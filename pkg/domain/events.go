package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTickStart EventType = "tick_start"
	EventTickEnd   EventType = "tick_end"
	EventNodeOpen  EventType = "node_open"
	EventNodeClose EventType = "node_close"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	TreeID    string    `json:"tree_id"`
	TreeName  string    `json:"tree_name"`
}

// TickEvent describes one BehaviorTree tick.
type TickEvent struct {
	EventBase
	Status   Status        `json:"status,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// NodeEvent describes a node opening or closing.
type NodeEvent struct {
	EventBase
	NodeID   string   `json:"node_id"`
	NodeName string   `json:"node_name"`
	NodeType string   `json:"node_type"`
	Category Category `json:"category"`
	Status   Status   `json:"status,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Any field may be nil.
type LifecycleHooks struct {
	OnTickStart func(context.Context, *TickEvent)
	OnTickEnd   func(context.Context, *TickEvent)
	OnNodeOpen  func(context.Context, *NodeEvent)
	OnNodeClose func(context.Context, *NodeEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTickStart: chainTick(h.OnTickStart, other.OnTickStart),
		OnTickEnd:   chainTick(h.OnTickEnd, other.OnTickEnd),
		OnNodeOpen:  chainNode(h.OnNodeOpen, other.OnNodeOpen),
		OnNodeClose: chainNode(h.OnNodeClose, other.OnNodeClose),
	}
}

func chainTick(a, b func(context.Context, *TickEvent)) func(context.Context, *TickEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *TickEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainNode(a, b func(context.Context, *NodeEvent)) func(context.Context, *NodeEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *NodeEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
