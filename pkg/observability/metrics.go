package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/arbor/pkg/domain"
)

// Namespace prefixes every metric exported by this package.
const Namespace = "arbor"

// Metrics holds the Prometheus collectors fed by the engine hooks.
type Metrics struct {
	registry     *prometheus.Registry
	ticks        *prometheus.CounterVec
	tickDuration *prometheus.HistogramVec
	nodeOpens    *prometheus.CounterVec
	nodeCloses   *prometheus.CounterVec
}

// MetricsOption configures Metrics.
type MetricsOption func(*metricsConfig)

type metricsConfig struct {
	registry *prometheus.Registry
	buckets  []float64
}

// WithRegistry registers the collectors on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) MetricsOption {
	return func(c *metricsConfig) {
		c.registry = reg
	}
}

// WithBuckets overrides the tick duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *metricsConfig) {
		c.buckets = buckets
	}
}

// NewMetrics creates and registers the engine collectors.
func NewMetrics(opts ...MetricsOption) (*Metrics, error) {
	cfg := metricsConfig{buckets: prometheus.ExponentialBuckets(0.0001, 4, 10)}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.registry == nil {
		cfg.registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: cfg.registry,
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ticks_total",
			Help:      "Total number of tree ticks by resulting status.",
		}, []string{"tree", "status"}),
		tickDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "tick_duration_seconds",
			Help:      "Duration of a full tree tick.",
			Buckets:   cfg.buckets,
		}, []string{"tree"}),
		nodeOpens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "node_opens_total",
			Help:      "Total number of node activations by node type.",
		}, []string{"tree", "type"}),
		nodeCloses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "node_closes_total",
			Help:      "Total number of node completions by node type and status.",
		}, []string{"tree", "type", "status"}),
	}

	for _, c := range []prometheus.Collector{m.ticks, m.tickDuration, m.nodeOpens, m.nodeCloses} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTickEnd: func(_ context.Context, e *domain.TickEvent) {
			tree := treeLabel(e.TreeName, e.TreeID)
			m.ticks.WithLabelValues(tree, e.Status.String()).Inc()
			m.tickDuration.WithLabelValues(tree).Observe(e.Duration.Seconds())
		},
		OnNodeOpen: func(_ context.Context, e *domain.NodeEvent) {
			m.nodeOpens.WithLabelValues(treeLabel(e.TreeName, e.TreeID), e.NodeType).Inc()
		},
		OnNodeClose: func(_ context.Context, e *domain.NodeEvent) {
			m.nodeCloses.WithLabelValues(treeLabel(e.TreeName, e.TreeID), e.NodeType, e.Status.String()).Inc()
		},
	}
}

func treeLabel(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
