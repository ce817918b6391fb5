package observability_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/pkg/bt"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observability"
)

func patrol(hooks domain.LifecycleHooks) *bt.BehaviorTree {
	root := bt.NewSequence([]*bt.Node{
		bt.NewTask("look", func(*bt.ExecutionContext) domain.Status { return domain.StatusSuccess }),
		bt.NewTask("walk", func(*bt.ExecutionContext) domain.Status { return domain.StatusRunning }),
	})
	return bt.New(root, bt.WithTreeName("patrol"), bt.WithLifecycleHooks(hooks))
}

func TestMetrics_Hooks(t *testing.T) {
	m, err := observability.NewMetrics()
	require.NoError(t, err)

	tree := patrol(m.Hooks())
	for range 3 {
		tree.Tick(context.Background(), nil)
	}

	reg := m.Registry()
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "arbor_ticks_total"))

	expected := `
# HELP arbor_ticks_total Total number of tree ticks by resulting status.
# TYPE arbor_ticks_total counter
arbor_ticks_total{status="RUNNING",tree="patrol"} 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "arbor_ticks_total"))

	// "look" closes with success on every tick. "walk" stays open after the first.
	closes := `
# HELP arbor_node_closes_total Total number of node completions by node type and status.
# TYPE arbor_node_closes_total counter
arbor_node_closes_total{status="SUCCESS",tree="patrol",type="Task"} 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(closes), "arbor_node_closes_total"))
}

func TestMetrics_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(observability.WithRegistry(reg))
	require.NoError(t, err)

	_, err = observability.NewMetrics(observability.WithRegistry(reg))
	assert.Error(t, err, "registering twice on one registry must fail")
}

func TestMetrics_Handler(t *testing.T) {
	m, err := observability.NewMetrics()
	require.NoError(t, err)
	patrol(m.Hooks()).Tick(context.Background(), nil)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "arbor_tick_duration_seconds_count")
	assert.Contains(t, string(body), `arbor_node_opens_total{tree="patrol",type="Sequence"} 1`)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	patrol(observability.LoggingHooks(logger)).Tick(context.Background(), nil)

	out := buf.String()
	assert.Contains(t, out, `msg=tick tree=patrol`)
	assert.Contains(t, out, `status=RUNNING`)
	assert.Contains(t, out, `msg="node open"`)
	assert.Contains(t, out, `msg="node close"`)
	assert.Contains(t, out, `node=look`)
}
