package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor"
	arborhttp "github.com/aretw0/arbor/pkg/adapters/http"
	"github.com/aretw0/arbor/pkg/definition"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observability"
)

func newServer(t *testing.T, opts ...arborhttp.Option) (*httptest.Server, *arbor.Engine) {
	t.Helper()
	eng := arbor.New()
	_, err := eng.Load(context.Background(), &definition.TreeDefinition{
		ID:   "patrol",
		Name: "Patrol",
		Root: &definition.Definition{
			ID:   "main",
			Type: "Sequence",
			Children: []*definition.Definition{
				{ID: "mark", Type: "SetShared", Properties: map[string]any{"key": "marked", "value": "yes"}},
				{ID: "walk", Type: "Running", Properties: map[string]any{"ticks": 1}},
			},
		},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(arborhttp.NewHandler(eng, opts...))
	t.Cleanup(srv.Close)
	return srv, eng
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func tick(t *testing.T, url string, body io.Reader) (arborhttp.TickResponse, int) {
	t.Helper()
	resp, err := http.Post(url, "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out arborhttp.TickResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return out, resp.StatusCode
}

func TestServer_Health(t *testing.T) {
	srv, _ := newServer(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/health", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestServer_ListAndInspect(t *testing.T) {
	srv, _ := newServer(t)

	var list []arborhttp.TreeSummary
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/trees", &list))
	require.Len(t, list, 1)
	assert.Equal(t, "patrol", list[0].ID)
	assert.Equal(t, "Patrol", list[0].Name)
	assert.Zero(t, list[0].Ticks)

	_, code := tick(t, srv.URL+"/trees/patrol/tick", nil)
	require.Equal(t, http.StatusOK, code)

	var detail arborhttp.TreeDetail
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/trees/patrol", &detail))
	assert.Equal(t, domain.StatusRunning, detail.LastStatus)
	assert.Equal(t, int64(1), detail.Ticks)
	assert.Equal(t, []string{"main", "walk"}, detail.ActiveNodes)

	require.Len(t, detail.Nodes, 3)
	assert.Equal(t, "main", detail.Nodes[0].ID)
	assert.Equal(t, 0, detail.Nodes[0].Depth)
	assert.Equal(t, domain.CategoryComposite, detail.Nodes[0].Category)
	assert.True(t, detail.Nodes[0].Open)
	assert.Equal(t, "mark", detail.Nodes[1].ID)
	assert.Equal(t, 1, detail.Nodes[1].Depth)
	assert.Equal(t, domain.StatusSuccess, detail.Nodes[1].LastStatus)
	assert.False(t, detail.Nodes[1].Open)
}

func TestServer_NotFound(t *testing.T) {
	srv, _ := newServer(t)

	for _, path := range []string{"/trees/ghost", "/trees/ghost/blackboard", "/trees/ghost/graph", "/trees/ghost/events"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}

	_, code := tick(t, srv.URL+"/trees/ghost/tick", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_TickLifecycle(t *testing.T) {
	srv, _ := newServer(t)

	first, code := tick(t, srv.URL+"/trees/patrol/tick", strings.NewReader(`{"target":{"x":1}}`))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, domain.StatusRunning, first.Status)
	assert.Equal(t, int64(1), first.Ticks)

	second, code := tick(t, srv.URL+"/trees/patrol/tick", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, domain.StatusSuccess, second.Status)
	assert.Empty(t, second.ActiveNodes)

	_, code = tick(t, srv.URL+"/trees/patrol/tick", strings.NewReader(`{not json`))
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestServer_Blackboard(t *testing.T) {
	srv, _ := newServer(t)
	_, code := tick(t, srv.URL+"/trees/patrol/tick", nil)
	require.Equal(t, http.StatusOK, code)

	var view map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/trees/patrol/blackboard", &view))
	assert.Equal(t, map[string]any{"marked": "yes"}, view["shared"])
	assert.Contains(t, view, "tree")
}

func TestServer_Graph(t *testing.T) {
	srv, _ := newServer(t)
	_, code := tick(t, srv.URL+"/trees/patrol/tick", nil)
	require.Equal(t, http.StatusOK, code)

	read := func(url string) string {
		resp, err := http.Get(url)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(b)
	}

	withOverlay := read(srv.URL + "/trees/patrol/graph")
	assert.True(t, strings.HasPrefix(withOverlay, "graph TD"))
	assert.Contains(t, withOverlay, "class n_walk running;")

	plain := read(srv.URL + "/trees/patrol/graph?overlay=false")
	assert.NotContains(t, plain, "classDef")
}

func TestServer_Metrics(t *testing.T) {
	m, err := observability.NewMetrics()
	require.NoError(t, err)

	eng := arbor.New(arbor.WithLifecycleHooks(m.Hooks()))
	_, err = eng.Load(context.Background(), &definition.TreeDefinition{ID: "ok", Name: "ok", Root: &definition.Definition{Type: "Succeed"}})
	require.NoError(t, err)
	srv := httptest.NewServer(arborhttp.NewHandler(eng, arborhttp.WithMetrics(m.Handler())))
	defer srv.Close()

	_, code := tick(t, srv.URL+"/trees/ok/tick", nil)
	require.Equal(t, http.StatusOK, code)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), `arbor_ticks_total{status="SUCCESS",tree="ok"} 1`)
}

func TestServer_NoMetricsByDefault(t *testing.T) {
	srv, _ := newServer(t)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_CORSPreflight(t *testing.T) {
	srv, _ := newServer(t)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/trees/patrol/tick", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_SubscribeEvents(t *testing.T) {
	srv, _ := newServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/trees/patrol/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		require.True(t, lines.Scan(), "stream ended early")
		return lines.Text()
	}

	// The ping is written after the subscription is registered.
	assert.Equal(t, "event: ping", next())
	assert.Equal(t, "data: connected", next())
	assert.Equal(t, "", next())

	_, code := tick(t, srv.URL+"/trees/patrol/tick", bytes.NewReader(nil))
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, "event: tick", next())
	data := strings.TrimPrefix(next(), "data: ")
	var got arborhttp.TickResponse
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	assert.Equal(t, "patrol", got.TreeID)
	assert.Equal(t, domain.StatusRunning, got.Status)
}

func TestStreamManager(t *testing.T) {
	sm := arborhttp.NewStreamManager()
	ch, unsubscribe := sm.Subscribe("t1")
	assert.Equal(t, 1, sm.Subscribers("t1"))

	sm.Broadcast("t1", "hello")
	sm.Broadcast("t2", "ignored")
	assert.Equal(t, "hello", <-ch)

	// Full buffers drop instead of blocking.
	for range 20 {
		sm.Broadcast("t1", "spam")
	}

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, sm.Subscribers("t1"))
}
