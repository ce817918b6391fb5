package mcp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor"
	httpAdapter "github.com/aretw0/arbor/pkg/adapters/http"
	"github.com/aretw0/arbor/pkg/adapters/mcp"
	"github.com/aretw0/arbor/pkg/definition"
	"github.com/aretw0/arbor/pkg/domain"
)

type toolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StructuredContent json.RawMessage `json:"structuredContent"`
	IsError           bool            `json:"isError"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newServer(t *testing.T) (*mcp.Server, *arbor.Engine) {
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
	return mcp.NewServer(eng), eng
}

func call(t *testing.T, srv *mcp.Server, method string, params any) json.RawMessage {
	t.Helper()
	p, err := json.Marshal(params)
	require.NoError(t, err)
	msg := fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":%q,"params":%s}`, method, p)

	out, err := json.Marshal(srv.MCPServer().HandleMessage(context.Background(), json.RawMessage(msg)))
	require.NoError(t, err)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(out, &resp))
	require.Nil(t, resp.Error, string(out))
	return resp.Result
}

func callTool(t *testing.T, srv *mcp.Server, name string, args map[string]any) toolResult {
	t.Helper()
	raw := call(t, srv, "tools/call", map[string]any{"name": name, "arguments": args})
	var res toolResult
	require.NoError(t, json.Unmarshal(raw, &res))
	return res
}

func TestServer_ListsTools(t *testing.T) {
	srv, _ := newServer(t)

	var list struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(call(t, srv, "tools/list", map[string]any{}), &list))

	names := make([]string, 0, len(list.Tools))
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"list_trees", "tick", "get_blackboard", "get_graph"}, names)
}

func TestServer_TickLifecycle(t *testing.T) {
	srv, eng := newServer(t)

	res := callTool(t, srv, "tick", map[string]any{"tree_id": "patrol"})
	require.False(t, res.IsError)
	var first httpAdapter.TickResponse
	require.NoError(t, json.Unmarshal(res.StructuredContent, &first))
	assert.Equal(t, domain.StatusRunning, first.Status)
	assert.Equal(t, int64(1), first.Ticks)
	assert.Equal(t, []string{"main", "walk"}, first.ActiveNodes)

	res = callTool(t, srv, "tick", map[string]any{"tree_id": "patrol", "target": `{"door":"north"}`})
	require.False(t, res.IsError)
	var second httpAdapter.TickResponse
	require.NoError(t, json.Unmarshal(res.StructuredContent, &second))
	assert.Equal(t, domain.StatusSuccess, second.Status)

	status, ticks, err := eng.Status("patrol")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, status)
	assert.Equal(t, int64(2), ticks)
}

func TestServer_ToolErrors(t *testing.T) {
	srv, _ := newServer(t)

	assert.True(t, callTool(t, srv, "tick", map[string]any{"tree_id": "missing"}).IsError)
	assert.True(t, callTool(t, srv, "tick", map[string]any{"tree_id": "patrol", "target": "{"}).IsError)
	assert.True(t, callTool(t, srv, "get_blackboard", map[string]any{"tree_id": "missing"}).IsError)
	assert.True(t, callTool(t, srv, "get_graph", map[string]any{"tree_id": "missing"}).IsError)
}

func TestServer_BlackboardAndGraph(t *testing.T) {
	srv, _ := newServer(t)
	callTool(t, srv, "tick", map[string]any{"tree_id": "patrol"})

	res := callTool(t, srv, "get_blackboard", map[string]any{"tree_id": "patrol"})
	require.False(t, res.IsError)
	var view httpAdapter.BlackboardView
	require.NoError(t, json.Unmarshal(res.StructuredContent, &view))
	assert.Equal(t, "yes", view.Shared["marked"])

	res = callTool(t, srv, "get_graph", map[string]any{"tree_id": "patrol"})
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	assert.Contains(t, res.Content[0].Text, "graph TD")
	assert.Contains(t, res.Content[0].Text, "classDef running")

	res = callTool(t, srv, "get_graph", map[string]any{"tree_id": "patrol", "overlay": false})
	require.Len(t, res.Content, 1)
	assert.NotContains(t, res.Content[0].Text, "classDef")
}

func TestServer_ListTreesAndResource(t *testing.T) {
	srv, _ := newServer(t)

	res := callTool(t, srv, "list_trees", map[string]any{})
	require.False(t, res.IsError)
	var list mcp.TreeList
	require.NoError(t, json.Unmarshal(res.StructuredContent, &list))
	require.Len(t, list.Trees, 1)
	assert.Equal(t, "Patrol", list.Trees[0].Name)

	var read struct {
		Contents []struct {
			URI  string `json:"uri"`
			Text string `json:"text"`
		} `json:"contents"`
	}
	require.NoError(t, json.Unmarshal(call(t, srv, "resources/read", map[string]any{"uri": mcp.TreesURI}), &read))
	require.Len(t, read.Contents, 1)
	assert.Equal(t, mcp.TreesURI, read.Contents[0].URI)
	assert.Contains(t, read.Contents[0].Text, `"id":"patrol"`)
}
