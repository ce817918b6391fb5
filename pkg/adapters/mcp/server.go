// Package mcp exposes hosted behavior trees as Model Context Protocol tools,
// so that agents can list, tick and inspect them.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/presentation/graph"
	httpAdapter "github.com/aretw0/arbor/pkg/adapters/http"
	"github.com/aretw0/arbor/pkg/bt"
	"github.com/aretw0/arbor/pkg/domain"
)

// TreesURI is the resource listing every hosted tree.
const TreesURI = "arbor://trees"

// shutdownTimeout bounds the graceful shutdown of the SSE listener.
const shutdownTimeout = 5 * time.Second

// Engine defines what the MCP server needs from the tree host.
type Engine interface {
	httpAdapter.Engine
}

// TreeList is the result of the list_trees tool.
type TreeList struct {
	Trees []httpAdapter.TreeSummary `json:"trees" jsonschema_description:"Hosted trees ordered by id"`
}

// TreeArgs selects a hosted tree.
type TreeArgs struct {
	TreeID string `json:"tree_id"`
}

// TickArgs are the arguments of the tick tool.
type TickArgs struct {
	TreeID string `json:"tree_id"`
	Target string `json:"target,omitempty"`
}

// GraphArgs are the arguments of the get_graph tool.
type GraphArgs struct {
	TreeID  string `json:"tree_id"`
	Overlay *bool  `json:"overlay,omitempty"`
}

// Server wraps an Engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP server for engine.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		mcpServer: server.NewMCPServer("arbor-mcp", strings.TrimSpace(arbor.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_trees",
		mcp.WithDescription("List the hosted behavior trees with their last status and tick count."),
		mcp.WithOutputSchema[TreeList](),
	), mcp.NewStructuredToolHandler(s.handleListTrees))

	s.mcpServer.AddTool(mcp.NewTool("tick",
		mcp.WithDescription("Tick a tree once and report the resulting status."),
		mcp.WithString("tree_id", mcp.Required(), mcp.Description("The id of the tree to tick")),
		mcp.WithString("target", mcp.Description("JSON value handed to the tick as its target (optional)")),
		mcp.WithOutputSchema[httpAdapter.TickResponse](),
	), mcp.NewStructuredToolHandler(s.handleTick))

	s.mcpServer.AddTool(mcp.NewTool("get_blackboard",
		mcp.WithDescription("Read the shared board and the tree's own boards."),
		mcp.WithString("tree_id", mcp.Required(), mcp.Description("The id of the tree")),
		mcp.WithOutputSchema[httpAdapter.BlackboardView](),
	), mcp.NewStructuredToolHandler(s.handleBlackboard))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Render a tree as a Mermaid flowchart, with the runtime overlay unless disabled."),
		mcp.WithString("tree_id", mcp.Required(), mcp.Description("The id of the tree")),
		mcp.WithBoolean("overlay", mcp.Description("Colour nodes by last status and mark the open path (default true)")),
	), mcp.NewTypedToolHandler(s.handleGraph))
}

func (s *Server) handleListTrees(_ context.Context, _ mcp.CallToolRequest, _ map[string]any) (TreeList, error) {
	trees := s.engine.Trees()
	out := TreeList{Trees: make([]httpAdapter.TreeSummary, 0, len(trees))}
	for _, tree := range trees {
		out.Trees = append(out.Trees, s.summary(tree))
	}
	return out, nil
}

func (s *Server) handleTick(ctx context.Context, _ mcp.CallToolRequest, args TickArgs) (httpAdapter.TickResponse, error) {
	var target any
	if args.Target != "" {
		if err := json.Unmarshal([]byte(args.Target), &target); err != nil {
			return httpAdapter.TickResponse{}, fmt.Errorf("invalid target: %w", err)
		}
	}

	status, err := s.engine.Tick(ctx, args.TreeID, target)
	if err != nil {
		s.logger.Warn("MCP tick failed", "tree_id", args.TreeID, "error", err)
		return httpAdapter.TickResponse{}, fmt.Errorf("tick failed: %w", err)
	}

	resp := httpAdapter.TickResponse{TreeID: args.TreeID, Status: status, ActiveNodes: []string{}}
	if _, ticks, err := s.engine.Status(args.TreeID); err == nil {
		resp.Ticks = ticks
	}
	if tree, ok := s.engine.Tree(args.TreeID); ok {
		resp.ActiveNodes = httpAdapter.ActiveIDs(tree.TreeBoard())
	}
	return resp, nil
}

func (s *Server) handleBlackboard(_ context.Context, _ mcp.CallToolRequest, args TreeArgs) (httpAdapter.BlackboardView, error) {
	tree, err := s.tree(args.TreeID)
	if err != nil {
		return httpAdapter.BlackboardView{}, err
	}
	return httpAdapter.BlackboardView{
		Shared: tree.Blackboard().Shared().Snapshot(),
		Tree:   tree.TreeBoard().Snapshot(),
	}, nil
}

func (s *Server) handleGraph(_ context.Context, _ mcp.CallToolRequest, args GraphArgs) (*mcp.CallToolResult, error) {
	tree, err := s.tree(args.TreeID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var overlay *graph.Overlay
	if args.Overlay == nil || *args.Overlay {
		overlay = graph.OverlayFromTree(tree)
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(tree.Root(), overlay)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(TreesURI, "Hosted behavior trees",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		list, _ := s.handleListTrees(ctx, mcp.CallToolRequest{}, nil)
		data, err := json.Marshal(list)
		if err != nil {
			return nil, fmt.Errorf("failed to encode trees: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      TreesURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func (s *Server) tree(id string) (*bt.BehaviorTree, error) {
	tree, ok := s.engine.Tree(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTreeNotFound, id)
	}
	return tree, nil
}

func (s *Server) summary(tree *bt.BehaviorTree) httpAdapter.TreeSummary {
	sum := httpAdapter.TreeSummary{ID: tree.ID(), Name: tree.Name(), Description: tree.Description()}
	sum.LastStatus, sum.Ticks, _ = s.engine.Status(tree.ID())
	return sum
}
