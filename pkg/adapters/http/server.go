package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/blackboard"
	"github.com/aretw0/arbor/pkg/bt"
	"github.com/aretw0/arbor/pkg/domain"
)

// maxBodySize bounds the tick request body.
const maxBodySize = 1 << 20

// Engine defines what the server needs from the tree host.
type Engine interface {
	Trees() []*bt.BehaviorTree
	Tree(id string) (*bt.BehaviorTree, bool)
	Tick(ctx context.Context, id string, target any) (domain.Status, error)
	Status(id string) (domain.Status, int64, error)
}

// Server exposes the hosted trees over HTTP.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// TreeSummary is the list view of a tree.
type TreeSummary struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	LastStatus  domain.Status `json:"last_status,omitempty"`
	Ticks       int64         `json:"ticks"`
}

// NodeInfo describes one node of a tree, in pre-order.
type NodeInfo struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Category   domain.Category `json:"category"`
	Depth      int             `json:"depth"`
	Open       bool            `json:"open"`
	LastStatus domain.Status   `json:"last_status,omitempty"`
}

// TreeDetail is the inspection view of a tree.
type TreeDetail struct {
	TreeSummary
	Properties  map[string]any `json:"properties,omitempty"`
	ActiveNodes []string       `json:"active_nodes"`
	Nodes       []NodeInfo     `json:"nodes"`
}

// BlackboardView is the blackboard state visible to a tree.
type BlackboardView struct {
	Shared map[string]any          `json:"shared"`
	Tree   blackboard.TreeSnapshot `json:"tree"`
}

// TickRequest is the optional body of POST /trees/{id}/tick.
type TickRequest struct {
	Target any `json:"target,omitempty"`
}

// TickResponse reports the outcome of a tick.
type TickResponse struct {
	TreeID      string        `json:"tree_id"`
	Status      domain.Status `json:"status"`
	Ticks       int64         `json:"ticks"`
	ActiveNodes []string      `json:"active_nodes"`
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Route("/trees", func(r chi.Router) {
		r.Get("/", s.ListTrees)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetTree)
			r.Get("/blackboard", s.GetBlackboard)
			r.Get("/graph", s.GetGraph)
			r.Get("/events", s.SubscribeEvents)
			r.Post("/tick", s.Tick)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListTrees handles the GET /trees request.
func (s *Server) ListTrees(w http.ResponseWriter, r *http.Request) {
	trees := s.Engine.Trees()
	out := make([]TreeSummary, 0, len(trees))
	for _, tree := range trees {
		out = append(out, s.summary(tree))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// GetTree handles the GET /trees/{id} request.
func (s *Server) GetTree(w http.ResponseWriter, r *http.Request) {
	tree, ok := s.tree(w, r)
	if !ok {
		return
	}

	tb := tree.TreeBoard()
	detail := TreeDetail{
		TreeSummary: s.summary(tree),
		Properties:  tree.Properties(),
		ActiveNodes: ActiveIDs(tb),
		Nodes:       []NodeInfo{},
	}
	tree.Walk(func(n *bt.Node, depth int) bool {
		info := NodeInfo{
			ID:       n.ID(),
			Name:     n.Name(),
			Type:     n.Type(),
			Category: n.Category(),
			Depth:    depth,
		}
		if nb, ok := tb.Node(n.ID()); ok {
			info.Open = nb.IsOpen()
			info.LastStatus, _ = nb.LastStatus()
		}
		detail.Nodes = append(detail.Nodes, info)
		return true
	})
	s.writeJSON(w, http.StatusOK, detail)
}

// GetBlackboard handles the GET /trees/{id}/blackboard request.
func (s *Server) GetBlackboard(w http.ResponseWriter, r *http.Request) {
	tree, ok := s.tree(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, BlackboardView{
		Shared: tree.Blackboard().Shared().Snapshot(),
		Tree:   tree.TreeBoard().Snapshot(),
	})
}

// GetGraph handles the GET /trees/{id}/graph request.
// The runtime overlay is omitted with ?overlay=false.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	tree, ok := s.tree(w, r)
	if !ok {
		return
	}
	var overlay *graph.Overlay
	if r.URL.Query().Get("overlay") != "false" {
		overlay = graph.OverlayFromTree(tree)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(tree.Root(), overlay))
}

// Tick handles the POST /trees/{id}/tick request.
func (s *Server) Tick(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body TickRequest
	if r.ContentLength != 0 {
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
		if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.logger.Warn("Tick: Invalid request body", "error", err)
			return
		}
	}

	status, err := s.Engine.Tick(r.Context(), id, body.Target)
	if errors.Is(err, domain.ErrTreeNotFound) {
		http.Error(w, fmt.Sprintf("Tree not found: %s", id), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Tick error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Tick failed", "tree_id", id, "error", err)
		return
	}

	resp := TickResponse{TreeID: id, Status: status}
	if _, ticks, err := s.Engine.Status(id); err == nil {
		resp.Ticks = ticks
	}
	if tree, ok := s.Engine.Tree(id); ok {
		resp.ActiveNodes = ActiveIDs(tree.TreeBoard())
	}

	if payload, err := json.Marshal(resp); err == nil {
		s.Streams.Broadcast(id, string(payload))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) tree(w http.ResponseWriter, r *http.Request) (*bt.BehaviorTree, bool) {
	id := chi.URLParam(r, "id")
	tree, ok := s.Engine.Tree(id)
	if !ok {
		http.Error(w, fmt.Sprintf("Tree not found: %s", id), http.StatusNotFound)
	}
	return tree, ok
}

func (s *Server) summary(tree *bt.BehaviorTree) TreeSummary {
	sum := TreeSummary{ID: tree.ID(), Name: tree.Name(), Description: tree.Description()}
	sum.LastStatus, sum.Ticks, _ = s.Engine.Status(tree.ID())
	return sum
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "error", err)
	}
}

// ActiveIDs reads the open path recorded on a tree board.
// It accepts the []any form a restored snapshot produces.
func ActiveIDs(tb *blackboard.TreeBoard) []string {
	switch v := tb.Get(domain.KeyActiveNodes).(type) {
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, id := range v {
			if s, ok := id.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}
