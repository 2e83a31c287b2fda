// Package api exposes the launch workflow over HTTP: CRUD for launches,
// workflow start and status, the agent roster, and a server-sent event
// stream of workflow activity.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/launchforge/launch-orchestrator/internal/domain"
	"github.com/launchforge/launch-orchestrator/internal/observer"
	"github.com/launchforge/launch-orchestrator/internal/orchestrator"
	"github.com/launchforge/launch-orchestrator/internal/registry"
)

// Store interface for database operations
type Store interface {
	CreateLaunch(l *domain.Launch) error
	GetLaunch(id string) (*domain.Launch, error)
	ListLaunches() ([]*domain.Launch, error)
	DeleteLaunch(id string) error
	GetAgentResults(launchID string) ([]*domain.AgentResult, error)
}

// Workflow interface for dispatching and inspecting runs
type Workflow interface {
	Start(launchID string) error
	Status(launchID string) (orchestrator.Status, error)
}

// Server is the HTTP API server
type Server struct {
	store    Store
	workflow Workflow
	registry *registry.Registry
	metrics  *observer.Collector
	addr     string
	mux      *http.ServeMux
	sseHub   *SSEHub
}

// NewServer creates a new API server
func NewServer(store Store, workflow Workflow, reg *registry.Registry, metrics *observer.Collector, addr string) *Server {
	s := &Server{
		store:    store,
		workflow: workflow,
		registry: reg,
		metrics:  metrics,
		addr:     addr,
		mux:      http.NewServeMux(),
		sseHub:   NewSSEHub(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/launches", s.launchesHandler())
	s.mux.HandleFunc("/api/launches/", s.launchHandler())
	s.mux.HandleFunc("/api/agents", s.listAgentsHandler())
	s.mux.HandleFunc("/api/metrics", s.metricsHandler())
	s.mux.HandleFunc("/api/events", s.sseHandler())
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go s.sseHub.Run()
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler returns the server's routing handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Broadcast sends an event to all SSE clients
func (s *Server) Broadcast(event SSEEvent) {
	s.sseHub.Broadcast(event)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
