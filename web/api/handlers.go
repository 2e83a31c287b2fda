package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/launchforge/launch-orchestrator/internal/domain"
	"github.com/launchforge/launch-orchestrator/internal/launchstore"
	"github.com/launchforge/launch-orchestrator/internal/orchestrator"
)

// LaunchResponse is the API response for a launch
type LaunchResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	ProductType  string  `json:"product_type,omitempty"`
	TargetMarket string  `json:"target_market,omitempty"`
	Status       string  `json:"status"`
	Summary      string  `json:"summary,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
	LaunchDate   *string `json:"launch_date,omitempty"`
}

// ResultResponse is the API response for one agent result
type ResultResponse struct {
	AgentName    string `json:"agent_name"`
	Status       string `json:"status"`
	Output       string `json:"output,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	ErrorFlag    bool   `json:"error_flag"`
	Timestamp    string `json:"timestamp"`
}

// AgentInfoResponse describes one registered agent
type AgentInfoResponse struct {
	Name        string `json:"name"`
	Phase       string `json:"phase"`
	Description string `json:"description,omitempty"`
	Position    int    `json:"position"`
}

// CreateLaunchRequest is the POST /api/launches payload
type CreateLaunchRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	ProductType  string `json:"product_type"`
	TargetMarket string `json:"target_market"`
	LaunchDate   string `json:"launch_date"` // RFC 3339, optional
}

func launchToResponse(l *domain.Launch) LaunchResponse {
	resp := LaunchResponse{
		ID:           l.ID,
		Name:         l.Name,
		Description:  l.Description,
		ProductType:  l.ProductType,
		TargetMarket: l.TargetMarket,
		Status:       string(l.Status),
		Summary:      l.Summary,
		CreatedAt:    l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    l.UpdatedAt.Format(time.RFC3339),
	}
	if l.LaunchDate != nil {
		d := l.LaunchDate.Format(time.RFC3339)
		resp.LaunchDate = &d
	}
	return resp
}

func resultToResponse(r *domain.AgentResult) ResultResponse {
	return ResultResponse{
		AgentName:    r.AgentName,
		Status:       string(r.Status),
		Output:       r.Output,
		ErrorMessage: r.ErrorMessage,
		ErrorFlag:    r.ErrorFlag,
		Timestamp:    r.Timestamp.Format(time.RFC3339),
	}
}

func (s *Server) launchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.listLaunches(w)
		case http.MethodPost:
			s.createLaunch(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *Server) listLaunches(w http.ResponseWriter) {
	launches, err := s.store.ListLaunches()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]LaunchResponse, 0, len(launches))
	for _, l := range launches {
		resp = append(resp, launchToResponse(l))
	}
	writeJSON(w, resp)
}

func (s *Server) createLaunch(w http.ResponseWriter, r *http.Request) {
	var req CreateLaunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	var launchDate *time.Time
	if req.LaunchDate != "" {
		t, err := time.Parse(time.RFC3339, req.LaunchDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "launch_date must be RFC 3339")
			return
		}
		launchDate = &t
	}

	launch := domain.NewLaunch(req.Name, req.Description, req.ProductType, req.TargetMarket, launchDate)
	if err := s.store.CreateLaunch(launch); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(launchToResponse(launch))
}

// launchHandler routes /api/launches/{id} and its sub-resources
func (s *Server) launchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/launches/")
		id, sub, _ := strings.Cut(rest, "/")
		if id == "" {
			writeError(w, http.StatusNotFound, "launch id required")
			return
		}

		switch sub {
		case "":
			switch r.Method {
			case http.MethodGet:
				s.getLaunch(w, id)
			case http.MethodDelete:
				s.deleteLaunch(w, id)
			default:
				writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			}
		case "start":
			if r.Method != http.MethodPost {
				writeError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			s.startLaunch(w, id)
		case "status":
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			s.launchStatus(w, id)
		case "results":
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			s.launchResults(w, id)
		default:
			writeError(w, http.StatusNotFound, "unknown resource")
		}
	}
}

func (s *Server) getLaunch(w http.ResponseWriter, id string) {
	launch, err := s.store.GetLaunch(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, launchToResponse(launch))
}

func (s *Server) deleteLaunch(w http.ResponseWriter, id string) {
	if err := s.store.DeleteLaunch(id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) startLaunch(w http.ResponseWriter, id string) {
	if err := s.workflow.Start(id); err != nil {
		switch {
		case errors.Is(err, launchstore.ErrNotFound):
			writeError(w, http.StatusNotFound, "launch not found")
		case errors.Is(err, launchstore.ErrStatusConflict), errors.Is(err, orchestrator.ErrAlreadyRunning):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"id": id, "status": string(domain.LaunchInProgress)})
}

func (s *Server) launchStatus(w http.ResponseWriter, id string) {
	st, err := s.workflow.Status(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, st)
}

func (s *Server) launchResults(w http.ResponseWriter, id string) {
	if _, err := s.store.GetLaunch(id); err != nil {
		writeStoreError(w, err)
		return
	}

	results, err := s.store.GetAgentResults(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]ResultResponse, 0, len(results))
	for _, r := range results {
		resp = append(resp, resultToResponse(r))
	}
	writeJSON(w, resp)
}

func (s *Server) listAgentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		handlers := s.registry.Handlers()
		resp := make([]AgentInfoResponse, len(handlers))
		for i, h := range handlers {
			resp[i] = AgentInfoResponse{
				Name:        h.Name,
				Phase:       string(h.Phase),
				Description: h.Description,
				Position:    i,
			}
		}
		writeJSON(w, resp)
	}
}

func (s *Server) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, s.metrics.Snapshot())
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, launchstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "launch not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
