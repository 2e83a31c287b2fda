package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/launchforge/launch-orchestrator/internal/domain"
	"github.com/launchforge/launch-orchestrator/internal/launchstore"
	"github.com/launchforge/launch-orchestrator/internal/observer"
	"github.com/launchforge/launch-orchestrator/internal/orchestrator"
	"github.com/launchforge/launch-orchestrator/internal/registry"
)

type fakeWorkflow struct {
	startErr error
	started  []string
	status   orchestrator.Status
}

func (f *fakeWorkflow) Start(launchID string) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = append(f.started, launchID)
	return nil
}

func (f *fakeWorkflow) Status(launchID string) (orchestrator.Status, error) {
	return f.status, nil
}

func newTestServer(t *testing.T, workflow Workflow) (*Server, *launchstore.Store) {
	t.Helper()
	store, err := launchstore.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	reg, err := registry.New([]registry.HandlerSpec{
		{
			Name:        "market_intelligence",
			Phase:       domain.PhaseResearch,
			Description: "Market landscape analysis",
			Build: func(*domain.Launch, []domain.ContextEntry) (string, error) {
				return "prompt", nil
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	return NewServer(store, workflow, reg, observer.NewCollector(), "127.0.0.1:0"), store
}

func seedLaunch(t *testing.T, store *launchstore.Store, id string) {
	t.Helper()
	now := time.Now().UTC()
	err := store.CreateLaunch(&domain.Launch{
		ID: id, Name: "Widget 2.0", Status: domain.LaunchPending,
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestCreateAndGetLaunch(t *testing.T) {
	srv, _ := newTestServer(t, &fakeWorkflow{})

	body := `{"name": "Widget 2.0", "product_type": "saas", "target_market": "smb", "launch_date": "2026-09-01T09:00:00Z"}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/launches", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body)
	}

	var created LaunchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.Status != "pending" {
		t.Errorf("created = %+v", created)
	}
	if created.LaunchDate == nil || *created.LaunchDate != "2026-09-01T09:00:00Z" {
		t.Errorf("LaunchDate = %v", created.LaunchDate)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/launches/"+created.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	var got LaunchResponse
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Name != "Widget 2.0" || got.ProductType != "saas" {
		t.Errorf("got = %+v", got)
	}
}

func TestCreateLaunch_Validation(t *testing.T) {
	srv, _ := newTestServer(t, &fakeWorkflow{})

	tests := []struct {
		name string
		body string
	}{
		{"empty name", `{"name": ""}`},
		{"bad json", `{`},
		{"bad date", `{"name": "x", "launch_date": "tomorrow"}`},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/launches", strings.NewReader(tt.body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tt.name, rec.Code)
		}
	}
}

func TestGetLaunch_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, &fakeWorkflow{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/launches/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestStartLaunch(t *testing.T) {
	workflow := &fakeWorkflow{}
	srv, store := newTestServer(t, workflow)
	seedLaunch(t, store, "launch-1")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/launches/launch-1/start", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if len(workflow.started) != 1 || workflow.started[0] != "launch-1" {
		t.Errorf("started = %v", workflow.started)
	}
}

func TestStartLaunch_Conflict(t *testing.T) {
	workflow := &fakeWorkflow{startErr: launchstore.ErrStatusConflict}
	srv, store := newTestServer(t, workflow)
	seedLaunch(t, store, "launch-1")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/launches/launch-1/start", nil))
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestLaunchStatus(t *testing.T) {
	workflow := &fakeWorkflow{status: orchestrator.Status{
		Status: domain.LaunchInProgress, CompletedCount: 7, TotalCount: 15,
	}}
	srv, store := newTestServer(t, workflow)
	seedLaunch(t, store, "launch-1")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/launches/launch-1/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var st orchestrator.Status
	json.Unmarshal(rec.Body.Bytes(), &st)
	if st.CompletedCount != 7 || st.TotalCount != 15 {
		t.Errorf("status body = %+v", st)
	}
}

func TestLaunchResults_FieldNames(t *testing.T) {
	srv, store := newTestServer(t, &fakeWorkflow{})
	seedLaunch(t, store, "launch-1")

	store.AppendAgentResult(&domain.AgentResult{
		LaunchID: "launch-1", AgentName: "market_intelligence",
		Status: domain.ResultFailed, ErrorMessage: "timeout", ErrorFlag: true,
		Timestamp: time.Now().UTC(),
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/launches/launch-1/results", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var raw []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	if len(raw) != 1 {
		t.Fatalf("results = %d, want 1", len(raw))
	}
	for _, key := range []string{"agent_name", "status", "error_message", "error_flag", "timestamp"} {
		if _, ok := raw[0][key]; !ok {
			t.Errorf("result missing field %q", key)
		}
	}
}

func TestDeleteLaunch(t *testing.T) {
	srv, store := newTestServer(t, &fakeWorkflow{})
	seedLaunch(t, store, "launch-1")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/launches/launch-1", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/launches/launch-1", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted launch still readable, status = %d", rec.Code)
	}
}

func TestListAgents(t *testing.T) {
	srv, _ := newTestServer(t, &fakeWorkflow{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/agents", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var agents []AgentInfoResponse
	json.Unmarshal(rec.Body.Bytes(), &agents)
	if len(agents) != 1 || agents[0].Name != "market_intelligence" {
		t.Errorf("agents = %+v", agents)
	}
}

func TestMetrics(t *testing.T) {
	srv, _ := newTestServer(t, &fakeWorkflow{})
	srv.metrics.RecordAgent(false)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var m observer.Metrics
	json.Unmarshal(rec.Body.Bytes(), &m)
	if m.AgentsCompleted != 1 {
		t.Errorf("metrics = %+v", m)
	}
}
