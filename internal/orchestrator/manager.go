package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/launchforge/launch-orchestrator/internal/domain"
	"github.com/launchforge/launch-orchestrator/internal/notify"
)

// ErrAlreadyRunning is returned when a run for the launch is active in this
// process. The persistence-layer conditional write catches the cross-process
// case; this lock catches it before touching the database.
var ErrAlreadyRunning = errors.New("launch run already active")

// Event describes a state change streamed to API clients
type Event struct {
	Type      string `json:"type"`
	LaunchID  string `json:"launch_id"`
	AgentName string `json:"agent_name,omitempty"`
	Status    string `json:"status,omitempty"`
}

// EventCallback receives workflow events as they happen
type EventCallback func(Event)

// Status is the cheap consistent progress read exposed to the API layer
type Status struct {
	Status         domain.LaunchStatus `json:"status"`
	CompletedCount int                 `json:"completed_count"`
	FailedCount    int                 `json:"failed_count"`
	TotalCount     int                 `json:"total_count"`
}

// Manager dispatches launch runs. Each launch has at most one active run;
// distinct launches run concurrently up to a configured limit.
type Manager struct {
	engine   *Engine
	store    Store
	notifier notify.Notifier
	sem      *semaphore.Weighted

	mu      sync.Mutex
	active  map[string]bool
	onEvent EventCallback

	wg sync.WaitGroup
}

// NewManager creates a Manager and wires itself into the engine's hooks
func NewManager(engine *Engine, store Store, maxConcurrent int, notifier notify.Notifier) *Manager {
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}

	m := &Manager{
		engine:   engine,
		store:    store,
		notifier: notifier,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
		active:   make(map[string]bool),
	}
	engine.OnResult = m.handleResult
	engine.OnStatus = m.handleStatus
	return m
}

// SetEventCallback registers the sink for workflow events. Must be called
// before any run is started.
func (m *Manager) SetEventCallback(cb EventCallback) {
	m.onEvent = cb
}

// Start begins the workflow for a pending launch and dispatches the run in
// the background. Rejected without state change if the launch is not pending
// or a run is already active.
func (m *Manager) Start(launchID string) error {
	if err := m.acquire(launchID); err != nil {
		return err
	}

	if err := m.engine.Start(launchID); err != nil {
		m.release(launchID)
		return err
	}

	m.dispatch(launchID)
	return nil
}

// Resume re-dispatches runs for launches a previous process left in
// progress. Completed agents are skipped, so no work is duplicated.
func (m *Manager) Resume() (int, error) {
	launches, err := m.store.ListByStatus(domain.LaunchInProgress)
	if err != nil {
		return 0, err
	}

	resumed := 0
	for _, l := range launches {
		if err := m.acquire(l.ID); err != nil {
			continue // already active in this process
		}
		log.Printf("launch %s: resuming interrupted run", l.ID)
		m.dispatch(l.ID)
		resumed++
	}
	return resumed, nil
}

// Status reports a launch's progress against the full registry
func (m *Manager) Status(launchID string) (Status, error) {
	launch, err := m.store.GetLaunch(launchID)
	if err != nil {
		return Status{}, err
	}

	results, err := m.store.GetAgentResults(launchID)
	if err != nil {
		return Status{}, err
	}

	st := Status{Status: launch.Status, TotalCount: m.engine.Registry().Len()}
	for _, r := range results {
		switch r.Status {
		case domain.ResultCompleted:
			st.CompletedCount++
		case domain.ResultFailed:
			st.FailedCount++
		}
	}
	return st, nil
}

// Wait blocks until all dispatched runs have finished
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) acquire(launchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active[launchID] {
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, launchID)
	}
	m.active[launchID] = true
	return nil
}

func (m *Manager) release(launchID string) {
	m.mu.Lock()
	delete(m.active, launchID)
	m.mu.Unlock()
}

func (m *Manager) dispatch(launchID string) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.release(launchID)

		ctx := context.Background()
		if err := m.sem.Acquire(ctx, 1); err != nil {
			return
		}
		defer m.sem.Release(1)

		if err := m.engine.Run(ctx, launchID); err != nil {
			log.Printf("launch %s: run aborted: %v", launchID, err)
		}
	}()
}

func (m *Manager) handleResult(launchID string, r *domain.AgentResult) {
	eventType := "agent_completed"
	if r.Status == domain.ResultFailed {
		eventType = "agent_failed"
	}
	m.emit(Event{Type: eventType, LaunchID: launchID, AgentName: r.AgentName, Status: string(r.Status)})
}

func (m *Manager) handleStatus(launchID string, status domain.LaunchStatus) {
	m.emit(Event{Type: "launch_" + string(status), LaunchID: launchID, Status: string(status)})

	if !status.Terminal() {
		return
	}

	launch, err := m.store.GetLaunch(launchID)
	if err != nil {
		return
	}

	n := notify.Notification{
		LaunchID:   launchID,
		LaunchName: launch.Name,
	}
	if status == domain.LaunchCompleted {
		n.Title = "Launch workflow completed"
		n.Message = fmt.Sprintf("All agents finished for %s", launch.Name)
		n.Type = notify.NotifySuccess
	} else {
		n.Title = "Launch workflow failed"
		n.Message = fmt.Sprintf("Workflow for %s stopped on a failed agent", launch.Name)
		n.Type = notify.NotifyError
	}
	if err := m.notifier.Send(n); err != nil {
		log.Printf("launch %s: notification failed: %v", launchID, err)
	}
}

func (m *Manager) emit(event Event) {
	if m.onEvent != nil {
		m.onEvent(event)
	}
}
