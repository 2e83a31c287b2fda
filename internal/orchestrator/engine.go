// Package orchestrator drives the launch workflow: it sequences agents in
// registry order, accumulates context between them, persists every outcome,
// and enforces the failure and retry policy for the run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/launchforge/launch-orchestrator/internal/domain"
	"github.com/launchforge/launch-orchestrator/internal/registry"
)

var (
	// ErrNotInProgress is returned by Run when the launch has not been
	// started or has already reached a terminal status.
	ErrNotInProgress = errors.New("launch is not in progress")

	// ErrOutOfOrder reports persisted results that do not form a prefix of
	// the registry order. This indicates corruption or misuse and is never
	// silently corrected.
	ErrOutOfOrder = errors.New("agent results out of registry order")
)

// Store is the persistence collaborator the engine writes launch state
// through. SetLaunchStatus must be a conditional write: the transition is
// applied only if the launch currently has the expected status.
type Store interface {
	GetLaunch(id string) (*domain.Launch, error)
	GetAgentResults(launchID string) ([]*domain.AgentResult, error)
	AppendAgentResult(r *domain.AgentResult) error
	SetLaunchStatus(id string, expected, next domain.LaunchStatus, summary string) error
	ListByStatus(status domain.LaunchStatus) ([]*domain.Launch, error)
}

// Invoker is the LLM-access collaborator: one prompt in, one generated text
// out, bounded by its own timeout. The engine owns retries.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// ResultCallback is called after each agent result is durably recorded
type ResultCallback func(launchID string, result *domain.AgentResult)

// StatusCallback is called after each launch status transition
type StatusCallback func(launchID string, status domain.LaunchStatus)

// Config holds the engine's retry policy
type Config struct {
	MaxRetries int           // additional attempts after the first, per agent
	RetryDelay time.Duration // fixed delay between sequential attempts
}

// Engine owns a launch's lifecycle: the pending → in_progress → terminal
// state machine and the per-agent transitions while in progress.
type Engine struct {
	store   Store
	reg     *registry.Registry
	invoker Invoker
	cfg     Config

	// Optional hooks, set before any run is dispatched
	OnResult ResultCallback
	OnStatus StatusCallback
}

// New creates an Engine
func New(store Store, reg *registry.Registry, invoker Invoker, cfg Config) *Engine {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &Engine{store: store, reg: reg, invoker: invoker, cfg: cfg}
}

// Registry returns the engine's handler registry
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Start transitions a launch from pending to in_progress. The conditional
// status write rejects duplicate and concurrent starts: if the launch is not
// currently pending the request fails with no state change.
func (e *Engine) Start(launchID string) error {
	if err := e.store.SetLaunchStatus(launchID, domain.LaunchPending, domain.LaunchInProgress, ""); err != nil {
		return fmt.Errorf("starting launch %s: %w", launchID, err)
	}
	log.Printf("launch %s: started", launchID)
	e.emitStatus(launchID, domain.LaunchInProgress)
	return nil
}

// Run executes the workflow for an in_progress launch, resuming from the
// first agent without a completed result. Invocation failures are absorbed
// into a failed AgentResult and a failed launch, not returned; only
// sequencing violations and persistence errors propagate.
func (e *Engine) Run(ctx context.Context, launchID string) error {
	launch, err := e.store.GetLaunch(launchID)
	if err != nil {
		return err
	}
	if launch.Status != domain.LaunchInProgress {
		return fmt.Errorf("%w: launch %s is %s", ErrNotInProgress, launchID, launch.Status)
	}

	results, err := e.store.GetAgentResults(launchID)
	if err != nil {
		return err
	}
	if err := e.validateOrder(results); err != nil {
		return err
	}

	// A crash between the result write and the status write leaves an
	// in_progress launch holding a failed result; finish that transition.
	for _, r := range results {
		if r.Status == domain.ResultFailed {
			return e.finalizeFailed(launchID)
		}
	}

	history := BuildContext(e.reg, results)
	completed := make(map[string]bool, len(history))
	for _, entry := range history {
		completed[entry.AgentName] = true
	}

	for _, spec := range e.reg.Handlers() {
		if completed[spec.Name] {
			continue
		}
		if err := ctx.Err(); err != nil {
			// The launch stays in_progress and resumes on the next Run
			return err
		}

		log.Printf("launch %s: running agent %s (%s)", launchID, spec.Name, spec.Phase)
		output, agentErr := e.executeAgent(ctx, spec, launch, history)
		now := time.Now().UTC()

		if agentErr != nil {
			result := &domain.AgentResult{
				LaunchID:     launchID,
				AgentName:    spec.Name,
				Status:       domain.ResultFailed,
				ErrorMessage: agentErr.Error(),
				ErrorFlag:    true,
				Timestamp:    now,
			}
			if err := e.store.AppendAgentResult(result); err != nil {
				return fmt.Errorf("recording failure of agent %s: %w", spec.Name, err)
			}
			e.emitResult(launchID, result)
			log.Printf("launch %s: agent %s failed terminally: %v", launchID, spec.Name, agentErr)
			return e.finalizeFailed(launchID)
		}

		result := &domain.AgentResult{
			LaunchID:  launchID,
			AgentName: spec.Name,
			Status:    domain.ResultCompleted,
			Output:    output,
			Timestamp: now,
		}
		if err := e.store.AppendAgentResult(result); err != nil {
			return fmt.Errorf("recording result of agent %s: %w", spec.Name, err)
		}
		e.emitResult(launchID, result)
		history = append(history, domain.ContextEntry{AgentName: spec.Name, Output: output})
	}

	summary := Summarize(e.reg, launch, history)
	if err := e.store.SetLaunchStatus(launchID, domain.LaunchInProgress, domain.LaunchCompleted, summary); err != nil {
		return fmt.Errorf("completing launch %s: %w", launchID, err)
	}
	log.Printf("launch %s: completed, %d agents", launchID, e.reg.Len())
	e.emitStatus(launchID, domain.LaunchCompleted)
	return nil
}

// executeAgent builds the prompt and invokes the LLM with the bounded retry
// policy. Intermediate attempts are invisible: only the final outcome is
// persisted by the caller.
func (e *Engine) executeAgent(ctx context.Context, spec registry.HandlerSpec, launch *domain.Launch, history []domain.ContextEntry) (string, error) {
	prompt, err := spec.Build(launch, history)
	if err != nil {
		return "", fmt.Errorf("building prompt: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("launch %s: agent %s retry %d/%d", launch.ID, spec.Name, attempt, e.cfg.MaxRetries)
			select {
			case <-time.After(e.cfg.RetryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		output, err := e.invoker.Invoke(ctx, prompt)
		if err == nil {
			return output, nil
		}
		lastErr = err
	}
	return "", lastErr
}

// finalizeFailed marks the launch failed. Invocation errors are fully
// absorbed here: the run ends cleanly rather than propagating the error.
func (e *Engine) finalizeFailed(launchID string) error {
	if err := e.store.SetLaunchStatus(launchID, domain.LaunchInProgress, domain.LaunchFailed, ""); err != nil {
		return fmt.Errorf("failing launch %s: %w", launchID, err)
	}
	e.emitStatus(launchID, domain.LaunchFailed)
	return nil
}

// validateOrder checks that the persisted results, in creation order, form a
// prefix of the registry order with at most one failed result in last place.
func (e *Engine) validateOrder(results []*domain.AgentResult) error {
	handlers := e.reg.Handlers()
	if len(results) > len(handlers) {
		return fmt.Errorf("%w: %d results for %d registered agents", ErrOutOfOrder, len(results), len(handlers))
	}
	for i, r := range results {
		if r.AgentName != handlers[i].Name {
			return fmt.Errorf("%w: position %d holds %q, expected %q", ErrOutOfOrder, i, r.AgentName, handlers[i].Name)
		}
		if r.Status == domain.ResultFailed && i != len(results)-1 {
			return fmt.Errorf("%w: failed result for %q is not last", ErrOutOfOrder, r.AgentName)
		}
	}
	return nil
}

func (e *Engine) emitResult(launchID string, r *domain.AgentResult) {
	if e.OnResult != nil {
		e.OnResult(launchID, r)
	}
}

func (e *Engine) emitStatus(launchID string, status domain.LaunchStatus) {
	if e.OnStatus != nil {
		e.OnStatus(launchID, status)
	}
}
