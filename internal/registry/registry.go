// Package registry defines the fixed, ordered table of workflow agents.
package registry

import (
	"fmt"
	"strings"

	"github.com/launchforge/launch-orchestrator/internal/domain"
	"github.com/launchforge/launch-orchestrator/internal/prompts"
)

// PromptData holds the template variables for agent prompts.
type PromptData struct {
	Launch  *domain.Launch
	History []domain.ContextEntry
}

// PromptBuilder renders the prompt for one agent from the launch and the
// accumulated outputs of all earlier completed agents, in execution order.
type PromptBuilder func(launch *domain.Launch, history []domain.ContextEntry) (string, error)

// HandlerSpec describes one agent in the workflow
type HandlerSpec struct {
	Name        string
	Phase       domain.Phase
	Description string
	Build       PromptBuilder
}

// Registry is the ordered list of workflow agents, fixed at construction.
// The list order is the authoritative execution order; phases are display
// metadata and do not gate execution.
type Registry struct {
	specs []HandlerSpec
	index map[string]int
}

// New creates a Registry from an ordered list of handler specs
func New(specs []HandlerSpec) (*Registry, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("registry requires at least one handler")
	}

	index := make(map[string]int, len(specs))
	for i, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("handler at position %d has no name", i)
		}
		if spec.Build == nil {
			return nil, fmt.Errorf("handler %q has no prompt builder", spec.Name)
		}
		if _, dup := index[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate handler name %q", spec.Name)
		}
		index[spec.Name] = i
	}

	return &Registry{specs: append([]HandlerSpec(nil), specs...), index: index}, nil
}

// Handlers returns the specs in execution order
func (r *Registry) Handlers() []HandlerSpec {
	return append([]HandlerSpec(nil), r.specs...)
}

// Len returns the number of handlers
func (r *Registry) Len() int {
	return len(r.specs)
}

// Position returns the execution position of a handler by name
func (r *Registry) Position(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// defaultAgents is the canonical launch workflow in execution order
var defaultAgents = []struct {
	name  string
	phase domain.Phase
}{
	{"market_intelligence", domain.PhaseResearch},
	{"customer_pulse", domain.PhaseResearch},
	{"requirements_synthesizer", domain.PhasePlanning},
	{"timeline_resourcing", domain.PhasePlanning},
	{"risk_compliance", domain.PhasePlanning},
	{"dev_coordination", domain.PhaseDevelopment},
	{"qa_testing", domain.PhaseDevelopment},
	{"documentation", domain.PhaseDevelopment},
	{"gtm", domain.PhaseLaunch},
	{"readiness_check", domain.PhaseLaunch},
	{"comms", domain.PhaseLaunch},
	{"telemetry_kpi", domain.PhaseMonitoring},
	{"feedback_loop", domain.PhaseMonitoring},
	{"retrospective", domain.PhaseMonitoring},
	{"final_report", domain.PhaseMonitoring},
}

// Default builds the production registry backed by the prompt templates.
// Every template is loaded once up front so a missing or malformed template
// fails at startup rather than mid-run.
func Default(loader *prompts.Loader) (*Registry, error) {
	specs := make([]HandlerSpec, 0, len(defaultAgents))
	for _, agent := range defaultAgents {
		path := prompts.AgentPath(agent.name)
		meta, err := loader.Meta(path)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", agent.name, err)
		}
		if meta.Name != agent.name {
			return nil, fmt.Errorf("template %s declares name %q", path, meta.Name)
		}

		specs = append(specs, HandlerSpec{
			Name:        agent.name,
			Phase:       agent.phase,
			Description: meta.Description,
			Build:       templateBuilder(loader, path),
		})
	}
	return New(specs)
}

func templateBuilder(loader *prompts.Loader, path string) PromptBuilder {
	return func(launch *domain.Launch, history []domain.ContextEntry) (string, error) {
		head, err := loader.Execute(path, PromptData{Launch: launch, History: history})
		if err != nil {
			return "", err
		}
		return head + RenderHistory(history), nil
	}
}

// RenderHistory renders the accumulated context section appended to every
// agent prompt: the full ordered output of all earlier completed agents.
func RenderHistory(history []domain.ContextEntry) string {
	if len(history) == 0 {
		return "\nNo earlier workflow output is available yet; this is the first agent.\n"
	}

	var b strings.Builder
	b.WriteString("\nOutput from earlier workflow agents, in execution order:\n")
	for _, entry := range history {
		fmt.Fprintf(&b, "\n### %s\n%s\n", entry.AgentName, entry.Output)
	}
	return b.String()
}
