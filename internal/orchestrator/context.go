package orchestrator

import (
	"github.com/launchforge/launch-orchestrator/internal/domain"
	"github.com/launchforge/launch-orchestrator/internal/registry"
)

// BuildContext recomputes the ordered context view for a launch from its
// persisted results: the (agent_name, output) pair of every completed result,
// in registry order. Creation order and registry order coincide under the
// ordering invariant, but recomputing from the registry tolerates persistence
// reordering and makes a rebuild after restart byte-identical.
func BuildContext(reg *registry.Registry, results []*domain.AgentResult) []domain.ContextEntry {
	byName := make(map[string]*domain.AgentResult, len(results))
	for _, r := range results {
		if r.Status == domain.ResultCompleted {
			byName[r.AgentName] = r
		}
	}

	entries := make([]domain.ContextEntry, 0, len(byName))
	for _, spec := range reg.Handlers() {
		if r, ok := byName[spec.Name]; ok {
			entries = append(entries, domain.ContextEntry{AgentName: r.AgentName, Output: r.Output})
		}
	}
	return entries
}
