package orchestrator

import (
	"fmt"
	"strings"

	"github.com/launchforge/launch-orchestrator/internal/domain"
	"github.com/launchforge/launch-orchestrator/internal/registry"
)

// Summarize consolidates the full ordered result set into the launch
// summary. It is a pure function of the registry, the launch, and the
// completed outputs: recomputing it after a restart yields the same bytes.
func Summarize(reg *registry.Registry, launch *domain.Launch, history []domain.ContextEntry) string {
	outputs := make(map[string]string, len(history))
	for _, entry := range history {
		outputs[entry.AgentName] = entry.Output
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Launch Report: %s\n\n", launch.Name)
	if launch.ProductType != "" || launch.TargetMarket != "" {
		fmt.Fprintf(&b, "Product type: %s | Target market: %s\n\n", launch.ProductType, launch.TargetMarket)
	}
	fmt.Fprintf(&b, "Consolidated from %d workflow agents.\n", len(history))

	var currentPhase domain.Phase
	for _, spec := range reg.Handlers() {
		output, ok := outputs[spec.Name]
		if !ok {
			continue
		}
		if spec.Phase != currentPhase {
			currentPhase = spec.Phase
			fmt.Fprintf(&b, "\n## %s\n", titleCase(string(currentPhase)))
		}
		fmt.Fprintf(&b, "\n### %s\n\n%s\n", spec.Name, strings.TrimSpace(output))
	}

	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
