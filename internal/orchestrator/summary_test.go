package orchestrator

import (
	"strings"
	"testing"

	"github.com/launchforge/launch-orchestrator/internal/domain"
)

func TestSummarize_Deterministic(t *testing.T) {
	reg := testRegistry(t, "A", "B")
	launch := &domain.Launch{Name: "Widget 2.0", ProductType: "saas", TargetMarket: "smb"}
	history := []domain.ContextEntry{
		{AgentName: "A", Output: "out_A"},
		{AgentName: "B", Output: "out_B"},
	}

	first := Summarize(reg, launch, history)
	second := Summarize(reg, launch, history)
	if first != second {
		t.Error("summary is not deterministic for identical inputs")
	}

	if !strings.HasPrefix(first, "# Launch Report: Widget 2.0") {
		t.Errorf("summary header:\n%s", first)
	}
	for _, want := range []string{"### A", "out_A", "### B", "out_B", "saas", "smb"} {
		if !strings.Contains(first, want) {
			t.Errorf("summary missing %q", want)
		}
	}

	posA := strings.Index(first, "### A")
	posB := strings.Index(first, "### B")
	if posA > posB {
		t.Error("agent sections out of registry order")
	}
}

func TestSummarize_GroupsByPhase(t *testing.T) {
	reg := testRegistry(t, "A")
	launch := &domain.Launch{Name: "Widget 2.0"}
	out := Summarize(reg, launch, []domain.ContextEntry{{AgentName: "A", Output: "x"}})
	if !strings.Contains(out, "## Research") {
		t.Errorf("missing phase heading:\n%s", out)
	}
}
