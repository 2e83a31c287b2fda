package orchestrator

import (
	"testing"

	"github.com/launchforge/launch-orchestrator/internal/domain"
)

func TestBuildContext_OnlyCompletedInRegistryOrder(t *testing.T) {
	reg := testRegistry(t, "A", "B", "C")

	// Stored out of registry order with a failed result mixed in
	results := []*domain.AgentResult{
		{AgentName: "B", Status: domain.ResultCompleted, Output: "out_B"},
		{AgentName: "C", Status: domain.ResultFailed, ErrorMessage: "timeout"},
		{AgentName: "A", Status: domain.ResultCompleted, Output: "out_A"},
	}

	entries := BuildContext(reg, results)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].AgentName != "A" || entries[0].Output != "out_A" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].AgentName != "B" || entries[1].Output != "out_B" {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestBuildContext_Empty(t *testing.T) {
	reg := testRegistry(t, "A")
	if entries := BuildContext(reg, nil); len(entries) != 0 {
		t.Errorf("entries = %v, want none", entries)
	}
}
