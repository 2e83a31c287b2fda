package domain

// LaunchStatus represents the lifecycle state of a launch workflow
type LaunchStatus string

const (
	LaunchPending    LaunchStatus = "pending"
	LaunchInProgress LaunchStatus = "in_progress"
	LaunchCompleted  LaunchStatus = "completed"
	LaunchFailed     LaunchStatus = "failed"
)

// Terminal returns true if no transition leaves this status
func (s LaunchStatus) Terminal() bool {
	return s == LaunchCompleted || s == LaunchFailed
}

// ResultStatus represents the outcome of a single agent execution
type ResultStatus string

const (
	ResultCompleted ResultStatus = "completed"
	ResultFailed    ResultStatus = "failed"
)

// Phase groups agents for display purposes. Execution order is the flat
// registry order and is not gated by phase boundaries.
type Phase string

const (
	PhaseResearch    Phase = "research"
	PhasePlanning    Phase = "planning"
	PhaseDevelopment Phase = "development"
	PhaseLaunch      Phase = "launch"
	PhaseMonitoring  Phase = "monitoring"
)
