package domain

import (
	"time"

	"github.com/google/uuid"
)

// Launch represents one product-launch workflow run
type Launch struct {
	ID           string
	Name         string
	Description  string
	ProductType  string
	TargetMarket string
	Status       LaunchStatus
	Summary      string // non-empty only after terminal success
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LaunchDate   *time.Time // optional; pending launches past this time are auto-started
}

// NewLaunch creates a pending launch with a fresh ID
func NewLaunch(name, description, productType, targetMarket string, launchDate *time.Time) *Launch {
	now := time.Now().UTC()
	return &Launch{
		ID:           uuid.NewString(),
		Name:         name,
		Description:  description,
		ProductType:  productType,
		TargetMarket: targetMarket,
		Status:       LaunchPending,
		CreatedAt:    now,
		UpdatedAt:    now,
		LaunchDate:   launchDate,
	}
}

// AgentResult is the immutable outcome of one agent execution for one launch.
// A launch's results, read in creation order, always form a prefix of the
// registry order: no agent runs out of order and none runs twice.
type AgentResult struct {
	ID           int64
	LaunchID     string
	AgentName    string
	Status       ResultStatus
	Output       string // present iff Status == ResultCompleted
	ErrorMessage string // present iff Status == ResultFailed
	ErrorFlag    bool
	Timestamp    time.Time
}

// ContextEntry is one element of the accumulated context handed to an agent:
// the name and output of an earlier completed agent.
type ContextEntry struct {
	AgentName string
	Output    string
}
