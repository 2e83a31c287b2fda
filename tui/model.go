// Package tui is a terminal dashboard over the launch workflow: a launch
// list on the left, the selected launch's agent progress on the right,
// refreshed from the store on a timer.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/launchforge/launch-orchestrator/internal/domain"
	"github.com/launchforge/launch-orchestrator/internal/registry"
)

// DataSource is what the dashboard reads from
type DataSource interface {
	ListLaunches() ([]*domain.Launch, error)
	GetAgentResults(launchID string) ([]*domain.AgentResult, error)
}

// Model is the TUI application model
type Model struct {
	source DataSource
	reg    *registry.Registry

	launches []*domain.Launch
	results  []*domain.AgentResult
	loadErr  error

	width       int
	height      int
	selectedRow int

	lastRefresh time.Time
}

// NewModel creates a new TUI model
func NewModel(source DataSource, reg *registry.Registry) Model {
	return Model{source: source, reg: reg}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), tickCmd())
}

// TickMsg triggers a refresh
type TickMsg time.Time

// RefreshMsg carries freshly loaded data
type RefreshMsg struct {
	Launches []*domain.Launch
	Results  []*domain.AgentResult
	Err      error
}

func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) refreshCmd() tea.Cmd {
	selected := m.selectedID()
	return func() tea.Msg {
		launches, err := m.source.ListLaunches()
		if err != nil {
			return RefreshMsg{Err: err}
		}

		var results []*domain.AgentResult
		if selected != "" {
			results, _ = m.source.GetAgentResults(selected)
		}
		return RefreshMsg{Launches: launches, Results: results}
	}
}

func (m Model) selectedID() string {
	if m.selectedRow >= 0 && m.selectedRow < len(m.launches) {
		return m.launches[m.selectedRow].ID
	}
	return ""
}
