package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.refreshCmd()
		case "j", "down":
			if m.selectedRow < len(m.launches)-1 {
				m.selectedRow++
				m.results = nil
				return m, m.refreshCmd()
			}
		case "k", "up":
			if m.selectedRow > 0 {
				m.selectedRow--
				m.results = nil
				return m, m.refreshCmd()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		return m, tea.Batch(m.refreshCmd(), tickCmd())

	case RefreshMsg:
		if msg.Err != nil {
			m.loadErr = msg.Err
			return m, nil
		}
		m.loadErr = nil
		m.launches = msg.Launches
		m.results = msg.Results
		m.lastRefresh = time.Now()
		if m.selectedRow >= len(m.launches) {
			m.selectedRow = len(m.launches) - 1
		}
		if m.selectedRow < 0 {
			m.selectedRow = 0
		}
	}

	return m, nil
}
