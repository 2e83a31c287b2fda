package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/launchforge/launch-orchestrator/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62"))

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	statusStyles = map[domain.LaunchStatus]lipgloss.Style{
		domain.LaunchPending:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		domain.LaunchInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		domain.LaunchCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		domain.LaunchFailed:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View renders the dashboard
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Launch Orchestrator"))
	b.WriteString("\n\n")

	if m.loadErr != nil {
		b.WriteString(statusStyles[domain.LaunchFailed].Render("error: " + m.loadErr.Error()))
		b.WriteString("\n")
	}

	listWidth := 44
	if m.width > 0 && m.width < 100 {
		listWidth = m.width / 2
	}

	left := paneStyle.Width(listWidth).Render(m.renderLaunchList(listWidth))
	right := paneStyle.Width(maxInt(30, m.width-listWidth-6)).Render(m.renderDetail())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("j/k: select  r: refresh  q: quit"))
	if !m.lastRefresh.IsZero() {
		b.WriteString(dimStyle.Render("  refreshed " + humanize.Time(m.lastRefresh)))
	}
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderLaunchList(width int) string {
	if len(m.launches) == 0 {
		return dimStyle.Render("No launches yet.\nCreate one with: launch-orch create NAME")
	}

	var b strings.Builder
	for i, l := range m.launches {
		marker := "  "
		if i == m.selectedRow {
			marker = "> "
		}

		name := l.Name
		if maxName := width - 16; len(name) > maxName && maxName > 3 {
			name = name[:maxName-3] + "..."
		}

		line := fmt.Sprintf("%s%-*s %s", marker, width-14, name,
			statusStyles[l.Status].Render(string(l.Status)))
		if i == m.selectedRow {
			line = selectedStyle.Render(fmt.Sprintf("%s%-*s %s", marker, width-14, name, l.Status))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderDetail() string {
	if m.selectedRow >= len(m.launches) {
		return dimStyle.Render("Nothing selected")
	}
	l := m.launches[m.selectedRow]

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", lipgloss.NewStyle().Bold(true).Render(l.Name))
	fmt.Fprintf(&b, "%s  created %s\n",
		statusStyles[l.Status].Render(string(l.Status)), humanize.Time(l.CreatedAt))
	if l.LaunchDate != nil {
		fmt.Fprintf(&b, "scheduled for %s\n", humanize.Time(*l.LaunchDate))
	}
	b.WriteString("\n")

	done := make(map[string]*domain.AgentResult, len(m.results))
	for _, r := range m.results {
		done[r.AgentName] = r
	}

	var currentPhase domain.Phase
	for _, spec := range m.reg.Handlers() {
		if spec.Phase != currentPhase {
			currentPhase = spec.Phase
			b.WriteString(dimStyle.Render(string(currentPhase)))
			b.WriteString("\n")
		}

		mark := dimStyle.Render("·")
		if r, ok := done[spec.Name]; ok {
			if r.Status == domain.ResultFailed {
				mark = statusStyles[domain.LaunchFailed].Render("✗")
			} else {
				mark = statusStyles[domain.LaunchCompleted].Render("✓")
			}
		}
		fmt.Fprintf(&b, "  %s %s\n", mark, spec.Name)
	}

	return b.String()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
