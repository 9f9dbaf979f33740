// Package tui implements the bubbletea dashboard the `watch` command
// launches: a continuously refreshing view of MultiPlatformState driven by
// the monitor.Driver's lock-free snapshot pointer.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/riftlabs/tokenpulse/internal/cli"
	"github.com/riftlabs/tokenpulse/internal/monitor"
	"github.com/riftlabs/tokenpulse/internal/tui/components"
	"github.com/riftlabs/tokenpulse/internal/tui/theme"
)

// tickMsg drives the periodic re-read of the driver's published snapshot.
type tickMsg time.Time

const pollInterval = time.Second

// Model is the bubbletea model wrapping a read-only view of the driver.
type Model struct {
	driver *monitor.Driver
	snap   *monitor.MultiPlatformState

	tabs   []string
	active int

	width, height int
}

// New constructs a Model reading from d. The TUI never mutates the
// driver's owned state - it only reads the published pointer.
func New(d *monitor.Driver) Model {
	return Model{
		driver: d,
		snap:   d.Snapshot(),
		tabs:   []string{"Overview", "Alerts", "Pricing"},
	}
}

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "right", "l":
			m.active = (m.active + 1) % len(m.tabs)
			return m, nil
		case "shift+tab", "left", "h":
			m.active = (m.active - 1 + len(m.tabs)) % len(m.tabs)
			return m, nil
		}
		return m, nil
	case tickMsg:
		m.snap = m.driver.Snapshot()
		return m, tickCmd()
	}
	return m, nil
}

func (m Model) View() string {
	width := m.width
	if width <= 0 {
		width = 100
	}

	header := components.TabBar(m.tabs, m.active)

	var body string
	switch m.tabs[m.active] {
	case "Alerts":
		body = m.renderAlerts(width)
	case "Pricing":
		body = m.renderPricingNote(width)
	default:
		body = m.renderOverview(width)
	}

	footer := components.Footer(
		components.RelativeTime(m.snap.LastUpdate),
		"tab: switch  q: quit",
		width,
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) renderOverview(width int) string {
	var sections []string
	if m.snap.Claude != nil {
		sections = append(sections, providerCard("Claude", m.snap.Claude, width/2))
	}
	if m.snap.Codex != nil {
		sections = append(sections, providerCard("Codex", m.snap.Codex, width/2))
	}
	if len(sections) == 0 {
		return lipgloss.NewStyle().Foreground(theme.Active.TextMuted).Render("no provider data yet")
	}
	totals := fmt.Sprintf("total: %s tokens, %s", cli.FormatTokens(m.snap.TotalTokens()), cli.FormatCost(m.snap.TotalCost()))
	return lipgloss.JoinVertical(lipgloss.Left, lipgloss.JoinHorizontal(lipgloss.Top, sections...), totals)
}

func providerCard(name string, state *monitor.MonitorState, width int) string {
	pct := 0.0
	if state.PlanLimits.TokenLimit > 0 {
		pct = 100 * float64(state.CurrentBlock.TotalTokens) / float64(state.PlanLimits.TokenLimit)
	}

	body := strings.Join([]string{
		fmt.Sprintf("plan: %s", state.PlanLimits.Name),
		components.RateLimitBar("tokens", pct, state.UpdatedAt.Add(5*time.Hour), 8, 20),
		fmt.Sprintf("cost: %s  calls: %s", cli.FormatCost(state.WindowTotal.TotalCost), cli.FormatNumber(state.WindowTotal.CallCount)),
		fmt.Sprintf("burn: %.0f tok/min  eta: %s", state.BurnRate.TokensPerMinute, cli.FormatETA(state.BurnRate.EstimatedTimeToLimit)),
		fmt.Sprintf("health: %d/100", state.HealthScore),
	}, "\n")

	return components.ContentCard(name, body, width)
}

func (m Model) renderAlerts(width int) string {
	var lines []string
	for _, state := range []*monitor.MonitorState{m.snap.Claude, m.snap.Codex} {
		if state == nil {
			continue
		}
		for _, a := range state.ActiveAlerts {
			lines = append(lines, fmt.Sprintf("[%s] %s/%s: %s", state.Provider, a.Level, a.Metric, a.Message))
		}
	}
	if len(lines) == 0 {
		return "no active alerts"
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderPricingNote(width int) string {
	return "pricing table is static; see `tokenpulse config` for overrides"
}

// Run launches the dashboard program against d until the user quits.
func Run(d *monitor.Driver) error {
	p := tea.NewProgram(New(d), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
