package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/riftlabs/tokenpulse/internal/tui/theme"
)

// TabBar renders a row of tab labels with the active one highlighted.
func TabBar(tabs []string, active int) string {
	t := theme.Active
	var rendered []string
	for i, name := range tabs {
		style := lipgloss.NewStyle().Padding(0, 2).Foreground(t.TextMuted)
		if i == active {
			style = style.Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
		}
		rendered = append(rendered, style.Render(name))
	}
	return strings.Join(rendered, "")
}
