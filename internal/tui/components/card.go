package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/riftlabs/tokenpulse/internal/tui/theme"
)

// LayoutRow splits totalWidth into n roughly equal column widths.
func LayoutRow(totalWidth, n int) []int {
	if n <= 0 {
		return nil
	}
	base := totalWidth / n
	rem := totalWidth % n
	widths := make([]int, n)
	for i := range widths {
		widths[i] = base
		if i < rem {
			widths[i]++
		}
	}
	return widths
}

// MetricCard renders a rounded-border card with a label, a big value, and
// an optional delta line.
func MetricCard(label, value, delta string, outerWidth int) string {
	t := theme.Active
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1).
		Width(outerWidth - 2)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true)
	deltaStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	body := labelStyle.Render(label) + "\n" + valueStyle.Render(value)
	if delta != "" {
		body += "\n" + deltaStyle.Render(delta)
	}
	return style.Render(body)
}

// MetricCardRow lays out cards side by side; outerWidth is not used.
func MetricCardRow(outerWidth int, cards ...string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// ContentCard renders a titled card with arbitrary body text.
func ContentCard(title, body string, outerWidth int) string {
	t := theme.Active
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(0, 1).
		Width(outerWidth - 2)

	titleStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	return style.Render(titleStyle.Render(title) + "\n" + body)
}

// CardRow joins cards horizontally with a one-space gutter.
func CardRow(cards ...string) string {
	parts := make([]string, 0, 2*len(cards))
	for i, c := range cards {
		if i > 0 {
			parts = append(parts, " ")
		}
		parts = append(parts, c)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// CardInnerWidth returns the usable text width inside a card of the given
// outer width (accounting for border + padding).
func CardInnerWidth(outerWidth int) int {
	w := outerWidth - 4
	if w < 1 {
		w = 1
	}
	return w
}
