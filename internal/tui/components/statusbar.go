package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/riftlabs/tokenpulse/internal/tui/theme"
)

// Footer renders the standard bottom-of-screen status line: last-refresh
// time on the left, key hints on the right.
func Footer(lastUpdated string, hints string, width int) string {
	t := theme.Active
	left := lipgloss.NewStyle().Foreground(t.TextMuted).Render(fmt.Sprintf("updated %s", lastUpdated))
	right := lipgloss.NewStyle().Foreground(t.TextDim).Render(hints)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + lipgloss.NewStyle().Width(gap).Render("") + right
}

// RelativeTime renders t as a humanized "3 minutes ago" string.
func RelativeTime(t time.Time) string {
	return humanize.Time(t)
}
