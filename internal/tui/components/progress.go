// Package components holds small, reusable lipgloss/bubbles render
// helpers shared across the dashboard's views.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/riftlabs/tokenpulse/internal/tui/theme"
)

// ColorForPct picks a severity color for a usage percentage, matching the
// alert ladder's thresholds.
func ColorForPct(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct >= 95:
		return t.Red
	case pct >= 90:
		return t.Orange
	case pct >= 75:
		return t.Yellow
	case pct >= 50:
		return t.Blue
	default:
		return t.Green
	}
}

// ProgressBar renders a width-wide bar for pct in [0,100], its filled part
// in the single severity color ColorForPct picks.
func ProgressBar(pct float64, width int) string {
	if width <= 0 {
		width = 20
	}
	if pct < 0 {
		pct = 0
	}
	filled := int(float64(width) * pct / 100)
	if filled > width {
		filled = width
	}
	color := ColorForPct(pct)
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	rest := lipgloss.NewStyle().Foreground(theme.Active.TextDim).Render(strings.Repeat("░", width-filled))
	return bar + rest
}

// RateLimitBar renders a labeled usage bar plus a trailing countdown to
// reset, for the current session block's remaining time.
func RateLimitBar(label string, pct float64, resetsAt time.Time, labelW, barWidth int) string {
	l := fmt.Sprintf("%-*s", labelW, label)
	bar := ProgressBar(pct, barWidth)
	countdown := formatCountdown(time.Until(resetsAt))
	return fmt.Sprintf("%s %s %5.1f%%  resets in %s", l, bar, pct, countdown)
}

// CompactRateBar is a narrower RateLimitBar variant for tight layouts.
func CompactRateBar(pct float64, width int) string {
	return fmt.Sprintf("%s %5.1f%%", ProgressBar(pct, width), pct)
}

func formatCountdown(d time.Duration) string {
	if d <= 0 {
		return "now"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
