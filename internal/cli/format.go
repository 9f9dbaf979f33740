// Package cli holds presentation helpers shared by the one-shot status/
// plan/config commands and the TUI's status rows.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatTokens renders a token count with a B/M/K suffix.
func FormatTokens(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.2fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// FormatCost renders a USD amount with precision scaled to its magnitude.
func FormatCost(cost float64) string {
	switch {
	case cost >= 100:
		return fmt.Sprintf("$%.0f", cost)
	case cost >= 1:
		return fmt.Sprintf("$%.2f", cost)
	default:
		return fmt.Sprintf("$%.4f", cost)
	}
}

// FormatDuration renders a second count as a compact duration string.
func FormatDuration(secs int64) string {
	d := time.Duration(secs) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// FormatNumber renders an integer with comma grouping.
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}

// FormatPercent renders a fraction (already scaled 0-100) as a percentage.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.0f%%", pct)
}

// FormatDelta renders the change between current and previous as a signed
// percentage, or "n/a" when previous is zero.
func FormatDelta(current, previous float64) string {
	if previous == 0 {
		return "n/a"
	}
	delta := 100 * (current - previous) / previous
	sign := "+"
	if delta < 0 {
		sign = ""
	}
	return fmt.Sprintf("%s%.1f%%", sign, delta)
}

// FormatETA renders a minutes value, handling the infinite case explicitly
// rather than printing "+Inf".
func FormatETA(minutes float64) string {
	if minutes < 0 || minutes > 1e15 {
		return "n/a"
	}
	if minutes < 60 {
		return fmt.Sprintf("%.0fm", minutes)
	}
	if minutes < 1440 {
		return fmt.Sprintf("%.1fh", minutes/60)
	}
	return fmt.Sprintf("%.1fd", minutes/1440)
}
