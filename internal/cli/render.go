package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/riftlabs/tokenpulse/internal/monitor"
)

// RenderStatus writes a plain-text status table for a single
// MultiPlatformState snapshot, used by the one-shot `status` command so a
// user can inspect usage without entering the TUI.
func RenderStatus(w io.Writer, snap *monitor.MultiPlatformState) {
	fmt.Fprintf(w, "last update: %s\n\n", snap.LastUpdate.Format("2006-01-02 15:04:05 MST"))

	if snap.Claude != nil {
		renderProviderStatus(w, "claude", snap.Claude)
	}
	if snap.Codex != nil {
		renderProviderStatus(w, "codex", snap.Codex)
	}

	fmt.Fprintf(w, "\ntotal: %s tokens, %s\n", FormatTokens(snap.TotalTokens()), FormatCost(snap.TotalCost()))
}

func renderProviderStatus(w io.Writer, name string, state *monitor.MonitorState) {
	fmt.Fprintf(w, "%s (%s)\n", strings.ToUpper(name), state.PlanLimits.Name)
	fmt.Fprintf(w, "  window total : %s tokens, %s, %s calls\n",
		FormatTokens(state.WindowTotal.TotalTokens), FormatCost(state.WindowTotal.TotalCost), FormatNumber(state.WindowTotal.CallCount))
	fmt.Fprintf(w, "  current block: %s tokens, %s\n",
		FormatTokens(state.CurrentBlock.TotalTokens), FormatCost(state.CurrentBlock.TotalCost))
	fmt.Fprintf(w, "  burn rate    : %.0f tok/min, $%.2f/min, eta %s\n",
		state.BurnRate.TokensPerMinute, state.BurnRate.CostPerMinute, FormatETA(state.BurnRate.EstimatedTimeToLimit))
	fmt.Fprintf(w, "  cache hits   : %s (saved %s)\n",
		FormatPercent(100*state.WindowTotal.CacheHitRate), FormatCost(state.WindowTotal.CacheSavings))
	fmt.Fprintf(w, "  vs 7d avg    : %s cost\n", FormatDelta(state.Stats24h.TotalCost, state.Stats168h.TotalCost/7))
	fmt.Fprintf(w, "  updated      : %s ago\n", FormatDuration(int64(time.Since(state.UpdatedAt).Seconds())))
	fmt.Fprintf(w, "  health score : %d/100\n", state.HealthScore)

	if !state.SourceHealthy {
		fmt.Fprintf(w, "  source       : UNHEALTHY (stats are stale)\n")
	}

	if len(state.ActiveAlerts) == 0 {
		fmt.Fprintf(w, "  alerts       : none\n")
	} else {
		fmt.Fprintf(w, "  alerts:\n")
		for _, a := range state.ActiveAlerts {
			fmt.Fprintf(w, "    [%s] %s: %s\n", a.Level, a.Metric, a.Message)
		}
	}

	if state.ShouldReset {
		fmt.Fprintf(w, "  recommendation: reset session (%s)\n", state.ResetReason)
	}
	fmt.Fprintln(w)
}
