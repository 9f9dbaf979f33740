// tokenpulse is a real-time terminal dashboard for Codex and Claude API
// spend: it tails each provider's usage log, maintains rolling session-block
// statistics, and alerts against plan budgets.
//
// Usage:
//
//	# Launch the interactive TUI (default)
//	tokenpulse
//	tokenpulse watch --plan pro
//
//	# One-shot snapshot, no TUI
//	tokenpulse status --platform claude
//
//	# Run as a background daemon with HTTP/SSE/metrics endpoints
//	tokenpulse daemon --detach
//	tokenpulse daemon install
//
// For complete documentation, see the project README.
package main

import "github.com/riftlabs/tokenpulse/cmd"

func main() {
	cmd.Execute()
}
