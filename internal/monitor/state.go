// Package monitor wires ingestion, dedup, aggregation, P90, burn-rate, and
// alerts into a per-tick pipeline, publishing a MultiPlatformState snapshot
// the UI reads lock-free under a read-copy-update discipline.
package monitor

import (
	"time"

	"github.com/riftlabs/tokenpulse/internal/alerts"
	"github.com/riftlabs/tokenpulse/internal/burnrate"
	"github.com/riftlabs/tokenpulse/internal/config"
	"github.com/riftlabs/tokenpulse/internal/p90"
	"github.com/riftlabs/tokenpulse/internal/usage"
)

// MonitorState is the per-provider snapshot assembled at the end of every
// tick.
type MonitorState struct {
	Provider     usage.Provider
	Stats24h     UsageStatsView
	Stats168h    UsageStatsView
	Stats720h    UsageStatsView
	CurrentBlock UsageStatsView
	WindowTotal  UsageStatsView

	BurnRate     burnrate.BurnRate
	P90Limit     *int64
	P90Result    *p90.Result
	ActiveAlerts []alerts.Alert
	PlanLimits   config.PlanLimits

	SourceHealthy        bool
	SkippedLinesLastTick int
	ShouldReset          bool
	ResetReason          string
	HealthScore          int

	UpdatedAt time.Time
}

// UsageStatsView is the wire-friendly projection of aggregator.UsageStats
// handed to the UI layer.
type UsageStatsView struct {
	TotalTokens  int64
	TotalCost    float64
	CallCount    int64
	CacheHitRate float64
	CacheSavings float64
}

// MultiPlatformState holds up to two MonitorState slots (Codex, Claude).
// It is published by atomic reference swap: readers observe either the
// previous or the next snapshot, never a torn one.
type MultiPlatformState struct {
	Codex      *MonitorState
	Claude     *MonitorState
	LastUpdate time.Time
}

// TotalCost sums cost across whichever provider slots are present.
func (m *MultiPlatformState) TotalCost() float64 {
	var total float64
	if m.Codex != nil {
		total += m.Codex.WindowTotal.TotalCost
	}
	if m.Claude != nil {
		total += m.Claude.WindowTotal.TotalCost
	}
	return total
}

// TotalTokens sums tokens across whichever provider slots are present.
func (m *MultiPlatformState) TotalTokens() int64 {
	var total int64
	if m.Codex != nil {
		total += m.Codex.WindowTotal.TotalTokens
	}
	if m.Claude != nil {
		total += m.Claude.WindowTotal.TotalTokens
	}
	return total
}
