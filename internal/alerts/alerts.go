// Package alerts implements the four-level alert state machine that turns
// UsageStats and BurnRate into actionable Alerts, plus the session-reset
// and health-score advisories derived from them.
package alerts

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/xid"

	"github.com/riftlabs/tokenpulse/internal/aggregator"
	"github.com/riftlabs/tokenpulse/internal/burnrate"
)

// Level is the alert severity ladder.
type Level string

const (
	LevelInfo     Level = "INFO"
	LevelWarning  Level = "WARNING"
	LevelCritical Level = "CRITICAL"
	LevelDanger   Level = "DANGER"
)

var ladder = []struct {
	level     Level
	threshold float64
}{
	{LevelDanger, 95},
	{LevelCritical, 90},
	{LevelWarning, 75},
	{LevelInfo, 50},
}

// Metric identifies what an Alert is about.
type Metric string

const (
	MetricTokens     Metric = "TOKENS"
	MetricCost       Metric = "COST"
	MetricBurnTokens Metric = "BURN_TOKENS"
	MetricBurnCost   Metric = "BURN_COST"
)

// Alert is a single emitted warning.
type Alert struct {
	ID                   string
	Level                Level
	Metric               Metric
	CurrentValue         float64
	ThresholdValue       float64
	Severity             int
	Message              string
	RecommendedAction    string
	EstimatedTimeToLimit float64 // minutes; math.Inf(1) if not finite
	Timestamp            time.Time
}

// Limits is the subset of PlanLimits the engine evaluates against. A zero
// value paired with its Unset flag means "unlimited" (no alert possible).
type Limits struct {
	TokenLimit int64
	TokenUnset bool
	CostLimit  float64
	CostUnset  bool
}

// Evaluate is a pure function of (UsageStats, BurnRate, Limits) producing
// the current set of active alerts.
func Evaluate(stats aggregator.UsageStats, rate burnrate.BurnRate, limits Limits, now time.Time) []Alert {
	var out []Alert

	if !limits.TokenUnset && limits.TokenLimit > 0 {
		if a := thresholdAlert(MetricTokens, float64(stats.Tokens.Total()), float64(limits.TokenLimit), rate.EstimatedTimeToLimit, now); a != nil {
			out = append(out, *a)
		}
	}
	if !limits.CostUnset && limits.CostLimit > 0 {
		if a := thresholdAlert(MetricCost, stats.Cost, limits.CostLimit, rate.EstimatedTimeToLimit, now); a != nil {
			out = append(out, *a)
		}
	}

	if rate.TokensPerMinute > 10_000 {
		level := LevelWarning
		if rate.TokensPerMinute > 25_000 {
			level = LevelCritical
		}
		out = append(out, burnAlert(MetricBurnTokens, level, rate.TokensPerMinute, 10_000, now))
	}
	if rate.CostPerMinute > 1.00 {
		level := LevelWarning
		if rate.CostPerMinute > 2.50 {
			level = LevelCritical
		}
		out = append(out, burnAlert(MetricBurnCost, level, rate.CostPerMinute, 1.00, now))
	}

	return out
}

func thresholdAlert(metric Metric, current, limit float64, eta float64, now time.Time) *Alert {
	pct := 100 * current / limit
	level, _, ok := selectLevel(pct)
	if !ok {
		return nil
	}
	severity := int(math.Min(100, math.Round(pct)))
	return &Alert{
		ID:                   xid.New().String(),
		Level:                level,
		Metric:               metric,
		CurrentValue:         current,
		ThresholdValue:       limit,
		Severity:             severity,
		EstimatedTimeToLimit: eta,
		Message:              message(level, metric, pct, eta),
		RecommendedAction:    recommendedAction(level, metric),
		Timestamp:            now,
	}
}

func selectLevel(pct float64) (Level, float64, bool) {
	for _, rung := range ladder {
		if pct >= rung.threshold {
			return rung.level, rung.threshold, true
		}
	}
	return "", 0, false
}

func burnAlert(metric Metric, level Level, current, threshold float64, now time.Time) Alert {
	return Alert{
		ID:                   xid.New().String(),
		Level:                level,
		Metric:               metric,
		CurrentValue:         current,
		ThresholdValue:       threshold,
		Severity:             int(math.Min(100, math.Round(100*current/threshold))),
		EstimatedTimeToLimit: math.Inf(1),
		Message:              burnMessage(level, metric, current),
		RecommendedAction:    recommendedAction(level, metric),
		Timestamp:            now,
	}
}

func message(level Level, metric Metric, pct, eta float64) string {
	base := fmt.Sprintf("%s usage at %.0f%%", metricLabel(metric), pct)
	if !math.IsInf(eta, 1) && eta > 0 {
		base += fmt.Sprintf(", est. %s to limit", formatETA(eta))
	}
	return base
}

func burnMessage(level Level, metric Metric, current float64) string {
	if metric == MetricBurnTokens {
		return fmt.Sprintf("token burn rate at %.0f tokens/min", current)
	}
	return fmt.Sprintf("cost burn rate at $%.2f/min", current)
}

func formatETA(minutes float64) string {
	if minutes < 60 {
		return fmt.Sprintf("%.0f min", minutes)
	}
	if minutes < 1440 {
		return fmt.Sprintf("%.1f h", minutes/60)
	}
	return fmt.Sprintf("%.1f d", minutes/1440)
}

func metricLabel(m Metric) string {
	switch m {
	case MetricTokens:
		return "Token"
	case MetricCost:
		return "Cost"
	default:
		return string(m)
	}
}

// recommendedAction returns the canned action string keyed by (level, metric).
func recommendedAction(level Level, metric Metric) string {
	switch {
	case level == LevelDanger && metric == MetricCost:
		return "IMMEDIATE ACTION REQUIRED. Stop current session to avoid exceeding budget."
	case level == LevelDanger && metric == MetricTokens:
		return "IMMEDIATE ACTION REQUIRED. Stop current session to avoid exceeding the token limit."
	case level == LevelCritical && metric == MetricTokens:
		return "Plan to reset session soon. Review usage patterns and optimize prompts to reduce consumption."
	case level == LevelCritical && metric == MetricCost:
		return "Plan to reset session soon. Consider switching to a cheaper model for remaining work."
	case level == LevelWarning:
		return "Monitor usage closely; consider pacing remaining requests."
	case metric == MetricBurnTokens:
		return "Token consumption is accelerating. Consider shorter prompts or a smaller model."
	case metric == MetricBurnCost:
		return "Spend is accelerating. Review which calls are driving cost."
	default:
		return "Usage is within expected bounds."
	}
}

// ShouldResetSession reports the top-level recommendation: true when any
// active alert is at DANGER, or any metric is >= 90% with an ETA under
// 30 minutes.
func ShouldResetSession(active []Alert) (bool, string) {
	for _, a := range active {
		if a.Level == LevelDanger {
			return true, fmt.Sprintf("%s alert at DANGER level", a.Metric)
		}
	}
	for _, a := range active {
		if a.Severity >= 90 && !math.IsInf(a.EstimatedTimeToLimit, 1) && a.EstimatedTimeToLimit < 30 {
			return true, fmt.Sprintf("%s at %d%% with %.0f min to limit", a.Metric, a.Severity, a.EstimatedTimeToLimit)
		}
	}
	return false, "usage within safe bounds"
}

// HealthScore computes the [0,100] session health score: 100 minus the
// highest observed usage percentage across TOKENS and COST, further
// reduced by 10 per CRITICAL alert and 25 per DANGER alert, clamped.
func HealthScore(active []Alert) int {
	maxPct := 0.0
	penalty := 0.0
	for _, a := range active {
		if a.Metric == MetricTokens || a.Metric == MetricCost {
			pct := 100 * a.CurrentValue / a.ThresholdValue
			if pct > maxPct {
				maxPct = pct
			}
		}
		switch a.Level {
		case LevelCritical:
			penalty += 10
		case LevelDanger:
			penalty += 25
		}
	}
	score := 100 - maxPct - penalty
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(math.Round(score))
}
