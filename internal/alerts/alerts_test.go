package alerts

import (
	"math"
	"testing"
	"time"

	"github.com/riftlabs/tokenpulse/internal/aggregator"
	"github.com/riftlabs/tokenpulse/internal/burnrate"
	"github.com/riftlabs/tokenpulse/internal/usage"
)

var now = time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

func statsWithTokens(n int64) aggregator.UsageStats {
	return aggregator.UsageStats{Tokens: usage.TokenUsage{Input: n}}
}

func TestEvaluateNoAlertsUnderLowestThreshold(t *testing.T) {
	stats := statsWithTokens(10)
	alerts := Evaluate(stats, burnrate.BurnRate{}, Limits{TokenLimit: 1000}, now)
	for _, a := range alerts {
		if a.Metric == MetricTokens {
			t.Errorf("unexpected token alert at 1%% usage: %+v", a)
		}
	}
}

func TestEvaluateUnlimitedMetricNeverAlerts(t *testing.T) {
	stats := statsWithTokens(1_000_000)
	alerts := Evaluate(stats, burnrate.BurnRate{}, Limits{TokenUnset: true, CostUnset: true}, now)
	if len(alerts) != 0 {
		t.Errorf("Evaluate with unset limits produced %d alerts, want 0", len(alerts))
	}
}

func TestEvaluateSeverityLadderIsMonotonic(t *testing.T) {
	cases := []struct {
		pct   int64
		level Level
	}{
		{50, LevelInfo},
		{75, LevelWarning},
		{90, LevelCritical},
		{95, LevelDanger},
	}
	for _, c := range cases {
		stats := statsWithTokens(c.pct * 10) // limit is 1000, so pct% of it
		alerts := Evaluate(stats, burnrate.BurnRate{}, Limits{TokenLimit: 1000}, now)
		found := false
		for _, a := range alerts {
			if a.Metric == MetricTokens {
				found = true
				if a.Level != c.level {
					t.Errorf("at %d%%: Level = %q, want %q", c.pct, a.Level, c.level)
				}
			}
		}
		if !found {
			t.Errorf("at %d%%: expected a token alert, got none", c.pct)
		}
	}
}

func TestEvaluateHigherUsageNeverProducesALowerLevel(t *testing.T) {
	levelRank := map[Level]int{LevelInfo: 0, LevelWarning: 1, LevelCritical: 2, LevelDanger: 3}
	prevRank := -1
	for pct := int64(50); pct <= 99; pct += 5 {
		stats := statsWithTokens(pct * 10)
		alerts := Evaluate(stats, burnrate.BurnRate{}, Limits{TokenLimit: 1000}, now)
		for _, a := range alerts {
			if a.Metric != MetricTokens {
				continue
			}
			rank := levelRank[a.Level]
			if rank < prevRank {
				t.Errorf("at %d%%: level rank %d dropped below previous rank %d", pct, rank, prevRank)
			}
			prevRank = rank
		}
	}
}

func TestEvaluateBurnTokenAlertFiresAboveThreshold(t *testing.T) {
	rate := burnrate.BurnRate{TokensPerMinute: 15_000}
	alerts := Evaluate(aggregator.UsageStats{}, rate, Limits{TokenUnset: true, CostUnset: true}, now)
	var found bool
	for _, a := range alerts {
		if a.Metric == MetricBurnTokens {
			found = true
			if a.Level != LevelWarning {
				t.Errorf("Level = %q, want WARNING at 15,000 tokens/min", a.Level)
			}
		}
	}
	if !found {
		t.Error("expected a BURN_TOKENS alert above 10,000 tokens/min")
	}
}

func TestEvaluateBurnTokenAlertEscalatesToCritical(t *testing.T) {
	rate := burnrate.BurnRate{TokensPerMinute: 30_000}
	alerts := Evaluate(aggregator.UsageStats{}, rate, Limits{TokenUnset: true, CostUnset: true}, now)
	for _, a := range alerts {
		if a.Metric == MetricBurnTokens && a.Level != LevelCritical {
			t.Errorf("Level = %q, want CRITICAL above 25,000 tokens/min", a.Level)
		}
	}
}

func TestEvaluateBurnCostAlertFiresAboveThreshold(t *testing.T) {
	rate := burnrate.BurnRate{CostPerMinute: 1.5}
	alerts := Evaluate(aggregator.UsageStats{}, rate, Limits{TokenUnset: true, CostUnset: true}, now)
	var found bool
	for _, a := range alerts {
		if a.Metric == MetricBurnCost {
			found = true
		}
	}
	if !found {
		t.Error("expected a BURN_COST alert above $1.00/min")
	}
}

func TestShouldResetSessionTrueOnDangerAlert(t *testing.T) {
	ok, _ := ShouldResetSession([]Alert{{Level: LevelDanger, Metric: MetricTokens}})
	if !ok {
		t.Error("ShouldResetSession should be true when a DANGER alert is active")
	}
}

func TestShouldResetSessionTrueOnImminentCriticalETA(t *testing.T) {
	ok, _ := ShouldResetSession([]Alert{{
		Level:                LevelCritical,
		Metric:               MetricTokens,
		Severity:             92,
		EstimatedTimeToLimit: 10,
	}})
	if !ok {
		t.Error("ShouldResetSession should be true at severity>=90 with ETA<30min")
	}
}

func TestShouldResetSessionFalseWithInfiniteETA(t *testing.T) {
	ok, _ := ShouldResetSession([]Alert{{
		Level:                LevelCritical,
		Metric:               MetricTokens,
		Severity:             95,
		EstimatedTimeToLimit: math.Inf(1),
	}})
	if ok {
		t.Error("ShouldResetSession should be false when ETA is unbounded, even at high severity")
	}
}

func TestShouldResetSessionFalseWhenSafe(t *testing.T) {
	ok, reason := ShouldResetSession(nil)
	if ok {
		t.Error("ShouldResetSession should be false with no active alerts")
	}
	if reason == "" {
		t.Error("expected a non-empty reason string even when safe")
	}
}

func TestHealthScoreFullWithNoAlerts(t *testing.T) {
	if got := HealthScore(nil); got != 100 {
		t.Errorf("HealthScore(nil) = %d, want 100", got)
	}
}

func TestHealthScoreSubtractsMaxUsagePercentage(t *testing.T) {
	score := HealthScore([]Alert{{
		Level:          LevelWarning,
		Metric:         MetricTokens,
		CurrentValue:   750,
		ThresholdValue: 1000,
	}})
	if score != 25 {
		t.Errorf("HealthScore = %d, want 25 (100 - 75%%)", score)
	}
}

func TestHealthScoreAppliesCriticalAndDangerPenalties(t *testing.T) {
	score := HealthScore([]Alert{
		{Level: LevelCritical, Metric: MetricTokens, CurrentValue: 900, ThresholdValue: 1000},
		{Level: LevelDanger, Metric: MetricCost, CurrentValue: 95, ThresholdValue: 100},
	})
	// maxPct = 95 (cost); penalty = 10 (critical) + 25 (danger) = 35; score = 100-95-35 = -30 -> clamped to 0.
	if score != 0 {
		t.Errorf("HealthScore = %d, want 0 (clamped)", score)
	}
}

func TestHealthScoreNeverNegativeOrAboveHundred(t *testing.T) {
	score := HealthScore([]Alert{{Level: LevelDanger, Metric: MetricTokens, CurrentValue: 1000, ThresholdValue: 1000}})
	if score < 0 || score > 100 {
		t.Errorf("HealthScore = %d, want within [0,100]", score)
	}
}
