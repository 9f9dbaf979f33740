// Package burnrate computes short-window consumption rates and projects
// time-to-limit from the tail of recently admitted records.
package burnrate

import (
	"math"
	"time"

	"github.com/riftlabs/tokenpulse/internal/usage"
)

// DefaultWindow is the lookback window for rate computation.
const DefaultWindow = 10 * time.Minute

// BurnRate is the output of the estimator for one provider at one tick.
type BurnRate struct {
	TokensPerMinute       float64
	CostPerMinute         float64
	EstimatedTimeToLimit  float64 // minutes; math.Inf(1) means unbounded
	Confidence            float64
}

// Limits is the subset of PlanLimits relevant to time-to-limit projection.
// A zero value for either field means "unlimited" for that metric.
type Limits struct {
	TokenLimit    int64 // 0 = unlimited
	TokenUnset    bool
	CostLimit     float64
	CostUnset     bool
}

// Calculate computes a BurnRate from the records falling within window W of
// now, plus the current cumulative usage needed to project time-to-limit.
// records need not be pre-filtered to the window; Calculate filters them.
func Calculate(records []usage.Record, now time.Time, window time.Duration, currentTokens int64, currentCost float64, limits Limits) BurnRate {
	if window <= 0 {
		window = DefaultWindow
	}
	since := now.Add(-window)

	var tokens int64
	var cost float64
	var count int
	for _, r := range records {
		if r.Timestamp.Before(since) || r.Timestamp.After(now) {
			continue
		}
		tokens += r.Tokens.Total()
		cost += r.Cost
		count++
	}

	if count < 2 {
		return BurnRate{EstimatedTimeToLimit: math.Inf(1)}
	}

	minutes := window.Minutes()
	tpm := float64(tokens) / minutes
	cpm := cost / minutes

	eta := projectETA(tpm, cpm, currentTokens, currentCost, limits)

	return BurnRate{
		TokensPerMinute:      tpm,
		CostPerMinute:        cpm,
		EstimatedTimeToLimit: eta,
		Confidence:           math.Min(1.0, float64(count)/20.0),
	}
}

func projectETA(tpm, cpm float64, currentTokens int64, currentCost float64, limits Limits) float64 {
	tokenETA := math.Inf(1)
	if !limits.TokenUnset && limits.TokenLimit > 0 && currentTokens < limits.TokenLimit {
		if tpm > 0 {
			tokenETA = float64(limits.TokenLimit-currentTokens) / tpm
		}
	}

	costETA := math.Inf(1)
	if !limits.CostUnset && limits.CostLimit > 0 && currentCost < limits.CostLimit {
		if cpm > 0 {
			costETA = (limits.CostLimit - currentCost) / cpm
		}
	}

	return math.Min(tokenETA, costETA)
}
