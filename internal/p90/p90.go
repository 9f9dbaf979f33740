// Package p90 computes the P90 token limit used to drive the "custom" plan,
// using an exact, reproducible percentile formula over completed blocks.
package p90

import (
	"math"
	"sort"

	"github.com/riftlabs/tokenpulse/internal/aggregator"
)

// KnownLimits represents Claude's Pro / Max5 / Max20 token tiers.
var KnownLimits = []int64{44_000, 88_000, 220_000}

// DefaultLimit is the floor applied to every computed P90 result.
const DefaultLimit = 44_000

// Source identifies which path produced a Result.
type Source string

const (
	SourceKnownLimit Source = "known-limit"
	SourceFallback   Source = "fallback"
	SourceDefault    Source = "default"
)

// Result is the output contract of the P90 calculator.
type Result struct {
	Limit      int64
	Confidence float64
	Source     Source
}

// Calculate computes the P90 result over a provider's completed, non-gap
// blocks, following a known-limit-threshold primary path with a raw-P90
// fallback.
func Calculate(blocks []*aggregator.SessionBlock) Result {
	if len(blocks) == 0 {
		return Result{Limit: DefaultLimit, Confidence: 0, Source: SourceDefault}
	}

	known := thresholdFiltered(blocks)
	if len(known) > 0 {
		p90 := percentile90(known)
		return Result{
			Limit:      max64(p90, DefaultLimit),
			Confidence: confidence(len(known)),
			Source:     SourceKnownLimit,
		}
	}

	all := totalTokens(blocks)
	p90 := percentile90(all)
	return Result{
		Limit:      max64(p90, DefaultLimit),
		Confidence: confidence(len(all)),
		Source:     SourceFallback,
	}
}

// thresholdFiltered returns total_tokens for blocks whose total_tokens is
// within 5% of (or above) some known tier.
func thresholdFiltered(blocks []*aggregator.SessionBlock) []int64 {
	var out []int64
	for _, b := range blocks {
		for _, l := range KnownLimits {
			if float64(b.TotalTokens) >= 0.95*float64(l) {
				out = append(out, b.TotalTokens)
				break
			}
		}
	}
	return out
}

func totalTokens(blocks []*aggregator.SessionBlock) []int64 {
	out := make([]int64, len(blocks))
	for i, b := range blocks {
		out[i] = b.TotalTokens
	}
	return out
}

// percentile90 returns the value at index ceil(0.9*n)-1 of the ascending
// sorted input, matching quantiles(n=10)[8]. Must not be replaced by a
// statistics-library call: the exact index formula is what makes this
// reproducible across implementations.
func percentile90(values []int64) int64 {
	sorted := append([]int64(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	n := len(sorted)
	idx := int(math.Ceil(0.9*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

func confidence(n int) float64 {
	return math.Min(1.0, float64(n)/20.0)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
