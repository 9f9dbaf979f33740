// Package pricing holds the static per-model price table and the cost
// arithmetic that turns a TokenUsage into a USD amount.
package pricing

import (
	"strings"
	"sync"

	"github.com/riftlabs/tokenpulse/internal/usage"
)

// Price holds per-million-token USD rates for the four token types.
type Price struct {
	Input         float64
	Output        float64
	CacheCreation float64
	CacheRead     float64
}

// DefaultName is the conservative fallback entry used for unknown models.
// It intentionally carries Sonnet rates: over-estimating cost is safer than
// under-estimating it.
const DefaultName = "default"

// Table maps normalized model names to their per-million-token USD price.
// Exact Claude rates satisfy cache_creation = 1.25x input and
// cache_read = 0.10x input.
var Table = map[string]Price{
	"claude-sonnet": {Input: 3.00, Output: 15.00, CacheCreation: 3.75, CacheRead: 0.30},
	"claude-opus":   {Input: 15.00, Output: 75.00, CacheCreation: 18.75, CacheRead: 1.50},
	"claude-haiku":  {Input: 0.25, Output: 1.25, CacheCreation: 0.3125, CacheRead: 0.025},

	"gpt-4":         {Input: 30.00, Output: 60.00},
	"gpt-4-turbo":   {Input: 10.00, Output: 30.00},
	"gpt-3.5-turbo": {Input: 0.50, Output: 1.50},

	DefaultName: {Input: 3.00, Output: 15.00, CacheCreation: 3.75, CacheRead: 0.30},
}

// claudeFamilyPrefixes maps a normalized-but-versioned model name
// (e.g. "claude-sonnet-4-5") back to its family entry in Table
// ("claude-sonnet"), since Normalize does not strip version segments.
var claudeFamilyPrefixes = []string{"claude-sonnet", "claude-opus", "claude-haiku"}

var (
	unknownModelsMu   sync.Mutex
	unknownModelsSeen = map[string]struct{}{}
)

// Normalize strips a provider date suffix (e.g. "-20250514"), lower-cases,
// and collapses consecutive dots, producing a deterministic, fully
// unit-testable key for table lookups.
func Normalize(raw string) string {
	m := strings.ToLower(strings.TrimSpace(raw))
	m = stripDateSuffix(m)
	m = collapseDots(m)
	return m
}

// stripDateSuffix removes a trailing all-digit segment of six or more
// digits (e.g. "-20250514"), matching Anthropic's and OpenAI's date-suffixed model names.
func stripDateSuffix(m string) string {
	parts := strings.Split(m, "-")
	if len(parts) < 2 {
		return m
	}
	last := parts[len(parts)-1]
	if len(last) >= 6 && isAllDigits(last) {
		return strings.Join(parts[:len(parts)-1], "-")
	}
	return m
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func collapseDots(m string) string {
	for strings.Contains(m, "..") {
		m = strings.ReplaceAll(m, "..", ".")
	}
	return m
}

// Lookup resolves the Price for a raw model name, normalizing first and
// falling back to family prefixes (e.g. "claude-sonnet-4-5" -> "claude-sonnet")
// and finally to DefaultName. The returned bool reports whether the model
// matched a known entry (false means the default/fallback entry was used
// and an unknown-model condition should be surfaced).
func Lookup(model string) (Price, bool) {
	norm := Normalize(model)

	if p, ok := Table[norm]; ok {
		return p, true
	}
	for _, prefix := range claudeFamilyPrefixes {
		if strings.HasPrefix(norm, prefix) {
			return Table[prefix], true
		}
	}

	noteUnknownModel(norm)
	return Table[DefaultName], false
}

func noteUnknownModel(norm string) {
	unknownModelsMu.Lock()
	defer unknownModelsMu.Unlock()
	unknownModelsSeen[norm] = struct{}{}
}

// UnknownModelsSeen returns the set of distinct normalized model names that
// have fallen back to the default price table, for the "logged once per
// unique model" diagnostic.
func UnknownModelsSeen() []string {
	unknownModelsMu.Lock()
	defer unknownModelsMu.Unlock()
	out := make([]string, 0, len(unknownModelsSeen))
	for m := range unknownModelsSeen {
		out = append(out, m)
	}
	return out
}

// Cost computes the USD cost of tok at price p via the dot-product
// formula: cost = (input*p_in + output*p_out + cc*p_cc + cr*p_cr) / 1e6.
func Cost(tok usage.TokenUsage, p Price) float64 {
	return (float64(tok.Input)*p.Input +
		float64(tok.Output)*p.Output +
		float64(tok.CacheCreation)*p.CacheCreation +
		float64(tok.CacheRead)*p.CacheRead) / 1e6
}

// CacheSavings computes the counterfactual savings from cache reads: what
// they would have cost at the input rate, minus what they actually cost.
func CacheSavings(tok usage.TokenUsage, p Price) float64 {
	return float64(tok.CacheRead) * (p.Input - p.CacheRead) / 1e6
}
