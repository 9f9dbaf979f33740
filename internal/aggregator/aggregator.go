// Package aggregator folds deduplicated Records into per-provider
// SessionBlock series and projects UsageStats windows over them.
package aggregator

import (
	"sort"
	"time"

	"github.com/riftlabs/tokenpulse/internal/pricing"
	"github.com/riftlabs/tokenpulse/internal/telemetry"
	"github.com/riftlabs/tokenpulse/internal/usage"
)

// BlockDuration returns the session-block length for a provider: five hours
// for Claude's rolling window, twenty-four hours for Codex.
func BlockDuration(p usage.Provider) time.Duration {
	if p == usage.Codex {
		return 24 * time.Hour
	}
	return 5 * time.Hour
}

// DefaultAnalysisWindow is the default retention cutoff for SessionBlocks.
const DefaultAnalysisWindow = 192 * time.Hour

// ModelStats aggregates tokens and cost for one model within a block.
type ModelStats struct {
	Tokens usage.TokenUsage
	Cost   float64
}

// LimitEvent records a provider rate-limit system message observed while
// ingesting, attached to the block active at the time.
type LimitEvent struct {
	Timestamp time.Time
	Message   string
}

// SessionBlock is a rolling time window (5h Claude / 24h Codex) of Records,
// keyed by hour-floored start time. Blocks are a cover, not a partition:
// overlapping sessions can place a single Record in two blocks at once.
type SessionBlock struct {
	ID            string
	StartTime     time.Time
	EndTime       time.Time
	ActualEndTime time.Time
	IsGap         bool
	IsActive      bool
	Records       []usage.Record
	PerModel      map[string]*ModelStats
	TotalTokens   int64
	TotalCost     float64
}

func newBlock(start time.Time, dur time.Duration) *SessionBlock {
	return &SessionBlock{
		ID:        start.UTC().Format(time.RFC3339),
		StartTime: start,
		EndTime:   start.Add(dur),
		PerModel:  make(map[string]*ModelStats),
	}
}

func newGapBlock(start, end time.Time) *SessionBlock {
	return &SessionBlock{
		ID:        start.UTC().Format(time.RFC3339),
		StartTime: start,
		EndTime:   end,
		IsGap:     true,
		PerModel:  make(map[string]*ModelStats),
	}
}

func (b *SessionBlock) admit(r usage.Record) {
	b.Records = append(b.Records, r)
	if b.ActualEndTime.Before(r.Timestamp) {
		b.ActualEndTime = r.Timestamp
	}
	ms, ok := b.PerModel[r.Model]
	if !ok {
		ms = &ModelStats{}
		b.PerModel[r.Model] = ms
	}
	ms.Tokens = ms.Tokens.Add(r.Tokens)
	ms.Cost += r.Cost
	b.TotalTokens += r.Tokens.Total()
	b.TotalCost += r.Cost
}

func floorToHour(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

// Aggregator owns the rolling block list and limit-event sidecar for one
// provider.
type Aggregator struct {
	Provider       usage.Provider
	AnalysisWindow time.Duration

	blocks []*SessionBlock
	limits []LimitEvent
}

// New returns an empty Aggregator for provider p.
func New(p usage.Provider) *Aggregator {
	return &Aggregator{
		Provider:       p,
		AnalysisWindow: DefaultAnalysisWindow,
	}
}

// Admit folds r into every existing block whose window contains its
// timestamp, opening a new hour-floored block if none matched. It does
// not re-run gap insertion; call Reconcile after a batch.
func (a *Aggregator) Admit(r usage.Record) {
	dur := BlockDuration(a.Provider)
	matched := false
	for _, b := range a.blocks {
		if b.IsGap {
			continue
		}
		if !b.StartTime.After(r.Timestamp) && r.Timestamp.Before(b.EndTime) {
			b.admit(r)
			matched = true
		}
	}
	if matched {
		return
	}

	start := floorToHour(r.Timestamp)
	nb := newBlock(start, dur)
	nb.admit(r)
	a.insertSorted(nb)
}

func (a *Aggregator) insertSorted(nb *SessionBlock) {
	i := sort.Search(len(a.blocks), func(i int) bool {
		return a.blocks[i].StartTime.After(nb.StartTime)
	})
	a.blocks = append(a.blocks, nil)
	copy(a.blocks[i+1:], a.blocks[i:])
	a.blocks[i] = nb
}

// Reconcile inserts synthetic gap blocks between non-gap blocks separated
// by more than one block duration, recomputes the active flag, and prunes
// blocks older than the analysis window. Call once per tick after a batch
// of Admit calls.
func (a *Aggregator) Reconcile(now time.Time) {
	a.insertGaps()
	a.updateActiveFlags(now)
	a.prune(now)
}

func (a *Aggregator) insertGaps() {
	dur := BlockDuration(a.Provider)
	var nonGap []*SessionBlock
	for _, b := range a.blocks {
		if !b.IsGap {
			nonGap = append(nonGap, b)
		}
	}
	if len(nonGap) < 2 {
		return
	}

	var gaps []*SessionBlock
	for i := 0; i+1 < len(nonGap); i++ {
		earlier, later := nonGap[i], nonGap[i+1]
		if later.StartTime.Sub(earlier.EndTime) > dur {
			gaps = append(gaps, newGapBlock(earlier.EndTime, later.StartTime))
		}
	}
	for _, g := range gaps {
		a.insertSorted(g)
	}
}

func (a *Aggregator) updateActiveFlags(now time.Time) {
	var lastNonGapIdx = -1
	for i, b := range a.blocks {
		b.IsActive = false
		if !b.IsGap {
			lastNonGapIdx = i
		}
	}
	if lastNonGapIdx < 0 {
		return
	}
	last := a.blocks[lastNonGapIdx]
	if now.Before(last.EndTime) && len(last.Records) > 0 {
		last.IsActive = true
	}
}

func (a *Aggregator) prune(now time.Time) {
	cutoff := now.Add(-a.AnalysisWindow)
	kept := a.blocks[:0]
	for _, b := range a.blocks {
		if b.EndTime.Before(cutoff) {
			continue
		}
		kept = append(kept, b)
	}
	a.blocks = kept
}

// RecordLimitEvent attaches a provider rate-limit system message to the
// sidecar list; it is not part of any SessionBlock.
func (a *Aggregator) RecordLimitEvent(t time.Time, msg string) {
	a.limits = append(a.limits, LimitEvent{Timestamp: t, Message: msg})
}

// LimitEvents returns the recorded limit-event sidecar list.
func (a *Aggregator) LimitEvents() []LimitEvent {
	return a.limits
}

// Blocks returns the current block list in chronological order. Callers
// must not mutate the returned slice or its elements.
func (a *Aggregator) Blocks() []*SessionBlock {
	return a.blocks
}

// CurrentBlock returns the most recent active, non-gap block, or nil.
func (a *Aggregator) CurrentBlock() *SessionBlock {
	for i := len(a.blocks) - 1; i >= 0; i-- {
		if a.blocks[i].IsActive {
			return a.blocks[i]
		}
	}
	return nil
}

// CompletedNonGapBlocks returns non-gap blocks that are not the active
// block, the input population for the P90 calculator.
func (a *Aggregator) CompletedNonGapBlocks() []*SessionBlock {
	var out []*SessionBlock
	for _, b := range a.blocks {
		if b.IsGap || b.IsActive {
			continue
		}
		out = append(out, b)
	}
	return out
}

// UsageStats is a derived, on-demand projection over a window of Records.
// It is never persisted; it is recomputed fresh each tick.
type UsageStats struct {
	Tokens        usage.TokenUsage
	Cost          float64
	CallCount     int64
	CacheHitRate  float64
	CacheSavings  float64
}

func statsFromRecords(records []usage.Record) UsageStats {
	var s UsageStats
	for _, r := range records {
		s.Tokens = s.Tokens.Add(r.Tokens)
		s.Cost += r.Cost
		s.CallCount++
		p, ok := pricing.Lookup(r.Model)
		if !ok {
			telemetry.LogUnknownModelOnce(r.Model)
		}
		s.CacheSavings += pricing.CacheSavings(r.Tokens, p)
	}
	denom := s.Tokens.Input + s.Tokens.CacheRead
	if denom > 0 {
		s.CacheHitRate = float64(s.Tokens.CacheRead) / float64(denom)
	}
	return s
}

// StatsSince projects UsageStats over all records with timestamp >= since.
// A record may appear in more than one overlapping block, so the combined
// list is deduplicated by identity before projecting.
func (a *Aggregator) StatsSince(since time.Time) UsageStats {
	var records []usage.Record
	for _, b := range a.blocks {
		for _, r := range b.Records {
			if r.Timestamp.Before(since) {
				continue
			}
			records = append(records, r)
		}
	}
	return statsFromRecords(dedupeByIdentity(records))
}

// dedupeByIdentity removes duplicate Records that were admitted into more
// than one overlapping SessionBlock, identified by (message_id, request_id,
// timestamp) when the ids are present, or by (timestamp, model) otherwise.
func dedupeByIdentity(records []usage.Record) []usage.Record {
	type key struct {
		a, b string
		t    int64
	}
	seen := make(map[key]bool, len(records))
	out := make([]usage.Record, 0, len(records))
	for _, r := range records {
		dk, empty := r.DedupKey()
		k := key{a: dk[0], b: dk[1], t: r.Timestamp.UnixNano()}
		if empty {
			k = key{a: r.Model, t: r.Timestamp.UnixNano()}
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

// WindowTotal projects UsageStats across every retained block (window-total).
func (a *Aggregator) WindowTotal() UsageStats {
	return a.StatsSince(time.Time{})
}

// CurrentBlockStats projects UsageStats over the current active block only.
func (a *Aggregator) CurrentBlockStats() UsageStats {
	b := a.CurrentBlock()
	if b == nil {
		return UsageStats{}
	}
	return statsFromRecords(b.Records)
}
