package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/riftlabs/tokenpulse/internal/config"
	"github.com/riftlabs/tokenpulse/internal/ingest"
	"github.com/riftlabs/tokenpulse/internal/usage"
)

// fakeSource is a scripted ingest.Source for driver tests: each call to
// PullNewRecords returns (and consumes) the next queued result.
type fakeSource struct {
	provider usage.Provider

	mu      sync.Mutex
	results []ingest.PullResult
	healthy bool
}

func newFakeSource(p usage.Provider, batches ...[]usage.Record) *fakeSource {
	results := make([]ingest.PullResult, len(batches))
	for i, b := range batches {
		results[i] = ingest.PullResult{Records: b}
	}
	return &fakeSource{provider: p, results: results, healthy: true}
}

func newFakeSourceWithResults(p usage.Provider, results ...ingest.PullResult) *fakeSource {
	return &fakeSource{provider: p, results: results, healthy: true}
}

func (f *fakeSource) Provider() usage.Provider { return f.provider }

func (f *fakeSource) PullNewRecords(ctx context.Context, since time.Time) (ingest.PullResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.results) == 0 {
		return ingest.PullResult{}, nil
	}
	next := f.results[0]
	f.results = f.results[1:]
	return next, nil
}

func (f *fakeSource) Healthy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.healthy
}

func recAt(ts string, input int64, cost float64) usage.Record {
	t, _ := time.Parse(time.RFC3339, ts)
	return usage.Record{
		Timestamp: t,
		Model:     "claude-sonnet",
		Tokens:    usage.TokenUsage{Input: input},
		Cost:      cost,
		Provider:  usage.Claude,
	}
}

func TestTickOnceAssemblesClaudeAndCodexSlots(t *testing.T) {
	sources := map[usage.Provider]ingest.Source{
		// A recent timestamp: blocks older than the analysis window are pruned.
		usage.Claude: newFakeSource(usage.Claude, []usage.Record{recAt(time.Now().UTC().Add(-time.Minute).Format(time.RFC3339), 100, 1.0)}),
		usage.Codex:  newFakeSource(usage.Codex, nil),
	}
	plans := map[usage.Provider]config.PlanLimits{
		usage.Claude: config.PlanPro,
		usage.Codex:  config.PlanPro,
	}
	d := NewDriver(10*time.Second, 0, sources, plans)

	snap := d.TickOnce(context.Background())
	if snap.Claude == nil {
		t.Fatal("Claude slot should be populated")
	}
	if snap.Codex == nil {
		t.Fatal("Codex slot should be populated even with zero records")
	}
	if snap.Claude.WindowTotal.TotalTokens != 100 {
		t.Errorf("Claude WindowTotal.TotalTokens = %d, want 100", snap.Claude.WindowTotal.TotalTokens)
	}
}

func TestTickOnceDedupesAcrossTicks(t *testing.T) {
	shared := usage.Record{
		Timestamp: time.Now().UTC().Add(-time.Minute).Truncate(time.Second),
		Model:     "claude-sonnet",
		Tokens:    usage.TokenUsage{Input: 50},
		Cost:      0.5,
		Provider:  usage.Claude,
		MessageID: "m1",
		RequestID: "r1",
	}
	sources := map[usage.Provider]ingest.Source{
		usage.Claude: newFakeSource(usage.Claude, []usage.Record{shared}, []usage.Record{shared}),
	}
	plans := map[usage.Provider]config.PlanLimits{usage.Claude: config.PlanPro}
	d := NewDriver(10*time.Second, 0, sources, plans)

	d.TickOnce(context.Background())
	snap := d.TickOnce(context.Background())

	if snap.Claude.WindowTotal.TotalTokens != 50 {
		t.Errorf("WindowTotal.TotalTokens = %d, want 50 (the repeated record across ticks must be deduped)", snap.Claude.WindowTotal.TotalTokens)
	}
}

func TestTickOnceComputesP90ForCustomPlan(t *testing.T) {
	sources := map[usage.Provider]ingest.Source{
		usage.Claude: newFakeSource(usage.Claude, []usage.Record{recAt("2026-01-01T10:00:00Z", 1000, 1.0)}),
	}
	plans := map[usage.Provider]config.PlanLimits{
		usage.Claude: config.CustomPlan(0, 10, false),
	}
	d := NewDriver(10*time.Second, 0, sources, plans)

	snap := d.TickOnce(context.Background())
	if snap.Claude.P90Limit == nil {
		t.Fatal("P90Limit should be set for the custom plan")
	}
	if *snap.Claude.P90Limit < 44_000 {
		t.Errorf("P90Limit = %d, want at least the DefaultLimit floor of 44000", *snap.Claude.P90Limit)
	}
}

func TestTickOnceSkipsNonCustomPlanP90(t *testing.T) {
	sources := map[usage.Provider]ingest.Source{
		usage.Claude: newFakeSource(usage.Claude, []usage.Record{recAt("2026-01-01T10:00:00Z", 1000, 1.0)}),
	}
	plans := map[usage.Provider]config.PlanLimits{usage.Claude: config.PlanPro}
	d := NewDriver(10*time.Second, 0, sources, plans)

	snap := d.TickOnce(context.Background())
	if snap.Claude.P90Limit != nil {
		t.Error("P90Limit should be nil for a non-custom plan")
	}
}

func TestSnapshotIsSafeBeforeAnyTick(t *testing.T) {
	d := NewDriver(10*time.Second, 0, map[usage.Provider]ingest.Source{}, nil)
	snap := d.Snapshot()
	if snap == nil {
		t.Fatal("Snapshot() before any tick should return a non-nil zero value, not nil")
	}
	if snap.Codex != nil || snap.Claude != nil {
		t.Error("a fresh driver's snapshot should have no populated provider slots")
	}
}

func TestAppendRecentTrimsRecordsOutsideWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 10, 0, 0, time.UTC)
	recent := []usage.Record{recAt("2026-01-01T09:00:00Z", 1, 0)}
	fresh := []usage.Record{recAt("2026-01-01T10:05:00Z", 1, 0)}

	kept := appendRecent(recent, fresh, now, 10*time.Minute)
	if len(kept) != 1 {
		t.Fatalf("len(kept) = %d, want 1 (the stale 09:00 record should be trimmed)", len(kept))
	}
	if kept[0].Timestamp.Hour() != 10 {
		t.Errorf("surviving record has hour %d, want 10", kept[0].Timestamp.Hour())
	}
}

func TestTickProviderRecordsLimitEventsFromPullResult(t *testing.T) {
	sources := map[usage.Provider]ingest.Source{
		usage.Claude: newFakeSourceWithResults(usage.Claude, ingest.PullResult{
			Records:     []usage.Record{recAt("2026-01-01T10:00:00Z", 100, 1.0)},
			LimitEvents: []ingest.LimitEvent{{Timestamp: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC), Message: "system"}},
		}),
	}
	plans := map[usage.Provider]config.PlanLimits{usage.Claude: config.PlanPro}
	d := NewDriver(10*time.Second, 0, sources, plans)

	d.TickOnce(context.Background())

	var claudeRuntime *providerRuntime
	for _, pr := range d.providers {
		if pr.source == usage.Claude {
			claudeRuntime = pr
		}
	}
	if claudeRuntime == nil {
		t.Fatal("expected a claude providerRuntime")
	}
	if len(claudeRuntime.agg.LimitEvents()) != 1 {
		t.Errorf("len(agg.LimitEvents()) = %d, want 1: the pulled LimitEvent should reach the aggregator's sidecar list", len(claudeRuntime.agg.LimitEvents()))
	}
}

func TestTickProviderPropagatesSkippedLinesToMonitorState(t *testing.T) {
	sources := map[usage.Provider]ingest.Source{
		usage.Claude: newFakeSourceWithResults(usage.Claude, ingest.PullResult{
			Records:      []usage.Record{recAt("2026-01-01T10:00:00Z", 100, 1.0)},
			SkippedLines: 3,
			ParseErrors:  []ingest.ParseError{{Path: "chat.jsonl", Line: 2, Err: context.DeadlineExceeded}},
		}),
	}
	plans := map[usage.Provider]config.PlanLimits{usage.Claude: config.PlanPro}
	d := NewDriver(10*time.Second, 0, sources, plans)

	snap := d.TickOnce(context.Background())
	if snap.Claude.SkippedLinesLastTick != 3 {
		t.Errorf("SkippedLinesLastTick = %d, want 3", snap.Claude.SkippedLinesLastTick)
	}
}

func TestDailyCronSpecUsesResetHour(t *testing.T) {
	if got, want := dailyCronSpec(7), "0 7 * * *"; got != want {
		t.Errorf("dailyCronSpec(7) = %q, want %q", got, want)
	}
}
