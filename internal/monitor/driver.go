package monitor

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/riftlabs/tokenpulse/internal/aggregator"
	"github.com/riftlabs/tokenpulse/internal/alerts"
	"github.com/riftlabs/tokenpulse/internal/burnrate"
	"github.com/riftlabs/tokenpulse/internal/config"
	"github.com/riftlabs/tokenpulse/internal/dedup"
	"github.com/riftlabs/tokenpulse/internal/ingest"
	"github.com/riftlabs/tokenpulse/internal/p90"
	"github.com/riftlabs/tokenpulse/internal/telemetry"
	"github.com/riftlabs/tokenpulse/internal/usage"
)

// providerRuntime bundles one provider's source and owned, exclusively
// driver-mutated state: the dedup set and aggregator are owned
// exclusively by the driver task; the UI never mutates them.
type providerRuntime struct {
	source usage.Provider
	src    ingest.Source
	dedup  *dedup.Filter
	agg    *aggregator.Aggregator
	plan   config.PlanLimits
	// recent holds the sliding window of accepted records used by the
	// burn-rate estimator; trimmed each tick to the estimator's window.
	recent []usage.Record
}

// Driver runs the single-writer tick loop and publishes MultiPlatformState
// by atomic pointer swap.
type Driver struct {
	tickPeriod time.Duration
	providers  []*providerRuntime

	current atomic.Pointer[MultiPlatformState]

	cron *cron.Cron

	dailyBucket atomic.Pointer[DailyBucket]
	resetHour   int

	tickInFlight atomic.Bool
}

// DailyBucket is the independent, cron-driven daily-rollup view keyed by
// --reset-hour, separate from the tick driver's windows.
type DailyBucket struct {
	BucketStart time.Time
	Codex       UsageStatsView
	Claude      UsageStatsView
}

// NewDriver builds a Driver over the given sources, one per provider,
// each paired with a starting plan.
func NewDriver(tickPeriod time.Duration, resetHour int, sources map[usage.Provider]ingest.Source, plans map[usage.Provider]config.PlanLimits) *Driver {
	d := &Driver{tickPeriod: tickPeriod, resetHour: resetHour}
	for p, src := range sources {
		d.providers = append(d.providers, &providerRuntime{
			source: p,
			src:    src,
			dedup:  dedup.New(),
			agg:    aggregator.New(p),
			plan:   plans[p],
		})
	}
	d.current.Store(&MultiPlatformState{})
	return d
}

// Snapshot returns the most recently published MultiPlatformState. Safe
// for concurrent, lock-free reads from the UI task.
func (d *Driver) Snapshot() *MultiPlatformState {
	return d.current.Load()
}

// Run executes the tick loop until ctx is cancelled. If a tick takes
// longer than tickPeriod, the next tick is skipped rather than piling up.
func (d *Driver) Run(ctx context.Context) error {
	d.startDailyBucketCron()
	defer d.stopDailyBucketCron()

	ticker := time.NewTicker(d.tickPeriod)
	defer ticker.Stop()

	wakeups := d.wakeupFanIn()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.runTickSkippingIfBusy(ctx)
		case <-wakeups:
			// fsnotify-driven early wakeup: just run a tick now: the
			// regular ticker continues unaffected, so this only ever
			// shortens latency, never changes the authoritative cadence.
			d.runTickSkippingIfBusy(ctx)
		}
	}
}

// TickOnce runs a single tick synchronously and returns the resulting
// snapshot, for one-shot callers (the `status` command) that don't want
// to start the periodic loop.
func (d *Driver) TickOnce(ctx context.Context) *MultiPlatformState {
	d.runTickSkippingIfBusy(ctx)
	return d.Snapshot()
}

// runTickSkippingIfBusy guards against overlapping ticks: if the previous
// tick is still running, this invocation is a no-op.
func (d *Driver) runTickSkippingIfBusy(ctx context.Context) {
	if !d.tickInFlight.CompareAndSwap(false, true) {
		log.Printf("monitor: tick still in flight, skipping this firing")
		return
	}
	defer d.tickInFlight.Store(false)

	start := time.Now()
	d.tick(ctx)
	telemetry.TickDuration.Observe(time.Since(start).Seconds())
}

// tick runs the full pull/dedup/aggregate/alert pipeline for every
// configured provider.
func (d *Driver) tick(ctx context.Context) {
	now := time.Now().UTC()
	next := &MultiPlatformState{LastUpdate: now}

	for _, pr := range d.providers {
		state := d.tickProvider(ctx, pr, now)
		switch pr.source {
		case usage.Codex:
			next.Codex = state
		case usage.Claude:
			next.Claude = state
		}
	}

	d.current.Store(next)
}

func (d *Driver) tickProvider(ctx context.Context, pr *providerRuntime, now time.Time) *MonitorState {
	// Step 1: pull, with a soft deadline of half the tick period.
	pullCtx, cancel := context.WithTimeout(ctx, d.tickPeriod/2)
	defer cancel()

	result, err := pr.src.PullNewRecords(pullCtx, now.Add(-d.tickPeriod))
	healthy := pr.src.Healthy()
	if err != nil {
		telemetry.LogThrottled(string(pr.source)+":pull", "monitor: %s pull error: %v", pr.source, err)
	}
	records := result.Records
	telemetry.RecordsIngested.WithLabelValues(string(pr.source)).Add(float64(len(records)))

	for _, evt := range result.LimitEvents {
		pr.agg.RecordLimitEvent(evt.Timestamp, evt.Message)
	}

	if len(result.ParseErrors) > 0 {
		telemetry.ParseErrors.WithLabelValues(string(pr.source)).Add(float64(len(result.ParseErrors)))
	}
	if total := len(records) + result.SkippedLines; total > 0 && float64(result.SkippedLines)/float64(total) > 0.10 {
		telemetry.LogThrottled(string(pr.source)+":drop-rate",
			"monitor: %s dropped %d/%d lines this tick (>10%% drop rate)", pr.source, result.SkippedLines, total)
	}

	// Step 2: dedup.
	var admitted []usage.Record
	for _, r := range records {
		if pr.dedup.Admit(r) {
			admitted = append(admitted, r)
		} else {
			telemetry.RecordsDeduped.WithLabelValues(string(pr.source)).Inc()
		}
	}

	// Step 3: admit to aggregator.
	for _, r := range admitted {
		pr.agg.Admit(r)
	}
	pr.recent = appendRecent(pr.recent, admitted, now, burnrate.DefaultWindow)

	// Step 4: prune.
	pr.agg.Reconcile(now)

	// Step 5: recompute P90 for custom plans.
	var p90Limit *int64
	var p90Result *p90.Result
	if pr.plan.Name == "custom" {
		res := p90.Calculate(pr.agg.CompletedNonGapBlocks())
		p90Result = &res
		limit := res.Limit
		p90Limit = &limit
		pr.plan.TokenLimit = limit
	}

	// Step 6: recompute burn rate.
	windowTotal := pr.agg.WindowTotal()
	rate := burnrate.Calculate(pr.recent, now, burnrate.DefaultWindow, windowTotal.Tokens.Total(), windowTotal.Cost, limitsFromPlan(pr.plan))

	// Step 7: evaluate alert engine.
	active := alerts.Evaluate(windowTotal, rate, alertLimitsFromPlan(pr.plan), now)
	for _, a := range active {
		telemetry.AlertsEmitted.WithLabelValues(string(a.Level)).Inc()
	}
	shouldReset, reason := alerts.ShouldResetSession(active)

	// Step 8: assemble MonitorState.
	return &MonitorState{
		Provider:             pr.source,
		Stats24h:             viewOf(pr.agg.StatsSince(now.Add(-24 * time.Hour))),
		Stats168h:            viewOf(pr.agg.StatsSince(now.Add(-168 * time.Hour))),
		Stats720h:            viewOf(pr.agg.StatsSince(now.Add(-720 * time.Hour))),
		CurrentBlock:         viewOf(pr.agg.CurrentBlockStats()),
		WindowTotal:          viewOf(windowTotal),
		BurnRate:             rate,
		P90Limit:             p90Limit,
		P90Result:            p90Result,
		ActiveAlerts:         active,
		PlanLimits:           pr.plan,
		SourceHealthy:        healthy,
		SkippedLinesLastTick: result.SkippedLines,
		ShouldReset:          shouldReset,
		ResetReason:          reason,
		HealthScore:          alerts.HealthScore(active),
		UpdatedAt:            now,
	}
}

func viewOf(s aggregator.UsageStats) UsageStatsView {
	return UsageStatsView{
		TotalTokens:  s.Tokens.Total(),
		TotalCost:    s.Cost,
		CallCount:    s.CallCount,
		CacheHitRate: s.CacheHitRate,
		CacheSavings: s.CacheSavings,
	}
}

func limitsFromPlan(p config.PlanLimits) burnrate.Limits {
	return burnrate.Limits{
		TokenLimit: p.TokenLimit,
		TokenUnset: p.TokenUnlimited,
		CostLimit:  p.CostLimit,
		CostUnset:  p.CostUnlimited,
	}
}

func alertLimitsFromPlan(p config.PlanLimits) alerts.Limits {
	return alerts.Limits{
		TokenLimit: p.TokenLimit,
		TokenUnset: p.TokenUnlimited,
		CostLimit:  p.CostLimit,
		CostUnset:  p.CostUnlimited,
	}
}

// appendRecent keeps only records within the burn-rate window, bounding
// memory use by the source's own emission rate rather than an arbitrary cap.
func appendRecent(recent []usage.Record, fresh []usage.Record, now time.Time, window time.Duration) []usage.Record {
	recent = append(recent, fresh...)
	cutoff := now.Add(-window)
	kept := recent[:0]
	for _, r := range recent {
		if !r.Timestamp.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	return kept
}

// wakeupFanIn merges every source's fsnotify wakeup channel (where
// available) into one channel the Run loop can select on alongside its
// ticker.
func (d *Driver) wakeupFanIn() <-chan struct{} {
	out := make(chan struct{}, 1)
	type waker interface {
		WakeupChan() <-chan struct{}
	}
	for _, pr := range d.providers {
		w, ok := pr.src.(waker)
		if !ok {
			continue
		}
		ch := w.WakeupChan()
		if ch == nil {
			continue
		}
		go func(ch <-chan struct{}) {
			for range ch {
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}(ch)
	}
	return out
}

// startDailyBucketCron schedules the daily rollover job at --reset-hour,
// independent of the tick driver.
func (d *Driver) startDailyBucketCron() {
	d.cron = cron.New(cron.WithLocation(time.UTC))
	_, err := d.cron.AddFunc(dailyCronSpec(d.resetHour), d.rollDailyBucket)
	if err != nil {
		log.Printf("monitor: failed to schedule daily bucket rollover: %v", err)
		return
	}
	d.cron.Start()
}

func (d *Driver) stopDailyBucketCron() {
	if d.cron != nil {
		d.cron.Stop()
	}
}

func dailyCronSpec(resetHour int) string {
	return fmt.Sprintf("0 %d * * *", resetHour)
}

func (d *Driver) rollDailyBucket() {
	snap := d.Snapshot()
	bucket := &DailyBucket{BucketStart: time.Now().UTC().Truncate(24 * time.Hour)}
	if snap.Codex != nil {
		bucket.Codex = snap.Codex.WindowTotal
	}
	if snap.Claude != nil {
		bucket.Claude = snap.Claude.WindowTotal
	}
	d.dailyBucket.Store(bucket)
}

// DailyBucketSnapshot returns the most recent cron-computed daily bucket.
func (d *Driver) DailyBucketSnapshot() *DailyBucket {
	return d.dailyBucket.Load()
}
