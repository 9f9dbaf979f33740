// Package ingest implements the two provider log-tailing sources (Claude
// and Codex) that feed normalized Records into the dedup/aggregator
// pipeline.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/riftlabs/tokenpulse/internal/usage"
)

// Source is the capability every ingestion adapter exposes: an idempotent
// pull of records observed since a given instant, plus a liveness check.
// Idempotent across overlapping windows because dedup downstream tolerates
// repeats.
type Source interface {
	Provider() usage.Provider
	PullNewRecords(ctx context.Context, since time.Time) (PullResult, error)
	Healthy() bool
}

// CursorCapable is implemented by sources that can persist and restore
// their per-file tailing position across restarts. Both ClaudeSource and
// CodexSource implement it; the cmd package's cursor-store wiring treats
// absence of this interface as "nothing to persist for this provider."
type CursorCapable interface {
	CursorSnapshot() map[string]TailCursor
	RestoreCursors(map[string]TailCursor)
}

// SourceError reports an unrecoverable directory/permission/I-O problem
// for one source. It does not stop the driver; the affected provider's
// stats go stale while the other continues.
type SourceError struct {
	Provider usage.Provider
	Op       string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source error [%s] %s: %v", e.Provider, e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// ParseError reports a single malformed JSON-Lines record. Parse errors
// never stop ingestion; they are counted and the line is dropped.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error %s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LimitEvent is a provider rate-limit system message observed while
// tailing, surfaced to the aggregator's sidecar list.
type LimitEvent struct {
	Timestamp time.Time
	Message   string
}

// PullResult carries a Source's records plus tick-local diagnostics the
// driver folds into MonitorState (skipped_lines_last_tick etc).
type PullResult struct {
	Records      []usage.Record
	LimitEvents  []LimitEvent
	SkippedLines int
	ParseErrors  []ParseError
}
