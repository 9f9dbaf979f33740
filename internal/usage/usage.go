// Package usage defines the normalized per-call record model shared by all
// ingestion sources and every downstream analytics component.
package usage

import (
	"fmt"
	"time"
)

// Provider identifies which upstream API vendor a Record came from.
type Provider string

// Recognized providers.
const (
	Codex  Provider = "codex"
	Claude Provider = "claude"
)

// String implements fmt.Stringer.
func (p Provider) String() string { return string(p) }

// Valid reports whether p is one of the recognized providers.
func (p Provider) Valid() bool {
	return p == Codex || p == Claude
}

// TokenUsage is an immutable four-tuple of non-negative token counts.
type TokenUsage struct {
	Input          int64
	Output         int64
	CacheCreation  int64
	CacheRead      int64
}

// Total returns input + output + cache_creation + cache_read.
func (t TokenUsage) Total() int64 {
	return t.Input + t.Output + t.CacheCreation + t.CacheRead
}

// Add returns the element-wise sum of t and o.
func (t TokenUsage) Add(o TokenUsage) TokenUsage {
	return TokenUsage{
		Input:         t.Input + o.Input,
		Output:        t.Output + o.Output,
		CacheCreation: t.CacheCreation + o.CacheCreation,
		CacheRead:     t.CacheRead + o.CacheRead,
	}
}

// Negative reports whether any component of t is negative.
func (t TokenUsage) Negative() bool {
	return t.Input < 0 || t.Output < 0 || t.CacheCreation < 0 || t.CacheRead < 0
}

// Record is a normalized, immutable per-call usage event.
type Record struct {
	Timestamp time.Time
	Model     string
	Tokens    TokenUsage
	Cost      float64
	MessageID string
	RequestID string
	Provider  Provider

	// SourceOffset is tailing-state diagnostics only: the file inode and
	// byte offset at which this record was read. Not part of the dedup key
	// and not used by any invariant.
	SourceOffset FileOffset
}

// FileOffset identifies where within a tailed file a Record was read from.
type FileOffset struct {
	Path   string
	Inode  uint64
	Offset int64
}

// DedupKey returns the (message_id, request_id) pair used for deduplication,
// plus whether both fields are empty (in which case the record is always
// accepted regardless of key collisions).
func (r Record) DedupKey() (key [2]string, empty bool) {
	key = [2]string{r.MessageID, r.RequestID}
	return key, r.MessageID == "" && r.RequestID == ""
}

// InvalidRecordError is returned when a Record fails basic structural
// validation (negative token counts, unrecognized provider).
type InvalidRecordError struct {
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid record: %s", e.Reason)
}

// Validate checks the invariants a Record must satisfy before it may be
// admitted past the deduplication filter.
func (r Record) Validate() error {
	if r.Tokens.Negative() {
		return &InvalidRecordError{Reason: "negative token count"}
	}
	if !r.Provider.Valid() {
		return &InvalidRecordError{Reason: fmt.Sprintf("unknown provider %q", r.Provider)}
	}
	return nil
}
