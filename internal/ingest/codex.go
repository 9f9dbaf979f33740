package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/riftlabs/tokenpulse/internal/usage"
)

// CodexSource tails the single append-only usage log Codex writes.
// Cache fields are always zero for this provider.
type CodexSource struct {
	path   string
	tailer *tailer

	watcher *watcher

	mu      sync.Mutex
	healthy bool
}

// CodexLogPath returns the fixed storage path for the Codex usage log.
func CodexLogPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home dir: %w", err)
	}
	return filepath.Join(home, ".genai-code-usage-monitor", "usage_log.jsonl"), nil
}

// NewCodexSource constructs a source tailing the single file at path.
func NewCodexSource(path string) *CodexSource {
	s := &CodexSource{
		path:    path,
		tailer:  newTailer(),
		healthy: true,
	}
	s.watcher = newWatcher(filepath.Dir(path))
	return s
}

func (s *CodexSource) Provider() usage.Provider { return usage.Codex }

func (s *CodexSource) Healthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthy
}

// PullNewRecords tails the single Codex log file for newly appended lines.
func (s *CodexSource) PullNewRecords(ctx context.Context, since time.Time) (PullResult, error) {
	if _, err := os.Stat(s.path); err != nil {
		s.setHealthy(false)
		if os.IsNotExist(err) {
			// Nothing written yet is not unrecoverable - the monitored
			// application simply hasn't started. Stay healthy, report no
			// records.
			s.setHealthy(true)
			return PullResult{}, nil
		}
		return PullResult{}, &SourceError{Provider: usage.Codex, Op: "stat", Err: err}
	}
	s.setHealthy(true)

	lines, err := s.tailer.readNewLines(s.path)
	if err != nil {
		return PullResult{}, &SourceError{Provider: usage.Codex, Op: "tail", Err: err}
	}

	var result PullResult
	for i, line := range lines {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}
		rec, limitEvt, ok, err := parseLine(usage.Codex, line, true)
		if err != nil {
			result.SkippedLines++
			result.ParseErrors = append(result.ParseErrors, ParseError{Path: s.path, Line: i + 1, Err: err})
			continue
		}
		if limitEvt != nil {
			result.LimitEvents = append(result.LimitEvents, *limitEvt)
			continue
		}
		if !ok {
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

func (s *CodexSource) setHealthy(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = v
}

// WakeupChan exposes the fsnotify-driven wakeup signal, as with ClaudeSource.
func (s *CodexSource) WakeupChan() <-chan struct{} {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.C
}

// Close releases the fsnotify watch.
func (s *CodexSource) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}

// CursorSnapshot returns the current tail cursor, for persisting to
// internal/store between runs.
func (s *CodexSource) CursorSnapshot() map[string]TailCursor {
	return s.tailer.Snapshot()
}

// RestoreCursors seeds this source's tailer from a prior snapshot loaded
// from internal/store.
func (s *CodexSource) RestoreCursors(cursors map[string]TailCursor) {
	s.tailer.Restore(cursors)
}
