package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/riftlabs/tokenpulse/internal/usage"
)

// ClaudeSource tails every *.jsonl file under a Claude projects directory,
// resolved by precedence: CLAUDE_CONFIG_DIR > $HOME/.config/claude/projects
// > $HOME/.claude/projects.
type ClaudeSource struct {
	root   string
	tailer *tailer

	watcher *watcher

	mu      sync.Mutex
	healthy bool
	lastErr error
}

// ClaudeRoot resolves the projects directory by the precedence rule
// above.
func ClaudeRoot() (string, error) {
	if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "projects"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home dir: %w", err)
	}
	if info, err := os.Stat(filepath.Join(home, ".config", "claude", "projects")); err == nil && info.IsDir() {
		return filepath.Join(home, ".config", "claude", "projects"), nil
	}
	return filepath.Join(home, ".claude", "projects"), nil
}

// NewClaudeSource constructs a source rooted at root, starting an fsnotify
// watch as a latency optimization (never a correctness dependency - the
// driver's tick-poll remains authoritative).
func NewClaudeSource(root string) *ClaudeSource {
	s := &ClaudeSource{
		root:    root,
		tailer:  newTailer(),
		healthy: true,
	}
	s.watcher = newWatcher(root)
	return s
}

func (s *ClaudeSource) Provider() usage.Provider { return usage.Claude }

func (s *ClaudeSource) Healthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthy
}

// PullNewRecords walks the project tree for *.jsonl files and tails each
// one for lines appended since the last pull. since is accepted for
// interface symmetry but the authoritative cursor is the per-file tail
// state, not since - re-pulling the same window twice is safe because
// dedup absorbs the repeat.
func (s *ClaudeSource) PullNewRecords(ctx context.Context, since time.Time) (PullResult, error) {
	files, err := s.discover()
	if err != nil {
		s.setUnhealthy(err)
		return PullResult{}, &SourceError{Provider: usage.Claude, Op: "discover", Err: err}
	}
	s.setHealthy()

	var result PullResult
	for _, path := range files {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		lines, err := s.tailer.readNewLines(path)
		if err != nil {
			continue // transient per-file error; retried next tick
		}
		for i, line := range lines {
			rec, limitEvt, ok, err := parseLine(usage.Claude, line, false)
			if err != nil {
				result.SkippedLines++
				result.ParseErrors = append(result.ParseErrors, ParseError{Path: path, Line: i + 1, Err: err})
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
	}
	return result, nil
}

// discover enumerates *.jsonl files under root. Project/session
// bookkeeping lives with the aggregator, not the source.
func (s *ClaudeSource) discover() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".jsonl") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", s.root, err)
	}
	return files, nil
}

func (s *ClaudeSource) setHealthy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = true
	s.lastErr = nil
}

func (s *ClaudeSource) setUnhealthy(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = false
	s.lastErr = err
}

// WakeupChan exposes the fsnotify-driven wakeup signal so the driver can
// poll sooner than the next scheduled tick when the watcher fires.
func (s *ClaudeSource) WakeupChan() <-chan struct{} {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.C
}

// Close releases the fsnotify watch.
func (s *ClaudeSource) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}

// CursorSnapshot returns the current per-file tail cursors, for
// persisting to internal/store between runs.
func (s *ClaudeSource) CursorSnapshot() map[string]TailCursor {
	return s.tailer.Snapshot()
}

// RestoreCursors seeds this source's tailer from a prior snapshot loaded
// from internal/store, keyed by file path.
func (s *ClaudeSource) RestoreCursors(cursors map[string]TailCursor) {
	s.tailer.Restore(cursors)
}
