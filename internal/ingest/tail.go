package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
)

// tailState remembers how far into a file we've already read, keyed by
// inode so rotation (new inode) and truncation (shrunk length) are both
// detected without relying on mtime.
type tailState struct {
	Inode  uint64
	Length int64
}

// TailCursor is the exported shape of a tailState, used at package
// boundaries (internal/store) that cannot name the unexported type.
type TailCursor struct {
	Inode  uint64
	Length int64
}

// tailer tracks per-path read offsets across pulls for one source.
type tailer struct {
	mu    sync.Mutex
	state map[string]tailState
}

func newTailer() *tailer {
	return &tailer{state: make(map[string]tailState)}
}

// readNewLines opens path, seeks to the last recorded offset (resetting to
// 0 on rotation/truncation), returns any complete new lines, and records the
// updated tail state in t. Partial trailing lines (file still being written)
// are left unread for the next pull.
func (t *tailer) readNewLines(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	inode := inodeOf(info)
	size := info.Size()

	t.mu.Lock()
	prev, known := t.state[path]
	t.mu.Unlock()

	offset := int64(0)
	if known && prev.Inode == inode && size >= prev.Length {
		offset = prev.Length
	}

	if offset >= size {
		t.setState(path, inode, size)
		return nil, nil
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking %s: %w", path, err)
	}

	var lines [][]byte
	reader := bufio.NewReaderSize(f, 256*1024)
	consumed := offset
	for {
		line, _ := reader.ReadBytes('\n')
		if len(line) > 0 && line[len(line)-1] == '\n' {
			consumed += int64(len(line))
			trimmed := line[:len(line)-1]
			if len(trimmed) > 0 {
				lines = append(lines, trimmed)
			}
			continue
		}
		// Partial trailing line (or EOF mid-line): stop here, leave it for
		// the next pull once the writer finishes it.
		break
	}

	t.setState(path, inode, consumed)
	return lines, nil
}

func (t *tailer) setState(path string, inode uint64, length int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state[path] = tailState{Inode: inode, Length: length}
}

// forget drops tracked state for a path no longer present (rotated away
// and replaced, or deleted).
func (t *tailer) forget(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.state, path)
}

// Snapshot returns a copy of every tracked (path -> inode, length) pair,
// for persisting cursors to internal/store between runs.
func (t *tailer) Snapshot() map[string]TailCursor {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]TailCursor, len(t.state))
	for k, v := range t.state {
		out[k] = TailCursor{Inode: v.Inode, Length: v.Length}
	}
	return out
}

// Restore seeds the tailer's in-memory cursors from a prior snapshot,
// e.g. loaded from internal/store on daemon startup.
func (t *tailer) Restore(cursors map[string]TailCursor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, v := range cursors {
		t.state[k] = tailState{Inode: v.Inode, Length: v.Length}
	}
}
