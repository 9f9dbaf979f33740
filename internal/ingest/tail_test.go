package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadNewLinesFirstPullReadsWholeFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "log.jsonl", "a\nb\nc\n")

	tl := newTailer()
	lines, err := tl.readNewLines(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	if string(lines[0]) != "a" || string(lines[2]) != "c" {
		t.Errorf("lines = %v, want [a b c]", lines)
	}
}

func TestReadNewLinesSecondPullOnlyReadsAppendedLines(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "log.jsonl", "a\nb\n")

	tl := newTailer()
	if _, err := tl.readNewLines(path); err != nil {
		t.Fatal(err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("c\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	lines, err := tl.readNewLines(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || string(lines[0]) != "c" {
		t.Errorf("second pull lines = %v, want [c]", lines)
	}
}

func TestReadNewLinesLeavesPartialTrailingLineForNextPull(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "log.jsonl", "a\nb\npart")

	tl := newTailer()
	lines, err := tl.readNewLines(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2 (partial trailing line withheld)", len(lines))
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("ial\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	lines, err = tl.readNewLines(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || string(lines[0]) != "partial" {
		t.Errorf("completed-line pull = %v, want [partial]", lines)
	}
}

func TestReadNewLinesTruncationResetsOffsetToZero(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "log.jsonl", "aaaa\nbbbb\n")

	tl := newTailer()
	if _, err := tl.readNewLines(path); err != nil {
		t.Fatal(err)
	}

	// Truncate and rewrite shorter content, simulating a log rotation in place.
	if err := os.WriteFile(path, []byte("x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	lines, err := tl.readNewLines(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || string(lines[0]) != "x" {
		t.Errorf("post-truncation lines = %v, want [x] (offset should reset to 0)", lines)
	}
}

func TestReadNewLinesSkipsEmptyLines(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "log.jsonl", "a\n\nb\n")

	tl := newTailer()
	lines, err := tl.readNewLines(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Errorf("len(lines) = %d, want 2 (blank line should be dropped)", len(lines))
	}
}

func TestSnapshotAndRestoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "log.jsonl", "a\nb\n")

	tl := newTailer()
	if _, err := tl.readNewLines(path); err != nil {
		t.Fatal(err)
	}

	snap := tl.Snapshot()
	if _, ok := snap[path]; !ok {
		t.Fatalf("Snapshot missing entry for %s", path)
	}

	restored := newTailer()
	restored.Restore(snap)

	// A pull against the restored tailer should see no new lines, since the
	// cursor was carried over at the same inode and length.
	lines, err := restored.readNewLines(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 0 {
		t.Errorf("post-restore pull = %v, want no new lines", lines)
	}
}

func TestForgetDropsTrackedState(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "log.jsonl", "a\n")

	tl := newTailer()
	if _, err := tl.readNewLines(path); err != nil {
		t.Fatal(err)
	}
	tl.forget(path)

	if _, ok := tl.Snapshot()[path]; ok {
		t.Error("forget should remove the path from the tracked state")
	}
}
