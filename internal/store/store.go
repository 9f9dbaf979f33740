// Package store persists per-file tailing cursors (inode + byte length)
// across daemon restarts, so a warm restart resumes near the end of each
// log instead of re-reading it from byte zero. It never persists the
// dedup set or session-block data - the dedup set must stay volatile, and
// session blocks are cheap to rebuild once tailing resumes near the tail.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS tail_cursors (
	path   TEXT PRIMARY KEY,
	inode  INTEGER NOT NULL,
	length INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Cursor is a single file's tailing position.
type Cursor struct {
	Path   string
	Inode  uint64
	Length int64
}

// Store wraps a SQLite-backed cursor cache.
type Store struct {
	db *sql.DB
}

// Open creates the cache directory if needed and opens (or creates) the
// SQLite database at path: WAL for concurrent readers, NORMAL sync
// since this data is a resumability hint, not a source of truth.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// LoadCursors returns every tracked file's cursor, for seeding a tailer's
// in-memory state on daemon startup.
func (s *Store) LoadCursors() (map[string]Cursor, error) {
	rows, err := s.db.Query(`SELECT path, inode, length FROM tail_cursors`)
	if err != nil {
		return nil, fmt.Errorf("loading cursors: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Cursor)
	for rows.Next() {
		var c Cursor
		if err := rows.Scan(&c.Path, &c.Inode, &c.Length); err != nil {
			return nil, fmt.Errorf("scanning cursor row: %w", err)
		}
		out[c.Path] = c
	}
	return out, rows.Err()
}

// SaveCursor upserts one file's cursor. The cmd package saves every
// tracked cursor this way when it closes the store at shutdown.
func (s *Store) SaveCursor(c Cursor, updatedAt int64) error {
	_, err := s.db.Exec(
		`INSERT INTO tail_cursors (path, inode, length, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET inode = excluded.inode, length = excluded.length, updated_at = excluded.updated_at`,
		c.Path, c.Inode, c.Length, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving cursor for %s: %w", c.Path, err)
	}
	return nil
}

// DeleteCursor removes tracking for a path no longer present on disk.
func (s *Store) DeleteCursor(path string) error {
	_, err := s.db.Exec(`DELETE FROM tail_cursors WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("deleting cursor for %s: %w", path, err)
	}
	return nil
}

// CachePath returns the default cache db location under XDG_CACHE_HOME.
func CachePath(cacheDir string) string {
	return filepath.Join(cacheDir, "tail_cursors.db")
}
