package cmd

import (
	"log"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/riftlabs/tokenpulse/internal/ingest"
	"github.com/riftlabs/tokenpulse/internal/store"
	"github.com/riftlabs/tokenpulse/internal/usage"
)

// cursorStoreCloser persists every tracked source's tail cursor on Close,
// then releases the underlying database handle. Implements closer so it
// slots into buildDriver's existing deferred-cleanup list.
type cursorStoreCloser struct {
	db      *store.Store
	sources map[usage.Provider]ingest.CursorCapable
}

func (c *cursorStoreCloser) Close() error {
	if c.db == nil {
		return nil
	}
	now := time.Now().Unix()
	for _, src := range c.sources {
		for path, tc := range src.CursorSnapshot() {
			_ = c.db.SaveCursor(store.Cursor{Path: path, Inode: tc.Inode, Length: tc.Length}, now)
		}
	}
	return c.db.Close()
}

// wireCursorStore opens the tailing-cursor cache and restores any
// persisted cursors into sources that support it, returning a closer
// that saves the current positions back on shutdown. Opening the cache
// is never fatal to the caller - a failure here just means a restart
// re-reads logs from byte zero, a correctness-neutral, latency-only cost.
func wireCursorStore(sources map[usage.Provider]ingest.Source) *cursorStoreCloser {
	capable := make(map[usage.Provider]ingest.CursorCapable)
	for p, src := range sources {
		if cc, ok := src.(ingest.CursorCapable); ok {
			capable[p] = cc
		}
	}
	if len(capable) == 0 {
		return &cursorStoreCloser{sources: capable}
	}

	dbFile, err := xdg.CacheFile("tokenpulse/tail_cursors.db")
	if err != nil {
		log.Printf("tokenpulse: cursor cache unavailable, starting cold: %v", err)
		return &cursorStoreCloser{sources: capable}
	}

	db, err := store.Open(store.CachePath(filepath.Dir(dbFile)))
	if err != nil {
		log.Printf("tokenpulse: opening cursor cache: %v", err)
		return &cursorStoreCloser{sources: capable}
	}

	cursors, err := db.LoadCursors()
	if err != nil {
		log.Printf("tokenpulse: loading cursors: %v", err)
		cursors = map[string]store.Cursor{}
	}
	byPath := make(map[string]ingest.TailCursor, len(cursors))
	for path, c := range cursors {
		byPath[path] = ingest.TailCursor{Inode: c.Inode, Length: c.Length}
	}
	for _, cc := range capable {
		cc.RestoreCursors(byPath)
	}

	return &cursorStoreCloser{db: db, sources: capable}
}
