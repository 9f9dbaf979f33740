package ingest

import (
	"log"

	"github.com/fsnotify/fsnotify"
)

// watcher wraps fsnotify to provide a best-effort wakeup signal between
// ticks. It is purely a latency optimization: if the watch fails to
// start, C is simply nil and the driver falls back to its regular
// tick-period poll with no loss of correctness.
type watcher struct {
	C      chan struct{}
	fsw    *fsnotify.Watcher
}

func newWatcher(root string) *watcher {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("ingest: fsnotify unavailable, falling back to tick-only polling: %v", err)
		return nil
	}
	if err := fsw.Add(root); err != nil {
		log.Printf("ingest: fsnotify watch on %s failed, falling back to tick-only polling: %v", root, err)
		fsw.Close()
		return nil
	}

	w := &watcher{C: make(chan struct{}, 1), fsw: fsw}
	go w.loop()
	return w
}

func (w *watcher) loop() {
	for {
		select {
		case _, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			select {
			case w.C <- struct{}{}:
			default:
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("ingest: fsnotify error: %v", err)
		}
	}
}

func (w *watcher) Close() error {
	if w == nil || w.fsw == nil {
		return nil
	}
	return w.fsw.Close()
}
