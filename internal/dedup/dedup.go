// Package dedup implements the per-provider bounded deduplication filter
// that sits between ingestion and aggregation.
package dedup

import (
	"sync"

	"github.com/riftlabs/tokenpulse/internal/usage"
)

// MaxEntries bounds the number of keys retained per provider. Once exceeded,
// the oldest half is evicted to make room for new arrivals.
const MaxEntries = 100_000

type entry struct {
	key [2]string
	seq uint64
}

// Filter deduplicates Records by (message_id, request_id), scoped per
// provider. Records where both fields are empty are always accepted -
// there is no key to collide on.
type Filter struct {
	mu       sync.Mutex
	seen     map[usage.Provider]map[[2]string]uint64
	order    map[usage.Provider][]entry
	nextSeq  uint64
}

// New returns an empty Filter.
func New() *Filter {
	return &Filter{
		seen:  make(map[usage.Provider]map[[2]string]uint64),
		order: make(map[usage.Provider][]entry),
	}
}

// Admit reports whether r is new (not a duplicate) and, if so, records its
// key. Records with an empty dedup key are always admitted.
func (f *Filter) Admit(r usage.Record) bool {
	key, empty := r.DedupKey()
	if empty {
		return true
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	provSeen, ok := f.seen[r.Provider]
	if !ok {
		provSeen = make(map[[2]string]uint64)
		f.seen[r.Provider] = provSeen
	}
	if _, dup := provSeen[key]; dup {
		return false
	}

	f.nextSeq++
	seq := f.nextSeq
	provSeen[key] = seq
	f.order[r.Provider] = append(f.order[r.Provider], entry{key: key, seq: seq})

	f.evictIfFull(r.Provider)
	return true
}

// evictIfFull drops the oldest half of the provider's entries once the
// bound is exceeded, keeping the filter's memory footprint flat under
// sustained load rather than growing unbounded.
func (f *Filter) evictIfFull(p usage.Provider) {
	order := f.order[p]
	if len(order) <= MaxEntries {
		return
	}
	cut := len(order) / 2
	provSeen := f.seen[p]
	for _, e := range order[:cut] {
		delete(provSeen, e.key)
	}
	remaining := make([]entry, len(order)-cut)
	copy(remaining, order[cut:])
	f.order[p] = remaining
}

// Size returns the number of retained keys for p, for diagnostics.
func (f *Filter) Size(p usage.Provider) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen[p])
}
