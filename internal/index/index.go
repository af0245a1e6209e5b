// Package index memoizes classification results per fragment text.
//
// The cache keys on the fragment's concatenated text only, never on
// settings. The same text can classify differently once thresholds or
// enabled categories change, so the cache must be cleared wholesale on
// every settings change; partial invalidation is deliberately not
// offered.
package index

import (
	"sync"

	"github.com/abelbrown/sift/internal/classify"
)

// Index caches classification results by fragment key.
// Safe for concurrent use; the pipeline scans and the stats readers may
// touch it at the same time.
type Index struct {
	mu      sync.Mutex
	entries map[string][]classify.Classification
	epoch   int64
	hits    int64
	misses  int64
}

// New creates an empty Index.
func New() *Index {
	return &Index{
		entries: make(map[string][]classify.Classification),
	}
}

// GetOrCompute returns the cached classifications for key, computing and
// caching them via fn on a miss. A computed empty result is cached too:
// "classified to nothing" is a valid, memoizable outcome.
func (x *Index) GetOrCompute(key string, fn func() []classify.Classification) []classify.Classification {
	x.mu.Lock()
	if cached, ok := x.entries[key]; ok {
		x.hits++
		x.mu.Unlock()
		return cached
	}
	x.misses++
	epoch := x.epoch
	x.mu.Unlock()

	// Compute outside the lock; fn may be slow and recomputing a key
	// twice on a race is harmless.
	result := fn()
	if result == nil {
		result = []classify.Classification{}
	}

	x.mu.Lock()
	// A clear during the compute means the settings that produced this
	// result may no longer apply. Return it for the current scan but
	// keep it out of the cache.
	if x.epoch == epoch {
		x.entries[key] = result
	}
	x.mu.Unlock()
	return result
}

// InvalidateAll clears the whole cache. Called on every settings change;
// the cache key ignores settings, so nothing less than a full clear is
// sound.
func (x *Index) InvalidateAll() {
	x.mu.Lock()
	x.entries = make(map[string][]classify.Classification)
	x.epoch++
	x.mu.Unlock()
}

// Len returns the number of cached fragments.
func (x *Index) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.entries)
}

// Stats returns lifetime hit and miss counts.
func (x *Index) Stats() (hits, misses int64) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.hits, x.misses
}
