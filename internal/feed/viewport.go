package feed

import "sync"

// Viewport is the visibility-based scan trigger. The host tells it
// which item ids are currently on screen; when previously-unseen
// content comes into view it emits one event on its channel. Delivery
// is non-blocking and best-effort; a dropped event is recovered by the
// next scroll or mutation.
type Viewport struct {
	mu     sync.Mutex
	seen   map[string]bool
	events chan struct{}
}

// NewViewport creates a viewport trigger.
func NewViewport() *Viewport {
	return &Viewport{
		seen:   make(map[string]bool),
		events: make(chan struct{}, 1),
	}
}

// Events returns the channel that fires when new content scrolls in.
func (v *Viewport) Events() <-chan struct{} {
	return v.events
}

// SetVisible reports the set of item ids currently visible. Ids never
// reported before count as newly visible and trigger an event.
func (v *Viewport) SetVisible(ids []string) {
	v.mu.Lock()
	fresh := false
	for _, id := range ids {
		if !v.seen[id] {
			v.seen[id] = true
			fresh = true
		}
	}
	v.mu.Unlock()

	if !fresh {
		return
	}
	select {
	case v.events <- struct{}{}:
	default:
	}
}

// Reset forgets all seen ids, so the whole current view counts as new.
func (v *Viewport) Reset() {
	v.mu.Lock()
	v.seen = make(map[string]bool)
	v.mu.Unlock()
}
