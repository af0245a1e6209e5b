// Package feed models the live, externally-mutated document of content
// items that the filter pipeline scans.
//
// The document grows out of band: fetchers append items while the
// pipeline is scanning. Two ownership domains never cross: host fields
// on Item are written only by producers, filter annotations (processed
// marker, hidden flag, labels) only by the pipeline. The document must
// never be assumed structurally stable between scans.
package feed

import (
	"sync"
	"time"
)

// annotation holds the pipeline-owned state for one item.
type annotation struct {
	processedGen int // 0 means unprocessed
	hidden       bool
	labels       []string
}

// ItemView is a consistent read snapshot of an item plus its
// annotations, as of the time of the call.
type ItemView struct {
	Item
	Hidden       bool
	Labels       []string
	ProcessedGen int
}

// Mutation describes a batch of document changes delivered to mutation
// subscribers.
type Mutation struct {
	Added int
	At    time.Time
}

// Document is the mutex-guarded, ordered collection of feed items.
// Safe for concurrent use by producers, the pipeline, and UI readers.
type Document struct {
	mu          sync.RWMutex
	order       []string
	items       map[string]*Item
	annotations map[string]*annotation
	subscribers []chan Mutation
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{
		items:       make(map[string]*Item),
		annotations: make(map[string]*annotation),
	}
}

// Subscribe registers a mutation listener. Delivery is non-blocking:
// if the subscriber's buffer is full the event is dropped, the next
// mutation will catch it up.
func (d *Document) Subscribe(buffer int) <-chan Mutation {
	ch := make(chan Mutation, buffer)
	d.mu.Lock()
	d.subscribers = append(d.subscribers, ch)
	d.mu.Unlock()
	return ch
}

// Append adds items to the end of the document, deduplicating by URL
// and by ID, and notifies mutation subscribers once for the batch.
// Items without an ID get one derived from their URL (or a UUID).
// Returns the number of items actually added.
func (d *Document) Append(items ...Item) int {
	d.mu.Lock()

	seenURL := make(map[string]bool, len(d.items))
	for _, it := range d.items {
		if it.URL != "" {
			seenURL[it.URL] = true
		}
	}

	added := 0
	for _, it := range items {
		if it.URL != "" && seenURL[it.URL] {
			continue
		}
		if it.ID == "" {
			it.ID = NewItemID(it.URL)
		}
		if _, dup := d.items[it.ID]; dup {
			continue
		}
		if it.Fetched.IsZero() {
			it.Fetched = time.Now()
		}
		copied := it
		d.items[it.ID] = &copied
		d.annotations[it.ID] = &annotation{}
		d.order = append(d.order, it.ID)
		if it.URL != "" {
			seenURL[it.URL] = true
		}
		added++
	}

	subs := make([]chan Mutation, len(d.subscribers))
	copy(subs, d.subscribers)
	d.mu.Unlock()

	if added > 0 {
		m := Mutation{Added: added, At: time.Now()}
		for _, ch := range subs {
			select {
			case ch <- m:
			default:
				// Subscriber is behind; it will catch up on the next batch.
			}
		}
	}
	return added
}

// SetTitle updates an item's title, as the host page does when a card
// finishes rendering. The processed marker is left alone; re-evaluation
// happens through the next generation, never through re-observation.
// Subscribers are notified so a pending scan can pick the item up.
func (d *Document) SetTitle(id, title string) {
	d.mu.Lock()
	it, ok := d.items[id]
	if ok {
		it.Title = title
	}
	subs := make([]chan Mutation, len(d.subscribers))
	copy(subs, d.subscribers)
	d.mu.Unlock()

	if !ok {
		return
	}
	m := Mutation{At: time.Now()}
	for _, ch := range subs {
		select {
		case ch <- m:
		default:
		}
	}
}

// Items returns all items in document order with their annotations.
func (d *Document) Items() []ItemView {
	d.mu.RLock()
	defer d.mu.RUnlock()

	views := make([]ItemView, 0, len(d.order))
	for _, id := range d.order {
		views = append(views, d.viewLocked(id))
	}
	return views
}

// Unprocessed returns, in document order, the items not yet marked
// processed in the given generation.
func (d *Document) Unprocessed(generation int) []ItemView {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var views []ItemView
	for _, id := range d.order {
		if d.annotations[id].processedGen < generation {
			views = append(views, d.viewLocked(id))
		}
	}
	return views
}

// Get returns a single item view.
func (d *Document) Get(id string) (ItemView, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if _, ok := d.items[id]; !ok {
		return ItemView{}, false
	}
	return d.viewLocked(id), true
}

// viewLocked builds an ItemView. Caller holds at least a read lock.
func (d *Document) viewLocked(id string) ItemView {
	ann := d.annotations[id]
	labels := make([]string, len(ann.labels))
	copy(labels, ann.labels)
	return ItemView{
		Item:         *d.items[id],
		Hidden:       ann.hidden,
		Labels:       labels,
		ProcessedGen: ann.processedGen,
	}
}

// MarkProcessed stamps the item with the generation it was processed in.
func (d *Document) MarkProcessed(id string, generation int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ann, ok := d.annotations[id]; ok {
		ann.processedGen = generation
	}
}

// SetHidden toggles the suppression state of an item.
func (d *Document) SetHidden(id string, hidden bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ann, ok := d.annotations[id]; ok {
		ann.hidden = hidden
	}
}

// AddLabel appends a badge label to an item.
func (d *Document) AddLabel(id, label string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ann, ok := d.annotations[id]; ok {
		ann.labels = append(ann.labels, label)
	}
}

// ResetAnnotations clears every processed marker, label, and hidden
// flag so a full re-pass re-evaluates every item from scratch.
func (d *Document) ResetAnnotations() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ann := range d.annotations {
		ann.processedGen = 0
		ann.hidden = false
		ann.labels = nil
	}
}

// Len returns the number of items in the document.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.order)
}

// HiddenCount returns the number of currently suppressed items.
func (d *Document) HiddenCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := 0
	for _, ann := range d.annotations {
		if ann.hidden {
			n++
		}
	}
	return n
}
