// Package bus is the in-process change-notification transport.
//
// Producers publish fire-and-acknowledge messages; every subscriber
// gets its own buffered channel. Delivery is per-recipient best-effort:
// a subscriber that cannot keep up is logged and skipped without
// blocking delivery to the others.
package bus

import (
	"sync"
	"time"

	"github.com/abelbrown/sift/internal/logging"
)

// Message types.
const (
	TypeSettingsUpdated = "settingsUpdated"
	TypePing            = "ping"
)

// Message is one notification on the bus. Reply, when non-nil, carries
// a status answer back to the publisher; replies are best-effort and
// must never block the responder.
type Message struct {
	Type      string
	Timestamp time.Time
	Reply     chan string
}

// Status values for ping replies.
const (
	StatusReady    = "ready"
	StatusNotReady = "not-ready"
)

// subscriber pairs a delivery channel with a name for error reporting.
type subscriber struct {
	name string
	ch   chan Message
}

// Bus fans messages out to subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs []subscriber
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers a named recipient and returns its channel.
func (b *Bus) Subscribe(name string, buffer int) <-chan Message {
	ch := make(chan Message, buffer)
	b.mu.Lock()
	b.subs = append(b.subs, subscriber{name: name, ch: ch})
	b.mu.Unlock()
	return ch
}

// Publish delivers msg to every subscriber. A full subscriber buffer is
// a per-recipient failure: logged, and delivery continues to the rest.
func (b *Bus) Publish(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	b.mu.RLock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.ch <- msg:
		default:
			logging.Warn("bus delivery dropped", "recipient", sub.name, "type", msg.Type)
		}
	}
}

// NotifySettingsUpdated publishes a settings-changed notification.
func (b *Bus) NotifySettingsUpdated() {
	b.Publish(Message{Type: TypeSettingsUpdated})
}

// Ping publishes a liveness probe and waits for the first status reply,
// up to timeout. Returns false when nobody answered in time.
func (b *Bus) Ping(timeout time.Duration) (string, bool) {
	reply := make(chan string, 1)
	b.Publish(Message{Type: TypePing, Reply: reply})
	select {
	case status := <-reply:
		return status, true
	case <-time.After(timeout):
		return "", false
	}
}
