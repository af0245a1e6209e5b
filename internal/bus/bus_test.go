package bus

import (
	"testing"
	"time"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := New()
	a := b.Subscribe("a", 1)
	c := b.Subscribe("c", 1)

	b.NotifySettingsUpdated()

	for name, ch := range map[string]<-chan Message{"a": a, "c": c} {
		select {
		case msg := <-ch:
			if msg.Type != TypeSettingsUpdated {
				t.Errorf("%s got type %q, want settingsUpdated", name, msg.Type)
			}
			if msg.Timestamp.IsZero() {
				t.Errorf("%s got zero timestamp", name)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s never received the message", name)
		}
	}
}

func TestPublishSkipsFullSubscriber(t *testing.T) {
	b := New()
	full := b.Subscribe("full", 0) // nothing can ever be delivered
	ok := b.Subscribe("ok", 1)

	done := make(chan struct{})
	go func() {
		b.Publish(Message{Type: TypePing})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	select {
	case <-ok:
	default:
		t.Error("healthy subscriber missed delivery")
	}
	select {
	case <-full:
		t.Error("zero-buffer subscriber unexpectedly received")
	default:
	}
}
