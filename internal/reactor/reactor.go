// Package reactor applies external settings changes to the filter
// pipeline: reload the configuration, invalidate the classification
// cache, and run a full re-pass.
package reactor

import (
	"context"

	"github.com/abelbrown/sift/internal/bus"
	"github.com/abelbrown/sift/internal/logging"
	"github.com/abelbrown/sift/internal/pipeline"
)

// Reactor consumes settings-change notifications from the bus.
// Notifications are acknowledged on receipt (fire-and-acknowledge),
// then processed sequentially: two notifications racing a scan each
// clear the cache once, and the final state reflects the latest
// settings because the reloads happen in order.
type Reactor struct {
	pipe   *pipeline.Pipeline
	source pipeline.SettingsSource
	acked  chan struct{}
}

// New creates a Reactor over the given pipeline and settings source.
func New(pipe *pipeline.Pipeline, source pipeline.SettingsSource) *Reactor {
	return &Reactor{
		pipe:   pipe,
		source: source,
		acked:  make(chan struct{}, 16),
	}
}

// Acked exposes acknowledgement events: one per notification, sent
// before the (possibly slow) re-pass completes.
func (r *Reactor) Acked() <-chan struct{} {
	return r.acked
}

// Run consumes bus messages until the context is cancelled.
func (r *Reactor) Run(ctx context.Context, messages <-chan bus.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			r.handle(msg)
		}
	}
}

// Ping answers the liveness probe.
func (r *Reactor) Ping() string {
	if r.pipe.Ready() {
		return bus.StatusReady
	}
	return bus.StatusNotReady
}

func (r *Reactor) handle(msg bus.Message) {
	switch msg.Type {
	case bus.TypeSettingsUpdated:
		r.ack()
		r.applySettings()
	case bus.TypePing:
		r.ack()
		reply(msg, r.Ping())
	default:
		logging.Debug("reactor ignoring message", "type", msg.Type)
	}
}

// reply answers a message's reply channel without blocking.
func reply(msg bus.Message, status string) {
	if msg.Reply == nil {
		return
	}
	select {
	case msg.Reply <- status:
	default:
	}
}

// ack signals receipt without waiting for the re-pass.
func (r *Reactor) ack() {
	select {
	case r.acked <- struct{}{}:
	default:
	}
}

// applySettings reloads configuration, swaps it into the pipeline,
// clears the classification cache (wholesale; thresholds are not part
// of the cache key), and runs the full re-pass. A failed reload keeps
// the previous snapshot: stale filtering beats broken filtering.
func (r *Reactor) applySettings() {
	cfg, err := r.source.Load()
	if err != nil {
		logging.Error("settings reload failed", "error", err)
		return
	}

	r.pipe.SetSettings(cfg)
	r.pipe.Cache().InvalidateAll()
	r.pipe.FilterAll()
	logging.Info("settings applied", "generation", r.pipe.Generation())
}
