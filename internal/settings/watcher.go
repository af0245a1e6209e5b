package settings

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/abelbrown/sift/internal/bus"
	"github.com/abelbrown/sift/internal/logging"
)

// watchDebounce coalesces bursts of filesystem events (editors often
// produce several writes per save) into one notification.
const watchDebounce = 200 * time.Millisecond

// Watcher turns filesystem changes to the settings file into
// settingsUpdated notifications on the bus.
//
// The parent directory is watched rather than the file itself, because
// atomic saves replace the file by rename and would otherwise detach
// the watch.
type Watcher struct {
	path    string
	bus     *bus.Bus
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher for the given settings file.
func NewWatcher(path string, b *bus.Bus) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch settings directory: %w", err)
	}
	return &Watcher{path: path, bus: b, watcher: fw}, nil
}

// Run processes filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			logging.Debug("settings file changed", "path", w.path)
			w.bus.NotifySettingsUpdated()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("settings watcher error", "error", err)
		}
	}
}
