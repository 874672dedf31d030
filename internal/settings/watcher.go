package settings

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceDelay = 250 * time.Millisecond

// Watcher reloads the settings file when it changes on disk and pushes the
// resulting per-section change events through a dispatcher. Editors often
// write a file in several bursts, so reloads are debounced.
type Watcher struct {
	store      *Store
	dispatcher *Dispatcher
	logger     *slog.Logger
	current    Settings
	updates    chan Settings
}

// NewWatcher creates a watcher seeded with the current settings snapshot.
func NewWatcher(store *Store, dispatcher *Dispatcher, initial Settings, logger *slog.Logger) *Watcher {
	return &Watcher{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		current:    initial,
		updates:    make(chan Settings, 1),
	}
}

// Updates delivers the new snapshot after each successful reload. The
// channel holds one pending snapshot; a slow receiver only ever misses
// intermediate states, never the latest.
func (w *Watcher) Updates() <-chan Settings {
	return w.updates
}

// Run watches the settings file until the context is cancelled. Events are
// processed one at a time; a reload that fails is logged and the previous
// snapshot stays in effect.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	// Watch the directory rather than the file itself: editors that replace
	// the file on save would otherwise drop the watch.
	dir := filepath.Dir(w.store.Path())
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Info("Watching settings file.", "file", w.store.Path())

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.store.Path()) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceDelay)
				timerC = timer.C
			} else {
				timer.Reset(debounceDelay)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Settings watcher error", "error", err)

		case <-timerC:
			timer = nil
			timerC = nil
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	updated, err := w.store.Load()
	if err != nil {
		w.logger.Error("Failed to reload settings, keeping previous snapshot", "error", err)
		return
	}

	events := Diff(w.current, updated)
	w.current = updated

	changed := 0
	for _, ev := range events {
		if ev.HasChanges {
			changed++
		}
	}
	w.logger.Info("Settings file reloaded.", "changedSections", changed)
	w.dispatcher.DispatchAll(ctx, events)

	// Replace any pending snapshot with the newest one.
	select {
	case <-w.updates:
	default:
	}
	w.updates <- updated
}
