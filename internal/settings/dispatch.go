package settings

import (
	"context"
	"log/slog"
	"slices"
)

// ChangeEvent describes a change to one settings section.
type ChangeEvent struct {
	Section    string
	Old        any
	New        any
	HasChanges bool
}

// ChangeHandler reacts to changes in the settings sections it watches.
type ChangeHandler interface {
	// Name identifies the handler in logs.
	Name() string

	// WatchedSections returns the section names this handler cares about.
	WatchedSections() []string

	// OnChange processes a change event for a watched section.
	OnChange(ctx context.Context, ev ChangeEvent) error
}

// Dispatcher delivers settings change events to registered handlers. A
// handler runs only when the event carries real changes and its section is
// watched. Handler errors and panics are contained at the dispatch boundary:
// they are logged and never propagate, so one misbehaving handler cannot
// block delivery to the others.
type Dispatcher struct {
	logger   *slog.Logger
	handlers []ChangeHandler
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// Register adds a handler. Handlers run in registration order.
func (d *Dispatcher) Register(h ChangeHandler) {
	d.handlers = append(d.handlers, h)
}

// Dispatch delivers one event to every handler watching its section.
// Events with HasChanges false are dropped without invoking any handler.
func (d *Dispatcher) Dispatch(ctx context.Context, ev ChangeEvent) {
	if !ev.HasChanges {
		return
	}
	for _, h := range d.handlers {
		if !slices.Contains(h.WatchedSections(), ev.Section) {
			continue
		}
		d.invoke(ctx, h, ev)
	}
}

// DispatchAll delivers a batch of events, typically the output of Diff.
func (d *Dispatcher) DispatchAll(ctx context.Context, events []ChangeEvent) {
	for _, ev := range events {
		d.Dispatch(ctx, ev)
	}
}

func (d *Dispatcher) invoke(ctx context.Context, h ChangeHandler, ev ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Settings handler panicked", "handler", h.Name(), "section", ev.Section, "panic", r)
		}
	}()
	if err := h.OnChange(ctx, ev); err != nil {
		d.logger.Error("Settings handler failed", "handler", h.Name(), "section", ev.Section, "error", err)
	}
}
