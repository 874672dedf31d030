// Package integrations defines the process-wide registry of task
// integrations. Each integration registers a Config describing how to build
// its service and when it is enabled; the sync engine consults the registry
// rather than knowing any integration directly.
package integrations

import (
	"context"
	"log/slog"
	"sync"

	"tasksync/internal/models"
	"tasksync/internal/settings"
)

// Service is implemented by every integration client. FetchTasks pulls the
// integration's current records converted to tasks; symbols in the returned
// tasks use the canonical set (" ", "/", "x", "-") and are remapped to the
// user's configured symbols by the sync engine.
type Service interface {
	// Key returns the integration's registry key.
	Key() string

	// FetchTasks pulls the integration's records as tasks.
	FetchTasks(ctx context.Context) ([]models.Task, error)
}

// Factory builds a service instance from a settings snapshot.
type Factory func(cfg settings.Settings, logger *slog.Logger) (Service, error)

// Config describes one registered integration. Key is the registry identity
// and is deliberately not the same string as the settings section path; the
// mapping between the two lives only in SettingsPath, so the two namespaces
// can evolve independently.
type Config struct {
	// Key identifies the integration in the registry ("apple-reminders").
	Key string

	// Name is the human-readable display name.
	Name string

	// Icon is the icon identifier used by UI surfaces.
	Icon string

	// NewService builds the integration's service from settings.
	NewService Factory

	// IsEnabled reports whether the integration is turned on in the given
	// settings snapshot.
	IsEnabled func(cfg settings.Settings) bool

	// SettingsPath returns the settings section path
	// ("integrations.appleReminders") for reactive subscription.
	SettingsPath func() string
}

// Registry is a keyed map of integration configs preserving insertion
// order.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Config
	order   []string
}

// DefaultRegistry is the process-wide registry integrations register into
// at startup.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Config)}
}

// Register inserts or overwrites the config under its key. Re-registering
// an existing key replaces the entry in place and keeps its position.
func (r *Registry) Register(cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[cfg.Key]; !exists {
		r.order = append(r.order, cfg.Key)
	}
	r.entries[cfg.Key] = cfg
}

// Get returns the config registered under key. Callers must check ok rather
// than assume registration happened.
func (r *Registry) Get(key string) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.entries[key]
	return cfg, ok
}

// GetAll returns a snapshot of every registered config in insertion order.
func (r *Registry) GetAll() []Config {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Config, 0, len(r.order))
	for _, key := range r.order {
		all = append(all, r.entries[key])
	}
	return all
}

// GetEnabled filters GetAll by each entry's enablement predicate evaluated
// against the given settings snapshot. Pure: no mutation, no caching.
func (r *Registry) GetEnabled(cfg settings.Settings) []Config {
	var enabled []Config
	for _, entry := range r.GetAll() {
		if entry.IsEnabled(cfg) {
			enabled = append(enabled, entry)
		}
	}
	return enabled
}

// Register adds a config to the default registry.
func Register(cfg Config) {
	DefaultRegistry.Register(cfg)
}

// Get looks up a key in the default registry.
func Get(key string) (Config, bool) {
	return DefaultRegistry.Get(key)
}

// GetAll snapshots the default registry.
func GetAll() []Config {
	return DefaultRegistry.GetAll()
}

// GetEnabled filters the default registry by enablement.
func GetEnabled(cfg settings.Settings) []Config {
	return DefaultRegistry.GetEnabled(cfg)
}
