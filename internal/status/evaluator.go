// Package status resolves task status symbols against the user-configurable
// status list from the taskStatuses settings section.
package status

import (
	"log/slog"
	"sync"

	"tasksync/internal/models"
	"tasksync/internal/settings"
)

// Evaluator answers status questions for task symbols. It holds the status
// list most recently pushed into it; callers replace the whole list through
// ApplySettings when the taskStatuses section changes. Settings reloads
// arrive from the watch goroutine while the sync loop reads, hence the lock.
type Evaluator struct {
	logger *slog.Logger

	mu       sync.RWMutex
	statuses []models.TaskStatus
	bySymbol map[string]models.TaskStatus
}

// NewEvaluator creates an evaluator seeded from the given settings.
func NewEvaluator(cfg settings.Settings, logger *slog.Logger) *Evaluator {
	e := &Evaluator{logger: logger}
	e.ApplySettings(cfg)
	return e
}

// ApplySettings replaces the evaluator's status list with the one held in
// the given settings snapshot. An empty list falls back to the built-in set.
func (e *Evaluator) ApplySettings(cfg settings.Settings) {
	statuses := cfg.TaskStatuses
	if len(statuses) == 0 {
		statuses = models.DefaultTaskStatuses()
	}

	bySymbol := make(map[string]models.TaskStatus, len(statuses))
	for _, st := range statuses {
		bySymbol[st.Symbol] = st
	}

	e.mu.Lock()
	e.statuses = statuses
	e.bySymbol = bySymbol
	e.mu.Unlock()
	e.logger.Debug("Status list applied.", "count", len(statuses))
}

// Statuses returns the active status list.
func (e *Evaluator) Statuses() []models.TaskStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.statuses
}

// BySymbol looks up the status registered for a symbol.
func (e *Evaluator) BySymbol(symbol string) (models.TaskStatus, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st, ok := e.bySymbol[symbol]
	return st, ok
}

// TypeOf classifies a symbol. Unknown symbols are treated as todo, matching
// how an unrecognized checkbox mark is rendered.
func (e *Evaluator) TypeOf(symbol string) models.StatusType {
	if st, ok := e.BySymbol(symbol); ok {
		return st.Type
	}
	return models.StatusTypeTodo
}

// NextSymbol returns the symbol a task moves to when toggled. Unknown
// symbols toggle to the first done status, or "x" if none is configured.
func (e *Evaluator) NextSymbol(symbol string) string {
	if st, ok := e.BySymbol(symbol); ok {
		return st.NextSymbol
	}
	return e.SymbolFor(models.StatusTypeDone)
}

// SymbolFor returns the symbol of the first configured status of the given
// type, or a sensible fallback when none exists.
func (e *Evaluator) SymbolFor(t models.StatusType) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, st := range e.statuses {
		if st.Type == t {
			return st.Symbol
		}
	}
	if t == models.StatusTypeDone {
		return "x"
	}
	return " "
}

// IsResolved reports whether a symbol means the task needs no further work.
func (e *Evaluator) IsResolved(symbol string) bool {
	t := e.TypeOf(symbol)
	return t == models.StatusTypeDone || t == models.StatusTypeCancelled
}
