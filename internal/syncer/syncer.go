// Package syncer orchestrates pulling tasks from every enabled integration
// into the local task store.
package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"tasksync/internal/integrations"
	"tasksync/internal/models"
	"tasksync/internal/settings"
	"tasksync/internal/status"
)

// State maps "<source>/<externalID>" to the local task ID, so repeated syncs
// update the same task instead of duplicating it.
type State map[string]string

// canonicalTypes maps the canonical symbols integrations emit to status
// types; the syncer translates them into the user's configured symbols.
var canonicalTypes = map[string]models.StatusType{
	" ": models.StatusTypeTodo,
	"/": models.StatusTypeInProgress,
	"x": models.StatusTypeDone,
	"-": models.StatusTypeCancelled,
}

// Syncer pulls tasks from enabled integrations and merges them into the
// task store.
type Syncer struct {
	logger    *slog.Logger
	registry  *integrations.Registry
	evaluator *status.Evaluator
	store     *TaskStore
	state     State
	statePath string
	dryRun    bool
}

// New creates a Syncer, loading sync state from the given path. A missing
// state file starts fresh.
func New(registry *integrations.Registry, evaluator *status.Evaluator, store *TaskStore, statePath string, dryRun bool, logger *slog.Logger) (*Syncer, error) {
	state, err := loadState(statePath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("No sync state file found, starting fresh.", "file", statePath)
			state = make(State)
		} else {
			return nil, fmt.Errorf("failed to load sync state: %w", err)
		}
	}

	return &Syncer{
		logger:    logger,
		registry:  registry,
		evaluator: evaluator,
		store:     store,
		state:     state,
		statePath: statePath,
		dryRun:    dryRun,
	}, nil
}

// Sync performs one full cycle against the given settings snapshot: every
// enabled integration is built, fetched and merged. A failing integration
// is logged and skipped so the others still sync.
func (s *Syncer) Sync(ctx context.Context, cfg settings.Settings) error {
	enabled := s.registry.GetEnabled(cfg)
	if len(enabled) == 0 {
		s.logger.Info("No integrations enabled, nothing to sync.")
		return nil
	}
	s.logger.Info("Starting sync cycle.", "integrations", len(enabled))

	for _, entry := range enabled {
		if err := s.syncIntegration(ctx, entry, cfg); err != nil {
			s.logger.Error("Integration sync failed", "integration", entry.Key, "error", err)
			continue
		}
	}

	if s.dryRun {
		s.logger.Info("Dry run, not persisting task store or state.")
		return nil
	}
	if err := s.store.Save(); err != nil {
		return fmt.Errorf("failed to save task store: %w", err)
	}
	if err := s.saveState(); err != nil {
		s.logger.Error("Failed to save sync state", "error", err)
	}

	s.logger.Info("Sync cycle finished.", "tasks", s.store.Len())
	return nil
}

func (s *Syncer) syncIntegration(ctx context.Context, entry integrations.Config, cfg settings.Settings) error {
	svc, err := entry.NewService(cfg, s.logger)
	if err != nil {
		return fmt.Errorf("failed to build service: %w", err)
	}

	tasks, err := svc.FetchTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch tasks: %w", err)
	}

	for _, task := range tasks {
		s.merge(task)
	}
	return nil
}

// merge inserts or updates one task, translating its canonical status
// symbol into the configured symbol for the same status type.
func (s *Syncer) merge(task models.Task) {
	if t, ok := canonicalTypes[task.StatusSymbol]; ok {
		task.StatusSymbol = s.evaluator.SymbolFor(t)
	}

	key := task.Source + "/" + task.ExternalID
	if id, ok := s.state[key]; ok {
		task.ID = id
	} else {
		task.ID = uuid.New().String()
		s.state[key] = task.ID
	}
	s.store.Upsert(task)
}

// Store exposes the underlying task store.
func (s *Syncer) Store() *TaskStore {
	return s.store
}

func loadState(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *Syncer) saveState() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sync state: %w", err)
	}
	return os.WriteFile(s.statePath, data, 0644)
}
