package status

import (
	"context"
	"fmt"
	"log/slog"

	"tasksync/internal/models"
	"tasksync/internal/settings"
)

// SyncHandler keeps the status evaluator in step with the taskStatuses
// settings section. On change it merges the new status list into its held
// settings copy and pushes the merged snapshot into the evaluator.
type SyncHandler struct {
	logger    *slog.Logger
	held      settings.Settings
	evaluator *Evaluator
}

var _ settings.ChangeHandler = (*SyncHandler)(nil)

// NewSyncHandler creates the handler with its initial settings snapshot.
func NewSyncHandler(initial settings.Settings, evaluator *Evaluator, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		logger:    logger,
		held:      initial,
		evaluator: evaluator,
	}
}

// Name identifies the handler in dispatch logs.
func (h *SyncHandler) Name() string {
	return "status-sync"
}

// WatchedSections declares interest in the taskStatuses section only.
func (h *SyncHandler) WatchedSections() []string {
	return []string{settings.SectionTaskStatuses}
}

// OnChange merges the new status list into the held settings and pushes the
// result into the evaluator.
func (h *SyncHandler) OnChange(ctx context.Context, ev settings.ChangeEvent) error {
	statuses, ok := ev.New.([]models.TaskStatus)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for section %s", ev.New, ev.Section)
	}

	h.held.TaskStatuses = statuses
	h.evaluator.ApplySettings(h.held)
	h.logger.Info("Task statuses updated.", "count", len(statuses))
	return nil
}
