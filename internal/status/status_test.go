package status

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasksync/internal/models"
	"tasksync/internal/settings"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEvaluator(t *testing.T) {
	e := NewEvaluator(settings.Default(), testLogger())

	t.Run("classifies the built-in symbols", func(t *testing.T) {
		assert.Equal(t, models.StatusTypeTodo, e.TypeOf(" "))
		assert.Equal(t, models.StatusTypeInProgress, e.TypeOf("/"))
		assert.Equal(t, models.StatusTypeDone, e.TypeOf("x"))
		assert.Equal(t, models.StatusTypeCancelled, e.TypeOf("-"))
	})

	t.Run("unknown symbols are todo", func(t *testing.T) {
		assert.Equal(t, models.StatusTypeTodo, e.TypeOf("?"))
	})

	t.Run("toggling follows the configured chain", func(t *testing.T) {
		assert.Equal(t, "x", e.NextSymbol(" "))
		assert.Equal(t, "x", e.NextSymbol("/"))
		assert.Equal(t, " ", e.NextSymbol("x"))
	})

	t.Run("resolution covers done and cancelled", func(t *testing.T) {
		assert.True(t, e.IsResolved("x"))
		assert.True(t, e.IsResolved("-"))
		assert.False(t, e.IsResolved(" "))
		assert.False(t, e.IsResolved("/"))
	})

	t.Run("SymbolFor returns the first status of a type", func(t *testing.T) {
		assert.Equal(t, " ", e.SymbolFor(models.StatusTypeTodo))
		assert.Equal(t, "x", e.SymbolFor(models.StatusTypeDone))
	})
}

func TestEvaluatorApplySettings(t *testing.T) {
	e := NewEvaluator(settings.Default(), testLogger())

	custom := settings.Default()
	custom.TaskStatuses = []models.TaskStatus{
		{Name: "Open", Symbol: "o", NextSymbol: "d", Type: models.StatusTypeTodo},
		{Name: "Closed", Symbol: "d", NextSymbol: "o", Type: models.StatusTypeDone},
	}
	e.ApplySettings(custom)

	assert.Equal(t, models.StatusTypeDone, e.TypeOf("d"))
	assert.Equal(t, "d", e.SymbolFor(models.StatusTypeDone))
	// The old built-in symbol set is fully replaced.
	assert.Equal(t, models.StatusTypeTodo, e.TypeOf("x"))

	t.Run("empty list falls back to the built-in set", func(t *testing.T) {
		e.ApplySettings(settings.Settings{})
		assert.Equal(t, models.StatusTypeDone, e.TypeOf("x"))
		assert.Len(t, e.Statuses(), 4)
	})

	t.Run("fallback symbols when a type has no status", func(t *testing.T) {
		only := settings.Default()
		only.TaskStatuses = []models.TaskStatus{
			{Name: "Open", Symbol: "o", NextSymbol: "o", Type: models.StatusTypeTodo},
		}
		e.ApplySettings(only)
		assert.Equal(t, "x", e.SymbolFor(models.StatusTypeDone))
		assert.Equal(t, " ", e.SymbolFor(models.StatusTypeCancelled))
	})
}

func TestSyncHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("watches only the task status section", func(t *testing.T) {
		h := NewSyncHandler(settings.Default(), NewEvaluator(settings.Default(), testLogger()), testLogger())
		assert.Equal(t, []string{settings.SectionTaskStatuses}, h.WatchedSections())
		assert.Equal(t, "status-sync", h.Name())
	})

	t.Run("merges new statuses into held settings and pushes them", func(t *testing.T) {
		evaluator := NewEvaluator(settings.Default(), testLogger())
		h := NewSyncHandler(settings.Default(), evaluator, testLogger())

		updated := []models.TaskStatus{
			{Name: "Open", Symbol: "o", NextSymbol: "d", Type: models.StatusTypeTodo},
			{Name: "Closed", Symbol: "d", NextSymbol: "o", Type: models.StatusTypeDone},
		}
		err := h.OnChange(ctx, settings.ChangeEvent{
			Section:    settings.SectionTaskStatuses,
			New:        updated,
			HasChanges: true,
		})
		require.NoError(t, err)

		assert.Equal(t, models.StatusTypeDone, evaluator.TypeOf("d"))
		assert.Equal(t, "d", evaluator.SymbolFor(models.StatusTypeDone))
	})

	t.Run("unexpected payload type is an error", func(t *testing.T) {
		evaluator := NewEvaluator(settings.Default(), testLogger())
		h := NewSyncHandler(settings.Default(), evaluator, testLogger())

		err := h.OnChange(ctx, settings.ChangeEvent{
			Section:    settings.SectionTaskStatuses,
			New:        "not a status list",
			HasChanges: true,
		})
		require.Error(t, err)
		// Evaluator keeps its previous state.
		assert.Equal(t, models.StatusTypeDone, evaluator.TypeOf("x"))
	})
}
