package syncer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasksync/internal/integrations"
	"tasksync/internal/models"
	"tasksync/internal/settings"
	"tasksync/internal/status"
)

// fakeService returns a fixed task list, or an error, for a key.
type fakeService struct {
	key   string
	tasks []models.Task
	err   error
}

func (f *fakeService) Key() string { return f.key }

func (f *fakeService) FetchTasks(ctx context.Context) ([]models.Task, error) {
	return f.tasks, f.err
}

func fakeConfig(key string, svc *fakeService) integrations.Config {
	return integrations.Config{
		Key:  key,
		Name: key,
		Icon: key,
		NewService: func(cfg settings.Settings, logger *slog.Logger) (integrations.Service, error) {
			return svc, nil
		},
		IsEnabled:    func(settings.Settings) bool { return true },
		SettingsPath: func() string { return "integrations." + key },
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSyncer(t *testing.T, registry *integrations.Registry, cfg settings.Settings) (*Syncer, string, string) {
	t.Helper()
	dir := t.TempDir()
	storePath := filepath.Join(dir, "tasks.json")
	statePath := filepath.Join(dir, "state.json")

	store, err := LoadTaskStore(storePath)
	require.NoError(t, err)

	s, err := New(registry, status.NewEvaluator(cfg, testLogger()), store, statePath, false, testLogger())
	require.NoError(t, err)
	return s, storePath, statePath
}

func TestSyncMerge(t *testing.T) {
	ctx := context.Background()
	cfg := settings.Default()

	t.Run("tasks keep their ID across repeated syncs", func(t *testing.T) {
		svc := &fakeService{key: "github", tasks: []models.Task{
			{Source: "github", ExternalID: "42", Title: "Fix the flaky test", StatusSymbol: " "},
		}}
		registry := integrations.NewRegistry()
		registry.Register(fakeConfig("github", svc))

		s, _, _ := newTestSyncer(t, registry, cfg)
		require.NoError(t, s.Sync(ctx, cfg))

		first := s.Store().All()
		require.Len(t, first, 1)
		require.NotEmpty(t, first[0].ID)

		svc.tasks[0].Title = "Fix the flaky test (again)"
		require.NoError(t, s.Sync(ctx, cfg))

		second := s.Store().All()
		require.Len(t, second, 1)
		assert.Equal(t, first[0].ID, second[0].ID)
		assert.Equal(t, "Fix the flaky test (again)", second[0].Title)
	})

	t.Run("canonical symbols are remapped to configured ones", func(t *testing.T) {
		custom := settings.Default()
		custom.TaskStatuses = []models.TaskStatus{
			{Name: "Open", Symbol: "o", NextSymbol: "d", Type: models.StatusTypeTodo},
			{Name: "Closed", Symbol: "d", NextSymbol: "o", Type: models.StatusTypeDone},
		}

		svc := &fakeService{key: "github", tasks: []models.Task{
			{Source: "github", ExternalID: "1", Title: "open one", StatusSymbol: " "},
			{Source: "github", ExternalID: "2", Title: "done one", StatusSymbol: "x"},
		}}
		registry := integrations.NewRegistry()
		registry.Register(fakeConfig("github", svc))

		s, _, _ := newTestSyncer(t, registry, custom)
		require.NoError(t, s.Sync(ctx, custom))

		all := s.Store().All()
		require.Len(t, all, 2)
		assert.Equal(t, "o", all[0].StatusSymbol)
		assert.Equal(t, "d", all[1].StatusSymbol)
	})

	t.Run("a failing integration does not block the others", func(t *testing.T) {
		broken := &fakeService{key: "apple-calendar", err: errors.New("caldav unreachable")}
		working := &fakeService{key: "github", tasks: []models.Task{
			{Source: "github", ExternalID: "7", Title: "survives", StatusSymbol: " "},
		}}
		registry := integrations.NewRegistry()
		registry.Register(fakeConfig("apple-calendar", broken))
		registry.Register(fakeConfig("github", working))

		s, _, _ := newTestSyncer(t, registry, cfg)
		require.NoError(t, s.Sync(ctx, cfg))
		assert.Equal(t, 1, s.Store().Len())
	})

	t.Run("nothing enabled is a no-op", func(t *testing.T) {
		registry := integrations.NewRegistry()
		registry.Register(integrations.Config{
			Key:          "github",
			Name:         "GitHub",
			NewService:   func(settings.Settings, *slog.Logger) (integrations.Service, error) { return nil, nil },
			IsEnabled:    func(settings.Settings) bool { return false },
			SettingsPath: func() string { return "integrations.github" },
		})

		s, _, _ := newTestSyncer(t, registry, cfg)
		require.NoError(t, s.Sync(ctx, cfg))
		assert.Zero(t, s.Store().Len())
	})
}

func TestSyncPersistence(t *testing.T) {
	ctx := context.Background()
	cfg := settings.Default()

	svc := &fakeService{key: "github", tasks: []models.Task{
		{Source: "github", ExternalID: "42", Title: "Persisted task", StatusSymbol: " "},
	}}
	registry := integrations.NewRegistry()
	registry.Register(fakeConfig("github", svc))

	s, storePath, statePath := newTestSyncer(t, registry, cfg)
	require.NoError(t, s.Sync(ctx, cfg))
	originalID := s.Store().All()[0].ID

	// A fresh syncer over the same files resumes with the same identities.
	store, err := LoadTaskStore(storePath)
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	resumed, err := New(registry, status.NewEvaluator(cfg, testLogger()), store, statePath, false, testLogger())
	require.NoError(t, err)
	require.NoError(t, resumed.Sync(ctx, cfg))

	all := resumed.Store().All()
	require.Len(t, all, 1)
	assert.Equal(t, originalID, all[0].ID)
}

func TestSyncDryRun(t *testing.T) {
	ctx := context.Background()
	cfg := settings.Default()

	svc := &fakeService{key: "github", tasks: []models.Task{
		{Source: "github", ExternalID: "42", Title: "Ephemeral task", StatusSymbol: " "},
	}}
	registry := integrations.NewRegistry()
	registry.Register(fakeConfig("github", svc))

	dir := t.TempDir()
	storePath := filepath.Join(dir, "tasks.json")
	store, err := LoadTaskStore(storePath)
	require.NoError(t, err)

	s, err := New(registry, status.NewEvaluator(cfg, testLogger()), store, filepath.Join(dir, "state.json"), true, testLogger())
	require.NoError(t, err)
	require.NoError(t, s.Sync(ctx, cfg))

	// The merge happened in memory but nothing was written out.
	assert.Equal(t, 1, s.Store().Len())
	reloaded, err := LoadTaskStore(storePath)
	require.NoError(t, err)
	assert.Zero(t, reloaded.Len())
}

func TestTaskStoreOrdering(t *testing.T) {
	store, err := LoadTaskStore(filepath.Join(t.TempDir(), "tasks.json"))
	require.NoError(t, err)

	store.Upsert(models.Task{ID: "1", Source: "github", ExternalID: "9"})
	store.Upsert(models.Task{ID: "2", Source: "apple-reminders", ExternalID: "b"})
	store.Upsert(models.Task{ID: "3", Source: "apple-reminders", ExternalID: "a"})

	all := store.All()
	require.Len(t, all, 3)
	assert.Equal(t, "3", all[0].ID)
	assert.Equal(t, "2", all[1].ID)
	assert.Equal(t, "1", all[2].ID)
}
