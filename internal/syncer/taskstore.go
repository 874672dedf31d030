package syncer

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"tasksync/internal/models"
)

// TaskStore is the local task collection integrations merge into, persisted
// as an indented JSON file keyed by task ID.
type TaskStore struct {
	path  string
	tasks map[string]models.Task
}

// LoadTaskStore reads the store file. A missing file starts an empty store.
func LoadTaskStore(path string) (*TaskStore, error) {
	ts := &TaskStore{path: path, tasks: make(map[string]models.Task)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ts, nil
		}
		return nil, fmt.Errorf("failed to read task store: %w", err)
	}
	if err := json.Unmarshal(data, &ts.tasks); err != nil {
		return nil, fmt.Errorf("failed to parse task store %s: %w", path, err)
	}
	return ts, nil
}

// Upsert inserts or replaces a task by ID.
func (ts *TaskStore) Upsert(task models.Task) {
	ts.tasks[task.ID] = task
}

// Get returns the task with the given ID.
func (ts *TaskStore) Get(id string) (models.Task, bool) {
	task, ok := ts.tasks[id]
	return task, ok
}

// Len returns the number of stored tasks.
func (ts *TaskStore) Len() int {
	return len(ts.tasks)
}

// All returns every task ordered by source then external ID, so output is
// stable across runs.
func (ts *TaskStore) All() []models.Task {
	all := make([]models.Task, 0, len(ts.tasks))
	for _, task := range ts.tasks {
		all = append(all, task)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Source != all[j].Source {
			return all[i].Source < all[j].Source
		}
		return all[i].ExternalID < all[j].ExternalID
	})
	return all
}

// Save writes the store file.
func (ts *TaskStore) Save() error {
	data, err := json.MarshalIndent(ts.tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal task store: %w", err)
	}
	return os.WriteFile(ts.path, data, 0644)
}
