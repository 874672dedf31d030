package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Store persists settings as an indented JSON file.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a store backed by the given file path.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings file. A missing file is not an error: defaults are
// returned so a fresh install works without setup.
func (s *Store) Load() (Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("No settings file found, using defaults.", "file", s.path)
			return Default(), nil
		}
		return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings file %s: %w", s.path, err)
	}
	return cfg, nil
}

// Save writes the settings file.
func (s *Store) Save(cfg Settings) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}
