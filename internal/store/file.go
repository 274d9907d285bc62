package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/fuelwatch/fuelwatch/internal/models"
)

// FileStore persists the state record as a JSON file. Writes go through a
// temporary file and an atomic rename so a crash never leaves a truncated
// state behind.
type FileStore struct {
	path   string
	logger zerolog.Logger
}

// NewFileStore creates a file-backed store at the given path.
func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger.With().Str("component", "store").Logger(),
	}
}

// Load reads the state file. A missing file yields a fresh empty state.
func (s *FileStore) Load(_ context.Context) (*models.PersistedState, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.NewPersistedState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	var st models.PersistedState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing state file: %w", err)
	}
	st.Normalize()

	s.logger.Debug().Str("path", s.path).Msg("loaded persisted state")
	return &st, nil
}

// Save writes the state file atomically.
func (s *FileStore) Save(_ context.Context, st *models.PersistedState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}

	s.logger.Debug().Str("path", s.path).Int("bytes", len(data)).Msg("saved persisted state")
	return nil
}

// Ping checks that the state directory exists or can be created.
func (s *FileStore) Ping(_ context.Context) error {
	return os.MkdirAll(filepath.Dir(s.path), 0o755)
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error {
	return nil
}
