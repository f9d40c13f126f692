package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists settings as JSON under the data directory.
type FileStore struct {
	path string
	mu   sync.RWMutex
}

// NewFileStore creates a settings store for the specified data directory.
func NewFileStore(dataDir string) *FileStore {
	return &FileStore{
		path: filepath.Join(dataDir, "settings.json"),
	}
}

// EnsureSchema creates the data directory.
func (s *FileStore) EnsureSchema(context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	return nil
}

// Load reads settings from disk, returning ErrNotFound if the file doesn't exist.
func (s *FileStore) Load(context.Context) (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Settings{}, ErrNotFound
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}

// Save writes settings to disk.
func (s *FileStore) Save(_ context.Context, settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Path returns the file path where settings are stored.
func (s *FileStore) Path() string {
	return s.path
}
