package settings

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps settings in process for settings.driver=memory. Saves
// with a theme the site cannot render are refused, and every accepted save
// is kept in order.
type MemoryStore struct {
	mu      sync.RWMutex
	current *Settings
	saves   []Settings
}

// NewMemoryStore returns a store holding seed, or an empty store when seed
// is nil.
func NewMemoryStore(seed *Settings) *MemoryStore {
	m := &MemoryStore{}
	if seed != nil {
		copied := *seed
		m.current = &copied
	}
	return m
}

// EnsureSchema implements Store.
func (m *MemoryStore) EnsureSchema(context.Context) error {
	return nil
}

// Load returns ErrNotFound until something has been seeded or saved.
func (m *MemoryStore) Load(context.Context) (Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Settings{}, ErrNotFound
	}
	return *m.current, nil
}

// Save stores settings after checking the theme.
func (m *MemoryStore) Save(_ context.Context, settings Settings) error {
	if err := ValidateTheme(settings.Theme); err != nil {
		return fmt.Errorf("memory store: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = &settings
	m.saves = append(m.saves, settings)
	return nil
}

// Saves returns the accepted saves, oldest first.
func (m *MemoryStore) Saves() []Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Settings(nil), m.saves...)
}
