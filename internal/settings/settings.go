// Package settings owns site-wide presentation settings such as the theme.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrNotFound indicates the settings record does not exist yet.
var ErrNotFound = errors.New("settings: not found")

// ErrInvalidTheme is returned when a theme outside Themes is requested.
var ErrInvalidTheme = errors.New("settings: invalid theme")

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Themes lists the accepted theme values.
var Themes = []string{ThemeDark, ThemeLight}

// Settings captures configurable site settings.
type Settings struct {
	Theme string `json:"theme"`
}

// Store defines persistence operations for settings.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, settings Settings) error
}

// Service is the single owner of theme state. It is seeded from the
// startup configuration and only changes through SetTheme.
type Service struct {
	store   Store
	mu      sync.RWMutex
	current Settings
}

// NewService prepares the store and loads the persisted settings, saving
// defaults when nothing has been stored yet.
func NewService(ctx context.Context, store Store, defaults Settings) (*Service, error) {
	if store == nil {
		store = NewMemoryStore(nil)
	}
	if err := ValidateTheme(defaults.Theme); err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure settings schema: %w", err)
	}
	current, err := store.Load(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		current = defaults
		if err := store.Save(ctx, current); err != nil {
			return nil, fmt.Errorf("seed settings: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if ValidateTheme(current.Theme) != nil {
		current.Theme = defaults.Theme
	}
	return &Service{store: store, current: current}, nil
}

// Current returns a copy of the active settings.
func (s *Service) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Theme returns the active theme.
func (s *Service) Theme() string {
	return s.Current().Theme
}

// SetTheme validates, persists and activates a new theme.
func (s *Service) SetTheme(ctx context.Context, theme string) error {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if err := ValidateTheme(theme); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.current
	next.Theme = theme
	if err := s.store.Save(ctx, next); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.current = next
	return nil
}

// ValidateTheme reports ErrInvalidTheme for unknown values.
func ValidateTheme(theme string) error {
	for _, t := range Themes {
		if theme == t {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidTheme, theme)
}
