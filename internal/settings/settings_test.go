package settings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	MemoryStore
	saveErr error
}

func (f *failingStore) Save(ctx context.Context, s Settings) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemoryStore.Save(ctx, s)
}

func TestNewServiceSeedsDefaults(t *testing.T) {
	store := NewMemoryStore(nil)

	svc, err := NewService(context.Background(), store, Settings{Theme: ThemeDark})
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, svc.Theme())

	persisted, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, persisted.Theme)
}

func TestNewServicePrefersStoredTheme(t *testing.T) {
	store := NewMemoryStore(&Settings{Theme: ThemeLight})

	svc, err := NewService(context.Background(), store, Settings{Theme: ThemeDark})
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, svc.Theme())
}

func TestNewServiceReplacesCorruptTheme(t *testing.T) {
	store := NewMemoryStore(&Settings{Theme: "sepia"})

	svc, err := NewService(context.Background(), store, Settings{Theme: ThemeDark})
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, svc.Theme())
}

func TestNewServiceRejectsInvalidDefault(t *testing.T) {
	_, err := NewService(context.Background(), NewMemoryStore(nil), Settings{Theme: "neon"})
	assert.ErrorIs(t, err, ErrInvalidTheme)
}

func TestSetTheme(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(ctx, NewMemoryStore(nil), Settings{Theme: ThemeDark})
	require.NoError(t, err)

	require.NoError(t, svc.SetTheme(ctx, " Light "))
	assert.Equal(t, ThemeLight, svc.Theme())

	err = svc.SetTheme(ctx, "neon")
	assert.ErrorIs(t, err, ErrInvalidTheme)
	assert.Equal(t, ThemeLight, svc.Theme(), "rejected theme leaves state untouched")
}

func TestSetThemeKeepsStateWhenSaveFails(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{}
	svc, err := NewService(ctx, store, Settings{Theme: ThemeDark})
	require.NoError(t, err)

	store.saveErr = errors.New("disk full")
	err = svc.SetTheme(ctx, ThemeLight)
	require.Error(t, err)
	assert.Equal(t, ThemeDark, svc.Theme())
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "data"))

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.Save(ctx, Settings{Theme: ThemeLight}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, loaded.Theme)
	assert.Equal(t, "settings.json", filepath.Base(store.Path()))
}

func TestMemoryStoreRefusesUnknownTheme(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	err := store.Save(ctx, Settings{Theme: "sepia"})
	assert.ErrorIs(t, err, ErrInvalidTheme)
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, store.Saves())
}

func TestMemoryStoreRecordsSaves(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)
	svc, err := NewService(ctx, store, Settings{Theme: ThemeDark})
	require.NoError(t, err)

	require.NoError(t, svc.SetTheme(ctx, ThemeLight))
	assert.Equal(t, []Settings{{Theme: ThemeDark}, {Theme: ThemeLight}}, store.Saves())
}

func TestSettingsFromRowsSkipsUnknownKeys(t *testing.T) {
	got, ok := settingsFromRows(map[string]string{"theme": ThemeLight, "banner": "hello"})
	assert.True(t, ok)
	assert.Equal(t, Settings{Theme: ThemeLight}, got)

	_, ok = settingsFromRows(map[string]string{"banner": "hello"})
	assert.False(t, ok)
}
