package settings

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPool connects to REL8_TEST_DATABASE_URL, skipping when it is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("REL8_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("REL8_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))
	t.Cleanup(pool.Close)
	return pool
}

func testNamespace(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()
	ns := fmt.Sprintf("test-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM rel8_settings WHERE namespace = $1`, ns)
	})
	return ns
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	store := NewPostgresStore(pool, testNamespace(t, pool))
	require.NoError(t, store.EnsureSchema(ctx))

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, Settings{Theme: ThemeDark}))
	require.NoError(t, store.Save(ctx, Settings{Theme: ThemeLight}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Settings{Theme: ThemeLight}, loaded)
}

func TestPostgresStoreIgnoresUnknownKeysAndOtherNamespaces(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	ns := testNamespace(t, pool)
	store := NewPostgresStore(pool, ns)
	require.NoError(t, store.EnsureSchema(ctx))

	_, err := pool.Exec(ctx, `INSERT INTO rel8_settings (namespace, key, value) VALUES ($1, 'banner', 'hello')`, ns)
	require.NoError(t, err)
	_, err = store.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound, "unknown keys alone are not settings")

	require.NoError(t, store.Save(ctx, Settings{Theme: ThemeLight}))
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, loaded.Theme)

	other := NewPostgresStore(pool, testNamespace(t, pool))
	_, err = other.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewPostgresStoreDefaultsNamespace(t *testing.T) {
	store := NewPostgresStore(nil, "  ")
	assert.Equal(t, DefaultNamespace, store.namespace)
}
