package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultNamespace scopes settings rows when no namespace is configured.
const DefaultNamespace = "site"

// PostgresStore keeps one rel8_settings row per setting key. Rows are
// scoped by namespace so several rel8 sites can share a database.
type PostgresStore struct {
	pool      *pgxpool.Pool
	namespace string
}

// NewPostgresStore returns a store writing under namespace.
func NewPostgresStore(pool *pgxpool.Pool, namespace string) *PostgresStore {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &PostgresStore{pool: pool, namespace: namespace}
}

type settingField struct {
	get func(Settings) string
	set func(*Settings, string)
}

// settingFields maps stored keys onto Settings.
var settingFields = map[string]settingField{
	"theme": {
		get: func(s Settings) string { return s.Theme },
		set: func(s *Settings, v string) { s.Theme = v },
	},
}

// EnsureSchema creates rel8_settings if needed.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS rel8_settings (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, key)
)`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create rel8_settings: %w", err)
	}
	return nil
}

// Load reads the namespace's rows. Keys rel8 does not know are skipped;
// ErrNotFound means no known key is stored.
func (s *PostgresStore) Load(ctx context.Context) (Settings, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, value FROM rel8_settings WHERE namespace = $1`, s.namespace)
	if err != nil {
		return Settings{}, fmt.Errorf("query settings: %w", err)
	}
	values := make(map[string]string)
	var key, value string
	_, err = pgx.ForEachRow(rows, []any{&key, &value}, func() error {
		values[key] = value
		return nil
	})
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	settings, ok := settingsFromRows(values)
	if !ok {
		return Settings{}, ErrNotFound
	}
	return settings, nil
}

// Save upserts every known key in one transaction.
func (s *PostgresStore) Save(ctx context.Context, settings Settings) error {
	const upsert = `
INSERT INTO rel8_settings (namespace, key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (namespace, key) DO UPDATE
SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for key, field := range settingFields {
			batch.Queue(upsert, s.namespace, key, field.get(settings))
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func settingsFromRows(values map[string]string) (Settings, bool) {
	var settings Settings
	found := false
	for key, value := range values {
		field, ok := settingFields[key]
		if !ok {
			continue
		}
		field.set(&settings, value)
		found = true
	}
	return settings, found
}
