package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add vinted orders", "add_vinted_orders"},
		{"Add-Vinted-Orders", "add_vinted_orders"},
		{"ADD_VINTED_ORDERS", "add_vinted_orders"},
		{"add__vinted__orders", "add_vinted_orders"},
		{"Add Orders 123", "add_orders_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"catégorie", "catgorie"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	mf, err := createMigration(dir, "add ebay returns", "Track return requests", now)
	require.NoError(t, err)

	assert.Equal(t, "20260314092653", mf.Version)
	assert.Equal(t, "add_ebay_returns", mf.Name)
	assert.Equal(t, filepath.Join(dir, "20260314092653_add_ebay_returns.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "20260314092653_add_ebay_returns.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- 20260314092653 add_ebay_returns")
	assert.Contains(t, string(up), "-- Track return requests")
	assert.Contains(t, string(up), "BEGIN;")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(rollback)")
	assert.NotContains(t, string(down), "Track return requests")
}

func TestCreateMigration_Errors(t *testing.T) {
	t.Run("empty name", func(t *testing.T) {
		_, err := CreateMigration(t.TempDir(), "!!!", "")
		assert.ErrorIs(t, err, ErrEmptyMigrationName)
	})

	t.Run("existing version is not overwritten", func(t *testing.T) {
		dir := t.TempDir()
		now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		_, err := createMigration(dir, "init", "", now)
		require.NoError(t, err)

		_, err = createMigration(dir, "init", "", now)
		assert.Error(t, err)
	})

	t.Run("creates nested directory", func(t *testing.T) {
		nested := filepath.Join(t.TempDir(), "nested", "migrations")
		_, err := CreateMigration(nested, "test", "")
		require.NoError(t, err)

		info, err := os.Stat(nested)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"20260105090200_create_vinted_tables.up.sql",
		"20260105090200_create_vinted_tables.down.sql",
		"20260105090000_create_products.up.sql",
		"20260105090000_create_products.down.sql",
		"20260105090100_create_marketplace_jobs.up.sql",
		"README.md",
		".gitkeep",
	}
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("-- test"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.up.sql"), 0o755))

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, migrations, 3)

	assert.Equal(t, MigrationInfo{Version: "20260105090000", Name: "create_products", HasDown: true}, migrations[0])
	assert.Equal(t, MigrationInfo{Version: "20260105090100", Name: "create_marketplace_jobs", HasDown: false}, migrations[1])
	assert.Equal(t, "20260105090200_create_vinted_tables", migrations[2].BaseName())
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	migrations, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

// The repository's own migrations must come in complete pairs.
func TestRepositoryMigrationsArePaired(t *testing.T) {
	migrations, err := ListMigrations(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for _, m := range migrations {
		assert.True(t, m.HasDown, "missing down migration for %s", m.BaseName())
		assert.Len(t, m.Version, len(versionLayout), m.BaseName())
	}
}

func TestSourceURL(t *testing.T) {
	u, err := sourceURL("file:///srv/migrations")
	require.NoError(t, err)
	assert.Equal(t, "file:///srv/migrations", u)

	u, err = sourceURL("migrations")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "file://"))
	assert.True(t, strings.HasSuffix(u, "/migrations"))
}

func TestWithMigrationsTable(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@db:5432/stoflow":                          "postgres://u:p@db:5432/stoflow?x-migrations-table=stoflow_schema_migrations",
		"postgres://u:p@db:5432/stoflow?sslmode=disable":          "postgres://u:p@db:5432/stoflow?sslmode=disable&x-migrations-table=stoflow_schema_migrations",
		"postgres://u:p@db:5432/stoflow?x-migrations-table=other": "postgres://u:p@db:5432/stoflow?x-migrations-table=other",
	}
	for in, want := range tests {
		assert.Equal(t, want, withMigrationsTable(in))
	}
}
