package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDirAgainstShippedMigrations(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
}

func TestShippedMigrationsCoverCoreTables(t *testing.T) {
	entries, err := os.ReadDir("migrations")
	require.NoError(t, err)

	var joined strings.Builder
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		b, err := os.ReadFile(filepath.Join("migrations", e.Name()))
		require.NoError(t, err)
		joined.Write(b)
	}

	sql := joined.String()
	for _, table := range []string{
		"users",
		"categories",
		"listings",
		"listing_images",
		"favorites",
		"messages",
		"listing_views",
		"pending_media_deletions",
	} {
		assert.Contains(t, sql, table, "missing table %s", table)
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad_version.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))

	err := ValidateDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid migration filename")
}

func TestValidateDirRejectsMissingDownSection(t *testing.T) {
	dir := t.TempDir()
	name := "20260301120000_create_widgets.sql"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- +goose Up\nCREATE TABLE widgets (id uuid);\n"), 0o644))

	err := ValidateDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "+goose Down")
}

func TestValidateDirRejectsDuplicateVersions(t *testing.T) {
	dir := t.TempDir()
	body := []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260301120000_first.sql"), body, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260301120000_second.sql"), body, 0o644))

	err := ValidateDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate migration version")
}
