package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingFilesOrdersUpMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0002_ledger.up.sql": {Data: []byte("SELECT 1;")},
		"migrations/0001_init.up.sql":   {Data: []byte("SELECT 1;")},
		"migrations/0001_init.down.sql": {Data: []byte("SELECT 1;")},
		"migrations/README.md":          {Data: []byte("notes")},
	}

	files, err := pendingFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.up.sql", "0002_ledger.up.sql"}, files)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	files, err := pendingFiles(migrationFiles)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "0001_init.up.sql", files[0])
}
