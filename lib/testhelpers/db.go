package testhelpers

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	database "github.com/mitchfriedman/soirees/lib/db"
	"github.com/mitchfriedman/soirees/lib/filestore"
	"github.com/mitchfriedman/soirees/lib/logging"
)

// DBConnection opens a migrated in-memory sqlite database. Set
// TEST_LOG_QUERIES=1 to print the queries gorm runs.
func DBConnection(t *testing.T) (*database.DB, func()) {
	t.Helper()

	logger := logging.New("test", os.Stderr)
	db, err := database.OpenSQLite(":memory:", os.Getenv("TEST_LOG_QUERIES") != "", logger)
	require.NoError(t, err, "could not open sqlite database")
	require.NoError(t, database.Migrate(db, logger))

	return db, func() {
		require.NoError(t, db.Close())
	}
}

// Collection returns an empty file collection in a per-test directory.
func Collection(t *testing.T, name string) *filestore.Collection {
	t.Helper()

	c, err := filestore.New(t.TempDir(), name)
	require.NoError(t, err)
	return c
}
