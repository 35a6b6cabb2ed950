package iocache

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/boardline/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateHistory_NoneBackend(t *testing.T) {
	_, err := MigrateHistory(schema.NoneBackend, "", -1)
	assert.ErrorContains(t, err, "migrations are not supported for NoneBackend")
}

func TestMigrateHistory_UnsupportedBackend(t *testing.T) {
	_, err := MigrateHistory(schema.DatabaseBackend("oracle"), "", -1)
	assert.ErrorContains(t, err, "unsupported backend")
}

func TestMigrateHistory_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	version, err := MigrateHistory(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)

	// Already at the latest version.
	version, err = MigrateHistory(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)

	version, err = MigrateHistory(schema.SQLiteBackend, dbPath, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	version, err = MigrateHistory(schema.SQLiteBackend, dbPath, 0)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	version, err = MigrateHistory(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestMigrateHistory_StoreUsesMigratedTables(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	_, err := MigrateHistory(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)

	store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	runID, err := store.BeginRun("b1", time.Now(), nil)
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))
}

func TestMigrateHistory_RollbackDropsTables(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	_, err := MigrateHistory(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	_, err = MigrateHistory(schema.SQLiteBackend, dbPath, 0)
	require.NoError(t, err)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var count int
	row := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name LIKE 'boardline_%'")
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, 0, count)
}

func TestWithMultiStatements(t *testing.T) {
	dsn, err := withMultiStatements("user:pass@tcp(localhost:3306)/boardline")
	require.NoError(t, err)
	assert.Contains(t, dsn, "multiStatements=true")

	_, err = withMultiStatements("not a dsn")
	assert.Error(t, err)
}
