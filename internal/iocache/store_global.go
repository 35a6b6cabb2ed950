package iocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/boardline/internal/contract"
	"github.com/huangsam/boardline/schema"
)

// stateTable is the name of the key/value table behind board state.
const stateTable = "board_state"

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetStateDBFilePath returns the path to the SQLite DB file for board state.
func GetStateDBFilePath() string {
	return contract.GetStateDBFilePath()
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for layout history.
func GetHistoryDBFilePath() string {
	return contract.GetHistoryDBFilePath()
}

// InitStores initializes the global manager with separate state and history stores.
// An empty backend leaves the matching store unset.
func InitStores(stateBackend schema.DatabaseBackend, stateConnStr string, historyBackend schema.DatabaseBackend, historyConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		var kv *KVStoreImpl
		var state contract.BoardStore
		if stateBackend != "" {
			var err error
			kv, err = NewKVStore(stateTable, stateBackend, stateConnStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize board state store: %w", err)
				return
			}
			state = NewStateStore(kv)
		}

		var history contract.HistoryStore
		if historyBackend != "" {
			hs, err := NewHistoryStore(historyBackend, historyConnStr)
			if err != nil {
				if kv != nil {
					_ = kv.Close()
				}
				initErr = fmt.Errorf("failed to initialize history store: %w", err)
				return
			}
			history = hs
		}

		Manager.Lock()
		defer Manager.Unlock()
		if kv != nil {
			Manager.kv = kv
		}
		Manager.state = state
		Manager.history = history
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() {
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.kv != nil {
			_ = Manager.kv.Close()
		}
		if Manager.history != nil {
			_ = Manager.history.Close()
		}
	})
}

// ClearBoardState removes the stored hidden set and deltas of one board
// through the initialized state store.
func ClearBoardState(ctx context.Context, boardID string) error {
	kv := Manager.GetKVStore()
	if kv == nil {
		return errors.New("board state store is not initialized")
	}
	return NewStateStore(kv).ClearBoard(ctx, boardID)
}

// ClearState clears all board state for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the table.
// For NoneBackend, it does nothing.
func ClearState(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return removeSQLiteFile(dbFilePath)
	case schema.MySQLBackend, schema.PostgreSQLBackend:
		return clearSQLTables(backend, connStr, stateTable)
	case schema.NoneBackend:
		return nil
	default:
		return fmt.Errorf("unsupported state backend for clearing: %s", backend)
	}
}

// ClearHistory clears the layout history for the specified backend.
func ClearHistory(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return removeSQLiteFile(dbFilePath)
	case schema.MySQLBackend, schema.PostgreSQLBackend:
		return clearSQLTables(backend, connStr, itemPositionsTable, layoutRunsTable)
	case schema.NoneBackend:
		return nil
	default:
		return fmt.Errorf("unsupported history backend for clearing: %s", backend)
	}
}

func removeSQLiteFile(dbFilePath string) error {
	if dbFilePath == "" {
		return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
	}
	if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
	}
	return nil
}

// clearSQLTables connects to the SQL database and drops the tables if they exist.
func clearSQLTables(backend schema.DatabaseBackend, connStr string, tables ...string) error {
	driverName, err := driverFor(backend)
	if err != nil {
		return err
	}
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	for _, table := range tables {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(table, backend))
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
