package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/boardline/internal/contract"
	"github.com/huangsam/boardline/schema"
)

// Table names for layout history.
const (
	layoutRunsTable    = "boardline_layout_runs"
	itemPositionsTable = "boardline_item_positions"
)

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (*HistoryStoreImpl, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createHistoryTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// createHistoryTables creates the layout history tables.
func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{layoutRunsTable, getCreateLayoutRunsQuery(backend)},
		{itemPositionsTable, getCreateItemPositionsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateLayoutRunsQuery returns the CREATE TABLE query for boardline_layout_runs.
func getCreateLayoutRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(layoutRunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				board_id VARCHAR(255) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_items INT,
				window_start DATETIME(6),
				window_end DATETIME(6),
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				board_id TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_items INT,
				window_start TIMESTAMPTZ,
				window_end TIMESTAMPTZ,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				board_id TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_items INTEGER,
				window_start TEXT,
				window_end TEXT,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateItemPositionsQuery returns the CREATE TABLE query for boardline_item_positions.
func getCreateItemPositionsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(itemPositionsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				item_id VARCHAR(255) NOT NULL,
				item_date DATETIME(6) NOT NULL,
				position_pct DOUBLE NOT NULL,
				side VARCHAR(16) NOT NULL,
				slot INT NOT NULL,
				offset_px DOUBLE NOT NULL,
				delta_px DOUBLE NOT NULL,
				y_px DOUBLE NOT NULL,
				marker_index INT NOT NULL,
				PRIMARY KEY (run_id, item_id)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				item_id TEXT NOT NULL,
				item_date TIMESTAMPTZ NOT NULL,
				position_pct DOUBLE PRECISION NOT NULL,
				side TEXT NOT NULL,
				slot INT NOT NULL,
				offset_px DOUBLE PRECISION NOT NULL,
				delta_px DOUBLE PRECISION NOT NULL,
				y_px DOUBLE PRECISION NOT NULL,
				marker_index INT NOT NULL,
				PRIMARY KEY (run_id, item_id)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				item_id TEXT NOT NULL,
				item_date TEXT NOT NULL,
				position_pct REAL NOT NULL,
				side TEXT NOT NULL,
				slot INTEGER NOT NULL,
				offset_px REAL NOT NULL,
				delta_px REAL NOT NULL,
				y_px REAL NOT NULL,
				marker_index INTEGER NOT NULL,
				PRIMARY KEY (run_id, item_id)
			);
		`, quotedTableName)
	}
}

// BeginRun creates a new layout run and returns its unique ID.
func (hs *HistoryStoreImpl) BeginRun(boardID string, startTime time.Time, configParams map[string]any) (int64, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(layoutRunsTable, hs.backend)

	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (board_id, start_time, config_params) VALUES ($1, $2, $3) RETURNING run_id`, quotedTableName)
		err = hs.db.QueryRow(query, boardID, startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (board_id, start_time, config_params) VALUES (?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = hs.db.Exec(query, boardID, formatTime(startTime, hs.backend), string(configJSON))
		if err != nil {
			return 0, fmt.Errorf("failed to insert layout run: %w", err)
		}
		runID, err = result.LastInsertId()
	}

	if err != nil {
		return 0, fmt.Errorf("failed to insert layout run: %w", err)
	}
	return runID, nil
}

// EndRun updates the layout run with completion data.
func (hs *HistoryStoreImpl) EndRun(runID int64, endTime time.Time, totalItems int, window schema.TimeWindow) error {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(layoutRunsTable, hs.backend)

	var startTime storedTime
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, placeholder(hs.backend, 1))
	if err := hs.db.QueryRow(query, runID).Scan(&startTime); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	durationMs := endTime.Sub(startTime.Time).Milliseconds()

	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_items = %s, window_start = %s, window_end = %s WHERE run_id = %s`,
		quotedTableName,
		placeholder(hs.backend, 1), placeholder(hs.backend, 2), placeholder(hs.backend, 3),
		placeholder(hs.backend, 4), placeholder(hs.backend, 5), placeholder(hs.backend, 6))
	args := []any{
		formatTime(endTime, hs.backend), durationMs, totalItems,
		formatTime(window.Start, hs.backend), formatTime(window.End, hs.backend), runID,
	}

	if _, err := hs.db.Exec(updateQuery, args...); err != nil {
		return fmt.Errorf("failed to update layout run: %w", err)
	}
	return nil
}

// RecordItemPosition stores the resolved position of one item.
func (hs *HistoryStoreImpl) RecordItemPosition(runID int64, record schema.ItemPositionRecord) error {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(itemPositionsTable, hs.backend)

	var query string
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`
			INSERT INTO %s (run_id, item_id, item_date, position_pct, side, slot, offset_px, delta_px, y_px, marker_index)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, quotedTableName)
	default: // SQLite and MySQL
		query = fmt.Sprintf(`
			INSERT INTO %s (run_id, item_id, item_date, position_pct, side, slot, offset_px, delta_px, y_px, marker_index)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, quotedTableName)
	}

	_, err := hs.db.Exec(query,
		runID, record.ItemID, formatTime(record.ItemDate, hs.backend), record.PositionPct,
		record.Side, record.Slot, record.OffsetPx, record.DeltaPx, record.YPx, record.MarkerIndex,
	)
	if err != nil {
		return fmt.Errorf("failed to insert item position: %w", err)
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}

	if hs.backend == schema.NoneBackend || hs.db == nil {
		return status, nil
	}

	runsTable := quoteTableName(layoutRunsTable, hs.backend)

	row := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runsTable))
	if err := row.Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var lastRunTime, oldestRunTime storedTime
		row = hs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", runsTable))
		if err := row.Scan(&status.LastRunID, &lastRunTime); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		status.LastRunTime = lastRunTime.Time

		row = hs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", runsTable))
		if err := row.Scan(&oldestRunTime); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldestRunTime.Time

		row = hs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_items), 0) FROM %s", runsTable))
		if err := row.Scan(&status.TotalItemsRecorded); err != nil {
			return status, fmt.Errorf("failed to get total items recorded: %w", err)
		}
	}

	for _, table := range []string{layoutRunsTable, itemPositionsTable} {
		var count int64
		row = hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, hs.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllLayoutRuns retrieves all layout runs from the store.
func (hs *HistoryStoreImpl) GetAllLayoutRuns() ([]schema.LayoutRunRecord, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, board_id, start_time, end_time, run_duration_ms, total_items,
		window_start, window_end, config_params FROM %s ORDER BY run_id`, quoteTableName(layoutRunsTable, hs.backend))

	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query layout runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.LayoutRunRecord
	for rows.Next() {
		var record schema.LayoutRunRecord
		var start, end, windowStart, windowEnd storedTime
		var duration, totalItems sql.NullInt32
		var configParams sql.NullString

		if err := rows.Scan(&record.RunID, &record.BoardID, &start, &end, &duration, &totalItems,
			&windowStart, &windowEnd, &configParams); err != nil {
			return nil, fmt.Errorf("failed to scan layout run: %w", err)
		}

		record.StartTime = start.Time
		if end.Valid {
			endTime := end.Time
			record.EndTime = &endTime
		}
		if duration.Valid {
			ms := duration.Int32
			record.RunDurationMs = &ms
		}
		record.TotalItems = totalItems.Int32
		record.WindowStart = windowStart.Time
		record.WindowEnd = windowEnd.Time
		if configParams.Valid {
			params := configParams.String
			record.ConfigParams = &params
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating layout runs: %w", err)
	}
	return results, nil
}

// GetAllItemPositions retrieves all recorded item positions from the store.
func (hs *HistoryStoreImpl) GetAllItemPositions() ([]schema.ItemPositionRecord, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, item_id, item_date, position_pct, side, slot, offset_px,
		delta_px, y_px, marker_index FROM %s ORDER BY run_id, item_id`, quoteTableName(itemPositionsTable, hs.backend))

	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query item positions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ItemPositionRecord
	for rows.Next() {
		var record schema.ItemPositionRecord
		var itemDate storedTime
		if err := rows.Scan(&record.RunID, &record.ItemID, &itemDate, &record.PositionPct, &record.Side,
			&record.Slot, &record.OffsetPx, &record.DeltaPx, &record.YPx, &record.MarkerIndex); err != nil {
			return nil, fmt.Errorf("failed to scan item position: %w", err)
		}
		record.ItemDate = itemDate.Time
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item positions: %w", err)
	}
	return results, nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return t
	}
}

// storedTimeLayouts are the text forms a timestamp column may come back in.
var storedTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// storedTime scans a nullable timestamp from either a native column or
// the RFC 3339 text SQLite stores.
type storedTime struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner.
func (st *storedTime) Scan(src any) error {
	st.Time, st.Valid = time.Time{}, false
	var text string
	switch v := src.(type) {
	case nil:
		return nil
	case time.Time:
		st.Time, st.Valid = v, true
		return nil
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return fmt.Errorf("cannot scan %T into a timestamp", src)
	}
	for _, layout := range storedTimeLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			st.Time, st.Valid = t, true
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", text)
}
