package schema

import "time"

// StoreStatus represents the status of the board state store.
type StoreStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// HistoryStatus represents the status of the layout history store.
type HistoryStatus struct {
	Backend            string           `json:"backend"`
	Connected          bool             `json:"connected"`
	TotalRuns          int              `json:"total_runs"`
	LastRunID          int64            `json:"last_run_id"`
	LastRunTime        time.Time        `json:"last_run_time"`
	OldestRunTime      time.Time        `json:"oldest_run_time"`
	TotalItemsRecorded int              `json:"total_items_recorded"`
	TableSizes         map[string]int64 `json:"table_sizes"`
}

// ItemPositionRecord represents a row from the boardline_item_positions table.
type ItemPositionRecord struct {
	RunID       int64
	ItemID      string
	ItemDate    time.Time
	PositionPct float64
	Side        string
	Slot        int32
	OffsetPx    float64
	DeltaPx     float64
	YPx         float64
	MarkerIndex int32
}
