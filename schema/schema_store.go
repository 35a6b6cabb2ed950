package schema

import "time"

// LayoutRunRecord represents a row from the boardline_layout_runs table.
type LayoutRunRecord struct {
	RunID         int64
	BoardID       string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalItems    int32
	WindowStart   time.Time
	WindowEnd     time.Time
	ConfigParams  *string
}
