// Package contract provides interfaces and shared utilities for boardline's internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/boardline/schema"
)

// ItemSource supplies the item records of one board.
// This allows the layout engine to be tested without a real board file or platform API.
type ItemSource interface {
	// BoardID returns the identifier that persisted state is keyed by.
	BoardID() string

	// LoadRecords returns every item record on the board.
	LoadRecords(ctx context.Context) ([]schema.ItemRecord, error)
}

// DateWriter writes an edited item date back to the host platform.
type DateWriter interface {
	UpdateDate(ctx context.Context, update schema.DateUpdate) error
}

// BoardStore persists the hidden-item set and vertical deltas of each board.
// Gets return the empty default when nothing was saved; sets are last-writer-wins.
type BoardStore interface {
	LoadHidden(ctx context.Context, boardID string) ([]string, error)
	SaveHidden(ctx context.Context, boardID string, ids []string) error
	LoadDeltas(ctx context.Context, boardID string) (schema.DeltaRecord, error)
	SaveDeltas(ctx context.Context, boardID string, record schema.DeltaRecord) error
}

// StoreManager defines the interface for managing persistence stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetStateStore() BoardStore
	GetHistoryStore() HistoryStore
}

// KVStore defines the interface for the generic key/value table behind board state.
type KVStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	Delete(key string) error
	GetStatus() (schema.StoreStatus, error)
	Close() error
}

// HistoryStore defines the interface for recording layout runs and item positions.
type HistoryStore interface {
	// BeginRun creates a new layout run and returns its unique ID
	BeginRun(boardID string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the layout run with completion data
	EndRun(runID int64, endTime time.Time, totalItems int, window schema.TimeWindow) error

	// RecordItemPosition stores the resolved position of one item
	RecordItemPosition(runID int64, record schema.ItemPositionRecord) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllLayoutRuns retrieves all layout runs
	GetAllLayoutRuns() ([]schema.LayoutRunRecord, error)

	// GetAllItemPositions retrieves all recorded item positions
	GetAllItemPositions() ([]schema.ItemPositionRecord, error)

	// Close closes the underlying connection
	Close() error
}
