// Package parquet provides data structures and functions for exporting boardline
// layout data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/boardline/schema"
	"github.com/parquet-go/parquet-go"
)

// LayoutRun is one recorded layout pass over a board.
// This struct maps to the boardline_layout_runs database table.
type LayoutRun struct {
	RunID   int64  `parquet:"run_id,snappy"`
	BoardID string `parquet:"board_id,snappy"`

	StartTime     time.Time  `parquet:"start_time,snappy"`
	EndTime       *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs *int32     `parquet:"run_duration_ms,optional,snappy"`

	// TotalItems is the number of visible items laid out in this run
	TotalItems int32 `parquet:"total_items,snappy"`

	WindowStart time.Time `parquet:"window_start,snappy"`
	WindowEnd   time.Time `parquet:"window_end,snappy"`

	// ConfigParams contains the JSON-encoded settings of the run (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// ItemPosition is the resolved position of one item in a recorded run.
// This struct maps to the boardline_item_positions database table.
type ItemPosition struct {
	RunID       int64     `parquet:"run_id,snappy"`
	ItemID      string    `parquet:"item_id,snappy"`
	ItemDate    time.Time `parquet:"item_date,snappy"`
	PositionPct float64   `parquet:"position_pct,snappy"`
	Side        string    `parquet:"side,dict,snappy"`
	Slot        int32     `parquet:"slot,snappy"`
	OffsetPx    float64   `parquet:"offset_px,snappy"`
	DeltaPx     float64   `parquet:"delta_px,snappy"`
	YPx         float64   `parquet:"y_px,snappy"`
	MarkerIndex int32     `parquet:"marker_index,snappy"`
}

// LayoutItem is one row of a rendered layout, as written by the parquet output mode.
type LayoutItem struct {
	BoardID     string    `parquet:"board_id,dict,snappy"`
	ItemID      string    `parquet:"item_id,snappy"`
	Label       string    `parquet:"label,snappy"`
	Group       *string   `parquet:"group,optional,dict,snappy"`
	ItemDate    time.Time `parquet:"item_date,snappy"`
	PositionPct float64   `parquet:"position_pct,snappy"`
	Side        string    `parquet:"side,dict,snappy"`
	Slot        int32     `parquet:"slot,snappy"`
	OffsetPx    float64   `parquet:"offset_px,snappy"`
	DeltaPx     float64   `parquet:"delta_px,snappy"`
	XPct        float64   `parquet:"x_pct,snappy"`
	YPx         float64   `parquet:"y_px,snappy"`
	ZIndex      int32     `parquet:"z_index,snappy"`
}

// WriteLayoutRunsParquet writes layout runs to a Parquet file.
func WriteLayoutRunsParquet(data []LayoutRun, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteItemPositionsParquet writes item positions to a Parquet file.
func WriteItemPositionsParquet(data []ItemPosition, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteLayoutItems writes layout rows to w.
func WriteLayoutItems(w io.Writer, data []LayoutItem) error {
	return write(w, data)
}

func writeFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(file, data); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// write derives the schema from the struct tags of T.
func write[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

// ConvertLayoutRunRecords converts stored layout runs for Parquet export.
func ConvertLayoutRunRecords(records []schema.LayoutRunRecord) []LayoutRun {
	result := make([]LayoutRun, len(records))
	for i, record := range records {
		result[i] = LayoutRun{
			RunID:         record.RunID,
			BoardID:       record.BoardID,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalItems:    record.TotalItems,
			WindowStart:   record.WindowStart,
			WindowEnd:     record.WindowEnd,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertItemPositionRecords converts stored item positions for Parquet export.
func ConvertItemPositionRecords(records []schema.ItemPositionRecord) []ItemPosition {
	result := make([]ItemPosition, len(records))
	for i, record := range records {
		result[i] = ItemPosition(record)
	}
	return result
}

// ConvertLayoutResult flattens a layout into one row per visible item.
func ConvertLayoutResult(result schema.LayoutResult) []LayoutItem {
	rows := make([]LayoutItem, len(result.Items))
	for i, it := range result.Items {
		var group *string
		if it.Item.Group != "" {
			g := it.Item.Group
			group = &g
		}
		rows[i] = LayoutItem{
			BoardID:     result.BoardID,
			ItemID:      it.Item.ID,
			Label:       it.Item.Label,
			Group:       group,
			ItemDate:    it.Item.Date,
			PositionPct: it.PositionPct,
			Side:        string(it.Placement.Side),
			Slot:        int32(it.Placement.Slot),
			OffsetPx:    it.Placement.OffsetPx,
			DeltaPx:     it.DeltaPx,
			XPct:        it.Position.XPct,
			YPx:         it.Position.YPx,
			ZIndex:      int32(it.Position.ZIndex),
		}
	}
	return rows
}
