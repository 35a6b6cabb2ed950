// Package core has the timeline layout engine and the command entry points built on it.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/boardline/internal/boardfile"
	"github.com/huangsam/boardline/internal/contract"
	"github.com/huangsam/boardline/internal/outwriter"
	"github.com/huangsam/boardline/schema"
)

// ExecutorFunc defines the function signature for read-only board commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// newOutWriter is swapped in tests to capture output.
var newOutWriter = outwriter.NewOutWriter

// DragRequest moves one item by a pointer displacement in container pixels.
type DragRequest struct {
	ItemID     string
	DxPx       float64
	DyPx       float64
	Reschedule bool // Write back the date implied by the drop position
}

// RescheduleRequest moves one item to a new date, given directly or as a horizontal position.
type RescheduleRequest struct {
	ItemID string
	Date   time.Time
	AtPct  *float64
}

// OpenBoard loads the board file named by cfg and merges persisted state into it.
// The caller must Close the board so pending saves are flushed.
func OpenBoard(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (*Board, error) {
	fb, err := boardfile.Open(cfg.BoardPath)
	if err != nil {
		return nil, err
	}

	settings := cfg.Settings
	if settings.DateColumn == "" {
		settings.DateColumn = fb.DateColumn()
	}

	var store contract.BoardStore
	if mgr != nil {
		store = mgr.GetStateStore()
	}
	tuning := cfg.Tuning
	return LoadBoard(ctx, fb, settings, cfg.Geometry, BoardOptions{
		Store:  store,
		Writer: fb,
		Tuning: &tuning,
		Clock:  cfg.Clock(),
	})
}

// LoadBoard builds a board from an item source and waits for its persisted state.
// A one-shot caller renders once, so it must not race the background load.
func LoadBoard(ctx context.Context, src contract.ItemSource, settings schema.Settings, geometry schema.Geometry, opts BoardOptions) (*Board, error) {
	records, err := src.LoadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load records of board %s: %w", src.BoardID(), err)
	}

	b := NewBoard(src.BoardID(), settings, geometry, opts)
	b.SetRecords(records)

	select {
	case <-b.LoadAsync(ctx):
	case <-ctx.Done():
		b.Close()
		return nil, ctx.Err()
	}
	contract.LogDebug("Opened board %s with %d records", b.ID(), len(records))
	return b, nil
}

// BuildLayout runs a layout pass and records it in the history store when one is configured.
// A missing date column is reported as a warning and yields the empty placeholder result.
func BuildLayout(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, b *Board) (schema.LayoutResult, error) {
	start := time.Now()
	result, err := b.Layout()
	if errors.Is(err, ErrMissingDateColumn) {
		contract.LogWarn("Board "+b.ID()+" cannot be laid out", err)
		return result, nil
	}
	if err != nil {
		return result, err
	}
	recordLayout(withStoreManager(ctx, mgr), cfg, start, result)
	return result, nil
}

// ExecuteLayout prints the layout of a board. It serves as the entry point for the 'layout' command.
func ExecuteLayout(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	b, err := OpenBoard(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	defer b.Close()
	return renderLayout(ctx, cfg, mgr, b, start)
}

// ExecuteMarkers prints the scale and data markers of a board.
func ExecuteMarkers(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	b, err := OpenBoard(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	defer b.Close()

	result, err := b.Layout()
	if errors.Is(err, ErrMissingDateColumn) {
		contract.LogWarn("Board "+b.ID()+" cannot be laid out", err)
	} else if err != nil {
		return err
	}
	return newOutWriter().WriteMarkers(result, cfg)
}

// ExecuteHide hides items and prints the resulting layout.
func ExecuteHide(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, ids []string) error {
	start := time.Now()
	b, err := OpenBoard(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := RequireKnown(b, ids); err != nil {
		return err
	}
	b.Hide(ids...)
	newOutWriter().WriteNotice(cfg, "🙈", "Hid %s on board %s", schema.FormatIDs(ids), b.ID())
	return renderLayout(ctx, cfg, mgr, b, start)
}

// ExecuteUnhide restores hidden items, or every hidden item when all is set.
func ExecuteUnhide(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, ids []string, all bool) error {
	start := time.Now()
	b, err := OpenBoard(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	defer b.Close()

	ow := newOutWriter()
	if all {
		n := len(b.Hidden())
		b.UnhideAll()
		ow.WriteNotice(cfg, "👀", "Restored %d hidden items on board %s", n, b.ID())
	} else {
		if err := RequireKnown(b, ids); err != nil {
			return err
		}
		restored := hiddenAmong(b, ids)
		b.Unhide(ids...)
		if len(restored) == 0 {
			ow.WriteNotice(cfg, "👀", "None of %s was hidden on board %s", schema.FormatIDs(ids), b.ID())
		} else {
			ow.WriteNotice(cfg, "👀", "Restored %s on board %s", schema.FormatIDs(restored), b.ID())
		}
	}
	return renderLayout(ctx, cfg, mgr, b, start)
}

// ExecuteDrag replays a drag gesture from the item's current position and commits the drop.
func ExecuteDrag(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, req DragRequest) error {
	start := time.Now()
	b, err := OpenBoard(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	defer b.Close()

	res, err := Drag(ctx, b, req)
	if err != nil {
		return err
	}

	ow := newOutWriter()
	ow.WriteNotice(cfg, "↕️", "Moved %s to offset %.1fpx (delta %.1fpx)", res.ItemID, res.OffsetPx, res.DeltaPx)
	if res.DateChanged {
		if req.Reschedule {
			ow.WriteNotice(cfg, "📅", "Rescheduled %s to %s", res.ItemID, res.Date.Format(schema.DateLayout))
		} else {
			ow.WriteNotice(cfg, "📅", "Drop position implies %s for %s; pass --reschedule to apply it", res.Date.Format(schema.DateLayout), res.ItemID)
		}
	}
	return renderLayout(ctx, cfg, mgr, b, start)
}

// Drag runs a full gesture for req on b. With Reschedule set, a drop on a
// different day also writes the new date back.
func Drag(ctx context.Context, b *Board, req DragRequest) (DragResult, error) {
	g, err := b.BeginDrag(ctx, req.ItemID, Pointer{})
	if err != nil {
		return DragResult{}, err
	}
	res, err := g.End(Pointer{X: req.DxPx, Y: req.DyPx})
	if err != nil {
		return DragResult{}, err
	}
	if res.DateChanged && req.Reschedule {
		if err := b.UpdateItemDate(ctx, res.ItemID, res.Date); err != nil {
			return res, err
		}
	}
	return res, nil
}

// ExecuteReschedule moves an item to a new date and writes it back to the board file.
func ExecuteReschedule(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, req RescheduleRequest) error {
	start := time.Now()
	b, err := OpenBoard(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	defer b.Close()

	date, err := Reschedule(ctx, b, req)
	if err != nil {
		return err
	}
	newOutWriter().WriteNotice(cfg, "📅", "Rescheduled %s to %s", req.ItemID, date.Format(schema.DateLayout))
	return renderLayout(ctx, cfg, mgr, b, start)
}

// Reschedule applies req to b and returns the date the item now carries.
func Reschedule(ctx context.Context, b *Board, req RescheduleRequest) (time.Time, error) {
	if req.AtPct != nil {
		return b.ReassignDate(ctx, req.ItemID, *req.AtPct)
	}
	date := DateOnly(req.Date)
	return date, b.UpdateItemDate(ctx, req.ItemID, date)
}

// renderLayout builds, records and prints the current layout of b.
func renderLayout(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, b *Board, start time.Time) error {
	result, err := BuildLayout(ctx, cfg, mgr, b)
	if err != nil {
		return err
	}
	return newOutWriter().WriteLayout(result, cfg, time.Since(start))
}

// RequireKnown fails with ErrUnknownItem for ids that are not records of the board.
func RequireKnown(b *Board, ids []string) error {
	known := make(map[string]struct{})
	for _, r := range b.Records() {
		known[r.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownItem, id)
		}
	}
	return nil
}

// hiddenAmong returns the ids that are currently hidden on b, in request order.
func hiddenAmong(b *Board, ids []string) []string {
	hidden := make(map[string]struct{})
	for _, id := range b.Hidden() {
		hidden[id] = struct{}{}
	}
	var out []string
	for _, id := range ids {
		if _, ok := hidden[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// recordLayout stores a layout pass in the history store. Failures are logged and swallowed.
func recordLayout(ctx context.Context, cfg *contract.Config, start time.Time, result schema.LayoutResult) {
	mgr := storeManagerFromContext(ctx)
	if mgr == nil {
		return
	}
	historyStore := mgr.GetHistoryStore()
	if historyStore == nil {
		return
	}

	runID, err := historyStore.BeginRun(result.BoardID, start, layoutParams(cfg, result))
	if err != nil {
		contract.LogWarn("Layout history initialization failed", err)
		return
	}
	ctx = withRunID(ctx, runID)

	for _, it := range result.Items {
		recordItemPosition(ctx, historyStore, it)
	}

	if err := historyStore.EndRun(runID, time.Now(), len(result.Items), result.Window); err != nil {
		contract.LogWarn("Failed to finalize layout history", err)
	}
}

func recordItemPosition(ctx context.Context, historyStore contract.HistoryStore, it schema.ItemLayout) {
	runID, ok := getRunID(ctx)
	if !ok {
		return
	}
	record := schema.ItemPositionRecord{
		RunID:       runID,
		ItemID:      it.Item.ID,
		ItemDate:    it.Item.Date,
		PositionPct: it.PositionPct,
		Side:        string(it.Placement.Side),
		Slot:        int32(it.Placement.Slot),
		OffsetPx:    it.Placement.OffsetPx,
		DeltaPx:     it.DeltaPx,
		YPx:         it.Position.YPx,
		MarkerIndex: int32(it.MarkerIndex),
	}
	if err := historyStore.RecordItemPosition(runID, record); err != nil {
		contract.LogWarn(fmt.Sprintf("Layout history failed for item %s", it.Item.ID), err)
	}
}

// layoutParams is the settings snapshot stored with each run.
func layoutParams(cfg *contract.Config, result schema.LayoutResult) map[string]any {
	params := map[string]any{
		"date_column":      result.Settings.DateColumn,
		"scale":            string(result.Settings.Granularity),
		"anchor":           string(result.Settings.Anchor),
		"shape":            string(result.Settings.Shape),
		"container_width":  result.Geometry.ContainerWidthPx,
		"container_height": result.Geometry.ContainerHeightPx,
		"hidden":           len(result.Hidden),
		"excluded":         result.Excluded,
	}
	if cfg != nil {
		params["board_path"] = cfg.BoardPath
	}
	return params
}
