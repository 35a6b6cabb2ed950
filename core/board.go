package core

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"sync"
	"time"

	"github.com/huangsam/boardline/internal/contract"
	"github.com/huangsam/boardline/schema"
)

// BoardOptions wires a Board to its collaborators. Every field is optional.
type BoardOptions struct {
	Store  contract.BoardStore // Persistence for hidden items and deltas
	Writer contract.DateWriter // Date write-back target
	Tuning *schema.Tuning      // Defaults to schema.DefaultTuning
	Clock  func() time.Time    // Defaults to time.Now
}

// Board is the state container of one timeline.
// It owns the records, settings, geometry, hidden set and deltas. All writes go
// through its methods, and a layout pass always observes one consistent snapshot.
type Board struct {
	mu       sync.RWMutex
	id       string
	records  []schema.ItemRecord
	settings schema.Settings
	geometry schema.Geometry
	tuning   schema.Tuning
	clock    func() time.Time
	writer   contract.DateWriter
	saver    *saver
	filter   *VisibilityFilter
	recon    *Reconciler
	loads    sync.WaitGroup
}

// NewBoard creates a board with the given settings and container geometry.
func NewBoard(id string, settings schema.Settings, geometry schema.Geometry, opts BoardOptions) *Board {
	tuning := schema.DefaultTuning()
	if opts.Tuning != nil {
		tuning = *opts.Tuning
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	settings = NormalizeSettings(settings)
	sv := newSaver(tuning.SaveDebounce)

	return &Board{
		id:       id,
		settings: settings,
		geometry: geometry,
		tuning:   tuning,
		clock:    clock,
		writer:   opts.Writer,
		saver:    sv,
		filter:   NewVisibilityFilter(id, opts.Store, sv),
		recon:    NewReconciler(id, settings.Anchor, opts.Store, sv),
	}
}

// NormalizeSettings fills empty or unknown settings with defaults.
func NormalizeSettings(s schema.Settings) schema.Settings {
	def := schema.DefaultSettings()
	if _, ok := schema.ValidGranularities[s.Granularity]; !ok {
		s.Granularity = def.Granularity
	}
	if _, ok := schema.ValidAnchorPolicies[s.Anchor]; !ok {
		s.Anchor = def.Anchor
	}
	if _, ok := schema.ValidItemShapes[s.Shape]; !ok {
		s.Shape = def.Shape
	}
	if s.ItemSizePx <= 0 {
		s.ItemSizePx = def.ItemSizePx
	}
	return s
}

// ID returns the board identifier.
func (b *Board) ID() string { return b.id }

// Settings returns the current settings.
func (b *Board) Settings() schema.Settings {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.settings
}

// Geometry returns the current container geometry.
func (b *Board) Geometry() schema.Geometry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.geometry
}

// Records returns a copy of the current records.
func (b *Board) Records() []schema.ItemRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneRecords(b.records)
}

// Hidden returns the sorted hidden ids.
func (b *Board) Hidden() []string {
	return b.filter.Hidden()
}

// Deltas returns a copy of the stored vertical deltas.
func (b *Board) Deltas() map[string]float64 {
	return b.recon.Snapshot()
}

// SetRecords replaces the item records.
func (b *Board) SetRecords(records []schema.ItemRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = cloneRecords(records)
	b.reconcileLocked()
}

// SetSettings replaces the settings. A new anchor policy clears every delta.
func (b *Board) SetSettings(s schema.Settings) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s = NormalizeSettings(s)
	anchorChanged := s.Anchor != b.settings.Anchor
	b.settings = s
	if anchorChanged {
		b.recon.OnAnchorPolicyChange(s.Anchor)
	}
	b.reconcileLocked()
}

// SetAnchorPolicy changes only the anchor policy.
func (b *Board) SetAnchorPolicy(policy schema.AnchorPolicy) {
	s := b.Settings()
	s.Anchor = policy
	b.SetSettings(s)
}

// SetGeometry records a new container size and re-checks stored deltas against it.
func (b *Board) SetGeometry(g schema.Geometry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.geometry = g
	b.reconcileLocked()
}

// Hide excludes items from the timeline.
func (b *Board) Hide(ids ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.filter.Hide(ids...) {
		b.reconcileLocked()
	}
}

// Unhide restores hidden items.
func (b *Board) Unhide(ids ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.filter.Unhide(ids...) {
		b.reconcileLocked()
	}
}

// UnhideAll restores every hidden item.
func (b *Board) UnhideAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.filter.UnhideAll() {
		b.reconcileLocked()
	}
}

// LoadAsync loads persisted state in the background. Layout keeps working on
// in-memory state meanwhile; the returned channel closes once the load is merged.
func (b *Board) LoadAsync(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	b.loads.Add(1)
	go func() {
		defer b.loads.Done()
		defer close(done)
		if err := b.filter.Load(ctx); err != nil {
			contract.LogWarn("Failed to load hidden items", err)
		}
		if err := b.recon.Load(ctx); err != nil {
			contract.LogWarn("Failed to load item positions", err)
		}
		b.mu.Lock()
		b.reconcileLocked()
		b.mu.Unlock()
	}()
	return done
}

// Close waits for background loads and flushes pending saves.
func (b *Board) Close() {
	b.loads.Wait()
	b.saver.Flush()
}

// pass is the intermediate state of one layout computation.
type pass struct {
	visible    []schema.TimelineItem
	excluded   int
	window     schema.TimeWindow
	positioned []schema.PositionedItem
	placements []schema.Placement
}

func (b *Board) computeLocked(hidden []string) (pass, error) {
	items, excluded, err := ExtractItems(b.records, b.settings.DateColumn)
	if err != nil {
		return pass{}, err
	}
	visible := visibleExcept(items, hidden)
	window := ComputeWindow(visible, b.clock())
	positioned := PositionItems(visible, window)
	placements := ResolvePlacements(positioned, b.settings.Anchor, NewPlacementConfig(b.tuning, b.geometry))
	return pass{
		visible:    visible,
		excluded:   excluded,
		window:     window,
		positioned: positioned,
		placements: placements,
	}, nil
}

// Layout runs one render pass over the current state.
// A missing date column yields an empty placeholder result and ErrMissingDateColumn.
func (b *Board) Layout() (schema.LayoutResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	hidden := b.filter.Hidden()
	deltas := b.recon.Snapshot()
	result := schema.LayoutResult{
		BoardID:      b.id,
		Settings:     b.settings,
		Geometry:     b.geometry,
		AnchorLinePx: AnchorLineY(b.settings.Anchor, b.geometry, b.tuning),
		Hidden:       hidden,
		Items:        []schema.ItemLayout{},
	}

	p, err := b.computeLocked(hidden)
	if err != nil {
		result.Window = ComputeWindow(nil, b.clock())
		return result, err
	}

	result.Window = p.window
	result.Excluded = p.excluded
	result.ScaleMarkers = ScaleMarkers(p.window, b.settings.Granularity)
	result.DataMarkers = DataMarkers(p.visible, p.window)
	if b.settings.ShowLegend {
		result.Groups = schema.CountGroups(p.visible)
	}

	mapping := MapItemsToMarkers(p.positioned, result.DataMarkers)
	byID := make(map[string]schema.PositionedItem, len(p.positioned))
	for _, it := range p.positioned {
		byID[it.ID] = it
	}

	maxExcursion := b.tuning.MaxExcursionPx
	for _, pl := range p.placements {
		it := byID[pl.ItemID]
		delta, hasDelta := deltas[pl.ItemID]
		markerIdx, ok := mapping[pl.ItemID]
		if !ok {
			markerIdx = -1
		}
		result.Items = append(result.Items, schema.ItemLayout{
			Item:        it.TimelineItem,
			PositionPct: it.PositionPct,
			Placement:   pl,
			DeltaPx:     delta,
			HasDelta:    hasDelta,
			Position: schema.RenderPosition{
				XPct:   it.PositionPct,
				YPx:    result.AnchorLinePx + ComposeOffset(pl.OffsetPx, delta, maxExcursion),
				ZIndex: pl.Ordinal + 1,
			},
			MarkerIndex: markerIdx,
		})
	}
	return result, nil
}

// BeginDrag starts a drag gesture for a visible item.
// Cancelling ctx releases the gesture, as when pointer capture is lost.
func (b *Board) BeginDrag(ctx context.Context, itemID string, start Pointer) (*DragGesture, error) {
	b.mu.RLock()
	target, err := b.dragTargetLocked(itemID)
	b.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return newDragGesture(ctx, target, start, b.Geometry, b.commitDelta), nil
}

func (b *Board) dragTargetLocked(itemID string) (dragTarget, error) {
	if !b.geometry.Mounted() {
		return dragTarget{}, ErrNoContainer
	}
	p, err := b.computeLocked(b.filter.Hidden())
	if err != nil {
		return dragTarget{}, err
	}
	for _, pl := range p.placements {
		if pl.ItemID != itemID {
			continue
		}
		bounds, err := ComputeDragBounds(b.settings.Anchor, pl.Side, b.geometry, b.tuning)
		if err != nil {
			return dragTarget{}, err
		}
		delta, _ := b.recon.Delta(itemID)
		item := findPositioned(p.positioned, itemID)
		return dragTarget{
			itemID:        itemID,
			itemDate:      item.Date,
			startXPct:     item.PositionPct,
			defaultOffset: pl.OffsetPx,
			startDelta:    delta,
			bounds:        bounds,
			window:        p.window,
			maxExcursion:  b.tuning.MaxExcursionPx,
		}, nil
	}
	return dragTarget{}, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
}

func (b *Board) commitDelta(itemID string, delta float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recon.Commit(itemID, delta)
}

// BeginResize starts resizing the item cards from their current size.
func (b *Board) BeginResize(start Pointer) *ResizeGesture {
	g := b.Geometry()
	return NewResizeGesture(
		Size{WidthPx: g.ItemWidthPx, HeightPx: g.ItemHeightPx},
		start,
		Size{WidthPx: b.tuning.MinItemWidthPx, HeightPx: b.tuning.MinItemHeightPx},
	)
}

// ApplyItemSize stores the item card size produced by a resize gesture.
func (b *Board) ApplyItemSize(size Size) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.geometry.ItemWidthPx = size.WidthPx
	b.geometry.ItemHeightPx = size.HeightPx
	b.reconcileLocked()
}

// ReassignDate moves an item to the date implied by a horizontal position.
func (b *Board) ReassignDate(ctx context.Context, itemID string, xPct float64) (time.Time, error) {
	b.mu.RLock()
	p, err := b.computeLocked(b.filter.Hidden())
	b.mu.RUnlock()
	if err != nil {
		return time.Time{}, err
	}
	date := DateOf(xPct, p.window)
	return date, b.UpdateItemDate(ctx, itemID, date)
}

// UpdateItemDate applies a new date to an item right away and writes it back.
// If the write-back fails the change is reverted and ErrDateWrite is returned.
// Failed writes are not retried.
func (b *Board) UpdateItemDate(ctx context.Context, itemID string, date time.Time) error {
	b.mu.Lock()
	column := b.settings.DateColumn
	if column == "" {
		b.mu.Unlock()
		return ErrMissingDateColumn
	}
	idx := b.indexLocked(itemID)
	if idx < 0 {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	prev, hadPrev := b.records[idx].Columns[column]
	field, err := schema.ClassifyDateField(prev)
	if err != nil {
		field = nil
	}
	next := schema.EncodeDateField(schema.WithDate(field, date))
	b.setColumnLocked(idx, column, next, true)
	b.reconcileLocked()
	b.mu.Unlock()

	if b.writer == nil {
		return nil
	}
	update := schema.DateUpdate{ItemID: itemID, ColumnID: column, NewDate: DateOnly(date).Format(schema.DateLayout)}
	if err := b.writer.UpdateDate(ctx, update); err != nil {
		b.mu.Lock()
		if idx := b.indexLocked(itemID); idx >= 0 && reflect.DeepEqual(b.records[idx].Columns[column], next) {
			b.setColumnLocked(idx, column, prev, hadPrev)
			b.reconcileLocked()
		}
		b.mu.Unlock()
		return fmt.Errorf("%w: item %s: %w", ErrDateWrite, itemID, err)
	}
	return nil
}

func (b *Board) indexLocked(itemID string) int {
	for i, r := range b.records {
		if r.ID == itemID {
			return i
		}
	}
	return -1
}

// setColumnLocked swaps in a fresh column map so earlier snapshots stay intact.
func (b *Board) setColumnLocked(idx int, column string, value any, present bool) {
	cols := maps.Clone(b.records[idx].Columns)
	if cols == nil {
		cols = make(map[string]any)
	}
	if present {
		cols[column] = value
	} else {
		delete(cols, column)
	}
	b.records[idx].Columns = cols
}

// reconcileLocked resets stored deltas that fall outside the current bounds.
func (b *Board) reconcileLocked() {
	if !b.geometry.Mounted() {
		return
	}
	p, err := b.computeLocked(b.filter.Hidden())
	if err != nil {
		return
	}
	anchor, geometry, tuning := b.settings.Anchor, b.geometry, b.tuning
	b.recon.ApplyDefaultsForOutOfBounds(p.placements, func(pl schema.Placement) (DragBounds, bool) {
		bounds, err := ComputeDragBounds(anchor, pl.Side, geometry, tuning)
		return bounds, err == nil
	}, tuning)
}

func visibleExcept(items []schema.TimelineItem, hidden []string) []schema.TimelineItem {
	if len(hidden) == 0 {
		return items
	}
	set := make(map[string]struct{}, len(hidden))
	for _, id := range hidden {
		set[id] = struct{}{}
	}
	out := make([]schema.TimelineItem, 0, len(items))
	for _, it := range items {
		if _, ok := set[it.ID]; !ok {
			out = append(out, it)
		}
	}
	return out
}

func findPositioned(items []schema.PositionedItem, id string) schema.PositionedItem {
	for _, it := range items {
		if it.ID == id {
			return it
		}
	}
	return schema.PositionedItem{}
}

func cloneRecords(records []schema.ItemRecord) []schema.ItemRecord {
	out := make([]schema.ItemRecord, len(records))
	for i, r := range records {
		out[i] = r
		out[i].Columns = maps.Clone(r.Columns)
	}
	return out
}
