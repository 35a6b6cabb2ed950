package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/boardline/internal/boardfile"
	"github.com/huangsam/boardline/internal/iocache"
	"github.com/huangsam/boardline/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func record(id, name, due string) schema.ItemRecord {
	return schema.ItemRecord{
		ID:      id,
		Name:    name,
		Columns: map[string]any{"due": map[string]any{"date": due}},
	}
}

func testSettings() schema.Settings {
	s := schema.DefaultSettings()
	s.DateColumn = "due"
	s.Granularity = schema.WeekScale
	return s
}

func newTestBoard(opts BoardOptions, records ...schema.ItemRecord) *Board {
	tuning := schema.DefaultTuning()
	tuning.SaveDebounce = time.Hour
	opts.Tuning = &tuning
	opts.Clock = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	b := NewBoard("b1", testSettings(), testGeometry, opts)
	b.SetRecords(records)
	return b
}

func TestBoardLayout(t *testing.T) {
	b := newTestBoard(BoardOptions{},
		record("a", "Kickoff", "2025-01-10"),
		record("b", "Beta", "2025-02-01"),
		record("c", "Launch", "2025-03-30"),
		schema.ItemRecord{ID: "d", Name: "Undated", Columns: map[string]any{"due": nil}},
	)

	res, err := b.Layout()
	require.NoError(t, err)

	assert.Equal(t, "b1", res.BoardID)
	assert.Equal(t, window("2024-12-29", "2025-04-11"), res.Window)
	assert.Equal(t, 1, res.Excluded)
	assert.Equal(t, 60.0, res.AnchorLinePx)
	require.Len(t, res.Items, 3)

	require.NotEmpty(t, res.ScaleMarkers)
	assert.Equal(t, 0.0, res.ScaleMarkers[0].PositionPct)
	assert.Equal(t, 100.0, res.ScaleMarkers[len(res.ScaleMarkers)-1].PositionPct)
	assert.Len(t, res.DataMarkers, 5)

	prev := -1.0
	for _, it := range res.Items {
		assert.Greater(t, it.PositionPct, prev)
		prev = it.PositionPct
		assert.Equal(t, schema.SideBelow, it.Placement.Side)
		assert.Equal(t, res.AnchorLinePx+it.Placement.OffsetPx, it.Position.YPx)
		assert.Equal(t, it.Item.Date, res.DataMarkers[it.MarkerIndex].Date)
		assert.False(t, it.HasDelta)
	}
	assert.Equal(t, "Kickoff", res.Items[0].Item.Label)
}

func TestBoardLayoutMissingDateColumn(t *testing.T) {
	b := newTestBoard(BoardOptions{}, record("a", "Kickoff", "2025-01-10"))
	s := b.Settings()
	s.DateColumn = ""
	b.SetSettings(s)

	res, err := b.Layout()
	assert.ErrorIs(t, err, ErrMissingDateColumn)
	assert.Empty(t, res.Items)
	assert.True(t, res.Window.Valid())
}

func TestBoardLayoutLegend(t *testing.T) {
	r1 := record("a", "Kickoff", "2025-01-10")
	r1.Group = "eng"
	r2 := record("b", "Beta", "2025-02-01")
	r2.Group = "eng"
	b := newTestBoard(BoardOptions{}, r1, r2)

	s := b.Settings()
	s.ShowLegend = true
	b.SetSettings(s)

	res, err := b.Layout()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"eng": 2}, res.Groups)
}

func TestBoardHideShrinksWindow(t *testing.T) {
	b := newTestBoard(BoardOptions{},
		record("a", "Kickoff", "2025-01-10"),
		record("b", "Beta", "2025-02-01"),
		record("c", "Launch", "2025-03-30"),
	)
	full, err := b.Layout()
	require.NoError(t, err)

	b.Hide("c")
	hidden, err := b.Layout()
	require.NoError(t, err)
	assert.Len(t, hidden.Items, 2)
	assert.Equal(t, []string{"c"}, hidden.Hidden)
	assert.Equal(t, window("2025-01-06", "2025-02-05"), hidden.Window)
	assert.True(t, hidden.Window.End.Before(full.Window.End))

	b.Unhide("c")
	restored, err := b.Layout()
	require.NoError(t, err)
	assert.Equal(t, full.Window, restored.Window)
	assert.Len(t, restored.Items, 3)

	b.Hide("a", "b")
	b.UnhideAll()
	assert.Empty(t, b.Hidden())
}

func TestBoardDragCommitsDelta(t *testing.T) {
	b := newTestBoard(BoardOptions{}, record("a", "Kickoff", "2025-01-10"), record("b", "Beta", "2025-02-01"))

	g, err := b.BeginDrag(context.Background(), "a", Pointer{X: 500, Y: 100})
	require.NoError(t, err)
	_, ok := g.Move(Pointer{X: 500, Y: 400})
	require.True(t, ok)
	result, err := g.End(Pointer{X: 500, Y: 130})
	require.NoError(t, err)
	assert.InDelta(t, 30, result.DeltaPx, 1e-9)
	assert.False(t, result.DateChanged)

	assert.Equal(t, map[string]float64{"a": 30}, b.Deltas())
	res, err := b.Layout()
	require.NoError(t, err)
	assert.InDelta(t, 60+40+30, res.Items[0].Position.YPx, 1e-9)
	assert.True(t, res.Items[0].HasDelta)
}

func TestBoardVerticalDragOnNarrowContainer(t *testing.T) {
	b := newTestBoard(BoardOptions{}, record("a", "Kickoff", "2025-01-01"), record("b", "Launch", "2025-12-31"))
	b.SetGeometry(schema.Geometry{ContainerWidthPx: 200, ContainerHeightPx: 400, ItemWidthPx: 24, ItemHeightPx: 24})

	res, err := Drag(context.Background(), b, DragRequest{ItemID: "a", DyPx: 20, Reschedule: true})
	require.NoError(t, err)
	assert.InDelta(t, 20, res.DeltaPx, 1e-9)
	assert.False(t, res.DateChanged)
	assert.Equal(t, date("2025-01-01"), res.Date)

	layout, err := b.Layout()
	require.NoError(t, err)
	require.Len(t, layout.Items, 2)
	assert.Equal(t, date("2025-01-01"), layout.Items[0].Item.Date)
}

func TestBoardBeginDragErrors(t *testing.T) {
	b := newTestBoard(BoardOptions{}, record("a", "Kickoff", "2025-01-10"))

	_, err := b.BeginDrag(context.Background(), "nope", Pointer{})
	assert.ErrorIs(t, err, ErrUnknownItem)

	b.Hide("a")
	_, err = b.BeginDrag(context.Background(), "a", Pointer{})
	assert.ErrorIs(t, err, ErrUnknownItem)

	b.UnhideAll()
	b.SetGeometry(schema.Geometry{})
	_, err = b.BeginDrag(context.Background(), "a", Pointer{})
	assert.ErrorIs(t, err, ErrNoContainer)
}

func TestBoardAnchorChangeResetsDeltas(t *testing.T) {
	b := newTestBoard(BoardOptions{}, record("a", "Kickoff", "2025-01-10"))
	g, err := b.BeginDrag(context.Background(), "a", Pointer{X: 500, Y: 100})
	require.NoError(t, err)
	_, err = g.End(Pointer{X: 500, Y: 120})
	require.NoError(t, err)
	require.Len(t, b.Deltas(), 1)

	b.SetAnchorPolicy(schema.AlternateAnchor)
	assert.Empty(t, b.Deltas())

	res, err := b.Layout()
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	it := res.Items[0]
	assert.Equal(t, schema.SideAbove, it.Placement.Side)
	assert.Equal(t, AnchorLineY(schema.AlternateAnchor, testGeometry, schema.DefaultTuning()), res.AnchorLinePx)
	assert.InDelta(t, res.AnchorLinePx-40, it.Position.YPx, 1e-9)
	assert.False(t, it.HasDelta)
}

func TestBoardGeometryChangeResetsOutOfBoundsDelta(t *testing.T) {
	b := newTestBoard(BoardOptions{}, record("a", "Kickoff", "2025-01-10"))
	g, err := b.BeginDrag(context.Background(), "a", Pointer{X: 500, Y: 100})
	require.NoError(t, err)
	_, err = g.End(Pointer{X: 500, Y: 250})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"a": 150}, b.Deltas())

	shorter := testGeometry
	shorter.ContainerHeightPx = 200
	b.SetGeometry(shorter)
	assert.Equal(t, map[string]float64{"a": -10}, b.Deltas())
}

func TestBoardUpdateItemDate(t *testing.T) {
	writer := &boardfile.MockDateWriter{}
	writer.On("UpdateDate", mock.Anything, schema.DateUpdate{ItemID: "a", ColumnID: "due", NewDate: "2025-02-20"}).Return(nil)

	b := newTestBoard(BoardOptions{Writer: writer}, record("a", "Kickoff", "2025-01-10"), record("b", "Beta", "2025-02-01"))
	require.NoError(t, b.UpdateItemDate(context.Background(), "a", date("2025-02-20")))

	writer.AssertExpectations(t)
	assert.Equal(t, map[string]any{"date": "2025-02-20"}, b.Records()[0].Columns["due"])
}

func TestBoardUpdateItemDateRevertsOnFailure(t *testing.T) {
	writer := &boardfile.MockDateWriter{}
	writer.On("UpdateDate", mock.Anything, mock.Anything).Return(errors.New("403"))

	b := newTestBoard(BoardOptions{Writer: writer}, record("a", "Kickoff", "2025-01-10"))
	err := b.UpdateItemDate(context.Background(), "a", date("2025-02-20"))
	assert.ErrorIs(t, err, ErrDateWrite)
	assert.Equal(t, map[string]any{"date": "2025-01-10"}, b.Records()[0].Columns["due"])

	err = b.UpdateItemDate(context.Background(), "zzz", date("2025-02-20"))
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestBoardUpdateItemDateKeepsRangeShape(t *testing.T) {
	from := "2025-01-01"
	rec := schema.ItemRecord{ID: "r", Name: "Sprint", Columns: map[string]any{
		"due": map[string]any{"from": from, "to": "2025-01-14"},
	}}
	b := newTestBoard(BoardOptions{}, rec)

	require.NoError(t, b.UpdateItemDate(context.Background(), "r", date("2025-01-21")))
	assert.Equal(t, map[string]any{"from": from, "to": "2025-01-21"}, b.Records()[0].Columns["due"])
}

func TestBoardReassignDate(t *testing.T) {
	b := newTestBoard(BoardOptions{}, record("a", "Kickoff", "2025-01-10"), record("b", "Beta", "2025-02-01"))
	res, err := b.Layout()
	require.NoError(t, err)

	got, err := b.ReassignDate(context.Background(), "a", 50)
	require.NoError(t, err)
	assert.Equal(t, DateOf(50, res.Window), got)
}

func TestBoardLoadAsync(t *testing.T) {
	store := &iocache.MockBoardStore{}
	store.On("LoadHidden", mock.Anything, "b1").Return([]string{"c"}, nil)
	store.On("LoadDeltas", mock.Anything, "b1").Return(schema.DeltaRecord{
		Anchor: schema.BelowAnchor,
		Deltas: map[string]float64{"a": 20},
	}, nil)
	store.On("SaveHidden", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	store.On("SaveDeltas", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	b := newTestBoard(BoardOptions{Store: store},
		record("a", "Kickoff", "2025-01-10"),
		record("b", "Beta", "2025-02-01"),
		record("c", "Launch", "2025-03-30"),
	)
	<-b.LoadAsync(context.Background())

	assert.Equal(t, []string{"c"}, b.Hidden())
	assert.Equal(t, map[string]float64{"a": 20}, b.Deltas())
	res, err := b.Layout()
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	b.Close()
}

func TestBoardLoadAsyncFailureKeepsDefaults(t *testing.T) {
	store := &iocache.MockBoardStore{}
	store.On("LoadHidden", mock.Anything, "b1").Return(nil, errors.New("offline"))
	store.On("LoadDeltas", mock.Anything, "b1").Return(schema.DeltaRecord{}, errors.New("offline"))

	b := newTestBoard(BoardOptions{Store: store}, record("a", "Kickoff", "2025-01-10"))
	<-b.LoadAsync(context.Background())

	assert.Empty(t, b.Hidden())
	assert.Empty(t, b.Deltas())
	_, err := b.Layout()
	assert.NoError(t, err)
}

func TestBoardCloseFlushesSaves(t *testing.T) {
	store := &iocache.MockBoardStore{}
	store.On("SaveHidden", mock.Anything, "b1", []string{"a"}).Return(nil).Once()

	b := newTestBoard(BoardOptions{Store: store}, record("a", "Kickoff", "2025-01-10"))
	b.Hide("a")
	b.Close()

	store.AssertExpectations(t)
}

func TestBoardResize(t *testing.T) {
	b := newTestBoard(BoardOptions{}, record("a", "Kickoff", "2025-01-10"))
	r := b.BeginResize(Pointer{X: 0, Y: 0})
	size, err := r.End(Pointer{X: -100, Y: 10})
	require.NoError(t, err)
	assert.Equal(t, Size{WidthPx: schema.DefaultMinItemWidthPx, HeightPx: 40}, size)

	b.ApplyItemSize(size)
	assert.Equal(t, 24.0, b.Geometry().ItemWidthPx)
	assert.Equal(t, 40.0, b.Geometry().ItemHeightPx)
}

func TestLoadBoardFromSource(t *testing.T) {
	src := &boardfile.MockItemSource{}
	src.On("BoardID").Return("b1")
	src.On("LoadRecords", mock.Anything).Return([]schema.ItemRecord{
		record("a", "Kickoff", "2025-01-10"),
		record("b", "Launch", "2025-03-01"),
	}, nil)

	store := &iocache.MockBoardStore{}
	store.On("LoadHidden", mock.Anything, "b1").Return([]string{"b"}, nil)
	store.On("LoadDeltas", mock.Anything, "b1").Return(schema.DeltaRecord{}, nil)

	b, err := LoadBoard(context.Background(), src, testSettings(), testGeometry, BoardOptions{Store: store})
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, "b1", b.ID())
	assert.Equal(t, []string{"b"}, b.Hidden())
	res, err := b.Layout()
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "a", res.Items[0].Item.ID)
	src.AssertExpectations(t)
}

func TestLoadBoardSourceError(t *testing.T) {
	src := &boardfile.MockItemSource{}
	src.On("BoardID").Return("b1")
	src.On("LoadRecords", mock.Anything).Return(nil, errors.New("platform unavailable"))

	_, err := LoadBoard(context.Background(), src, testSettings(), testGeometry, BoardOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "platform unavailable")
}
