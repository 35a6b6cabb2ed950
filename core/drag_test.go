package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/boardline/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGeometry = schema.Geometry{
	ContainerWidthPx:  1000,
	ContainerHeightPx: 400,
	ItemWidthPx:       40,
	ItemHeightPx:      30,
}

func TestAnchorLineY(t *testing.T) {
	tuning := schema.DefaultTuning()
	tests := []struct {
		policy schema.AnchorPolicy
		want   float64
	}{
		{schema.AboveAnchor, 340},
		{schema.BelowAnchor, 60},
		{schema.AlternateAnchor, 240},
		{schema.CenterAnchor, 200},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			assert.InDelta(t, tt.want, AnchorLineY(tt.policy, testGeometry, tuning), 1e-9)
		})
	}
}

func TestComputeDragBounds(t *testing.T) {
	tuning := schema.DefaultTuning()
	tests := []struct {
		name   string
		policy schema.AnchorPolicy
		side   schema.Side
		want   DragBounds
	}{
		{
			name:   "below limited by space above the line and the cap",
			policy: schema.BelowAnchor,
			side:   schema.SideBelow,
			want:   DragBounds{MinXPct: 7, MaxXPct: 93, MinOffsetPx: -30, MaxOffsetPx: 200},
		},
		{
			name:   "above mirrors below",
			policy: schema.AboveAnchor,
			side:   schema.SideAbove,
			want:   DragBounds{MinXPct: 7, MaxXPct: 93, MinOffsetPx: -200, MaxOffsetPx: 30},
		},
		{
			name:   "alternate item above the line",
			policy: schema.AlternateAnchor,
			side:   schema.SideAbove,
			want:   DragBounds{MinXPct: 7, MaxXPct: 93, MinOffsetPx: -200, MaxOffsetPx: 20},
		},
		{
			name:   "alternate item below the line",
			policy: schema.AlternateAnchor,
			side:   schema.SideBelow,
			want:   DragBounds{MinXPct: 7, MaxXPct: 93, MinOffsetPx: -20, MaxOffsetPx: 135},
		},
		{
			name:   "center item above the line",
			policy: schema.CenterAnchor,
			side:   schema.SideAbove,
			want:   DragBounds{MinXPct: 7, MaxXPct: 93, MinOffsetPx: -160, MaxOffsetPx: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeDragBounds(tt.policy, tt.side, testGeometry, tuning)
			require.NoError(t, err)
			assert.InDelta(t, tt.want.MinXPct, got.MinXPct, 1e-9)
			assert.InDelta(t, tt.want.MaxXPct, got.MaxXPct, 1e-9)
			assert.InDelta(t, tt.want.MinOffsetPx, got.MinOffsetPx, 1e-9)
			assert.InDelta(t, tt.want.MaxOffsetPx, got.MaxOffsetPx, 1e-9)
		})
	}
}

func TestComputeDragBoundsSmallContainer(t *testing.T) {
	g := schema.Geometry{ContainerWidthPx: 40, ContainerHeightPx: 50, ItemWidthPx: 40, ItemHeightPx: 30}
	got, err := ComputeDragBounds(schema.CenterAnchor, schema.SideBelow, g, schema.DefaultTuning())
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.MinXPct)
	assert.Equal(t, 50.0, got.MaxXPct)
	assert.Equal(t, 0.0, got.MinOffsetPx)
	assert.Equal(t, 0.0, got.MaxOffsetPx)
}

func TestComputeDragBoundsNoContainer(t *testing.T) {
	_, err := ComputeDragBounds(schema.BelowAnchor, schema.SideBelow, schema.Geometry{}, schema.DefaultTuning())
	assert.ErrorIs(t, err, ErrNoContainer)
}

type commitRecorder struct {
	mu      sync.Mutex
	commits map[string]float64
}

func (c *commitRecorder) commit(id string, delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.commits == nil {
		c.commits = map[string]float64{}
	}
	c.commits[id] = delta
}

func (c *commitRecorder) get() map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commits
}

func testTarget() dragTarget {
	return dragTarget{
		itemID:        "a",
		itemDate:      date("2025-01-16"),
		startXPct:     50,
		defaultOffset: 40,
		bounds:        DragBounds{MinXPct: 7, MaxXPct: 93, MinOffsetPx: -30, MaxOffsetPx: 200},
		window:        window("2025-01-01", "2025-01-31"),
		maxExcursion:  200,
	}
}

func TestDragGestureLifecycle(t *testing.T) {
	rec := &commitRecorder{}
	geo := func() schema.Geometry { return testGeometry }
	g := newDragGesture(context.Background(), testTarget(), Pointer{X: 500, Y: 100}, geo, rec.commit)
	assert.Equal(t, GestureDragging, g.State())

	frame, ok := g.Move(Pointer{X: 600, Y: 150})
	require.True(t, ok)
	assert.InDelta(t, 60, frame.XPct, 1e-9)
	assert.InDelta(t, 90, frame.OffsetPx, 1e-9)

	frame, _ = g.Move(Pointer{X: 2000, Y: 1000})
	assert.InDelta(t, 93, frame.XPct, 1e-9)
	assert.InDelta(t, 200, frame.OffsetPx, 1e-9)

	// The latest move wins; nothing accumulates.
	frame, _ = g.Move(Pointer{X: 500, Y: 100})
	assert.InDelta(t, 50, frame.XPct, 1e-9)
	assert.InDelta(t, 40, frame.OffsetPx, 1e-9)
	assert.Empty(t, rec.get(), "moves never commit")

	result, err := g.End(Pointer{X: 500, Y: 130})
	require.NoError(t, err)
	assert.Equal(t, GestureIdle, g.State())
	assert.InDelta(t, 30, result.DeltaPx, 1e-9)
	assert.InDelta(t, 70, result.OffsetPx, 1e-9)
	assert.Equal(t, date("2025-01-16"), result.Date)
	assert.False(t, result.DateChanged)
	assert.Equal(t, map[string]float64{"a": 30}, rec.get())

	_, err = g.End(Pointer{})
	assert.ErrorIs(t, err, ErrGestureClosed)
	_, ok = g.Move(Pointer{X: 700})
	assert.False(t, ok)
}

func TestDragGestureHorizontalDrop(t *testing.T) {
	rec := &commitRecorder{}
	geo := func() schema.Geometry { return testGeometry }
	g := newDragGesture(context.Background(), testTarget(), Pointer{X: 500, Y: 100}, geo, rec.commit)

	result, err := g.End(Pointer{X: 700, Y: 100})
	require.NoError(t, err)
	assert.InDelta(t, 70, result.XPct, 1e-9)
	assert.Equal(t, date("2025-01-22"), result.Date)
	assert.True(t, result.DateChanged)
	assert.InDelta(t, 0, result.DeltaPx, 1e-9)
}

func TestDragGestureVerticalDropKeepsDateOutsideBounds(t *testing.T) {
	target := testTarget()
	target.startXPct = 3 // Left of MinXPct, so every frame is clamped
	rec := &commitRecorder{}
	geo := func() schema.Geometry { return testGeometry }
	g := newDragGesture(context.Background(), target, Pointer{X: 30, Y: 100}, geo, rec.commit)

	frame, ok := g.Move(Pointer{X: 30, Y: 140})
	require.True(t, ok)
	assert.InDelta(t, 7, frame.XPct, 1e-9)

	result, err := g.End(Pointer{X: 30, Y: 120})
	require.NoError(t, err)
	assert.InDelta(t, 7, result.XPct, 1e-9)
	assert.InDelta(t, 20, result.DeltaPx, 1e-9)
	assert.Equal(t, date("2025-01-16"), result.Date)
	assert.False(t, result.DateChanged)
}

func TestDragGestureUnmountedContainer(t *testing.T) {
	var mu sync.Mutex
	current := testGeometry
	geo := func() schema.Geometry {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	g := newDragGesture(context.Background(), testTarget(), Pointer{X: 500, Y: 100}, geo, (&commitRecorder{}).commit)

	_, ok := g.Move(Pointer{X: 600, Y: 120})
	require.True(t, ok)

	mu.Lock()
	current = schema.Geometry{}
	mu.Unlock()

	frame, ok := g.Move(Pointer{X: 900, Y: 300})
	assert.False(t, ok)
	assert.InDelta(t, 60, frame.XPct, 1e-9, "frame is unchanged")
	assert.Equal(t, GestureDragging, g.State())
}

func TestDragGestureReleasedOnCancel(t *testing.T) {
	rec := &commitRecorder{}
	ctx, cancel := context.WithCancel(context.Background())
	geo := func() schema.Geometry { return testGeometry }
	g := newDragGesture(ctx, testTarget(), Pointer{X: 500, Y: 100}, geo, rec.commit)

	cancel()
	assert.Eventually(t, func() bool { return g.State() == GestureIdle }, time.Second, 5*time.Millisecond)

	_, err := g.End(Pointer{X: 500, Y: 200})
	assert.ErrorIs(t, err, ErrGestureClosed)
	assert.Empty(t, rec.get())

	g.Release()
	g.Release()
	assert.Equal(t, GestureIdle, g.State())
}

func TestResizeGesture(t *testing.T) {
	r := NewResizeGesture(Size{WidthPx: 40, HeightPx: 30}, Pointer{}, Size{WidthPx: 24, HeightPx: 24})

	assert.Equal(t, Size{WidthPx: 50, HeightPx: 35}, r.Move(Pointer{X: 10, Y: 5}))
	assert.Equal(t, Size{WidthPx: 24, HeightPx: 24}, r.Move(Pointer{X: -100, Y: -100}))

	size, err := r.End(Pointer{X: 20, Y: 0})
	require.NoError(t, err)
	assert.Equal(t, Size{WidthPx: 60, HeightPx: 30}, size)
	assert.Equal(t, GestureIdle, r.State())

	_, err = r.End(Pointer{X: 50})
	assert.ErrorIs(t, err, ErrGestureClosed)
	assert.Equal(t, size, r.Move(Pointer{X: 500}), "idle gesture ignores moves")
}
