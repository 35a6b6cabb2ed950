package core

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/huangsam/boardline/schema"
)

// DragBounds limits where a dragged item may go.
// Offsets are relative to the anchor line; negative is up.
type DragBounds struct {
	MinXPct     float64 `json:"min_x_pct"`
	MaxXPct     float64 `json:"max_x_pct"`
	MinOffsetPx float64 `json:"min_offset_px"`
	MaxOffsetPx float64 `json:"max_offset_px"`
}

// boundsEpsilon absorbs float rounding when an offset was clamped to a bound.
const boundsEpsilon = 1e-9

// Contains reports whether an offset lies inside the vertical bounds.
func (b DragBounds) Contains(offset float64) bool {
	return offset >= b.MinOffsetPx-boundsEpsilon && offset <= b.MaxOffsetPx+boundsEpsilon
}

// ClampOffset clamps an offset into the vertical bounds.
func (b DragBounds) ClampOffset(offset float64) float64 {
	return clamp(offset, b.MinOffsetPx, b.MaxOffsetPx)
}

// AnchorLineY returns the anchor line's pixel height from the container top.
func AnchorLineY(policy schema.AnchorPolicy, g schema.Geometry, t schema.Tuning) float64 {
	h := g.ContainerHeightPx
	switch policy {
	case schema.AboveAnchor:
		return math.Max(h-t.AnchorInsetPx, 0)
	case schema.AlternateAnchor:
		return h * t.AlternateLineRatio
	case schema.CenterAnchor:
		return h / 2
	default:
		return math.Min(t.AnchorInsetPx, h)
	}
}

// ComputeDragBounds returns the drag limits for an item on the given side.
// Vertical limits come from the policy's per-side pair and shrink to the space
// between the anchor line and the container edges, less the edge buffer and
// half the item height. Horizontal limits keep the item clear of the edges.
func ComputeDragBounds(policy schema.AnchorPolicy, side schema.Side, g schema.Geometry, t schema.Tuning) (DragBounds, error) {
	if !g.Mounted() {
		return DragBounds{}, ErrNoContainer
	}

	lineY := AnchorLineY(policy, g, t)
	halfH := g.ItemHeightPx / 2
	spaceUp := math.Max(lineY-t.EdgeBufferPx-halfH, 0)
	spaceDown := math.Max(g.ContainerHeightPx-lineY-t.EdgeBufferPx-halfH, 0)

	limits := t.LimitsFor(policy).For(side)
	up := math.Min(limits.MaxUpPx, spaceUp)
	down := math.Min(limits.MaxDownPx, spaceDown)
	if t.MaxExcursionPx > 0 {
		up = math.Min(up, t.MaxExcursionPx)
		down = math.Min(down, t.MaxExcursionPx)
	}

	halfW := g.ItemWidthPct() / 2
	minX := t.EdgeInsetPct + halfW
	maxX := 100 - t.EdgeInsetPct - halfW
	if minX > maxX {
		minX, maxX = 50, 50
	}

	return DragBounds{MinXPct: minX, MaxXPct: maxX, MinOffsetPx: -up, MaxOffsetPx: down}, nil
}

// Pointer is a pointer location in container pixels.
type Pointer struct {
	X float64
	Y float64
}

// GestureState is the state of a pointer gesture.
type GestureState int

// Gesture states.
const (
	GestureIdle GestureState = iota
	GestureDragging
)

// String implements fmt.Stringer.
func (s GestureState) String() string {
	if s == GestureDragging {
		return "dragging"
	}
	return "idle"
}

// DragFrame is the in-flight position of a dragged item.
type DragFrame struct {
	XPct     float64
	OffsetPx float64 // Total offset from the anchor line
}

// DragResult is reported when a drag gesture ends.
type DragResult struct {
	ItemID      string    `json:"item_id"`
	XPct        float64   `json:"x_pct"`
	OffsetPx    float64   `json:"offset_px"`
	DeltaPx     float64   `json:"delta_px"`
	Date        time.Time `json:"date"`         // Date implied by the drop position
	DateChanged bool      `json:"date_changed"` // Drop position implies a different day
}

// dragTarget is what a gesture needs from the board.
type dragTarget struct {
	itemID        string
	itemDate      time.Time
	startXPct     float64
	defaultOffset float64
	startDelta    float64
	bounds        DragBounds
	window        schema.TimeWindow
	maxExcursion  float64
}

// DragGesture tracks one drag from pointer-down to pointer-up.
// Moves are computed from the drag-start references only, so the latest move always wins.
type DragGesture struct {
	mu       sync.Mutex
	state    GestureState
	target   dragTarget
	start    Pointer
	frame    DragFrame
	movedX   bool // Latest frame came from a horizontally displaced pointer
	geometry func() schema.Geometry
	commit   func(id string, delta float64)
	stop     func() bool
}

// newDragGesture starts a gesture. Cancelling ctx releases it without committing.
func newDragGesture(ctx context.Context, target dragTarget, start Pointer, geometry func() schema.Geometry, commit func(string, float64)) *DragGesture {
	g := &DragGesture{
		state:    GestureDragging,
		target:   target,
		start:    start,
		geometry: geometry,
		commit:   commit,
		frame: DragFrame{
			XPct:     target.startXPct,
			OffsetPx: ComposeOffset(target.defaultOffset, target.startDelta, target.maxExcursion),
		},
	}
	g.mu.Lock()
	g.stop = context.AfterFunc(ctx, g.Release)
	g.mu.Unlock()
	return g
}

// State returns the current gesture state.
func (g *DragGesture) State() GestureState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// ItemID returns the dragged item's id.
func (g *DragGesture) ItemID() string {
	return g.target.itemID
}

// Bounds returns the bounds computed at drag start.
func (g *DragGesture) Bounds() DragBounds {
	return g.target.bounds
}

// Move updates the in-flight frame. It returns false without changing anything
// when the gesture is idle or the container is no longer mounted.
func (g *DragGesture) Move(p Pointer) (DragFrame, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != GestureDragging {
		return g.frame, false
	}
	frame, ok := g.frameAt(p)
	if !ok {
		return g.frame, false
	}
	g.frame = frame
	g.movedX = p.X != g.start.X
	return frame, true
}

// End commits the drop position as a vertical delta and returns to idle.
func (g *DragGesture) End(p Pointer) (DragResult, error) {
	g.mu.Lock()
	if g.state != GestureDragging {
		g.mu.Unlock()
		return DragResult{}, ErrGestureClosed
	}
	if frame, ok := g.frameAt(p); ok {
		g.frame = frame
		g.movedX = p.X != g.start.X
	}
	g.state = GestureIdle
	frame, movedX, stop := g.frame, g.movedX, g.stop
	g.mu.Unlock()
	stop()

	t := g.target
	delta := frame.OffsetPx - t.defaultOffset
	g.commit(t.itemID, delta)

	// A clamped start X is not a horizontal move; only pointer travel implies a new date.
	date := DateOnly(t.itemDate)
	if movedX {
		date = DateOf(frame.XPct, t.window)
	}
	return DragResult{
		ItemID:      t.itemID,
		XPct:        frame.XPct,
		OffsetPx:    frame.OffsetPx,
		DeltaPx:     delta,
		Date:        date,
		DateChanged: !date.Equal(DateOnly(t.itemDate)),
	}, nil
}

// Release abandons the gesture without committing. Safe to call more than once.
func (g *DragGesture) Release() {
	g.mu.Lock()
	g.state = GestureIdle
	stop := g.stop
	g.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (g *DragGesture) frameAt(p Pointer) (DragFrame, bool) {
	geo := g.geometry()
	if !geo.Mounted() {
		return DragFrame{}, false
	}
	t := g.target
	startOffset := ComposeOffset(t.defaultOffset, t.startDelta, t.maxExcursion)
	dxPct := (p.X - g.start.X) / geo.ContainerWidthPx * 100
	return DragFrame{
		XPct:     clamp(t.startXPct+dxPct, t.bounds.MinXPct, t.bounds.MaxXPct),
		OffsetPx: t.bounds.ClampOffset(startOffset + (p.Y - g.start.Y)),
	}, true
}

// Size is a width and height in pixels.
type Size struct {
	WidthPx  float64
	HeightPx float64
}

// ResizeGesture grows or shrinks an item card from its drag-start size.
type ResizeGesture struct {
	mu      sync.Mutex
	state   GestureState
	start   Pointer
	initial Size
	minimum Size
	current Size
}

// NewResizeGesture starts a resize from the given size.
func NewResizeGesture(initial Size, start Pointer, minimum Size) *ResizeGesture {
	return &ResizeGesture{
		state:   GestureDragging,
		start:   start,
		initial: initial,
		minimum: minimum,
		current: initial,
	}
}

// Move returns the size implied by the pointer, floored at the minimum.
func (r *ResizeGesture) Move(p Pointer) Size {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == GestureDragging {
		r.current = r.sizeAt(p)
	}
	return r.current
}

// End finishes the resize and returns the final size.
func (r *ResizeGesture) End(p Pointer) (Size, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != GestureDragging {
		return Size{}, ErrGestureClosed
	}
	r.current = r.sizeAt(p)
	r.state = GestureIdle
	return r.current, nil
}

func (r *ResizeGesture) sizeAt(p Pointer) Size {
	return Size{
		WidthPx:  math.Max(r.initial.WidthPx+p.X-r.start.X, r.minimum.WidthPx),
		HeightPx: math.Max(r.initial.HeightPx+p.Y-r.start.Y, r.minimum.HeightPx),
	}
}

// State returns the current gesture state.
func (r *ResizeGesture) State() GestureState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}
