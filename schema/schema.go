// Package schema has the data model, enums and status types for all parts of boardline.
package schema

import "time"

// TimeWindow is the [Start, End] date range the horizontal axis spans.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether the window has a positive span.
func (w TimeWindow) Valid() bool {
	return w.End.After(w.Start)
}

// Span returns the duration between start and end.
func (w TimeWindow) Span() time.Duration {
	return w.End.Sub(w.Start)
}

// ItemRecord is an item as supplied by the host platform.
// Columns holds raw column values keyed by column id.
type ItemRecord struct {
	ID      string         `json:"id" yaml:"id"`
	Name    string         `json:"name" yaml:"name"`
	Group   string         `json:"group,omitempty" yaml:"group,omitempty"`
	Columns map[string]any `json:"columns" yaml:"columns"`
}

// TimelineItem is a record that yielded a date from the selected column.
type TimelineItem struct {
	ID     string     `json:"id"`
	Label  string     `json:"label"`
	Date   time.Time  `json:"date"`
	Group  string     `json:"group,omitempty"`
	Record ItemRecord `json:"-"`
}

// PositionedItem is a timeline item with its horizontal position already resolved.
type PositionedItem struct {
	TimelineItem
	PositionPct float64 `json:"position_pct"`
}

// Marker is a labeled point on the axis.
type Marker struct {
	Date        time.Time  `json:"date"`
	Label       string     `json:"label"`
	PositionPct float64    `json:"position_pct"`
	Kind        MarkerKind `json:"kind"`
}

// Placement is the vertical slot assigned to one item by the placement resolver.
type Placement struct {
	ItemID   string  `json:"item_id"`
	Ordinal  int     `json:"ordinal"`   // Index in chronological order over all visible items
	Side     Side    `json:"side"`      // Side of the anchor line
	Slot     int     `json:"slot"`      // Stacking slot on that side, 0 is closest to the line
	OffsetPx float64 `json:"offset_px"` // Signed default offset from the anchor line
}

// RenderPosition is the final resolved placement for one item.
type RenderPosition struct {
	XPct   float64 `json:"x_pct"`
	YPx    float64 `json:"y_px"`
	ZIndex int     `json:"z_index"`
}

// ItemLayout is everything a renderer needs for one item.
type ItemLayout struct {
	Item        TimelineItem   `json:"item"`
	PositionPct float64        `json:"position_pct"`
	Placement   Placement      `json:"placement"`
	DeltaPx     float64        `json:"delta_px"`
	HasDelta    bool           `json:"has_delta"`
	Position    RenderPosition `json:"position"`
	MarkerIndex int            `json:"marker_index"` // Index into LayoutResult.DataMarkers, -1 when none
}

// LayoutResult is the output of one render pass over a board.
type LayoutResult struct {
	BoardID      string         `json:"board_id"`
	Settings     Settings       `json:"settings"`
	Geometry     Geometry       `json:"geometry"`
	Window       TimeWindow     `json:"window"`
	AnchorLinePx float64        `json:"anchor_line_px"`
	ScaleMarkers []Marker       `json:"scale_markers"`
	DataMarkers  []Marker       `json:"data_markers"` // May lack a marker at exactly 0 or 100 when a data date sits next to an edge
	Items        []ItemLayout   `json:"items"`
	Hidden       []string       `json:"hidden"`
	Excluded     int            `json:"excluded"` // Records without a parseable date
	Groups       map[string]int `json:"groups,omitempty"`
}

// Settings are the configuration inputs owned by the embedding application.
type Settings struct {
	DateColumn  string       `json:"date_column"`
	Granularity Granularity  `json:"granularity"`
	Anchor      AnchorPolicy `json:"anchor"`
	Shape       ItemShape    `json:"shape"`
	ItemSizePx  float64      `json:"item_size_px"`
	ShowDates   bool         `json:"show_dates"`
	ShowLegend  bool         `json:"show_legend"`
}

// Geometry describes the timeline container and item card sizes in pixels.
type Geometry struct {
	ContainerWidthPx  float64 `json:"container_width_px"`
	ContainerHeightPx float64 `json:"container_height_px"`
	ItemWidthPx       float64 `json:"item_width_px"`
	ItemHeightPx      float64 `json:"item_height_px"`
}

// Mounted reports whether the container has a usable size.
func (g Geometry) Mounted() bool {
	return g.ContainerWidthPx > 0 && g.ContainerHeightPx > 0
}

// ItemWidthPct returns the item width as a percentage of the container width.
func (g Geometry) ItemWidthPct() float64 {
	if g.ContainerWidthPx <= 0 {
		return 0
	}
	return g.ItemWidthPx / g.ContainerWidthPx * 100
}

// DeltaRecord is the persisted map of vertical deltas together with the
// anchor policy they were computed against.
type DeltaRecord struct {
	Anchor AnchorPolicy       `json:"anchor"`
	Deltas map[string]float64 `json:"deltas"`
}

// DateUpdate is the write-back request emitted when a user edits an item date.
type DateUpdate struct {
	ItemID   string `json:"item_id"`
	ColumnID string `json:"column_id"`
	NewDate  string `json:"new_date"` // YYYY-MM-DD
}
