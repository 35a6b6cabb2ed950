package schema

// Custom string types for type safety.
type (
	// AnchorPolicy decides where items sit relative to the anchor line.
	AnchorPolicy string

	// Granularity is the unit used for scale markers on the time axis.
	Granularity string

	// Side is the side of the anchor line an item is placed on.
	Side string

	// MarkerKind distinguishes generated scale ticks, data-derived ticks and window edges.
	MarkerKind string

	// ItemShape is the visual shape of an item card on the timeline.
	ItemShape string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for board state and history.
	DatabaseBackend string
)

// All anchor policies supported.
const (
	AboveAnchor     AnchorPolicy = "above"
	BelowAnchor     AnchorPolicy = "below" // default
	AlternateAnchor AnchorPolicy = "alternate"
	CenterAnchor    AnchorPolicy = "center"
)

// All scale granularities supported.
const (
	DayScale     Granularity = "day"
	WeekScale    Granularity = "week"
	MonthScale   Granularity = "month" // default
	QuarterScale Granularity = "quarter"
	YearScale    Granularity = "year"
	NoScale      Granularity = "none"
)

// Sides of the anchor line.
const (
	SideAbove Side = "above"
	SideBelow Side = "below"
)

// Marker kinds. Priority when deduplicating is edge > data > scale.
const (
	ScaleMarker MarkerKind = "scale"
	DataMarker  MarkerKind = "data"
	EdgeMarker  MarkerKind = "edge"
)

// All item shapes supported.
const (
	CircleShape   ItemShape = "circle" // default
	SquareShape   ItemShape = "square"
	DiamondShape  ItemShape = "diamond"
	TriangleShape ItemShape = "triangle"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
	SVGOut     OutputMode = "svg"
	PreviewOut OutputMode = "preview"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// AllAnchorPolicies returns a list of all supported anchor policies.
var AllAnchorPolicies = []AnchorPolicy{AboveAnchor, BelowAnchor, AlternateAnchor, CenterAnchor}

// AllGranularities returns a list of all supported scale granularities.
var AllGranularities = []Granularity{DayScale, WeekScale, MonthScale, QuarterScale, YearScale, NoScale}

// ValidAnchorPolicies lists all valid anchor policies.
var ValidAnchorPolicies = map[AnchorPolicy]struct{}{
	AboveAnchor:     {},
	BelowAnchor:     {},
	AlternateAnchor: {},
	CenterAnchor:    {},
}

// ValidGranularities lists all valid scale granularities.
var ValidGranularities = map[Granularity]struct{}{
	DayScale:     {},
	WeekScale:    {},
	MonthScale:   {},
	QuarterScale: {},
	YearScale:    {},
	NoScale:      {},
}

// ValidItemShapes lists all valid item shapes.
var ValidItemShapes = map[ItemShape]struct{}{
	CircleShape:   {},
	SquareShape:   {},
	DiamondShape:  {},
	TriangleShape: {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
	SVGOut:     {},
	PreviewOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// Alternates reports whether the policy alternates item sides by ordinal.
func (p AnchorPolicy) Alternates() bool {
	return p == AlternateAnchor || p == CenterAnchor
}

// Sign returns -1 for items above the line and +1 for items below it.
// Pixel offsets grow downwards, matching screen coordinates.
func (s Side) Sign() float64 {
	if s == SideAbove {
		return -1
	}
	return 1
}

// Priority ranks marker kinds for deduplication.
func (k MarkerKind) Priority() int {
	switch k {
	case EdgeMarker:
		return 2
	case DataMarker:
		return 1
	default:
		return 0
	}
}
