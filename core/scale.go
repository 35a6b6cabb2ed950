package core

import (
	"fmt"
	"time"

	"github.com/huangsam/boardline/schema"
)

// Marker tolerances in percentage points.
const (
	scaleDedupeTolerance = 1.0
	dataDedupeTolerance  = 0.1
)

// maxScaleMarkers guards against pathological windows such as decades at day granularity.
const maxScaleMarkers = 5000

// ScaleMarkers generates evenly stepped axis ticks across the window.
// Steps are always computed from the window start so month lengths never drift.
// Edge markers at 0 and 100 replace any generated tick within 1% of them.
func ScaleMarkers(window schema.TimeWindow, granularity schema.Granularity) []schema.Marker {
	start, end := DateOnly(window.Start), DateOnly(window.End)
	if granularity == schema.NoScale || !end.After(start) {
		return nil
	}
	if _, ok := schema.ValidGranularities[granularity]; !ok {
		return nil
	}

	markers := make([]schema.Marker, 0, 16)
	for k := 0; k < maxScaleMarkers; k++ {
		d := stepDate(start, granularity, k)
		if d.After(end) {
			break
		}
		markers = append(markers, schema.Marker{
			Date:        d,
			Label:       ScaleLabel(d, granularity, k),
			PositionPct: PositionOf(d, window),
			Kind:        schema.ScaleMarker,
		})
	}

	markers = append(markers,
		schema.Marker{Date: start, Label: ScaleLabel(start, granularity, 0), PositionPct: 0, Kind: schema.EdgeMarker},
		schema.Marker{Date: end, Label: ScaleLabel(end, granularity, len(markers)), PositionPct: 100, Kind: schema.EdgeMarker},
	)
	return DedupeMarkers(markers, scaleDedupeTolerance)
}

// stepDate returns the date k granularity units after start.
func stepDate(start time.Time, granularity schema.Granularity, k int) time.Time {
	switch granularity {
	case schema.DayScale:
		return start.AddDate(0, 0, k)
	case schema.WeekScale:
		return start.AddDate(0, 0, 7*k)
	case schema.MonthScale:
		return addMonths(start, k)
	case schema.QuarterScale:
		return addMonths(start, 3*k)
	case schema.YearScale:
		return addMonths(start, 12*k)
	default:
		return start
	}
}

// addMonths adds calendar months, clamping the day to the end of the target month.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	return time.Date(first.Year(), first.Month(), min(d, last), 0, 0, 0, 0, time.UTC)
}

// ScaleLabel formats a marker label. The first day marker carries the year.
func ScaleLabel(date time.Time, granularity schema.Granularity, ordinal int) string {
	switch granularity {
	case schema.DayScale:
		if ordinal == 0 {
			return date.Format("Jan 2, 2006")
		}
		return date.Format("Jan 2")
	case schema.WeekScale:
		return date.Format("Jan 2")
	case schema.MonthScale:
		return date.Format("Jan 2006")
	case schema.QuarterScale:
		return fmt.Sprintf("Q%d %d", (int(date.Month())-1)/3+1, date.Year())
	case schema.YearScale:
		return date.Format("2006")
	default:
		return ""
	}
}
