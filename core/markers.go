package core

import (
	"math"
	"sort"
	"time"

	"github.com/huangsam/boardline/schema"
)

const edgeLabelLayout = "Jan 2, 2006"

// DataMarkers returns one marker per unique item date plus the window edges.
// The effective window is widened to cover every item date, never shrunk.
// An edge marker absorbs a data marker on the same date and yields to one
// on a different date that sits within 0.1% of it, so the result may have no
// marker at exactly 0 or 100.
func DataMarkers(items []schema.TimelineItem, window schema.TimeWindow) []schema.Marker {
	dates := uniqueDates(items)
	effective := widenWindow(dates, window)
	edges := []schema.Marker{
		{Date: DateOnly(effective.Start), Label: DateOnly(effective.Start).Format(edgeLabelLayout), PositionPct: 0, Kind: schema.EdgeMarker},
		{Date: DateOnly(effective.End), Label: DateOnly(effective.End).Format(edgeLabelLayout), PositionPct: 100, Kind: schema.EdgeMarker},
	}

	if len(dates) == 0 {
		return edges
	}

	markers := make([]schema.Marker, 0, len(dates)+2)
	for _, d := range dates {
		markers = append(markers, schema.Marker{
			Date:        d,
			Label:       d.Format("Jan 2"),
			PositionPct: PositionOf(d, effective),
			Kind:        schema.DataMarker,
		})
	}

	for _, edge := range edges {
		markers = mergeEdge(markers, edge)
	}
	sort.SliceStable(markers, func(i, j int) bool {
		return markers[i].PositionPct < markers[j].PositionPct
	})
	return markers
}

// mergeEdge adds an edge marker unless a data marker already occupies its spot.
func mergeEdge(markers []schema.Marker, edge schema.Marker) []schema.Marker {
	for i, m := range markers {
		if m.Date.Equal(edge.Date) {
			markers[i] = edge
			return markers
		}
	}
	for _, m := range markers {
		if math.Abs(m.PositionPct-edge.PositionPct) < dataDedupeTolerance {
			return markers
		}
	}
	return append(markers, edge)
}

// uniqueDates returns the sorted set of date-only item dates.
func uniqueDates(items []schema.TimelineItem) []time.Time {
	seen := make(map[time.Time]struct{}, len(items))
	dates := make([]time.Time, 0, len(items))
	for _, it := range items {
		d := DateOnly(it.Date)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// widenWindow stretches the window to include the first and last date.
func widenWindow(sorted []time.Time, window schema.TimeWindow) schema.TimeWindow {
	out := schema.TimeWindow{Start: DateOnly(window.Start), End: DateOnly(window.End)}
	if len(sorted) == 0 {
		return out
	}
	if first := sorted[0]; first.Before(out.Start) {
		out.Start = first
	}
	if last := sorted[len(sorted)-1]; last.After(out.End) {
		out.End = last
	}
	return out
}

// DedupeMarkers drops markers that sit within tol of a marker of a different,
// higher-priority kind (edge > data > scale). Markers of the same kind never merge.
// The result is ordered by position.
func DedupeMarkers(markers []schema.Marker, tol float64) []schema.Marker {
	sorted := make([]schema.Marker, len(markers))
	copy(sorted, markers)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PositionPct != sorted[j].PositionPct {
			return sorted[i].PositionPct < sorted[j].PositionPct
		}
		return sorted[i].Kind.Priority() > sorted[j].Kind.Priority()
	})

	dropped := make([]bool, len(sorted))
	for i := range sorted {
		dropped[i] = outranked(sorted, i, -1, tol) || outranked(sorted, i, 1, tol)
	}

	out := make([]schema.Marker, 0, len(sorted))
	for i, m := range sorted {
		if !dropped[i] {
			out = append(out, m)
		}
	}
	return out
}

// outranked scans from i in direction dir while neighbors stay within tol.
func outranked(sorted []schema.Marker, i, dir int, tol float64) bool {
	for j := i + dir; j >= 0 && j < len(sorted); j += dir {
		if math.Abs(sorted[i].PositionPct-sorted[j].PositionPct) >= tol {
			return false
		}
		if sorted[j].Kind != sorted[i].Kind && sorted[j].Kind.Priority() > sorted[i].Kind.Priority() {
			return true
		}
	}
	return false
}
