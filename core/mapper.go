package core

import (
	"math"

	"github.com/huangsam/boardline/schema"
)

// MapItemsToMarkers links every item to the marker nearest to its position.
// Ties go to the earliest marker index. No markers yields an empty map.
func MapItemsToMarkers(items []schema.PositionedItem, markers []schema.Marker) map[string]int {
	out := make(map[string]int, len(items))
	if len(markers) == 0 {
		return out
	}
	for _, it := range items {
		best, bestDist := 0, math.Inf(1)
		for i, m := range markers {
			if d := math.Abs(m.PositionPct - it.PositionPct); d < bestDist {
				best, bestDist = i, d
			}
		}
		out[it.ID] = best
	}
	return out
}
