package core

import (
	"math"
	"sort"

	"github.com/huangsam/boardline/core/algo"
	"github.com/huangsam/boardline/schema"
)

// PlacementConfig holds the pixel constants for default vertical offsets.
type PlacementConfig struct {
	BaseOffsetPx   float64
	SlotSpacingPx  float64
	MaxExcursionPx float64
	ItemWidthPct   float64 // Horizontal neighborhood used for collision checks
}

// NewPlacementConfig builds a placement config from tuning and geometry.
func NewPlacementConfig(t schema.Tuning, g schema.Geometry) PlacementConfig {
	return PlacementConfig{
		BaseOffsetPx:   t.BaseOffsetPx,
		SlotSpacingPx:  t.SlotSpacingPx,
		MaxExcursionPx: t.MaxExcursionPx,
		ItemWidthPct:   g.ItemWidthPct(),
	}
}

// SortChronologically orders items by date, then position, then id.
func SortChronologically(items []schema.PositionedItem) []schema.PositionedItem {
	sorted := make([]schema.PositionedItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.PositionPct != b.PositionPct {
			return a.PositionPct < b.PositionPct
		}
		return a.ID < b.ID
	})
	return sorted
}

// SideFor returns the side of the anchor line for the item with the given ordinal.
// Alternating policies put even ordinals above the line.
func SideFor(policy schema.AnchorPolicy, ordinal int) schema.Side {
	switch {
	case policy == schema.AboveAnchor:
		return schema.SideAbove
	case policy.Alternates():
		if ordinal%2 == 0 {
			return schema.SideAbove
		}
		return schema.SideBelow
	default:
		return schema.SideBelow
	}
}

// ResolvePlacements assigns a side, slot and default offset to every item.
// The result is in chronological order.
//
// Within a side, same-day items stack outward from the line: an item's slot is
// never lower than its index among same-day peers on that side. On top of that,
// items within one item-width of each other never share a slot; the lowest
// free slot wins, scanning left to right.
func ResolvePlacements(items []schema.PositionedItem, policy schema.AnchorPolicy, cfg PlacementConfig) []schema.Placement {
	sorted := SortChronologically(items)
	packers := map[schema.Side]*algo.SlotPacker{
		schema.SideAbove: algo.NewSlotPacker(cfg.ItemWidthPct),
		schema.SideBelow: algo.NewSlotPacker(cfg.ItemWidthPct),
	}
	peers := make(map[schema.Side]map[int64]int, 2)

	out := make([]schema.Placement, 0, len(sorted))
	for ordinal, it := range sorted {
		side := SideFor(policy, ordinal)
		if peers[side] == nil {
			peers[side] = make(map[int64]int)
		}
		key := DateOnly(it.Date).Unix()
		floor := peers[side][key]
		peers[side][key]++

		slot := packers[side].Place(it.PositionPct, floor)
		out = append(out, schema.Placement{
			ItemID:   it.ID,
			Ordinal:  ordinal,
			Side:     side,
			Slot:     slot,
			OffsetPx: SlotOffset(side, slot, cfg),
		})
	}
	return out
}

// SlotOffset returns the signed default offset of a slot, capped at the maximum excursion.
func SlotOffset(side schema.Side, slot int, cfg PlacementConfig) float64 {
	dist := cfg.BaseOffsetPx + float64(slot)*cfg.SlotSpacingPx
	if cfg.MaxExcursionPx > 0 {
		dist = math.Min(dist, cfg.MaxExcursionPx)
	}
	return side.Sign() * dist
}

// ComposeOffset adds a user delta to a default offset and re-clamps to the cap.
func ComposeOffset(offset, delta, maxExcursion float64) float64 {
	v := offset + delta
	if maxExcursion <= 0 {
		return v
	}
	return clamp(v, -maxExcursion, maxExcursion)
}
