package algo

import "math"

// SlotPacker assigns vertical stacking slots to items scanned left to right.
// Two items whose positions are within width of each other never share a slot.
type SlotPacker struct {
	width  float64
	placed []placedSlot
}

type placedSlot struct {
	pos  float64
	slot int
}

// NewSlotPacker returns a packer for items of the given width, in the same unit as positions.
func NewSlotPacker(width float64) *SlotPacker {
	return &SlotPacker{width: math.Max(width, 0)}
}

// Place returns the lowest slot at or above floor that no neighbor occupies,
// and records it.
func (p *SlotPacker) Place(pos float64, floor int) int {
	used := make(map[int]struct{})
	for _, ps := range p.placed {
		if math.Abs(ps.pos-pos) <= p.width {
			used[ps.slot] = struct{}{}
		}
	}
	slot := max(floor, 0)
	for {
		if _, taken := used[slot]; !taken {
			break
		}
		slot++
	}
	p.placed = append(p.placed, placedSlot{pos: pos, slot: slot})
	return slot
}

// Len returns how many items were placed.
func (p *SlotPacker) Len() int {
	return len(p.placed)
}
