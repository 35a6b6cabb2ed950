package schema

import "time"

// SideLimits caps how far an item may be dragged up and down from the anchor line.
type SideLimits struct {
	MaxUpPx   float64 `mapstructure:"max_up" json:"max_up"`
	MaxDownPx float64 `mapstructure:"max_down" json:"max_down"`
}

// PolicyLimits holds the drag limits of one anchor policy for items on each side.
type PolicyLimits struct {
	Above SideLimits `mapstructure:"above" json:"above"`
	Below SideLimits `mapstructure:"below" json:"below"`
}

// For returns the limits for an item on the given side.
func (l PolicyLimits) For(side Side) SideLimits {
	if side == SideAbove {
		return l.Above
	}
	return l.Below
}

// Tuning groups the pixel constants used by placement, drag bounds and persistence.
// None of these are part of the layout contract; they only shape the result.
type Tuning struct {
	BaseOffsetPx       float64 // Distance of slot 0 from the anchor line
	SlotSpacingPx      float64 // Distance between stacked slots
	MaxExcursionPx     float64 // Cap on |offset| from the anchor line
	AnchorInsetPx      float64 // Line distance from the container edge for above/below
	AlternateLineRatio float64 // Line height as a share of the container for alternate
	EdgeBufferPx       float64 // Space kept free at the container edges while dragging
	EdgeInsetPct       float64 // Horizontal drag inset from each container edge
	StaggerPx          float64 // Replacement delta for out-of-bounds items
	MinItemWidthPx     float64
	MinItemHeightPx    float64
	SaveDebounce       time.Duration
	Limits             map[AnchorPolicy]PolicyLimits
}

// Default tuning values.
const (
	DefaultBaseOffsetPx       = 40
	DefaultSlotSpacingPx      = 50
	DefaultMaxExcursionPx     = 200
	DefaultAnchorInsetPx      = 60
	DefaultAlternateLineRatio = 0.6
	DefaultEdgeBufferPx       = 10
	DefaultEdgeInsetPct       = 5
	DefaultStaggerPx          = 10
	DefaultMinItemWidthPx     = 24
	DefaultMinItemHeightPx    = 24
	DefaultItemSizePx         = 32
	DefaultSaveDebounce       = 250 * time.Millisecond
)

// DefaultPolicyLimits returns the per-policy drag limits.
// Items may travel far away from the line on their own side and only a little across it.
func DefaultPolicyLimits() map[AnchorPolicy]PolicyLimits {
	return map[AnchorPolicy]PolicyLimits{
		AboveAnchor: {
			Above: SideLimits{MaxUpPx: 250, MaxDownPx: 30},
			Below: SideLimits{MaxUpPx: 30, MaxDownPx: 250},
		},
		BelowAnchor: {
			Above: SideLimits{MaxUpPx: 250, MaxDownPx: 30},
			Below: SideLimits{MaxUpPx: 30, MaxDownPx: 250},
		},
		AlternateAnchor: {
			Above: SideLimits{MaxUpPx: 200, MaxDownPx: 20},
			Below: SideLimits{MaxUpPx: 20, MaxDownPx: 200},
		},
		CenterAnchor: {
			Above: SideLimits{MaxUpPx: 160, MaxDownPx: 20},
			Below: SideLimits{MaxUpPx: 20, MaxDownPx: 160},
		},
	}
}

// DefaultTuning returns the tuning used when no configuration overrides it.
func DefaultTuning() Tuning {
	return Tuning{
		BaseOffsetPx:       DefaultBaseOffsetPx,
		SlotSpacingPx:      DefaultSlotSpacingPx,
		MaxExcursionPx:     DefaultMaxExcursionPx,
		AnchorInsetPx:      DefaultAnchorInsetPx,
		AlternateLineRatio: DefaultAlternateLineRatio,
		EdgeBufferPx:       DefaultEdgeBufferPx,
		EdgeInsetPct:       DefaultEdgeInsetPct,
		StaggerPx:          DefaultStaggerPx,
		MinItemWidthPx:     DefaultMinItemWidthPx,
		MinItemHeightPx:    DefaultMinItemHeightPx,
		SaveDebounce:       DefaultSaveDebounce,
		Limits:             DefaultPolicyLimits(),
	}
}

// LimitsFor returns the drag limits for a policy, falling back to the defaults.
func (t Tuning) LimitsFor(policy AnchorPolicy) PolicyLimits {
	if l, ok := t.Limits[policy]; ok {
		return l
	}
	if l, ok := DefaultPolicyLimits()[policy]; ok {
		return l
	}
	return DefaultPolicyLimits()[BelowAnchor]
}

// DefaultSettings returns the settings used for a fresh board.
func DefaultSettings() Settings {
	return Settings{
		Granularity: MonthScale,
		Anchor:      BelowAnchor,
		Shape:       CircleShape,
		ItemSizePx:  DefaultItemSizePx,
		ShowDates:   true,
	}
}
