package core

import (
	"math"
	"time"

	"github.com/huangsam/boardline/schema"
)

// Window padding rules.
const (
	windowPadRatio   = 0.15
	windowMinPadDays = 3
	emptyWindowDays  = 3
)

// padEpsilon keeps float noise such as 100*0.15 = 15.000000000000002 from adding a day.
const padEpsilon = 1e-9

// DateOnly returns the calendar date of t at UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole days from a to b. Both must be date-only.
func daysBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24
}

// PositionOf maps a date to a [0,100] percentage of the window.
// Dates outside the window are clamped. A degenerate window yields 0.
func PositionOf(date time.Time, window schema.TimeWindow) float64 {
	start, end := DateOnly(window.Start), DateOnly(window.End)
	if !end.After(start) {
		return 0
	}
	d := DateOnly(date)
	switch {
	case !d.After(start):
		return 0
	case !d.Before(end):
		return 100
	}
	return daysBetween(start, d) / daysBetween(start, end) * 100
}

// DateOf maps a percentage back to the nearest whole day in the window.
func DateOf(pct float64, window schema.TimeWindow) time.Time {
	start, end := DateOnly(window.Start), DateOnly(window.End)
	if !end.After(start) || math.IsNaN(pct) {
		return start
	}
	pct = clamp(pct, 0, 100)
	days := math.Round(pct / 100 * daysBetween(start, end))
	return start.AddDate(0, 0, int(days))
}

// ComputeWindow derives the padded window around the items' dates.
// Padding is max(15% of the span, 3 days), rounded up to whole days.
// Without items the window is centered on today.
func ComputeWindow(items []schema.TimelineItem, now time.Time) schema.TimeWindow {
	if len(items) == 0 {
		today := DateOnly(now)
		return schema.TimeWindow{
			Start: today.AddDate(0, 0, -emptyWindowDays),
			End:   today.AddDate(0, 0, emptyWindowDays),
		}
	}

	minDate, maxDate := DateOnly(items[0].Date), DateOnly(items[0].Date)
	for _, it := range items[1:] {
		d := DateOnly(it.Date)
		if d.Before(minDate) {
			minDate = d
		}
		if d.After(maxDate) {
			maxDate = d
		}
	}

	pad := int(math.Ceil(daysBetween(minDate, maxDate)*windowPadRatio - padEpsilon))
	pad = max(pad, windowMinPadDays)
	return schema.TimeWindow{
		Start: minDate.AddDate(0, 0, -pad),
		End:   maxDate.AddDate(0, 0, pad),
	}
}

// EqualSplit spreads n items evenly across the axis, leaving the edges free.
func EqualSplit(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i+1) / float64(n+1) * 100
	}
	return out
}

// PositionItems resolves the horizontal position of each item.
// A degenerate window falls back to an equal split in input order.
func PositionItems(items []schema.TimelineItem, window schema.TimeWindow) []schema.PositionedItem {
	out := make([]schema.PositionedItem, len(items))
	if !DateOnly(window.End).After(DateOnly(window.Start)) {
		LogDegenerateWindow(window)
		for i, pct := range EqualSplit(len(items)) {
			out[i] = schema.PositionedItem{TimelineItem: items[i], PositionPct: pct}
		}
		return out
	}
	for i, it := range items {
		out[i] = schema.PositionedItem{TimelineItem: it, PositionPct: PositionOf(it.Date, window)}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
