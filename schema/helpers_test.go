package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbbreviateLabel(t *testing.T) {
	tests := []struct {
		label string
		max   int
		want  string
	}{
		{"Launch", 10, "Launch"},                           // fits
		{"  Launch   day  ", 20, "Launch day"},             // whitespace collapsed
		{"Quarterly planning review", 12, "Quarterly…"},    // cut at word boundary
		{"abcdefghij", 5, "abcd…"},                         // no boundary to use
		{"abcdef", 1, "…"},                                 // degenerate budget
		{"abcdef", 0, "abcdef"},                            // no limit
		{"Überprüfung der Termine", 14, "Überprüfung…"},    // unicode safe
		{"Ship it", 7, "Ship it"},                          // exact fit
		{"A very long title without", 8, "A very…"},        // boundary at half budget
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, AbbreviateLabel(tt.label, tt.max))
		})
	}
}

func TestCountAndSortGroups(t *testing.T) {
	items := []TimelineItem{
		{ID: "1", Group: "design"},
		{ID: "2", Group: "eng"},
		{ID: "3", Group: "eng"},
		{ID: "4"},
		{ID: "5", Group: "ops"},
	}

	counts := CountGroups(items)
	assert.Equal(t, map[string]int{"design": 1, "eng": 2, "ops": 1}, counts)
	assert.Equal(t, []string{"eng", "design", "ops"}, SortedGroups(counts))
}

func TestIDsEqual(t *testing.T) {
	assert.True(t, IDsEqual([]string{"a", "b"}, []string{"b", "a"}))
	assert.True(t, IDsEqual(nil, []string{}))
	assert.False(t, IDsEqual([]string{"a", "a"}, []string{"a", "b"}))
	assert.False(t, IDsEqual([]string{"a"}, []string{"a", "b"}))
	assert.Equal(t, "a, b", FormatIDs([]string{"a", "b"}))
}

func TestEnumHelpers(t *testing.T) {
	assert.True(t, AlternateAnchor.Alternates())
	assert.True(t, CenterAnchor.Alternates())
	assert.False(t, AboveAnchor.Alternates())
	assert.False(t, BelowAnchor.Alternates())

	assert.Equal(t, -1.0, SideAbove.Sign())
	assert.Equal(t, 1.0, SideBelow.Sign())

	assert.Greater(t, EdgeMarker.Priority(), DataMarker.Priority())
	assert.Greater(t, DataMarker.Priority(), ScaleMarker.Priority())
}

func TestGeometry(t *testing.T) {
	g := Geometry{ContainerWidthPx: 1000, ContainerHeightPx: 400, ItemWidthPx: 50}
	assert.True(t, g.Mounted())
	assert.InDelta(t, 5.0, g.ItemWidthPct(), 1e-9)

	assert.False(t, Geometry{}.Mounted())
	assert.Equal(t, 0.0, Geometry{ItemWidthPx: 10}.ItemWidthPct())
}
