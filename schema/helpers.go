package schema

import (
	"sort"
	"strings"
	"unicode"
)

// AbbreviateLabel shortens an item label to at most maxRunes runes.
// Whitespace is collapsed first; words are kept whole where possible and an
// ellipsis marks the cut.
func AbbreviateLabel(label string, maxRunes int) string {
	collapsed := strings.Join(strings.Fields(label), " ")
	runes := []rune(collapsed)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return collapsed
	}
	if maxRunes == 1 {
		return "…"
	}

	cut := runes[:maxRunes-1]
	// Prefer cutting at the last word boundary when it keeps at least half the budget.
	for i := len(cut) - 1; i >= len(cut)/2; i-- {
		if unicode.IsSpace(cut[i]) {
			cut = cut[:i]
			break
		}
	}
	return strings.TrimRightFunc(string(cut), unicode.IsSpace) + "…"
}

// CountGroups returns how many items belong to each non-empty group.
func CountGroups(items []TimelineItem) map[string]int {
	counts := make(map[string]int)
	for _, it := range items {
		if it.Group == "" {
			continue
		}
		counts[it.Group]++
	}
	return counts
}

// SortedGroups returns group names ordered by size (descending) then name.
func SortedGroups(counts map[string]int) []string {
	names := make([]string, 0, len(counts))
	for g := range counts {
		names = append(names, g)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// FormatIDs joins ids for display, e.g. "a, b, c".
func FormatIDs(ids []string) string {
	return strings.Join(ids, ", ")
}

// IDsEqual reports whether two id lists contain the same ids, ignoring order.
func IDsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}
