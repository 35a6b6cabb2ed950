package outwriter

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/huangsam/boardline/schema"
)

// previewStyles holds the visual styles for the terminal preview.
type previewStyles struct {
	Axis  lipgloss.Style // Anchor line and scale ticks
	Label lipgloss.Style // Scale labels
	Data  lipgloss.Style // Data marker ticks
	Moved lipgloss.Style // Items carrying a user delta
}

func defaultPreviewStyles() previewStyles {
	return previewStyles{
		Axis:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Label: lipgloss.NewStyle().Faint(true),
		Data:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Moved: lipgloss.NewStyle().Bold(true).Underline(true),
	}
}

// Preview glyphs.
const (
	axisRune      = "─"
	scaleTickRune = "┼"
	dataTickRune  = "┬"
	minPreviewCol = 20
	previewLabel  = 12
)

// shapeGlyph maps an item shape to its terminal glyph.
func shapeGlyph(shape schema.ItemShape) string {
	switch shape {
	case schema.SquareShape:
		return "■"
	case schema.DiamondShape:
		return "◆"
	case schema.TriangleShape:
		return "▲"
	default:
		return "●"
	}
}

// previewGrid is a fixed-size grid of styled cells.
type previewGrid struct {
	cells [][]string
	used  [][]bool
	cols  int
}

func newPreviewGrid(rows, cols int) *previewGrid {
	g := &previewGrid{cells: make([][]string, rows), used: make([][]bool, rows), cols: cols}
	for r := range g.cells {
		g.cells[r] = make([]string, cols)
		g.used[r] = make([]bool, cols)
		for c := range g.cells[r] {
			g.cells[r][c] = " "
		}
	}
	return g
}

func (g *previewGrid) set(row, col int, cell string) {
	if row < 0 || row >= len(g.cells) || col < 0 || col >= g.cols {
		return
	}
	g.cells[row][col] = cell
	g.used[row][col] = true
}

// writeText places text starting at col when every cell it needs is free,
// and reports whether it was placed.
func (g *previewGrid) writeText(row, col int, text string, style lipgloss.Style) bool {
	runes := []rune(text)
	if row < 0 || row >= len(g.cells) || col < 0 || col+len(runes) > g.cols {
		return false
	}
	for i := range runes {
		if g.used[row][col+i] {
			return false
		}
	}
	for i, r := range runes {
		g.set(row, col+i, style.Render(string(r)))
	}
	return true
}

func (g *previewGrid) String() string {
	var b strings.Builder
	for _, row := range g.cells {
		b.WriteString(strings.TrimRight(strings.Join(row, ""), " "))
		b.WriteString("\n")
	}
	return b.String()
}

// renderPreview draws the layout as a character grid: above-line slots, the
// anchor line, below-line slots and a scale label row.
func renderPreview(result schema.LayoutResult, termWidth int) string {
	styles := defaultPreviewStyles()
	cols := termWidth - 2
	if cols < minPreviewCol {
		cols = minPreviewCol
	}

	aboveRows, belowRows := 0, 0
	for _, it := range result.Items {
		if it.Placement.Side == schema.SideAbove {
			aboveRows = max(aboveRows, it.Placement.Slot+1)
		} else {
			belowRows = max(belowRows, it.Placement.Slot+1)
		}
	}
	axisRow := aboveRows
	labelRow := axisRow + belowRows + 1
	grid := newPreviewGrid(labelRow+1, cols)

	column := func(pct float64) int {
		c := int(math.Round(pct / 100 * float64(cols-1)))
		return min(max(c, 0), cols-1)
	}

	for c := range cols {
		grid.set(axisRow, c, styles.Axis.Render(axisRune))
	}
	for _, m := range result.ScaleMarkers {
		c := column(m.PositionPct)
		grid.set(axisRow, c, styles.Axis.Render(scaleTickRune))
		label := m.Label
		start := min(max(c-len([]rune(label))/2, 0), cols-len([]rune(label)))
		grid.writeText(labelRow, start, label, styles.Label)
	}
	for _, m := range result.DataMarkers {
		grid.set(axisRow, column(m.PositionPct), styles.Data.Render(dataTickRune))
	}

	colors := groupColors(result.Groups)
	glyph := shapeGlyph(result.Settings.Shape)
	for _, it := range result.Items {
		row := axisRow + 1 + it.Placement.Slot
		if it.Placement.Side == schema.SideAbove {
			row = axisRow - 1 - it.Placement.Slot
		}
		style := lipgloss.NewStyle()
		if c, ok := colors[it.Item.Group]; ok {
			style = style.Foreground(lipgloss.Color(c))
		}
		if it.HasDelta {
			style = style.Inherit(styles.Moved)
		}
		c := column(it.Position.XPct)
		grid.set(row, c, style.Render(glyph))
		grid.writeText(row, c+1, " "+schema.AbbreviateLabel(it.Item.Label, previewLabel), lipgloss.NewStyle())
	}

	out := grid.String()
	if result.Settings.ShowLegend && len(result.Groups) > 0 {
		parts := make([]string, 0, len(result.Groups))
		for _, name := range schema.SortedGroups(result.Groups) {
			swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(colors[name])).Render(glyph)
			parts = append(parts, fmt.Sprintf("%s %s (%d)", swatch, name, result.Groups[name]))
		}
		out += strings.Join(parts, "  ") + "\n"
	}
	return out
}
