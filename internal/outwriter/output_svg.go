package outwriter

import (
	"fmt"
	"math"
	"strings"

	"github.com/huangsam/boardline/internal/contract"
	"github.com/huangsam/boardline/schema"
)

// SVG colors and text sizes.
const (
	svgBackground  = "#ffffff"
	svgAxisColor   = "#333333"
	svgTickColor   = "#999999"
	svgTextColor   = "#222222"
	svgDefaultFill = "#4a90d9"
	svgMovedStroke = "#e6a700"
	svgFontFamily  = "Arial, sans-serif"
	svgFontSize    = 11
	svgLabelRunes  = 24
)

// groupPalette colors items by group, in SortedGroups order.
var groupPalette = []string{
	"#4a90d9", "#d9534f", "#5cb85c", "#f0ad4e", "#9b59b6",
	"#1abc9c", "#e67e22", "#34495e", "#e84393", "#7f8c8d",
}

// renderSVG draws the layout as a standalone SVG document sized like the container.
func renderSVG(result schema.LayoutResult) string {
	width := result.Geometry.ContainerWidthPx
	height := result.Geometry.ContainerHeightPx
	if width <= 0 || height <= 0 {
		width, height = contract.DefaultContainerWidthPx, contract.DefaultContainerHeightPx
	}
	anchorY := result.AnchorLinePx
	colors := groupColors(result.Groups)

	var svg strings.Builder
	svg.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg width="%s" height="%s" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="%s"/>
`, px(width), px(height), svgBackground))

	// Scale ticks run the full height; their labels sit at the bottom edge
	for _, m := range result.ScaleMarkers {
		x := m.PositionPct / 100 * width
		svg.WriteString(fmt.Sprintf(`<line x1="%s" y1="0" x2="%s" y2="%s" stroke="%s" stroke-width="1" stroke-dasharray="2,4"/>`+"\n",
			px(x), px(x), px(height), svgTickColor))
		svg.WriteString(svgText(x, height-4, "middle", svgTickColor, m.Label))
	}

	svg.WriteString(fmt.Sprintf(`<line x1="0" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="2"/>`+"\n",
		px(anchorY), px(width), px(anchorY), svgAxisColor))

	for _, m := range result.DataMarkers {
		x := m.PositionPct / 100 * width
		svg.WriteString(fmt.Sprintf(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="2"/>`+"\n",
			px(x), px(anchorY-5), px(x), px(anchorY+5), svgAxisColor))
		if result.Settings.ShowDates {
			svg.WriteString(svgText(x, anchorY+5+svgFontSize, "middle", svgTextColor, m.Label))
		}
	}

	size := result.Settings.ItemSizePx
	for _, it := range result.Items {
		x := it.Position.XPct / 100 * width
		y := it.Position.YPx
		fill := svgDefaultFill
		if c, ok := colors[it.Item.Group]; ok {
			fill = c
		}
		svg.WriteString(fmt.Sprintf(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="1"/>`+"\n",
			px(x), px(anchorY), px(x), px(y), svgTickColor))
		drawItemShape(&svg, result.Settings.Shape, x, y, size/2, fill, it.HasDelta)

		labelY := y + size/2 + svgFontSize
		if it.Placement.Side == schema.SideAbove {
			labelY = y - size/2 - 4
		}
		svg.WriteString(svgText(x, labelY, "middle", svgTextColor, schema.AbbreviateLabel(it.Item.Label, svgLabelRunes)))
	}

	if result.Settings.ShowLegend {
		drawLegend(&svg, result.Groups, colors)
	}

	svg.WriteString("</svg>\n")
	return svg.String()
}

// drawItemShape draws one item marker centered on (x, y).
func drawItemShape(svg *strings.Builder, shape schema.ItemShape, x, y, r float64, fill string, moved bool) {
	stroke := svgAxisColor
	if moved {
		stroke = svgMovedStroke
	}

	switch shape {
	case schema.SquareShape:
		svg.WriteString(fmt.Sprintf(`<rect x="%s" y="%s" width="%s" height="%s" fill="%s" stroke="%s" stroke-width="1"/>`,
			px(x-r), px(y-r), px(2*r), px(2*r), fill, stroke))
	case schema.DiamondShape:
		svg.WriteString(fmt.Sprintf(`<polygon points="%s,%s %s,%s %s,%s %s,%s" fill="%s" stroke="%s" stroke-width="1"/>`,
			px(x), px(y-r),
			px(x+r), px(y),
			px(x), px(y+r),
			px(x-r), px(y),
			fill, stroke))
	case schema.TriangleShape:
		svg.WriteString(fmt.Sprintf(`<polygon points="%s,%s %s,%s %s,%s" fill="%s" stroke="%s" stroke-width="1"/>`,
			px(x), px(y-r),
			px(x-r), px(y+r),
			px(x+r), px(y+r),
			fill, stroke))
	default:
		svg.WriteString(fmt.Sprintf(`<circle cx="%s" cy="%s" r="%s" fill="%s" stroke="%s" stroke-width="1"/>`,
			px(x), px(y), px(r), fill, stroke))
	}
	svg.WriteString("\n")
}

// drawLegend lists group swatches in the top-left corner.
func drawLegend(svg *strings.Builder, groups map[string]int, colors map[string]string) {
	for i, name := range schema.SortedGroups(groups) {
		y := float64(8 + i*(svgFontSize+4))
		svg.WriteString(fmt.Sprintf(`<rect x="8" y="%s" width="10" height="10" fill="%s"/>`+"\n", px(y), colors[name]))
		svg.WriteString(svgText(22, y+9, "start", svgTextColor, fmt.Sprintf("%s (%d)", name, groups[name])))
	}
}

// groupColors assigns palette colors to groups, cycling when there are more groups than colors.
func groupColors(groups map[string]int) map[string]string {
	colors := make(map[string]string, len(groups))
	for i, name := range schema.SortedGroups(groups) {
		colors[name] = groupPalette[i%len(groupPalette)]
	}
	return colors
}

func svgText(x, y float64, anchor, fill, text string) string {
	return fmt.Sprintf(`<text x="%s" y="%s" text-anchor="%s" font-family="%s" font-size="%d" fill="%s">%s</text>`+"\n",
		px(x), px(y), anchor, svgFontFamily, svgFontSize, fill, escapeXML(text))
}

// px formats a coordinate with at most one decimal.
func px(v float64) string {
	v = math.Round(v*10) / 10
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

// escapeXML escapes the characters that are special in SVG text content.
func escapeXML(s string) string {
	return strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	).Replace(s)
}
