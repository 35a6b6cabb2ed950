package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/boardline/internal/contract"
	mcp_internal "github.com/huangsam/boardline/internal/mcp"
	"github.com/huangsam/boardline/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const board = `board_id: roadmap
date_column: due
items:
  - id: a
    name: Kickoff
    columns:
      due: {date: "2025-01-10"}
  - id: b
    name: Launch
    columns:
      due: {date: "2025-03-01"}
`

func baseConfig(t *testing.T) *contract.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(board), 0o644))

	tuning := schema.DefaultTuning()
	tuning.SaveDebounce = time.Hour
	return &contract.Config{
		BoardPath: path,
		Settings:  schema.DefaultSettings(),
		Geometry:  schema.Geometry{ContainerWidthPx: 1000, ContainerHeightPx: 400, ItemWidthPx: 40, ItemHeightPx: 30},
		Tuning:    tuning,
		Now:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func call(t *testing.T, cfg *contract.Config, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcp_internal.NewMCPServer(cfg, nil)
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	return res
}

func text(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestGetLayout(t *testing.T) {
	res := call(t, baseConfig(t), "get_layout", map[string]any{"anchor": "above"})
	require.False(t, res.IsError, text(res))

	var layout schema.LayoutResult
	require.NoError(t, json.Unmarshal([]byte(text(res)), &layout))
	assert.Equal(t, "roadmap", layout.BoardID)
	assert.Equal(t, schema.AboveAnchor, layout.Settings.Anchor)
	require.Len(t, layout.Items, 2)
	assert.Equal(t, schema.SideAbove, layout.Items[0].Placement.Side)
}

func TestGetMarkers(t *testing.T) {
	res := call(t, baseConfig(t), "get_markers", map[string]any{"scale": "none"})
	require.False(t, res.IsError, text(res))

	var payload struct {
		ScaleMarkers []schema.Marker `json:"scale_markers"`
		DataMarkers  []schema.Marker `json:"data_markers"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(res)), &payload))
	assert.Empty(t, payload.ScaleMarkers)
	assert.NotEmpty(t, payload.DataMarkers)
}

func TestHideItems(t *testing.T) {
	res := call(t, baseConfig(t), "hide_items", map[string]any{"item_ids": "a, "})
	require.False(t, res.IsError, text(res))

	var layout schema.LayoutResult
	require.NoError(t, json.Unmarshal([]byte(text(res)), &layout))
	require.Len(t, layout.Items, 1)
	assert.Equal(t, []string{"a"}, layout.Hidden)
}

func TestDragItem(t *testing.T) {
	res := call(t, baseConfig(t), "drag_item", map[string]any{"item_id": "b", "dy_px": 15.0})
	require.False(t, res.IsError, text(res))

	var payload struct {
		Drag struct {
			ItemID  string  `json:"item_id"`
			DeltaPx float64 `json:"delta_px"`
		} `json:"drag"`
		Layout schema.LayoutResult `json:"layout"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(res)), &payload))
	assert.Equal(t, "b", payload.Drag.ItemID)
	assert.InDelta(t, 15.0, payload.Drag.DeltaPx, 1e-9)
	require.Len(t, payload.Layout.Items, 2)
	assert.True(t, payload.Layout.Items[1].HasDelta)
}

func TestRescheduleItem(t *testing.T) {
	cfg := baseConfig(t)
	res := call(t, cfg, "reschedule_item", map[string]any{"item_id": "a", "date": "2025-02-20"})
	require.False(t, res.IsError, text(res))

	content, err := os.ReadFile(cfg.BoardPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "2025-02-20")
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	cfg := baseConfig(t)

	tests := []struct {
		name     string
		tool     string
		args     map[string]any
		contains string
	}{
		{"hide without ids", "hide_items", map[string]any{}, "item_ids is required"},
		{"hide unknown id", "hide_items", map[string]any{"item_ids": "zzz"}, "unknown item"},
		{"unhide without ids", "unhide_items", map[string]any{}, "either item_ids or all is required"},
		{"unhide unknown id", "unhide_items", map[string]any{"item_ids": "zzz"}, "unknown item"},
		{"invalid anchor", "get_layout", map[string]any{"anchor": "sideways"}, "invalid anchor"},
		{"invalid scale", "get_layout", map[string]any{"scale": "decade"}, "invalid scale"},
		{"missing board", "get_layout", map[string]any{"board_path": "/nonexistent/board.yaml"}, "failed to open board"},
		{"drag without item", "drag_item", map[string]any{}, "item_id is required"},
		{"reschedule bad date", "reschedule_item", map[string]any{"item_id": "a", "date": "02/20/2025"}, "expected YYYY-MM-DD"},
		{"reschedule out of range", "reschedule_item", map[string]any{"item_id": "a", "at_pct": 120.0}, "at_pct must be between 0 and 100"},
		{"reschedule without target", "reschedule_item", map[string]any{"item_id": "a"}, "either date or at_pct is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, cfg, tt.tool, tt.args)
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, text(res), tt.contains)
		})
	}
}
