// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/boardline/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// anchorEnum and scaleEnum list the accepted values of the override parameters.
var (
	anchorEnum = []string{"above", "below", "alternate", "center"}
	scaleEnum  = []string{"day", "week", "month", "quarter", "year", "none"}
)

// boardParams are accepted by every tool that opens a board.
func boardParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("board_path", mcp.Description("Path to the YAML or JSON board file (defaults to the board the server was started with).")),
		mcp.WithString("date_column", mcp.Description("Column whose dates place items on the timeline (defaults to the board file's date_column).")),
		mcp.WithString("anchor", mcp.Description("Anchor policy for the timeline line."), mcp.Enum(anchorEnum...)),
		mcp.WithString("scale", mcp.Description("Scale marker granularity."), mcp.Enum(scaleEnum...)),
	}
}

func tool(name, description string, opts ...mcp.ToolOption) mcp.Tool {
	all := append([]mcp.ToolOption{mcp.WithDescription(description)}, opts...)
	return mcp.NewTool(name, append(all, boardParams()...)...)
}

// NewMCPServer initializes and configures the boardline MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Boardline Timeline Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: get_layout ---
	s.AddTool(tool("get_layout",
		"Lay out the dated items of a board along a timeline: window, markers, and each item's position, side, slot and offset.",
	), h.handleGetLayout)

	// --- 2. Tool: get_markers ---
	s.AddTool(tool("get_markers",
		"List the scale markers and data markers of a board's timeline axis.",
	), h.handleGetMarkers)

	// --- 3. Tool: hide_items ---
	s.AddTool(tool("hide_items",
		"Hide items from the timeline without deleting them. The hidden set is persisted per board.",
		mcp.WithString("item_ids", mcp.Description("Comma-separated item ids to hide."), mcp.Required()),
	), h.handleHideItems)

	// --- 4. Tool: unhide_items ---
	s.AddTool(tool("unhide_items",
		"Restore hidden items to the timeline.",
		mcp.WithString("item_ids", mcp.Description("Comma-separated item ids to restore.")),
		mcp.WithBoolean("all", mcp.Description("Restore every hidden item.")),
	), h.handleUnhideItems)

	// --- 5. Tool: drag_item ---
	s.AddTool(tool("drag_item",
		"Drag an item by a pointer displacement in container pixels and persist its vertical offset.",
		mcp.WithString("item_id", mcp.Description("Item to drag."), mcp.Required()),
		mcp.WithNumber("dx_px", mcp.Description("Horizontal pointer displacement in pixels.")),
		mcp.WithNumber("dy_px", mcp.Description("Vertical pointer displacement in pixels (positive is down).")),
		mcp.WithBoolean("reschedule", mcp.Description("Write back the date implied by the drop position.")),
	), h.handleDragItem)

	// --- 6. Tool: reschedule_item ---
	s.AddTool(tool("reschedule_item",
		"Move an item to a new date and write it back to the board file.",
		mcp.WithString("item_id", mcp.Description("Item to reschedule."), mcp.Required()),
		mcp.WithString("date", mcp.Description("New date as YYYY-MM-DD, or relative like \"in 2 weeks\".")),
		mcp.WithNumber("at_pct", mcp.Description("Horizontal position (0-100) whose date the item takes; used when date is empty.")),
	), h.handleRescheduleItem)

	return s
}

// StartMCPServer starts the boardline MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
