package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/boardline/core"
	"github.com/huangsam/boardline/internal/contract"
	"github.com/huangsam/boardline/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// configFor applies the per-call board overrides to a copy of the base config.
func (h *toolHandler) configFor(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("board_path", ""); p != "" {
		cfg.BoardPath = p
	}
	if cfg.BoardPath == "" {
		return nil, errors.New("board_path is required when the server has no default board")
	}
	if c := request.GetString("date_column", ""); c != "" {
		cfg.Settings.DateColumn = c
	}
	if a := request.GetString("anchor", ""); a != "" {
		if _, ok := schema.ValidAnchorPolicies[schema.AnchorPolicy(a)]; !ok {
			return nil, fmt.Errorf("invalid anchor %q", a)
		}
		cfg.Settings.Anchor = schema.AnchorPolicy(a)
	}
	if s := request.GetString("scale", ""); s != "" {
		if _, ok := schema.ValidGranularities[schema.Granularity(s)]; !ok {
			return nil, fmt.Errorf("invalid scale %q", s)
		}
		cfg.Settings.Granularity = schema.Granularity(s)
	}
	return cfg, nil
}

// withBoard opens the requested board, runs fn and closes the board so pending saves land.
func (h *toolHandler) withBoard(ctx context.Context, request mcp.CallToolRequest, fn func(cfg *contract.Config, b *core.Board) (any, error)) *mcp.CallToolResult {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err))
	}
	b, err := core.OpenBoard(ctx, cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open board: %v", err))
	}
	defer b.Close()

	payload, err := fn(cfg, b)
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	jsonData, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) layout(ctx context.Context, cfg *contract.Config, b *core.Board) (schema.LayoutResult, error) {
	result, err := core.BuildLayout(ctx, cfg, h.mgr, b)
	if err != nil {
		return result, fmt.Errorf("layout failed: %w", err)
	}
	return result, nil
}

func (h *toolHandler) handleGetLayout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.withBoard(ctx, request, func(cfg *contract.Config, b *core.Board) (any, error) {
		return h.layout(ctx, cfg, b)
	}), nil
}

// markersResponse is the payload of get_markers.
type markersResponse struct {
	Window       schema.TimeWindow `json:"window"`
	ScaleMarkers []schema.Marker   `json:"scale_markers"`
	DataMarkers  []schema.Marker   `json:"data_markers"`
}

func (h *toolHandler) handleGetMarkers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.withBoard(ctx, request, func(_ *contract.Config, b *core.Board) (any, error) {
		result, err := b.Layout()
		if err != nil {
			return nil, fmt.Errorf("layout failed: %w", err)
		}
		return markersResponse{Window: result.Window, ScaleMarkers: result.ScaleMarkers, DataMarkers: result.DataMarkers}, nil
	}), nil
}

func (h *toolHandler) handleHideItems(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := splitIDs(request.GetString("item_ids", ""))
	if len(ids) == 0 {
		return mcp.NewToolResultError("item_ids is required"), nil
	}
	return h.withBoard(ctx, request, func(cfg *contract.Config, b *core.Board) (any, error) {
		if err := core.RequireKnown(b, ids); err != nil {
			return nil, err
		}
		b.Hide(ids...)
		return h.layout(ctx, cfg, b)
	}), nil
}

func (h *toolHandler) handleUnhideItems(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := splitIDs(request.GetString("item_ids", ""))
	all := request.GetBool("all", false)
	if len(ids) == 0 && !all {
		return mcp.NewToolResultError("either item_ids or all is required"), nil
	}
	return h.withBoard(ctx, request, func(cfg *contract.Config, b *core.Board) (any, error) {
		if all {
			b.UnhideAll()
		} else {
			if err := core.RequireKnown(b, ids); err != nil {
				return nil, err
			}
			b.Unhide(ids...)
		}
		return h.layout(ctx, cfg, b)
	}), nil
}

// dragResponse is the payload of drag_item.
type dragResponse struct {
	Drag   core.DragResult     `json:"drag"`
	Layout schema.LayoutResult `json:"layout"`
}

func (h *toolHandler) handleDragItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := core.DragRequest{
		ItemID:     request.GetString("item_id", ""),
		DxPx:       request.GetFloat("dx_px", 0),
		DyPx:       request.GetFloat("dy_px", 0),
		Reschedule: request.GetBool("reschedule", false),
	}
	if req.ItemID == "" {
		return mcp.NewToolResultError("item_id is required"), nil
	}
	return h.withBoard(ctx, request, func(cfg *contract.Config, b *core.Board) (any, error) {
		res, err := core.Drag(ctx, b, req)
		if err != nil {
			return nil, fmt.Errorf("drag failed: %w", err)
		}
		result, err := h.layout(ctx, cfg, b)
		if err != nil {
			return nil, err
		}
		return dragResponse{Drag: res, Layout: result}, nil
	}), nil
}

func (h *toolHandler) handleRescheduleItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := core.RescheduleRequest{ItemID: request.GetString("item_id", "")}
	if req.ItemID == "" {
		return mcp.NewToolResultError("item_id is required"), nil
	}
	if s := request.GetString("date", ""); s != "" {
		d, err := contract.ParseDateValue(s, h.baseCfg.Clock()())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid date %q: %v", s, err)), nil
		}
		req.Date = d
	} else if args := request.GetArguments(); args["at_pct"] != nil {
		at := request.GetFloat("at_pct", 0)
		if at < 0 || at > 100 {
			return mcp.NewToolResultError("at_pct must be between 0 and 100"), nil
		}
		req.AtPct = &at
	} else {
		return mcp.NewToolResultError("either date or at_pct is required"), nil
	}

	return h.withBoard(ctx, request, func(cfg *contract.Config, b *core.Board) (any, error) {
		if _, err := core.Reschedule(ctx, b, req); err != nil {
			return nil, fmt.Errorf("reschedule failed: %w", err)
		}
		return h.layout(ctx, cfg, b)
	}), nil
}

// splitIDs parses a comma-separated id list, dropping blanks.
func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
