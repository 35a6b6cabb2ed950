package cmd

import (
	"fmt"

	"github.com/huangsam/boardline/core"
	"github.com/huangsam/boardline/internal/contract"
	"github.com/spf13/cobra"
)

// layoutCmd renders the timeline layout of a board.
var layoutCmd = &cobra.Command{
	Use:   "layout <board-file>",
	Short: "Lay out the items of a board on the timeline.",
	Long: `Compute where every visible item sits on the timeline.

Items are placed horizontally by the date in the date column, then
stacked above or below the anchor line so they do not collide. Offsets
saved by earlier drags are applied on top.

Examples:
  # Table of positions
  boardline layout roadmap.yaml

  # Alternate sides with weekly scale markers
  boardline layout roadmap.yaml --anchor alternate --scale week

  # Render an SVG picture of the board
  boardline layout roadmap.yaml --output svg --output-file roadmap.svg

  # Quick terminal preview
  boardline layout roadmap.yaml --output preview`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteLayout(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Failed to lay out board", err)
		}
	},
}

// markersCmd lists the scale and data markers of a board.
var markersCmd = &cobra.Command{
	Use:   "markers <board-file>",
	Short: "List the scale and data markers of the timeline axis.",
	Long: `Print the markers drawn on the time axis.

Scale markers come from the chosen scale (day, week, month, quarter,
year). Data markers sit at the dates of visible items.

Examples:
  boardline markers roadmap.yaml --scale quarter
  boardline markers roadmap.yaml --output csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMarkers(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Failed to list markers", err)
		}
	},
}

// hideCmd hides items from the timeline.
var hideCmd = &cobra.Command{
	Use:   "hide <board-file> <item-id>...",
	Short: "Hide items from the timeline.",
	Long: `Hide one or more items. Hidden items keep their data on the board but
are left out of the layout until restored with unhide.

Examples:
  boardline hide roadmap.yaml item-3 item-7`,
	Args:    cobra.MinimumNArgs(2),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteHide(rootCtx, cfg, storeManager, args[1:]); err != nil {
			contract.LogFatal("Failed to hide items", err)
		}
	},
}

// unhideCmd restores hidden items.
var unhideCmd = &cobra.Command{
	Use:   "unhide <board-file> [item-id]...",
	Short: "Restore hidden items.",
	Long: `Restore hidden items to the timeline, either by ID or all at once.

Examples:
  boardline unhide roadmap.yaml item-3
  boardline unhide roadmap.yaml --all`,
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
			return err
		}
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) < 2 {
			return fmt.Errorf("either item IDs or --all is required")
		}
		return nil
	},
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		all, _ := cmd.Flags().GetBool("all")
		if err := core.ExecuteUnhide(rootCtx, cfg, storeManager, args[1:], all); err != nil {
			contract.LogFatal("Failed to unhide items", err)
		}
	},
}

// dragCmd simulates a drag gesture on one item.
var dragCmd = &cobra.Command{
	Use:   "drag <board-file> --item <id> --dy <px>",
	Short: "Drag an item vertically, and optionally to a new date.",
	Long: `Apply a drag gesture to one item.

The vertical displacement is clamped to the allowed excursion and saved
as the item's offset. The horizontal displacement maps to a date; pass
--reschedule to write that date back to the board file.

Examples:
  # Nudge an item 30px away from the anchor line
  boardline drag roadmap.yaml --item item-3 --dy 30

  # Move an item 120px to the right and save the new date
  boardline drag roadmap.yaml --item item-3 --dx 120 --reschedule`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		req := core.DragRequest{}
		req.ItemID, _ = cmd.Flags().GetString("item")
		req.DxPx, _ = cmd.Flags().GetFloat64("dx")
		req.DyPx, _ = cmd.Flags().GetFloat64("dy")
		req.Reschedule, _ = cmd.Flags().GetBool("reschedule")
		if err := core.ExecuteDrag(rootCtx, cfg, storeManager, req); err != nil {
			contract.LogFatal("Failed to drag item", err)
		}
	},
}

// rescheduleCmd writes a new date for one item.
var rescheduleCmd = &cobra.Command{
	Use:   "reschedule <board-file> --item <id> (--date <YYYY-MM-DD> | --at <pct>)",
	Short: "Move an item to a new date.",
	Long: `Write a new date for one item back to the board file.

The date is given directly with --date, or as a horizontal position on
the axis with --at, in percent of the timeline width.

Examples:
  boardline reschedule roadmap.yaml --item item-3 --date 2025-06-01
  boardline reschedule roadmap.yaml --item item-3 --at 75`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		req, err := rescheduleRequest(cmd)
		if err != nil {
			contract.LogFatal("Invalid reschedule request", err)
		}
		if err := core.ExecuteReschedule(rootCtx, cfg, storeManager, req); err != nil {
			contract.LogFatal("Failed to reschedule item", err)
		}
	},
}

// rescheduleRequest reads the reschedule flags.
func rescheduleRequest(cmd *cobra.Command) (core.RescheduleRequest, error) {
	req := core.RescheduleRequest{}
	req.ItemID, _ = cmd.Flags().GetString("item")

	if cmd.Flags().Changed("at") {
		at, _ := cmd.Flags().GetFloat64("at")
		if at < 0 || at > 100 {
			return req, fmt.Errorf("--at must be between 0 and 100 (received %g)", at)
		}
		req.AtPct = &at
		return req, nil
	}

	raw, _ := cmd.Flags().GetString("date")
	d, err := contract.ParseDateValue(raw, cfg.Clock()())
	if err != nil {
		return req, fmt.Errorf("invalid --date %q: %w", raw, err)
	}
	req.Date = d
	return req, nil
}
