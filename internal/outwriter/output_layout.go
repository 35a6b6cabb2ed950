package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/boardline/internal/contract"
	"github.com/huangsam/boardline/internal/parquet"
	"github.com/huangsam/boardline/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// ErrParquetNeedsFile is returned when parquet output is requested without an output file.
var ErrParquetNeedsFile = errors.New("parquet output requires --output-file")

// layoutCSVHeader is shared by the CSV writer and its tests.
var layoutCSVHeader = []string{
	"board_id", "item_id", "label", "group", "date", "position_pct",
	"side", "slot", "offset_px", "delta_px", "x_pct", "y_px", "z_index",
}

// printLayout dispatches on the configured output format.
func (ow *OutWriter) printLayout(result schema.LayoutResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON layout"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeLayoutCSV(w, result, fmtFloat)
		}, "Wrote CSV layout"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return ErrParquetNeedsFile
		}
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteLayoutItems(w, parquet.ConvertLayoutResult(result))
		}, "Wrote Parquet layout"); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	case schema.SVGOut:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			_, err := io.WriteString(w, renderSVG(result))
			return err
		}, "Wrote SVG layout"); err != nil {
			return fmt.Errorf("error writing SVG output: %w", err)
		}
	case schema.PreviewOut:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			_, err := io.WriteString(w, renderPreview(result, getTerminalWidth(cfg)))
			return err
		}, "Wrote layout preview"); err != nil {
			return fmt.Errorf("error writing preview output: %w", err)
		}
	default:
		if err := ow.printLayoutTable(result, cfg, fmtFloat, duration); err != nil {
			return fmt.Errorf("error writing layout table output: %w", err)
		}
	}
	return nil
}

// writeLayoutCSV writes one row per visible item.
func writeLayoutCSV(w io.Writer, result schema.LayoutResult, fmtFloat func(float64) string) error {
	return writeCSVWithHeader(w, layoutCSVHeader, func(csvWriter *csv.Writer) error {
		for _, row := range parquet.ConvertLayoutResult(result) {
			group := ""
			if row.Group != nil {
				group = *row.Group
			}
			record := []string{
				row.BoardID,
				row.ItemID,
				row.Label,
				group,
				row.ItemDate.Format(schema.DateLayout),
				fmtFloat(row.PositionPct),
				row.Side,
				strconv.Itoa(int(row.Slot)),
				fmtFloat(row.OffsetPx),
				fmtFloat(row.DeltaPx),
				fmtFloat(row.XPct),
				fmtFloat(row.YPx),
				strconv.Itoa(int(row.ZIndex)),
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV record for %s: %w", row.ItemID, err)
			}
		}
		return nil
	})
}

// printLayoutTable prints the layout as a human-readable table followed by a summary.
func (ow *OutWriter) printLayoutTable(result schema.LayoutResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(ow.out)

	headers := []string{"#", "Item", "Date", "Pos %", "Side", "Slot", "Y px", "Delta"}
	if cfg.Settings.ShowLegend {
		headers = append(headers, "Group")
	}
	headers = append(headers, "Moved")
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	labelWidth := GetMaxTableLabelWidth(cfg)
	var data [][]string
	for _, it := range result.Items {
		side := contract.GetPlainSideLabel(it.Placement.Side)
		moved := ""
		if it.HasDelta {
			moved = contract.MovedValue
		}
		if cfg.UseColors {
			side = contract.GetColorSideLabel(it.Placement.Side)
			moved = contract.GetColorMovedLabel(it.HasDelta)
		}
		row := []string{
			strconv.Itoa(it.Placement.Ordinal + 1),
			contract.TruncateLabel(it.Item.Label, labelWidth),
			it.Item.Date.Format(schema.DateLayout),
			fmtFloat(it.PositionPct),
			side,
			strconv.Itoa(it.Placement.Slot),
			fmtFloat(it.Position.YPx),
			fmtFloat(it.DeltaPx),
		}
		if cfg.Settings.ShowLegend {
			row = append(row, it.Item.Group)
		}
		row = append(row, moved)
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	return ow.printLayoutSummary(result, cfg, duration)
}

// printLayoutSummary prints the trailer under the layout table.
func (ow *OutWriter) printLayoutSummary(result schema.LayoutResult, cfg *contract.Config, duration time.Duration) error {
	header := fmt.Sprintf("Laid out %d items on board %s in %v", len(result.Items), result.BoardID, duration)
	if cfg.UseEmojis {
		header = "🗓️  " + header
	}
	if _, err := fmt.Fprintf(ow.out, "%s (window %s to %s, anchor %s, scale %s). State backend: %s\n",
		header,
		result.Window.Start.Format(schema.DateLayout),
		result.Window.End.Format(schema.DateLayout),
		result.Settings.Anchor,
		result.Settings.Granularity,
		cfg.StateBackend,
	); err != nil {
		return err
	}

	if len(result.Hidden) > 0 {
		if _, err := fmt.Fprintf(ow.out, "Hidden: %s\n", schema.FormatIDs(result.Hidden)); err != nil {
			return err
		}
	}
	if result.Excluded > 0 {
		if _, err := fmt.Fprintf(ow.out, "Excluded %d items without a usable %q date\n", result.Excluded, result.Settings.DateColumn); err != nil {
			return err
		}
	}
	if result.Settings.ShowLegend && len(result.Groups) > 0 {
		if _, err := fmt.Fprintf(ow.out, "Groups: %s\n", formatGroups(result.Groups)); err != nil {
			return err
		}
	}
	return nil
}

// formatGroups renders group counts as "a (3), b (1)".
func formatGroups(groups map[string]int) string {
	names := schema.SortedGroups(groups)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s (%d)", name, groups[name])
	}
	return strings.Join(parts, ", ")
}
