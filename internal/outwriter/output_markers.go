package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/huangsam/boardline/internal/contract"
	"github.com/huangsam/boardline/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Marker sets as reported in the "axis" column.
const (
	scaleAxis = "scale"
	dataAxis  = "data"
)

// markersOutput is the JSON shape of the markers command.
type markersOutput struct {
	BoardID      string            `json:"board_id"`
	Window       schema.TimeWindow `json:"window"`
	ScaleMarkers []schema.Marker   `json:"scale_markers"`
	DataMarkers  []schema.Marker   `json:"data_markers"`
}

type axisMarker struct {
	axis string
	schema.Marker
}

// flattenMarkers lists scale markers then data markers.
func flattenMarkers(result schema.LayoutResult) []axisMarker {
	out := make([]axisMarker, 0, len(result.ScaleMarkers)+len(result.DataMarkers))
	for _, m := range result.ScaleMarkers {
		out = append(out, axisMarker{axis: scaleAxis, Marker: m})
	}
	for _, m := range result.DataMarkers {
		out = append(out, axisMarker{axis: dataAxis, Marker: m})
	}
	return out
}

// printMarkers dispatches on the configured output format. Formats without a
// marker rendition fall back to the table.
func (ow *OutWriter) printMarkers(result schema.LayoutResult, cfg *contract.Config) error {
	fmtFloat := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		payload := markersOutput{
			BoardID:      result.BoardID,
			Window:       result.Window,
			ScaleMarkers: result.ScaleMarkers,
			DataMarkers:  result.DataMarkers,
		}
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, payload)
		}, "Wrote JSON markers"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMarkersCSV(w, result, fmtFloat)
		}, "Wrote CSV markers"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		if err := ow.printMarkersTable(result, cfg, fmtFloat); err != nil {
			return fmt.Errorf("error writing markers table output: %w", err)
		}
	}
	return nil
}

func writeMarkersCSV(w io.Writer, result schema.LayoutResult, fmtFloat func(float64) string) error {
	header := []string{"axis", "kind", "date", "label", "position_pct"}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for _, m := range flattenMarkers(result) {
			record := []string{
				m.axis,
				string(m.Kind),
				m.Date.Format(schema.DateLayout),
				m.Label,
				fmtFloat(m.PositionPct),
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV record for %s: %w", m.Label, err)
			}
		}
		return nil
	})
}

func (ow *OutWriter) printMarkersTable(result schema.LayoutResult, cfg *contract.Config, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(ow.out)
	table.Header([]string{"Axis", "Kind", "Date", "Label", "Pos %"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, m := range flattenMarkers(result) {
		kind := string(m.Kind)
		if cfg.UseColors {
			kind = contract.GetColorKindLabel(m.Kind)
		}
		data = append(data, []string{
			m.axis,
			kind,
			m.Date.Format(schema.DateLayout),
			m.Label,
			fmtFloat(m.PositionPct),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(ow.out, "%d scale markers and %d data markers between %s and %s\n",
		len(result.ScaleMarkers), len(result.DataMarkers),
		result.Window.Start.Format(schema.DateLayout), result.Window.End.Format(schema.DateLayout))
	return err
}
