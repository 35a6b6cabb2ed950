package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/boardline/internal/contract"
	"github.com/huangsam/boardline/internal/parquet"
)

// ExecuteHistoryExport writes the layout history to two Parquet files
// named after outputFile.
func ExecuteHistoryExport(store contract.HistoryStore, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no layout history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total layout runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total item positions: %d\n", status.TableSizes[itemPositionsTable])

	runs, err := store.GetAllLayoutRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve layout runs: %w", err)
	}
	positions, err := store.GetAllItemPositions()
	if err != nil {
		return fmt.Errorf("failed to retrieve item positions: %w", err)
	}

	runsFile := outputFile + ".layout_runs.parquet"
	parquetRuns := parquet.ConvertLayoutRunRecords(runs)
	if err := parquet.WriteLayoutRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write layout runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d layout runs to: %s\n", len(parquetRuns), runsFile)

	positionsFile := outputFile + ".item_positions.parquet"
	parquetPositions := parquet.ConvertItemPositionRecords(positions)
	if err := parquet.WriteItemPositionsParquet(parquetPositions, positionsFile); err != nil {
		return fmt.Errorf("failed to write item positions: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d item positions to: %s\n", len(parquetPositions), positionsFile)

	return nil
}
