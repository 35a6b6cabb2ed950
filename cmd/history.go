package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/boardline/internal/contract"
	"github.com/huangsam/boardline/internal/iocache"
	"github.com/huangsam/boardline/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historySetup resolves the history backend and opens the history store.
func historySetup() error {
	if err := historyMigrateSetup(); err != nil {
		return err
	}
	cfg.OutputFile = viper.GetString("output-file")

	if err := iocache.InitStores("", "", cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}
	return nil
}

func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetup resolves the history backend without opening the store,
// so migrations own the schema.
func historyMigrateSetup() error {
	backend, connStr, err := backendSetup("history-backend", "history-db-connect")
	if err != nil {
		return err
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

func historyMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return historyMigrateSetup()
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage layout history tracking and exports",
	Long: `Manage the layout history used for reporting.

When enabled with --history-backend, every layout run is recorded:
- Run metadata (board, timestamp, settings, duration, time window)
- The position of every visible item (date, side, slot, offsets)

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show history statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all history
  migrate - Run database schema migrations

Examples:
  boardline history status --history-backend sqlite
  boardline history export --history-backend sqlite --output-file history`,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all layout history",
	Long: `Delete all recorded layout runs and item positions.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  boardline history export --history-backend sqlite --output-file backup
  boardline history clear --history-backend sqlite`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		path := sqlitePath(cfg.HistoryDBConnect, contract.GetHistoryDBFilePath())
		if err := iocache.ClearHistory(cfg.HistoryBackend, path, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear layout history", err)
		}
		fmt.Println("Layout history cleared successfully.")
	},
}

var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display layout history statistics and connection details",
	Long: `Show the backend, connection status, run count and time range of the
layout history store.

Examples:
  boardline history status --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetHistoryStore()
		if store == nil {
			iocache.PrintHistoryStatus(os.Stdout, schema.HistoryStatus{Backend: string(cfg.HistoryBackend)})
			return
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintHistoryStatus(os.Stdout, status)
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export layout history to Parquet for BI tools and analytics",
	Long: `Export all layout runs and item positions to Parquet.

Two files are written next to --output-file: <file>.layout_runs.parquet
and <file>.item_positions.parquet, ready for DuckDB, pandas or Spark.

Requires: --output-file parameter

Examples:
  boardline history export --history-backend sqlite --output-file history
  duckdb -c "SELECT * FROM read_parquet('history.item_positions.parquet') LIMIT 10"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteHistoryExport(iocache.Manager.GetHistoryStore(), cfg.OutputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export layout history", err)
		}
	},
}

var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the layout history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  boardline history migrate --history-backend sqlite

  # Rollback to initial state
  boardline history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		v, err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Printf("Layout history schema is at version %d.\n", v)
	},
}
