package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/boardline/internal/contract"
	"github.com/huangsam/boardline/internal/iocache"
	"github.com/huangsam/boardline/schema"
	"github.com/spf13/cobra"
)

// sqlitePath returns the file behind a SQLite connection string.
func sqlitePath(connStr, defaultPath string) string {
	if connStr == "" {
		return defaultPath
	}
	return connStr
}

// storeSetup resolves the board state backend from flags, env and config file.
func storeSetup() error {
	backend, connStr, err := backendSetup("state-backend", "state-db-connect")
	if err != nil {
		return err
	}
	cfg.StateBackend = backend
	cfg.StateDBConnect = connStr
	return nil
}

func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// storeCmd is the parent of the board state maintenance commands.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage persisted board state",
	Long: `Manage the per-board state boardline keeps between runs:
hidden items and the vertical offsets saved by drags.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show store statistics
  clear  - Remove stored state

Examples:
  boardline store status
  boardline store clear --board roadmap`,
}

var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove persisted board state",
	Long: `Delete stored hidden sets and drag offsets.

With --board only that board's state is removed. Without it the whole
store is dropped.

WARNING: This action cannot be undone.

Examples:
  boardline store clear
  boardline store clear --board roadmap`,
	PreRunE: storeSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		boardID, _ := cmd.Flags().GetString("board")
		if boardID == "" {
			path := sqlitePath(cfg.StateDBConnect, contract.GetStateDBFilePath())
			if err := iocache.ClearState(cfg.StateBackend, path, cfg.StateDBConnect); err != nil {
				contract.LogFatal("Failed to clear board state", err)
			}
			fmt.Println("Board state cleared successfully.")
			return
		}

		if err := iocache.InitStores(cfg.StateBackend, cfg.StateDBConnect, "", ""); err != nil {
			contract.LogFatal("Failed to open board state", err)
		}
		if err := iocache.ClearBoardState(rootCtx, boardID); err != nil {
			contract.LogFatal("Failed to clear board state", err)
		}
		fmt.Printf("State of board %s cleared successfully.\n", boardID)
	},
}

var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display board state statistics and connection details",
	Long: `Show the backend, connection status, entry count and age of the
board state store.

Examples:
  boardline store status
  boardline store status --state-backend postgresql --state-db-connect "host=localhost dbname=boardline"`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.InitStores(cfg.StateBackend, cfg.StateDBConnect, "", ""); err != nil {
			contract.LogFatal("Failed to open board state", err)
		}
		status, err := storeStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		iocache.PrintStoreStatus(os.Stdout, status)
	},
}

func storeStatus() (schema.StoreStatus, error) {
	kv := iocache.Manager.GetKVStore()
	if kv == nil {
		return schema.StoreStatus{Backend: string(cfg.StateBackend)}, nil
	}
	return kv.GetStatus()
}
