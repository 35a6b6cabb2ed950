// Package cmd defines the command-line interface for boardline.
package cmd

import (
	"github.com/huangsam/boardline/internal/contract"
	"github.com/huangsam/boardline/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(markersCmd)
	rootCmd.AddCommand(hideCmd)
	rootCmd.AddCommand(unhideCmd)
	rootCmd.AddCommand(dragCmd)
	rootCmd.AddCommand(rescheduleCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	defaults := schema.DefaultSettings()

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("date-column", "", "Column holding item dates (defaults to the board file's date_column)")
	rootCmd.PersistentFlags().String("scale", string(defaults.Granularity), "Scale markers: day or week or month or quarter or year or none")
	rootCmd.PersistentFlags().String("anchor", string(defaults.Anchor), "Anchor policy: above or below or alternate or center")
	rootCmd.PersistentFlags().String("shape", string(defaults.Shape), "Item shape: circle or square or diamond or triangle")
	rootCmd.PersistentFlags().Float64("item-size", 0, "Item size in pixels (0 = default)")
	rootCmd.PersistentFlags().String("show-dates", "", "Label data markers with their dates (yes/no)")
	rootCmd.PersistentFlags().Bool("show-legend", false, "Show the group legend")
	rootCmd.PersistentFlags().Float64("container-width", contract.DefaultContainerWidthPx, "Timeline container width in pixels")
	rootCmd.PersistentFlags().Float64("container-height", contract.DefaultContainerHeightPx, "Timeline container height in pixels")
	rootCmd.PersistentFlags().Float64("item-width", 0, "Item card width in pixels (0 = item size)")
	rootCmd.PersistentFlags().Float64("item-height", 0, "Item card height in pixels (0 = item size)")
	rootCmd.PersistentFlags().String("now", "", "Date used as today for empty boards (YYYY-MM-DD or relative)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet or svg or preview")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("state-backend", string(schema.SQLiteBackend), "Board state backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("state-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("history-backend", "", "Layout history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for layout history (must differ from state-db-connect)")
	rootCmd.PersistentFlags().String("emoji", "no", "Prefix notices with emojis (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print debug logs to stderr")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Command-local flags are read from cobra directly since drag and
	// reschedule share names that viper would collapse into one key.
	unhideCmd.Flags().Bool("all", false, "Restore every hidden item")

	dragCmd.Flags().String("item", "", "ID of the item to drag")
	dragCmd.Flags().Float64("dx", 0, "Horizontal pointer displacement in pixels")
	dragCmd.Flags().Float64("dy", 0, "Vertical pointer displacement in pixels")
	dragCmd.Flags().Bool("reschedule", false, "Write back the date implied by the drop position")
	_ = dragCmd.MarkFlagRequired("item")

	rescheduleCmd.Flags().String("item", "", "ID of the item to reschedule")
	rescheduleCmd.Flags().String("date", "", "New date (YYYY-MM-DD or relative, e.g. \"in 2 weeks\")")
	rescheduleCmd.Flags().Float64("at", -1, "New horizontal position in percent of the axis (0-100)")
	_ = rescheduleCmd.MarkFlagRequired("item")
	rescheduleCmd.MarkFlagsMutuallyExclusive("date", "at")
	rescheduleCmd.MarkFlagsOneRequired("date", "at")

	storeClearCmd.Flags().String("board", "", "Only clear the state of this board ID")

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
