package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/mlproject/am"
	"github.com/teranos/mlproject/cmd/mlproject/commands"
	"github.com/teranos/mlproject/errors"
	"github.com/teranos/mlproject/logger"
)

var rootCmd = &cobra.Command{
	Use:   "mlproject",
	Short: "mlproject - data preparation for the student performance model",
	Long: `mlproject - data preparation for the student performance model.

Loads the source dataset, keeps a raw snapshot and writes deterministic
train and test partitions for the downstream transformation and training
stages. Every ingestion run is recorded in a SQLite ledger.

Available commands:
  ingest  - Run the data ingestion stage
  am      - Manage mlproject configuration ("I am")
  runs    - Inspect recorded ingestion runs
  version - Show version information

Examples:
  mlproject ingest                 # Ingest with configured settings
  mlproject ingest -v --seed 7     # Show stage progress, override the seed
  mlproject runs ls                # List recent runs
  mlproject am show                # Show current configuration`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")

		// Config may raise the log level or switch to JSON; flags never lower it
		cfg, cfgErr := am.Load()
		if cfgErr == nil {
			verbosity = max(verbosity, cfg.Log.Verbosity)
			jsonLogs = jsonLogs || cfg.Log.JSON
		}

		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		logger.Debugw("Logger initialized", "verbosity", logger.LevelName(verbosity), "json", jsonLogs)
		if cfgErr != nil {
			logger.Warnw("Failed to load configuration", logger.FieldError, cfgErr.Error())
		} else if logger.ShouldOutput(verbosity, logger.OutputConfig) {
			logger.Debugw("Configuration loaded", "config", cfg.String(), "files", am.ConfigPaths())
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit structured JSON logs on stderr")

	rootCmd.AddCommand(commands.IngestCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.RunsCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		verbosity, _ := rootCmd.PersistentFlags().GetCount("verbose")
		if verbosity >= logger.VerbosityDebug {
			fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		logger.Cleanup()
		os.Exit(1)
	}
}
