package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/mlproject/am"
	"github.com/teranos/mlproject/errors"
	"github.com/teranos/mlproject/ledger"
	"github.com/teranos/mlproject/logger"
)

// RunsCmd inspects the ingestion run ledger.
var RunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded ingestion runs",
	Long: `Inspect the SQLite ledger of ingestion runs.

Examples:
  mlproject runs ls              # Show the 20 most recent runs
  mlproject runs ls --limit 0    # Show every run
  mlproject runs show <id>       # Show one run in detail`,
}

var runsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runRunsLs,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var (
	runsLimit int
	runsJSON  bool
)

func init() {
	runsLsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Number of runs to show (0 for all)")
	runsShowCmd.Flags().BoolVar(&runsJSON, "json", false, "Output the run as JSON")

	RunsCmd.AddCommand(runsLsCmd)
	RunsCmd.AddCommand(runsShowCmd)
}

// openExistingLedger opens the configured ledger, or returns nil when
// nothing has been recorded yet.
func openExistingLedger() (*ledger.Store, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	path := cfg.GetLedgerPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return ledger.Open(path, logger.ComponentLogger("ledger"))
}

func runRunsLs(cmd *cobra.Command, args []string) error {
	store, err := openExistingLedger()
	if err != nil {
		return err
	}
	if store == nil {
		pterm.Info.Println("No runs recorded yet")
		return nil
	}
	defer store.Close()

	runs, err := store.List(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		pterm.Info.Println("No runs recorded yet")
		return nil
	}

	data := pterm.TableData{{"ID", "Started", "Status", "Source", "Train", "Test", "Error"}}
	for _, r := range runs {
		data = append(data, []string{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			statusText(r.Status),
			r.Source,
			strconv.Itoa(r.TrainRows),
			strconv.Itoa(r.TestRows),
			r.ErrorKind,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(data).Render()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	store, err := openExistingLedger()
	if err != nil {
		return err
	}
	if store == nil {
		return errors.Wrapf(ledger.ErrNotFound, "id %s", args[0])
	}
	defer store.Close()

	run, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runsJSON {
		data, err := json.MarshalIndent(run, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal run to JSON")
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "Run:          %s\n", run.ID)
	fmt.Fprintf(out, "Status:       %s\n", run.Status)
	fmt.Fprintf(out, "Source:       %s\n", run.Source)
	fmt.Fprintf(out, "Artifact dir: %s\n", run.ArtifactDir)
	fmt.Fprintf(out, "Test ratio:   %v\n", run.TestRatio)
	fmt.Fprintf(out, "Seed:         %d\n", run.Seed)
	fmt.Fprintf(out, "Started:      %s\n", run.StartedAt.Local().Format(time.RFC3339))
	if run.FinishedAt != nil {
		fmt.Fprintf(out, "Duration:     %s\n", run.Duration().Round(time.Millisecond))
	}
	if run.Status == ledger.StatusSucceeded {
		fmt.Fprintf(out, "Rows:         %d source, %d train, %d test\n", run.SourceRows, run.TrainRows, run.TestRows)
		fmt.Fprintf(out, "Train:        %s\n", run.TrainPath)
		fmt.Fprintf(out, "Test:         %s\n", run.TestPath)
	}
	if run.Status == ledger.StatusFailed {
		fmt.Fprintf(out, "Error kind:   %s\n", run.ErrorKind)
		fmt.Fprintf(out, "Error:        %s\n", run.ErrorMessage)
	}
	return nil
}

func statusText(s ledger.Status) string {
	switch s {
	case ledger.StatusSucceeded:
		return pterm.Green(string(s))
	case ledger.StatusFailed:
		return pterm.Red(string(s))
	default:
		return pterm.Yellow(string(s))
	}
}
