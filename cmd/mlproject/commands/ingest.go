package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/mlproject/am"
	"github.com/teranos/mlproject/dataset"
	"github.com/teranos/mlproject/errors"
	"github.com/teranos/mlproject/ingestion"
	"github.com/teranos/mlproject/ledger"
	"github.com/teranos/mlproject/logger"
	"github.com/teranos/mlproject/source"
)

// IngestCmd runs the data ingestion stage.
var IngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load the source dataset and write raw, train and test partitions",
	Long: `Load the source dataset, save a raw snapshot and split it into train and
test partitions under the artifact directory.

Flags override am.toml and MLPROJECT_* environment variables.

Examples:
  mlproject ingest                                  # Use configured source and artifact dir
  mlproject ingest --source data/stud.csv --seed 7  # Override source and seed
  mlproject ingest --watch                          # Re-run whenever the source file changes`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

var (
	ingestSource      string
	ingestArtifactDir string
	ingestTestRatio   float64
	ingestSeed        int64
	ingestWatch       bool
	ingestNoLedger    bool
)

func init() {
	IngestCmd.Flags().StringVar(&ingestSource, "source", "", "Source dataset path or URL")
	IngestCmd.Flags().StringVar(&ingestArtifactDir, "artifact-dir", "", "Directory for data.csv, train.csv and test.csv")
	IngestCmd.Flags().Float64Var(&ingestTestRatio, "test-ratio", am.DefaultTestRatio, "Fraction of rows held out for evaluation")
	IngestCmd.Flags().Int64Var(&ingestSeed, "seed", am.DefaultSeed, "Partition seed")
	IngestCmd.Flags().BoolVar(&ingestWatch, "watch", false, "Re-run ingestion when the source file changes")
	IngestCmd.Flags().BoolVar(&ingestNoLedger, "no-ledger", false, "Do not record the run in the ledger")
}

func runIngest(cmd *cobra.Command, args []string) error {
	base, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	cfg := effectiveConfig(cmd, base)
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid ingestion settings")
	}

	verbosity, _ := cmd.Flags().GetCount("verbose")
	stage := ingestion.NewStage(stageOptions(cfg,
		logger.NewProgressRecorder(logger.ComponentLogger("ingestion")))...)

	var store *ledger.Store
	if cfg.Ledger.Enabled && !ingestNoLedger {
		store, err = openLedger(cfg.GetLedgerPath())
		if err != nil {
			return err
		}
		defer store.Close()
		if logger.ShouldOutput(verbosity, logger.OutputLedger) {
			pterm.Info.Printfln("Recording run in %s", cfg.GetLedgerPath())
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ingestOnce(ctx, stage, store, verbosity); err != nil {
		if !ingestWatch {
			return err
		}
		pterm.Error.Println(err.Error())
	}
	if !ingestWatch {
		return nil
	}
	return watchSource(ctx, stage, store, verbosity)
}

// effectiveConfig returns base with any ingest flags the user set applied.
func effectiveConfig(cmd *cobra.Command, base *am.Config) *am.Config {
	cfg := *base
	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Ingestion.Source = ingestSource
	}
	if flags.Changed("artifact-dir") {
		cfg.Ingestion.ArtifactDir = ingestArtifactDir
	}
	if flags.Changed("test-ratio") {
		cfg.Ingestion.TestRatio = ingestTestRatio
	}
	if flags.Changed("seed") {
		cfg.Ingestion.Seed = ingestSeed
	}
	return &cfg
}

// stageOptions maps configuration onto ingestion stage options.
func stageOptions(cfg *am.Config, recorder ingestion.Recorder) []ingestion.Option {
	return []ingestion.Option{
		ingestion.WithSource(cfg.Ingestion.Source),
		ingestion.WithConfig(ingestion.NewConfig(cfg.Ingestion.ArtifactDir)),
		ingestion.WithTestRatio(cfg.Ingestion.TestRatio),
		ingestion.WithSeed(uint64(cfg.Ingestion.Seed)),
		ingestion.WithResolver(source.NewResolver(cfg.Ingestion.CacheDir)),
		ingestion.WithRecorder(recorder),
	}
}

func openLedger(path string) (*ledger.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), am.DefaultDirPermissions); err != nil {
		return nil, errors.Wrapf(err, "create ledger directory for %s", path)
	}
	store, err := ledger.Open(path, logger.ComponentLogger("ledger"))
	if err != nil {
		return nil, err
	}
	return store, nil
}

// ingestOnce runs the stage, through the ledger when one is open, and
// prints where the partitions were written.
func ingestOnce(ctx context.Context, stage *ingestion.Stage, store *ledger.Store, verbosity int) error {
	var (
		run *ledger.Run
		res *ingestion.Result
		err error
	)
	if store != nil {
		run, res, err = store.Track(ctx, stage)
	} else {
		res, err = stage.Execute()
	}
	if err != nil {
		logFailure(err)
		return err
	}

	pterm.Success.Printfln("Ingested %d rows from %s", res.SourceRows, stage.Source())
	pterm.Printfln("  Train: %s (%d rows)", res.Train, res.TrainRows)
	pterm.Printfln("  Test:  %s (%d rows)", res.Test, res.TestRows)
	if logger.ShouldOutput(verbosity, logger.OutputSummary) {
		pterm.Printfln("  Raw:   %s", res.Raw)
		if run != nil {
			pterm.Printfln("  Run:   %s", run.ID)
		}
	}
	if logger.ShouldOutput(verbosity, logger.OutputTiming) {
		pterm.Printfln("  Took:  %s", res.Duration.Round(time.Millisecond))
	}
	return nil
}

func logFailure(err error) {
	fields := []interface{}{
		logger.FieldErrorKind, errors.KindOf(err),
		logger.FieldError, err.Error(),
	}
	if f, ok := errors.AsFailure(err); ok {
		fields = append(fields,
			logger.FieldFile, f.Location().File,
			logger.FieldLine, f.Location().Line,
		)
	}
	logger.Errorw("Ingestion failed", fields...)
}

// watchSource re-runs the stage after every change to a local source until
// ctx is cancelled. Failed runs are reported and watching continues.
func watchSource(ctx context.Context, stage *ingestion.Stage, store *ledger.Store, verbosity int) error {
	if source.IsRemote(stage.Source()) {
		return errors.Newf("--watch requires a local source, got %s", stage.Source())
	}

	path := source.NormalizePath(stage.Source())
	if err := checkWatchTarget(path, stage.Config()); err != nil {
		return err
	}

	w, err := source.NewWatcher(path, source.DefaultDebounce, logger.ComponentLogger("watcher"))
	if err != nil {
		return err
	}
	defer w.Close()

	pterm.Info.Printfln("Watching %s for changes (Ctrl+C to stop)", w.Path())
	return w.Run(ctx, func() error {
		pterm.Info.Printfln("%s changed, re-running ingestion", w.Path())
		if err := ingestOnce(ctx, stage, store, verbosity); err != nil {
			pterm.Error.Println(err.Error())
			return err
		}
		return nil
	})
}

// checkWatchTarget rejects a source the stage itself writes; every run would
// trigger the next.
func checkWatchTarget(path string, cfg ingestion.Config) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "resolve source path %s", path)
	}
	for _, out := range []dataset.Handle{cfg.RawDataPath, cfg.TrainDataPath, cfg.TestDataPath} {
		target, err := filepath.Abs(out.Path())
		if err != nil {
			continue
		}
		if target == abs {
			return errors.WithHint(
				errors.Newf("--watch cannot watch %s: the stage writes it", path),
				"point --source at the original dataset, not an artifact",
			)
		}
	}
	return nil
}
