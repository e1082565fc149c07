// Package ingestion implements the first pipeline stage: load the source
// dataset, keep a raw snapshot, partition it into train and test sets and
// hand the partition locations to the next stage.
package ingestion

import (
	"os"
	"time"

	"github.com/teranos/mlproject/am"
	"github.com/teranos/mlproject/dataset"
	"github.com/teranos/mlproject/errors"
	"github.com/teranos/mlproject/logger"
	"github.com/teranos/mlproject/source"
)

// Recorder receives human-readable progress notices from the stage.
type Recorder interface {
	Record(msg string, keysAndValues ...interface{})
}

type nopRecorder struct{}

func (nopRecorder) Record(string, ...interface{}) {}

// NopRecorder discards every notice.
var NopRecorder Recorder = nopRecorder{}

// Result describes a successful run.
type Result struct {
	Raw        dataset.Handle
	Train      dataset.Handle
	Test       dataset.Handle
	SourceRows int
	TrainRows  int
	TestRows   int
	Duration   time.Duration
}

// Stage is the ingestion unit of work. It is safe to run repeatedly but not
// concurrently against the same artifact directory: files are overwritten
// without locking.
type Stage struct {
	config    Config
	source    string
	testRatio float64
	seed      uint64
	recorder  Recorder
	resolver  *source.Resolver
}

// Option configures a Stage.
type Option func(*Stage)

// WithConfig sets the output locations.
func WithConfig(cfg Config) Option {
	return func(s *Stage) { s.config = cfg }
}

// WithSource sets the source dataset identifier.
func WithSource(id string) Option {
	return func(s *Stage) { s.source = id }
}

// WithTestRatio sets the fraction of rows held out for evaluation.
func WithTestRatio(ratio float64) Option {
	return func(s *Stage) { s.testRatio = ratio }
}

// WithSeed sets the partition seed.
func WithSeed(seed uint64) Option {
	return func(s *Stage) { s.seed = seed }
}

// WithRecorder sets the progress sink. Nil restores the no-op recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Stage) {
		if r == nil {
			r = NopRecorder
		}
		s.recorder = r
	}
}

// WithResolver sets how source identifiers become local files.
// A nil resolver restores the default.
func WithResolver(r *source.Resolver) Option {
	return func(s *Stage) {
		if r == nil {
			r = source.NewResolver("")
		}
		s.resolver = r
	}
}

// NewStage returns a stage with default locations, source, ratio and seed,
// adjusted by opts.
func NewStage(opts ...Option) *Stage {
	s := &Stage{
		config:    DefaultConfig(),
		source:    am.DefaultSource,
		testRatio: dataset.DefaultTestRatio,
		seed:      dataset.DefaultSeed,
		recorder:  NopRecorder,
		resolver:  source.NewResolver(""),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the stage's output locations.
func (s *Stage) Config() Config { return s.config }

// Source returns the source dataset identifier.
func (s *Stage) Source() string { return s.source }

// TestRatio returns the held-out fraction.
func (s *Stage) TestRatio() float64 { return s.testRatio }

// Seed returns the partition seed.
func (s *Stage) Seed() uint64 { return s.seed }

// Run executes the stage and returns the train and test locations.
// Any failure is returned as an *errors.Failure; a failed run leaves
// artifacts in an unspecified state and must be retried from scratch.
func (s *Stage) Run() (train, test dataset.Handle, err error) {
	res, err := s.Execute()
	if err != nil {
		return "", "", err
	}
	return res.Train, res.Test, nil
}

// Execute runs the stage and reports row counts and timing with the handles.
func (s *Stage) Execute() (*Result, error) {
	start := time.Now()
	s.recorder.Record("Entered the data ingestion component", logger.FieldSource, s.source)

	if err := s.config.Validate(); err != nil {
		return nil, fail(errors.Wrap(err, "invalid artifact locations"), errors.ErrStorage, errors.Here())
	}

	table, err := s.load()
	if err != nil {
		return nil, fail(err, errors.ErrLoad, errors.Here())
	}
	s.recorder.Record("Dataset read into table",
		logger.FieldRows, table.Len(),
		"columns", len(table.Header),
	)

	dir := s.config.Dir()
	if err := os.MkdirAll(dir, am.DefaultDirPermissions); err != nil {
		return nil, fail(errors.Wrapf(err, "create artifact directory %s", dir), errors.ErrStorage, errors.Here())
	}

	if err := dataset.WriteFile(s.config.RawDataPath.Path(), table); err != nil {
		return nil, fail(errors.Wrap(err, "save raw data"), errors.ErrStorage, errors.Here())
	}
	s.recorder.Record("Raw data saved", logger.FieldPath, s.config.RawDataPath.String())

	s.recorder.Record("Train test split started",
		logger.FieldTestRatio, s.testRatio,
		logger.FieldSeed, s.seed,
	)
	trainSet, testSet, err := dataset.Split(table, s.testRatio, s.seed)
	if err != nil {
		return nil, fail(errors.Wrap(err, "partition dataset"), errors.ErrPartition, errors.Here())
	}

	if err := dataset.WriteFile(s.config.TrainDataPath.Path(), trainSet); err != nil {
		return nil, fail(errors.Wrap(err, "save train set"), errors.ErrStorage, errors.Here())
	}
	if err := dataset.WriteFile(s.config.TestDataPath.Path(), testSet); err != nil {
		return nil, fail(errors.Wrap(err, "save test set"), errors.ErrStorage, errors.Here())
	}

	res := &Result{
		Raw:        s.config.RawDataPath,
		Train:      s.config.TrainDataPath,
		Test:       s.config.TestDataPath,
		SourceRows: table.Len(),
		TrainRows:  trainSet.Len(),
		TestRows:   testSet.Len(),
		Duration:   time.Since(start),
	}
	s.recorder.Record("Data ingestion completed successfully",
		logger.FieldTrainPath, res.Train.String(),
		logger.FieldTestPath, res.Test.String(),
		logger.FieldTrainRows, res.TrainRows,
		logger.FieldTestRows, res.TestRows,
		logger.FieldDurationMS, res.Duration.Milliseconds(),
	)
	return res, nil
}

// load resolves the source identifier and reads it into memory.
func (s *Stage) load() (*dataset.Table, error) {
	path, err := s.resolver.Resolve(s.source)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve source %s", s.source)
	}
	table, err := dataset.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read source dataset %s", path)
	}
	return table, nil
}

// fail classifies cause as kind and records where it surfaced.
func fail(cause error, kind error, at errors.Location) *errors.Failure {
	return errors.NewFailure(errors.Mark(cause, kind), at)
}
