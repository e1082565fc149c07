package ingestion

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/mlproject/dataset"
	"github.com/teranos/mlproject/errors"
	mltest "github.com/teranos/mlproject/internal/testing"
	"github.com/teranos/mlproject/source"
)

// captureRecorder keeps every notice message in order.
type captureRecorder struct {
	mu       sync.Mutex
	messages []string
}

func (r *captureRecorder) Record(msg string, _ ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func newTestStage(t *testing.T, src, dir string, opts ...Option) *Stage {
	t.Helper()
	base := []Option{
		WithSource(src),
		WithConfig(NewConfig(dir)),
		WithResolver(source.NewResolver(t.TempDir())),
	}
	return NewStage(append(base, opts...)...)
}

func readRows(t *testing.T, h dataset.Handle) []string {
	t.Helper()
	table, err := dataset.ReadFile(h.Path())
	require.NoError(t, err)
	keys := make([]string, len(table.Rows))
	for i, row := range table.Rows {
		keys[i] = strings.Join(row, ",")
	}
	return keys
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join("artifact", "data.csv"), cfg.RawDataPath.Path())
	assert.Equal(t, filepath.Join("artifact", "train.csv"), cfg.TrainDataPath.Path())
	assert.Equal(t, filepath.Join("artifact", "test.csv"), cfg.TestDataPath.Path())
	assert.Equal(t, "artifact", cfg.Dir())
}

func TestNewStage_Defaults(t *testing.T) {
	s := NewStage()
	assert.Equal(t, `notebook\data\stud.csv`, s.Source())
	assert.Equal(t, 0.2, s.TestRatio())
	assert.Equal(t, uint64(42), s.Seed())
	assert.Equal(t, DefaultConfig(), s.Config())
}

func TestRun_TenRows(t *testing.T) {
	srcDir := t.TempDir()
	src := mltest.WriteStudentCSV(t, srcDir, "stud.csv", 10)
	dir := filepath.Join(t.TempDir(), "artifact")

	train, test, err := newTestStage(t, src, dir).Run()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "train.csv"), train.Path())
	assert.Equal(t, filepath.Join(dir, "test.csv"), test.Path())
	assert.FileExists(t, filepath.Join(dir, "data.csv"))

	assert.Equal(t, 10, mltest.CountDataRows(t, filepath.Join(dir, "data.csv")))
	assert.Equal(t, 8, mltest.CountDataRows(t, train.Path()))
	assert.Equal(t, 2, mltest.CountDataRows(t, test.Path()))

	trainTable, err := dataset.ReadFile(train.Path())
	require.NoError(t, err)
	assert.Equal(t, mltest.StudentHeader, trainTable.Header)
}

func TestRun_RawSnapshotMatchesSource(t *testing.T) {
	src := mltest.WriteStudentCSV(t, t.TempDir(), "stud.csv", 25)
	dir := t.TempDir()

	_, _, err := newTestStage(t, src, dir).Run()
	require.NoError(t, err)

	want, err := os.ReadFile(src)
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(dir, RawFileName))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestRun_PartitionsAreDisjointAndComplete(t *testing.T) {
	src := mltest.WriteStudentCSV(t, t.TempDir(), "stud.csv", 101)
	dir := t.TempDir()

	train, test, err := newTestStage(t, src, dir).Run()
	require.NoError(t, err)

	trainRows := readRows(t, train)
	testRows := readRows(t, test)
	assert.Len(t, testRows, 21)
	assert.Len(t, trainRows, 80)

	seen := make(map[string]bool, 101)
	for _, row := range trainRows {
		seen[row] = true
	}
	for _, row := range testRows {
		assert.False(t, seen[row], "row %q in both partitions", row)
		seen[row] = true
	}
	assert.Len(t, seen, 101)
}

func TestRun_Deterministic(t *testing.T) {
	src := mltest.WriteStudentCSV(t, t.TempDir(), "stud.csv", 50)
	dirA := t.TempDir()
	dirB := t.TempDir()

	trainA, testA, err := newTestStage(t, src, dirA).Run()
	require.NoError(t, err)
	trainB, testB, err := newTestStage(t, src, dirB).Run()
	require.NoError(t, err)

	for _, pair := range [][2]dataset.Handle{{trainA, trainB}, {testA, testB}} {
		a, err := os.ReadFile(pair[0].Path())
		require.NoError(t, err)
		b, err := os.ReadFile(pair[1].Path())
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))
	}

	// A different seed gives a different test partition.
	dirC := t.TempDir()
	_, testC, err := newTestStage(t, src, dirC, WithSeed(7)).Run()
	require.NoError(t, err)
	assert.NotEqual(t, readRows(t, testA), readRows(t, testC))
}

func TestRun_ExistingDirectoryIsReused(t *testing.T) {
	src := mltest.WriteStudentCSV(t, t.TempDir(), "stud.csv", 10)
	dir := t.TempDir()
	s := newTestStage(t, src, dir)

	_, first, err := s.Run()
	require.NoError(t, err)
	before, err := os.ReadFile(first.Path())
	require.NoError(t, err)

	_, second, err := s.Run()
	require.NoError(t, err)
	after, err := os.ReadFile(second.Path())
	require.NoError(t, err)

	assert.Equal(t, string(before), string(after))
}

func TestRun_MissingSource(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifact")
	missing := filepath.Join(t.TempDir(), "nope", "stud.csv")

	_, _, err := newTestStage(t, missing, dir).Run()
	require.Error(t, err)

	f, ok := errors.AsFailure(err)
	require.True(t, ok, "expected *errors.Failure, got %T", err)
	assert.Contains(t, err.Error(), "Error occurred in file [")
	assert.Contains(t, err.Error(), "no such file or directory")
	assert.True(t, errors.Is(err, errors.ErrLoad))
	assert.Equal(t, errors.KindLoad, f.Kind())
	assert.Equal(t, "stage.go", filepath.Base(f.Location().File))
	assert.Positive(t, f.Location().Line)

	// Nothing was written.
	assert.NoDirExists(t, dir)
}

func TestRun_StorageFailure(t *testing.T) {
	src := mltest.WriteStudentCSV(t, t.TempDir(), "stud.csv", 10)
	blocker := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, _, err := newTestStage(t, src, filepath.Join(blocker, "artifact")).Run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStorage))
	assert.Equal(t, errors.KindStorage, errors.KindOf(err))
	assert.Contains(t, err.Error(), "create artifact directory")
}

func TestRun_PartitionFailure(t *testing.T) {
	src := mltest.WriteStudentCSV(t, t.TempDir(), "stud.csv", 1)
	dir := t.TempDir()

	_, _, err := newTestStage(t, src, dir).Run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPartition))
	assert.True(t, errors.Is(err, dataset.ErrTooFewRows))

	// The raw snapshot was saved before partitioning failed.
	assert.FileExists(t, filepath.Join(dir, RawFileName))
	assert.NoFileExists(t, filepath.Join(dir, TrainFileName))
}

func TestRun_InvalidRatio(t *testing.T) {
	src := mltest.WriteStudentCSV(t, t.TempDir(), "stud.csv", 10)

	_, _, err := newTestStage(t, src, t.TempDir(), WithTestRatio(1.5)).Run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataset.ErrInvalidRatio))
	assert.Equal(t, errors.KindPartition, errors.KindOf(err))
}

func TestExecute_RecorderNotices(t *testing.T) {
	src := mltest.WriteStudentCSV(t, t.TempDir(), "stud.csv", 10)
	rec := &captureRecorder{}

	res, err := newTestStage(t, src, t.TempDir(), WithRecorder(rec)).Execute()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Entered the data ingestion component",
		"Dataset read into table",
		"Raw data saved",
		"Train test split started",
		"Data ingestion completed successfully",
	}, rec.messages)

	assert.Equal(t, 10, res.SourceRows)
	assert.Equal(t, 8, res.TrainRows)
	assert.Equal(t, 2, res.TestRows)
}

func TestExecute_RecorderOnFailure(t *testing.T) {
	rec := &captureRecorder{}
	missing := filepath.Join(t.TempDir(), "stud.csv")

	_, err := newTestStage(t, missing, t.TempDir(), WithRecorder(rec)).Execute()
	require.Error(t, err)
	assert.Equal(t, []string{"Entered the data ingestion component"}, rec.messages)
}

func TestWithRecorder_Nil(t *testing.T) {
	src := mltest.WriteStudentCSV(t, t.TempDir(), "stud.csv", 10)
	_, _, err := newTestStage(t, src, t.TempDir(), WithRecorder(nil)).Run()
	assert.NoError(t, err)
}

func TestRun_RemoteSource(t *testing.T) {
	fixture := mltest.WriteStudentCSV(t, t.TempDir(), "stud.csv", 20)
	resolver := source.NewResolver(t.TempDir()).WithFetcher(func(dst, src string) error {
		data, err := os.ReadFile(fixture)
		if err != nil {
			return err
		}
		return os.WriteFile(dst, data, 0644)
	})

	dir := t.TempDir()
	train, test, err := NewStage(
		WithSource("https://example.com/data/stud.csv"),
		WithConfig(NewConfig(dir)),
		WithResolver(resolver),
	).Run()
	require.NoError(t, err)
	assert.Equal(t, 16, mltest.CountDataRows(t, train.Path()))
	assert.Equal(t, 4, mltest.CountDataRows(t, test.Path()))
}

func TestWithResolver_Nil(t *testing.T) {
	stage := NewStage(WithResolver(nil))
	require.NotNil(t, stage.resolver)
	assert.NotEmpty(t, stage.resolver.CacheDir())

	src := mltest.WriteStudentCSV(t, t.TempDir(), "stud.csv", 10)
	_, _, err := newTestStage(t, src, t.TempDir(), WithResolver(nil)).Run()
	assert.NoError(t, err)
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, NewConfig(dir).Validate())
	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name    string
		mutate  func(c *Config)
		message string
	}{
		{"empty raw", func(c *Config) { c.RawDataPath = "" }, "raw location is empty"},
		{"train equals raw", func(c *Config) { c.TrainDataPath = c.RawDataPath }, "raw and train locations"},
		{"test equals train", func(c *Config) { c.TestDataPath = c.TrainDataPath }, "train and test locations"},
		{"test elsewhere", func(c *Config) { c.TestDataPath = dataset.NewHandle(t.TempDir(), TestFileName) }, "outside artifact directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(dir)
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestRun_OverlappingLocations(t *testing.T) {
	src := mltest.WriteStudentCSV(t, t.TempDir(), "stud.csv", 10)
	dir := t.TempDir()
	cfg := NewConfig(dir)
	cfg.TestDataPath = cfg.TrainDataPath

	_, _, err := NewStage(WithSource(src), WithConfig(cfg)).Run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStorage))
	assert.Contains(t, err.Error(), "invalid artifact locations")
	assert.NoFileExists(t, filepath.Join(dir, RawFileName))
}
