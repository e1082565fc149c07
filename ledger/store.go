package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/mlproject/db"
	"github.com/teranos/mlproject/errors"
	"github.com/teranos/mlproject/ingestion"
	"github.com/teranos/mlproject/logger"
)

const runColumns = `id, source, artifact_dir, test_ratio, seed, status,
	raw_path, train_path, test_path, source_rows, train_rows, test_rows,
	error_kind, error_message, started_at, finished_at`

// Store records ingestion runs.
type Store struct {
	db    *sql.DB
	log   *zap.SugaredLogger
	owned bool
	now   func() time.Time
}

// NewStore wraps an already migrated database. The caller keeps ownership of db.
func NewStore(db *sql.DB, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = logger.ComponentLogger("ledger")
	}
	return &Store{
		db:  db,
		log: log,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Open opens (creating if needed) the ledger database at path and applies
// migrations. Close releases it.
func Open(path string, log *zap.SugaredLogger) (*Store, error) {
	conn, err := db.OpenWithMigrations(path, log)
	if err != nil {
		return nil, errors.Wrap(err, "open run ledger")
	}
	s := NewStore(conn, log)
	s.owned = true
	return s, nil
}

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// Begin inserts a running entry for a stage about to execute.
func (s *Store) Begin(ctx context.Context, stage *ingestion.Stage) (*Run, error) {
	run := &Run{
		ID:          uuid.NewString(),
		Source:      stage.Source(),
		ArtifactDir: stage.Config().Dir(),
		TestRatio:   stage.TestRatio(),
		Seed:        int64(stage.Seed()),
		Status:      StatusRunning,
		StartedAt:   s.now(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingestion_runs (id, source, artifact_dir, test_ratio, seed, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.ArtifactDir, run.TestRatio, run.Seed, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "insert run %s", run.ID)
	}

	s.log.Debugw("Run started", logger.FieldRunID, run.ID, logger.FieldSource, run.Source)
	return run, nil
}

// Succeed marks run as succeeded with the stage's result.
func (s *Store) Succeed(ctx context.Context, run *Run, res *ingestion.Result) error {
	finished := s.now()
	updated := *run
	updated.Status = StatusSucceeded
	updated.RawPath = res.Raw.String()
	updated.TrainPath = res.Train.String()
	updated.TestPath = res.Test.String()
	updated.SourceRows = res.SourceRows
	updated.TrainRows = res.TrainRows
	updated.TestRows = res.TestRows
	updated.FinishedAt = &finished

	_, err := s.db.ExecContext(ctx, `
		UPDATE ingestion_runs
		SET status = ?, raw_path = ?, train_path = ?, test_path = ?,
			source_rows = ?, train_rows = ?, test_rows = ?, finished_at = ?
		WHERE id = ?`,
		string(updated.Status), updated.RawPath, updated.TrainPath, updated.TestPath,
		updated.SourceRows, updated.TrainRows, updated.TestRows, finished,
		run.ID,
	)
	if err != nil {
		return errors.Wrapf(err, "mark run %s succeeded", run.ID)
	}
	*run = updated
	return nil
}

// Fail marks run as failed with the kind and message of cause.
func (s *Store) Fail(ctx context.Context, run *Run, cause error) error {
	finished := s.now()
	kind := errors.KindOf(cause)
	message := ""
	if cause != nil {
		message = cause.Error()
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE ingestion_runs
		SET status = ?, error_kind = ?, error_message = ?, finished_at = ?
		WHERE id = ?`,
		string(StatusFailed), kind, message, finished, run.ID,
	)
	if err != nil {
		return errors.Wrapf(err, "mark run %s failed", run.ID)
	}
	run.Status = StatusFailed
	run.ErrorKind = kind
	run.ErrorMessage = message
	run.FinishedAt = &finished
	return nil
}

// Track executes stage and records its outcome. The stage's own error is
// returned unchanged; ledger write failures after the stage ran are logged
// and do not mask it.
func (s *Store) Track(ctx context.Context, stage *ingestion.Stage) (*Run, *ingestion.Result, error) {
	run, err := s.Begin(ctx, stage)
	if err != nil {
		return nil, nil, err
	}
	log := logger.ChildLogger(s.log, logger.FieldRunID, run.ID)

	res, stageErr := stage.Execute()
	if stageErr != nil {
		if err := s.Fail(ctx, run, stageErr); err != nil {
			log.Warnw("Failed to record failed run", logger.FieldError, err)
		}
		return run, nil, stageErr
	}

	if err := s.Succeed(ctx, run, res); err != nil {
		log.Warnw("Failed to record successful run", logger.FieldError, err)
	}
	return run, res, nil
}

// Get returns the run with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM ingestion_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "id %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get run %s", id)
	}
	return run, nil
}

// List returns the most recent runs first. A limit of zero or less returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM ingestion_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate runs")
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run                             Run
		status                          string
		rawPath, trainPath, testPath    sql.NullString
		sourceRows, trainRows, testRows sql.NullInt64
		errorKind, errorMessage         sql.NullString
		finishedAt                      sql.NullTime
	)
	err := sc.Scan(
		&run.ID, &run.Source, &run.ArtifactDir, &run.TestRatio, &run.Seed, &status,
		&rawPath, &trainPath, &testPath, &sourceRows, &trainRows, &testRows,
		&errorKind, &errorMessage, &run.StartedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Status = Status(status)
	run.RawPath = rawPath.String
	run.TrainPath = trainPath.String
	run.TestPath = testPath.String
	run.SourceRows = int(sourceRows.Int64)
	run.TrainRows = int(trainRows.Int64)
	run.TestRows = int(testRows.Int64)
	run.ErrorKind = errorKind.String
	run.ErrorMessage = errorMessage.String
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
