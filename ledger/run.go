// Package ledger keeps a SQLite history of ingestion runs: what was read,
// where the partitions went, how many rows each side got and, for failed
// runs, the failure kind and message.
package ledger

import (
	"time"

	"github.com/teranos/mlproject/errors"
)

// Status is the lifecycle state of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ErrNotFound is returned when no run has the requested id.
var ErrNotFound = errors.New("run not found")

// Run is one row of the ingestion_runs table.
type Run struct {
	ID          string  `json:"id" db:"id"`
	Source      string  `json:"source" db:"source"`
	ArtifactDir string  `json:"artifact_dir" db:"artifact_dir"`
	TestRatio   float64 `json:"test_ratio" db:"test_ratio"`
	Seed        int64   `json:"seed" db:"seed"`
	Status      Status  `json:"status" db:"status"`

	RawPath   string `json:"raw_path,omitempty" db:"raw_path"`
	TrainPath string `json:"train_path,omitempty" db:"train_path"`
	TestPath  string `json:"test_path,omitempty" db:"test_path"`

	SourceRows int `json:"source_rows" db:"source_rows"`
	TrainRows  int `json:"train_rows" db:"train_rows"`
	TestRows   int `json:"test_rows" db:"test_rows"`

	ErrorKind    string `json:"error_kind,omitempty" db:"error_kind"`
	ErrorMessage string `json:"error_message,omitempty" db:"error_message"`

	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

// Duration is how long a finished run took; zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
