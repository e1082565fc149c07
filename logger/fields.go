package logger

import (
	"go.uber.org/zap"
)

// Standard field names for consistent structured logging.
// Use these constants instead of raw strings.
const (
	// Identity
	FieldRunID     = "run_id"
	FieldComponent = "component"
	FieldStage     = "stage"

	// Datasets
	FieldSource      = "source"
	FieldPath        = "path"
	FieldArtifactDir = "artifact_dir"
	FieldTrainPath   = "train_path"
	FieldTestPath    = "test_path"

	// Partitioning
	FieldTestRatio = "test_ratio"
	FieldSeed      = "seed"

	// Counts
	FieldCount      = "count"
	FieldRows       = "rows"
	FieldTrainRows  = "train_rows"
	FieldTestRows   = "test_rows"
	FieldTotalCount = "total_count"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError     = "error"
	FieldErrorKind = "error_kind"
	FieldFile      = "file"
	FieldLine      = "line"

	// Status
	FieldStatus = "status"
)

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	stage := ingestion.NewStage(
//	    ingestion.WithRecorder(logger.NewProgressRecorder(logger.ComponentLogger("ingestion"))),
//	)
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
//
// Example:
//
//	runLogger := logger.ChildLogger(baseLogger, logger.FieldRunID, entry.ID)
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
