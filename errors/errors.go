// Package errors provides error handling for mlproject.
//
// This package re-exports github.com/cockroachdb/errors so every stage
// gets stack traces, wrapping, hints and markers from a single import,
// and adds the Failure record that stages return across their boundary.
//
// Usage:
//
//	// Wrap with context and classify
//	if err := readSource(); err != nil {
//	    return errors.Mark(errors.Wrap(err, "read source"), errors.ErrLoad)
//	}
//
//	// Surface at the stage boundary with the originating position
//	return errors.NewFailure(err, errors.Here())
//
//	// Inspect
//	if errors.Is(err, errors.ErrStorage) {
//	    // artifact directory or file write failed
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	WithDetail   = crdb.WithDetail
	WithDetailf  = crdb.WithDetailf
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
	Mark      = crdb.Mark
)

// GetStack returns the reportable stack trace embedded in err, if any.
var GetStack = crdb.GetReportableStackTrace

// Failure kinds. Stages mark the underlying cause with one of these so
// callers can classify a Failure with errors.Is.
var (
	// ErrLoad marks a source dataset that is missing, unreadable or malformed.
	ErrLoad = New("load failure")

	// ErrStorage marks an artifact directory or file write failure.
	ErrStorage = New("storage failure")

	// ErrPartition marks a split that cannot be made or violates row conservation.
	ErrPartition = New("partition failure")
)

// Kind names reported by KindOf.
const (
	KindLoad      = "load"
	KindStorage   = "storage"
	KindPartition = "partition"
	KindUnknown   = "unknown"
)

// KindOf classifies err against the failure kinds.
// Returns "" for a nil error.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case Is(err, ErrLoad):
		return KindLoad
	case Is(err, ErrStorage):
		return KindStorage
	case Is(err, ErrPartition):
		return KindPartition
	default:
		return KindUnknown
	}
}
