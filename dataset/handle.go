// Package dataset holds the tabular data model shared by pipeline stages:
// opaque location handles, an in-memory CSV table, and the deterministic
// train/test partition.
package dataset

import "path/filepath"

// Handle is an opaque reference to a location holding tabular data.
// Stages produce and consume handles; they never change once produced.
type Handle string

// NewHandle joins path elements into a handle.
func NewHandle(elem ...string) Handle {
	return Handle(filepath.Join(elem...))
}

// String returns the location as given.
func (h Handle) String() string {
	return string(h)
}

// Path returns the location as a filesystem path.
func (h Handle) Path() string {
	return filepath.FromSlash(string(h))
}

// Dir returns the directory component of the location.
func (h Handle) Dir() string {
	return filepath.Dir(h.Path())
}

// IsZero reports whether the handle points nowhere.
func (h Handle) IsZero() bool {
	return h == ""
}
