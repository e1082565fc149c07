package db

import (
	"strings"

	"github.com/teranos/mlproject/errors"
)

// ErrDatabaseClosed is returned when operations are attempted on a closed database.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed checks if an error indicates the database connection is closed.
// Raw driver errors are matched by message since the sql package returns
// its own unexported error for this case.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}
