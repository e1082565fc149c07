package errors

import (
	"fmt"
	"runtime"
)

// Location identifies the source position where a failure surfaced.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// Here returns the location of its caller.
func Here() Location {
	return caller(2)
}

// caller resolves the location skip frames above it.
// An unresolvable frame yields the zero Location.
func caller(skip int) Location {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return Location{}
	}
	return Location{File: file, Line: line}
}

// String renders the location as file:line.
func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.file(), l.Line)
}

func (l Location) file() string {
	if l.File == "" {
		return "unknown"
	}
	return l.File
}

// Failure is the error a stage returns across its boundary. It keeps the
// underlying cause, the location where the failure surfaced, and a message
// composed once at construction.
type Failure struct {
	cause    error
	location Location
	message  string
}

// NewFailure records cause as having surfaced at loc.
// The message is fixed here; later changes to the cause do not alter it.
func NewFailure(cause error, loc Location) *Failure {
	text := "<nil>"
	if cause != nil {
		text = cause.Error()
	}
	return &Failure{
		cause:    cause,
		location: loc,
		message: fmt.Sprintf("Error occurred in file [%s] at line [%d] with message: %s",
			loc.file(), loc.Line, text),
	}
}

// Capture records cause at the location of the caller.
func Capture(cause error) *Failure {
	return NewFailure(cause, caller(2))
}

// Error returns the composed diagnostic message.
func (f *Failure) Error() string {
	return f.message
}

// Unwrap returns the underlying cause.
func (f *Failure) Unwrap() error {
	return f.cause
}

// Cause returns the underlying cause.
func (f *Failure) Cause() error {
	return f.cause
}

// Location returns where the failure surfaced.
func (f *Failure) Location() Location {
	return f.location
}

// Kind classifies the failure's cause.
func (f *Failure) Kind() string {
	return KindOf(f.cause)
}

// Format prints the composed message; %+v appends the cause's detail,
// including its stack trace when the cause carries one. Other verbs are
// reported the way fmt reports a bad verb, message included.
func (f *Failure) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') && f.cause != nil {
			fmt.Fprintf(s, "%s\n%+v", f.message, f.cause)
			return
		}
		fmt.Fprint(s, f.message)
	case 's':
		fmt.Fprint(s, f.message)
	case 'q':
		fmt.Fprintf(s, "%q", f.message)
	default:
		fmt.Fprintf(s, "%%!%c(%s)", verb, f.message)
	}
}

// AsFailure returns the first Failure in err's chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if As(err, &f) {
		return f, true
	}
	return nil, false
}
