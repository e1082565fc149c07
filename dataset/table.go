package dataset

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/teranos/mlproject/errors"
)

// ErrEmptyDataset is returned when a source has no header row.
var ErrEmptyDataset = errors.New("dataset has no header row")

const utf8BOM = "\ufeff"

// Table is an in-memory CSV-like dataset: a header row plus records.
// Fields are kept verbatim so writing a table back is reproducible.
type Table struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows (header excluded).
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Subset returns a table holding the rows at the given indices, in order.
// The header is copied; row slices are shared with t.
func (t *Table) Subset(indices []int) *Table {
	sub := &Table{
		Header: append([]string(nil), t.Header...),
		Rows:   make([][]string, 0, len(indices)),
	}
	for _, i := range indices {
		sub.Rows = append(sub.Rows, t.Rows[i])
	}
	return sub
}

// Read parses CSV from r. Every record must have as many fields as the header.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = 0 // header sets the width

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read records")
	}

	return &Table{Header: header, Rows: rows}, nil
}

// ReadFile loads the CSV file at path.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return t, nil
}

// Write encodes t as CSV with its header row first.
func Write(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return errors.Wrap(err, "write header")
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return errors.Wrap(err, "write records")
	}
	return nil
}

// WriteFile creates or truncates path and writes t to it.
func WriteFile(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}

	buf := bufio.NewWriter(f)
	if err := Write(buf, t); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	if err := buf.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "flush %s", path)
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}
