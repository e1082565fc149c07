package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/teranos/mlproject/am"
	"github.com/teranos/mlproject/dataset"
	"github.com/teranos/mlproject/errors"
)

// ManifestFileName is the default auxiliary artifact of NumericTransformer.
const ManifestFileName = "features.json"

// Manifest describes the column layout of the arrays NumericTransformer produced.
type Manifest struct {
	Columns   []string `json:"columns"`
	Target    string   `json:"target"`
	TrainRows int      `json:"train_rows"`
	TestRows  int      `json:"test_rows"`
}

// NumericTransformer parses the selected columns as float64 and places the
// target column last in every row. It writes a Manifest as its auxiliary
// artifact.
type NumericTransformer struct {
	target   string
	columns  []string
	manifest dataset.Handle
}

// NewNumericTransformer returns a transformer for target. With no columns,
// every column of the train header is used. An empty manifest handle writes
// features.json next to the train partition.
func NewNumericTransformer(target string, manifest dataset.Handle, columns ...string) *NumericTransformer {
	return &NumericTransformer{
		target:   target,
		columns:  columns,
		manifest: manifest,
	}
}

// Transform implements Transformer.
func (n *NumericTransformer) Transform(train, test dataset.Handle) (*Features, error) {
	trainTable, err := dataset.ReadFile(train.Path())
	if err != nil {
		return nil, errors.Wrap(err, "read train partition")
	}
	testTable, err := dataset.ReadFile(test.Path())
	if err != nil {
		return nil, errors.Wrap(err, "read test partition")
	}
	if !slices.Equal(trainTable.Header, testTable.Header) {
		return nil, errors.Newf("train and test headers differ: %v vs %v", trainTable.Header, testTable.Header)
	}

	layout, err := n.layout(trainTable)
	if err != nil {
		return nil, err
	}

	trainX, err := toFloats(trainTable, layout)
	if err != nil {
		return nil, errors.Wrapf(err, "train partition %s", train)
	}
	testX, err := toFloats(testTable, layout)
	if err != nil {
		return nil, errors.Wrapf(err, "test partition %s", test)
	}

	aux := n.manifest
	if aux.IsZero() {
		aux = dataset.NewHandle(train.Dir(), ManifestFileName)
	}
	m := Manifest{
		Columns:   make([]string, len(layout)),
		Target:    n.target,
		TrainRows: len(trainX),
		TestRows:  len(testX),
	}
	for i, idx := range layout {
		m.Columns[i] = trainTable.Header[idx]
	}
	if err := writeManifest(aux.Path(), m); err != nil {
		return nil, err
	}

	return &Features{Train: trainX, Test: testX, Aux: aux}, nil
}

// layout returns header indices in output order, target last.
func (n *NumericTransformer) layout(t *dataset.Table) ([]int, error) {
	targetIdx := t.ColumnIndex(n.target)
	if targetIdx < 0 {
		return nil, errors.Newf("target column %q not found", n.target)
	}

	names := n.columns
	if len(names) == 0 {
		names = t.Header
	}
	var layout []int
	for _, name := range names {
		if name == n.target {
			continue
		}
		idx := t.ColumnIndex(name)
		if idx < 0 {
			return nil, errors.Newf("column %q not found", name)
		}
		layout = append(layout, idx)
	}
	return append(layout, targetIdx), nil
}

func toFloats(t *dataset.Table, layout []int) ([][]float64, error) {
	out := make([][]float64, len(t.Rows))
	for r, row := range t.Rows {
		values := make([]float64, len(layout))
		for c, idx := range layout {
			if idx >= len(row) {
				return nil, errors.Newf("row %d has %d fields, need column %d", r+1, len(row), idx+1)
			}
			v, err := strconv.ParseFloat(row[idx], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %q", r+1, t.Header[idx])
			}
			values[c] = v
		}
		out[r] = values
	}
	return out, nil
}

func writeManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal feature manifest")
	}
	if err := os.MkdirAll(filepath.Dir(path), am.DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "create manifest directory for %s", path)
	}
	if err := os.WriteFile(path, append(data, '\n'), am.DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "write feature manifest %s", path)
	}
	return nil
}
