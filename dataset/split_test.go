package dataset

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/mlproject/errors"
	mltest "github.com/teranos/mlproject/internal/testing"
)

func studentTable(n int) *Table {
	return &Table{Header: mltest.StudentHeader, Rows: mltest.StudentRows(n)}
}

func rowKeys(t *Table) []string {
	keys := make([]string, 0, t.Len())
	for _, r := range t.Rows {
		keys = append(keys, strings.Join(r, ","))
	}
	return keys
}

func TestSplitSizes(t *testing.T) {
	tests := []struct {
		n         int
		ratio     float64
		wantTrain int
		wantTest  int
		wantErr   error
	}{
		{n: 10, ratio: 0.2, wantTrain: 8, wantTest: 2},
		{n: 2, ratio: 0.2, wantTrain: 1, wantTest: 1},
		{n: 3, ratio: 0.2, wantTrain: 2, wantTest: 1},
		{n: 1000, ratio: 0.2, wantTrain: 800, wantTest: 200},
		{n: 1, ratio: 0.2, wantErr: ErrTooFewRows},
		{n: 0, ratio: 0.2, wantErr: ErrTooFewRows},
		{n: 10, ratio: 0, wantErr: ErrInvalidRatio},
		{n: 10, ratio: 1, wantErr: ErrInvalidRatio},
		{n: 10, ratio: math.NaN(), wantErr: ErrInvalidRatio},
		{n: 4, ratio: 0.9, wantErr: ErrTooFewRows},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d ratio=%v", tt.n, tt.ratio), func(t *testing.T) {
			nTrain, nTest, err := SplitSizes(tt.n, tt.ratio)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTrain, nTrain)
			assert.Equal(t, tt.wantTest, nTest)
		})
	}
}

func TestSplit_Deterministic(t *testing.T) {
	tbl := studentTable(100)

	train1, test1, err := Split(tbl, DefaultTestRatio, DefaultSeed)
	require.NoError(t, err)
	train2, test2, err := Split(tbl, DefaultTestRatio, DefaultSeed)
	require.NoError(t, err)

	assert.Equal(t, train1.Rows, train2.Rows)
	assert.Equal(t, test1.Rows, test2.Rows)

	_, test3, err := Split(tbl, DefaultTestRatio, 7)
	require.NoError(t, err)
	assert.NotEqual(t, test1.Rows, test3.Rows)
}

func TestSplit_ConservesAndDisjoint(t *testing.T) {
	for _, n := range []int{2, 3, 10, 49, 50, 137, 1000} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			tbl := studentTable(n)
			train, test, err := Split(tbl, DefaultTestRatio, DefaultSeed)
			require.NoError(t, err)

			assert.Equal(t, n, train.Len()+test.Len())
			assert.Equal(t, tbl.Header, train.Header)
			assert.Equal(t, tbl.Header, test.Header)

			seen := make(map[string]int)
			for _, k := range rowKeys(train) {
				seen[k]++
			}
			for _, k := range rowKeys(test) {
				seen[k]++
			}
			assert.Len(t, seen, n)
			for k, c := range seen {
				assert.Equal(t, 1, c, "row %q appears in both partitions", k)
			}
			assert.ElementsMatch(t, rowKeys(tbl), append(rowKeys(train), rowKeys(test)...))
		})
	}
}

func TestSplit_RatioBound(t *testing.T) {
	for _, n := range []int{50, 51, 99, 250, 1001} {
		tbl := studentTable(n)
		_, test, err := Split(tbl, DefaultTestRatio, DefaultSeed)
		require.NoError(t, err)

		got := float64(test.Len()) / float64(n)
		assert.InDelta(t, DefaultTestRatio, got, 1.0/float64(n)+1e-9, "n=%d", n)
	}
}

func TestSplit_Errors(t *testing.T) {
	_, _, err := Split(studentTable(1), DefaultTestRatio, DefaultSeed)
	assert.True(t, errors.Is(err, ErrTooFewRows))

	_, _, err = Split(studentTable(10), 1.5, DefaultSeed)
	assert.True(t, errors.Is(err, ErrInvalidRatio))
}

func TestPermutation(t *testing.T) {
	p := Permutation(20, DefaultSeed)
	assert.Equal(t, p, Permutation(20, DefaultSeed))

	seen := make(map[int]bool)
	for _, i := range p {
		seen[i] = true
	}
	assert.Len(t, seen, 20)
}
