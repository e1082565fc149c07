package dataset

import (
	"math"
	"math/rand/v2"

	"github.com/teranos/mlproject/errors"
)

// Default partition policy.
const (
	DefaultTestRatio = 0.2
	DefaultSeed      = 42
)

var (
	// ErrInvalidRatio is returned for a test ratio outside (0, 1).
	ErrInvalidRatio = errors.New("test ratio must be between 0 and 1 exclusive")

	// ErrTooFewRows is returned when a table cannot give both sides a row.
	ErrTooFewRows = errors.New("too few rows to partition")

	// ErrRowsNotConserved is returned when train and test do not add up to the source.
	ErrRowsNotConserved = errors.New("partition does not conserve rows")
)

// SplitSizes returns the train and test row counts for n rows.
// The test side gets ceil(ratio*n) rows and the train side the rest.
func SplitSizes(n int, testRatio float64) (nTrain, nTest int, err error) {
	if !(testRatio > 0 && testRatio < 1) {
		return 0, 0, errors.Wrapf(ErrInvalidRatio, "got %v", testRatio)
	}
	nTest = int(math.Ceil(testRatio * float64(n)))
	nTrain = n - nTest
	if nTest < 1 || nTrain < 1 {
		return 0, 0, errors.Wrapf(ErrTooFewRows,
			"%d rows with test ratio %v gives train=%d test=%d", n, testRatio, nTrain, nTest)
	}
	return nTrain, nTest, nil
}

// Permutation returns the seeded row order used by Split.
// The same n and seed always give the same order.
func Permutation(n int, seed uint64) []int {
	rng := rand.New(rand.NewPCG(seed, seed))
	return rng.Perm(n)
}

// Split partitions t into train and test tables by sampling rows without
// replacement. Rows follow the seeded permutation: the first nTest positions
// go to test, the remainder to train.
func Split(t *Table, testRatio float64, seed uint64) (train, test *Table, err error) {
	n := t.Len()
	nTrain, nTest, err := SplitSizes(n, testRatio)
	if err != nil {
		return nil, nil, err
	}

	perm := Permutation(n, seed)
	test = t.Subset(perm[:nTest])
	train = t.Subset(perm[nTest:])

	if train.Len() != nTrain || test.Len() != nTest || train.Len()+test.Len() != n {
		return nil, nil, errors.Wrapf(ErrRowsNotConserved,
			"source=%d train=%d test=%d", n, train.Len(), test.Len())
	}
	return train, test, nil
}
