package ingestion

import (
	"path/filepath"

	"github.com/teranos/mlproject/am"
	"github.com/teranos/mlproject/dataset"
	"github.com/teranos/mlproject/errors"
)

// Artifact file names inside the artifact directory.
const (
	RawFileName   = "data.csv"
	TrainFileName = "train.csv"
	TestFileName  = "test.csv"
)

// Config holds the three output locations of the ingestion stage. Later
// stages find the partitions through these handles rather than through
// paths written inline. NewConfig and DefaultConfig build a valid Config;
// a hand-built one is checked by Validate before the stage writes anything.
type Config struct {
	RawDataPath   dataset.Handle
	TrainDataPath dataset.Handle
	TestDataPath  dataset.Handle
}

// DefaultConfig places every artifact under the default artifact directory.
func DefaultConfig() Config {
	return NewConfig(am.DefaultArtifactDir)
}

// NewConfig places every artifact under dir.
func NewConfig(dir string) Config {
	return Config{
		RawDataPath:   dataset.NewHandle(dir, RawFileName),
		TrainDataPath: dataset.NewHandle(dir, TrainFileName),
		TestDataPath:  dataset.NewHandle(dir, TestFileName),
	}
}

// Dir returns the artifact directory the stage creates before writing.
func (c Config) Dir() string {
	return c.TrainDataPath.Dir()
}

// Validate checks that the three locations are set, distinct, and share
// one directory.
func (c Config) Validate() error {
	locations := map[string]dataset.Handle{
		"raw":   c.RawDataPath,
		"train": c.TrainDataPath,
		"test":  c.TestDataPath,
	}
	seen := make(map[string]string, len(locations))
	for _, name := range []string{"raw", "train", "test"} {
		h := locations[name]
		if h.IsZero() {
			return errors.Newf("%s location is empty", name)
		}
		path := filepath.Clean(h.Path())
		if other, ok := seen[path]; ok {
			return errors.Newf("%s and %s locations are both %s", other, name, h)
		}
		seen[path] = name
		if h.Dir() != c.Dir() {
			return errors.Newf("%s location %s is outside artifact directory %s", name, h, c.Dir())
		}
	}
	return nil
}
