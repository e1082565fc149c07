package am

import (
	"github.com/BurntSushi/toml"

	"github.com/teranos/mlproject/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Ingestion.Source == "" {
		return errors.New("ingestion.source cannot be empty")
	}
	if c.Ingestion.ArtifactDir == "" {
		return errors.New("ingestion.artifact_dir cannot be empty")
	}

	// Both partitions must be able to receive rows
	if !(c.Ingestion.TestRatio > 0 && c.Ingestion.TestRatio < 1) {
		return errors.Newf("ingestion.test_ratio must be between 0 and 1 exclusive, got %v", c.Ingestion.TestRatio)
	}

	if c.Ingestion.Seed < 0 {
		return errors.Newf("ingestion.seed must be >= 0, got %d", c.Ingestion.Seed)
	}

	if c.Log.Verbosity < 0 {
		return errors.Newf("log.verbosity must be >= 0, got %d", c.Log.Verbosity)
	}

	if c.Ledger.Enabled && c.GetLedgerPath() == "" {
		return errors.New("ledger.path cannot be empty when the ledger is enabled")
	}

	return nil
}

// CheckUnknownKeys decodes the TOML file at path against Config and returns
// the keys it does not recognise, such as misspelled settings that viper
// would otherwise ignore silently.
func CheckUnknownKeys(path string) ([]string, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}

	var unknown []string
	for _, key := range meta.Undecoded() {
		unknown = append(unknown, key.String())
	}
	return unknown, nil
}
