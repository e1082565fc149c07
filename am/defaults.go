package am

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/teranos/mlproject/dataset"
)

// Default values
const (
	DefaultSource      = `notebook\data\stud.csv`
	DefaultArtifactDir = "artifact"
	DefaultTestRatio   = dataset.DefaultTestRatio
	DefaultSeed        = dataset.DefaultSeed
	DefaultLedgerPath  = "mlproject.db"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("ingestion.source", DefaultSource)
	v.SetDefault("ingestion.artifact_dir", DefaultArtifactDir)
	v.SetDefault("ingestion.test_ratio", DefaultTestRatio)
	v.SetDefault("ingestion.seed", DefaultSeed)
	v.SetDefault("ingestion.cache_dir", "")

	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)

	v.SetDefault("ledger.enabled", true)
	v.SetDefault("ledger.path", filepath.Join(DefaultArtifactDir, DefaultLedgerPath))
}

// BindEnvVars binds the commonly overridden keys to explicit variable names
// in addition to the automatic MLPROJECT_<SECTION>_<KEY> mapping.
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("ingestion.source", "MLPROJECT_SOURCE")
	v.BindEnv("ingestion.artifact_dir", "MLPROJECT_ARTIFACT_DIR")
	v.BindEnv("ledger.path", "MLPROJECT_LEDGER_PATH")
}

// Default returns the configuration with every default applied.
func Default() *Config {
	return &Config{
		Ingestion: IngestionConfig{
			Source:      DefaultSource,
			ArtifactDir: DefaultArtifactDir,
			TestRatio:   DefaultTestRatio,
			Seed:        DefaultSeed,
		},
		Ledger: LedgerConfig{
			Enabled: true,
			Path:    filepath.Join(DefaultArtifactDir, DefaultLedgerPath),
		},
	}
}

// GetLedgerPath returns the configured ledger path
func (c *Config) GetLedgerPath() string {
	if c.Ledger.Path == "" {
		return filepath.Join(c.Ingestion.ArtifactDir, DefaultLedgerPath)
	}
	return c.Ledger.Path
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Source: %s, ArtifactDir: %s, TestRatio: %v, Seed: %d, Ledger: %v}",
		c.Ingestion.Source, c.Ingestion.ArtifactDir, c.Ingestion.TestRatio, c.Ingestion.Seed, c.Ledger.Enabled)
}
