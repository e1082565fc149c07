// Package am loads and validates mlproject configuration ("I am").
//
// Sources, lowest to highest precedence: defaults, user config
// (~/.mlproject/am.toml), project config (am.toml found walking up from the
// working directory), MLPROJECT_* environment variables.
package am

// Config represents the mlproject configuration
type Config struct {
	Ingestion IngestionConfig `mapstructure:"ingestion" toml:"ingestion" json:"ingestion" yaml:"ingestion"`
	Log       LogConfig       `mapstructure:"log" toml:"log" json:"log" yaml:"log"`
	Ledger    LedgerConfig    `mapstructure:"ledger" toml:"ledger" json:"ledger" yaml:"ledger"`
}

// IngestionConfig configures the data ingestion stage
type IngestionConfig struct {
	Source      string  `mapstructure:"source" toml:"source" json:"source" yaml:"source"`                         // Source dataset identifier: path, file:// or remote URL
	ArtifactDir string  `mapstructure:"artifact_dir" toml:"artifact_dir" json:"artifact_dir" yaml:"artifact_dir"` // Directory holding data.csv, train.csv, test.csv
	TestRatio   float64 `mapstructure:"test_ratio" toml:"test_ratio" json:"test_ratio" yaml:"test_ratio"`         // Fraction held out for evaluation (default: 0.2)
	Seed        int64   `mapstructure:"seed" toml:"seed" json:"seed" yaml:"seed"`                                 // Partition seed (default: 42)
	CacheDir    string  `mapstructure:"cache_dir" toml:"cache_dir" json:"cache_dir" yaml:"cache_dir"`             // Where remote sources are downloaded (empty = OS temp)
}

// LogConfig configures logging output
type LogConfig struct {
	JSON      bool `mapstructure:"json" toml:"json" json:"json" yaml:"json"`                // Structured JSON logs instead of console
	Verbosity int  `mapstructure:"verbosity" toml:"verbosity" json:"verbosity" yaml:"verbosity"` // Same scale as -v flags
}

// LedgerConfig configures the SQLite run history
type LedgerConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled" json:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" toml:"path" json:"path" yaml:"path"`
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)

// Configuration file names and locations
const (
	ConfigFileName = "am.toml"
	UserConfigDir  = ".mlproject"
	EnvPrefix      = "MLPROJECT"
)
