package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/mlproject/errors"
)

var globalConfig *Config
var viperInstance *viper.Viper

// Load reads the mlproject configuration using Viper
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	config, err := LoadWithViper(initViper())
	if err != nil {
		return nil, err
	}

	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path on top of the defaults
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	// Defaults only; environment variables are not consulted for an explicit file
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", configPath)
	}
	return config, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viperInstance = nil
}

// initViper initializes Viper with configuration sources and defaults
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	BindEnvVars(v)
	SetDefaults(v)

	// Merge order: user -> project; env vars win over both
	for _, path := range ConfigPaths() {
		mergeConfigFile(v, path)
	}

	viperInstance = v
	return v
}

// ConfigPaths returns the config files consulted by Load, lowest precedence first.
// Files that do not exist are included; callers check existence.
func ConfigPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, UserConfigDir, ConfigFileName))
	}
	if project := findProjectConfig(); project != "" {
		paths = append(paths, project)
	}
	return paths
}

// findProjectConfig searches for am.toml by walking up the directory tree.
// Returns the path to the first config file found, or empty string if none found.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// mergeConfigFile merges one TOML file into v if it exists and parses.
func mergeConfigFile(v *viper.Viper, configPath string) {
	if _, err := os.Stat(configPath); err != nil {
		return
	}

	tempViper := viper.New()
	tempViper.SetConfigFile(configPath)
	tempViper.SetConfigType("toml")
	if err := tempViper.ReadInConfig(); err != nil {
		return
	}
	if err := v.MergeConfigMap(tempViper.AllSettings()); err != nil {
		return
	}
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	return initViper().Get(key)
}

// IsSet reports whether key has a value from any source, defaults included
func IsSet(key string) bool {
	return initViper().IsSet(key)
}
