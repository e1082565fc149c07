package am

import (
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/mlproject/errors"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceUser        ConfigSource = "user"        // ~/.mlproject/am.toml
	SourceProject     ConfigSource = "project"     // am.toml found walking up from the working directory
	SourceEnvironment ConfigSource = "environment" // MLPROJECT_* env vars
)

// SettingInfo describes one effective setting and its origin
type SettingInfo struct {
	Key        string       `json:"key"`
	Value      interface{}  `json:"value"`
	Source     ConfigSource `json:"source"`
	SourcePath string       `json:"source_path,omitempty"` // File path or env var name
}

// aliasEnv maps keys to the short variable names bound in BindEnvVars.
var aliasEnv = map[string]string{
	"ingestion.source":       "MLPROJECT_SOURCE",
	"ingestion.artifact_dir": "MLPROJECT_ARTIFACT_DIR",
	"ledger.path":            "MLPROJECT_LEDGER_PATH",
}

// Introspect returns every effective setting, sorted by key, with the
// source that supplied it.
func Introspect() ([]SettingInfo, error) {
	origins := make(map[string]SettingInfo)

	for _, path := range ConfigPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		src := SourceProject
		if isUserConfig(path) {
			src = SourceUser
		}
		file := viper.New()
		file.SetConfigFile(path)
		file.SetConfigType("toml")
		if err := file.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
		markSettings(file.AllSettings(), "", src, path, origins)
	}

	v := GetViper()
	keys := v.AllKeys()
	sort.Strings(keys)

	settings := make([]SettingInfo, 0, len(keys))
	for _, key := range keys {
		info, ok := origins[key]
		if !ok {
			info = SettingInfo{Source: SourceDefault, SourcePath: "built-in default"}
		}
		if env := envOverride(key); env != "" {
			info = SettingInfo{Source: SourceEnvironment, SourcePath: env}
		}
		info.Key = key
		info.Value = v.Get(key)
		settings = append(settings, info)
	}
	return settings, nil
}

func isUserConfig(path string) bool {
	home, err := os.UserHomeDir()
	return err == nil && strings.HasPrefix(path, home+string(os.PathSeparator)+UserConfigDir)
}

// markSettings records src for every leaf key in settings; later files overwrite earlier ones.
func markSettings(settings map[string]interface{}, prefix string, src ConfigSource, path string, origins map[string]SettingInfo) {
	for key, value := range settings {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			markSettings(nested, full, src, path, origins)
			continue
		}
		origins[full] = SettingInfo{Source: src, SourcePath: path}
	}
}

// envOverride returns the environment variable supplying key, if any.
func envOverride(key string) string {
	if alias, ok := aliasEnv[key]; ok {
		if _, set := os.LookupEnv(alias); set {
			return alias
		}
	}
	name := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if _, set := os.LookupEnv(name); set {
		return name
	}
	return ""
}
