package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Isolated viper instance; user and project config are not consulted
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, DefaultSource, cfg.Ingestion.Source)
	assert.Equal(t, "artifact", cfg.Ingestion.ArtifactDir)
	assert.Equal(t, 0.2, cfg.Ingestion.TestRatio)
	assert.Equal(t, int64(42), cfg.Ingestion.Seed)
	assert.True(t, cfg.Ledger.Enabled)
	assert.Equal(t, filepath.Join("artifact", "mlproject.db"), cfg.GetLedgerPath())
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, Default(), cfg)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "am.toml")
	content := `
[ingestion]
source = "data/students.csv"
test_ratio = 0.25
seed = 7

[log]
verbosity = 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "data/students.csv", cfg.Ingestion.Source)
	assert.Equal(t, 0.25, cfg.Ingestion.TestRatio)
	assert.Equal(t, int64(7), cfg.Ingestion.Seed)
	assert.Equal(t, 2, cfg.Log.Verbosity)
	// Untouched keys keep their defaults
	assert.Equal(t, "artifact", cfg.Ingestion.ArtifactDir)
	assert.True(t, cfg.Ledger.Enabled)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_EnvOverride(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MLPROJECT_SOURCE", "env/stud.csv")
	t.Setenv("MLPROJECT_INGESTION_SEED", "99")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env/stud.csv", cfg.Ingestion.Source)
	assert.Equal(t, int64(99), cfg.Ingestion.Seed)

	again, err := Load()
	require.NoError(t, err)
	assert.Same(t, cfg, again)
}

func TestLoad_ProjectConfigWalkUp(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	t.Setenv("HOME", t.TempDir())

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName),
		[]byte("[ingestion]\nartifact_dir = \"out\"\n"), 0644))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.Ingestion.ArtifactDir)
	assert.Equal(t, 0.2, cfg.Ingestion.TestRatio)
}

func TestValidate(t *testing.T) {
	valid := func() Config { return *Default() }

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "empty source", mutate: func(c *Config) { c.Ingestion.Source = "" }, wantErr: "ingestion.source"},
		{name: "empty artifact dir", mutate: func(c *Config) { c.Ingestion.ArtifactDir = "" }, wantErr: "ingestion.artifact_dir"},
		{name: "zero ratio", mutate: func(c *Config) { c.Ingestion.TestRatio = 0 }, wantErr: "ingestion.test_ratio"},
		{name: "ratio of one", mutate: func(c *Config) { c.Ingestion.TestRatio = 1 }, wantErr: "ingestion.test_ratio"},
		{name: "negative seed", mutate: func(c *Config) { c.Ingestion.Seed = -1 }, wantErr: "ingestion.seed"},
		{name: "negative verbosity", mutate: func(c *Config) { c.Log.Verbosity = -1 }, wantErr: "log.verbosity"},
		{name: "disabled ledger needs no path", mutate: func(c *Config) { c.Ledger = LedgerConfig{} }},
		{name: "ledger path falls back to artifact dir", mutate: func(c *Config) { c.Ledger.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheckUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am.toml")
	content := `
[ingestion]
source = "stud.csv"
test_ration = 0.3

[ledgr]
path = "x.db"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	unknown, err := CheckUnknownKeys(path)
	require.NoError(t, err)
	assert.Contains(t, unknown, "ingestion.test_ration")
	assert.Contains(t, unknown, "ledgr.path")
	assert.NotContains(t, unknown, "ingestion.source")
}

func TestCheckUnknownKeys_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ingestion\n"), 0644))

	_, err := CheckUnknownKeys(path)
	assert.Error(t, err)
}

func TestSave_RoundTripAndBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "am.toml")

	require.NoError(t, WriteDefault(path))
	assert.NoFileExists(t, path+".back1")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	unknown, err := CheckUnknownKeys(path)
	require.NoError(t, err)
	assert.Empty(t, unknown)

	cfg.Ingestion.Seed = 1
	require.NoError(t, Save(path, cfg))
	cfg.Ingestion.Seed = 2
	require.NoError(t, Save(path, cfg))

	assert.FileExists(t, path+".back1")
	assert.FileExists(t, path+".back2")

	back1, err := LoadFromFile(path + ".back1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), back1.Ingestion.Seed)

	current, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), current.Ingestion.Seed)
}
