package am

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/mlproject/errors"
	"github.com/teranos/mlproject/logger"
)

const configHeader = "# mlproject configuration\n"

// Marshal renders cfg as TOML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config to TOML")
	}
	return append([]byte(configHeader), data...), nil
}

// Save writes cfg to configPath, rotating up to three backups of any
// existing file first.
func Save(configPath string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "create config directory for %s", configPath)
	}
	if err := createBackup(configPath); err != nil {
		return err
	}
	if err := os.WriteFile(configPath, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "write %s", configPath)
	}
	return nil
}

// WriteDefault writes the default configuration to configPath.
func WriteDefault(configPath string) error {
	return Save(configPath, Default())
}

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil // No file to backup
	}

	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		logger.Warnw("Failed to delete old config backup", logger.FieldPath, back3, logger.FieldError, err)
	}

	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}

	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	if err := os.WriteFile(back1, content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}

	return nil
}
