package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - KONSERVE_CONFIG_PATH: config file location (default: ~/.config/konserve.toml)
//   - KONSERVE_HOME: base directory for konserve data (default: ~/.local/share/konserve)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"backup_dir":  filepath.Join(baseDir, "backups"),
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking KONSERVE_CONFIG_PATH env var first,
// then falling back to the default ~/.config/konserve.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("KONSERVE_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "konserve.toml"), nil
}

// getBaseDir returns the base directory for konserve data, checking KONSERVE_HOME env var
// first, then falling back to the XDG default ~/.local/share/konserve.
func getBaseDir() (string, error) {
	if path := os.Getenv("KONSERVE_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "konserve"), nil
}
