package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("KONSERVE_CONFIG_PATH", "/custom/config.toml")
		t.Setenv("KONSERVE_HOME", "/custom/konserve")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if defaults["config_path"] != "/custom/config.toml" {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], "/custom/config.toml")
		}
		if defaults["base_dir"] != "/custom/konserve" {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], "/custom/konserve")
		}
		if defaults["backup_dir"] != "/custom/konserve/backups" {
			t.Errorf("backup_dir = %q, want %q", defaults["backup_dir"], "/custom/konserve/backups")
		}
		if defaults["log_dir"] != "/custom/konserve/log" {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], "/custom/konserve/log")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("KONSERVE_CONFIG_PATH", "")
		t.Setenv("KONSERVE_HOME", "")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()

		wantConfig := filepath.Join(homeDir, ".config", "konserve.toml")
		if defaults["config_path"] != wantConfig {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], wantConfig)
		}

		wantBase := filepath.Join(homeDir, ".local", "share", "konserve")
		if defaults["base_dir"] != wantBase {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], wantBase)
		}

		wantLog := filepath.Join(wantBase, "log")
		if defaults["log_dir"] != wantLog {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], wantLog)
		}
	})
}
