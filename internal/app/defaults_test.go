package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("FIMD_CONFIG_PATH", "/custom/config.toml")
		t.Setenv("FIMD_HOME", "/custom/fimd")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if defaults["config_path"] != "/custom/config.toml" {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], "/custom/config.toml")
		}
		if defaults["base_dir"] != "/custom/fimd" {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], "/custom/fimd")
		}
		if defaults["log_dir"] != "/custom/fimd/log" {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], "/custom/fimd/log")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("FIMD_CONFIG_PATH", "")
		t.Setenv("FIMD_HOME", "")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()

		wantConfig := filepath.Join(homeDir, ".config", "fimd.toml")
		if defaults["config_path"] != wantConfig {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], wantConfig)
		}

		wantBase := filepath.Join(homeDir, ".local", "share", "fimd")
		if defaults["base_dir"] != wantBase {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], wantBase)
		}

		wantLog := filepath.Join(wantBase, "log")
		if defaults["log_dir"] != wantLog {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], wantLog)
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Fatalf("LoadDotEnv() error = %v", err)
		}
	})

	t.Run("sets unset variables only", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		content := "FIMD_TEST_NEW=from-file\nFIMD_TEST_SET=from-file\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("FIMD_TEST_SET", "from-env")
		t.Setenv("FIMD_TEST_NEW", "")
		os.Unsetenv("FIMD_TEST_NEW")

		if err := LoadDotEnv(path); err != nil {
			t.Fatalf("LoadDotEnv() error = %v", err)
		}
		if got := os.Getenv("FIMD_TEST_NEW"); got != "from-file" {
			t.Errorf("FIMD_TEST_NEW = %q, want %q", got, "from-file")
		}
		if got := os.Getenv("FIMD_TEST_SET"); got != "from-env" {
			t.Errorf("FIMD_TEST_SET = %q, want %q", got, "from-env")
		}
	})
}
