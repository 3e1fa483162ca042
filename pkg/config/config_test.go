package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func TestLoad_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "INFO"

identity:
  friendly_name: "Test Provider"

subscription:
  max_subscription_duration: 1h
  min_subscription_duration: 10s

periodic:
  mode: retrievability
  default_period: 1s
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Identity.FriendlyName != "Test Provider" {
		t.Errorf("expected friendly_name 'Test Provider', got %q", cfg.Identity.FriendlyName)
	}
	if cfg.Subscription.MaxNotifyErrors != 1 {
		t.Errorf("expected default max_notify_errors 1, got %d", cfg.Subscription.MaxNotifyErrors)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "does-not-exist.yaml")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("expected no error for missing config, got %v", err)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "INFO"
identity:
  friendly_name: "Env Test"
subscription:
  max_subscription_duration: 1h
  min_subscription_duration: 10s
periodic:
  mode: retrievability
  default_period: 1s
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("SDCGO_LOGGING_LEVEL", "DEBUG")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("expected env override to set log level 'DEBUG', got %q", cfg.Logging.Level)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, yamlSafePath("config.yaml"))

	cfg := GetDefaultConfig()
	cfg.Identity.FriendlyName = "Round Trip Provider"
	cfg.Subscription.MaxSubscriptionDuration = 2 * time.Hour

	if err := SaveConfig(cfg, configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}

	if loaded.Identity.FriendlyName != "Round Trip Provider" {
		t.Errorf("expected friendly_name to round-trip, got %q", loaded.Identity.FriendlyName)
	}
	if loaded.Subscription.MaxSubscriptionDuration != 2*time.Hour {
		t.Errorf("expected max_subscription_duration to round-trip, got %v", loaded.Subscription.MaxSubscriptionDuration)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	if path == "" {
		t.Fatal("expected non-empty default config path")
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("expected default config filename 'config.yaml', got %q", filepath.Base(path))
	}
}
