package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoad_FileAndDefaults(t *testing.T) {
	dir := writeConfig(t, `
port: "9090"
auth:
  signing_key: test-key
remote:
  base_url: http://controller.local:3000/
  status_path: zoneStatus
sync:
  interval: 5s
`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("port: got %q", cfg.Port)
	}
	if cfg.Remote.BaseURL != "http://controller.local:3000" {
		t.Errorf("base_url not trimmed: %q", cfg.Remote.BaseURL)
	}
	if cfg.Remote.StatusPath != "/zoneStatus" {
		t.Errorf("status_path not normalized: %q", cfg.Remote.StatusPath)
	}
	if cfg.Sync.Interval != 5*time.Second {
		t.Errorf("sync.interval: got %s", cfg.Sync.Interval)
	}
	if cfg.Override.ReadinessTimeout != 10*time.Second {
		t.Errorf("readiness_timeout default: got %s", cfg.Override.ReadinessTimeout)
	}
	if cfg.DB.Path != ":memory:" {
		t.Errorf("db.path default: got %q", cfg.DB.Path)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := writeConfig(t, `
auth:
  signing_key: file-key
remote:
  base_url: http://a
`)
	t.Setenv("SPRINKLER_REMOTE_BASE_URL", "http://b")
	t.Setenv("SPRINKLER_OVERRIDE_COMMAND_TIMEOUT", "3s")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Remote.BaseURL != "http://b" {
		t.Errorf("env override ignored: %q", cfg.Remote.BaseURL)
	}
	if cfg.Override.CommandTimeout != 3*time.Second {
		t.Errorf("command_timeout: got %s", cfg.Override.CommandTimeout)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	dir := writeConfig(t, "port: \"1\"\n")
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_DryRunAllowsMissingBaseURL(t *testing.T) {
	c := &Config{
		Auth:     AuthConfig{SigningKey: "k"},
		Remote:   RemoteConfig{DryRun: true, StatusPath: "/zoneStatus"},
		Sync:     SyncConfig{Interval: time.Second},
		Schedule: ScheduleConfig{Interval: time.Second},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
