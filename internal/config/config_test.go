package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidflow/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if cfg.Paths.APIBind != "127.0.0.1:7312" {
		t.Fatalf("unexpected api bind: %s", cfg.Paths.APIBind)
	}
	if cfg.Workflow.MaxConcurrentInstances <= 0 {
		t.Fatal("expected positive max concurrency default")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		`api_bind = "127.0.0.1:9999"`,
		"[workflow]",
		"stage_timeout = 30",
		"retry_attempts = 2",
		"retry_backoff = 1",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected resolved path %s, got %s (exists=%v)", path, resolved, exists)
	}
	if cfg.Paths.APIBind != "127.0.0.1:9999" {
		t.Fatalf("override not applied: %s", cfg.Paths.APIBind)
	}
	if cfg.Workflow.StageTimeout != 30 || cfg.Workflow.RetryAttempts != 2 {
		t.Fatalf("workflow overrides not applied: %+v", cfg.Workflow)
	}
	if cfg.Workflow.QueuePollInterval != 2 {
		t.Fatalf("expected default poll interval, got %d", cfg.Workflow.QueuePollInterval)
	}
}

func TestValidateRejectsHalfConfiguredService(t *testing.T) {
	cfg := config.Default()
	cfg.Search.Endpoint = "https://search.example.net"
	cfg.Search.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for endpoint without api key")
	}
}

func TestValidateRejectsBadLogging(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unsupported log format")
	}
}

func TestValidateRetryBackoff(t *testing.T) {
	cfg := config.Default()
	cfg.Workflow.RetryAttempts = 3
	cfg.Workflow.RetryBackoff = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for retries without backoff")
	}
}
