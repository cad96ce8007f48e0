package testsupport

import (
	"path/filepath"
	"testing"

	"vidflow/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 1
	cfg.Workflow.StageTimeout = 5
	cfg.Workflow.MaxConcurrentInstances = 2

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithAPIToken sets the bearer token on the test config.
func WithAPIToken(token string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.APIToken = token
	}
}

// WithRetries configures stage retry policy on the test config.
func WithRetries(attempts, backoffSeconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.RetryAttempts = attempts
		cfg.Workflow.RetryBackoff = backoffSeconds
	}
}
