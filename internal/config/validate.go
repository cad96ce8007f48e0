package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateServices(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":      c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval":     c.Workflow.ErrorRetryInterval,
		"workflow.stage_timeout":            c.Workflow.StageTimeout,
		"workflow.max_concurrent_instances": c.Workflow.MaxConcurrentInstances,
		"blobstore.request_timeout":         c.BlobStore.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.RetryAttempts < 0 {
		return errors.New("workflow.retry_attempts must not be negative")
	}
	if c.Workflow.RetryAttempts > 0 && c.Workflow.RetryBackoff <= 0 {
		return errors.New("workflow.retry_backoff must be positive when retries are enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

// validateServices rejects half-configured external services. An empty
// endpoint means the matching stage runs in simulated mode, which is valid.
func (c *Config) validateServices() error {
	if c.VideoAI.Endpoint != "" && strings.TrimSpace(c.VideoAI.APIKey) == "" {
		return errors.New("videoai.api_key must be set when videoai.endpoint is configured")
	}
	if c.OpenAI.Endpoint != "" && strings.TrimSpace(c.OpenAI.APIKey) == "" {
		return errors.New("openai.api_key must be set when openai.endpoint is configured")
	}
	if c.Search.Endpoint != "" && strings.TrimSpace(c.Search.APIKey) == "" {
		return errors.New("search.api_key must be set when search.endpoint is configured")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
