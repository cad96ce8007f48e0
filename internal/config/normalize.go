package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServices()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeServices() {
	if c.VideoAI.APIKey == "" {
		if value, ok := os.LookupEnv("VIDFLOW_VIDEOAI_API_KEY"); ok {
			c.VideoAI.APIKey = value
		}
	}
	if c.OpenAI.APIKey == "" {
		if value, ok := os.LookupEnv("VIDFLOW_OPENAI_API_KEY"); ok {
			c.OpenAI.APIKey = value
		}
	}
	if c.Search.APIKey == "" {
		if value, ok := os.LookupEnv("VIDFLOW_SEARCH_API_KEY"); ok {
			c.Search.APIKey = value
		}
	}

	c.BlobStore.AccountURL = strings.TrimRight(strings.TrimSpace(c.BlobStore.AccountURL), "/")
	c.VideoAI.Endpoint = strings.TrimRight(strings.TrimSpace(c.VideoAI.Endpoint), "/")
	c.OpenAI.Endpoint = strings.TrimRight(strings.TrimSpace(c.OpenAI.Endpoint), "/")
	c.Search.Endpoint = strings.TrimRight(strings.TrimSpace(c.Search.Endpoint), "/")

	if strings.TrimSpace(c.VideoAI.APIVersion) == "" {
		c.VideoAI.APIVersion = defaultVideoAIAPIVersion
	}
	if strings.TrimSpace(c.OpenAI.APIVersion) == "" {
		c.OpenAI.APIVersion = defaultOpenAIAPIVersion
	}
	if strings.TrimSpace(c.Search.APIVersion) == "" {
		c.Search.APIVersion = defaultSearchAPIVersion
	}
	if strings.TrimSpace(c.Search.IndexName) == "" {
		c.Search.IndexName = defaultSearchIndexName
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
