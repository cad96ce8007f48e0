package main

import (
	"strings"
	"sync"

	"vidflow/internal/config"
)

// commandContext resolves the daemon API address and token once, from
// flags first and the configuration file second.
type commandContext struct {
	apiFlag    *string
	tokenFlag  *string
	configFlag *string

	once sync.Once
	cfg  *config.Config
	err  error
}

func newCommandContext(apiFlag, tokenFlag, configFlag *string) *commandContext {
	return &commandContext{apiFlag: apiFlag, tokenFlag: tokenFlag, configFlag: configFlag}
}

func (c *commandContext) loadConfig() (*config.Config, error) {
	c.once.Do(func() {
		path := ""
		if c.configFlag != nil {
			path = *c.configFlag
		}
		c.cfg, _, _, c.err = config.Load(path)
	})
	return c.cfg, c.err
}

func (c *commandContext) client() (*apiClient, error) {
	addr := ""
	if c.apiFlag != nil {
		addr = strings.TrimSpace(*c.apiFlag)
	}
	token := ""
	if c.tokenFlag != nil {
		token = strings.TrimSpace(*c.tokenFlag)
	}

	if addr == "" || token == "" {
		cfg, err := c.loadConfig()
		if err != nil {
			return nil, err
		}
		if addr == "" {
			addr = cfg.Paths.APIBind
		}
		if token == "" {
			token = cfg.Paths.APIToken
		}
	}
	return newAPIClient(addr, token), nil
}
