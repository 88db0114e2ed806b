package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"streamwatch/internal/apiclient"
	"streamwatch/internal/config"
)

type commandContext struct {
	apiFlag    *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(apiFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withClient resolves the daemon API address and runs fn against it. An
// explicit --api flag bypasses config loading entirely, which keeps CLI
// usage against remote daemons config-free.
func (c *commandContext) withClient(fn func(*apiclient.Client) error) error {
	if c.apiFlag != nil && strings.TrimSpace(*c.apiFlag) != "" {
		return fn(apiclient.New(*c.apiFlag, ""))
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	return fn(apiclient.New(cfg.Paths.APIBind, cfg.Paths.APIToken))
}

func (c *commandContext) overridesAPI() bool {
	return c.apiFlag != nil && strings.TrimSpace(*c.apiFlag) != ""
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for parent := cmd; parent != nil; parent = parent.Parent() {
		if parent.Annotations != nil && parent.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
