package main

import (
	"fmt"
	"log/slog"

	"github.com/contre95/lyricbar/src/features/config"
	"github.com/contre95/lyricbar/src/features/logging"
	"github.com/contre95/lyricbar/src/infra/cache"
)

// commandContext lazily loads what subcommands share.
type commandContext struct {
	configFlag *string
	cfg        *config.Manager
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil || *c.configFlag == "" {
		return "config.yaml"
	}
	return *c.configFlag
}

// ensureConfig loads the configuration once and installs the default logger.
func (c *commandContext) ensureConfig() (*config.Manager, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slog.SetDefault(logging.SetupLogger(cfg))
	c.cfg = cfg
	return cfg, nil
}

// cacheStore opens the lyrics cache configured in cache_dir, or the user cache directory.
func (c *commandContext) cacheStore() (*cache.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	dir := cfg.GetString(config.KeyCacheDir)
	if dir == "" {
		if dir, err = cache.DefaultDir(); err != nil {
			return nil, fmt.Errorf("failed to locate cache directory: %w", err)
		}
	}
	return cache.NewStore(dir), nil
}
