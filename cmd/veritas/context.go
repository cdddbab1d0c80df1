package main

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"Veritas/internal/config"
	"Veritas/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     config.Config
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() config.Config {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config = config.Load(path)
	})
	return c.config
}

func (c *commandContext) logger(w io.Writer) *slog.Logger {
	cfg := c.ensureConfig()
	return logging.NewWithWriter(w, cfg.Logging.Level, cfg.Logging.Format)
}
