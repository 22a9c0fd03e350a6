package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tvtracker/tvtracker/internal/config"
	"github.com/tvtracker/tvtracker/internal/database"
	"github.com/tvtracker/tvtracker/internal/logger"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// newLogger builds the root logger. One-shot commands log warnings only
// unless --verbose is set, so their output stays readable.
func (c *commandContext) newLogger(cfg *config.Config, daemon bool) *logger.Logger {
	level := cfg.Logging.Level
	if !daemon && (c.verbose == nil || !*c.verbose) {
		level = "warn"
	}
	return logger.New(logger.Config{
		Level:      level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
}

// openDatabase opens the configured database and applies pending migrations.
func openDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}
