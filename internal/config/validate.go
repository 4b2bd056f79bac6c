package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEnrichment(); err != nil {
		return err
	}
	if err := c.validateTopList(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEnrichment() error {
	if c.Enrichment.BatchSize <= 0 {
		return errors.New("enrichment.batch_size must be positive")
	}
	return nil
}

func (c *Config) validateTopList() error {
	if c.TopList.DebounceMS < 0 {
		return errors.New("top_list.debounce_ms must not be negative")
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.BatchSize <= 0 {
		return errors.New("sync.batch_size must be positive")
	}
	if !c.Sync.Enabled {
		return nil
	}
	if c.Sync.DatabaseURL == "" {
		return fmt.Errorf("sync.database_url must be set when sync.enabled is true (or export %s)", syncDatabaseURLEnv)
	}
	if c.Sync.UserID == "" {
		return errors.New("sync.user_id must be set when sync.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
