package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Validate ensures the configuration is structurally usable. Pass-specific
// requirements are checked by ValidateUpload and ValidateCleanup so that
// commands such as `config init` or `torrents` work with partial configs.
func (c *Config) Validate() error {
	if err := c.validateCategories(); err != nil {
		return err
	}
	if err := c.validateTracker(); err != nil {
		return err
	}
	if err := c.validateRemote(); err != nil {
		return err
	}
	if err := c.validateRetention(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Staging.StaleHours < 0 {
		return errors.New("staging.stale_hours must be >= 0")
	}
	return nil
}

// ValidateUpload checks the settings the upload pass depends on.
func (c *Config) ValidateUpload() error {
	if err := c.requirePaths(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		return errors.New("paths.scratch_dir must be set (or export EXTRACTED_DIR)")
	}
	if c.Remote.Destination == "" {
		return errors.New("remote.destination must be set (or export B2_REMOTE)")
	}
	return nil
}

// ValidateCleanup checks the settings the cleanup pass depends on.
func (c *Config) ValidateCleanup() error {
	return c.requirePaths()
}

func (c *Config) requirePaths() error {
	if c.Paths.CompletedDir == "" {
		return errors.New("paths.completed_dir must be set (or export COMPLETED_DIR)")
	}
	if c.Paths.ImportBase == "" {
		return errors.New("paths.import_base must be set (or export IMPORT_BASE)")
	}
	return nil
}

func (c *Config) validateCategories() error {
	for name, subdir := range c.Categories {
		if name == "" {
			return errors.New("categories: category name must not be empty")
		}
		if subdir == "" {
			return fmt.Errorf("categories.%s: subdirectory must not be empty", name)
		}
		if subdir == "." || subdir == ".." || strings.ContainsRune(subdir, filepath.Separator) {
			return fmt.Errorf("categories.%s: subdirectory %q must be a single path segment", name, subdir)
		}
	}
	return nil
}

func (c *Config) validateTracker() error {
	if !strings.HasPrefix(c.Tracker.URL, "http://") && !strings.HasPrefix(c.Tracker.URL, "https://") {
		return fmt.Errorf("tracker.url %q must be an http(s) URL", c.Tracker.URL)
	}
	return ensurePositiveMap(map[string]int{
		"tracker.request_timeout": c.Tracker.RequestTimeout,
		"tracker.ready_timeout":   c.Tracker.ReadyTimeout,
	})
}

func (c *Config) validateRemote() error {
	if c.Remote.Transfers <= 0 {
		return errors.New("remote.transfers must be positive")
	}
	if _, err := time.ParseDuration(c.Remote.StatsInterval); err != nil {
		return fmt.Errorf("remote.stats_interval: %w", err)
	}
	return nil
}

func (c *Config) validateRetention() error {
	if c.Retention.MinSeedingDays < 0 {
		return errors.New("retention.min_seeding_days must be >= 0")
	}
	if c.Retention.MinAvgRate < 0 {
		return errors.New("retention.min_avg_rate must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
