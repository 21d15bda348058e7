package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.applyEnv(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCategories()
	c.normalizeTracker()
	c.normalizeRemote()
	c.normalizeArchive()
	c.normalizeLogging()
	return nil
}

// applyEnv lets the systemd EnvironmentFile values win over the TOML file.
func (c *Config) applyEnv() error {
	if value, ok := lookupEnv("COMPLETED_DIR"); ok {
		c.Paths.CompletedDir = value
	}
	if value, ok := lookupEnv("IMPORT_BASE"); ok {
		c.Paths.ImportBase = value
	}
	if value, ok := lookupEnv("EXTRACTED_DIR"); ok {
		c.Paths.ScratchDir = value
	}
	if value, ok := lookupEnv("B2_REMOTE"); ok {
		c.Remote.Destination = value
	}
	if value, ok := lookupEnv("QBT_API_URL"); ok {
		c.Tracker.URL = value
	}
	if value, ok := lookupEnv("CATEGORIES"); ok {
		categories, err := ParseCategories(value)
		if err != nil {
			return fmt.Errorf("CATEGORIES: %w", err)
		}
		c.Categories = categories
	}
	if value, ok := lookupEnv("MIN_SEEDING_DAYS"); ok {
		days, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("MIN_SEEDING_DAYS: %w", err)
		}
		c.Retention.MinSeedingDays = days
	}
	if value, ok := lookupEnv("MIN_AVG_RATE"); ok {
		rate, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("MIN_AVG_RATE: %w", err)
		}
		c.Retention.MinAvgRate = rate
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.CompletedDir, err = expandPath(strings.TrimSpace(c.Paths.CompletedDir)); err != nil {
		return fmt.Errorf("paths.completed_dir: %w", err)
	}
	if c.Paths.ImportBase, err = expandPath(strings.TrimSpace(c.Paths.ImportBase)); err != nil {
		return fmt.Errorf("paths.import_base: %w", err)
	}
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir
	}
	if c.Paths.ScratchDir, err = expandPath(strings.TrimSpace(c.Paths.ScratchDir)); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.MetricsDir, err = expandPath(strings.TrimSpace(c.Paths.MetricsDir)); err != nil {
		return fmt.Errorf("paths.metrics_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCategories() {
	normalized := make(map[string]string, len(c.Categories))
	for name, subdir := range c.Categories {
		normalized[strings.TrimSpace(name)] = strings.Trim(strings.TrimSpace(subdir), "/")
	}
	c.Categories = normalized
}

func (c *Config) normalizeTracker() {
	c.Tracker.URL = strings.TrimRight(strings.TrimSpace(c.Tracker.URL), "/")
	if c.Tracker.URL == "" {
		c.Tracker.URL = defaultTrackerURL
	}
}

func (c *Config) normalizeRemote() {
	c.Remote.Destination = strings.TrimRight(strings.TrimSpace(c.Remote.Destination), "/")
	c.Remote.RcloneBinary = strings.TrimSpace(c.Remote.RcloneBinary)
	if c.Remote.RcloneBinary == "" {
		c.Remote.RcloneBinary = defaultRcloneBinary
	}
	c.Remote.StatsInterval = strings.TrimSpace(c.Remote.StatsInterval)
	if c.Remote.StatsInterval == "" {
		c.Remote.StatsInterval = defaultStatsInterval
	}
	c.Remote.DownloadsPrefix = strings.Trim(strings.TrimSpace(c.Remote.DownloadsPrefix), "/")
	if c.Remote.DownloadsPrefix == "" {
		c.Remote.DownloadsPrefix = defaultDownloadsPrefix
	}
}

func (c *Config) normalizeArchive() {
	exts := make([]string, 0, len(c.Archive.Extensions))
	for _, ext := range c.Archive.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	c.Archive.Extensions = exts
	c.Archive.UnarBinary = strings.TrimSpace(c.Archive.UnarBinary)
	if c.Archive.UnarBinary == "" {
		c.Archive.UnarBinary = defaultUnarBinary
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
