package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directory layout shared by every pass.
type Paths struct {
	CompletedDir string `toml:"completed_dir"`
	ImportBase   string `toml:"import_base"`
	ScratchDir   string `toml:"scratch_dir"`
	LogDir       string `toml:"log_dir"`
	MetricsDir   string `toml:"metrics_dir"`
}

// Tracker contains qBittorrent WebUI API settings.
type Tracker struct {
	URL            string `toml:"url"`
	RequestTimeout int    `toml:"request_timeout"`
	ReadyTimeout   int    `toml:"ready_timeout"`
}

// Remote contains the durable storage destination and rclone settings.
type Remote struct {
	Destination     string `toml:"destination"`
	RcloneBinary    string `toml:"rclone_binary"`
	Transfers       int    `toml:"transfers"`
	StatsInterval   string `toml:"stats_interval"`
	DownloadsPrefix string `toml:"downloads_prefix"`
}

// Archive contains settings for archive detection and extraction.
type Archive struct {
	Extensions []string `toml:"extensions"`
	UnarBinary string   `toml:"unar_binary"`
}

// Retention contains the seeding-economics thresholds used by the cleanup pass.
type Retention struct {
	MinSeedingDays int   `toml:"min_seeding_days"`
	MinAvgRate     int64 `toml:"min_avg_rate"`
}

// Staging contains scratch workspace housekeeping settings.
type Staging struct {
	StaleHours int `toml:"stale_hours"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for seedkeeper.
//
// Configuration sections by subsystem:
//   - Paths: completed tree, import tree, scratch, log and metrics directories
//   - Categories: tracker category name to managed subdirectory
//   - Tracker: qBittorrent WebUI API endpoint and timeouts
//   - Remote: rclone destination and transfer flags
//   - Archive: archive extensions and the unar binary
//   - Retention: minimum seeding age and average upload rate
//   - Staging: scratch directory housekeeping
//   - Logging: log format and level
type Config struct {
	Paths      Paths             `toml:"paths"`
	Categories map[string]string `toml:"categories"`
	Tracker    Tracker           `toml:"tracker"`
	Remote     Remote            `toml:"remote"`
	Archive    Archive           `toml:"archive"`
	Retention  Retention         `toml:"retention"`
	Staging    Staging           `toml:"staging"`
	Logging    Logging           `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/seedkeeper/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and environment overrides applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("seedkeeper.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories seedkeeper owns. The completed and
// import trees belong to the download client and the organizer, so they are
// never created here.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ScratchDir, c.Paths.LogDir, c.Paths.MetricsDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Subdirs returns the managed subdirectories, sorted and de-duplicated.
// Several categories may share one subdirectory (tv-sonarr and tv both map to "tv").
func (c *Config) Subdirs() []string {
	seen := make(map[string]struct{}, len(c.Categories))
	out := make([]string, 0, len(c.Categories))
	for _, subdir := range c.Categories {
		if _, ok := seen[subdir]; ok {
			continue
		}
		seen[subdir] = struct{}{}
		out = append(out, subdir)
	}
	sort.Strings(out)
	return out
}

// CategoryNames returns the configured category names in sorted order.
func (c *Config) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for name := range c.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CategoryDirs returns the completed-tree path of every managed subdirectory.
func (c *Config) CategoryDirs() map[string]struct{} {
	dirs := make(map[string]struct{}, len(c.Categories))
	for _, subdir := range c.Subdirs() {
		dirs[filepath.Join(c.Paths.CompletedDir, subdir)] = struct{}{}
	}
	return dirs
}

// ImportDirs returns the import-tree path of every managed subdirectory.
func (c *Config) ImportDirs() []string {
	subdirs := c.Subdirs()
	dirs := make([]string, 0, len(subdirs))
	for _, subdir := range subdirs {
		dirs = append(dirs, filepath.Join(c.Paths.ImportBase, subdir))
	}
	return dirs
}

// MinSeedingAge returns the retention age threshold.
func (c *Config) MinSeedingAge() time.Duration {
	return time.Duration(c.Retention.MinSeedingDays) * 24 * time.Hour
}

// TrackerTimeout returns the per-request tracker timeout.
func (c *Config) TrackerTimeout() time.Duration {
	return time.Duration(c.Tracker.RequestTimeout) * time.Second
}

// StagingMaxAge returns the age after which scratch directories are considered stale.
func (c *Config) StagingMaxAge() time.Duration {
	return time.Duration(c.Staging.StaleHours) * time.Hour
}

// ParseCategories parses the CATEGORIES environment format.
//
// Format: "tv-sonarr:tv,radarr:movies" yields {"tv-sonarr": "tv", "radarr": "movies"}.
// Empty pairs are ignored; a pair without a colon is an error.
func ParseCategories(value string) (map[string]string, error) {
	result := make(map[string]string)
	for _, pair := range strings.Split(value, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, subdir, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("category %q: expected name:subdir", pair)
		}
		result[strings.TrimSpace(name)] = strings.TrimSpace(subdir)
	}
	return result, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
