package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"seedkeeper/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The completed and import roots are created along with one subdirectory per
// category so passes can run against an empty layout.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CompletedDir = filepath.Join(base, "completed")
	cfgVal.Paths.ImportBase = filepath.Join(base, "arr")
	cfgVal.Paths.ScratchDir = filepath.Join(base, "extracted")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Remote.Destination = "b2:test-bucket"
	cfgVal.Categories = map[string]string{"tv-sonarr": "tv", "radarr": "movies"}
	cfgVal.Retention.MinSeedingDays = 10
	cfgVal.Retention.MinAvgRate = 2048

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	for _, root := range []string{builder.cfg.Paths.CompletedDir, builder.cfg.Paths.ImportBase} {
		for _, subdir := range builder.cfg.Subdirs() {
			if err := os.MkdirAll(filepath.Join(root, subdir), 0o755); err != nil {
				t.Fatalf("mkdir %s/%s: %v", root, subdir, err)
			}
		}
	}

	return builder.cfg
}

// WithCategories replaces the category map on the test config.
func WithCategories(categories map[string]string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Categories = categories
	}
}

// WithRetention overrides the retention thresholds on the test config.
func WithRetention(days int, minRate int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Retention.MinSeedingDays = days
		b.cfg.Retention.MinAvgRate = minRate
	}
}

// WithTrackerURL points the test config at a stub tracker server.
func WithTrackerURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tracker.URL = url
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, rclone and unar are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"rclone", "unar"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.CompletedDir)
}
