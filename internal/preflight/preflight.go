package preflight

import (
	"context"
	"path/filepath"

	"seedkeeper/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory and tracker checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Completed directory", cfg.Paths.CompletedDir))
	results = append(results, CheckDirectoryAccess("Import base", cfg.Paths.ImportBase))
	for _, subdir := range cfg.Subdirs() {
		results = append(results, CheckDirectoryAccess("Import "+subdir, filepath.Join(cfg.Paths.ImportBase, subdir)))
	}
	if cfg.Paths.ScratchDir != "" {
		results = append(results, CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir))
	}
	if cfg.Paths.MetricsDir != "" {
		results = append(results, CheckDirectoryAccess("Metrics directory", cfg.Paths.MetricsDir))
	}
	results = append(results, CheckTracker(ctx, cfg))
	return results
}
