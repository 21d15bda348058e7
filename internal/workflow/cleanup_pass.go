package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"seedkeeper/internal/config"
	"seedkeeper/internal/logging"
	"seedkeeper/internal/metrics"
	"seedkeeper/internal/retention"
	"seedkeeper/internal/services"
)

// ErrCleanupSkipped wraps tracker failures that made the cleanup pass skip
// every deletion. The pass left the disk untouched and will retry on the next
// run, so callers treat it as a clean exit.
var ErrCleanupSkipped = errors.New("cleanup skipped")

// CleanupOptions tunes a cleanup pass.
type CleanupOptions struct {
	DryRun bool
}

// RunCleanupPass sweeps the completed tree once against a fresh tracker
// snapshot.
func RunCleanupPass(ctx context.Context, cfg *config.Config, deps Deps, opts CleanupOptions) (retention.Stats, error) {
	if err := cfg.ValidateCleanup(); err != nil {
		return retention.Stats{}, services.Wrap(services.ErrConfiguration, "cleanup", "validate config", "", err)
	}
	deps = deps.withCleanupDefaults(cfg)

	started := deps.now()
	ctx = services.WithRunID(ctx, uuid.NewString())
	ctx = services.WithPass(ctx, "cleanup")
	logger := logging.WithContext(ctx, logging.NewComponentLogger(deps.Logger, "workflow"))
	pass := metrics.NewPass("cleanup", started)

	sweeper := &retention.Sweeper{
		Tracker: deps.Tracker,
		Policy: retention.Policy{
			MinAge:     cfg.MinSeedingAge(),
			MinAvgRate: cfg.Retention.MinAvgRate,
		},
		Markers:      deps.Markers,
		CompletedDir: cfg.Paths.CompletedDir,
		Subdirs:      cfg.Subdirs(),
		ImportDirs:   cfg.ImportDirs(),
		DryRun:       opts.DryRun,
		Now:          deps.Now,
		Logger:       deps.Logger,
	}

	stats, err := sweeper.Sweep(ctx)
	finished := deps.now()
	if err != nil {
		if ctx.Err() == nil {
			logging.ErrorWithContext(logger, "cannot fetch torrents; skipping cleanup", "cleanup_skipped",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, services.Hint(err)),
			)
			err = fmt.Errorf("%w: %w", ErrCleanupSkipped, err)
		}
		pass.Finish(finished, false)
		writeMetrics(logger, pass, cfg.Paths.MetricsDir)
		return stats, err
	}

	pass.Add(metrics.OutcomeCleaned, stats.Cleaned)
	pass.Add(metrics.OutcomeSeeding, stats.Seeding)
	pass.Add(metrics.OutcomeSkipped, stats.Skipped)
	pass.Add(metrics.OutcomeFailed, stats.Errors)
	pass.Add(metrics.OutcomeOrphanMarker, stats.OrphanMarkers)
	pass.AddFreedBytes(stats.FreedBytes)
	pass.Finish(finished, true)
	writeMetrics(logger, pass, cfg.Paths.MetricsDir)

	logger.Info(fmt.Sprintf("cleanup done: %d removed, %d seeding, %d skipped", stats.Cleaned, stats.Seeding, stats.Skipped),
		logging.Int64("freed_bytes", stats.FreedBytes),
		logging.String("freed", logging.FormatBytes(stats.FreedBytes)),
		logging.Duration("duration", finished.Sub(started)),
	)
	return stats, nil
}

func writeMetrics(logger *slog.Logger, pass *metrics.Pass, dir string) {
	if err := pass.WriteTextfile(dir); err != nil {
		logging.WarnWithContext(logger, "cannot write metrics textfile", "metrics_write_failed",
			logging.String("pass", pass.Name()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.metrics_dir permissions"),
			logging.String(logging.FieldImpact, "pass results missing from node_exporter"),
		)
	}
}
