package workflow

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"seedkeeper/internal/config"
	"seedkeeper/internal/linker"
	"seedkeeper/internal/logging"
	"seedkeeper/internal/metrics"
	"seedkeeper/internal/propagate"
	"seedkeeper/internal/services"
	"seedkeeper/internal/staging"
	"seedkeeper/internal/upload"
)

// UploadSummary reports what one upload pass did.
type UploadSummary struct {
	RunID          string
	ScratchRemoved int
	Linked         linker.Result
	Import         upload.Result
	Completed      upload.Result
	Propagated     propagate.Result
	Duration       time.Duration
}

// Uploads combines the import and completed scan counters.
func (s UploadSummary) Uploads() upload.Result {
	total := s.Import
	total.Add(s.Completed)
	return total
}

// RunUploadPass executes Link, the import-directory scans, the completed
// directory fallback scan and marker propagation, in that order. Per-item
// failures are logged and counted; the returned error covers only problems
// that prevent the pass from starting.
func RunUploadPass(ctx context.Context, cfg *config.Config, deps Deps) (UploadSummary, error) {
	var summary UploadSummary
	if err := cfg.ValidateUpload(); err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "upload", "validate config", "", err)
	}
	deps, err := deps.withUploadDefaults(cfg)
	if err != nil {
		return summary, err
	}

	started := deps.now()
	summary.RunID = uuid.NewString()
	ctx = services.WithRunID(ctx, summary.RunID)
	ctx = services.WithPass(ctx, "upload")
	logger := logging.WithContext(ctx, logging.NewComponentLogger(deps.Logger, "workflow"))
	logger.Info("upload pass started", logging.Int("categories", len(cfg.Categories)))

	pass := metrics.NewPass("upload", started)

	if cfg.Staging.StaleHours > 0 {
		cleaned := staging.CleanStale(ctx, cfg.Paths.ScratchDir, cfg.StagingMaxAge(), logger)
		summary.ScratchRemoved = len(cleaned.Removed)
	}

	subdirs := cfg.Subdirs()
	summary.Linked = linker.Link(ctx, linker.Options{
		CompletedDir: cfg.Paths.CompletedDir,
		ImportBase:   cfg.Paths.ImportBase,
		Subdirs:      subdirs,
		Markers:      deps.Markers,
		Logger:       deps.Logger,
	})

	uploader := &upload.Uploader{
		Remote:     deps.Remote,
		Extractor:  deps.Extractor,
		Markers:    deps.Markers,
		RemoteRoot: cfg.Remote.Destination,
		ScratchDir: cfg.Paths.ScratchDir,
		Logger:     deps.Logger,
	}
	for _, subdir := range subdirs {
		if ctx.Err() != nil {
			break
		}
		result := uploader.ScanImportDir(ctx, filepath.Join(cfg.Paths.ImportBase, subdir), subdir+"/")
		summary.Import.Add(result)
	}
	if ctx.Err() == nil {
		summary.Completed = uploader.ScanCompletedDir(ctx, cfg.Paths.CompletedDir, downloadsBase(cfg.Remote.DownloadsPrefix), cfg.CategoryDirs())
	}

	if ctx.Err() == nil {
		summary.Propagated = propagate.Run(ctx, propagate.Options{
			CompletedDir: cfg.Paths.CompletedDir,
			ImportBase:   cfg.Paths.ImportBase,
			Subdirs:      subdirs,
			Markers:      deps.Markers,
			Logger:       deps.Logger,
		})
	}

	finished := deps.now()
	summary.Duration = finished.Sub(started)
	uploads := summary.Uploads()

	pass.Add(metrics.OutcomeLinked, summary.Linked.Items)
	pass.Add(metrics.OutcomeUploaded, uploads.Uploaded)
	pass.Add(metrics.OutcomeAlreadyPresent, uploads.AlreadyPresent)
	pass.Add(metrics.OutcomeFailed, uploads.Failed+summary.Linked.Errors+summary.Propagated.Errors)
	pass.Add(metrics.OutcomeBusy, uploads.Busy)
	pass.Add(metrics.OutcomePropagated, summary.Propagated.Propagated)
	pass.Finish(finished, ctx.Err() == nil)
	writeMetrics(logger, pass, cfg.Paths.MetricsDir)

	logger.Info("upload pass done",
		logging.Int("linked", summary.Linked.Items),
		logging.Int("uploaded", uploads.Uploaded),
		logging.Int("already_present", uploads.AlreadyPresent),
		logging.Int("failed", uploads.Failed),
		logging.Int("busy", uploads.Busy),
		logging.Int("propagated", summary.Propagated.Propagated),
		logging.Int("scratch_removed", summary.ScratchRemoved),
		logging.Duration("duration", summary.Duration),
	)
	return summary, ctx.Err()
}

// downloadsBase turns the configured prefix into a remote base path.
func downloadsBase(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
